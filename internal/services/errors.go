// Package services defines the business logic for contracts, check-ins,
// violations, scheduled settlement and the advisory features built on the
// oracle. This file centralizes service-level error values so that they can
// be consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Validation and authorization errors.
var (
	// ErrInvalidInput wraps every rejected request body; the wrapped message
	// names the offending field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated is returned when an operation requires a caller id
	// and none was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidStatus is returned for a check-in status outside
	// kept/broken/exception.
	ErrInvalidStatus = errors.New("invalid check-in status")

	// ErrInvalidDecision is returned for a violation decision outside
	// recommit/pause/retire.
	ErrInvalidDecision = errors.New("invalid violation decision")
)

// Not-found errors.
var (
	// ErrContractNotFound indicates that the contract does not exist or is not
	// owned by the caller.
	ErrContractNotFound = errors.New("contract not found")

	// ErrTemptationNotFound indicates a missing or foreign temptation record.
	ErrTemptationNotFound = errors.New("temptation not found")

	// ErrEntryNotFound indicates a missing or foreign journal entry.
	ErrEntryNotFound = errors.New("journal entry not found")
)

// Conflict errors.
var (
	// ErrContractNotActive is returned when a transition requires an active
	// contract.
	ErrContractNotActive = errors.New("contract is not active")

	// ErrAlreadyCheckedIn is returned when the contract already has a log for
	// today.
	ErrAlreadyCheckedIn = errors.New("already checked in today")

	// ErrActiveLimit is returned when creating a contract would exceed the
	// active-contract quota.
	ErrActiveLimit = errors.New("active contract limit reached")

	// ErrNotExpired is returned when claiming victory before the end date has
	// passed, or on a contract without an end date.
	ErrNotExpired = errors.New("contract end date has not passed")

	// ErrTemptationResolved is returned when a temptation outcome was already
	// recorded.
	ErrTemptationResolved = errors.New("temptation already resolved")
)
