// Package handlers defines the HTTP error codes used across all API endpoints
// and the mapping from service errors to them.
//
// Codes are lowercase snake_case. Generic codes mirror the HTTP status;
// domain codes name the broken rule so clients can branch without parsing
// messages:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "already_checked_in",
//	  "message": "already checked in today"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pactkeeper/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeAlreadyCheckedIn = "already_checked_in"
	ErrCodeActiveLimit      = "active_limit"
	ErrCodeNotActive        = "contract_not_active"
	ErrCodeNotExpired       = "contract_not_expired"
	ErrCodeResolved         = "temptation_resolved"
)

// errorMapping is one row of the service error table.
type errorMapping struct {
	err    error
	status int
	code   string
}

var errorTable = []errorMapping{
	{services.ErrUnauthenticated, http.StatusUnauthorized, ErrCodeUnauthorized},
	{services.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrInvalidStatus, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrInvalidDecision, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrContractNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrTemptationNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrEntryNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrAlreadyCheckedIn, http.StatusConflict, ErrCodeAlreadyCheckedIn},
	{services.ErrActiveLimit, http.StatusConflict, ErrCodeActiveLimit},
	{services.ErrContractNotActive, http.StatusConflict, ErrCodeNotActive},
	{services.ErrNotExpired, http.StatusConflict, ErrCodeNotExpired},
	{services.ErrTemptationResolved, http.StatusConflict, ErrCodeResolved},
}

// classify maps err to an HTTP status and code. Unknown errors are 500.
func classify(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ErrCodeInternal
}

// failErr answers with the envelope for a service error. Client errors carry
// the service message, which names the offending field; internal errors are
// logged and hidden behind a generic message.
func failErr(c *gin.Context, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}
	fail(c, status, code, msg)
}
