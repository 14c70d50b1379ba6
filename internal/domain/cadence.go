package domain

import (
	"errors"
	"fmt"
)

// Cadence is the contract flavor. It is a closed set: DailyCadence or
// WeeklyCadence. Callers switch over it exhaustively.
type Cadence interface {
	isCadence()
}

// DailyCadence contracts earn one streak point per kept day.
type DailyCadence struct{}

// WeeklyCadence contracts earn one streak point per week in which the kept
// check-ins reach TimesPerWeek.
type WeeklyCadence struct {
	TimesPerWeek int
	Progress     WeeklyProgress
}

// WeeklyProgress is the running window of the current week.
type WeeklyProgress struct {
	WeekStart       string
	CompletedCount  int
	LastCheckInDate *string
}

func (DailyCadence) isCadence()  {}
func (WeeklyCadence) isCadence() {}

// Met reports whether the current window reached the weekly goal.
func (w WeeklyCadence) Met() bool { return w.Progress.CompletedCount >= w.TimesPerWeek }

// Cadence returns the flavor of c derived from its persisted columns.
func (c *Contract) Cadence() Cadence {
	if c.TimesPerWeek == nil {
		return DailyCadence{}
	}
	ws := ""
	if c.WeekStart != nil {
		ws = *c.WeekStart
	}
	return WeeklyCadence{
		TimesPerWeek: *c.TimesPerWeek,
		Progress: WeeklyProgress{
			WeekStart:       ws,
			CompletedCount:  c.WeekCompletedCount,
			LastCheckInDate: c.WeekLastCheckIn,
		},
	}
}

// SetProgress writes p back into the weekly columns of c.
func (c *Contract) SetProgress(p WeeklyProgress) {
	ws := p.WeekStart
	c.WeekStart = &ws
	c.WeekCompletedCount = p.CompletedCount
	c.WeekLastCheckIn = p.LastCheckInDate
}

// IsExpired reports whether today (YYYY-MM-DD) is strictly after the end date.
// Contracts without an end date never expire.
func (c *Contract) IsExpired(today string) bool {
	if c.EndDate == nil || *c.EndDate == "" {
		return false
	}
	return today > *c.EndDate
}

// ErrInvariant is wrapped by every error returned from CheckInvariants.
var ErrInvariant = errors.New("contract invariant violated")

// CheckInvariants validates the cross-field rules a persisted contract must
// satisfy. maxExceptions <= 0 disables the exception bound.
func (c *Contract) CheckInvariants(maxExceptions int) error {
	if c.Streak < 0 {
		return fmt.Errorf("%w: negative streak %d", ErrInvariant, c.Streak)
	}
	archived := c.Status == StatusArchived
	if archived != (c.Outcome != nil) {
		return fmt.Errorf("%w: status %q with outcome set=%t", ErrInvariant, c.Status, c.Outcome != nil)
	}
	breached := c.Outcome != nil && *c.Outcome == OutcomeBreached
	if breached != (c.FailureReason != nil) {
		return fmt.Errorf("%w: breached=%t with failure reason set=%t", ErrInvariant, breached, c.FailureReason != nil)
	}
	if maxExceptions > 0 && len(c.Exceptions) > maxExceptions {
		return fmt.Errorf("%w: %d exceptions exceeds %d", ErrInvariant, len(c.Exceptions), maxExceptions)
	}
	if c.TimesPerWeek != nil && (*c.TimesPerWeek < 1 || *c.TimesPerWeek > 7) {
		return fmt.Errorf("%w: times_per_week %d out of range", ErrInvariant, *c.TimesPerWeek)
	}
	return nil
}
