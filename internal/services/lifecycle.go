package services

import (
	"fmt"
	"time"

	"github.com/tbourn/pactkeeper/internal/domain"
)

// The functions below are the contract state machine. They mutate the
// contract in memory only; callers persist the result inside the same
// transaction as the accompanying log/violation/journal rows.
//
//	active --violation(pause)--> paused
//	active --violation(retire)--> archived(breached)
//	active --complete--> archived(completed)
//	paused, archived: no forward transition

func unknownCadence(c domain.Cadence) error {
	return fmt.Errorf("unknown cadence %T", c)
}

// applyCheckIn records a check-in of status on today.
func applyCheckIn(c *domain.Contract, status domain.LogStatus, today string, now time.Time) error {
	switch cad := c.Cadence().(type) {
	case domain.DailyCadence:
		if status == domain.LogKept {
			c.Streak++
		}
	case domain.WeeklyCadence:
		if status == domain.LogKept {
			p := cad.Progress
			if p.WeekStart == "" {
				p.WeekStart = today
			}
			p.CompletedCount++
			d := today
			p.LastCheckInDate = &d
			c.SetProgress(p)
		}
	default:
		return unknownCadence(cad)
	}
	c.LastCheckInAt = &now
	return nil
}

// applyViolation resets the streak and applies the decision.
func applyViolation(c *domain.Contract, decision domain.Decision, reason, story string, now time.Time) error {
	switch cad := c.Cadence().(type) {
	case domain.DailyCadence, domain.WeeklyCadence:
	default:
		return unknownCadence(cad)
	}
	c.Streak = 0
	c.LastCheckInAt = &now

	switch decision {
	case domain.DecisionRecommit:
	case domain.DecisionPause:
		c.Status = domain.StatusPaused
	case domain.DecisionRetire:
		why := story
		if why == "" {
			why = reason
		}
		archive(c, domain.OutcomeBreached, now)
		c.FailureReason = &why
	default:
		return ErrInvalidDecision
	}
	return nil
}

// applyComplete archives c as completed when its end date has passed.
func applyComplete(c *domain.Contract, today string, now time.Time) error {
	if c.Status != domain.StatusActive {
		return ErrContractNotActive
	}
	if !c.IsExpired(today) {
		return ErrNotExpired
	}
	archive(c, domain.OutcomeCompleted, now)
	return nil
}

func archive(c *domain.Contract, outcome domain.ContractOutcome, now time.Time) {
	o := outcome
	c.Status = domain.StatusArchived
	c.Outcome = &o
	c.ArchivedAt = &now
}

// applyRollover settles the finished week of a weekly contract and opens a
// fresh window starting today. It reports whether the goal was met. Daily
// contracts are left untouched.
func applyRollover(c *domain.Contract, today string) (bool, error) {
	switch cad := c.Cadence().(type) {
	case domain.DailyCadence:
		return false, nil
	case domain.WeeklyCadence:
		met := cad.Met()
		if met {
			c.Streak++
		} else {
			c.Streak = 0
		}
		c.SetProgress(domain.WeeklyProgress{WeekStart: today})
		return met, nil
	default:
		return false, unknownCadence(cad)
	}
}

// applyAutoKeep credits a kept day on date for a contract that had no log.
// A weekly credit dated before the open window belongs to a week that was
// already settled and is dropped.
func applyAutoKeep(c *domain.Contract, date string, now time.Time) error {
	switch cad := c.Cadence().(type) {
	case domain.DailyCadence:
		c.Streak++
	case domain.WeeklyCadence:
		p := cad.Progress
		if p.WeekStart != "" && date < p.WeekStart {
			break
		}
		if p.WeekStart == "" {
			p.WeekStart = date
		}
		p.CompletedCount++
		d := date
		p.LastCheckInDate = &d
		c.SetProgress(p)
	default:
		return unknownCadence(cad)
	}
	c.LastCheckInAt = &now
	return nil
}
