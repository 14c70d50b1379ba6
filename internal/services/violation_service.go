// Package services – ViolationService
//
// ViolationService handles a reported violation. The violation record, the
// broken log for today and the contract update (streak reset plus the
// decision's status change) commit together or not at all.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/repo"
)

// ReportViolationInput is one violation report.
type ReportViolationInput struct {
	Reason   string
	Story    string
	Decision domain.Decision
}

// ViolationResult holds every row written by Report.
type ViolationResult struct {
	Contract  *domain.Contract
	Violation *domain.Violation
	Log       *domain.DailyLog
}

// ViolationService records violations.
type ViolationService struct {
	DB *gorm.DB
	Calendar

	Notifier ChangeNotifier
}

// Report appends a violation, marks today broken (replacing an earlier
// check-in for today), resets the streak and applies the decision:
// recommit keeps the contract active, pause pauses it, retire archives it as
// breached with the story (or the reason when the story is empty) as the
// failure reason.
func (s *ViolationService) Report(ctx context.Context, userID, contractID string, in ReportViolationInput) (*ViolationResult, error) {
	ctx, span := otel.Tracer("services/ViolationService").Start(ctx, "Report",
		trace.WithAttributes(
			attribute.String("contract.id", contractID),
			attribute.String("user.id", userID),
			attribute.String("decision", string(in.Decision)),
		))
	defer span.End()

	reason := normalizeText(in.Reason)
	story := strings.TrimSpace(in.Story)
	if !in.Decision.Valid() {
		return nil, ErrInvalidDecision
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}

	today := s.Today()
	now := s.now()
	var out ViolationResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.GetContract(ctx, tx, contractID, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrContractNotFound
		}
		if err != nil {
			return err
		}
		if c.Status != domain.StatusActive {
			return ErrContractNotActive
		}

		v := &domain.Violation{
			UserID:     userID,
			ContractID: contractID,
			Reason:     reason,
			Story:      story,
			Decision:   in.Decision,
			CreatedAt:  now,
		}
		if err := repo.CreateViolation(ctx, tx, v); err != nil {
			return err
		}

		l, err := repo.GetLogForDate(ctx, tx, contractID, today)
		switch {
		case err == nil:
			if err := repo.UpdateLogOutcome(ctx, tx, l.ID, domain.LogBroken, story, domain.SourceManual); err != nil {
				return err
			}
			l.Status, l.Notes, l.Source = domain.LogBroken, story, domain.SourceManual
		case errors.Is(err, repo.ErrNotFound):
			l = &domain.DailyLog{
				UserID:     userID,
				ContractID: contractID,
				Date:       today,
				Status:     domain.LogBroken,
				Notes:      story,
				Source:     domain.SourceManual,
				CreatedAt:  now,
			}
			if err := repo.CreateLog(ctx, tx, l); err != nil {
				return err
			}
		default:
			return err
		}

		if err := applyViolation(c, in.Decision, reason, story, now); err != nil {
			return err
		}
		if err := c.CheckInvariants(0); err != nil {
			return err
		}
		if err := repo.SaveContract(ctx, tx, c); err != nil {
			return err
		}
		out = ViolationResult{Contract: c, Violation: v, Log: l}
		return nil
	})
	if err != nil {
		return nil, err
	}
	notify(s.Notifier, userID)
	return &out, nil
}
