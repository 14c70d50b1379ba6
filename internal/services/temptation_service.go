// Package services – TemptationService
//
// A temptation is recorded as pending together with the coaching text that
// was shown. Its outcome is written once, by a conditional update that only
// matches pending rows.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/oracle"
	"github.com/tbourn/pactkeeper/internal/repo"
)

// CoachResult is the coaching shown to the user and the stored record.
type CoachResult struct {
	Temptation *domain.Temptation `json:"temptation"`
	Coaching   string             `json:"coaching"`
	Silent     bool               `json:"silent"`
}

// TemptationService coaches and tracks temptations.
type TemptationService struct {
	DB *gorm.DB
	Calendar

	Oracle oracle.Oracle
}

// Coach asks the oracle for help with the temptation described by trigger and
// persists a pending record. When the oracle is silent the sentinel message is
// stored and returned instead.
func (s *TemptationService) Coach(ctx context.Context, userID, contractID, trigger string) (*CoachResult, error) {
	ctx, span := otel.Tracer("services/TemptationService").Start(ctx, "Coach",
		trace.WithAttributes(attribute.String("contract.id", contractID), attribute.String("user.id", userID)))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	c, err := repo.GetContract(ctx, s.DB, contractID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		return nil, err
	}

	o := s.Oracle
	if o == nil {
		o = oracle.Unavailable{}
	}
	res := &CoachResult{}
	coaching, err := o.Coach(ctx, oracle.CoachInput{
		ContractTitle:    c.Title,
		ContractBehavior: c.Behavior,
		Context:          strings.TrimSpace(trigger),
	})
	if err != nil {
		silenced(ctx, "Coach", err)
		res.Coaching, res.Silent = SilentMessage, true
	} else {
		res.Coaching = coaching.Text
	}

	t := &domain.Temptation{
		UserID:     userID,
		ContractID: contractID,
		Context:    strings.TrimSpace(trigger),
		Coaching:   res.Coaching,
		Outcome:    domain.TemptationPending,
		CreatedAt:  s.now(),
	}
	if err := repo.CreateTemptation(ctx, s.DB, t); err != nil {
		return nil, err
	}
	res.Temptation = t
	return res, nil
}

// Resolve records whether the user resisted or relapsed. A record can be
// resolved once; later calls return ErrTemptationResolved.
func (s *TemptationService) Resolve(ctx context.Context, userID, id string, outcome domain.TemptationOutcome) (*domain.Temptation, error) {
	ctx, span := otel.Tracer("services/TemptationService").Start(ctx, "Resolve",
		trace.WithAttributes(attribute.String("temptation.id", id), attribute.String("outcome", string(outcome))))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	if outcome != domain.TemptationResisted && outcome != domain.TemptationRelapsed {
		return nil, ErrInvalidInput
	}
	if _, err := repo.GetTemptation(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTemptationNotFound
		}
		return nil, err
	}
	ok, err := repo.ResolveTemptation(ctx, s.DB, id, userID, outcome, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTemptationResolved
	}
	return repo.GetTemptation(ctx, s.DB, id, userID)
}
