// Package services – AdvisorService
//
// AdvisorService exposes the oracle's advisory features: judging a situation
// against a contract, drafting a contract from a goal, auditing a contract
// and ruling on a violation story. These never change stored state. An oracle
// failure is logged and turned into a silent result; callers only see errors
// for authentication, validation and missing contracts.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/oracle"
	"github.com/tbourn/pactkeeper/internal/repo"
)

// SilentMessage replaces any oracle answer that could not be obtained.
const SilentMessage = "The oracle is silent. Try again later."

// JudgeResult is the ruling on a situation.
type JudgeResult struct {
	Status      oracle.JudgeStatus `json:"status,omitempty"`
	Explanation string             `json:"explanation"`
	Silent      bool               `json:"silent"`
}

// DraftResult is a proposed contract.
type DraftResult struct {
	Draft   *oracle.Draft `json:"draft,omitempty"`
	Message string        `json:"message,omitempty"`
	Silent  bool          `json:"silent"`
}

// AuditResult is the audit of one contract.
type AuditResult struct {
	Weakness   string `json:"weakness"`
	Suggestion string `json:"suggestion"`
	Silent     bool   `json:"silent"`
}

// VerdictInput describes a violation to be judged. ContractID is optional;
// when set, the contract's text is sent along.
type VerdictInput struct {
	ContractID string
	Reason     string
	Story      string
	Decision   string
}

// VerdictResult is the ruling on a violation story.
type VerdictResult struct {
	Verdict   oracle.VerdictValue `json:"verdict,omitempty"`
	Reasoning string              `json:"reasoning"`
	Silent    bool                `json:"silent"`
}

// AdvisorService wraps the oracle for request-time advice.
type AdvisorService struct {
	DB     *gorm.DB
	Oracle oracle.Oracle
}

func (s *AdvisorService) backend() oracle.Oracle {
	if s.Oracle == nil {
		return oracle.Unavailable{}
	}
	return s.Oracle
}

// contract loads the caller's contract, enforcing authentication first.
func (s *AdvisorService) contract(ctx context.Context, userID, contractID string) (*domain.Contract, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	c, err := repo.GetContract(ctx, s.DB, contractID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrContractNotFound
	}
	return c, err
}

func silenced(ctx context.Context, method string, err error) {
	log.Ctx(ctx).Warn().Err(err).Str("method", method).Msg("oracle call failed")
}

// Judge asks whether situation is allowed under the contract's exceptions.
func (s *AdvisorService) Judge(ctx context.Context, userID, contractID, situation string) (*JudgeResult, error) {
	ctx, span := otel.Tracer("services/AdvisorService").Start(ctx, "Judge",
		trace.WithAttributes(attribute.String("contract.id", contractID), attribute.String("user.id", userID)))
	defer span.End()

	c, err := s.contract(ctx, userID, contractID)
	if err != nil {
		return nil, err
	}
	situation = strings.TrimSpace(situation)
	if situation == "" {
		return nil, fmt.Errorf("%w: situation is required", ErrInvalidInput)
	}
	j, err := s.backend().Judge(ctx, oracle.JudgeInput{
		Situation:        situation,
		ContractTitle:    c.Title,
		ContractBehavior: c.Behavior,
		Exceptions:       c.Exceptions,
	})
	if err != nil {
		silenced(ctx, "Judge", err)
		return &JudgeResult{Explanation: SilentMessage, Silent: true}, nil
	}
	return &JudgeResult{Status: j.Status, Explanation: j.Explanation}, nil
}

// Draft proposes a contract for a free-text goal.
func (s *AdvisorService) Draft(ctx context.Context, userID, goal string) (*DraftResult, error) {
	ctx, span := otel.Tracer("services/AdvisorService").Start(ctx, "Draft",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("%w: goal is required", ErrInvalidInput)
	}
	d, err := s.backend().Draft(ctx, goal)
	if err != nil {
		silenced(ctx, "Draft", err)
		return &DraftResult{Message: SilentMessage, Silent: true}, nil
	}
	return &DraftResult{Draft: &d}, nil
}

// Audit names the weakest point of the contract.
func (s *AdvisorService) Audit(ctx context.Context, userID, contractID string) (*AuditResult, error) {
	ctx, span := otel.Tracer("services/AdvisorService").Start(ctx, "Audit",
		trace.WithAttributes(attribute.String("contract.id", contractID), attribute.String("user.id", userID)))
	defer span.End()

	c, err := s.contract(ctx, userID, contractID)
	if err != nil {
		return nil, err
	}
	a, err := s.backend().Audit(ctx, oracle.ContractSnapshot{
		Title:      c.Title,
		Behavior:   c.Behavior,
		Type:       string(c.Type),
		Pillar:     c.Pillar,
		Penalty:    c.Penalty,
		Exceptions: c.Exceptions,
		Streak:     c.Streak,
	})
	if err != nil {
		silenced(ctx, "Audit", err)
		return &AuditResult{Weakness: SilentMessage, Silent: true}, nil
	}
	return &AuditResult{Weakness: a.Weakness, Suggestion: a.Suggestion}, nil
}

// JudgeViolation rules on a violation story before it is reported.
func (s *AdvisorService) JudgeViolation(ctx context.Context, userID string, in VerdictInput) (*VerdictResult, error) {
	ctx, span := otel.Tracer("services/AdvisorService").Start(ctx, "JudgeViolation",
		trace.WithAttributes(attribute.String("contract.id", in.ContractID), attribute.String("user.id", userID)))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	q := oracle.ViolationInput{
		Reason:   normalizeText(in.Reason),
		Story:    strings.TrimSpace(in.Story),
		Decision: strings.TrimSpace(in.Decision),
	}
	if q.Reason == "" && q.Story == "" {
		return nil, fmt.Errorf("%w: reason or story is required", ErrInvalidInput)
	}
	if in.ContractID != "" {
		c, err := s.contract(ctx, userID, in.ContractID)
		if err != nil {
			return nil, err
		}
		q.ContractTitle, q.ContractBehavior = c.Title, c.Behavior
	}
	v, err := s.backend().JudgeViolation(ctx, q)
	if err != nil {
		silenced(ctx, "JudgeViolation", err)
		return &VerdictResult{Reasoning: SilentMessage, Silent: true}, nil
	}
	return &VerdictResult{Verdict: v.Verdict, Reasoning: v.Reasoning}, nil
}
