// Package services – ContractService
//
// This file implements ContractService, which owns contract creation,
// reads, victory claims and hard deletes. Inputs are normalized and validated
// before any write, and the active-contract quota is checked inside the same
// transaction that inserts the new row.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/repo"
	"github.com/tbourn/pactkeeper/internal/utils"
)

const (
	minBehaviorRunes = 6
	maxTitleRunes    = 120
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// CreateContractInput is the caller-supplied part of a new contract.
type CreateContractInput struct {
	Title         string
	Behavior      string
	Type          string
	Pillar        string
	Penalty       string
	Exceptions    []string
	StartDate     *string
	EndDate       *string
	TimesPerWeek  *int
	AutoKeep      bool
	WitnessLinked bool
}

// ContractService provides contract-level operations.
type ContractService struct {
	DB *gorm.DB
	Calendar

	// MaxActive caps contracts with status=active per user.
	MaxActive int
	// MaxExceptions caps the exceptions list.
	MaxExceptions int
	// PillarLocale controls pillar title-casing.
	PillarLocale language.Tag

	Notifier ChangeNotifier
}

// NewContractService constructs a ContractService with the default quotas.
func NewContractService(db *gorm.DB, cal Calendar) *ContractService {
	return &ContractService{
		DB:            db,
		Calendar:      cal,
		MaxActive:     10,
		MaxExceptions: 5,
		PillarLocale:  language.English,
	}
}

// Create validates in and inserts a new active contract with streak 0.
func (s *ContractService) Create(ctx context.Context, userID string, in CreateContractInput) (*domain.Contract, error) {
	ctx, span := otel.Tracer("services/ContractService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	c, err := s.build(userID, in)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.MaxActive > 0 {
			n, err := repo.CountContracts(ctx, tx, userID, domain.StatusActive)
			if err != nil {
				return err
			}
			if n >= int64(s.MaxActive) {
				return ErrActiveLimit
			}
		}
		return repo.CreateContract(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}
	notify(s.Notifier, userID)
	return c, nil
}

// build normalizes and validates the input into an unsaved contract.
func (s *ContractService) build(userID string, in CreateContractInput) (*domain.Contract, error) {
	title := normalizeText(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		title = string([]rune(title)[:maxTitleRunes])
	}
	pillar := normalizeText(in.Pillar)
	if pillar == "" {
		return nil, fmt.Errorf("%w: pillar is required", ErrInvalidInput)
	}
	pillar = cases.Title(s.locale()).String(pillar)

	behavior := strings.TrimSpace(in.Behavior)
	if utf8.RuneCountInString(behavior) < minBehaviorRunes {
		return nil, fmt.Errorf("%w: behavior must be at least %d characters", ErrInvalidInput, minBehaviorRunes)
	}

	typ := domain.ContractType(strings.ToUpper(strings.TrimSpace(in.Type)))
	if typ != domain.ContractDo && typ != domain.ContractAvoid {
		return nil, fmt.Errorf("%w: type must be DO or AVOID", ErrInvalidInput)
	}

	exceptions := make([]string, 0, len(in.Exceptions))
	for _, e := range in.Exceptions {
		if e = normalizeText(e); e != "" {
			exceptions = append(exceptions, e)
		}
	}
	if s.MaxExceptions > 0 && len(exceptions) > s.MaxExceptions {
		return nil, fmt.Errorf("%w: at most %d exceptions allowed", ErrInvalidInput, s.MaxExceptions)
	}

	start, err := optionalDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := optionalDate("end_date", in.EndDate)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && *start > *end {
		return nil, fmt.Errorf("%w: start_date must not be after end_date", ErrInvalidInput)
	}

	c := &domain.Contract{
		UserID:        userID,
		Title:         title,
		Behavior:      behavior,
		Type:          typ,
		Pillar:        pillar,
		Status:        domain.StatusActive,
		Exceptions:    exceptions,
		Penalty:       strings.TrimSpace(in.Penalty),
		StartDate:     start,
		EndDate:       end,
		AutoKeep:      in.AutoKeep,
		WitnessLinked: in.WitnessLinked,
	}
	if in.TimesPerWeek != nil {
		n := *in.TimesPerWeek
		if n < 1 || n > 7 {
			return nil, fmt.Errorf("%w: times_per_week must be between 1 and 7", ErrInvalidInput)
		}
		c.TimesPerWeek = &n
		c.SetProgress(domain.WeeklyProgress{WeekStart: s.Today()})
	}
	if err := c.CheckInvariants(s.MaxExceptions); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContractService) locale() language.Tag {
	if s.PillarLocale == language.Und {
		return language.English
	}
	return s.PillarLocale
}

func optionalDate(field string, v *string) (*string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	d := strings.TrimSpace(*v)
	if !utils.ValidDate(d) {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidInput, field)
	}
	return &d, nil
}

// normalizeText trims whitespace and collapses inner runs to one space.
func normalizeText(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Get returns one contract owned by userID.
func (s *ContractService) Get(ctx context.Context, userID, id string) (*domain.Contract, error) {
	c, err := repo.GetContract(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrContractNotFound
	}
	return c, err
}

// ListPage returns a page of the user's contracts and the total count.
// An empty status lists every contract.
func (s *ContractService) ListPage(ctx context.Context, userID string, status domain.ContractStatus, page, pageSize int) ([]domain.Contract, int64, error) {
	ctx, span := otel.Tracer("services/ContractService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("status", string(status)),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		))
	defer span.End()

	switch status {
	case "", domain.StatusActive, domain.StatusPaused, domain.StatusArchived:
	default:
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountContracts(ctx, s.DB, userID, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Contract{}, 0, nil
	}
	items, err := repo.ListContractsPage(ctx, s.DB, userID, status, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Snapshot returns every contract of the user, newest first.
func (s *ContractService) Snapshot(ctx context.Context, userID string) ([]domain.Contract, error) {
	items, err := repo.ListContractsPage(ctx, s.DB, userID, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Contract{}
	}
	return items, nil
}

// Stats returns the count and latest update time of the user's contracts
// with status (all when empty). Handlers derive list ETags from it.
func (s *ContractService) Stats(ctx context.Context, userID string, status domain.ContractStatus) (int64, *time.Time, error) {
	return repo.ContractsStats(ctx, s.DB, userID, status)
}

// Complete archives an expired active contract as completed.
func (s *ContractService) Complete(ctx context.Context, userID, id string) (*domain.Contract, error) {
	ctx, span := otel.Tracer("services/ContractService").Start(ctx, "Complete",
		trace.WithAttributes(attribute.String("contract.id", id), attribute.String("user.id", userID)))
	defer span.End()

	var out *domain.Contract
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.GetContract(ctx, tx, id, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrContractNotFound
		}
		if err != nil {
			return err
		}
		if err := applyComplete(c, s.Today(), s.now()); err != nil {
			return err
		}
		if err := c.CheckInvariants(0); err != nil {
			return err
		}
		if err := repo.SaveContract(ctx, tx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	notify(s.Notifier, userID)
	return out, nil
}

// Delete hard-deletes the contract. Its logs, violations, journal entries
// and temptations are kept.
func (s *ContractService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := otel.Tracer("services/ContractService").Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("contract.id", id), attribute.String("user.id", userID)))
	defer span.End()

	err := repo.DeleteContract(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrContractNotFound
	}
	if err != nil {
		return err
	}
	notify(s.Notifier, userID)
	return nil
}
