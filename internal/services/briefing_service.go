// Package services – BriefingService
//
// BriefingService produces the morning and evening briefings. A briefing is
// generated at most once per (user, slot, date): the existence check runs
// first, and the unique index on briefings closes the race between two
// concurrent runs.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/oracle"
	"github.com/tbourn/pactkeeper/internal/push"
	"github.com/tbourn/pactkeeper/internal/repo"
	"github.com/tbourn/pactkeeper/internal/utils"
)

const (
	defaultJournalWindow = 48 * time.Hour
	briefingJournalLimit = 10
)

// BriefingService generates, stores and delivers briefings.
type BriefingService struct {
	DB *gorm.DB
	Calendar

	Oracle oracle.Oracle
	Pusher push.Pusher

	// JournalWindow is how far back journal entries are fed into the prompt.
	JournalWindow time.Duration
}

// GenerateForUser builds the slot's briefing for date. It reports false when
// the briefing already existed. Oracle failures are returned; a failed push is
// logged and the stored briefing is kept.
func (s *BriefingService) GenerateForUser(ctx context.Context, u domain.User, slot domain.BriefingSlot, date string) (bool, error) {
	ctx, span := otel.Tracer("services/BriefingService").Start(ctx, "GenerateForUser",
		trace.WithAttributes(
			attribute.String("user.id", u.ID),
			attribute.String("slot", string(slot)),
			attribute.String("date", date),
		))
	defer span.End()

	exists, err := repo.BriefingExists(ctx, s.DB, u.ID, slot, date)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	in, err := s.input(ctx, u.ID, slot, date)
	if err != nil {
		return false, err
	}
	if s.Oracle == nil {
		return false, oracle.ErrUnavailable
	}
	out, err := s.Oracle.Brief(ctx, in)
	if err != nil {
		return false, fmt.Errorf("brief: %w", err)
	}

	b := &domain.Briefing{
		UserID:           u.ID,
		Slot:             slot,
		Date:             date,
		Text:             out.Body,
		NotificationText: out.Notification,
		CreatedAt:        s.now(),
	}
	if err := repo.CreateBriefing(ctx, s.DB, b); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}

	if s.Pusher != nil && u.PushToken != nil && *u.PushToken != "" {
		n := push.Notification{Title: briefingTitle(slot), Body: out.Notification}
		if err := s.Pusher.Push(ctx, *u.PushToken, n); err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Str("user_id", u.ID).
				Str("slot", string(slot)).
				Msg("briefing push failed")
		}
	}
	return true, nil
}

func (s *BriefingService) input(ctx context.Context, userID string, slot domain.BriefingSlot, date string) (oracle.BriefingInput, error) {
	contracts, err := repo.ListContractsPage(ctx, s.DB, userID, domain.StatusActive, 0, 0)
	if err != nil {
		return oracle.BriefingInput{}, err
	}
	logged, err := repo.LoggedContractIDs(ctx, s.DB, userID, date)
	if err != nil {
		return oracle.BriefingInput{}, err
	}
	window := s.JournalWindow
	if window <= 0 {
		window = defaultJournalWindow
	}
	entries, err := repo.ListRecentJournal(ctx, s.DB, userID, s.now().Add(-window), briefingJournalLimit)
	if err != nil {
		return oracle.BriefingInput{}, err
	}

	in := oracle.BriefingInput{Slot: string(slot)}
	for _, c := range contracts {
		_, checked := logged[c.ID]
		in.Contracts = append(in.Contracts, oracle.ContractSummary{
			Title:          c.Title,
			Type:           string(c.Type),
			Streak:         c.Streak,
			CheckedInToday: checked,
		})
	}
	for _, e := range entries {
		in.Journal = append(in.Journal, e.Content)
	}
	return in, nil
}

func briefingTitle(slot domain.BriefingSlot) string {
	if slot == domain.SlotEvening {
		return "Evening briefing"
	}
	return "Morning briefing"
}

// Latest returns the user's briefings for date (today when empty), one per
// slot.
func (s *BriefingService) Latest(ctx context.Context, userID, date string) ([]domain.Briefing, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	date = strings.TrimSpace(date)
	if date == "" {
		date = s.Today()
	}
	if !utils.ValidDate(date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	items, err := repo.ListBriefings(ctx, s.DB, userID, date)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Briefing{}
	}
	return items, nil
}

// SetPushToken stores the user's push token, creating the user row on first
// use. A nil or blank token clears it.
func (s *BriefingService) SetPushToken(ctx context.Context, userID string, token *string) (*domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	if token != nil {
		t := strings.TrimSpace(*token)
		if len(t) > 256 {
			return nil, fmt.Errorf("%w: push token too long", ErrInvalidInput)
		}
		if t == "" {
			token = nil
		} else {
			token = &t
		}
	}
	return repo.UpsertPushToken(ctx, s.DB, userID, token)
}
