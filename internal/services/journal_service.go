// Package services – JournalService
//
// Journal entries are append-only. A manual entry gets one oracle reply,
// generated in the background after the entry is stored; the conditional
// update in repo.SetJournalReply makes a second attempt a no-op. Auto entries
// written by settlement never get a reply.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/oracle"
	"github.com/tbourn/pactkeeper/internal/repo"
	"github.com/tbourn/pactkeeper/internal/search"
)

const (
	maxEntryRunes      = 4000
	replyContextLimit  = 5
	defaultReplyBudget = 45 * time.Second
)

// JournalService writes, lists and searches journal entries.
type JournalService struct {
	DB *gorm.DB
	Calendar

	Oracle oracle.Oracle

	// ReplyTimeout bounds one background reply.
	ReplyTimeout time.Duration

	wg sync.WaitGroup
}

// AddEntry stores a manual entry on the contract and schedules its reply.
func (s *JournalService) AddEntry(ctx context.Context, userID, contractID, content string) (*domain.JournalEntry, error) {
	ctx, span := otel.Tracer("services/JournalService").Start(ctx, "AddEntry",
		trace.WithAttributes(attribute.String("contract.id", contractID), attribute.String("user.id", userID)))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if r := []rune(content); len(r) > maxEntryRunes {
		content = string(r[:maxEntryRunes])
	}
	if _, err := repo.GetContract(ctx, s.DB, contractID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}

	e := &domain.JournalEntry{
		UserID:     userID,
		ContractID: contractID,
		Type:       domain.JournalManual,
		Content:    content,
		CreatedAt:  s.now(),
	}
	if err := repo.CreateJournalEntry(ctx, s.DB, e); err != nil {
		return nil, err
	}

	if s.Oracle != nil {
		bg := context.WithoutCancel(ctx)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if _, err := s.ReplyPending(bg, userID, e.ID); err != nil {
				log.Ctx(bg).Warn().Err(err).Str("entry_id", e.ID).Msg("journal reply failed")
			}
		}()
	}
	return e, nil
}

// Wait blocks until every background reply has finished.
func (s *JournalService) Wait() { s.wg.Wait() }

// ReplyPending generates and stores the reply for a manual entry that has
// none. It reports whether a reply was written; auto entries and entries that
// already have a reply are left alone.
func (s *JournalService) ReplyPending(ctx context.Context, userID, entryID string) (bool, error) {
	ctx, span := otel.Tracer("services/JournalService").Start(ctx, "ReplyPending",
		trace.WithAttributes(attribute.String("entry.id", entryID)))
	defer span.End()

	e, err := repo.GetJournalEntry(ctx, s.DB, entryID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, ErrEntryNotFound
	}
	if err != nil {
		return false, err
	}
	if e.Type != domain.JournalManual || e.Reply != nil {
		return false, nil
	}
	if s.Oracle == nil {
		return false, oracle.ErrUnavailable
	}

	in := oracle.JournalInput{Entry: e.Content}
	if c, err := repo.GetContract(ctx, s.DB, e.ContractID, userID); err == nil {
		in.ContractTitle, in.ContractBehavior = c.Title, c.Behavior
	}
	recent, err := repo.ListJournalEntries(ctx, s.DB, e.ContractID, userID, replyContextLimit+1)
	if err != nil {
		return false, err
	}
	for _, r := range recent {
		if r.ID != e.ID && len(in.Recent) < replyContextLimit {
			in.Recent = append(in.Recent, r.Content)
		}
	}

	budget := s.ReplyTimeout
	if budget <= 0 {
		budget = defaultReplyBudget
	}
	cctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	reply, err := s.Oracle.ReplyToJournal(cctx, in)
	if err != nil {
		return false, err
	}
	return repo.SetJournalReply(ctx, s.DB, e.ID, reply, s.now())
}

// List returns the contract's entries, newest first.
func (s *JournalService) List(ctx context.Context, userID, contractID string, limit int) ([]domain.JournalEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	items, err := repo.ListJournalEntries(ctx, s.DB, contractID, userID, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.JournalEntry{}
	}
	return items, nil
}

// Search ranks the contract's entries against query.
func (s *JournalService) Search(ctx context.Context, userID, contractID, query string, k int) ([]search.Result, error) {
	ctx, span := otel.Tracer("services/JournalService").Start(ctx, "Search",
		trace.WithAttributes(attribute.String("contract.id", contractID), attribute.Int("k", k)))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	entries, err := repo.ListJournalEntries(ctx, s.DB, contractID, userID, 0)
	if err != nil {
		return nil, err
	}
	docs := make([]search.Doc, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, search.Doc{ID: e.ID, Text: e.Content})
	}
	out := search.New(docs, search.WithStopwords(search.DefaultStopwords)).TopK(query, k)
	if out == nil {
		out = []search.Result{}
	}
	return out, nil
}
