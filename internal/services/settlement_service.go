// Package services – SettlementService
//
// SettlementService runs the scheduled batch jobs: weekly rollover, daily
// auto-keep and the morning/evening briefings. Each job scans every eligible
// user and settles them concurrently with a bounded worker count. One user's
// failure is logged and counted but never stops the batch.
//
// Weekly rollover and auto-keep insert a settlement_runs guard row in the
// same transaction as their writes. A second run for the same period hits the
// guard's unique index, rolls back, and the user is reported as skipped.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/repo"
	"github.com/tbourn/pactkeeper/internal/utils"
)

// Job names reported by SettlementService.
const (
	JobWeeklyRollover  = domain.JobWeeklyRollover
	JobAutoKeep        = domain.JobAutoKeep
	JobMorningBriefing = "morning-briefing"
	JobEveningBriefing = "evening-briefing"
)

// errAlreadySettled aborts a user's transaction when the guard row exists.
var errAlreadySettled = errors.New("already settled for period")

// JobReport summarizes one run of a settlement job.
type JobReport struct {
	Job       string    `json:"job"`
	Period    string    `json:"period"`
	Users     int       `json:"users"`
	Settled   int       `json:"settled"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Contracts int       `json:"contracts"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
}

// userResult is what one user's settlement produced.
type userResult struct {
	skipped   bool
	contracts int
}

// SettlementService executes the scheduled jobs.
type SettlementService struct {
	DB *gorm.DB
	Calendar

	// Briefer generates the per-user briefing for the briefing jobs.
	Briefer *BriefingService

	// Concurrency bounds how many users are settled at once.
	Concurrency int

	Notifier ChangeNotifier
}

// WeeklyRollover settles the finished week of every active weekly contract:
// streak+1 when the goal was met, otherwise streak reset to 0, and the
// progress window restarted today. Yesterday's auto-keep is applied first
// so the last day of the week counts toward the goal.
func (s *SettlementService) WeeklyRollover(ctx context.Context) (JobReport, error) {
	today, yesterday := s.Today(), s.Yesterday()
	period, err := utils.MondayOf(today)
	if err != nil {
		return JobReport{}, err
	}
	users, err := repo.ListContractOwners(ctx, s.DB, domain.StatusActive)
	if err != nil {
		return JobReport{}, fmt.Errorf("list users: %w", err)
	}
	return s.fanOut(ctx, JobWeeklyRollover, period, users, func(ctx context.Context, userID string) (userResult, error) {
		return s.rolloverUser(ctx, userID, today, yesterday, period)
	}), nil
}

func (s *SettlementService) rolloverUser(ctx context.Context, userID, today, yesterday, period string) (userResult, error) {
	var res userResult
	kept := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.ClaimSettlement(ctx, tx, JobWeeklyRollover, userID, period); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return errAlreadySettled
			}
			return err
		}
		// A skipped guard means the auto-keep job already credited yesterday.
		n, err := s.autoKeepTx(ctx, tx, userID, yesterday)
		if err != nil && !errors.Is(err, errAlreadySettled) {
			return err
		}
		kept = n
		contracts, err := repo.ListActiveWeekly(ctx, tx, userID)
		if err != nil {
			return err
		}
		for i := range contracts {
			c := &contracts[i]
			if _, err := applyRollover(c, today); err != nil {
				return fmt.Errorf("contract %s: %w", c.ID, err)
			}
			if err := repo.SaveContract(ctx, tx, c); err != nil {
				return fmt.Errorf("contract %s: %w", c.ID, err)
			}
			res.contracts++
		}
		return nil
	})
	if errors.Is(err, errAlreadySettled) {
		return userResult{skipped: true}, nil
	}
	if err != nil {
		return userResult{}, err
	}
	if res.contracts > 0 || kept > 0 {
		notify(s.Notifier, userID)
	}
	return res, nil
}

// AutoKeep credits yesterday as kept for every active AVOID contract with
// auto-keep enabled that has no log for yesterday, and journals the credit.
func (s *SettlementService) AutoKeep(ctx context.Context) (JobReport, error) {
	yesterday := s.Yesterday()
	users, err := repo.ListContractOwners(ctx, s.DB, domain.StatusActive)
	if err != nil {
		return JobReport{}, fmt.Errorf("list users: %w", err)
	}
	return s.fanOut(ctx, JobAutoKeep, yesterday, users, func(ctx context.Context, userID string) (userResult, error) {
		return s.autoKeepUser(ctx, userID, yesterday)
	}), nil
}

func (s *SettlementService) autoKeepUser(ctx context.Context, userID, yesterday string) (userResult, error) {
	var res userResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.autoKeepTx(ctx, tx, userID, yesterday)
		res.contracts = n
		return err
	})
	if errors.Is(err, errAlreadySettled) {
		return userResult{skipped: true}, nil
	}
	if err != nil {
		return userResult{}, err
	}
	if res.contracts > 0 {
		notify(s.Notifier, userID)
	}
	return res, nil
}

// autoKeepTx claims the auto-keep guard for (userID, yesterday) and credits
// every auto-keep contract without a log on that date. It returns
// errAlreadySettled when the guard was already taken.
func (s *SettlementService) autoKeepTx(ctx context.Context, tx *gorm.DB, userID, yesterday string) (int, error) {
	now := s.now()
	if err := repo.ClaimSettlement(ctx, tx, JobAutoKeep, userID, yesterday); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return 0, errAlreadySettled
		}
		return 0, err
	}
	logged, err := repo.LoggedContractIDs(ctx, tx, userID, yesterday)
	if err != nil {
		return 0, err
	}
	contracts, err := repo.ListActiveAutoKeep(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	credited := 0
	for i := range contracts {
		c := &contracts[i]
		if _, ok := logged[c.ID]; ok {
			continue
		}
		l := &domain.DailyLog{
			UserID:     userID,
			ContractID: c.ID,
			Date:       yesterday,
			Status:     domain.LogKept,
			Notes:      "Auto-kept: no violation reported.",
			Source:     domain.SourceAuto,
			CreatedAt:  now,
		}
		if err := repo.CreateLog(ctx, tx, l); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				// A log for yesterday landed after the batch read.
				continue
			}
			return 0, fmt.Errorf("contract %s: %w", c.ID, err)
		}
		if err := applyAutoKeep(c, yesterday, now); err != nil {
			return 0, fmt.Errorf("contract %s: %w", c.ID, err)
		}
		if err := repo.SaveContract(ctx, tx, c); err != nil {
			return 0, fmt.Errorf("contract %s: %w", c.ID, err)
		}
		entry := &domain.JournalEntry{
			UserID:     userID,
			ContractID: c.ID,
			Type:       domain.JournalAuto,
			Content:    fmt.Sprintf("Auto-kept %s: no violation was reported, streak is now %d.", yesterday, c.Streak),
			CreatedAt:  now,
		}
		if err := repo.CreateJournalEntry(ctx, tx, entry); err != nil {
			return 0, fmt.Errorf("contract %s: %w", c.ID, err)
		}
		credited++
	}
	return credited, nil
}

// Briefings generates and pushes the slot's briefing for every user with a
// push token. Users that already have today's briefing for the slot are
// skipped.
func (s *SettlementService) Briefings(ctx context.Context, slot domain.BriefingSlot) (JobReport, error) {
	if s.Briefer == nil {
		return JobReport{}, errors.New("briefing service not configured")
	}
	job := JobMorningBriefing
	switch slot {
	case domain.SlotMorning:
	case domain.SlotEvening:
		job = JobEveningBriefing
	default:
		return JobReport{}, fmt.Errorf("%w: unknown briefing slot %q", ErrInvalidInput, slot)
	}
	today := s.Today()
	users, err := repo.ListUsersWithPushToken(ctx, s.DB)
	if err != nil {
		return JobReport{}, fmt.Errorf("list users: %w", err)
	}
	byID := make(map[string]domain.User, len(users))
	ids := make([]string, 0, len(users))
	for _, u := range users {
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}
	return s.fanOut(ctx, job, today, ids, func(ctx context.Context, userID string) (userResult, error) {
		created, err := s.Briefer.GenerateForUser(ctx, byID[userID], slot, today)
		if err != nil {
			return userResult{}, err
		}
		if !created {
			return userResult{skipped: true}, nil
		}
		return userResult{}, nil
	}), nil
}

// fanOut settles users concurrently, bounded by Concurrency, and tallies the
// outcomes. Per-user errors are logged and counted, never returned.
func (s *SettlementService) fanOut(ctx context.Context, job, period string, users []string, fn func(context.Context, string) (userResult, error)) JobReport {
	ctx, span := otel.Tracer("services/SettlementService").Start(ctx, job,
		trace.WithAttributes(
			attribute.String("job", job),
			attribute.String("period", period),
			attribute.Int("users", len(users)),
		))
	defer span.End()

	report := JobReport{Job: job, Period: period, Users: len(users), Started: s.now()}
	logger := log.Ctx(ctx).With().Str("job", job).Str("period", period).Logger()

	var mu sync.Mutex
	record := func(userID string, res userResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			report.Failed++
			settlementUsers.WithLabelValues(job, "failed").Inc()
			logger.Error().Err(err).Str("user_id", userID).Msg("settlement failed for user")
		case res.skipped:
			report.Skipped++
			settlementUsers.WithLabelValues(job, "skipped").Inc()
			logger.Debug().Str("user_id", userID).Msg("user already settled")
		default:
			report.Settled++
			report.Contracts += res.contracts
			settlementUsers.WithLabelValues(job, "settled").Inc()
			settlementContracts.WithLabelValues(job).Add(float64(res.contracts))
		}
	}

	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, uid := range users {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				record(uid, userResult{}, err)
				return nil
			}
			res, err := fn(gctx, uid)
			record(uid, res, err)
			return nil
		})
	}
	_ = g.Wait()

	report.Finished = s.now()
	span.SetAttributes(
		attribute.Int("settled", report.Settled),
		attribute.Int("skipped", report.Skipped),
		attribute.Int("failed", report.Failed),
	)
	logger.Info().
		Int("users", report.Users).
		Int("settled", report.Settled).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int("contracts", report.Contracts).
		Msg("settlement job finished")
	return report
}
