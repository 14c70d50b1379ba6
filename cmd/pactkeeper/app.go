package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/pactkeeper/internal/config"
	"github.com/tbourn/pactkeeper/internal/http/handlers"
	"github.com/tbourn/pactkeeper/internal/live"
	"github.com/tbourn/pactkeeper/internal/oracle"
	"github.com/tbourn/pactkeeper/internal/push"
	"github.com/tbourn/pactkeeper/internal/repo"
	"github.com/tbourn/pactkeeper/internal/services"
)

// app is the process-wide object graph: one store, one live hub and the
// services shared by the HTTP API, the scheduler and the operator commands.
type app struct {
	cfg config.Config
	db  *gorm.DB
	hub *live.Hub

	contracts   *services.ContractService
	checkins    *services.CheckInService
	violations  *services.ViolationService
	advisor     *services.AdvisorService
	temptations *services.TemptationService
	journal     *services.JournalService
	briefings   *services.BriefingService
	settlement  *services.SettlementService
	migration   *services.MigrationService
}

// collaborators are the outbound dependencies; tests swap them for fakes.
type collaborators struct {
	Oracle oracle.Oracle
	Pusher push.Pusher
}

// newApp opens the store, migrates it and wires the services. Collaborators
// are built from cfg.
func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	orc, err := newOracle(ctx, cfg.Oracle)
	if err != nil {
		return nil, err
	}
	pusher, err := newPusher(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", cfg.DBPath, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return wire(cfg, db, services.Calendar{Loc: cfg.Location()}, collaborators{Oracle: orc, Pusher: pusher}), nil
}

func wire(cfg config.Config, db *gorm.DB, cal services.Calendar, c collaborators) *app {
	a := &app{cfg: cfg, db: db}

	a.contracts = services.NewContractService(db, cal)
	a.contracts.MaxActive = cfg.MaxActiveContracts
	a.contracts.MaxExceptions = cfg.MaxExceptions
	a.hub = live.NewHub(a.contracts.Snapshot)
	a.contracts.Notifier = a.hub

	a.checkins = services.NewCheckInService(db, cal)
	a.checkins.IdempotencyTTL = cfg.IdempotencyTTL
	a.checkins.Notifier = a.hub

	a.violations = &services.ViolationService{DB: db, Calendar: cal, Notifier: a.hub}
	a.advisor = &services.AdvisorService{DB: db, Oracle: c.Oracle}
	a.temptations = &services.TemptationService{DB: db, Calendar: cal, Oracle: c.Oracle}
	a.journal = &services.JournalService{DB: db, Calendar: cal, Oracle: c.Oracle, ReplyTimeout: cfg.Oracle.Timeout}
	a.briefings = &services.BriefingService{DB: db, Calendar: cal, Oracle: c.Oracle, Pusher: c.Pusher}
	a.settlement = &services.SettlementService{
		DB:          db,
		Calendar:    cal,
		Briefer:     a.briefings,
		Concurrency: cfg.Scheduler.Concurrency,
		Notifier:    a.hub,
	}
	a.migration = &services.MigrationService{DB: db, Notifier: a.hub}
	return a
}

// handlers exposes the services to the HTTP layer.
func (a *app) handlers() *handlers.Handlers {
	return handlers.New(handlers.Deps{
		Contracts:   a.contracts,
		CheckIns:    a.checkins,
		Violations:  a.violations,
		Advisor:     a.advisor,
		Temptations: a.temptations,
		Journal:     a.journal,
		Briefings:   a.briefings,
		Stream:      a.hub,
	})
}

// Close ends live subscriptions, waits for pending journal replies and
// closes the store.
func (a *app) Close() {
	a.hub.Close()
	a.journal.Wait()
	closeDB(a.db)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newOracle returns the Gemini oracle, or an Unavailable one when no key is
// configured so every oracle feature degrades to its silent result.
func newOracle(ctx context.Context, cfg config.OracleConfig) (oracle.Oracle, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		log.Warn().Msg("GEMINI_API_KEY not set; oracle features are silent")
		return oracle.Unavailable{}, nil
	}
	g, err := oracle.NewGemini(ctx, oracle.Options{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
		RPS:     cfg.RPS,
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// newPusher returns the Telegram pusher, or the logging one without a token.
func newPusher(token string) (push.Pusher, error) {
	if strings.TrimSpace(token) == "" {
		return push.Log{}, nil
	}
	t, err := push.NewTelegram(token)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// withTimeout bounds one-shot commands; zero means no bound.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// errUsage marks a command-line mistake as opposed to a runtime failure.
var errUsage = errors.New("usage")
