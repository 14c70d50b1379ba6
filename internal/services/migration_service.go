// Package services – MigrationService
//
// MigrationService is the administrator-run utility that moves every row a
// user owns to another user id. It is deliberately not atomic: rows are moved
// one by one, failures are collected and the walk continues. Running it again
// picks up whatever was left behind.
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

	"github.com/tbourn/pactkeeper/internal/repo"
)

// RowError is one row that could not be moved.
type RowError struct {
	Table string `json:"table"`
	ID    string `json:"id"`
	Err   string `json:"error"`
}

// MigrationReport tallies one migration run.
type MigrationReport struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Moved  map[string]int `json:"moved"`
	Errors []RowError     `json:"errors"`
}

// Err folds the per-row failures into one error, or nil when none occurred.
func (r *MigrationReport) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, fmt.Errorf("%s/%s: %s", e.Table, e.ID, e.Err))
	}
	return errors.Join(errs...)
}

// MigrationService reparents user data.
type MigrationService struct {
	DB *gorm.DB

	Notifier ChangeNotifier
}

// MigrateUser moves every row owned by from to to. It returns an error only
// when the walk could not start; row failures are in the report.
func (s *MigrationService) MigrateUser(ctx context.Context, from, to string) (*MigrationReport, error) {
	ctx, span := otel.Tracer("services/MigrationService").Start(ctx, "MigrateUser",
		trace.WithAttributes(attribute.String("from", from), attribute.String("to", to)))
	defer span.End()

	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: from and to are required", ErrInvalidInput)
	}
	if from == to {
		return nil, fmt.Errorf("%w: from and to must differ", ErrInvalidInput)
	}

	logger := log.Ctx(ctx).With().Str("from", from).Str("to", to).Logger()
	rep := &MigrationReport{From: from, To: to, Moved: map[string]int{}}
	fail := func(table, id string, err error) {
		rep.Errors = append(rep.Errors, RowError{Table: table, ID: id, Err: err.Error()})
		logger.Warn().Err(err).Str("table", table).Str("id", id).Msg("row not migrated")
	}

	for _, table := range repo.UserScopedTables {
		ids, err := repo.ListRowIDs(ctx, s.DB, table, from)
		if err != nil {
			fail(table, "*", err)
			continue
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			if err := repo.ReassignRow(ctx, s.DB, table, id, to); err != nil {
				fail(table, id, err)
				continue
			}
			rep.Moved[table]++
		}
	}

	if err := s.copyPushToken(ctx, from, to); err != nil {
		fail("users", from, err)
	}

	span.SetAttributes(attribute.Int("errors", len(rep.Errors)))
	logger.Info().Interface("moved", rep.Moved).Int("errors", len(rep.Errors)).Msg("user migration finished")
	notify(s.Notifier, from)
	notify(s.Notifier, to)
	return rep, nil
}

// copyPushToken gives the target the source's push token when it has none.
func (s *MigrationService) copyPushToken(ctx context.Context, from, to string) error {
	src, err := repo.GetUser(ctx, s.DB, from)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if src.PushToken == nil || *src.PushToken == "" {
		return nil
	}
	dst, err := repo.GetUser(ctx, s.DB, to)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if dst != nil && dst.PushToken != nil && *dst.PushToken != "" {
		return nil
	}
	_, err = repo.UpsertPushToken(ctx, s.DB, to, src.PushToken)
	return err
}
