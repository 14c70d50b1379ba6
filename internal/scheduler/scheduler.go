// Package scheduler triggers the settlement jobs on their cron schedules.
//
// Each job is wrapped so that a panic is recovered and logged, and a run that
// is still in progress when the next tick fires causes that tick to be
// skipped. Jobs are idempotent per period, so a skipped or repeated tick never
// settles a user twice.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/pactkeeper/internal/config"
	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/services"
)

// ErrUnknownJob is returned by RunNow for a name that is not registered.
var ErrUnknownJob = errors.New("scheduler: unknown job")

// Jobs is the settlement surface the scheduler drives.
type Jobs interface {
	WeeklyRollover(ctx context.Context) (services.JobReport, error)
	AutoKeep(ctx context.Context) (services.JobReport, error)
	Briefings(ctx context.Context, slot domain.BriefingSlot) (services.JobReport, error)
}

var jobDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "scheduler_job_duration_seconds",
		Help:    "Wall time of scheduled settlement jobs.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	},
	[]string{"job", "outcome"},
)

func init() {
	prometheus.MustRegister(jobDuration)
}

type runFunc func(context.Context) (services.JobReport, error)

// Scheduler owns the cron runner and the registered jobs.
type Scheduler struct {
	cron *cron.Cron
	runs map[string]runFunc

	mu   sync.Mutex
	base context.Context
}

// New registers the four settlement jobs with the specs from cfg, evaluated in
// loc. A spec that fails to parse is an error.
func New(cfg config.SchedulerConfig, loc *time.Location, jobs Jobs) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	l := cronLogger{l: log.Logger.With().Str("component", "scheduler").Logger()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		runs: map[string]runFunc{
			services.JobWeeklyRollover: jobs.WeeklyRollover,
			services.JobAutoKeep:       jobs.AutoKeep,
			services.JobMorningBriefing: func(ctx context.Context) (services.JobReport, error) {
				return jobs.Briefings(ctx, domain.SlotMorning)
			},
			services.JobEveningBriefing: func(ctx context.Context) (services.JobReport, error) {
				return jobs.Briefings(ctx, domain.SlotEvening)
			},
		},
		base: context.Background(),
	}

	specs := map[string]string{
		services.JobWeeklyRollover:  cfg.WeeklyRollover,
		services.JobAutoKeep:        cfg.AutoKeep,
		services.JobMorningBriefing: cfg.MorningBriefing,
		services.JobEveningBriefing: cfg.EveningBriefing,
	}
	for _, name := range sortedKeys(specs) {
		if _, err := s.cron.AddFunc(specs[name], func() { s.tick(name) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", name, specs[name], err)
		}
	}
	return s, nil
}

// Start runs the cron loop in the background. Jobs receive a context derived
// from ctx, so cancelling it aborts in-flight settlement.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		log.Ctx(ctx).Debug().Int("entry", int(e.ID)).Time("next", e.Next).Msg("job scheduled")
	}
}

// Stop halts the loop and waits for running jobs, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Names returns the registered job names in stable order.
func (s *Scheduler) Names() []string {
	return sortedKeys(s.runs)
}

// RunNow executes the named job synchronously, outside the cron schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) (services.JobReport, error) {
	run, ok := s.runs[name]
	if !ok {
		return services.JobReport{}, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return s.execute(ctx, name, run)
}

func (s *Scheduler) tick(name string) {
	s.mu.Lock()
	ctx := s.base
	s.mu.Unlock()
	// Failures are logged and counted by execute.
	_, _ = s.execute(ctx, name, s.runs[name])
}

func (s *Scheduler) execute(ctx context.Context, name string, run runFunc) (services.JobReport, error) {
	logger := log.Ctx(ctx).With().Str("job", name).Logger()
	start := time.Now()
	rep, err := run(logger.WithContext(ctx))
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	jobDuration.WithLabelValues(name, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error().Err(err).Msg("settlement job failed")
		return rep, err
	}
	logger.Info().
		Str("period", rep.Period).
		Int("users", rep.Users).
		Int("settled", rep.Settled).
		Int("skipped", rep.Skipped).
		Int("failed", rep.Failed).
		Int("contracts", rep.Contracts).
		Dur("took", time.Since(start)).
		Msg("settlement job finished")
	return rep, nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
