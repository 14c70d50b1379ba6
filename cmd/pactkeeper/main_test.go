package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/pactkeeper/internal/config"
	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/oracle"
	"github.com/tbourn/pactkeeper/internal/push"
	"github.com/tbourn/pactkeeper/internal/repo"
	"github.com/tbourn/pactkeeper/internal/scheduler"
	"github.com/tbourn/pactkeeper/internal/services"
)

// cmdNow is a Wednesday.
var cmdNow = time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)

func testCfg() config.Config {
	return config.Config{
		Timezone:           "UTC",
		MaxActiveContracts: 10,
		MaxExceptions:      5,
		IdempotencyTTL:     time.Hour,
		Scheduler: config.SchedulerConfig{
			MorningBriefing: "0 7 * * *",
			EveningBriefing: "0 20 * * *",
			WeeklyRollover:  "5 0 * * 1",
			AutoKeep:        "10 0 * * *",
			Concurrency:     2,
		},
		Oracle: config.OracleConfig{Timeout: time.Second},
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	dsn := fmt.Sprintf("file:cmd_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	cal := services.Calendar{Now: func() time.Time { return cmdNow }, Loc: time.UTC}
	a := wire(testCfg(), db, cal, collaborators{Oracle: &oracle.Fake{}, Pusher: &push.Recorder{}})
	t.Cleanup(a.Close)
	return a
}

func testCommand(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd
}

func TestSettle_AutoKeepOncePerPeriod(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	c, err := a.contracts.Create(ctx, "u1", services.CreateContractInput{
		Title:    "No sugar",
		Behavior: "No desserts after dinner",
		Type:     "AVOID",
		Pillar:   "health",
		AutoKeep: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var out bytes.Buffer
	if err := settle(context.Background(), testCommand(&out), a.cfg, a.settlement, services.JobAutoKeep); err != nil {
		t.Fatalf("settle: %v", err)
	}
	var rep services.JobReport
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out.String())
	}
	if rep.Job != services.JobAutoKeep || rep.Period != "2025-06-17" || rep.Settled != 1 || rep.Contracts != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	got, err := a.contracts.Get(ctx, "u1", c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Streak != 1 {
		t.Fatalf("streak = %d, want 1", got.Streak)
	}

	out.Reset()
	if err := settle(context.Background(), testCommand(&out), a.cfg, a.settlement, services.JobAutoKeep); err != nil {
		t.Fatalf("second settle: %v", err)
	}
	rep = services.JobReport{}
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Skipped != 1 || rep.Contracts != 0 {
		t.Fatalf("second run must skip the settled user: %+v", rep)
	}
}

func TestSettle_UnknownJob(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer
	err := settle(context.Background(), testCommand(&out), a.cfg, a.settlement, "nightly")
	if !errors.Is(err, scheduler.ErrUnknownJob) {
		t.Fatalf("expected ErrUnknownJob, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("no report expected, got %q", out.String())
	}
}

// blockingJobs stands in for a settlement whose collaborator never answers.
type blockingJobs struct{}

func (blockingJobs) wait(ctx context.Context) (services.JobReport, error) {
	<-ctx.Done()
	return services.JobReport{}, ctx.Err()
}

func (b blockingJobs) WeeklyRollover(ctx context.Context) (services.JobReport, error) { return b.wait(ctx) }
func (b blockingJobs) AutoKeep(ctx context.Context) (services.JobReport, error)       { return b.wait(ctx) }
func (b blockingJobs) Briefings(ctx context.Context, _ domain.BriefingSlot) (services.JobReport, error) {
	return b.wait(ctx)
}

func TestSettle_TimeoutAbortsJob(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var out bytes.Buffer
		done <- settle(ctx, testCommand(&out), testCfg(), blockingJobs{}, services.JobMorningBriefing)
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("settle ignored the timeout")
	}
}

func TestMigrateUser_MovesContracts(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	c, err := a.contracts.Create(ctx, "anon-1", services.CreateContractInput{
		Title: "Morning run", Behavior: "Run 5km before work", Type: "DO", Pillar: "health",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var out bytes.Buffer
	if err := migrateUser(testCommand(&out), a, " anon-1 ", "user-9"); err != nil {
		t.Fatalf("migrate: %v\n%s", err, out.String())
	}
	var rep services.MigrationReport
	if err := json.Unmarshal(out.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.From != "anon-1" || rep.To != "user-9" || len(rep.Errors) != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if _, err := a.contracts.Get(ctx, "user-9", c.ID); err != nil {
		t.Fatalf("contract not moved: %v", err)
	}
	if _, err := a.contracts.Get(ctx, "anon-1", c.ID); err == nil {
		t.Fatalf("old owner still sees the contract")
	}
}

func TestMigrateUser_RejectsBlankIDs(t *testing.T) {
	a := newTestApp(t)
	var out bytes.Buffer
	if err := migrateUser(testCommand(&out), a, "  ", "user-9"); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestWire_AppliesQuotas(t *testing.T) {
	a := newTestApp(t)
	if a.contracts.MaxActive != 10 || a.contracts.MaxExceptions != 5 {
		t.Fatalf("quotas not applied: %+v", a.contracts)
	}
	if a.checkins.IdempotencyTTL != time.Hour {
		t.Fatalf("idempotency ttl = %v", a.checkins.IdempotencyTTL)
	}
	if a.settlement.Concurrency != 2 || a.settlement.Briefer != a.briefings {
		t.Fatalf("settlement wiring: %+v", a.settlement)
	}
	if a.handlers() == nil {
		t.Fatalf("handlers not built")
	}
}

func TestNewCollaborators_FallBackWithoutCredentials(t *testing.T) {
	o, err := newOracle(context.Background(), config.OracleConfig{APIKey: "  "})
	if err != nil {
		t.Fatalf("oracle: %v", err)
	}
	if _, ok := o.(oracle.Unavailable); !ok {
		t.Fatalf("expected Unavailable oracle, got %T", o)
	}
	p, err := newPusher("")
	if err != nil {
		t.Fatalf("pusher: %v", err)
	}
	if _, ok := p.(push.Log); !ok {
		t.Fatalf("expected log pusher, got %T", p)
	}
}

func TestLoadEnv(t *testing.T) {
	const key = "PACTKEEPER_TEST_ENV_KEY"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(key+"=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	if err := loadEnv(path, true); err != nil {
		t.Fatalf("loadEnv: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Fatalf("%s = %q", key, got)
	}

	missing := filepath.Join(t.TempDir(), "nope.env")
	if err := loadEnv(missing, false); err != nil {
		t.Fatalf("missing default file must be ignored: %v", err)
	}
	if err := loadEnv(missing, true); err == nil {
		t.Fatalf("missing explicit file must fail")
	}
}

func TestVersionCommand_SkipsConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "bogus")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if out.String() != version+"\n" {
		t.Fatalf("output = %q", out.String())
	}
}
