package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/repo"
)

// fixedNow is a Wednesday.
var fixedNow = time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)

func fixedCalendar(t time.Time) Calendar {
	return Calendar{Now: func() time.Time { return t }, Loc: time.UTC}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
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
	// One connection serializes concurrent writers in shared-cache mode.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type contractOpt func(*domain.Contract)

func weekly(n, done int, weekStart string) contractOpt {
	return func(c *domain.Contract) {
		c.TimesPerWeek = &n
		c.SetProgress(domain.WeeklyProgress{WeekStart: weekStart, CompletedCount: done})
	}
}

func withStreak(n int) contractOpt { return func(c *domain.Contract) { c.Streak = n } }

func avoidAutoKeep() contractOpt {
	return func(c *domain.Contract) {
		c.Type = domain.ContractAvoid
		c.AutoKeep = true
	}
}

func withEndDate(d string) contractOpt { return func(c *domain.Contract) { c.EndDate = &d } }

func withStatus(s domain.ContractStatus) contractOpt {
	return func(c *domain.Contract) { c.Status = s }
}

func seedContract(t *testing.T, db *gorm.DB, userID string, opts ...contractOpt) *domain.Contract {
	t.Helper()
	c := &domain.Contract{
		UserID:   userID,
		Title:    "Morning run",
		Behavior: "Run 5km before work",
		Type:     domain.ContractDo,
		Pillar:   "Health",
		Status:   domain.StatusActive,
	}
	for _, o := range opts {
		o(c)
	}
	if err := repo.CreateContract(context.Background(), db, c); err != nil {
		t.Fatalf("seed contract: %v", err)
	}
	return c
}

func reload(t *testing.T, db *gorm.DB, c *domain.Contract) *domain.Contract {
	t.Helper()
	got, err := repo.GetContract(context.Background(), db, c.ID, c.UserID)
	if err != nil {
		t.Fatalf("reload contract: %v", err)
	}
	return got
}

func countRows(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// recordingNotifier collects Notify calls.
type recordingNotifier struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingNotifier) Notify(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
