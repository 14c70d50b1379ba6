package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/tbourn/pactkeeper/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func validInput() CreateContractInput {
	return CreateContractInput{
		Title:      "  No   sugar ",
		Behavior:   "No added sugar after 6pm",
		Type:       "avoid",
		Pillar:     "health  and body",
		Exceptions: []string{" birthday ", "", "wedding"},
	}
}

func TestContractService_Create_NormalizesAndDefaults(t *testing.T) {
	db := newTestDB(t)
	n := &recordingNotifier{}
	svc := NewContractService(db, fixedCalendar(fixedNow))
	svc.Notifier = n

	c, err := svc.Create(context.Background(), "u1", validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Title != "No sugar" || c.Pillar != "Health And Body" || c.Type != domain.ContractAvoid {
		t.Fatalf("normalization failed: %+v", c)
	}
	if c.Status != domain.StatusActive || c.Streak != 0 || c.Outcome != nil {
		t.Fatalf("new contract should be active with streak 0: %+v", c)
	}
	if len(c.Exceptions) != 2 || c.Exceptions[0] != "birthday" {
		t.Fatalf("exceptions not cleaned: %#v", c.Exceptions)
	}
	if _, ok := c.Cadence().(domain.DailyCadence); !ok {
		t.Fatalf("expected daily cadence")
	}
	if n.count() != 1 {
		t.Fatalf("expected one notification, got %d", n.count())
	}
}

func TestContractService_Create_Weekly_StartsWindowToday(t *testing.T) {
	db := newTestDB(t)
	svc := NewContractService(db, fixedCalendar(fixedNow))
	in := validInput()
	in.TimesPerWeek = ptr(3)

	c, err := svc.Create(context.Background(), "u1", in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w, ok := c.Cadence().(domain.WeeklyCadence)
	if !ok || w.TimesPerWeek != 3 || w.Progress.WeekStart != "2025-06-18" || w.Progress.CompletedCount != 0 {
		t.Fatalf("unexpected weekly cadence: %#v", c.Cadence())
	}
}

func TestContractService_Create_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := NewContractService(db, fixedCalendar(fixedNow))
	ctx := context.Background()

	if _, err := svc.Create(ctx, " ", validInput()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("want ErrUnauthenticated, got %v", err)
	}

	cases := map[string]func(*CreateContractInput){
		"empty title":     func(in *CreateContractInput) { in.Title = "  " },
		"empty pillar":    func(in *CreateContractInput) { in.Pillar = "" },
		"short behavior":  func(in *CreateContractInput) { in.Behavior = "run" },
		"bad type":        func(in *CreateContractInput) { in.Type = "MAYBE" },
		"bad start":       func(in *CreateContractInput) { in.StartDate = ptr("18/06/2025") },
		"start after end": func(in *CreateContractInput) { in.StartDate, in.EndDate = ptr("2025-07-01"), ptr("2025-06-01") },
		"times zero":      func(in *CreateContractInput) { in.TimesPerWeek = ptr(0) },
		"times eight":     func(in *CreateContractInput) { in.TimesPerWeek = ptr(8) },
		"six exceptions":  func(in *CreateContractInput) { in.Exceptions = []string{"a", "b", "c", "d", "e", "f"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			if _, err := svc.Create(ctx, "u1", in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
		})
	}
	if n := countRows(t, db, &domain.Contract{}, "1 = 1"); n != 0 {
		t.Fatalf("rejected inputs must not write, found %d rows", n)
	}
}

func TestContractService_Create_TitleClipped(t *testing.T) {
	db := newTestDB(t)
	svc := NewContractService(db, fixedCalendar(fixedNow))
	in := validInput()
	in.Title = strings.Repeat("x", 300)
	c, err := svc.Create(context.Background(), "u1", in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len([]rune(c.Title)) != maxTitleRunes {
		t.Fatalf("title should be clipped to %d runes, got %d", maxTitleRunes, len([]rune(c.Title)))
	}
}

func TestContractService_Create_ActiveLimit(t *testing.T) {
	db := newTestDB(t)
	svc := NewContractService(db, fixedCalendar(fixedNow))
	svc.MaxActive = 2
	ctx := context.Background()

	seedContract(t, db, "u1")
	seedContract(t, db, "u1", withStatus(domain.StatusPaused))
	if _, err := svc.Create(ctx, "u1", validInput()); err != nil {
		t.Fatalf("second active should be allowed: %v", err)
	}
	if _, err := svc.Create(ctx, "u1", validInput()); !errors.Is(err, ErrActiveLimit) {
		t.Fatalf("want ErrActiveLimit, got %v", err)
	}
	if _, err := svc.Create(ctx, "u2", validInput()); err != nil {
		t.Fatalf("quota is per user: %v", err)
	}
}

func TestContractService_Locale_DefaultsToEnglish(t *testing.T) {
	svc := &ContractService{}
	if svc.locale() != language.English {
		t.Fatalf("zero locale should fall back to English")
	}
	svc.PillarLocale = language.Dutch
	if svc.locale() != language.Dutch {
		t.Fatalf("explicit locale ignored")
	}
}

func TestContractService_GetListSnapshot(t *testing.T) {
	db := newTestDB(t)
	svc := NewContractService(db, fixedCalendar(fixedNow))
	ctx := context.Background()

	a := seedContract(t, db, "u1")
	seedContract(t, db, "u1", withStatus(domain.StatusPaused))
	seedContract(t, db, "u2")

	if _, err := svc.Get(ctx, "u2", a.ID); !errors.Is(err, ErrContractNotFound) {
		t.Fatalf("foreign contract should be not found, got %v", err)
	}
	got, err := svc.Get(ctx, "u1", a.ID)
	if err != nil || got.ID != a.ID {
		t.Fatalf("Get: %v %+v", err, got)
	}

	items, total, err := svc.ListPage(ctx, "u1", "", 1, 1)
	if err != nil || total != 2 || len(items) != 1 {
		t.Fatalf("ListPage all: total=%d len=%d err=%v", total, len(items), err)
	}
	items, total, err = svc.ListPage(ctx, "u1", domain.StatusPaused, 0, 0)
	if err != nil || total != 1 || len(items) != 1 || items[0].Status != domain.StatusPaused {
		t.Fatalf("ListPage paused: total=%d items=%+v err=%v", total, items, err)
	}
	if _, _, err := svc.ListPage(ctx, "u1", "deleted", 1, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status should be invalid, got %v", err)
	}
	items, total, err = svc.ListPage(ctx, "nobody", "", 1, 10)
	if err != nil || total != 0 || items == nil || len(items) != 0 {
		t.Fatalf("empty list should be non-nil and empty: %v %d %v", items, total, err)
	}

	snap, err := svc.Snapshot(ctx, "u1")
	if err != nil || len(snap) != 2 {
		t.Fatalf("Snapshot: %d %v", len(snap), err)
	}
}

func TestContractService_Complete(t *testing.T) {
	db := newTestDB(t)
	svc := NewContractService(db, fixedCalendar(fixedNow))
	ctx := context.Background()

	t.Run("after end date archives as completed", func(t *testing.T) {
		c := seedContract(t, db, "u1", withEndDate("2025-06-17"), withStreak(12))
		got, err := svc.Complete(ctx, "u1", c.ID)
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		stored := reload(t, db, got)
		if stored.Status != domain.StatusArchived || stored.Outcome == nil || *stored.Outcome != domain.OutcomeCompleted {
			t.Fatalf("expected archived/completed: %+v", stored)
		}
		if stored.FailureReason != nil || stored.ArchivedAt == nil || stored.Streak != 12 {
			t.Fatalf("unexpected fields after completion: %+v", stored)
		}
		if _, err := svc.Complete(ctx, "u1", c.ID); !errors.Is(err, ErrContractNotActive) {
			t.Fatalf("second completion should be rejected, got %v", err)
		}
	})

	t.Run("on end date is not yet expired", func(t *testing.T) {
		c := seedContract(t, db, "u1", withEndDate("2025-06-18"))
		if _, err := svc.Complete(ctx, "u1", c.ID); !errors.Is(err, ErrNotExpired) {
			t.Fatalf("want ErrNotExpired, got %v", err)
		}
	})

	t.Run("without end date is rejected", func(t *testing.T) {
		c := seedContract(t, db, "u1")
		if _, err := svc.Complete(ctx, "u1", c.ID); !errors.Is(err, ErrNotExpired) {
			t.Fatalf("want ErrNotExpired, got %v", err)
		}
		if reload(t, db, c).Status != domain.StatusActive {
			t.Fatalf("rejected completion must not change status")
		}
	})

	t.Run("missing contract", func(t *testing.T) {
		if _, err := svc.Complete(ctx, "u1", "nope"); !errors.Is(err, ErrContractNotFound) {
			t.Fatalf("want ErrContractNotFound, got %v", err)
		}
	})
}

func TestContractService_Delete_KeepsChildren(t *testing.T) {
	db := newTestDB(t)
	cal := fixedCalendar(fixedNow)
	svc := NewContractService(db, cal)
	checkins := NewCheckInService(db, cal)
	ctx := context.Background()

	c := seedContract(t, db, "u1")
	if _, err := checkins.CheckIn(ctx, "u1", c.ID, CheckInInput{Status: domain.LogKept}); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if err := svc.Delete(ctx, "u2", c.ID); !errors.Is(err, ErrContractNotFound) {
		t.Fatalf("foreign delete should be not found, got %v", err)
	}
	if err := svc.Delete(ctx, "u1", c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "u1", c.ID); !errors.Is(err, ErrContractNotFound) {
		t.Fatalf("deleted contract still readable: %v", err)
	}
	if n := countRows(t, db, &domain.DailyLog{}, "contract_id = ?", c.ID); n != 1 {
		t.Fatalf("logs should survive a delete, got %d", n)
	}
	if err := svc.Delete(ctx, "u1", c.ID); !errors.Is(err, ErrContractNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestNormalizeText(t *testing.T) {
	if got := normalizeText("  a \t b\n\nc  "); got != "a b c" {
		t.Fatalf("normalizeText = %q", got)
	}
}
