package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/http/middleware"
	"github.com/tbourn/pactkeeper/internal/live"
	"github.com/tbourn/pactkeeper/internal/oracle"
	"github.com/tbourn/pactkeeper/internal/push"
	"github.com/tbourn/pactkeeper/internal/repo"
	"github.com/tbourn/pactkeeper/internal/services"
)

// testNow is a Wednesday.
var testNow = time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)

type testAPI struct {
	r       *gin.Engine
	db      *gorm.DB
	oracle  *oracle.Fake
	pusher  *push.Recorder
	hub     *live.Hub
	journal *services.JournalService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
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
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newTestAPI wires real services over an in-memory store, with a fake oracle
// and a recording pusher, and mounts every endpoint at the root.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	cal := services.Calendar{Now: func() time.Time { return testNow }, Loc: time.UTC}
	fake := &oracle.Fake{}
	rec := &push.Recorder{}

	contracts := services.NewContractService(db, cal)
	hub := live.NewHub(contracts.Snapshot)
	t.Cleanup(hub.Close)
	contracts.Notifier = hub

	checkins := services.NewCheckInService(db, cal)
	checkins.Notifier = hub
	violations := &services.ViolationService{DB: db, Calendar: cal, Notifier: hub}
	journal := &services.JournalService{DB: db, Calendar: cal, Oracle: fake, ReplyTimeout: time.Second}
	t.Cleanup(journal.Wait)

	h := New(Deps{
		Contracts:   contracts,
		CheckIns:    checkins,
		Violations:  violations,
		Advisor:     &services.AdvisorService{DB: db, Oracle: fake},
		Temptations: &services.TemptationService{DB: db, Calendar: cal, Oracle: fake},
		Journal:     journal,
		Briefings:   &services.BriefingService{DB: db, Calendar: cal, Oracle: fake, Pusher: rec},
		Stream:      hub,
		Heartbeat:   time.Hour,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			return err == nil, nil
		}))

	r.POST("/contracts", h.CreateContract)
	r.GET("/contracts", h.ListContracts)
	r.GET("/contracts/stream", h.StreamContracts)
	r.GET("/contracts/:id", h.GetContract)
	r.DELETE("/contracts/:id", h.DeleteContract)
	r.POST("/contracts/:id/complete", h.CompleteContract)
	r.POST("/contracts/:id/checkins", h.CheckIn)
	r.GET("/contracts/:id/logs", h.ListLogs)
	r.POST("/contracts/:id/violations", h.ReportViolation)
	r.POST("/contracts/:id/audit", h.Audit)
	r.POST("/contracts/:id/judge", h.Judge)
	r.POST("/contracts/:id/temptations", h.CoachTemptation)
	r.POST("/contracts/:id/journal", h.AddJournalEntry)
	r.GET("/contracts/:id/journal", h.ListJournal)
	r.GET("/contracts/:id/journal/search", h.SearchJournal)
	r.POST("/temptations/:id/outcome", h.ResolveTemptation)
	r.POST("/oracle/draft", h.Draft)
	r.POST("/oracle/violation", h.JudgeViolation)
	r.PUT("/me/push-token", h.SetPushToken)
	r.GET("/me/briefings", h.ListBriefings)

	return &testAPI{r: r, db: db, oracle: fake, pusher: rec, hub: hub, journal: journal}
}

// do sends a request as user (anonymous when empty) with an optional JSON
// body and extra headers.
func (a *testAPI) do(t *testing.T, method, path, user string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(middleware.HeaderUserID, user)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	if er := decode[ErrorResponse](t, w); er.Code != code {
		t.Fatalf("code = %q, want %q", er.Code, code)
	}
}

// seedContract stores an active contract for user directly.
func (a *testAPI) seedContract(t *testing.T, user string, mut ...func(*domain.Contract)) *domain.Contract {
	t.Helper()
	c := &domain.Contract{
		UserID:   user,
		Title:    "No sugar",
		Behavior: "No desserts after dinner",
		Type:     domain.ContractAvoid,
		Pillar:   "Health",
		Status:   domain.StatusActive,
	}
	for _, m := range mut {
		m(c)
	}
	if err := repo.CreateContract(context.Background(), a.db, c); err != nil {
		t.Fatalf("seed contract: %v", err)
	}
	return c
}

func (a *testAPI) reload(t *testing.T, c *domain.Contract) *domain.Contract {
	t.Helper()
	got, err := repo.GetContract(context.Background(), a.db, c.ID, c.UserID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	return got
}

func validContract() CreateContractRequest {
	return CreateContractRequest{
		Title:    "Morning run",
		Behavior: "Run 5km before work",
		Type:     "do",
		Pillar:   "health",
	}
}
