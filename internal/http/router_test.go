package httpapi

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/pactkeeper/internal/config"
	"github.com/tbourn/pactkeeper/internal/http/handlers"
	"github.com/tbourn/pactkeeper/internal/http/middleware"
	"github.com/tbourn/pactkeeper/internal/live"
	"github.com/tbourn/pactkeeper/internal/oracle"
	"github.com/tbourn/pactkeeper/internal/repo"
	"github.com/tbourn/pactkeeper/internal/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
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

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   10,
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	cal := services.Calendar{Loc: time.UTC}
	fake := &oracle.Fake{}

	contracts := services.NewContractService(db, cal)
	hub := live.NewHub(contracts.Snapshot)
	t.Cleanup(hub.Close)
	contracts.Notifier = hub
	journal := &services.JournalService{DB: db, Calendar: cal, Oracle: fake}
	t.Cleanup(journal.Wait)

	h := handlers.New(handlers.Deps{
		Contracts:   contracts,
		CheckIns:    services.NewCheckInService(db, cal),
		Violations:  &services.ViolationService{DB: db, Calendar: cal},
		Advisor:     &services.AdvisorService{DB: db, Oracle: fake},
		Temptations: &services.TemptationService{DB: db, Calendar: cal, Oracle: fake},
		Journal:     journal,
		Briefings:   &services.BriefingService{DB: db, Calendar: cal},
		Stream:      hub,
	})
	r := gin.New()
	RegisterRoutes(r, db, h, cfg)
	return r
}

func send(r *gin.Engine, method, path string, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t, testConfig())

	w := send(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	w = send(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	w = send(r, http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	w = send(r, http.MethodPost, "/health", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}

	if w := send(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger must be off by default, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r := newRouter(t, cfg)

	w := send(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_SwaggerWhenEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r := newRouter(t, cfg)

	if w := send(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusOK {
		t.Fatalf("swagger UI = %d", w.Code)
	}
}

func TestRegisterRoutes_ContractFlow(t *testing.T) {
	r := newRouter(t, testConfig())
	user := map[string]string{middleware.HeaderUserID: "u1"}

	w := send(r, http.MethodPost, "/api/v1/contracts",
		`{"title":"Morning run","behavior":"Run 5km before work","type":"DO","pillar":"health"}`, user)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers not applied")
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("decode created: %v %s", err, w.Body.String())
	}

	hdr := map[string]string{middleware.HeaderUserID: "u1", middleware.HeaderIdempotencyKey: "k-1"}
	if w := send(r, http.MethodPost, "/api/v1/contracts/"+created.ID+"/checkins", `{"status":"kept"}`, hdr); w.Code != http.StatusCreated {
		t.Fatalf("check-in = %d %s", w.Code, w.Body.String())
	}
	w = send(r, http.MethodPost, "/api/v1/contracts/"+created.ID+"/checkins", `{"status":"kept"}`, hdr)
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay = %d %q", w.Code, w.Header().Get("Idempotency-Replayed"))
	}

	if w := send(r, http.MethodGet, "/api/v1/contracts", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list = %d, want 401", w.Code)
	}
}

func TestRegisterRoutes_GzipListing(t *testing.T) {
	r := newRouter(t, testConfig())
	w := send(r, http.MethodGet, "/api/v1/contracts", "", map[string]string{
		middleware.HeaderUserID: "u1",
		"Accept-Encoding":       "gzip",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", w.Header().Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	plain, err := io.ReadAll(zr)
	if err != nil || !bytes.Contains(plain, []byte(`"contracts":[]`)) {
		t.Fatalf("unexpected body %q (%v)", plain, err)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := send(r, http.MethodPost, "/echo", "0123456789AB", nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix_and_joinPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := send(r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}

	if got := joinPath("/", streamPath); got != "/contracts/stream" {
		t.Fatalf("joinPath root = %q", got)
	}
	if got := joinPath("/api/v1", streamPath); got != "/api/v1/contracts/stream" {
		t.Fatalf("joinPath prefix = %q", got)
	}
}
