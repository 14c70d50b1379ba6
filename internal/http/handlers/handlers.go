// Package handlers exposes the contract API over HTTP.
//
// Handlers are transport-thin: they bind and shape input, call the service
// interfaces below and translate results (or service errors, see errors.go)
// into HTTP responses. Business rules live in package services.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/http/middleware"
	"github.com/tbourn/pactkeeper/internal/live"
	"github.com/tbourn/pactkeeper/internal/search"
	"github.com/tbourn/pactkeeper/internal/services"
	"github.com/tbourn/pactkeeper/internal/utils"
)

//
// Service contracts (context-aware)
//

// ContractService covers contract CRUD and victory claims.
type ContractService interface {
	Create(ctx context.Context, userID string, in services.CreateContractInput) (*domain.Contract, error)
	Get(ctx context.Context, userID, id string) (*domain.Contract, error)
	ListPage(ctx context.Context, userID string, status domain.ContractStatus, page, pageSize int) ([]domain.Contract, int64, error)
	Stats(ctx context.Context, userID string, status domain.ContractStatus) (int64, *time.Time, error)
	Complete(ctx context.Context, userID, id string) (*domain.Contract, error)
	Delete(ctx context.Context, userID, id string) error
}

// CheckInService records and lists daily logs.
type CheckInService interface {
	CheckIn(ctx context.Context, userID, contractID string, in services.CheckInInput) (*services.CheckInResult, error)
	ListLogs(ctx context.Context, userID, contractID string, page, pageSize int) ([]domain.DailyLog, int64, error)
	LogStats(ctx context.Context, userID, contractID string) (int64, *time.Time, error)
}

// ViolationService records violations.
type ViolationService interface {
	Report(ctx context.Context, userID, contractID string, in services.ReportViolationInput) (*services.ViolationResult, error)
}

// AdvisorService asks the oracle for judgments, drafts and audits.
type AdvisorService interface {
	Judge(ctx context.Context, userID, contractID, situation string) (*services.JudgeResult, error)
	Draft(ctx context.Context, userID, goal string) (*services.DraftResult, error)
	Audit(ctx context.Context, userID, contractID string) (*services.AuditResult, error)
	JudgeViolation(ctx context.Context, userID string, in services.VerdictInput) (*services.VerdictResult, error)
}

// TemptationService coaches through temptations and records outcomes.
type TemptationService interface {
	Coach(ctx context.Context, userID, contractID, trigger string) (*services.CoachResult, error)
	Resolve(ctx context.Context, userID, id string, outcome domain.TemptationOutcome) (*domain.Temptation, error)
}

// JournalService manages journal entries.
type JournalService interface {
	AddEntry(ctx context.Context, userID, contractID, content string) (*domain.JournalEntry, error)
	List(ctx context.Context, userID, contractID string, limit int) ([]domain.JournalEntry, error)
	Search(ctx context.Context, userID, contractID, query string, k int) ([]search.Result, error)
}

// BriefingService reads briefings and stores push tokens.
type BriefingService interface {
	Latest(ctx context.Context, userID, date string) ([]domain.Briefing, error)
	SetPushToken(ctx context.Context, userID string, token *string) (*domain.User, error)
}

// Streamer opens live contract snapshot subscriptions.
type Streamer interface {
	Subscribe(ctx context.Context, userID string) (*live.Subscription, error)
}

//
// Handler wiring
//

// Deps lists the services the handlers call. Every field is required.
type Deps struct {
	Contracts   ContractService
	CheckIns    CheckInService
	Violations  ViolationService
	Advisor     AdvisorService
	Temptations TemptationService
	Journal     JournalService
	Briefings   BriefingService
	Stream      Streamer

	// Heartbeat is the SSE keep-alive period; 0 means 25s.
	Heartbeat time.Duration
}

// Handlers groups the API endpoints.
type Handlers struct {
	contracts   ContractService
	checkins    CheckInService
	violations  ViolationService
	advisor     AdvisorService
	temptations TemptationService
	journal     JournalService
	briefings   BriefingService
	stream      Streamer
	heartbeat   time.Duration
}

// New constructs Handlers from d.
func New(d Deps) *Handlers {
	hb := d.Heartbeat
	if hb <= 0 {
		hb = 25 * time.Second
	}
	return &Handlers{
		contracts:   d.Contracts,
		checkins:    d.CheckIns,
		violations:  d.Violations,
		advisor:     d.Advisor,
		temptations: d.Temptations,
		journal:     d.Journal,
		briefings:   d.Briefings,
		stream:      d.Stream,
		heartbeat:   hb,
	}
}

//
// Helpers
//

var (
	pageParam     = utils.IntRange{Def: 1, Min: 1}
	pageSizeParam = utils.IntRange{Def: 20, Min: 1, Max: 100}
	journalLimit  = utils.IntRange{Def: 50, Min: 1, Max: 200}
	searchK       = utils.IntRange{Def: 5, Min: 1, Max: 50}
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination reads page and page_size, defaulting to 1 and 20 and
// capping page_size at 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return pageParam.Parse(c.Query("page")), pageSizeParam.Parse(c.Query("page_size"))
}

// caller returns the caller id, answering 401 when the request is anonymous.
func caller(c *gin.Context) (string, bool) {
	uid := middleware.UserID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-User-ID header required")
		return "", false
	}
	return uid, true
}

// bind decodes the JSON body into dst, answering 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	return true
}
