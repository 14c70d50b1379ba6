// Check-in and violation HTTP handlers.
//
//   - POST /contracts/{id}/checkins    (record today's status, Idempotency-Key aware)
//   - GET  /contracts/{id}/logs        (paginated, newest first, ETag support)
//   - POST /contracts/{id}/violations  (report a violation and apply a decision)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/http/middleware"
	"github.com/tbourn/pactkeeper/internal/services"
)

// CheckInRequest is the JSON payload for a check-in.
type CheckInRequest struct {
	Status string `json:"status" example:"kept" enums:"kept,broken,exception"`
	Notes  string `json:"notes"  example:"Skipped dessert at the party"`
}

// CheckInResponse is the created (or replayed) log with the updated contract.
type CheckInResponse struct {
	Log      *domain.DailyLog `json:"log"`
	Contract *domain.Contract `json:"contract"`
}

// ListLogsResponse wraps a page of logs.
type ListLogsResponse struct {
	Logs       []domain.DailyLog `json:"logs"`
	Pagination Pagination        `json:"pagination"`
}

// ReportViolationRequest is the JSON payload for a violation report.
type ReportViolationRequest struct {
	Reason   string `json:"reason"   example:"Ate cake at the office"`
	Story    string `json:"story"    example:"It was my colleague's farewell"`
	Decision string `json:"decision" example:"recommit" enums:"recommit,pause,retire"`
}

// ViolationResponse holds every row written by a violation report.
type ViolationResponse struct {
	Contract  *domain.Contract  `json:"contract"`
	Violation *domain.Violation `json:"violation"`
	Log       *domain.DailyLog  `json:"log"`
}

// CheckIn godoc
// @ID          checkIn
// @Summary     Check in for today
// @Description Records today's status for an active contract. "kept" extends the streak; "broken" and "exception" leave it unchanged (only a reported violation resets it). A second check-in for the same day is rejected unless it repeats an earlier Idempotency-Key, in which case the original log is returned with Idempotency-Replayed: true.
// @Tags        Check-ins
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string                   true   "Caller id"    example(user123)
// @Param       Idempotency-Key  header  string                   false  "Retry key"    example(checkin-2025-06-01)
// @Param       id               path    string                   true   "Contract ID"  format(uuid)
// @Param       body             body    handlers.CheckInRequest  true   "Check-in"
// @Success     201  {object}  handlers.CheckInResponse
// @Success     200  {object}  handlers.CheckInResponse  "Replayed"
// @Header      200  {string}  Idempotency-Replayed  "true"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid status"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Contract not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already checked in, or not active"
// @Router      /contracts/{id}/checkins [post]
func (h *Handlers) CheckIn(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	var req CheckInRequest
	if !bind(c, &req) {
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)
	res, err := h.checkins.CheckIn(c.Request.Context(), uid, c.Param("id"), services.CheckInInput{
		Status:         domain.LogStatus(req.Status),
		Notes:          req.Notes,
		IdempotencyKey: key,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
		status = http.StatusOK
	}
	ok(c, status, CheckInResponse{Log: res.Log, Contract: res.Contract})
}

// ListLogs godoc
// @ID          listLogs
// @Summary     List a contract's logs
// @Tags        Check-ins
// @Produce     json
// @Param       X-User-ID  header  string  true   "Caller id"       example(user123)
// @Param       id         path    string  true   "Contract ID"     format(uuid)
// @Param       page       query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListLogsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Contract not found"
// @Router      /contracts/{id}/logs [get]
func (h *Handlers) ListLogs(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	page, pageSize := clampPagination(c)

	// Unknown or foreign contracts have no logs and fall through to the 404.
	if count, maxTS, err := h.checkins.LogStats(ctx, uid, id); err == nil && count > 0 {
		etag := fmt.Sprintf(`W/"logs:%s:%s:%d:%d:%d:%d"`, uid, id, page, pageSize, count, maxTS.UnixMilli())
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	logs, total, err := h.checkins.ListLogs(ctx, uid, id, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListLogsResponse{
		Logs:       logs,
		Pagination: newPagination(page, pageSize, total),
	})
}

// ReportViolation godoc
// @ID          reportViolation
// @Summary     Report a violation
// @Description Appends a violation, marks today broken and resets the streak, then applies the decision: recommit keeps the contract active, pause pauses it, retire archives it as breached.
// @Tags        Check-ins
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                           true  "Caller id"    example(user123)
// @Param       id         path    string                           true  "Contract ID"  format(uuid)
// @Param       body       body    handlers.ReportViolationRequest  true  "Violation"
// @Success     201  {object}  handlers.ViolationResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid decision or missing reason"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Contract not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Contract not active"
// @Router      /contracts/{id}/violations [post]
func (h *Handlers) ReportViolation(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	var req ReportViolationRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.violations.Report(c.Request.Context(), uid, c.Param("id"), services.ReportViolationInput{
		Reason:   req.Reason,
		Story:    req.Story,
		Decision: domain.Decision(req.Decision),
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, ViolationResponse{
		Contract:  res.Contract,
		Violation: res.Violation,
		Log:       res.Log,
	})
}
