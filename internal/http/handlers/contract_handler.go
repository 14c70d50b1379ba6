// Contract HTTP handlers.
//
// This file exposes REST endpoints for contract resources:
//   - POST   /contracts                (create)
//   - GET    /contracts                (list, paginated, ETag support)
//   - GET    /contracts/{id}           (get)
//   - DELETE /contracts/{id}           (void)
//   - POST   /contracts/{id}/complete  (claim victory)
//   - GET    /contracts/stream         (server-sent snapshots)
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/services"
)

//
// DTOs
//

// CreateContractRequest is the JSON payload for a new contract.
type CreateContractRequest struct {
	Title         string   `json:"title"          example:"No sugar after dinner"`
	Behavior      string   `json:"behavior"       example:"No desserts or sweet snacks after 7pm"`
	Type          string   `json:"type"           example:"AVOID" enums:"DO,AVOID"`
	Pillar        string   `json:"pillar"         example:"health"`
	Penalty       string   `json:"penalty"        example:"Donate 10 EUR"`
	Exceptions    []string `json:"exceptions"     example:"birthdays"`
	StartDate     *string  `json:"start_date"     example:"2025-06-01"`
	EndDate       *string  `json:"end_date"       example:"2025-08-31"`
	TimesPerWeek  *int     `json:"times_per_week" example:"3"`
	AutoKeep      bool     `json:"auto_keep"`
	WitnessLinked bool     `json:"witness_linked"`
}

// ListContractsResponse wraps a page of contracts and pagination information.
type ListContractsResponse struct {
	Contracts  []domain.Contract `json:"contracts"`
	Pagination Pagination        `json:"pagination"`
}

//
// Handlers
//

// CreateContract godoc
// @ID          createContract
// @Summary     Create a contract
// @Description Validates and stores a new active contract with streak 0. At most MAX_ACTIVE_CONTRACTS may be active at once.
// @Tags        Contracts
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                          true  "Caller id"  example(user123)
// @Param       body       body    handlers.CreateContractRequest  true  "Contract"
// @Success     201  {object}  domain.Contract
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     409  {object}  handlers.ErrorResponse  "Active contract limit reached"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contracts [post]
func (h *Handlers) CreateContract(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	var req CreateContractRequest
	if !bind(c, &req) {
		return
	}
	ct, err := h.contracts.Create(c.Request.Context(), uid, services.CreateContractInput{
		Title:         req.Title,
		Behavior:      req.Behavior,
		Type:          req.Type,
		Pillar:        req.Pillar,
		Penalty:       req.Penalty,
		Exceptions:    req.Exceptions,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		TimesPerWeek:  req.TimesPerWeek,
		AutoKeep:      req.AutoKeep,
		WitnessLinked: req.WitnessLinked,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, ct)
}

// ListContracts godoc
// @ID          listContracts
// @Summary     List contracts (paginated)
// @Description Returns a page of the caller's contracts, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Contracts
// @Produce     json
// @Param       X-User-ID      header  string  true   "Caller id"                   example(user123)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       status         query   string  false  "Filter by status"            Enums(active, paused, archived)
// @Param       page           query   int     false  "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"              minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListContractsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown status"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contracts [get]
func (h *Handlers) ListContracts(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()
	status := domain.ContractStatus(strings.TrimSpace(c.Query("status")))
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.contracts.Stats(ctx, uid, status); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixMilli()
		}
		etag := fmt.Sprintf(`W/"contracts:%s:%s:%d:%d:%d:%d"`, uid, status, page, pageSize, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.contracts.ListPage(ctx, uid, status, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListContractsResponse{
		Contracts:  items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetContract godoc
// @ID          getContract
// @Summary     Get a contract
// @Tags        Contracts
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"    example(user123)
// @Param       id         path    string  true  "Contract ID"  format(uuid)
// @Success     200  {object}  domain.Contract
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Contract not found"
// @Router      /contracts/{id} [get]
func (h *Handlers) GetContract(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	ct, err := h.contracts.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ct)
}

// DeleteContract godoc
// @ID          deleteContract
// @Summary     Void a contract
// @Description Hard-deletes the contract. Its logs, violations, journal entries and temptations are kept.
// @Tags        Contracts
// @Param       X-User-ID  header  string  true  "Caller id"    example(user123)
// @Param       id         path    string  true  "Contract ID"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Contract not found"
// @Router      /contracts/{id} [delete]
func (h *Handlers) DeleteContract(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	if err := h.contracts.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// CompleteContract godoc
// @ID          completeContract
// @Summary     Claim victory
// @Description Archives an active contract whose end date has passed with outcome "completed".
// @Tags        Contracts
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"    example(user123)
// @Param       id         path    string  true  "Contract ID"  format(uuid)
// @Success     200  {object}  domain.Contract
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Contract not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Not active, or end date not passed"
// @Router      /contracts/{id}/complete [post]
func (h *Handlers) CompleteContract(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	ct, err := h.contracts.Complete(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ct)
}

// StreamContracts godoc
// @ID          streamContracts
// @Summary     Live contract snapshots
// @Description Server-sent events. Each "snapshot" event carries the caller's full contract list and replaces the previous one; the first is the current state. "ping" events keep the connection alive.
// @Tags        Contracts
// @Produce     text/event-stream
// @Param       X-User-ID  header  string  true  "Caller id"  example(user123)
// @Success     200  {object}  live.Snapshot
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Router      /contracts/stream [get]
func (h *Handlers) StreamContracts(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()
	sub, err := h.stream.Subscribe(ctx, uid)
	if err != nil {
		failErr(c, err)
		return
	}
	defer sub.Cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	// The server's WriteTimeout would otherwise end the stream.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	ping := time.NewTicker(h.heartbeat)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, open := <-sub.C:
			if !open {
				return
			}
			c.SSEvent("snapshot", snap)
		case t := <-ping.C:
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
		}
		c.Writer.Flush()
	}
}
