// Journal HTTP handlers.
//
//   - POST /contracts/{id}/journal         (add a manual entry; the reply arrives later)
//   - GET  /contracts/{id}/journal         (newest first)
//   - GET  /contracts/{id}/journal/search  (ranked by similarity to q)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/search"
)

// JournalEntryRequest is the JSON payload for a manual entry.
type JournalEntryRequest struct {
	Content string `json:"content" example:"Day 3 and the cravings are easing"`
}

// ListJournalResponse wraps journal entries.
type ListJournalResponse struct {
	Entries []domain.JournalEntry `json:"entries"`
}

// SearchJournalResponse wraps ranked search hits.
type SearchJournalResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

// AddJournalEntry godoc
// @ID          addJournalEntry
// @Summary     Add a journal entry
// @Description Stores a manual entry. The oracle's reply is generated in the background and appears on later reads.
// @Tags        Journal
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                        true  "Caller id"    example(user123)
// @Param       id         path    string                        true  "Contract ID"  format(uuid)
// @Param       body       body    handlers.JournalEntryRequest  true  "Entry"
// @Success     201  {object}  domain.JournalEntry
// @Failure     400  {object}  handlers.ErrorResponse  "Empty content"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Contract not found"
// @Router      /contracts/{id}/journal [post]
func (h *Handlers) AddJournalEntry(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	var req JournalEntryRequest
	if !bind(c, &req) {
		return
	}
	e, err := h.journal.AddEntry(c.Request.Context(), uid, c.Param("id"), req.Content)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, e)
}

// ListJournal godoc
// @ID          listJournal
// @Summary     List journal entries
// @Tags        Journal
// @Produce     json
// @Param       X-User-ID  header  string  true   "Caller id"    example(user123)
// @Param       id         path    string  true   "Contract ID"  format(uuid)
// @Param       limit      query   int     false  "Max entries"  minimum(1) maximum(200) default(50)
// @Success     200  {object}  handlers.ListJournalResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Router      /contracts/{id}/journal [get]
func (h *Handlers) ListJournal(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	limit := journalLimit.Parse(c.Query("limit"))
	items, err := h.journal.List(c.Request.Context(), uid, c.Param("id"), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListJournalResponse{Entries: items})
}

// SearchJournal godoc
// @ID          searchJournal
// @Summary     Search journal entries
// @Tags        Journal
// @Produce     json
// @Param       X-User-ID  header  string  true   "Caller id"    example(user123)
// @Param       id         path    string  true   "Contract ID"  format(uuid)
// @Param       q          query   string  true   "Query"        example(cravings)
// @Param       k          query   int     false  "Max results"  minimum(1) maximum(50) default(5)
// @Success     200  {object}  handlers.SearchJournalResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Empty query"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Router      /contracts/{id}/journal/search [get]
func (h *Handlers) SearchJournal(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	q := c.Query("q")
	k := searchK.Parse(c.Query("k"))
	res, err := h.journal.Search(c.Request.Context(), uid, c.Param("id"), q, k)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SearchJournalResponse{Query: q, Results: res})
}
