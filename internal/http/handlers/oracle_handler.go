// Oracle-backed HTTP handlers.
//
// None of these fail when the oracle is unreachable: the response then
// carries silent=true and a fixed message instead of an answer.
//
//   - POST /contracts/{id}/audit        (find the contract's weakest point)
//   - POST /contracts/{id}/judge        (is this situation allowed?)
//   - POST /contracts/{id}/temptations  (coach through a temptation)
//   - POST /temptations/{id}/outcome    (resisted or relapsed)
//   - POST /oracle/draft                (draft a contract from a goal)
//   - POST /oracle/violation            (guilty or acquitted?)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pactkeeper/internal/domain"
	"github.com/tbourn/pactkeeper/internal/services"
)

// JudgeRequest asks whether a situation breaks the contract.
type JudgeRequest struct {
	Situation string `json:"situation" example:"A friend offers me a slice of birthday cake"`
}

// DraftRequest asks for a contract proposal.
type DraftRequest struct {
	Goal string `json:"goal" example:"I want to stop doomscrolling at night"`
}

// VerdictRequest asks for a ruling on a violation story.
type VerdictRequest struct {
	ContractID string `json:"contract_id,omitempty" example:"5b0e7c2e-8a4a-4a3e-9d1f-2f7f3c1e9a10"`
	Reason     string `json:"reason"                example:"Ate cake"`
	Story      string `json:"story"                 example:"It was my daughter's birthday"`
	Decision   string `json:"decision"              example:"recommit"`
}

// CoachRequest describes a temptation in progress.
type CoachRequest struct {
	Context string `json:"context" example:"There is chocolate on my desk"`
}

// ResolveTemptationRequest records how a temptation ended.
type ResolveTemptationRequest struct {
	Outcome string `json:"outcome" example:"resisted" enums:"resisted,relapsed"`
}

// Audit godoc
// @ID          auditContract
// @Summary     Audit a contract
// @Tags        Oracle
// @Produce     json
// @Param       X-User-ID  header  string  true  "Caller id"    example(user123)
// @Param       id         path    string  true  "Contract ID"  format(uuid)
// @Success     200  {object}  services.AuditResult
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Contract not found"
// @Router      /contracts/{id}/audit [post]
func (h *Handlers) Audit(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	res, err := h.advisor.Audit(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// Judge godoc
// @ID          judgeSituation
// @Summary     Judge a situation
// @Description Rules ALLOWED or FORBIDDEN for the situation under the contract's behavior and exceptions.
// @Tags        Oracle
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                 true  "Caller id"    example(user123)
// @Param       id         path    string                 true  "Contract ID"  format(uuid)
// @Param       body       body    handlers.JudgeRequest  true  "Situation"
// @Success     200  {object}  services.JudgeResult
// @Failure     400  {object}  handlers.ErrorResponse  "Empty situation"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Contract not found"
// @Router      /contracts/{id}/judge [post]
func (h *Handlers) Judge(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	var req JudgeRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.advisor.Judge(c.Request.Context(), uid, c.Param("id"), req.Situation)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// Draft godoc
// @ID          draftContract
// @Summary     Draft a contract from a goal
// @Description Proposes title, pillar, type, behavior, penalty and exceptions. Nothing is stored.
// @Tags        Oracle
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                 true  "Caller id"  example(user123)
// @Param       body       body    handlers.DraftRequest  true  "Goal"
// @Success     200  {object}  services.DraftResult
// @Failure     400  {object}  handlers.ErrorResponse  "Empty goal"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Router      /oracle/draft [post]
func (h *Handlers) Draft(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	var req DraftRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.advisor.Draft(c.Request.Context(), uid, req.Goal)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// JudgeViolation godoc
// @ID          judgeViolation
// @Summary     Rule on a violation story
// @Description Rules GUILTY or ACQUITTED. Nothing is stored; report the violation separately.
// @Tags        Oracle
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                   true  "Caller id"  example(user123)
// @Param       body       body    handlers.VerdictRequest  true  "Violation story"
// @Success     200  {object}  services.VerdictResult
// @Failure     400  {object}  handlers.ErrorResponse  "Missing reason"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Contract not found"
// @Router      /oracle/violation [post]
func (h *Handlers) JudgeViolation(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	var req VerdictRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.advisor.JudgeViolation(c.Request.Context(), uid, services.VerdictInput{
		ContractID: req.ContractID,
		Reason:     req.Reason,
		Story:      req.Story,
		Decision:   req.Decision,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// CoachTemptation godoc
// @ID          coachTemptation
// @Summary     Coach through a temptation
// @Description Returns coaching text and stores a pending temptation record to resolve later.
// @Tags        Temptations
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                 true  "Caller id"    example(user123)
// @Param       id         path    string                 true  "Contract ID"  format(uuid)
// @Param       body       body    handlers.CoachRequest  true  "Temptation"
// @Success     201  {object}  services.CoachResult
// @Failure     400  {object}  handlers.ErrorResponse  "Empty context"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Contract not found"
// @Router      /contracts/{id}/temptations [post]
func (h *Handlers) CoachTemptation(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	var req CoachRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.temptations.Coach(c.Request.Context(), uid, c.Param("id"), req.Context)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

// ResolveTemptation godoc
// @ID          resolveTemptation
// @Summary     Resolve a temptation
// @Description Moves a pending temptation to resisted or relapsed. A temptation resolves once.
// @Tags        Temptations
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                             true  "Caller id"      example(user123)
// @Param       id         path    string                             true  "Temptation ID"  format(uuid)
// @Param       body       body    handlers.ResolveTemptationRequest  true  "Outcome"
// @Success     200  {object}  domain.Temptation
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown outcome"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     404  {object}  handlers.ErrorResponse  "Temptation not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already resolved"
// @Router      /temptations/{id}/outcome [post]
func (h *Handlers) ResolveTemptation(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	var req ResolveTemptationRequest
	if !bind(c, &req) {
		return
	}
	t, err := h.temptations.Resolve(c.Request.Context(), uid, c.Param("id"), domain.TemptationOutcome(req.Outcome))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}
