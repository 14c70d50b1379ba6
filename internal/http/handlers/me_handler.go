package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pactkeeper/internal/domain"
)

// PushTokenRequest sets or clears the caller's push token.
type PushTokenRequest struct {
	Token *string `json:"token" example:"123456789"`
}

// BriefingsResponse lists one day's briefings.
type BriefingsResponse struct {
	Date      string            `json:"date,omitempty" example:"2025-06-01"`
	Briefings []domain.Briefing `json:"briefings"`
}

// SetPushToken godoc
// @ID          setPushToken
// @Summary     Set the push token
// @Description Stores the chat id briefings are pushed to. A null or empty token disables pushes.
// @Tags        Me
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                     true  "Caller id"  example(user123)
// @Param       body       body    handlers.PushTokenRequest  true  "Token"
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Token too long"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Router      /me/push-token [put]
func (h *Handlers) SetPushToken(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	var req PushTokenRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.briefings.SetPushToken(c.Request.Context(), uid, req.Token)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// ListBriefings godoc
// @ID          listBriefings
// @Summary     Read briefings
// @Description Returns the morning and evening briefings generated for date (today when omitted).
// @Tags        Me
// @Produce     json
// @Param       X-User-ID  header  string  true   "Caller id"   example(user123)
// @Param       date       query   string  false  "YYYY-MM-DD"  example(2025-06-01)
// @Success     200  {object}  handlers.BriefingsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad date"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Router      /me/briefings [get]
func (h *Handlers) ListBriefings(c *gin.Context) {
	uid, okUser := caller(c)
	if !okUser {
		return
	}
	date := c.Query("date")
	items, err := h.briefings.Latest(c.Request.Context(), uid, date)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, BriefingsResponse{Date: date, Briefings: items})
}
