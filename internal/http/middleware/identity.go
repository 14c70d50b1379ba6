// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller. Authentication proper is out of scope: the
// caller is whoever the X-User-ID header names, unless an upstream auth layer
// already stored a user id under UserIDKey.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderUserID carries the caller id.
	HeaderUserID = "X-User-ID"
	// UserIDKey is the Gin context key holding the resolved caller id.
	UserIDKey = "userID"

	maxUserIDLen = 128
)

// Identity copies X-User-ID into the Gin context. An id that is too long or
// contains control characters is rejected with 400. A missing id is not an
// error here; handlers that need a caller answer 401 themselves.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) != "" {
			c.Next()
			return
		}
		id := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if id == "" {
			c.Next()
			return
		}
		if len(id) > maxUserIDLen || strings.ContainsFunc(id, func(r rune) bool { return r < 0x20 || r == 0x7f }) {
			abort(c, http.StatusBadRequest, "bad_request", "invalid "+HeaderUserID)
			return
		}
		c.Set(UserIDKey, id)
		c.Next()
	}
}

// UserID returns the caller id stored by Identity (or an upstream auth
// middleware), or "" when the request is anonymous.
func UserID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if v, ok := c.Get(UserIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// abort writes the API error envelope and stops the chain.
func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
