package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := newEngine()
	r.Use(RequestID(), SecurityHeaders(SecurityOptions{}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/x", nil)
	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" || h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %v", h)
	}
	if h.Get("Permissions-Policy") != "" || h.Get("Cache-Control") != "" || h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("optional headers must be off by default: %v", h)
	}
	if h.Get("Access-Control-Expose-Headers") != requestIDHeader {
		t.Fatalf("request id not exposed: %q", h.Get("Access-Control-Expose-Headers"))
	}
}

func TestSecurityHeaders_ExposeAppends(t *testing.T) {
	r := newEngine()
	r.Use(RequestID(), func(c *gin.Context) {
		c.Header("Access-Control-Expose-Headers", "ETag")
		c.Next()
	}, SecurityHeaders(SecurityOptions{}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	if got := serve(r, http.MethodGet, "/x", nil).Header().Get("Access-Control-Expose-Headers"); got != "ETag, X-Request-ID" {
		t.Fatalf("got %q", got)
	}
}

func TestSecurityHeaders_PolicyNoStoreAndHSTS(t *testing.T) {
	r := newEngine()
	r.Use(SecurityHeaders(SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour, NoStore: true, EnablePolicy: true}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	plain := serve(r, http.MethodGet, "/x", nil).Header()
	if plain.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must not be sent over plain HTTP")
	}
	if plain.Get("Cache-Control") != "no-store" || plain.Get("Permissions-Policy") == "" {
		t.Fatalf("no-store/policy missing: %v", plain)
	}

	proxied := serve(r, http.MethodGet, "/x", map[string]string{"X-Forwarded-Proto": "HTTPS"}).Header()
	if got := proxied.Get("Strict-Transport-Security"); got != "max-age=3600; includeSubDomains; preload" {
		t.Fatalf("HSTS via proxy: %q", got)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.TLS = &tls.ConnectionState{}
	r.ServeHTTP(w, req)
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Fatalf("HSTS over TLS missing")
	}
}

func TestSecurityHeaders_DefaultMaxAge(t *testing.T) {
	r := newEngine()
	r.Use(SecurityHeaders(SecurityOptions{EnableHSTS: true}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	got := serve(r, http.MethodGet, "/x", map[string]string{"X-Forwarded-Proto": "https"}).Header().Get("Strict-Transport-Security")
	if got != "max-age=15552000; includeSubDomains; preload" {
		t.Fatalf("got %q", got)
	}
}
