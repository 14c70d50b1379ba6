package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_LabelsRouteAndCaller(t *testing.T) {
	r := newEngine()
	r.Use(Identity(), Metrics())
	r.GET("/contracts/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	user := apiRequests.WithLabelValues("GET", "/contracts/:id", "200", "user")
	anon := apiRequests.WithLabelValues("GET", "/contracts/:id", "200", "anonymous")
	unmatched := apiRequests.WithLabelValues("GET", "unmatched", "404", "user")
	baseUser, baseAnon, baseUnmatched := testutil.ToFloat64(user), testutil.ToFloat64(anon), testutil.ToFloat64(unmatched)

	serve(r, http.MethodGet, "/contracts/c1", map[string]string{HeaderUserID: "u1"})
	serve(r, http.MethodGet, "/contracts/c2", map[string]string{HeaderUserID: "u2"})
	serve(r, http.MethodGet, "/contracts/c3", nil)
	serve(r, http.MethodGet, "/nope/deep/path", map[string]string{HeaderUserID: "u1"})

	if got := testutil.ToFloat64(user); got != baseUser+2 {
		t.Fatalf("user series = %v, want %v", got, baseUser+2)
	}
	if got := testutil.ToFloat64(anon); got != baseAnon+1 {
		t.Fatalf("anonymous series = %v, want %v", got, baseAnon+1)
	}
	if got := testutil.ToFloat64(unmatched); got != baseUnmatched+1 {
		t.Fatalf("unmatched requests must share one series: %v", got)
	}
	if v := testutil.ToFloat64(apiInflight); v != 0 {
		t.Fatalf("inflight = %v, want 0", v)
	}
}

func TestMetrics_CountsReplays(t *testing.T) {
	r := newEngine()
	r.Use(Identity(), Metrics(), IdempotencyValidator(IdempotencyOptions{},
		func(_ context.Context, _, scope, key string, _ time.Time) (bool, error) {
			return scope == "c1" && key == "seen", nil
		}))
	r.POST("/contracts/:id/checkins", func(c *gin.Context) { c.Status(http.StatusCreated) })

	replays := apiReplays.WithLabelValues("/contracts/:id/checkins")
	base := testutil.ToFloat64(replays)

	hdr := func(key string) map[string]string {
		return map[string]string{HeaderUserID: "u1", HeaderIdempotencyKey: key}
	}
	serve(r, http.MethodPost, "/contracts/c1/checkins", hdr("seen"))
	serve(r, http.MethodPost, "/contracts/c1/checkins", hdr("fresh"))
	serve(r, http.MethodPost, "/contracts/c2/checkins", hdr("seen"))

	if got := testutil.ToFloat64(replays); got != base+1 {
		t.Fatalf("replays = %v, want %v", got, base+1)
	}
}

func TestMetrics_StreamsSkipLatency(t *testing.T) {
	r := newEngine()
	r.Use(Metrics())
	r.GET("/contracts/stream", func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.String(http.StatusOK, "event: snapshot\ndata: {}\n\n")
	})

	counter := apiRequests.WithLabelValues("GET", "/contracts/stream", "200", "anonymous")
	base := testutil.ToFloat64(counter)
	before := testutil.CollectAndCount(apiLatency, "http_request_duration_seconds")

	serve(r, http.MethodGet, "/contracts/stream", nil)

	if got := testutil.ToFloat64(counter); got != base+1 {
		t.Fatalf("stream must still be counted")
	}
	if after := testutil.CollectAndCount(apiLatency, "http_request_duration_seconds"); after != before {
		t.Fatalf("stream latency must not be observed: %d -> %d series", before, after)
	}
}
