package oracle

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// oracleCalls counts model calls by method and result (ok, unparseable, error).
var oracleCalls = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "oracle_calls_total",
		Help: "Total number of oracle calls by method and result.",
	},
	[]string{"method", "result"},
)

func init() {
	prometheus.MustRegister(oracleCalls)
}

func observeCall(method string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrUnparseable):
		result = "unparseable"
	default:
		result = "error"
	}
	oracleCalls.WithLabelValues(method, result).Inc()
}
