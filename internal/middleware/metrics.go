package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mmynk/checkin/internal/metrics"
)

// Metrics records request count and latency per chi route pattern.
// Pattern labels keep cardinality bounded for paths like /visitors/{id}.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			route := routePattern(r)
			m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.code())).Inc()
			m.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
