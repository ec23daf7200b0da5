package middleware

import (
	"net/http"
	"strconv"
	"time"

	"AirBox.influxDB/internal/metrics"
	"github.com/gorilla/mux"
)

// Metrics records request counts and latency per route template.
func Metrics(c *metrics.Collectors) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			c.ObserveRequest(r.Method, routePath(r), strconv.Itoa(rec.status), time.Since(start))
		})
	}
}

func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
