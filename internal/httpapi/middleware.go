package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/nolus-protocol/agg-gateway/internal/apperr"
	"github.com/nolus-protocol/agg-gateway/internal/metrics"
)

type cacheClass string

const (
	ccShort   cacheClass = "public, max-age=10, stale-while-revalidate=5"
	ccLong    cacheClass = "public, max-age=3600, stale-while-revalidate=1800"
	ccNoStore cacheClass = "no-store"
)

// cacheControl sets the Cache-Control header for every response in the
// group it wraps, per the path-class table.
func cacheControl(class cacheClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", string(class))
			next.ServeHTTP(w, r)
		})
	}
}

// adminAuth requires a constant-time-compared bearer token matching
// key. An empty key rejects every request — there is no "admin
// disabled" mode.
func adminAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "
			auth := r.Header.Get("Authorization")
			if key == "" || len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
				apperr.WriteJSON(w, apperr.Unauthorized())
				return
			}
			given := auth[len(prefix):]
			if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
				apperr.WriteJSON(w, apperr.Unauthorized())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument records per-route request counts and durations.
func instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			m.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status/100*100)).Inc()
		})
	}
}
