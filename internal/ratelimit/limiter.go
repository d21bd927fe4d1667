// Package ratelimit applies a per-client token bucket to inbound HTTP
// requests using golang.org/x/time/rate, with inactivity eviction so
// the limiter map does not grow unbounded across the lifetime of a
// long-running gateway process.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nolus-protocol/agg-gateway/internal/apperr"
)

const evictAfter = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter holds one token bucket per client key (by default, remote
// IP), evicting buckets that have gone idle.
type Limiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*entry
}

// New builds a Limiter allowing rps requests per second per client,
// with burst as the bucket size.
func New(rps float64, burst int) *Limiter {
	return &Limiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*entry),
	}
}

// Allow reports whether the request identified by key may proceed,
// consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.clients[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// EvictStale removes any client bucket that has not been touched in
// evictAfter. Call it periodically from a background goroutine.
func (l *Limiter) EvictStale() {
	cutoff := time.Now().Add(-evictAfter)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.clients {
		if e.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// Run evicts stale buckets every interval until stop is closed.
func (l *Limiter) Run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.EvictStale()
		}
	}
}

// Count returns the number of tracked client buckets, for diagnostics.
func (l *Limiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Middleware rejects requests over the per-IP rate with a 429 written
// in the gateway's standard error envelope.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientKey(r)) {
			apperr.WriteJSON(w, apperr.RateLimited(1))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
