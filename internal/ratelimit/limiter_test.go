package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	l := New(1, 3)
	for i := 0; i < 3; i++ {
		if !l.Allow("client-a") {
			t.Fatalf("request %d should be allowed within burst", i)
		}
	}
	if l.Allow("client-a") {
		t.Fatal("4th request should exceed burst")
	}
}

func TestAllowTracksClientsIndependently(t *testing.T) {
	l := New(1, 1)
	if !l.Allow("client-a") {
		t.Fatal("client-a first request should be allowed")
	}
	if !l.Allow("client-b") {
		t.Fatal("client-b should have its own bucket")
	}
}

func TestEvictStaleRemovesIdleClients(t *testing.T) {
	l := New(1, 1)
	l.Allow("client-a")
	l.clients["client-a"].lastSeen = time.Now().Add(-2 * evictAfter)

	l.EvictStale()

	if l.Count() != 0 {
		t.Fatalf("expected stale client evicted, count = %d", l.Count())
	}
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	l := New(1, 1)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req)
	if rec1.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec1.Code)
	}

	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be rate limited, got %d", rec2.Code)
	}
}
