package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesRegisteredCollectors(t *testing.T) {
	m := New()
	m.CacheHits.WithLabelValues("prices").Inc()
	m.WSSessions.Set(3)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "gateway_cache_hits_total") {
		t.Error("expected cache hits metric in output")
	}
	if !strings.Contains(body, "gateway_ws_sessions") {
		t.Error("expected ws sessions metric in output")
	}
}
