package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nolus-protocol/agg-gateway/internal/adapters"
	"github.com/nolus-protocol/agg-gateway/internal/cache"
	"github.com/nolus-protocol/agg-gateway/internal/domain"
	"github.com/nolus-protocol/agg-gateway/internal/facade"
	"github.com/nolus-protocol/agg-gateway/internal/gatedconfig"
	gwmetrics "github.com/nolus-protocol/agg-gateway/internal/metrics"
	"github.com/nolus-protocol/agg-gateway/internal/push"
	"github.com/nolus-protocol/agg-gateway/internal/ratelimit"
)

func testDeps(t *testing.T) (Deps, *cache.Bundle) {
	t.Helper()
	bundle := cache.NewBundle()
	return Deps{
		Facade:       facade.New(bundle),
		Chain:        adapters.NewChainClient("http://chain.invalid", http.DefaultClient),
		Swap:         adapters.NewSwapClient("http://swap.invalid", "", http.DefaultClient),
		Push:         push.NewServer(10),
		Config:       gatedconfig.New(t.TempDir()),
		Limiter:      ratelimit.New(1000, 1000),
		WriteLimiter: ratelimit.New(1000, 1000),
		Metrics:      gwmetrics.New(),
		AdminAPIKey:  "test-admin-key",
	}, bundle
}

func TestPricesReturns503WhenCold(t *testing.T) {
	deps, _ := testDeps(t)
	r := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/prices", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPricesReturns200WhenWarm(t *testing.T) {
	deps, bundle := testDeps(t)
	bundle.Prices.Store(domain.PricesResponse{
		Prices:    map[string]domain.PriceInfo{"ATOM@OSMOSIS": {Ticker: "ATOM", Protocol: "OSMOSIS", PriceUSD: "8.50"}},
		UpdatedAt: "2026-01-01T00:00:00Z",
	})
	r := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/prices", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); cc != string(ccShort) {
		t.Errorf("expected short cache-control, got %q", cc)
	}
}

func TestBalancesRejectsInvalidBech32WithoutUpstreamCall(t *testing.T) {
	deps, _ := testDeps(t)
	r := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/balances?address=nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminEndpointRequiresBearerToken(t *testing.T) {
	deps, _ := testDeps(t)
	r := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/cache-stats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/admin/cache-stats", nil)
	req2.Header.Set("Authorization", "Bearer test-admin-key")
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 with correct token, got %d", rec2.Code)
	}
}

func TestPutGatedConfigRejectsUnknownFile(t *testing.T) {
	deps, _ := testDeps(t)
	r := NewRouter(deps)

	req := httptest.NewRequest(http.MethodPut, "/api/admin/gated-config/not-a-real-file.json", nil)
	req.Header.Set("Authorization", "Bearer test-admin-key")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthzAlwaysOK(t *testing.T) {
	deps, _ := testDeps(t)
	r := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
