// Package httpapi wires the chi router: one read-only handler per
// cache cell served through the facade, a handful of write-proxy
// handlers that build but never sign transactions, the WebSocket
// upgrade endpoint, and the admin/health/metrics surface.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/nolus-protocol/agg-gateway/internal/adapters"
	"github.com/nolus-protocol/agg-gateway/internal/facade"
	"github.com/nolus-protocol/agg-gateway/internal/gatedconfig"
	gwmetrics "github.com/nolus-protocol/agg-gateway/internal/metrics"
	"github.com/nolus-protocol/agg-gateway/internal/push"
	"github.com/nolus-protocol/agg-gateway/internal/ratelimit"
)

// Deps holds everything the router needs to build handlers. All
// fields are required.
type Deps struct {
	Facade      *facade.Facade
	Chain       *adapters.ChainClient
	Swap        *adapters.SwapClient
	Push        *push.Server
	Config      *gatedconfig.Store
	Limiter     *ratelimit.Limiter
	WriteLimiter *ratelimit.Limiter
	Metrics     *gwmetrics.Metrics
	AdminAPIKey string
}

// NewRouter builds the complete chi router.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsAny)
	r.Use(d.Limiter.Middleware)
	r.Use(instrument(d.Metrics))

	h := &handlers{deps: d}

	r.Get("/healthz", h.healthz)
	r.Get("/api/cache-status", h.cacheStatus)
	r.Handle("/metrics", d.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Group(func(g chi.Router) {
			g.Use(cacheControl(ccShort))
			g.Get("/prices", h.prices)
		})

		api.Group(func(g chi.Router) {
			g.Use(cacheControl(ccLong))
			g.Get("/config", h.appConfig)
			g.Get("/currencies", h.currencies)
			g.Get("/assets", h.assets)
			g.Get("/protocols", h.protocols)
			g.Get("/networks", h.networks)
			g.Get("/pools", h.pools)
			g.Get("/validators", h.validators)
			g.Get("/stats-overview", h.statsOverview)
			g.Get("/loans-stats", h.loansStats)
			g.Get("/swap-config", h.swapConfig)
			g.Get("/lease-configs", h.leaseConfigs)
			g.Get("/gas-fee-config", h.gasFeeConfig)
			g.Get("/governance/proposals", h.govProposals)
			g.Get("/zero-interest", h.zeroInterest)
		})

		api.Group(func(g chi.Router) {
			g.Use(cacheControl(ccNoStore))
			g.Get("/balances", h.balances)

			g.Group(func(w chi.Router) {
				w.Use(d.WriteLimiter.Middleware)
				w.Post("/swap/quote", h.swapQuote)
				w.Post("/swap/messages", h.swapMessages)
				w.Get("/swap/status", h.swapStatus)
				w.Post("/leases/quote", h.leaseQuote)
			})
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(cacheControl(ccNoStore))
			admin.Use(adminAuth(d.AdminAPIKey))
			admin.Get("/cache-stats", h.cacheStatus)
			admin.Put("/gated-config/{file}", h.putGatedConfig)
		})
	})

	r.Get("/ws", h.wsUpgrade)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	log := logrus.WithField("component", "httpapi")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Info("request")
	})
}

func corsAny(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
