// Package metrics registers the gateway's Prometheus collectors: one
// registry, gauges and counters per subsystem, and an http.Handler
// for /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the gateway exposes.
type Metrics struct {
	registry *prometheus.Registry

	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	CacheInFlight  *prometheus.GaugeVec
	CacheAgeSecs   *prometheus.GaugeVec
	CachePopulated *prometheus.GaugeVec

	RefreshDuration *prometheus.HistogramVec
	RefreshFailures *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	WSSessions      prometheus.Gauge
	WSSlowClients   prometheus.Counter
	ChainEventState prometheus.Gauge
}

// New builds a Metrics instance with every collector registered
// against its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_cache_hits_total",
			Help: "Coalescer cache hits, by cache name.",
		}, []string{"cache"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_cache_misses_total",
			Help: "Coalescer cache misses, by cache name.",
		}, []string{"cache"}),
		CacheInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gateway_cache_in_flight",
			Help: "Number of in-flight coalesced fetches, by cache name.",
		}, []string{"cache"}),
		CacheAgeSecs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gateway_cell_age_seconds",
			Help: "Age in seconds of the most recent value in a cache cell.",
		}, []string{"cell"}),
		CachePopulated: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gateway_cell_populated",
			Help: "1 if a cache cell has ever been populated, 0 otherwise.",
		}, []string{"cell"}),

		RefreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_refresh_duration_seconds",
			Help:    "Duration of a refresh task run, by task name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
		RefreshFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_refresh_failures_total",
			Help: "Refresh task failures, by task name.",
		}, []string{"task"}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "HTTP requests served, by route and status class.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_http_duration_seconds",
			Help:    "HTTP handler duration, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		WSSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_ws_sessions",
			Help: "Currently connected push WebSocket sessions.",
		}),
		WSSlowClients: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_ws_slow_clients_total",
			Help: "Push sessions closed for repeated send failures.",
		}),
		ChainEventState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_chain_events_state",
			Help: "Chain event WS tap state (0=disconnected,1=connecting,2=subscribing,3=running).",
		}),
	}

	reg.MustRegister(
		m.CacheHits, m.CacheMisses, m.CacheInFlight, m.CacheAgeSecs, m.CachePopulated,
		m.RefreshDuration, m.RefreshFailures,
		m.HTTPRequests, m.HTTPDuration,
		m.WSSessions, m.WSSlowClients, m.ChainEventState,
	)

	return m
}

// Handler returns the http.Handler serving this registry's /metrics
// output.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for advanced wiring.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
