// Package facade is the handler-facing read surface over the cache
// bundle: every HTTP and WebSocket handler reads through here, never
// through the bundle's cells directly, so "never block on upstreams"
// is enforced in one place rather than re-derived per handler.
package facade

import (
	"github.com/nolus-protocol/agg-gateway/internal/cache"
	"github.com/nolus-protocol/agg-gateway/internal/derive"
	"github.com/nolus-protocol/agg-gateway/internal/domain"
)

// Facade wraps a *cache.Bundle with typed accessors. It holds no state
// of its own and never triggers a fetch.
type Facade struct {
	bundle *cache.Bundle
}

// New wraps bundle in a read facade.
func New(bundle *cache.Bundle) *Facade {
	return &Facade{bundle: bundle}
}

// AppConfig returns the app_config cell or a 503.
func (f *Facade) AppConfig() (domain.AppConfigResponse, error) {
	return f.bundle.AppConfig.LoadOrUnavailable("app_config")
}

// ProtocolContracts returns the protocol_contracts cell or a 503.
func (f *Facade) ProtocolContracts() (domain.ProtocolContractsMap, error) {
	return f.bundle.ProtocolContracts.LoadOrUnavailable("protocol_contracts")
}

// Currencies returns the currencies cell or a 503.
func (f *Facade) Currencies() (domain.CurrenciesResponse, error) {
	return f.bundle.Currencies.LoadOrUnavailable("currencies")
}

// Prices returns the prices cell or a 503.
func (f *Facade) Prices() (domain.PricesResponse, error) {
	return f.bundle.Prices.LoadOrUnavailable("prices")
}

// GatedConfig returns the merged 5-file config bundle or a 503.
func (f *Facade) GatedConfig() (derive.GatedConfigBundle, error) {
	return f.bundle.GatedConfig.LoadOrUnavailable("gated_config")
}

// FilterContext returns the derived filter context or a 503.
func (f *Facade) FilterContext() (derive.FilterContext, error) {
	return f.bundle.FilterContext.LoadOrUnavailable("filter_context")
}

// Pools returns the pools cell or a 503.
func (f *Facade) Pools() ([]domain.EarnPool, error) {
	return f.bundle.Pools.LoadOrUnavailable("pools")
}

// Validators returns the validators cell or a 503.
func (f *Facade) Validators() ([]domain.Validator, error) {
	return f.bundle.Validators.LoadOrUnavailable("validators")
}

// GatedAssets returns the deduplicated asset view or a 503.
func (f *Facade) GatedAssets() (domain.AssetsResponse, error) {
	return f.bundle.GatedAssets.LoadOrUnavailable("gated_assets")
}

// GatedProtocols returns the filtered protocol view or a 503.
func (f *Facade) GatedProtocols() (domain.GatedProtocolsResponse, error) {
	return f.bundle.GatedProtocols.LoadOrUnavailable("gated_protocols")
}

// GatedNetworks returns the filtered network view or a 503.
func (f *Facade) GatedNetworks() (domain.NetworksResponse, error) {
	return f.bundle.GatedNetworks.LoadOrUnavailable("gated_networks")
}

// StatsOverview returns the ETL stats batch or a 503.
func (f *Facade) StatsOverview() (domain.StatsOverviewBatch, error) {
	return f.bundle.StatsOverview.LoadOrUnavailable("stats_overview")
}

// LoansStats returns the loans stats batch or a 503.
func (f *Facade) LoansStats() (domain.LoansStatsBatch, error) {
	return f.bundle.LoansStats.LoadOrUnavailable("loans_stats")
}

// SwapConfig returns the merged swap config or a 503.
func (f *Facade) SwapConfig() (domain.SwapConfigResponse, error) {
	return f.bundle.SwapConfig.LoadOrUnavailable("swap_config")
}

// LeaseConfigs returns the per-protocol lease config map or a 503.
func (f *Facade) LeaseConfigs() (map[string]domain.LeaseConfigResponse, error) {
	return f.bundle.LeaseConfigs.LoadOrUnavailable("lease_configs")
}

// GasFeeConfig returns the gas fee config or a 503.
func (f *Facade) GasFeeConfig() (domain.GasFeeConfigResponse, error) {
	return f.bundle.GasFeeConfig.LoadOrUnavailable("gas_fee_config")
}

// GovProposals returns the governance proposal list or a 503.
func (f *Facade) GovProposals() (domain.GovProposalsResponse, error) {
	return f.bundle.GovProposals.LoadOrUnavailable("gov_proposals")
}

// ZeroInterest returns the zero-interest campaign config or a 503.
func (f *Facade) ZeroInterest() (domain.ZeroInterestConfig, error) {
	return f.bundle.ZeroInterest.LoadOrUnavailable("zero_interest")
}

// HealthSummary reports every cell's population/age state for the
// /healthz and /api/cache-status endpoints.
func (f *Facade) HealthSummary() []cache.FieldStatus {
	return f.bundle.StatusSummary()
}
