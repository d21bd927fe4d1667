package cache

import (
	"github.com/nolus-protocol/agg-gateway/internal/derive"
	"github.com/nolus-protocol/agg-gateway/internal/domain"
)

// Bundle is the full set of named cache cells the gateway serves reads
// from. There is exactly one Bundle per process, constructed cold at
// startup and handed to both the refresh fleet (which owns every Store
// call) and the read facade (which only ever Loads).
type Bundle struct {
	AppConfig         *Cached[domain.AppConfigResponse]
	ProtocolContracts *Cached[domain.ProtocolContractsMap]
	Currencies        *Cached[domain.CurrenciesResponse]
	Prices            *Cached[domain.PricesResponse]

	GatedConfig   *Cached[derive.GatedConfigBundle]
	FilterContext *Cached[derive.FilterContext]

	Pools      *Cached[[]domain.EarnPool]
	Validators *Cached[[]domain.Validator]

	GatedAssets    *Cached[domain.AssetsResponse]
	GatedProtocols *Cached[domain.GatedProtocolsResponse]
	GatedNetworks  *Cached[domain.NetworksResponse]

	StatsOverview *Cached[domain.StatsOverviewBatch]
	LoansStats    *Cached[domain.LoansStatsBatch]

	SwapConfig    *Cached[domain.SwapConfigResponse]
	LeaseConfigs  *Cached[map[string]domain.LeaseConfigResponse]
	GasFeeConfig  *Cached[domain.GasFeeConfigResponse]

	GovProposals *Cached[domain.GovProposalsResponse]
	ZeroInterest *Cached[domain.ZeroInterestConfig]
}

// NewBundle constructs every cell cold. Nothing here talks to the
// network; warming is the refresh fleet's job.
func NewBundle() *Bundle {
	return &Bundle{
		AppConfig:         New[domain.AppConfigResponse](),
		ProtocolContracts: New[domain.ProtocolContractsMap](),
		Currencies:        New[domain.CurrenciesResponse](),
		Prices:            New[domain.PricesResponse](),

		GatedConfig:   New[derive.GatedConfigBundle](),
		FilterContext: New[derive.FilterContext](),

		Pools:      New[[]domain.EarnPool](),
		Validators: New[[]domain.Validator](),

		GatedAssets:    New[domain.AssetsResponse](),
		GatedProtocols: New[domain.GatedProtocolsResponse](),
		GatedNetworks:  New[domain.NetworksResponse](),

		StatsOverview: New[domain.StatsOverviewBatch](),
		LoansStats:    New[domain.LoansStatsBatch](),

		SwapConfig:   New[domain.SwapConfigResponse](),
		LeaseConfigs: New[map[string]domain.LeaseConfigResponse](),
		GasFeeConfig: New[domain.GasFeeConfigResponse](),

		GovProposals: New[domain.GovProposalsResponse](),
		ZeroInterest: New[domain.ZeroInterestConfig](),
	}
}

// StatusSummary reports every cell's population state in a stable field
// order, for the /healthz and /api/cache-status endpoints.
func (b *Bundle) StatusSummary() []FieldStatus {
	return []FieldStatus{
		b.AppConfig.Status("app_config"),
		b.ProtocolContracts.Status("protocol_contracts"),
		b.Currencies.Status("currencies"),
		b.Prices.Status("prices"),
		b.GatedConfig.Status("gated_config"),
		b.FilterContext.Status("filter_context"),
		b.Pools.Status("pools"),
		b.Validators.Status("validators"),
		b.GatedAssets.Status("gated_assets"),
		b.GatedProtocols.Status("gated_protocols"),
		b.GatedNetworks.Status("gated_networks"),
		b.StatsOverview.Status("stats_overview"),
		b.LoansStats.Status("loans_stats"),
		b.SwapConfig.Status("swap_config"),
		b.LeaseConfigs.Status("lease_configs"),
		b.GasFeeConfig.Status("gas_fee_config"),
		b.GovProposals.Status("gov_proposals"),
		b.ZeroInterest.Status("zero_interest"),
	}
}

// EssentialNames lists the cells the warm-up sequence must populate
// synchronously, in dependency order, before the HTTP server binds:
// everything else fills in behind the first handful of requests. Order
// matters — a derived cell's refresh reads its inputs straight from the
// bundle, so its inputs must already have run once.
func EssentialNames() []string {
	return []string{
		"app_config", "protocol_contracts", "currencies", "gated_config",
		"prices", "lease_configs", "gas_fee_config", "pools", "validators",
		"filter_context", "gated_assets", "gated_protocols", "gated_networks",
	}
}

// AllPopulated reports whether every cell in names has been populated.
func (b *Bundle) AllPopulated(names []string) bool {
	byName := map[string]func() bool{
		"app_config":         b.AppConfig.IsPopulated,
		"protocol_contracts": b.ProtocolContracts.IsPopulated,
		"currencies":         b.Currencies.IsPopulated,
		"prices":             b.Prices.IsPopulated,
		"gated_config":       b.GatedConfig.IsPopulated,
		"filter_context":     b.FilterContext.IsPopulated,
		"pools":              b.Pools.IsPopulated,
		"validators":         b.Validators.IsPopulated,
		"gated_assets":       b.GatedAssets.IsPopulated,
		"gated_protocols":    b.GatedProtocols.IsPopulated,
		"gated_networks":     b.GatedNetworks.IsPopulated,
		"stats_overview":     b.StatsOverview.IsPopulated,
		"loans_stats":        b.LoansStats.IsPopulated,
		"swap_config":        b.SwapConfig.IsPopulated,
		"lease_configs":      b.LeaseConfigs.IsPopulated,
		"gas_fee_config":     b.GasFeeConfig.IsPopulated,
		"gov_proposals":      b.GovProposals.IsPopulated,
		"zero_interest":      b.ZeroInterest.IsPopulated,
	}
	for _, n := range names {
		if check, ok := byName[n]; !ok || !check() {
			return false
		}
	}
	return true
}
