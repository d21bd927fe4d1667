// Package derive builds the views nothing upstream hands us directly:
// the filter context that decides which protocols/currencies are
// visible at all, and the gated views (assets, protocols, networks) that
// merge chain/ETL data with the 5 on-disk gated config files and
// resolve prices onto each entry.
package derive

import "github.com/nolus-protocol/agg-gateway/internal/domain"

// ProtocolFilterInfo is the subset of a protocol's configuration the
// filter needs to decide lease/earn visibility.
type ProtocolFilterInfo struct {
	PositionType string // "long" | "short"
}

// FilterContext is rebuilt by the filter_context refresh task, from the
// ETL protocol list and the gated config, whenever gated_config is
// reloaded and on that task's own timer. The gated asset and protocol
// views consult it before including an asset or protocol: unconfigured
// items are hidden by default, not merely unenriched. The lease, earn,
// balance and price predicates below are not called by any handler or
// push path.
type FilterContext struct {
	ConfiguredProtocols  map[string]ProtocolFilterInfo
	ConfiguredCurrencies map[string]struct{}

	IgnoreAll   map[string]struct{} // asset tickers hidden everywhere
	IgnoreLong  map[string]struct{} // asset tickers hidden for long leases
	IgnoreShort map[string]struct{} // asset tickers hidden for short leases
}

// IsProtocolVisible reports whether a protocol is configured at all.
func (f FilterContext) IsProtocolVisible(protocol string) bool {
	_, ok := f.ConfiguredProtocols[protocol]
	return ok
}

// IsCurrencyVisible reports whether a currency is configured and not
// globally ignored.
func (f FilterContext) IsCurrencyVisible(ticker string) bool {
	if _, ignored := f.IgnoreAll[ticker]; ignored {
		return false
	}
	_, configured := f.ConfiguredCurrencies[ticker]
	return configured
}

// IsLeaseVisible reports whether a lease on protocol for asset should be
// shown: the protocol must be configured, the asset must not be
// globally ignored, and must not be ignored for that protocol's
// position side.
func (f FilterContext) IsLeaseVisible(protocol, assetTicker string) bool {
	info, ok := f.ConfiguredProtocols[protocol]
	if !ok {
		return false
	}
	if _, ignored := f.IgnoreAll[assetTicker]; ignored {
		return false
	}
	switch info.PositionType {
	case "long":
		_, ignored := f.IgnoreLong[assetTicker]
		return !ignored
	case "short":
		_, ignored := f.IgnoreShort[assetTicker]
		return !ignored
	default:
		return true
	}
}

// IsEarnPositionVisible reports whether an earn position on protocol
// should be shown: visibility tracks protocol configuration only.
func (f FilterContext) IsEarnPositionVisible(protocol string) bool {
	return f.IsProtocolVisible(protocol)
}

// IsBalanceVisible reports whether a balance in ticker should be shown.
func (f FilterContext) IsBalanceVisible(ticker string) bool {
	return f.IsCurrencyVisible(ticker)
}

// IsPriceVisible reports whether a price for ticker should be shown.
// Unlike balances/currencies, a globally-ignored asset still prices —
// ignore_all only hides user-owned positions, not the market view.
func (f FilterContext) IsPriceVisible(ticker string) bool {
	_, ok := f.ConfiguredCurrencies[ticker]
	return ok
}

// CurrencyDisplayEntry is one ticker's admin-provided visual metadata,
// stored under currency-display.json's "currencies" map.
type CurrencyDisplayEntry struct {
	IconURL     string `json:"iconUrl"`
	Color       string `json:"color,omitempty"`
	DisplayName string `json:"displayName"`
	CoingeckoID string `json:"coingeckoId,omitempty"`
}

// IsConfigured reports whether this entry carries enough information to
// be shown at all (icon and display name are mandatory).
func (e CurrencyDisplayEntry) IsConfigured() bool {
	return e.IconURL != "" && e.DisplayName != ""
}

// CurrencyDisplayConfig is the on-disk currency-display.json contents.
type CurrencyDisplayConfig struct {
	Currencies map[string]CurrencyDisplayEntry `json:"currencies"`
}

// NetworkSettings is one network's admin-provided infrastructure
// configuration, stored under network-config.json's "networks" map.
type NetworkSettings struct {
	ExplorerURL     string  `json:"explorerUrl"`
	GasPrice        string  `json:"gasPrice"`
	GasMultiplier   string  `json:"gasMultiplier,omitempty"`
	PrimaryProtocol string  `json:"primaryProtocol,omitempty"`
	RPC             string  `json:"rpc,omitempty"`
	LCD             string  `json:"lcd,omitempty"`
}

// IsConfigured reports whether this network carries the minimum fields
// (RPC, LCD, gas price) required for a protocol on it to be visible.
func (s NetworkSettings) IsConfigured() bool {
	return s.RPC != "" && s.LCD != "" && s.GasPrice != ""
}

// GatedNetworkConfig is the on-disk network-config.json contents.
type GatedNetworkConfig struct {
	Networks map[string]NetworkSettings `json:"networks"`
}

// AssetRestrictions is the ignore_all/ignore_long/ignore_short
// blacklist embedded in lease-rules.json.
type AssetRestrictions struct {
	IgnoreAll   []string `json:"ignoreAll"`
	IgnoreLong  []string `json:"ignoreLong"`
	IgnoreShort []string `json:"ignoreShort"`
}

// LeaseRulesConfig is the on-disk lease-rules.json contents:
// per-protocol downpayment ranges plus the shared restriction lists.
type LeaseRulesConfig struct {
	DownpaymentRanges  map[string][]domain.DownpaymentRange `json:"downpaymentRanges"` // keyed by protocol
	AssetRestrictions  AssetRestrictions                    `json:"assetRestrictions"`
}

// SwapSettingsConfig is the on-disk swap-settings.json contents: swap
// venues, blacklisted denoms, and routing parameters.
type SwapSettingsConfig struct {
	Enabled     bool     `json:"enabled"`
	Venues      []string `json:"venues"`
	Blacklist   []string `json:"blacklist"`
	SlippageBps int      `json:"slippageBps"`
}

// UISettingsConfig is the on-disk ui-settings.json contents: hidden
// governance proposals, feature flags, and maintenance mode.
type UISettingsConfig struct {
	HiddenProposalIDs []string        `json:"hiddenProposalIds"`
	FeatureFlags      map[string]bool `json:"featureFlags"`
	MaintenanceMode   bool            `json:"maintenanceMode"`
}

// GatedConfigBundle is the merged value of all 5 on-disk gated config
// files, as stored in the gated_config cache cell.
type GatedConfigBundle struct {
	CurrencyDisplay CurrencyDisplayConfig
	NetworkConfig   GatedNetworkConfig
	LeaseRules      LeaseRulesConfig
	SwapSettings    SwapSettingsConfig
	UISettings      UISettingsConfig
}
