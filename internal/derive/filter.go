package derive

import (
	"sort"
	"strings"

	"github.com/nolus-protocol/agg-gateway/internal/adapters"
	"github.com/nolus-protocol/agg-gateway/internal/domain"
)

// BuildFilterContext recomputes the gating rules from a protocol list
// (as reported by the ETL) and the merged gated config bundle. A
// protocol is visible only once both its network and its LPN currency
// are fully configured; unconfigured items never reach any gated view.
func BuildFilterContext(protocols []adapters.EtlProtocol, gated GatedConfigBundle) FilterContext {
	configuredProtocols := make(map[string]ProtocolFilterInfo)
	for _, p := range protocols {
		if !p.IsActive {
			continue
		}
		network, ok := gated.NetworkConfig.Networks[strings.ToUpper(p.Network)]
		if !ok || !network.IsConfigured() {
			continue
		}
		lpn, ok := gated.CurrencyDisplay.Currencies[p.LPNSymbol]
		if !ok || !lpn.IsConfigured() {
			continue
		}
		configuredProtocols[p.Name] = ProtocolFilterInfo{PositionType: strings.ToLower(p.PositionType)}
	}

	configuredCurrencies := make(map[string]struct{})
	for ticker, display := range gated.CurrencyDisplay.Currencies {
		if display.IsConfigured() {
			configuredCurrencies[ticker] = struct{}{}
		}
	}

	return FilterContext{
		ConfiguredProtocols:  configuredProtocols,
		ConfiguredCurrencies: configuredCurrencies,
		IgnoreAll:            toSet(gated.LeaseRules.AssetRestrictions.IgnoreAll),
		IgnoreLong:           toSet(gated.LeaseRules.AssetRestrictions.IgnoreLong),
		IgnoreShort:          toSet(gated.LeaseRules.AssetRestrictions.IgnoreShort),
	}
}

func toSet(items []string) map[string]struct{} {
	s := make(map[string]struct{}, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// PriceForAsset resolves a display price for ticker by first trying the
// primary protocol of each network the asset is available on, falling
// back to any protocol carrying that ticker at all.
func PriceForAsset(ticker string, networks []string, networkConfig GatedNetworkConfig, prices map[string]domain.PriceInfo) (string, bool) {
	for _, network := range networks {
		settings, ok := networkConfig.Networks[strings.ToUpper(network)]
		if !ok || settings.PrimaryProtocol == "" {
			continue
		}
		key := ticker + "@" + settings.PrimaryProtocol
		if p, ok := prices[key]; ok {
			return p.PriceUSD, true
		}
	}
	prefix := ticker + "@"
	for key, p := range prices {
		if strings.HasPrefix(key, prefix) {
			return p.PriceUSD, true
		}
	}
	return "", false
}

// BuildGatedAssets deduplicates currencies across every configured
// protocol/network, enriching each with display metadata and a resolved
// price. Assets outside the filter context (unconfigured or globally
// ignored) never appear.
func BuildGatedAssets(
	currencies domain.CurrenciesResponse,
	protocols []domain.ProtocolInfo,
	filter FilterContext,
	gated GatedConfigBundle,
	prices domain.PricesResponse,
) domain.AssetsResponse {
	networksByTicker := make(map[string]map[string]struct{})
	protocolsByTicker := make(map[string]map[string]struct{})

	for _, p := range protocols {
		if !filter.IsProtocolVisible(p.Name) {
			continue
		}
		ticker := p.LPNSymbol
		if networksByTicker[ticker] == nil {
			networksByTicker[ticker] = make(map[string]struct{})
			protocolsByTicker[ticker] = make(map[string]struct{})
		}
		networksByTicker[ticker][p.Network] = struct{}{}
		protocolsByTicker[ticker][p.Name] = struct{}{}
	}

	var assets []domain.AssetResponse
	for ticker, currency := range currencies.Currencies {
		if !filter.IsCurrencyVisible(ticker) {
			continue
		}
		display, ok := gated.CurrencyDisplay.Currencies[ticker]
		if !ok {
			continue
		}

		netSet := networksByTicker[ticker]
		protoSet := protocolsByTicker[ticker]
		nets := setToSortedSlice(netSet)
		protos := setToSortedSlice(protoSet)

		price, _ := PriceForAsset(ticker, nets, gated.NetworkConfig, prices.Prices)

		assets = append(assets, domain.AssetResponse{
			Ticker:      ticker,
			Decimals:    currency.DecimalDigits,
			Icon:        display.IconURL,
			DisplayName: display.DisplayName,
			ShortName:   ticker,
			Color:       display.Color,
			CoingeckoID: display.CoingeckoID,
			Price:       price,
			Networks:    nets,
			Protocols:   protos,
		})
	}

	return domain.AssetsResponse{Assets: assets, Count: len(assets)}
}

// BuildGatedProtocols narrows the protocol list to configured protocols
// only, enriching each with its LPN's display metadata and the matching
// pool's APR/utilization/supplied/borrowed figures when one exists.
func BuildGatedProtocols(protocols []domain.ProtocolInfo, filter FilterContext, gated GatedConfigBundle, pools []domain.EarnPool) domain.GatedProtocolsResponse {
	poolByProtocol := make(map[string]domain.EarnPool, len(pools))
	for _, p := range pools {
		poolByProtocol[p.Protocol] = p
	}

	var out []domain.GatedProtocolInfo
	for _, p := range protocols {
		if !filter.IsProtocolVisible(p.Name) {
			continue
		}
		lpn := gated.CurrencyDisplay.Currencies[p.LPNSymbol]
		info := domain.GatedProtocolInfo{
			Name:         p.Name,
			Network:      p.Network,
			PositionType: p.PositionType,
			LPNTicker:    p.LPNSymbol,
			LPNIcon:      lpn.IconURL,
			LPNDisplay:   lpn.DisplayName,
		}
		if pool, ok := poolByProtocol[p.Name]; ok {
			info.APR = pool.APR
			info.Utilization = pool.Utilization
			info.Supplied = pool.Supplied
			info.Borrowed = pool.Borrowed
		}
		out = append(out, info)
	}
	return domain.GatedProtocolsResponse{Protocols: out}
}

// BuildGatedNetworks narrows the network list to those carrying a fully
// configured settings entry in the gated network config, enriched with
// those settings. It does not consult the filter context or its ignore
// rules.
func BuildGatedNetworks(networks []domain.NetworkInfo, gated GatedConfigBundle) domain.NetworksResponse {
	var out []domain.GatedNetworkInfo
	for _, n := range networks {
		settings, ok := gated.NetworkConfig.Networks[strings.ToUpper(n.Key)]
		if !ok || !settings.IsConfigured() {
			continue
		}
		out = append(out, domain.GatedNetworkInfo{
			Key:             n.Key,
			ExplorerURL:     settings.ExplorerURL,
			PrimaryProtocol: settings.PrimaryProtocol,
			GasPrice:        settings.GasPrice,
		})
	}
	return domain.NetworksResponse{Networks: out}
}

func setToSortedSlice(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
