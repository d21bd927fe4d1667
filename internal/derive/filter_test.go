package derive

import (
	"testing"

	"github.com/nolus-protocol/agg-gateway/internal/adapters"
	"github.com/nolus-protocol/agg-gateway/internal/domain"
)

func testGatedConfig() GatedConfigBundle {
	return GatedConfigBundle{
		CurrencyDisplay: CurrencyDisplayConfig{
			Currencies: map[string]CurrencyDisplayEntry{
				"OSMO":  {IconURL: "osmo.svg", DisplayName: "Osmosis"},
				"ATOM":  {IconURL: "atom.svg", DisplayName: "Cosmos Hub"},
				"NOICE": {}, // missing icon/display -> not configured
			},
		},
		NetworkConfig: GatedNetworkConfig{
			Networks: map[string]NetworkSettings{
				"OSMOSIS": {RPC: "rpc", LCD: "lcd", GasPrice: "0.025", PrimaryProtocol: "OSMOSIS-OSMOSIS-OSMO"},
			},
		},
		LeaseRules: LeaseRulesConfig{
			AssetRestrictions: AssetRestrictions{
				IgnoreAll:  []string{"NOICE"},
				IgnoreLong: []string{"ATOM"},
			},
		},
	}
}

func TestBuildFilterContext(t *testing.T) {
	protocols := []adapters.EtlProtocol{
		{Name: "OSMOSIS-OSMOSIS-OSMO", Network: "osmosis", LPNSymbol: "OSMO", PositionType: "long", IsActive: true},
		{Name: "UNCONFIGURED-NETWORK", Network: "juno", LPNSymbol: "OSMO", PositionType: "long", IsActive: true},
		{Name: "INACTIVE-PROTO", Network: "osmosis", LPNSymbol: "OSMO", PositionType: "long", IsActive: false},
	}

	fc := BuildFilterContext(protocols, testGatedConfig())

	if !fc.IsProtocolVisible("OSMOSIS-OSMOSIS-OSMO") {
		t.Error("expected configured protocol to be visible")
	}
	if fc.IsProtocolVisible("UNCONFIGURED-NETWORK") {
		t.Error("protocol on unconfigured network should not be visible")
	}
	if fc.IsProtocolVisible("INACTIVE-PROTO") {
		t.Error("inactive protocol should not be visible")
	}
	if !fc.IsCurrencyVisible("OSMO") {
		t.Error("expected OSMO to be visible")
	}
	if fc.IsCurrencyVisible("NOICE") {
		t.Error("NOICE is globally ignored, should not be visible")
	}
}

func TestIsLeaseVisible(t *testing.T) {
	fc := FilterContext{
		ConfiguredProtocols: map[string]ProtocolFilterInfo{
			"long-proto":  {PositionType: "long"},
			"short-proto": {PositionType: "short"},
		},
		IgnoreAll:   map[string]struct{}{"BANNED": {}},
		IgnoreLong:  map[string]struct{}{"ATOM": {}},
		IgnoreShort: map[string]struct{}{"OSMO": {}},
	}

	cases := []struct {
		protocol, ticker string
		want             bool
	}{
		{"long-proto", "ATOM", false},
		{"long-proto", "OSMO", true},
		{"short-proto", "OSMO", false},
		{"short-proto", "ATOM", true},
		{"long-proto", "BANNED", false},
		{"unconfigured", "ATOM", false},
	}
	for _, tc := range cases {
		if got := fc.IsLeaseVisible(tc.protocol, tc.ticker); got != tc.want {
			t.Errorf("IsLeaseVisible(%q, %q) = %v, want %v", tc.protocol, tc.ticker, got, tc.want)
		}
	}
}

func TestPriceForAsset(t *testing.T) {
	networkConfig := GatedNetworkConfig{
		Networks: map[string]NetworkSettings{
			"OSMOSIS": {PrimaryProtocol: "OSMOSIS-OSMOSIS-OSMO"},
		},
	}
	prices := map[string]domain.PriceInfo{
		"OSMO@OSMOSIS-OSMOSIS-OSMO": {PriceUSD: "0.50"},
		"OSMO@some-other-protocol":  {PriceUSD: "0.51"},
	}

	price, ok := PriceForAsset("OSMO", []string{"OSMOSIS"}, networkConfig, prices)
	if !ok || price != "0.50" {
		t.Fatalf("price = %q, %v, want 0.50, true", price, ok)
	}

	price, ok = PriceForAsset("OSMO", []string{"UNKNOWN"}, networkConfig, prices)
	if !ok {
		t.Fatal("expected fallback to any protocol carrying the ticker")
	}
	if price != "0.50" && price != "0.51" {
		t.Fatalf("unexpected fallback price %q", price)
	}

	_, ok = PriceForAsset("MISSING", nil, networkConfig, prices)
	if ok {
		t.Fatal("expected no price for unknown ticker")
	}
}

func TestBuildGatedAssets(t *testing.T) {
	currencies := domain.CurrenciesResponse{
		Currencies: map[string]domain.CurrencyInfo{
			"OSMO":  {Ticker: "OSMO", DecimalDigits: 6},
			"NOICE": {Ticker: "NOICE", DecimalDigits: 6},
		},
	}
	protocols := []domain.ProtocolInfo{
		{Name: "OSMOSIS-OSMOSIS-OSMO", Network: "OSMOSIS", LPNSymbol: "OSMO", PositionType: "long", IsActive: true},
	}
	gated := testGatedConfig()
	fc := FilterContext{
		ConfiguredProtocols:  map[string]ProtocolFilterInfo{"OSMOSIS-OSMOSIS-OSMO": {PositionType: "long"}},
		ConfiguredCurrencies: map[string]struct{}{"OSMO": {}},
		IgnoreAll:            map[string]struct{}{"NOICE": {}},
	}

	resp := BuildGatedAssets(currencies, protocols, fc, gated, domain.PricesResponse{Prices: map[string]domain.PriceInfo{}})

	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1 (NOICE is ignored, OSMO is configured and has a display entry)", resp.Count)
	}
	if resp.Assets[0].Ticker != "OSMO" {
		t.Fatalf("ticker = %q, want OSMO", resp.Assets[0].Ticker)
	}
}
