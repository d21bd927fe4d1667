package main

import (
	"testing"

	"github.com/nolus-protocol/agg-gateway/internal/adapters"
	"github.com/nolus-protocol/agg-gateway/internal/config"
	"github.com/nolus-protocol/agg-gateway/internal/derive"
	"github.com/nolus-protocol/agg-gateway/internal/domain"
)

func TestBuildAppConfig(t *testing.T) {
	cfg := &config.Config{NativeAssetTicker: "NLS", NativeAssetDenom: "unls", NativeAssetDecimals: 6}
	raw := []adapters.EtlProtocol{
		{Name: "OSMOSIS-OSMOSIS-OSMO", Network: "osmosis", LPNSymbol: "OSMO", PositionType: "long", IsActive: true},
	}
	gated := derive.GatedConfigBundle{
		NetworkConfig: derive.GatedNetworkConfig{
			Networks: map[string]derive.NetworkSettings{
				"OSMOSIS": {RPC: "rpc", LCD: "lcd", GasPrice: "0.025uosmo", ExplorerURL: "explorer", PrimaryProtocol: "OSMOSIS-OSMOSIS-OSMO"},
			},
		},
	}

	got := buildAppConfig(cfg, raw, gated)

	if len(got.Protocols) != 1 || got.Protocols[0].Name != "OSMOSIS-OSMOSIS-OSMO" {
		t.Fatalf("protocols = %+v, want one OSMOSIS-OSMOSIS-OSMO entry", got.Protocols)
	}
	if len(got.Networks) != 1 || got.Networks[0].Key != "osmosis" {
		t.Fatalf("networks = %+v, want one osmosis entry", got.Networks)
	}
	if got.Networks[0].RPC != "rpc" {
		t.Errorf("network RPC = %q, want rpc (from gated config lookup)", got.Networks[0].RPC)
	}
	if got.NativeAsset.Ticker != "NLS" || got.NativeAsset.Decimals != 6 {
		t.Errorf("native asset = %+v, want NLS/6", got.NativeAsset)
	}
}

func TestBuildCurrencies(t *testing.T) {
	raw := []adapters.EtlCurrency{
		{Ticker: "OSMO", BankSymbol: "uosmo", DecimalDigits: 6, Group: "Lpn"},
		{Ticker: "UNDISPLAYED", BankSymbol: "uund", DecimalDigits: 6, Group: "Lpn"},
	}
	gated := derive.GatedConfigBundle{
		CurrencyDisplay: derive.CurrencyDisplayConfig{
			Currencies: map[string]derive.CurrencyDisplayEntry{
				"OSMO": {IconURL: "osmo.svg", DisplayName: "Osmosis", Color: "#fff", CoingeckoID: "osmosis"},
			},
		},
	}

	got := buildCurrencies(raw, gated)

	osmo := got.Currencies["OSMO"]
	if osmo.Icon != "osmo.svg" || osmo.DisplayName != "Osmosis" {
		t.Errorf("OSMO = %+v, want display metadata merged in", osmo)
	}
	undisplayed := got.Currencies["UNDISPLAYED"]
	if undisplayed.Icon != "" || undisplayed.DisplayName != "" {
		t.Errorf("UNDISPLAYED = %+v, want no display metadata", undisplayed)
	}
}

func TestBuildPrices(t *testing.T) {
	raw := []adapters.EtlPrice{
		{Ticker: "OSMO", Protocol: "OSMOSIS-OSMOSIS-OSMO", PriceUSD: "0.50"},
	}

	got := buildPrices(raw)

	price, ok := got.Prices["OSMO@OSMOSIS-OSMOSIS-OSMO"]
	if !ok || price.PriceUSD != "0.50" {
		t.Fatalf("prices = %+v, want OSMO@OSMOSIS-OSMOSIS-OSMO = 0.50", got.Prices)
	}
	if got.UpdatedAt == "" {
		t.Error("expected UpdatedAt to be stamped")
	}
}

func TestConvertPoolsAndValidators(t *testing.T) {
	pools := convertPools([]adapters.EtlPool{
		{PoolID: "p1", Protocol: "OSMOSIS-OSMOSIS-OSMO", APR: "0.1", Utilization: "0.5", Supplied: "100", Borrowed: "50"},
	})
	if len(pools) != 1 || pools[0].PoolID != "p1" {
		t.Fatalf("pools = %+v", pools)
	}

	validators := convertValidators([]adapters.EtlValidator{
		{OperatorAddress: "osmovaloper1...", Moniker: "Validator One", VotingPower: "1000", Commission: "0.05", Jailed: false},
	})
	if len(validators) != 1 || validators[0].Moniker != "Validator One" {
		t.Fatalf("validators = %+v", validators)
	}
}

func TestBuildSwapConfigFiltersBlacklist(t *testing.T) {
	gated := derive.GatedConfigBundle{
		SwapSettings: derive.SwapSettingsConfig{
			Enabled:     true,
			Venues:      []string{"osmosis-dex"},
			Blacklist:   []string{"uban"},
			SlippageBps: 50,
		},
	}
	currencies := domain.CurrenciesResponse{
		Currencies: map[string]domain.CurrencyInfo{
			"OSMO": {Ticker: "OSMO", BankSymbol: "uosmo"},
			"BAN":  {Ticker: "BAN", BankSymbol: "uban"},
			"NODE": {Ticker: "NODE"}, // no bank symbol, should be skipped
		},
	}

	got := buildSwapConfig(gated, currencies)

	if !got.Enabled || got.SlippageBps != 50 {
		t.Fatalf("swap config = %+v", got)
	}
	for _, d := range got.Denoms {
		if d.Denom == "uban" {
			t.Error("blacklisted denom uban should have been filtered out")
		}
		if d.Ticker == "NODE" {
			t.Error("currency with no bank symbol should have been skipped")
		}
	}
	if len(got.Denoms) != 1 || got.Denoms[0].Ticker != "OSMO" {
		t.Fatalf("denoms = %+v, want exactly OSMO", got.Denoms)
	}
}

func TestBuildLeaseConfigs(t *testing.T) {
	gated := derive.GatedConfigBundle{
		LeaseRules: derive.LeaseRulesConfig{
			DownpaymentRanges: map[string][]domain.DownpaymentRange{
				"OSMOSIS-OSMOSIS-OSMO": {
					{AssetTicker: "OSMO", MinAmount: "10", MaxAmount: "100"},
					{AssetTicker: "OSMO", MinAmount: "100", MaxAmount: "1000"},
				},
			},
		},
	}
	protocols := []domain.ProtocolInfo{{Name: "OSMOSIS-OSMOSIS-OSMO"}, {Name: "NO-RULES-PROTO"}}

	got := buildLeaseConfigs(gated, protocols)

	cfg := got["OSMOSIS-OSMOSIS-OSMO"]
	if cfg.MinDownpayment != "10" || cfg.MaxDownpayment != "1000" {
		t.Fatalf("lease config = %+v, want min 10 / max 1000", cfg)
	}
	if empty := got["NO-RULES-PROTO"]; empty.MinDownpayment != "" {
		t.Errorf("expected no downpayment bounds for a protocol with no configured ranges, got %+v", empty)
	}
}

func TestParseGasPrice(t *testing.T) {
	cases := []struct {
		raw       string
		wantPrice string
		wantDenom string
		wantOK    bool
	}{
		{"0.025unls", "0.025", "unls", true},
		{"1uosmo", "1", "uosmo", true},
		{"", "", "", false},
		{"garbage", "", "", false},
	}
	for _, tc := range cases {
		price, denom, ok := parseGasPrice(tc.raw)
		if ok != tc.wantOK || price != tc.wantPrice || denom != tc.wantDenom {
			t.Errorf("parseGasPrice(%q) = %q, %q, %v; want %q, %q, %v",
				tc.raw, price, denom, ok, tc.wantPrice, tc.wantDenom, tc.wantOK)
		}
	}
}

func TestBuildGasFeeConfigDedupesByDenom(t *testing.T) {
	gated := derive.GatedConfigBundle{
		NetworkConfig: derive.GatedNetworkConfig{
			Networks: map[string]derive.NetworkSettings{
				"OSMOSIS": {GasPrice: "0.025unls", GasMultiplier: "1.5"},
				"JUNO":    {GasPrice: "0.025unls"}, // same denom, should not duplicate
				"AXELAR":  {GasPrice: "not-a-gas-price"},
			},
		},
	}

	got := buildGasFeeConfig(gated)

	if len(got.AcceptedDenoms) != 1 || got.AcceptedDenoms[0].Denom != "unls" {
		t.Fatalf("accepted denoms = %+v, want exactly one unls entry", got.AcceptedDenoms)
	}
	if got.GasMultiplier != "1.5" {
		t.Errorf("gas multiplier = %q, want 1.5", got.GasMultiplier)
	}
}

func TestBuildGovProposalsHidesConfigured(t *testing.T) {
	raw := []adapters.GovProposal{
		{ProposalID: "1", Status: "PASSED"},
		{ProposalID: "2", Status: "VOTING"},
	}
	raw[0].Content.Title = "Upgrade A"
	raw[1].Content.Title = "Upgrade B"
	gated := derive.GatedConfigBundle{
		UISettings: derive.UISettingsConfig{HiddenProposalIDs: []string{"1"}},
	}

	got := buildGovProposals(raw, gated)

	if len(got.Proposals) != 1 || got.Proposals[0].ID != "2" {
		t.Fatalf("proposals = %+v, want only proposal 2", got.Proposals)
	}
}

func TestBuildZeroInterest(t *testing.T) {
	raw := []adapters.EtlZeroInterestCampaign{
		{Protocol: "OSMOSIS-OSMOSIS-OSMO", AssetTicker: "OSMO", ExpiresAt: "2026-12-31T00:00:00Z"},
	}

	got := buildZeroInterest(raw)

	if len(got.Campaigns) != 1 || got.Campaigns[0].AssetTicker != "OSMO" {
		t.Fatalf("campaigns = %+v", got.Campaigns)
	}
}
