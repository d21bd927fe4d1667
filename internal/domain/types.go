// Package domain holds the response-shaped types carried by the cache
// bundle. They are plain data: adapters build them from upstream JSON,
// the refresh fleet stores them, the derivation pipeline reads and
// recombines them, and the HTTP layer serializes them back out.
package domain

// NativeAssetInfo describes the chain's native fee/staking asset.
type NativeAssetInfo struct {
	Ticker   string `json:"ticker"`
	Denom    string `json:"denom"`
	Decimals uint8  `json:"decimals"`
}

// NetworkInfo is one entry of the configured-networks list.
type NetworkInfo struct {
	Key             string `json:"key"`
	RPC             string `json:"rpc"`
	LCD             string `json:"lcd"`
	GasPrice        string `json:"gasPrice"`
	ExplorerURL     string `json:"explorerUrl,omitempty"`
	PrimaryProtocol string `json:"primaryProtocol,omitempty"`
}

// ProtocolInfo is one entry of the configured-protocols list.
type ProtocolInfo struct {
	Name         string `json:"name"`
	Network      string `json:"network"`
	LPNSymbol    string `json:"lpnSymbol"`
	PositionType string `json:"positionType"` // "long" | "short"
	IsActive     bool   `json:"isActive"`
}

// AppConfigResponse is the `app_config` cell's value: networks, protocols,
// and the native asset, as returned by /api/config.
type AppConfigResponse struct {
	Protocols   []ProtocolInfo  `json:"protocols"`
	Networks    []NetworkInfo   `json:"networks"`
	NativeAsset NativeAssetInfo `json:"nativeAsset"`
}

// ProtocolContractsInfo is the addresses the gateway queries for one
// protocol: oracle, lpp (liquidity pool), leaser, profit.
type ProtocolContractsInfo struct {
	Protocol string `json:"protocol"`
	Oracle   string `json:"oracle"`
	LPP      string `json:"lpp"`
	Leaser   string `json:"leaser"`
	Profit   string `json:"profit"`
}

// ProtocolContractsMap is the `protocol_contracts` cell's value, keyed by
// protocol name.
type ProtocolContractsMap map[string]ProtocolContractsInfo

// CurrencyInfo is one entry of the currencies cell.
type CurrencyInfo struct {
	Ticker        string `json:"ticker"`
	BankSymbol    string `json:"bankSymbol"`
	DecimalDigits uint8  `json:"decimalDigits"`
	Group         string `json:"group"`
	Icon          string `json:"icon,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
	Color         string `json:"color,omitempty"`
	CoingeckoID   string `json:"coingeckoId,omitempty"`
}

// CurrenciesResponse is the `currencies` cell's value.
type CurrenciesResponse struct {
	Currencies map[string]CurrencyInfo `json:"currencies"`
}

// PriceInfo is one ticker@protocol price. The prices cell fills it from
// the ETL prices feed (ticker, protocol, USD price); oracle contracts are
// not queried for it, and AmountBase/AmountQuote are left empty there.
type PriceInfo struct {
	Ticker     string `json:"ticker"`
	Protocol   string `json:"protocol"`
	PriceUSD   string `json:"priceUsd"`
	AmountBase string `json:"amountBase,omitempty"`
	AmountQuote string `json:"amountQuote,omitempty"`
}

// PricesResponse is the `prices` cell's value, keyed by "TICKER@PROTOCOL".
type PricesResponse struct {
	Prices    map[string]PriceInfo `json:"prices"`
	UpdatedAt string                `json:"updated_at"`
}

// EarnPool is one liquidity pool entry, as reported by the ETL.
type EarnPool struct {
	PoolID      string `json:"poolId"`
	Protocol    string `json:"protocol"`
	APR         string `json:"apr"`
	Utilization string `json:"utilization"`
	Supplied    string `json:"supplied"`
	Borrowed    string `json:"borrowed"`
}

// Validator is one bonded validator entry.
type Validator struct {
	OperatorAddress string `json:"operatorAddress"`
	Moniker         string `json:"moniker"`
	VotingPower     string `json:"votingPower"`
	Commission      string `json:"commission"`
	Jailed          bool   `json:"jailed"`
}

// AssetResponse is one deduplicated, display-ready asset.
type AssetResponse struct {
	Ticker      string   `json:"ticker"`
	Decimals    uint8    `json:"decimals"`
	Icon        string   `json:"icon,omitempty"`
	DisplayName string   `json:"displayName"`
	ShortName   string   `json:"shortName"`
	Color       string   `json:"color,omitempty"`
	CoingeckoID string   `json:"coingeckoId,omitempty"`
	Price       string   `json:"price,omitempty"`
	Networks    []string `json:"networks"`
	Protocols   []string `json:"protocols"`
}

// AssetsResponse is the `gated_assets` cell's value.
type AssetsResponse struct {
	Assets []AssetResponse `json:"assets"`
	Count  int             `json:"count"`
}

// GatedProtocolInfo is one filtered, enriched protocol entry.
type GatedProtocolInfo struct {
	Name          string `json:"name"`
	Network       string `json:"network"`
	PositionType  string `json:"positionType"`
	LPNTicker     string `json:"lpnTicker"`
	LPNIcon       string `json:"lpnIcon,omitempty"`
	LPNDisplay    string `json:"lpnDisplayName,omitempty"`
	APR           string `json:"apr,omitempty"`
	Utilization   string `json:"utilization,omitempty"`
	Supplied      string `json:"supplied,omitempty"`
	Borrowed      string `json:"borrowed,omitempty"`
}

// GatedProtocolsResponse is the `gated_protocols` cell's value.
type GatedProtocolsResponse struct {
	Protocols []GatedProtocolInfo `json:"protocols"`
}

// GatedNetworkInfo is one filtered network entry enriched with its gated
// network settings.
type GatedNetworkInfo struct {
	Key             string `json:"key"`
	ExplorerURL     string `json:"explorerUrl,omitempty"`
	PrimaryProtocol string `json:"primaryProtocol,omitempty"`
	GasPrice        string `json:"gasPrice"`
}

// NetworksResponse is the `gated_networks` cell's value.
type NetworksResponse struct {
	Networks []GatedNetworkInfo `json:"networks"`
}

// StatsOverviewBatch is the `stats_overview` cell's value: TVL, volume,
// buyback, PnL, revenue ETL batch aggregates.
type StatsOverviewBatch struct {
	TVLUsd        string `json:"tvlUsd"`
	VolumeUsd24h  string `json:"volumeUsd24h"`
	BuybackUsd    string `json:"buybackUsd"`
	RevenueUsd    string `json:"revenueUsd"`
	PnlUsd        string `json:"pnlUsd"`
}

// LoansStatsBatch is the `loans_stats` cell's value.
type LoansStatsBatch struct {
	OpenPositionValueUsd string `json:"openPositionValueUsd"`
	OpenInterestUsd      string `json:"openInterestUsd"`
	OpenLeasesCount      int    `json:"openLeasesCount"`
}

// SwapDenom is one denom accepted by the swap service, resolved from ETL
// currency data.
type SwapDenom struct {
	Ticker string `json:"ticker"`
	Denom  string `json:"denom"`
	Chain  string `json:"chain"`
}

// SwapConfigResponse is the `swap_config` cell's value: gated swap
// settings merged with resolved denoms.
type SwapConfigResponse struct {
	Enabled      bool        `json:"enabled"`
	Venues       []string    `json:"venues"`
	Denoms       []SwapDenom `json:"denoms"`
	SlippageBps  int         `json:"slippageBps"`
}

// LeaseConfigResponse is one protocol's lease configuration: its gated
// downpayment ranges and the overall min/max downpayment they span.
type LeaseConfigResponse struct {
	Protocol          string              `json:"protocol"`
	DownpaymentRanges []DownpaymentRange  `json:"downpaymentRanges"`
	MinDownpayment    string              `json:"minDownpayment"`
	MaxDownpayment    string              `json:"maxDownpayment"`
}

// DownpaymentRange is one asset's configured min/max downpayment.
type DownpaymentRange struct {
	AssetTicker string `json:"assetTicker"`
	MinAmount   string `json:"minAmount"`
	MaxAmount   string `json:"maxAmount"`
}

// GasFeeDenom is one accepted gas denom with its minimum price.
type GasFeeDenom struct {
	Denom    string `json:"denom"`
	MinPrice string `json:"minPrice"`
}

// GasFeeConfigResponse is the `gas_fee_config` cell's value.
type GasFeeConfigResponse struct {
	AcceptedDenoms []GasFeeDenom `json:"acceptedDenoms"`
	GasMultiplier  string        `json:"gasMultiplier"`
}

// GovProposal is one governance proposal summary.
type GovProposal struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	VotingEnd   string `json:"votingEnd,omitempty"`
	SubmitTime  string `json:"submitTime,omitempty"`
}

// GovProposalsResponse is the `gov_proposals` cell's value.
type GovProposalsResponse struct {
	Proposals []GovProposal `json:"proposals"`
}

// ZeroInterestConfig is the `zero_interest` cell's value: active
// promotional zero-interest campaigns.
type ZeroInterestConfig struct {
	Campaigns []ZeroInterestCampaign `json:"campaigns"`
}

// ZeroInterestCampaign is one campaign entry.
type ZeroInterestCampaign struct {
	Protocol  string `json:"protocol"`
	AssetTicker string `json:"assetTicker"`
	ExpiresAt string `json:"expiresAt"`
}
