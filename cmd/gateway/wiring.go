package main

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/nolus-protocol/agg-gateway/internal/adapters"
	"github.com/nolus-protocol/agg-gateway/internal/cache"
	"github.com/nolus-protocol/agg-gateway/internal/chainevents"
	"github.com/nolus-protocol/agg-gateway/internal/config"
	"github.com/nolus-protocol/agg-gateway/internal/derive"
	"github.com/nolus-protocol/agg-gateway/internal/domain"
	"github.com/nolus-protocol/agg-gateway/internal/facade"
	"github.com/nolus-protocol/agg-gateway/internal/gatedconfig"
	"github.com/nolus-protocol/agg-gateway/internal/httpapi"
	gwmetrics "github.com/nolus-protocol/agg-gateway/internal/metrics"
	"github.com/nolus-protocol/agg-gateway/internal/push"
	"github.com/nolus-protocol/agg-gateway/internal/ratelimit"
	"github.com/nolus-protocol/agg-gateway/internal/refresh"
)

// app bundles every long-lived component serve needs to start. run
// stops them router first, then push sessions, then the refresh fleet
// and event client, mirroring the shutdown priority the gateway's
// cancellation policy requires.
type app struct {
	cfg *config.Config

	bundle       *cache.Bundle
	fleet        *refresh.Fleet
	events       *chainevents.Client
	push         *push.Server
	limiter      *ratelimit.Limiter
	writeLimiter *ratelimit.Limiter
	configStore  *gatedconfig.Store
	router       http.Handler

	// stop signals every component driven by a stop channel rather than a
	// context: the gated-config watcher and the push server's stale-session
	// reaper.
	stop chan struct{}
}

// wireApp constructs every component but starts nothing: RunEssentialWarmup,
// fleet.Run, events.Run, etc. are all the caller's responsibility so
// that serve and tests can sequence them differently.
func wireApp(cfg *config.Config) *app {
	httpClient := &http.Client{
		Timeout: cfg.UpstreamTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        128,
			MaxIdleConnsPerHost: 32,
			MaxConnsPerHost:     32,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	chain := adapters.NewChainClient(cfg.ChainRESTURL, httpClient)
	etl := adapters.NewETLClient(cfg.ETLBaseURL, httpClient)
	swap := adapters.NewSwapClient(cfg.SwapBaseURL, cfg.SwapAPIKey, httpClient)

	bundle := cache.NewBundle()
	configStore := gatedconfig.New(cfg.ConfigDir)
	pushServer := push.NewServer(cfg.WSMaxConnections)
	eventsClient := chainevents.New(cfg.ChainWSURL)
	metrics := gwmetrics.New()
	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	writeLimiter := ratelimit.New(cfg.RateLimitRPS/2, maxInt(1, cfg.RateLimitBurst/2))

	watcherStop := make(chan struct{})
	fleet := buildFleet(cfg, chain, etl, bundle, configStore, eventsClient, watcherStop)

	fac := facade.New(bundle)
	router := httpapi.NewRouter(httpapi.Deps{
		Facade:       fac,
		Chain:        chain,
		Swap:         swap,
		Push:         pushServer,
		Config:       configStore,
		Limiter:      limiter,
		WriteLimiter: writeLimiter,
		Metrics:      metrics,
		AdminAPIKey:  cfg.AdminAPIKey,
	})

	return &app{
		cfg:          cfg,
		bundle:       bundle,
		fleet:        fleet,
		events:       eventsClient,
		push:         pushServer,
		limiter:      limiter,
		writeLimiter: writeLimiter,
		configStore:  configStore,
		router:       router,
		stop:         watcherStop,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// notify performs a non-blocking send on every channel in chs, the same
// best-effort fan-out the chain-event client itself uses for its own
// subscriber broadcast.
func notify(chs ...chan struct{}) {
	for _, ch := range chs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// buildFleet wires one refresh.Task per cache cell. Derived cells share
// trigger channels with the cells that feed them, fed by a notify() call
// at the end of the upstream cell's own refresh function, so a change
// propagates without the derived task polling its inputs on every tick.
func buildFleet(
	cfg *config.Config,
	chain *adapters.ChainClient,
	etl *adapters.ETLClient,
	bundle *cache.Bundle,
	configStore *gatedconfig.Store,
	events *chainevents.Client,
	watcherStop chan struct{},
) *refresh.Fleet {
	fleet := refresh.NewFleet()

	gatedFileTrigger := make(chan struct{}, 1)
	_ = configStore.Watch(watcherStop, gatedFileTrigger)

	filterCtxTrigger := make(chan struct{}, 1)
	swapConfigTrigger := make(chan struct{}, 1)
	leaseConfigTrigger := make(chan struct{}, 1)
	gasFeeTrigger := make(chan struct{}, 1)
	govTrigger := make(chan struct{}, 1)
	currenciesTrigger := make(chan struct{}, 1)
	gatedViewsTrigger := make(chan struct{}, 1)
	protocolContractsTrigger := make(chan struct{}, 1)

	newBlock := events.SubscribeNewBlock(16)
	contractExec := events.SubscribeContractExec(16)

	pricesTrigger := make(chan struct{}, 1)
	go bridgeNewBlock(newBlock, pricesTrigger)
	go bridgeContractExec(contractExec, protocolContractsTrigger)

	fleet.Add(refresh.New("app_config", 5*time.Minute, func(ctx context.Context) error {
		protocols, err := etl.FetchProtocols(ctx)
		if err != nil {
			return err
		}
		gated, _ := bundle.GatedConfig.Load()
		bundle.AppConfig.Store(buildAppConfig(cfg, protocols, gated))
		return nil
	}))

	fleet.Add(refresh.New("protocol_contracts", 5*time.Minute, func(ctx context.Context) error {
		return refreshProtocolContracts(ctx, chain, cfg.AdminContractAddress, bundle)
	}).WithTrigger(protocolContractsTrigger))

	fleet.Add(refresh.New("currencies", 60*time.Second, func(ctx context.Context) error {
		raw, err := etl.FetchCurrencies(ctx)
		if err != nil {
			return err
		}
		gated, _ := bundle.GatedConfig.Load()
		bundle.Currencies.Store(buildCurrencies(raw, gated))
		return nil
	}).WithTrigger(currenciesTrigger))

	fleet.Add(refresh.New("prices", 30*time.Second, func(ctx context.Context) error {
		raw, err := etl.FetchPrices(ctx)
		if err != nil {
			return err
		}
		bundle.Prices.Store(buildPrices(raw))
		return nil
	}).WithTrigger(pricesTrigger))

	fleet.Add(refresh.New("gated_config", 30*time.Second, func(ctx context.Context) error {
		loaded, err := configStore.Load()
		if err != nil {
			return err
		}
		bundle.GatedConfig.Store(loaded)
		notify(filterCtxTrigger, swapConfigTrigger, leaseConfigTrigger, gasFeeTrigger, govTrigger, currenciesTrigger)
		return nil
	}).WithTrigger(gatedFileTrigger))

	fleet.Add(refresh.New("filter_context", 60*time.Second, func(ctx context.Context) error {
		protocols, err := etl.FetchProtocols(ctx)
		if err != nil {
			return err
		}
		gated, _ := bundle.GatedConfig.Load()
		bundle.FilterContext.Store(derive.BuildFilterContext(protocols, gated))
		notify(gatedViewsTrigger)
		return nil
	}).WithTrigger(filterCtxTrigger))

	fleet.Add(refresh.New("pools", 60*time.Second, func(ctx context.Context) error {
		raw, err := etl.FetchPools(ctx)
		if err != nil {
			return err
		}
		bundle.Pools.Store(convertPools(raw))
		return nil
	}))

	fleet.Add(refresh.New("validators", 60*time.Second, func(ctx context.Context) error {
		raw, err := etl.FetchValidators(ctx)
		if err != nil {
			return err
		}
		bundle.Validators.Store(convertValidators(raw))
		return nil
	}))

	fleet.Add(refresh.New("gated_assets", 60*time.Second, func(ctx context.Context) error {
		currencies, _ := bundle.Currencies.Load()
		appConfig, _ := bundle.AppConfig.Load()
		filter, _ := bundle.FilterContext.Load()
		gated, _ := bundle.GatedConfig.Load()
		prices, _ := bundle.Prices.Load()
		bundle.GatedAssets.Store(derive.BuildGatedAssets(currencies, appConfig.Protocols, filter, gated, prices))
		return nil
	}).WithTrigger(gatedViewsTrigger))

	fleet.Add(refresh.New("gated_protocols", 60*time.Second, func(ctx context.Context) error {
		appConfig, _ := bundle.AppConfig.Load()
		filter, _ := bundle.FilterContext.Load()
		gated, _ := bundle.GatedConfig.Load()
		pools, _ := bundle.Pools.Load()
		bundle.GatedProtocols.Store(derive.BuildGatedProtocols(appConfig.Protocols, filter, gated, pools))
		return nil
	}).WithTrigger(gatedViewsTrigger))

	fleet.Add(refresh.New("gated_networks", 60*time.Second, func(ctx context.Context) error {
		appConfig, _ := bundle.AppConfig.Load()
		gated, _ := bundle.GatedConfig.Load()
		bundle.GatedNetworks.Store(derive.BuildGatedNetworks(appConfig.Networks, gated))
		return nil
	}).WithTrigger(gatedViewsTrigger))

	fleet.Add(refresh.New("stats_overview", 90*time.Second, func(ctx context.Context) error {
		tvl, vol, buyback, revenue, pnl, err := etl.FetchStatsOverview(ctx)
		if err != nil {
			return err
		}
		bundle.StatsOverview.Store(domain.StatsOverviewBatch{
			TVLUsd:       tvl.TVLUsd,
			VolumeUsd24h: vol.VolumeUsd24h,
			BuybackUsd:   buyback.BuybackUsd,
			RevenueUsd:   revenue.RevenueUsd,
			PnlUsd:       pnl.PnlUsd,
		})
		return nil
	}))

	fleet.Add(refresh.New("loans_stats", 90*time.Second, func(ctx context.Context) error {
		posVal, openInterest, err := etl.FetchLoansStats(ctx)
		if err != nil {
			return err
		}
		bundle.LoansStats.Store(domain.LoansStatsBatch{
			OpenPositionValueUsd: posVal.OpenPositionValueUsd,
			OpenInterestUsd:      openInterest.OpenInterestUsd,
			OpenLeasesCount:      openInterest.OpenLeasesCount,
		})
		return nil
	}))

	fleet.Add(refresh.New("swap_config", 60*time.Second, func(ctx context.Context) error {
		gated, _ := bundle.GatedConfig.Load()
		currencies, _ := bundle.Currencies.Load()
		bundle.SwapConfig.Store(buildSwapConfig(gated, currencies))
		return nil
	}).WithTrigger(swapConfigTrigger))

	fleet.Add(refresh.New("lease_configs", 60*time.Second, func(ctx context.Context) error {
		gated, _ := bundle.GatedConfig.Load()
		appConfig, _ := bundle.AppConfig.Load()
		bundle.LeaseConfigs.Store(buildLeaseConfigs(gated, appConfig.Protocols))
		return nil
	}).WithTrigger(leaseConfigTrigger))

	fleet.Add(refresh.New("gas_fee_config", 60*time.Second, func(ctx context.Context) error {
		gated, _ := bundle.GatedConfig.Load()
		bundle.GasFeeConfig.Store(buildGasFeeConfig(gated))
		return nil
	}).WithTrigger(gasFeeTrigger))

	fleet.Add(refresh.New("gov_proposals", 120*time.Second, func(ctx context.Context) error {
		raw, err := chain.GetGovProposals(ctx)
		if err != nil {
			return err
		}
		gated, _ := bundle.GatedConfig.Load()
		bundle.GovProposals.Store(buildGovProposals(raw, gated))
		return nil
	}).WithTrigger(govTrigger))

	fleet.Add(refresh.New("zero_interest", 120*time.Second, func(ctx context.Context) error {
		campaigns, err := etl.FetchZeroInterestCampaigns(ctx)
		if err != nil {
			return err
		}
		bundle.ZeroInterest.Store(buildZeroInterest(campaigns))
		return nil
	}))

	return fleet
}

func bridgeNewBlock(in <-chan chainevents.NewBlockEvent, out chan struct{}) {
	for range in {
		notify(out)
	}
}

func bridgeContractExec(in <-chan chainevents.ContractExecEvent, out chan struct{}) {
	for range in {
		notify(out)
	}
}

func refreshProtocolContracts(ctx context.Context, chain *adapters.ChainClient, adminAddress string, bundle *cache.Bundle) error {
	names, err := chain.GetAdminProtocols(ctx, adminAddress)
	if err != nil {
		return err
	}
	out := make(domain.ProtocolContractsMap, len(names))
	for _, name := range names {
		contracts, err := chain.GetAdminProtocol(ctx, adminAddress, name)
		if err != nil {
			return err
		}
		out[name] = domain.ProtocolContractsInfo{
			Protocol: name,
			Oracle:   contracts.Oracle,
			LPP:      contracts.LPP,
			Leaser:   contracts.Leaser,
			Profit:   contracts.Profit,
		}
	}
	bundle.ProtocolContracts.Store(out)
	return nil
}

func buildAppConfig(cfg *config.Config, raw []adapters.EtlProtocol, gated derive.GatedConfigBundle) domain.AppConfigResponse {
	protocols := make([]domain.ProtocolInfo, 0, len(raw))
	networkKeys := make(map[string]struct{})
	for _, p := range raw {
		protocols = append(protocols, domain.ProtocolInfo{
			Name:         p.Name,
			Network:      p.Network,
			LPNSymbol:    p.LPNSymbol,
			PositionType: p.PositionType,
			IsActive:     p.IsActive,
		})
		networkKeys[p.Network] = struct{}{}
	}

	networks := make([]domain.NetworkInfo, 0, len(networkKeys))
	for key := range networkKeys {
		settings := gated.NetworkConfig.Networks[strings.ToUpper(key)]
		networks = append(networks, domain.NetworkInfo{
			Key:             key,
			RPC:             settings.RPC,
			LCD:             settings.LCD,
			GasPrice:        settings.GasPrice,
			ExplorerURL:     settings.ExplorerURL,
			PrimaryProtocol: settings.PrimaryProtocol,
		})
	}

	return domain.AppConfigResponse{
		Protocols: protocols,
		Networks:  networks,
		NativeAsset: domain.NativeAssetInfo{
			Ticker:   cfg.NativeAssetTicker,
			Denom:    cfg.NativeAssetDenom,
			Decimals: cfg.NativeAssetDecimals,
		},
	}
}

func buildCurrencies(raw []adapters.EtlCurrency, gated derive.GatedConfigBundle) domain.CurrenciesResponse {
	out := make(map[string]domain.CurrencyInfo, len(raw))
	for _, c := range raw {
		info := domain.CurrencyInfo{
			Ticker:        c.Ticker,
			BankSymbol:    c.BankSymbol,
			DecimalDigits: c.DecimalDigits,
			Group:         c.Group,
		}
		if display, ok := gated.CurrencyDisplay.Currencies[c.Ticker]; ok {
			info.Icon = display.IconURL
			info.DisplayName = display.DisplayName
			info.Color = display.Color
			info.CoingeckoID = display.CoingeckoID
		}
		out[c.Ticker] = info
	}
	return domain.CurrenciesResponse{Currencies: out}
}

func buildPrices(raw []adapters.EtlPrice) domain.PricesResponse {
	out := make(map[string]domain.PriceInfo, len(raw))
	for _, p := range raw {
		out[p.Ticker+"@"+p.Protocol] = domain.PriceInfo{
			Ticker:   p.Ticker,
			Protocol: p.Protocol,
			PriceUSD: p.PriceUSD,
		}
	}
	return domain.PricesResponse{Prices: out, UpdatedAt: time.Now().UTC().Format(time.RFC3339)}
}

func convertPools(raw []adapters.EtlPool) []domain.EarnPool {
	out := make([]domain.EarnPool, len(raw))
	for i, p := range raw {
		out[i] = domain.EarnPool{
			PoolID:      p.PoolID,
			Protocol:    p.Protocol,
			APR:         p.APR,
			Utilization: p.Utilization,
			Supplied:    p.Supplied,
			Borrowed:    p.Borrowed,
		}
	}
	return out
}

func convertValidators(raw []adapters.EtlValidator) []domain.Validator {
	out := make([]domain.Validator, len(raw))
	for i, v := range raw {
		out[i] = domain.Validator{
			OperatorAddress: v.OperatorAddress,
			Moniker:         v.Moniker,
			VotingPower:     v.VotingPower,
			Commission:      v.Commission,
			Jailed:          v.Jailed,
		}
	}
	return out
}

func buildSwapConfig(gated derive.GatedConfigBundle, currencies domain.CurrenciesResponse) domain.SwapConfigResponse {
	blacklist := make(map[string]struct{}, len(gated.SwapSettings.Blacklist))
	for _, denom := range gated.SwapSettings.Blacklist {
		blacklist[denom] = struct{}{}
	}

	denoms := make([]domain.SwapDenom, 0, len(currencies.Currencies))
	for ticker, c := range currencies.Currencies {
		if c.BankSymbol == "" {
			continue
		}
		if _, blocked := blacklist[c.BankSymbol]; blocked {
			continue
		}
		denoms = append(denoms, domain.SwapDenom{Ticker: ticker, Denom: c.BankSymbol, Chain: "nolus"})
	}

	return domain.SwapConfigResponse{
		Enabled:     gated.SwapSettings.Enabled,
		Venues:      gated.SwapSettings.Venues,
		Denoms:      denoms,
		SlippageBps: gated.SwapSettings.SlippageBps,
	}
}

func buildLeaseConfigs(gated derive.GatedConfigBundle, protocols []domain.ProtocolInfo) map[string]domain.LeaseConfigResponse {
	out := make(map[string]domain.LeaseConfigResponse, len(protocols))
	for _, p := range protocols {
		ranges := gated.LeaseRules.DownpaymentRanges[p.Name]
		cfg := domain.LeaseConfigResponse{Protocol: p.Name, DownpaymentRanges: ranges}
		if len(ranges) > 0 {
			cfg.MinDownpayment = ranges[0].MinAmount
			cfg.MaxDownpayment = ranges[len(ranges)-1].MaxAmount
		}
		out[p.Name] = cfg
	}
	return out
}

var gasPriceRe = regexp.MustCompile(`^([0-9.]+)([a-zA-Z/][a-zA-Z0-9/]*)$`)

// parseGasPrice splits a Cosmos SDK "minimum-gas-prices" style string
// such as "0.025unls" into its numeric and denom parts.
func parseGasPrice(raw string) (minPrice, denom string, ok bool) {
	m := gasPriceRe.FindStringSubmatch(raw)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func buildGasFeeConfig(gated derive.GatedConfigBundle) domain.GasFeeConfigResponse {
	seen := make(map[string]struct{})
	var denoms []domain.GasFeeDenom
	multiplier := "1.0"
	for _, settings := range gated.NetworkConfig.Networks {
		if settings.GasMultiplier != "" {
			multiplier = settings.GasMultiplier
		}
		minPrice, denom, ok := parseGasPrice(settings.GasPrice)
		if !ok {
			continue
		}
		if _, dup := seen[denom]; dup {
			continue
		}
		seen[denom] = struct{}{}
		denoms = append(denoms, domain.GasFeeDenom{Denom: denom, MinPrice: minPrice})
	}
	return domain.GasFeeConfigResponse{AcceptedDenoms: denoms, GasMultiplier: multiplier}
}

func buildGovProposals(raw []adapters.GovProposal, gated derive.GatedConfigBundle) domain.GovProposalsResponse {
	hidden := make(map[string]struct{}, len(gated.UISettings.HiddenProposalIDs))
	for _, id := range gated.UISettings.HiddenProposalIDs {
		hidden[id] = struct{}{}
	}
	out := make([]domain.GovProposal, 0, len(raw))
	for _, p := range raw {
		if _, skip := hidden[p.ProposalID]; skip {
			continue
		}
		out = append(out, domain.GovProposal{
			ID:         p.ProposalID,
			Title:      p.Content.Title,
			Status:     p.Status,
			VotingEnd:  p.VotingEndTime,
			SubmitTime: p.SubmitTime,
		})
	}
	return domain.GovProposalsResponse{Proposals: out}
}

func buildZeroInterest(raw []adapters.EtlZeroInterestCampaign) domain.ZeroInterestConfig {
	out := make([]domain.ZeroInterestCampaign, len(raw))
	for i, c := range raw {
		out[i] = domain.ZeroInterestCampaign{
			Protocol:    c.Protocol,
			AssetTicker: c.AssetTicker,
			ExpiresAt:   c.ExpiresAt,
		}
	}
	return domain.ZeroInterestConfig{Campaigns: out}
}
