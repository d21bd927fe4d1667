package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nolus-protocol/agg-gateway/internal/apperr"
)

// ETLClient talks to the blockchain ETL (extract-transform-load) service
// that aggregates pool, TVL, and revenue data the chain node itself does
// not expose cheaply.
type ETLClient struct {
	baseURL string
	http    *http.Client
	log     *logrus.Entry
}

// NewETLClient builds a client against the given ETL API base URL,
// appending "/api" the way the upstream service expects if the caller
// did not already include it.
func NewETLClient(baseURL string, httpClient *http.Client) *ETLClient {
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	return &ETLClient{baseURL: base, http: httpClient, log: logrus.WithField("component", "etl")}
}

func (c *ETLClient) get(ctx context.Context, endpoint string, out any) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	c.log.WithField("url", url).Debug("fetching")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperr.ExternalAPI("etl", 0, err.Error(), err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.ExternalAPI("etl", 0, err.Error(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.ExternalAPI("etl", resp.StatusCode, "failed reading body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithFields(logrus.Fields{"endpoint": endpoint, "status": resp.StatusCode}).Warn("etl request failed")
		return apperr.ExternalAPI("etl", resp.StatusCode, string(body), nil)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Decode("etl", err)
	}
	return nil
}

// EtlProtocol is one protocol entry from the ETL "protocols" endpoint.
type EtlProtocol struct {
	Name         string `json:"name"`
	Network      string `json:"network"`
	LPNSymbol    string `json:"lpnSymbol"`
	PositionType string `json:"positionType"`
	IsActive     bool   `json:"isActive"`
}

// FetchProtocols fetches the ETL's configured-protocol list.
func (c *ETLClient) FetchProtocols(ctx context.Context) ([]EtlProtocol, error) {
	var out []EtlProtocol
	err := c.get(ctx, "protocols", &out)
	return out, err
}

// EtlCurrency is one currency entry from the ETL "currencies" endpoint.
type EtlCurrency struct {
	Ticker        string `json:"ticker"`
	BankSymbol    string `json:"bankSymbol"`
	DecimalDigits uint8  `json:"decimalDigits"`
	Group         string `json:"group"`
}

// FetchCurrencies fetches the ETL's currency catalogue.
func (c *ETLClient) FetchCurrencies(ctx context.Context) ([]EtlCurrency, error) {
	var out []EtlCurrency
	err := c.get(ctx, "currencies", &out)
	return out, err
}

// EtlPrice is one price entry from the ETL "prices" endpoint.
type EtlPrice struct {
	Ticker   string `json:"ticker"`
	Protocol string `json:"protocol"`
	PriceUSD string `json:"priceUsd"`
}

// FetchPrices fetches the ETL's current price snapshot.
func (c *ETLClient) FetchPrices(ctx context.Context) ([]EtlPrice, error) {
	var out []EtlPrice
	err := c.get(ctx, "prices", &out)
	return out, err
}

// EtlPool is one liquidity pool entry from the ETL "pools" endpoint.
type EtlPool struct {
	PoolID      string `json:"poolId"`
	Protocol    string `json:"protocol"`
	APR         string `json:"apr"`
	Utilization string `json:"utilization"`
	Supplied    string `json:"supplied"`
	Borrowed    string `json:"borrowed"`
}

type etlPoolsResponse struct {
	Pools []EtlPool `json:"pools"`
}

// FetchPools fetches the ETL's liquidity pool snapshot.
func (c *ETLClient) FetchPools(ctx context.Context) ([]EtlPool, error) {
	var out etlPoolsResponse
	err := c.get(ctx, "pools", &out)
	return out.Pools, err
}

// EtlValidator is one validator entry from the ETL "validators" endpoint.
type EtlValidator struct {
	OperatorAddress string `json:"operatorAddress"`
	Moniker         string `json:"moniker"`
	VotingPower     string `json:"votingPower"`
	Commission      string `json:"commission"`
	Jailed          bool   `json:"jailed"`
}

// FetchValidators fetches the ETL's bonded-validator snapshot.
func (c *ETLClient) FetchValidators(ctx context.Context) ([]EtlValidator, error) {
	var out []EtlValidator
	err := c.get(ctx, "validators", &out)
	return out, err
}

// TVLResponse is the ETL "stats/tvl" endpoint result.
type TVLResponse struct {
	TVLUsd string `json:"tvlUsd"`
}

// TxVolumeResponse is the ETL "stats/volume" endpoint result.
type TxVolumeResponse struct {
	VolumeUsd24h string `json:"volumeUsd24h"`
}

// BuybackTotalResponse is the ETL "stats/buyback" endpoint result.
type BuybackTotalResponse struct {
	BuybackUsd string `json:"buybackUsd"`
}

// RevenueResponse is the ETL "stats/revenue" endpoint result.
type RevenueResponse struct {
	RevenueUsd string `json:"revenueUsd"`
}

// RealizedPnlStatsResponse is the ETL "stats/pnl" endpoint result.
type RealizedPnlStatsResponse struct {
	PnlUsd string `json:"pnlUsd"`
}

// FetchStatsOverview fetches the independent stats endpoints the overview
// batch combines; it issues them concurrently and fails only if all of
// them fail (partial data is better than none for a dashboard view).
func (c *ETLClient) FetchStatsOverview(ctx context.Context) (tvl TVLResponse, vol TxVolumeResponse, buyback BuybackTotalResponse, revenue RevenueResponse, pnl RealizedPnlStatsResponse, err error) {
	errs := make([]error, 5)
	var wg sync.WaitGroup
	wg.Add(5)
	go func() { defer wg.Done(); errs[0] = c.get(ctx, "stats/tvl", &tvl) }()
	go func() { defer wg.Done(); errs[1] = c.get(ctx, "stats/volume", &vol) }()
	go func() { defer wg.Done(); errs[2] = c.get(ctx, "stats/buyback", &buyback) }()
	go func() { defer wg.Done(); errs[3] = c.get(ctx, "stats/revenue", &revenue) }()
	go func() { defer wg.Done(); errs[4] = c.get(ctx, "stats/pnl", &pnl) }()
	wg.Wait()

	failures := 0
	var last error
	for _, e := range errs {
		if e != nil {
			failures++
			last = e
		}
	}
	if failures == len(errs) {
		return tvl, vol, buyback, revenue, pnl, last
	}
	return tvl, vol, buyback, revenue, pnl, nil
}

// OpenPositionValueResponse is the ETL "stats/open-position-value"
// endpoint result.
type OpenPositionValueResponse struct {
	OpenPositionValueUsd string `json:"openPositionValueUsd"`
}

// OpenInterestResponse is the ETL "stats/open-interest" endpoint result.
type OpenInterestResponse struct {
	OpenInterestUsd string `json:"openInterestUsd"`
	OpenLeasesCount int    `json:"openLeasesCount"`
}

// EtlZeroInterestCampaign is one active zero-interest promotional
// campaign, as reported by the ETL's zero-interest aggregate.
type EtlZeroInterestCampaign struct {
	Protocol    string `json:"protocol"`
	AssetTicker string `json:"assetTicker"`
	ExpiresAt   string `json:"expiresAt"`
}

type etlZeroInterestResponse struct {
	Campaigns []EtlZeroInterestCampaign `json:"campaigns"`
}

// FetchZeroInterestCampaigns fetches the currently active zero-interest
// promotional campaigns. Payment creation/cancellation is a write path
// against the upstream zero-interest service and out of scope for a
// read-aggregation gateway; only the read-only campaign list is cached.
func (c *ETLClient) FetchZeroInterestCampaigns(ctx context.Context) ([]EtlZeroInterestCampaign, error) {
	var out etlZeroInterestResponse
	err := c.get(ctx, "zero-interest/campaigns", &out)
	return out.Campaigns, err
}

// FetchLoansStats fetches the ETL's open-loans aggregate figures.
func (c *ETLClient) FetchLoansStats(ctx context.Context) (OpenPositionValueResponse, OpenInterestResponse, error) {
	var posVal OpenPositionValueResponse
	var openInterest OpenInterestResponse
	if err := c.get(ctx, "stats/open-position-value", &posVal); err != nil {
		return posVal, openInterest, err
	}
	if err := c.get(ctx, "stats/open-interest", &openInterest); err != nil {
		return posVal, openInterest, err
	}
	return posVal, openInterest, nil
}
