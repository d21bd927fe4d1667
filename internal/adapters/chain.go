// Package adapters wraps every upstream HTTP dependency (the chain
// node's REST endpoint, the ETL service, the swap service) behind a
// small typed surface. Adapters never cache — that is the coalescer's
// and the refresh fleet's job — they only know how to turn one upstream
// call into a typed value or an *apperr.Error.
package adapters

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nolus-protocol/agg-gateway/internal/apperr"
)

// ChainClient queries CosmWasm contracts on the configured chain node
// via its REST LCD endpoint.
type ChainClient struct {
	restURL string
	http    *http.Client
	log     *logrus.Entry
}

// NewChainClient builds a client against the given LCD base URL.
func NewChainClient(restURL string, httpClient *http.Client) *ChainClient {
	return &ChainClient{
		restURL: restURL,
		http:    httpClient,
		log:     logrus.WithField("component", "chain"),
	}
}

// OracleCurrency is one currency entry from an Oracle contract's
// `currencies` query.
type OracleCurrency struct {
	Ticker        string `json:"ticker"`
	BankSymbol    string `json:"bank_symbol"`
	DecimalDigits uint8  `json:"decimal_digits"`
	Group         string `json:"group"`
}

// AmountInfo is a ticker/amount pair as returned inline by oracle price
// queries.
type AmountInfo struct {
	Ticker string `json:"ticker"`
	Amount string `json:"amount"`
}

// OraclePrice is one base/quote price pair.
type OraclePrice struct {
	Amount      AmountInfo `json:"amount"`
	AmountQuote AmountInfo `json:"amount_quote"`
}

// OraclePricesResponse is the Oracle contract's `prices` query result.
type OraclePricesResponse struct {
	Prices []OraclePrice `json:"prices"`
}

type queryEnvelope[T any] struct {
	Data T `json:"data"`
}

// queryContract base64-encodes query_msg and issues a CosmWasm smart
// query against contractAddress, unwrapping the `{"data": ...}`
// envelope the LCD always wraps smart-query results in.
func queryContract[T any](ctx context.Context, c *ChainClient, contractAddress string, queryMsg any) (T, error) {
	var zero T

	raw, err := json.Marshal(queryMsg)
	if err != nil {
		return zero, apperr.Internal("failed to encode contract query", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	url := fmt.Sprintf("%s/cosmwasm/wasm/v1/contract/%s/smart/%s", c.restURL, contractAddress, encoded)
	c.log.WithField("url", url).Debug("querying contract")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zero, apperr.ChainRPC("failed to build request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, apperr.ChainRPC(fmt.Sprintf("query failed: %s", err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, apperr.ChainRPC("failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithFields(logrus.Fields{"status": resp.StatusCode, "contract": contractAddress}).Error("contract query failed")
		return zero, apperr.ChainRPC(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)), nil)
	}

	var env queryEnvelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, apperr.Decode("chain", err)
	}
	return env.Data, nil
}

// GetOracleCurrencies queries the Oracle contract's currency list.
func (c *ChainClient) GetOracleCurrencies(ctx context.Context, oracleAddress string) ([]OracleCurrency, error) {
	return queryContract[[]OracleCurrency](ctx, c, oracleAddress, map[string]any{"currencies": map[string]any{}})
}

// GetOraclePrices queries the Oracle contract's current price list.
func (c *ChainClient) GetOraclePrices(ctx context.Context, oracleAddress string) (OraclePricesResponse, error) {
	return queryContract[OraclePricesResponse](ctx, c, oracleAddress, map[string]any{"prices": map[string]any{}})
}

// GetBaseCurrency queries the Oracle contract's configured base currency
// ticker.
func (c *ChainClient) GetBaseCurrency(ctx context.Context, oracleAddress string) (string, error) {
	var result struct {
		Ticker string `json:"ticker"`
	}
	raw, err := queryContract[json.RawMessage](ctx, c, oracleAddress, map[string]any{"base_currency": map[string]any{}})
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(raw, &result); err == nil && result.Ticker != "" {
		return result.Ticker, nil
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err != nil {
		return "", apperr.Decode("chain", err)
	}
	return plain, nil
}

// AdminProtocolContracts is the Admin contract's per-protocol contract
// address set.
type AdminProtocolContracts struct {
	Oracle  string `json:"oracle"`
	LPP     string `json:"lpp"`
	Leaser  string `json:"leaser"`
	Profit  string `json:"profit"`
	Reserve string `json:"reserve,omitempty"`
}

type adminProtocolResponse struct {
	Contracts AdminProtocolContracts `json:"contracts"`
}

// GetAdminProtocols queries the Admin contract's list of registered
// protocol names.
func (c *ChainClient) GetAdminProtocols(ctx context.Context, adminAddress string) ([]string, error) {
	return queryContract[[]string](ctx, c, adminAddress, map[string]any{"protocols": map[string]any{}})
}

// GetAdminProtocol queries the Admin contract for one protocol's
// contract address set.
func (c *ChainClient) GetAdminProtocol(ctx context.Context, adminAddress, protocol string) (AdminProtocolContracts, error) {
	resp, err := queryContract[adminProtocolResponse](ctx, c, adminAddress, map[string]any{"protocol": protocol})
	return resp.Contracts, err
}

// LppQuoteResult is the LPP contract's borrow-rate quote for one amount.
type LppQuoteResult struct {
	AnnualInterestRate string `json:"annual_interest_rate"`
	Borrow             string `json:"borrow"`
}

// QueryLppQuote queries an LPP contract's borrow quote for a given
// downpayment/borrow amount, used by the lease quote handler.
func (c *ChainClient) QueryLppQuote(ctx context.Context, lppAddress, downpayment string) (LppQuoteResult, error) {
	return queryContract[LppQuoteResult](ctx, c, lppAddress, map[string]any{
		"quote": map[string]any{"downpayment": map[string]any{"amount": downpayment}},
	})
}

// LppStateResult is the LPP contract's total-supplied/borrowed state.
type LppStateResult struct {
	Balance          string `json:"balance"`
	TotalPrincipalDueByNow string `json:"total_principal_due"`
	TotalInterestDueByNow  string `json:"total_interest_due"`
}

// QueryLppState queries an LPP contract's current pool state.
func (c *ChainClient) QueryLppState(ctx context.Context, lppAddress string) (LppStateResult, error) {
	return queryContract[LppStateResult](ctx, c, lppAddress, map[string]any{"lpp_balance": map[string]any{}})
}

// GovProposal mirrors one proposal entry returned by the chain's
// governance REST module (not a CosmWasm smart query — a plain LCD
// path).
type GovProposal struct {
	ProposalID string `json:"proposal_id"`
	Status     string `json:"status"`
	Content    struct {
		Title string `json:"title"`
	} `json:"content"`
	VotingEndTime string `json:"voting_end_time"`
	SubmitTime    string `json:"submit_time"`
}

// getJSON issues a plain (non-smart-query) GET against the LCD and
// decodes the JSON body into out.
func (c *ChainClient) getJSON(ctx context.Context, path string, out any) error {
	url := c.restURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperr.ChainRPC("failed to build request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.ChainRPC(fmt.Sprintf("query failed: %s", err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return apperr.ChainRPC(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Decode("chain", err)
	}
	return nil
}

// GetGovProposals fetches the governance module's proposal list directly
// (no base64 query wrapper; this is a plain REST path, not a smart
// query).
func (c *ChainClient) GetGovProposals(ctx context.Context) ([]GovProposal, error) {
	var parsed struct {
		Proposals []GovProposal `json:"proposals"`
	}
	if err := c.getJSON(ctx, "/cosmos/gov/v1beta1/proposals", &parsed); err != nil {
		return nil, err
	}
	return parsed.Proposals, nil
}

// Coin is a single denom/amount pair, the Cosmos SDK's standard balance
// shape.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// GetAccountBalances fetches all bank balances for a bech32 account
// address. Callers are expected to have already validated the address
// shape via ValidateBech32Address — this call still fails naturally
// (chain rejects it) if they have not.
func (c *ChainClient) GetAccountBalances(ctx context.Context, address string) ([]Coin, error) {
	var parsed struct {
		Balances []Coin `json:"balances"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/cosmos/bank/v1beta1/balances/%s", address), &parsed); err != nil {
		return nil, err
	}
	return parsed.Balances, nil
}
