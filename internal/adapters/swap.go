package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nolus-protocol/agg-gateway/internal/apperr"
)

// SwapClient talks to the cross-chain swap routing API ("Skip"-style)
// used to quote and track swaps between chains.
type SwapClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logrus.Entry
}

// NewSwapClient builds a client against the given routing API base URL.
// apiKey may be empty when the upstream does not require authentication.
func NewSwapClient(baseURL, apiKey string, httpClient *http.Client) *SwapClient {
	return &SwapClient{baseURL: baseURL, apiKey: apiKey, http: httpClient, log: logrus.WithField("component", "swap")}
}

func (c *SwapClient) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return apperr.Internal("failed to encode swap request", err)
		}
		body = bytes.NewReader(raw)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return apperr.ExternalAPI("swap", 0, err.Error(), err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.ExternalAPI("swap", 0, err.Error(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.ExternalAPI("swap", resp.StatusCode, "failed reading body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithFields(logrus.Fields{"path": path, "status": resp.StatusCode}).Warn("swap request failed")
		return apperr.ExternalAPI("swap", resp.StatusCode, string(respBody), nil)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperr.Decode("swap", err)
	}
	return nil
}

// SwapRouteRequest asks for a quote between two chain-qualified denoms.
type SwapRouteRequest struct {
	SourceAssetDenom      string `json:"source_asset_denom"`
	SourceAssetChainID    string `json:"source_asset_chain_id"`
	DestAssetDenom        string `json:"dest_asset_denom"`
	DestAssetChainID      string `json:"dest_asset_chain_id"`
	AmountIn              string `json:"amount_in"`
}

// SwapRouteResponse is the quote returned for a SwapRouteRequest.
type SwapRouteResponse struct {
	AmountOut   string   `json:"amount_out"`
	OperationsSummary []string `json:"operations,omitempty"`
}

// Quote fetches a swap route quote.
func (c *SwapClient) Quote(ctx context.Context, req SwapRouteRequest) (SwapRouteResponse, error) {
	var out SwapRouteResponse
	err := c.do(ctx, http.MethodPost, "v2/fungible/route", req, &out)
	return out, err
}

// SwapMessagesRequest asks the routing API to build the transaction
// messages implementing a previously quoted route.
type SwapMessagesRequest struct {
	SourceAssetDenom   string `json:"source_asset_denom"`
	DestAssetDenom     string `json:"dest_asset_denom"`
	AmountIn           string `json:"amount_in"`
	AddressList        []string `json:"address_list"`
	SlippageTolerancePercent string `json:"slippage_tolerance_percent"`
}

// SwapMessagesResponse carries the chain messages a wallet must sign to
// execute the swap.
type SwapMessagesResponse struct {
	Msgs []json.RawMessage `json:"msgs"`
}

// BuildMessages fetches the transaction messages for an already-quoted
// swap route.
func (c *SwapClient) BuildMessages(ctx context.Context, req SwapMessagesRequest) (SwapMessagesResponse, error) {
	var out SwapMessagesResponse
	err := c.do(ctx, http.MethodPost, "v2/fungible/msgs", req, &out)
	return out, err
}

// SwapStatusResponse reports the on-chain progress of a tracked swap.
type SwapStatusResponse struct {
	State string `json:"state"`
}

// Status fetches the status of a previously submitted swap by its
// tracking ID.
func (c *SwapClient) Status(ctx context.Context, trackingID string) (SwapStatusResponse, error) {
	var out SwapStatusResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("v2/tx/status?tx_hash=%s", trackingID), nil, &out)
	return out, err
}
