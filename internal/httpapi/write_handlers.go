package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nolus-protocol/agg-gateway/internal/adapters"
	"github.com/nolus-protocol/agg-gateway/internal/apperr"
	"github.com/nolus-protocol/agg-gateway/internal/gatedconfig"
)

// decodeBody parses the request body as JSON into dst, returning a
// VALIDATION_FAILED apperr on malformed input.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("malformed request body", "body")
	}
	return nil
}

// swapQuote proxies a swap-route quote request. It builds a quote, it
// never signs or submits anything.
func (h *handlers) swapQuote(w http.ResponseWriter, r *http.Request) {
	var req adapters.SwapRouteRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	resp, err := h.deps.Swap.Quote(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, resp)
}

// swapMessages proxies message-building for a previously quoted route.
func (h *handlers) swapMessages(w http.ResponseWriter, r *http.Request) {
	var req adapters.SwapMessagesRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	resp, err := h.deps.Swap.BuildMessages(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, resp)
}

// swapStatus reports the status of a previously submitted swap by its
// tracking id.
func (h *handlers) swapStatus(w http.ResponseWriter, r *http.Request) {
	trackingID := r.URL.Query().Get("trackingId")
	if trackingID == "" {
		writeErr(w, apperr.Validation("trackingId is required", "trackingId"))
		return
	}
	resp, err := h.deps.Swap.Status(r.Context(), trackingID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, resp)
}

type leaseQuoteRequest struct {
	LPPAddress  string `json:"lppAddress"`
	Downpayment string `json:"downpayment"`
}

// leaseQuote queries a protocol's LPP contract for a borrow-rate quote
// on the requested downpayment. It builds no transaction — chain
// writes are always left to the wallet the frontend already owns.
func (h *handlers) leaseQuote(w http.ResponseWriter, r *http.Request) {
	var req leaseQuoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.LPPAddress == "" || req.Downpayment == "" {
		writeErr(w, apperr.Validation("lppAddress and downpayment are required", "lppAddress"))
		return
	}

	quote, err := h.deps.Chain.QueryLppQuote(r.Context(), req.LPPAddress, req.Downpayment)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, quote)
}

// putGatedConfig lets an authenticated admin overwrite one of the 5
// gated-config files. The fsnotify watcher picks up the resulting
// rename and triggers a filter_context recompute.
func (h *handlers) putGatedConfig(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	if !isKnownGatedConfigFile(file) {
		writeErr(w, apperr.NotFound("gated config file"))
		return
	}

	var value map[string]any
	if err := decodeBody(r, &value); err != nil {
		writeErr(w, err)
		return
	}

	if err := h.deps.Config.WriteAtomic(file, value); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isKnownGatedConfigFile(name string) bool {
	switch name {
	case gatedconfig.CurrencyDisplayFile, gatedconfig.NetworkConfigFile,
		gatedconfig.LeaseRulesFile, gatedconfig.SwapSettingsFile, gatedconfig.UISettingsFile:
		return true
	default:
		return false
	}
}
