package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/nolus-protocol/agg-gateway/internal/adapters"
	"github.com/nolus-protocol/agg-gateway/internal/apperr"
)

type handlers struct {
	deps Deps
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	apperr.WriteJSON(w, apperr.As(err))
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok", "cells": h.deps.Facade.HealthSummary()})
}

func (h *handlers) cacheStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.deps.Facade.HealthSummary())
}

func (h *handlers) appConfig(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.AppConfig()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) currencies(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.Currencies()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) prices(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.Prices()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) assets(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.GatedAssets()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) protocols(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.GatedProtocols()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) networks(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.GatedNetworks()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) pools(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.Pools()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) validators(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.Validators()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) statsOverview(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.StatsOverview()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) loansStats(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.LoansStats()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) swapConfig(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.SwapConfig()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) leaseConfigs(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.LeaseConfigs()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) gasFeeConfig(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.GasFeeConfig()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) govProposals(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.GovProposals()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

func (h *handlers) zeroInterest(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Facade.ZeroInterest()
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, v)
}

// balances validates the address query param before ever reaching the
// chain adapter — S4 requires no upstream call on a malformed address.
func (h *handlers) balances(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if err := adapters.ValidateBech32Address(address, ""); err != nil {
		writeErr(w, apperr.Validation("invalid bech32 address", "address"))
		return
	}

	balances, err := h.deps.Chain.GetAccountBalances(r.Context(), address)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]any{"balances": balances})
}

func (h *handlers) wsUpgrade(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Push.HandleUpgrade(w, r); err != nil {
		writeErr(w, err)
	}
}
