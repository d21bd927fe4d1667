package adapters

import (
	"strings"

	"github.com/btcsuite/btcutil/bech32"

	"github.com/nolus-protocol/agg-gateway/internal/apperr"
)

// ValidateBech32Address checks that address decodes as bech32 and, when
// expectedHRP is non-empty, that its human-readable part matches. Edge
// handlers call this before consulting any cache — an invalid address
// never reaches the coalescer or the facade.
func ValidateBech32Address(address, expectedHRP string) error {
	if address == "" {
		return apperr.Validation("address is required", "address")
	}
	hrp, _, err := bech32.Decode(address)
	if err != nil {
		return apperr.Validation("address is not valid bech32", "address")
	}
	if expectedHRP != "" && !strings.EqualFold(hrp, expectedHRP) {
		return apperr.Validation("address has an unexpected prefix", "address")
	}
	return nil
}
