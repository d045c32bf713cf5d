// Package income aggregates non-trading inflows: native SOL received,
// stable tokens received, and other token receipts. Swaps are excluded
// since those are trading flow, not income.
package income

import (
	"strings"

	"github.com/leaklens/leaklens/internal/solana"
)

// SOLReceived aggregates incoming native transfers.
type SOLReceived struct {
	Count    int     `json:"count"`
	TotalSOL float64 `json:"total_sol"`
}

// StableReceived aggregates incoming stable-token transfers in stable units.
type StableReceived struct {
	Count       int     `json:"count"`
	TotalStable float64 `json:"total_stable"`
}

// TokensReceived counts other token receipts and distinct mints.
type TokensReceived struct {
	Count       int `json:"count"`
	UniqueMints int `json:"unique_mints"`
}

// Sources is the factual income aggregate for a wallet. No attribution
// of who the senders are, only what arrived.
type Sources struct {
	SOL    SOLReceived    `json:"sol_received"`
	Stable StableReceived `json:"stable_received"`
	Tokens TokensReceived `json:"tokens_received"`
}

// StableDetected reports whether any stable income arrived. Feeds the
// income exposure signal.
func (s Sources) StableDetected() bool {
	return s.Stable.Count > 0 || s.Stable.TotalStable > 0
}

// FromEnhanced aggregates inflows across a parsed-shape batch.
func FromEnhanced(wallet string, txs []solana.EnhancedTransaction) Sources {
	var src Sources
	mints := map[string]struct{}{}

	for i := range txs {
		tx := &txs[i]
		if tx.Type == "SWAP" || len(tx.Events.Swap) > 0 {
			continue
		}

		for _, nt := range tx.NativeTransfers {
			if nt.Recipient() != wallet {
				continue
			}
			amt := nt.Amount / solana.LamportsPerSOL
			if amt > 0 {
				src.SOL.Count++
				src.SOL.TotalSOL += amt
			}
		}

		for _, tt := range tx.TokenTransfers {
			if tt.Recipient() != wallet {
				continue
			}
			amt := tt.UIAmount()
			if amt <= 0 {
				continue
			}
			if solana.IsStableMint(tt.Mint) || solana.IsStableSymbol(strings.ToUpper(tt.TokenSymbol)) {
				src.Stable.Count++
				src.Stable.TotalStable += amt
			} else if tt.Mint != "" {
				src.Tokens.Count++
				mints[tt.Mint] = struct{}{}
			}
		}
	}

	src.Tokens.UniqueMints = len(mints)
	return src
}
