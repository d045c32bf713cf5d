// Package swap classifies transactions as economic swaps and extracts
// canonical swap events. Explicit protocol annotations win; delta
// inference is the fallback.
package swap

import (
	"github.com/leaklens/leaklens/internal/analysis/normalize"
	"github.com/leaklens/leaklens/internal/solana"
)

// Event is one canonical swap: the wallet gave amount_in of token_in and
// received amount_out of token_out. Created here, consumed once by the
// PnL ledger, never mutated.
type Event struct {
	Signature string  `json:"signature"`
	TokenIn   string  `json:"token_in"`
	AmountIn  float64 `json:"amount_in"`
	TokenOut  string  `json:"token_out"`
	AmountOut float64 `json:"amount_out"`
	Timestamp int64   `json:"timestamp"`
}

// Diagnostics counts per-transaction classification outcomes.
type Diagnostics struct {
	Explicit      int `json:"explicit"`
	Inferred      int `json:"inferred"`
	NoDeltas      int `json:"no_deltas"`
	NoSwapPattern int `json:"no_swap_pattern"`
	BadEvent      int `json:"bad_event"`
}

// Detect runs both strategies in priority order over the normalized batch.
// The first strategy to yield a valid event for a transaction wins; later
// strategies are not consulted for it.
func Detect(results []normalize.Result) ([]Event, Diagnostics) {
	var diag Diagnostics
	events := make([]Event, 0, len(results))

	for i := range results {
		res := &results[i]
		if explicit := fromExplicit(res, &diag); len(explicit) > 0 {
			diag.Explicit += len(explicit)
			events = append(events, explicit...)
			continue
		}
		if ev, ok := fromDeltas(res, &diag); ok {
			diag.Inferred++
			events = append(events, ev)
		}
	}
	return events, diag
}

// fromExplicit extracts pre-parsed swap events, resolving field names
// through the alias table. Events missing either asset or carrying a
// non-positive amount are rejected and counted.
func fromExplicit(res *normalize.Result, diag *Diagnostics) []Event {
	if len(res.Events) == 0 {
		return nil
	}
	out := make([]Event, 0, len(res.Events))
	for _, raw := range res.Events {
		ev := Event{
			Signature: stringField(raw, aliasSignature, res.Signature),
			TokenIn:   stringField(raw, aliasTokenIn, ""),
			TokenOut:  stringField(raw, aliasTokenOut, ""),
			AmountIn:  floatField(raw, aliasAmountIn),
			AmountOut: floatField(raw, aliasAmountOut),
			Timestamp: intField(raw, aliasTimestamp, res.Timestamp),
		}
		if ev.TokenIn == "" || ev.TokenOut == "" || ev.AmountIn <= 0 || ev.AmountOut <= 0 {
			diag.BadEvent++
			continue
		}
		out = append(out, ev)
	}
	return out
}

// fromDeltas infers a swap from the transaction's transfer deltas: at
// least one outflow and one inflow leg, dominant legs chosen by magnitude.
// A native-to-native pattern is fee/rent noise, not a swap.
func fromDeltas(res *normalize.Result, diag *Diagnostics) (Event, bool) {
	if len(res.Deltas) == 0 {
		diag.NoDeltas++
		return Event{}, false
	}

	var (
		tokenIn, tokenOut string
		deltaIn, deltaOut float64
		haveNeg, havePos  bool
	)
	// Deltas arrive sorted by mint, so ties resolve to the lexicographically
	// first asset and the choice is stable across runs.
	for _, d := range res.Deltas {
		if d.Amount < 0 && (!haveNeg || d.Amount < deltaIn) {
			tokenIn, deltaIn, haveNeg = d.Mint, d.Amount, true
		}
		if d.Amount > 0 && (!havePos || d.Amount > deltaOut) {
			tokenOut, deltaOut, havePos = d.Mint, d.Amount, true
		}
	}
	if !haveNeg || !havePos {
		diag.NoSwapPattern++
		return Event{}, false
	}
	if tokenIn == solana.WSOLMint && tokenOut == solana.WSOLMint {
		diag.NoSwapPattern++
		return Event{}, false
	}
	return Event{
		Signature: res.Signature,
		TokenIn:   tokenIn,
		AmountIn:  -deltaIn,
		TokenOut:  tokenOut,
		AmountOut: deltaOut,
		Timestamp: res.Timestamp,
	}, true
}
