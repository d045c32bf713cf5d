// Package pnl computes realized profit/loss from swap events with FIFO
// cost-basis accounting, keyed by (traded asset, settlement denomination).
package pnl

import (
	"context"
	"sort"

	"github.com/leaklens/leaklens/internal/analysis/swap"
	"github.com/leaklens/leaklens/internal/solana"
)

// Epsilon tolerates floating residue in quantity comparisons.
const Epsilon = 1e-9

// Denomination is the settlement side of a swap.
type Denomination string

const (
	DenomStable Denomination = "STABLE"
	DenomNative Denomination = "NATIVE"
)

// Key scopes one FIFO inventory. Lots under one key are never consumed by
// swaps keyed differently; that is what keeps cost basis uncorrupted when
// the same token trades against both stables and the native asset.
type Key struct {
	Mint  string
	Denom Denomination
}

// lot is a parcel of inventory bought at one unit cost, in denomination units.
type lot struct {
	qty      float64
	unitCost float64
}

// PriceSource supplies USD prices for denomination conversion. The ledger
// degrades to flagged-zero USD figures when a price is unavailable; it
// never fails the run over pricing.
type PriceSource interface {
	// PriceAt returns the USD price of mint at the given unix time, or
	// ok=false when neither a historical nor a current price exists.
	PriceAt(ctx context.Context, mint string, unixtime int64) (price float64, ok bool)
}

// Row is the realized outcome for one ledger key.
type Row struct {
	Mint           string       `json:"mint"`
	Denomination   Denomination `json:"denomination"`
	Trades         int          `json:"trades"`
	Spent          float64      `json:"spent"`
	Received       float64      `json:"received"`
	RealizedPnL    float64      `json:"realized_pnl"`
	RealizedPnLUSD float64      `json:"realized_pnl_usd"`
}

// Totals aggregates realized P/L across all keys, split by denomination.
type Totals struct {
	DistinctPairs  int     `json:"distinct_pairs"`
	RealizedNative float64 `json:"realized_pnl_native"`
	RealizedStable float64 `json:"realized_pnl_stable"`
	RealizedUSD    float64 `json:"realized_pnl_usd"`
	USDAvailable   bool    `json:"usd_available"`
}

// Diagnostics counts discarded events so totals can be audited without
// the raw batch.
type Diagnostics struct {
	Parsed          int  `json:"parsed"`
	Skipped         int  `json:"skipped"`
	Unattributable  int  `json:"unattributable"`
	Oversold        int  `json:"oversold"`
	PriceMisses     int  `json:"price_misses"`
	HistoricalPrice bool `json:"historical_prices_available"`
}

// Report is the ledger output for one batch.
type Report struct {
	Totals      Totals      `json:"totals"`
	ByAsset     []Row       `json:"by_asset"`
	TopLosses   []Row       `json:"top_losses"`
	TopWins     []Row       `json:"top_wins"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

type keyStats struct {
	trades   int
	spent    float64
	received float64
}

// Ledger is single-use, request-scoped FIFO inventory state.
type Ledger struct {
	prices      PriceSource
	lots        map[Key][]lot
	realized    map[Key]float64
	realizedUSD map[Key]float64
	stats       map[Key]*keyStats
	diag        Diagnostics
}

// NewLedger creates an empty ledger bound to a price source.
func NewLedger(prices PriceSource) *Ledger {
	return &Ledger{
		prices:      prices,
		lots:        map[Key][]lot{},
		realized:    map[Key]float64{},
		realizedUSD: map[Key]float64{},
		stats:       map[Key]*keyStats{},
	}
}

// Process ingests the batch's swap events in non-decreasing timestamp order
// and returns the realized P/L report. FIFO correctness depends on that
// ordering, so events are sorted before ingesting regardless of input order.
func (l *Ledger) Process(ctx context.Context, events []swap.Event) Report {
	ordered := make([]swap.Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Timestamp != ordered[j].Timestamp {
			return ordered[i].Timestamp < ordered[j].Timestamp
		}
		return ordered[i].Signature < ordered[j].Signature
	})

	for _, ev := range ordered {
		l.ingest(ctx, ev)
	}
	return l.report()
}

func (l *Ledger) ingest(ctx context.Context, ev swap.Event) {
	if ev.TokenIn == "" || ev.TokenOut == "" || ev.AmountIn <= 0 || ev.AmountOut <= 0 {
		l.diag.Skipped++
		return
	}

	// Stable settlement wins over native when both sides qualify.
	var (
		key   Key
		buy   bool
		qty   float64
		total float64 // denomination units spent or received
	)
	switch {
	case solana.IsStableMint(ev.TokenIn):
		key, buy = Key{ev.TokenOut, DenomStable}, true
		qty, total = ev.AmountOut, ev.AmountIn
	case solana.IsStableMint(ev.TokenOut):
		key, buy = Key{ev.TokenIn, DenomStable}, false
		qty, total = ev.AmountIn, ev.AmountOut
	case ev.TokenIn == solana.WSOLMint:
		key, buy = Key{ev.TokenOut, DenomNative}, true
		qty, total = ev.AmountOut, ev.AmountIn
	case ev.TokenOut == solana.WSOLMint:
		key, buy = Key{ev.TokenIn, DenomNative}, false
		qty, total = ev.AmountIn, ev.AmountOut
	default:
		l.diag.Unattributable++
		return
	}

	l.diag.Parsed++
	st := l.stats[key]
	if st == nil {
		st = &keyStats{}
		l.stats[key] = st
	}
	st.trades++

	if buy {
		l.lots[key] = append(l.lots[key], lot{qty: qty, unitCost: total / qty})
		st.spent += total
		return
	}

	// Sell: consume lots first, then check coverage. An oversold sell has
	// unknown cost basis, so it realizes nothing, but the inventory it
	// touched stays consumed; the shortfall does not resurrect lots for
	// later sells.
	remaining := qty
	costBasis := 0.0
	inv := l.lots[key]
	for remaining > Epsilon && len(inv) > 0 {
		take := remaining
		if inv[0].qty < take {
			take = inv[0].qty
		}
		costBasis += take * inv[0].unitCost
		inv[0].qty -= take
		remaining -= take
		if inv[0].qty <= 1e-12 {
			inv = inv[1:]
		}
	}
	l.lots[key] = inv

	if remaining > Epsilon {
		l.diag.Oversold++
		return
	}

	realized := total - costBasis
	l.realized[key] += realized
	st.received += total

	usdPrice := 0.0
	if key.Denom == DenomStable {
		usdPrice = 1.0
	} else if price, ok := l.prices.PriceAt(ctx, solana.WSOLMint, ev.Timestamp); ok {
		usdPrice = price
		l.diag.HistoricalPrice = true
	} else {
		l.diag.PriceMisses++
	}
	l.realizedUSD[key] += realized * usdPrice
}

func (l *Ledger) report() Report {
	keys := make([]Key, 0, len(l.realized))
	for key := range l.realized {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Mint != keys[j].Mint {
			return keys[i].Mint < keys[j].Mint
		}
		return keys[i].Denom < keys[j].Denom
	})

	rows := make([]Row, 0, len(keys))
	totals := Totals{}
	for _, key := range keys {
		st := l.stats[key]
		row := Row{
			Mint:           key.Mint,
			Denomination:   key.Denom,
			Trades:         st.trades,
			Spent:          st.spent,
			Received:       st.received,
			RealizedPnL:    l.realized[key],
			RealizedPnLUSD: l.realizedUSD[key],
		}
		rows = append(rows, row)
		if key.Denom == DenomNative {
			totals.RealizedNative += row.RealizedPnL
		} else {
			totals.RealizedStable += row.RealizedPnL
		}
		totals.RealizedUSD += row.RealizedPnLUSD
	}
	totals.DistinctPairs = len(rows)
	totals.USDAvailable = l.diag.HistoricalPrice || totals.RealizedUSD != 0

	byUSD := make([]Row, len(rows))
	copy(byUSD, rows)
	sort.SliceStable(byUSD, func(i, j int) bool {
		return byUSD[i].RealizedPnLUSD < byUSD[j].RealizedPnLUSD
	})

	losses := topN(byUSD, 10)
	wins := topN(reverse(byUSD), 10)

	return Report{
		Totals:      totals,
		ByAsset:     rows,
		TopLosses:   losses,
		TopWins:     wins,
		Diagnostics: l.diag,
	}
}

func topN(rows []Row, n int) []Row {
	if len(rows) > n {
		rows = rows[:n]
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}

func reverse(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = r
	}
	return out
}
