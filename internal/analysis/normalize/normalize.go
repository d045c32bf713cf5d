// Package normalize converts both upstream transaction shapes into one
// canonical per-asset delta representation for the analyzed wallet.
package normalize

import (
	"math"
	"sort"

	"github.com/leaklens/leaklens/internal/solana"
)

// Dust thresholds: movements at or below these magnitudes are rounding
// residue, not real transfers.
const (
	DustThreshold           = 1e-9
	SubAccountDustThreshold = 1e-12
)

// Native-flow attribution threshold for counterparty touches, in SOL.
const touchFlowThreshold = 0.001

// TransferDelta is the net signed movement of one asset for the analyzed
// wallet within one transaction. Immutable once produced.
type TransferDelta struct {
	Mint         string  `json:"mint"`
	Amount       float64 `json:"amount"`
	Signature    string  `json:"signature"`
	Timestamp    int64   `json:"timestamp"`
	Counterparty string  `json:"counterparty,omitempty"`
}

// Touch records one counterparty sighting for the graph builder. Native
// flows carry SOL amounts; token touches carry presence only.
type Touch struct {
	Address   string
	Timestamp int64
	Inflow    float64
	Outflow   float64
	Token     bool
	Fee       float64
	HasFee    bool
}

// Result is the normalized form of a single transaction.
type Result struct {
	Signature  string
	Timestamp  int64
	Fee        float64
	Deltas     []TransferDelta
	Touches    []Touch
	Events     solana.RawSwapEvents
	TxType     string
	TokenMarks []string
	Malformed  bool
}

// Diagnostics counts per-record outcomes so aggregates can be verified
// without the raw batch.
type Diagnostics struct {
	Records     int `json:"records"`
	Malformed   int `json:"malformed"`
	DustDropped int `json:"dust_dropped"`
}

// Batch normalizes whichever shape the batch carries.
func Batch(b *solana.Batch) ([]Result, Diagnostics) {
	if len(b.Enhanced) > 0 {
		return Enhanced(b.Wallet, b.Enhanced)
	}
	return Raw(b.Wallet, b.Raw)
}

// Enhanced normalizes indexer-parsed transactions. Transfers are already
// attributed to user accounts, so counterparties come straight from the
// transfer lists.
func Enhanced(wallet string, txs []solana.EnhancedTransaction) ([]Result, Diagnostics) {
	diag := Diagnostics{Records: len(txs)}
	results := make([]Result, 0, len(txs))

	for i := range txs {
		tx := &txs[i]
		res := Result{
			Signature: tx.Sig(),
			Timestamp: tx.Time(),
			Fee:       tx.Fee / solana.LamportsPerSOL,
			Events:    tx.Events.Swap,
			TxType:    tx.Type,
		}
		if res.Signature == "" || res.Timestamp == 0 {
			res.Malformed = true
			diag.Malformed++
			results = append(results, res)
			continue
		}

		deltas := map[string]float64{}
		for _, nt := range tx.NativeTransfers {
			from, to := nt.Sender(), nt.Recipient()
			amt := nt.Amount / solana.LamportsPerSOL
			if amt <= 0 || from == "" || to == "" {
				continue
			}
			switch {
			case to == wallet && from != wallet:
				deltas[solana.WSOLMint] += amt
				res.Touches = append(res.Touches, Touch{Address: from, Timestamp: res.Timestamp, Inflow: amt})
			case from == wallet && to != wallet:
				deltas[solana.WSOLMint] -= amt
				res.Touches = append(res.Touches, Touch{Address: to, Timestamp: res.Timestamp, Outflow: amt})
			}
		}
		for _, tt := range tx.TokenTransfers {
			if tt.Mint != "" {
				res.TokenMarks = append(res.TokenMarks, tt.Mint)
			}
			if tt.TokenSymbol != "" {
				res.TokenMarks = append(res.TokenMarks, tt.TokenSymbol)
			}
			from, to := tt.Sender(), tt.Recipient()
			if tt.Mint == "" || from == "" || to == "" {
				continue
			}
			amt := tt.UIAmount()
			if amt <= 0 {
				continue
			}
			switch {
			case to == wallet && from != wallet:
				deltas[tt.Mint] += amt
				res.Touches = append(res.Touches, Touch{Address: from, Timestamp: res.Timestamp, Token: true})
			case from == wallet && to != wallet:
				deltas[tt.Mint] -= amt
				res.Touches = append(res.Touches, Touch{Address: to, Timestamp: res.Timestamp, Token: true})
			}
		}

		res.Deltas = flatten(deltas, res.Signature, res.Timestamp, &diag)
		sortTouches(res.Touches)
		results = append(results, res)
	}
	return results, diag
}

// Raw normalizes raw-ledger transactions from pre/post balance snapshots.
// The native delta adds the fee back when the wallet paid it, so fee cost
// never contaminates the trading outcome.
func Raw(wallet string, txs []solana.RawTransaction) ([]Result, Diagnostics) {
	diag := Diagnostics{Records: len(txs)}
	results := make([]Result, 0, len(txs))

	for i := range txs {
		tx := &txs[i]
		res := Result{Signature: tx.Sig(), Timestamp: tx.BlockTime}
		if tx.Meta == nil || res.Timestamp == 0 {
			res.Malformed = true
			diag.Malformed++
			results = append(results, res)
			continue
		}
		res.Fee = float64(tx.Meta.Fee) / solana.LamportsPerSOL

		accounts := make([]string, len(tx.Body.Message.AccountKeys))
		walletIdx := -1
		for j, k := range tx.Body.Message.AccountKeys {
			accounts[j] = string(k)
			if accounts[j] == wallet && walletIdx < 0 {
				walletIdx = j
			}
		}

		deltas := map[string]float64{}
		var nativeDelta float64
		if walletIdx >= 0 && walletIdx < len(tx.Meta.PreBalances) && walletIdx < len(tx.Meta.PostBalances) {
			lamports := float64(tx.Meta.PostBalances[walletIdx]) - float64(tx.Meta.PreBalances[walletIdx])
			if walletIdx == 0 {
				// Fee payer: the fee left the balance but is not a transfer.
				lamports += float64(tx.Meta.Fee)
			}
			nativeDelta = lamports / solana.LamportsPerSOL
			deltas[solana.WSOLMint] = nativeDelta
		}

		for mint, d := range tokenDeltas(wallet, tx.Meta) {
			deltas[mint] += d
			res.TokenMarks = append(res.TokenMarks, mint)
		}
		sort.Strings(res.TokenMarks)

		res.Deltas = flatten(deltas, res.Signature, res.Timestamp, &diag)

		// Raw shape has no per-transfer attribution: every foreign account
		// key is a candidate counterparty, directed by the wallet's own
		// native delta.
		seen := map[string]bool{}
		for _, addr := range accounts {
			if addr == wallet || len(addr) < solana.MinAddressLen || seen[addr] {
				continue
			}
			seen[addr] = true
			touch := Touch{Address: addr, Timestamp: res.Timestamp, Fee: res.Fee, HasFee: true}
			if nativeDelta > touchFlowThreshold {
				touch.Inflow = nativeDelta
			} else if nativeDelta < -touchFlowThreshold {
				touch.Outflow = -nativeDelta
			}
			res.Touches = append(res.Touches, touch)
		}
		sortTouches(res.Touches)
		results = append(results, res)
	}
	return results, diag
}

// tokenDeltas computes post−pre per mint across the wallet's token
// sub-accounts, ignoring accounts owned by anyone else.
func tokenDeltas(wallet string, meta *solana.RawMeta) map[string]float64 {
	type subKey struct {
		mint string
		idx  int
	}
	toMap := func(items []solana.TokenBalance) map[subKey]float64 {
		m := map[subKey]float64{}
		for _, it := range items {
			if it.Owner != wallet || it.Mint == "" {
				continue
			}
			m[subKey{it.Mint, it.AccountIndex}] = it.UITokenAmount.Value()
		}
		return m
	}
	pre := toMap(meta.PreTokenBalances)
	post := toMap(meta.PostTokenBalances)

	out := map[string]float64{}
	for k := range pre {
		if _, ok := post[k]; !ok {
			post[k] = 0
		}
	}
	for k, postAmt := range post {
		d := postAmt - pre[k]
		if math.Abs(d) > SubAccountDustThreshold {
			out[k.mint] += d
		}
	}
	return out
}

// flatten turns the per-mint delta map into a deterministic slice, dropping
// dust-level residue.
func flatten(deltas map[string]float64, sig string, ts int64, diag *Diagnostics) []TransferDelta {
	mints := make([]string, 0, len(deltas))
	for mint := range deltas {
		mints = append(mints, mint)
	}
	sort.Strings(mints)

	out := make([]TransferDelta, 0, len(mints))
	for _, mint := range mints {
		d := deltas[mint]
		if math.Abs(d) <= DustThreshold {
			if d != 0 {
				diag.DustDropped++
			}
			continue
		}
		out = append(out, TransferDelta{Mint: mint, Amount: d, Signature: sig, Timestamp: ts})
	}
	return out
}

func sortTouches(touches []Touch) {
	sort.SliceStable(touches, func(i, j int) bool { return touches[i].Address < touches[j].Address })
}
