// Package notable surfaces large native moves: transactions whose net
// SOL delta for the wallet exceeds one SOL. These are the transfers
// most likely to be shared or indexed publicly.
package notable

import (
	"fmt"
	"math"
	"sort"

	"github.com/leaklens/leaklens/internal/solana"
)

const (
	// thresholdSOL is the minimum absolute net move that counts.
	thresholdSOL = 1.0
	// maxReported caps the returned list.
	maxReported = 10
)

// Transaction is one notable native move.
type Transaction struct {
	Signature string  `json:"signature"`
	Amount    string  `json:"amount"`
	AmountRaw float64 `json:"amount_raw"`
	Type      string  `json:"type"`
	Timestamp int64   `json:"timestamp"`
	Delta     float64 `json:"delta"`
}

// Report lists the largest notable moves, descending by magnitude.
type Report struct {
	Count        int           `json:"count"`
	Transactions []Transaction `json:"transactions"`
}

// FromEnhanced scans a parsed-shape batch for large net native moves.
func FromEnhanced(wallet string, txs []solana.EnhancedTransaction) Report {
	var found []Transaction
	for i := range txs {
		tx := &txs[i]
		sig := tx.Sig()
		ts := tx.Time()
		if sig == "" || ts == 0 {
			continue
		}
		var in, out float64
		for _, nt := range tx.NativeTransfers {
			amt := nt.Amount / solana.LamportsPerSOL
			from, to := nt.Sender(), nt.Recipient()
			if to == wallet && from != wallet {
				in += amt
			} else if from == wallet && to != wallet {
				out += amt
			}
		}
		delta := in - out
		if math.Abs(delta) <= thresholdSOL {
			continue
		}
		kind := "large_transfer"
		if delta < 0 {
			kind = "large_withdrawal"
		}
		found = append(found, Transaction{
			Signature: sig,
			Amount:    fmt.Sprintf("%.4f SOL", math.Abs(delta)),
			AmountRaw: math.Abs(delta),
			Type:      kind,
			Timestamp: ts,
			Delta:     delta,
		})
	}

	sort.SliceStable(found, func(a, b int) bool {
		if found[a].AmountRaw != found[b].AmountRaw {
			return found[a].AmountRaw > found[b].AmountRaw
		}
		return found[a].Signature < found[b].Signature
	})
	if len(found) > maxReported {
		found = found[:maxReported]
	}
	return Report{Count: len(found), Transactions: found}
}
