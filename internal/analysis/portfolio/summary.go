// Package portfolio summarizes priced holdings into the concentration
// and composition figures the exposure scorer consumes.
package portfolio

import (
	"sort"
	"strings"

	"github.com/leaklens/leaklens/internal/solana"
)

const topHoldings = 3

// Token is one priced holding.
type Token struct {
	Symbol   string  `json:"symbol"`
	Mint     string  `json:"mint,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
	USDValue float64 `json:"usdValue"`
}

// Summary is the composition breakdown of a portfolio.
type Summary struct {
	Total            float64 `json:"total"`
	StablePct        float64 `json:"stablePct"`
	MemePct          float64 `json:"memePct"`
	TopConcentration float64 `json:"topConcentration"`
	TopTokens        []Token `json:"topTokens"`
}

// Empty reports whether there was nothing priced to summarize.
func (s Summary) Empty() bool { return s.Total <= 0 }

// Summarize computes stable share, meme share and top-3 concentration
// from priced holdings. totalHint stands in when individual token values
// sum to zero, which happens with partially priced portfolios.
func Summarize(tokens []Token, totalHint float64) Summary {
	var priced []Token
	for _, t := range tokens {
		if t.USDValue > 0 {
			priced = append(priced, t)
		}
	}

	total := 0.0
	for _, t := range priced {
		total += t.USDValue
	}
	if total <= 0 {
		total = totalHint
	}
	if total <= 0 {
		return Summary{}
	}

	var stable, meme float64
	for _, t := range priced {
		sym := strings.ToUpper(t.Symbol)
		if solana.IsStableSymbol(sym) {
			stable += t.USDValue
		}
		if isMemeSymbol(sym) {
			meme += t.USDValue
		}
	}

	sort.SliceStable(priced, func(a, b int) bool {
		if priced[a].USDValue != priced[b].USDValue {
			return priced[a].USDValue > priced[b].USDValue
		}
		return priced[a].Symbol < priced[b].Symbol
	})
	top := priced
	if len(top) > topHoldings {
		top = top[:topHoldings]
	}
	topValue := 0.0
	for _, t := range top {
		topValue += t.USDValue
	}

	summary := Summary{
		Total:            total,
		StablePct:        stable / total * 100,
		MemePct:          meme / total * 100,
		TopConcentration: topValue / total * 100,
	}
	for _, t := range top {
		summary.TopTokens = append(summary.TopTokens, Token{Symbol: t.Symbol, USDValue: t.USDValue})
	}
	return summary
}

func isMemeSymbol(sym string) bool {
	for _, m := range solana.MemeSymbols {
		if sym == m {
			return true
		}
	}
	return false
}
