package graph

import (
	"strings"

	"github.com/leaklens/leaklens/internal/analysis/normalize"
	"github.com/leaklens/leaklens/internal/solana"
)

// Node taxonomy.
const (
	NodeExchange = "exchange"
	NodeDEX      = "dex"
	NodeDeFi     = "defi"
	NodeMemecoin = "memecoin"
	NodeUnknown  = "unknown"
)

// memeScanWindow limits the meme-activity heuristic to the most recent
// transactions of the batch.
const (
	memeScanWindow = 50
	memeMinMatches = 3
)

// Classification describes what kind of entity an address is.
type Classification struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	RiskLevel   string `json:"risk_level"`
	Description string `json:"description"`
}

// Classify maps an address onto the fixed taxonomy: static allow-lists
// first, then the batch-level memecoin heuristic, then unknown.
func Classify(addr string, memeActive bool) Classification {
	switch {
	case solana.KnownExchanges[addr]:
		return Classification{
			Type:        NodeExchange,
			Label:       "Exchange/KYC",
			RiskLevel:   "high",
			Description: "Centralized exchange (KYC required)",
		}
	case solana.KnownDEXPrograms[addr]:
		return Classification{
			Type:        NodeDEX,
			Label:       "DEX",
			RiskLevel:   "medium",
			Description: "Decentralized exchange",
		}
	case solana.KnownDeFiProtocols[addr]:
		return Classification{
			Type:        NodeDeFi,
			Label:       "DeFi Protocol",
			RiskLevel:   "low",
			Description: "DeFi protocol",
		}
	case memeActive:
		return Classification{
			Type:        NodeMemecoin,
			Label:       "Memecoin",
			RiskLevel:   "medium",
			Description: "Memecoin activity detected",
		}
	}
	return Classification{
		Type:        NodeUnknown,
		Label:       "Unknown",
		RiskLevel:   "low",
		Description: "Unknown entity",
	}
}

// MemeActivity reports whether at least memeMinMatches of the most recent
// memeScanWindow transactions touch a known meme-asset symbol.
func MemeActivity(results []normalize.Result) bool {
	window := results
	if len(window) > memeScanWindow {
		window = window[:memeScanWindow]
	}
	matches := 0
	for i := range window {
		if touchesMeme(window[i].TokenMarks) {
			matches++
			if matches >= memeMinMatches {
				return true
			}
		}
	}
	return false
}

func touchesMeme(marks []string) bool {
	for _, mark := range marks {
		upper := strings.ToUpper(mark)
		for _, sym := range solana.MemeSymbols {
			if strings.Contains(upper, sym) {
				return true
			}
		}
	}
	return false
}
