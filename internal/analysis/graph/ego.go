// Package graph builds the scored counterparty ego-network for one wallet
// from the normalized transfer stream.
package graph

import (
	"fmt"
	"sort"

	"github.com/leaklens/leaklens/internal/analysis/normalize"
)

// Heuristic thresholds for counterparty scoring.
const (
	flowThreshold     = 0.01 // SOL; below this a flow is not evidence
	repeatThreshold   = 2    // interactions before the repetition bonus
	timingWindowSecs  = 3600 // mean gap under one hour earns the timing bonus
	feePatternMaxSet  = 2    // distinct fee values for the fee-pattern bonus
	maxRankedLinks    = 15
	maxReasonsPerEdge = 3
)

// Record accumulates everything observed about one counterparty during the
// scan. Request-scoped; discarded when the analysis returns.
type Record struct {
	Address    string
	Count      int
	Timestamps []int64
	Inflow     float64
	Outflow    float64
	Fees       []float64
	Reasons    []string
}

// Node is one vertex of the ego-network.
type Node struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Type        string  `json:"type"`
	Score       float64 `json:"score,omitempty"`
	NodeType    string  `json:"node_type"`
	NodeLabel   string  `json:"node_label"`
	RiskLevel   string  `json:"risk_level"`
	Description string  `json:"description,omitempty"`
}

// Edge is one scored link from the wallet to a counterparty.
type Edge struct {
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	Reason       string   `json:"reason"`
	Reasons      []string `json:"reasons"`
	Strength     float64  `json:"strength"`
	Confidence   float64  `json:"confidence"`
	Weight       float64  `json:"weight"`
	Interactions int      `json:"interactions"`
	TotalNative  float64  `json:"total_native"`
	Inflows      float64  `json:"inflows"`
	Outflows     float64  `json:"outflows"`
}

// Link is a summary row for the strongest counterparties.
type Link struct {
	Address    string  `json:"address"`
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Reasons    string  `json:"reasons"`
}

// ExchangeExposure flags contact with a KYC venue.
type ExchangeExposure struct {
	Address      string  `json:"address"`
	Label        string  `json:"label"`
	Interactions int     `json:"interactions"`
	TotalNative  float64 `json:"total_native"`
}

// Repeated is a counterparty seen often enough to be a linkability risk.
type Repeated struct {
	Address      string  `json:"address"`
	Label        string  `json:"label"`
	Interactions int     `json:"interactions"`
	Confidence   float64 `json:"confidence"`
}

// Summary condenses the network for callers that do not walk the edges.
type Summary struct {
	StrongestLinks         []Link             `json:"strongest_links"`
	Exchanges              []ExchangeExposure `json:"exchanges"`
	RepeatedCounterparties []Repeated         `json:"repeated_counterparties"`
	HighConfidenceLinks    int                `json:"high_confidence_links"`
	RiskHighlights         []string           `json:"risk_highlights"`
}

// Diagnostics exposes scan counts for verification.
type Diagnostics struct {
	CounterpartiesFound int `json:"counterparties_found"`
	ScoredCount         int `json:"scored_count"`
}

// Network is the full ego-network output.
type Network struct {
	Nodes       []Node      `json:"nodes"`
	Edges       []Edge      `json:"edges"`
	TotalLinks  int         `json:"total_links"`
	Summary     Summary     `json:"summary"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Builder aggregates touches into counterparty records and scores them.
// One builder per request; never shared.
type Builder struct {
	wallet  string
	records map[string]*Record
}

// NewBuilder creates an empty builder for the analyzed wallet.
func NewBuilder(wallet string) *Builder {
	return &Builder{wallet: wallet, records: map[string]*Record{}}
}

// Scan folds every transfer touch in the normalized batch into the
// per-counterparty records.
func (b *Builder) Scan(results []normalize.Result) {
	for i := range results {
		for _, t := range results[i].Touches {
			rec := b.records[t.Address]
			if rec == nil {
				rec = &Record{Address: t.Address}
				b.records[t.Address] = rec
			}
			rec.Count++
			rec.Timestamps = append(rec.Timestamps, t.Timestamp)
			rec.Inflow += t.Inflow
			rec.Outflow += t.Outflow
			if t.HasFee {
				rec.Fees = append(rec.Fees, t.Fee)
			}
			switch {
			case t.Token:
				rec.addReason("token_transfer")
			case t.Inflow > 0:
				rec.addReason("funding_source")
			case t.Outflow > 0:
				rec.addReason("cashout_target")
			}
		}
	}
}

func (r *Record) addReason(reason string) {
	for _, have := range r.Reasons {
		if have == reason {
			return
		}
	}
	r.Reasons = append(r.Reasons, reason)
}

// score applies the counterparty heuristic. The weights are hand-tuned;
// they are preserved exactly.
func (r *Record) score() (float64, []string) {
	score := float64(r.Count) * 2
	var reasons []string

	if r.Inflow > flowThreshold {
		score += r.Inflow * 20
		reasons = append(reasons, "funding")
	}
	if r.Outflow > flowThreshold {
		score += r.Outflow * 20
		reasons = append(reasons, "cashout")
	}
	if r.Count >= repeatThreshold {
		score += float64(r.Count) * 10
		reasons = append(reasons, "repeated")
	}
	if gap, ok := r.meanGap(); ok && gap < timingWindowSecs {
		score += 30
		reasons = append(reasons, "timing")
	}
	if len(r.Fees) >= 2 && distinctCount(r.Fees) <= feePatternMaxSet {
		score += 15
		reasons = append(reasons, "fee_pattern")
	}
	return score, reasons
}

// meanGap returns the mean inter-transaction gap in seconds. Needs at
// least two sightings.
func (r *Record) meanGap() (float64, bool) {
	if len(r.Timestamps) < 2 {
		return 0, false
	}
	ts := make([]int64, len(r.Timestamps))
	copy(ts, r.Timestamps)
	sort.Slice(ts, func(i, j int) bool { return ts[i] < ts[j] })

	var sum float64
	for i := 1; i < len(ts); i++ {
		sum += float64(ts[i] - ts[i-1])
	}
	return sum / float64(len(ts)-1), true
}

func distinctCount(vals []float64) int {
	set := map[float64]bool{}
	for _, v := range vals {
		set[v] = true
	}
	return len(set)
}

// Build ranks counterparties and assembles the network. memeActive feeds
// the node classifier; it is derived once from the batch.
func (b *Builder) Build(memeActive bool) Network {
	type scored struct {
		rec     *Record
		score   float64
		reasons []string
	}

	addrs := make([]string, 0, len(b.records))
	for addr := range b.records {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	ranked := make([]scored, 0, len(addrs))
	for _, addr := range addrs {
		rec := b.records[addr]
		if rec.Count < 1 {
			continue
		}
		score, reasons := rec.score()
		all := append(append([]string{}, rec.Reasons...), reasons...)
		ranked = append(ranked, scored{rec: rec, score: score, reasons: dedupe(all)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].rec.Address < ranked[j].rec.Address
	})

	diag := Diagnostics{CounterpartiesFound: len(b.records), ScoredCount: len(ranked)}

	// The graph must never be spuriously empty: with zero scored links but
	// raw counterparties present, fall back to interaction-count ranking.
	if len(ranked) == 0 && len(b.records) > 0 {
		for _, addr := range addrs {
			rec := b.records[addr]
			reasons := rec.Reasons
			if len(reasons) == 0 {
				reasons = []string{"interaction"}
			}
			ranked = append(ranked, scored{rec: rec, score: float64(rec.Count), reasons: reasons})
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].score != ranked[j].score {
				return ranked[i].score > ranked[j].score
			}
			return ranked[i].rec.Address < ranked[j].rec.Address
		})
	}
	if len(ranked) > maxRankedLinks {
		ranked = ranked[:maxRankedLinks]
	}

	target := Classify(b.wallet, memeActive)
	network := Network{
		Nodes: []Node{{
			ID:        b.wallet,
			Label:     shortAddr(b.wallet),
			Type:      "target",
			NodeType:  target.Type,
			NodeLabel: target.Label,
			RiskLevel: target.RiskLevel,
		}},
		TotalLinks:  len(ranked),
		Diagnostics: diag,
	}

	var summary Summary
	for _, s := range ranked {
		rec := s.rec
		class := Classify(rec.Address, memeActive)
		confidence := Confidence(rec)
		volume := rec.Inflow + rec.Outflow
		weight := 0.1*float64(rec.Count) + 0.5*volume
		if weight > 1 {
			weight = 1
		}
		reasons := s.reasons
		if len(reasons) > maxReasonsPerEdge {
			reasons = reasons[:maxReasonsPerEdge]
		}
		reasonStr := joinReasons(reasons)

		network.Nodes = append(network.Nodes, Node{
			ID:          rec.Address,
			Label:       shortAddr(rec.Address),
			Type:        "linked",
			Score:       s.score,
			NodeType:    class.Type,
			NodeLabel:   class.Label,
			RiskLevel:   class.RiskLevel,
			Description: class.Description,
		})
		strength := s.score / 50
		if strength > 1 {
			strength = 1
		}
		network.Edges = append(network.Edges, Edge{
			Source:       b.wallet,
			Target:       rec.Address,
			Reason:       reasonStr,
			Reasons:      reasons,
			Strength:     strength,
			Confidence:   confidence,
			Weight:       weight,
			Interactions: rec.Count,
			TotalNative:  volume,
			Inflows:      rec.Inflow,
			Outflows:     rec.Outflow,
		})

		if class.Type == NodeExchange {
			summary.Exchanges = append(summary.Exchanges, ExchangeExposure{
				Address:      rec.Address,
				Label:        class.Label,
				Interactions: rec.Count,
				TotalNative:  volume,
			})
		}
		if rec.Count >= 3 {
			summary.RepeatedCounterparties = append(summary.RepeatedCounterparties, Repeated{
				Address:      rec.Address,
				Label:        class.Label,
				Interactions: rec.Count,
				Confidence:   confidence,
			})
		}
		if confidence >= 0.7 {
			summary.HighConfidenceLinks++
		}
		summary.StrongestLinks = append(summary.StrongestLinks, Link{
			Address:    rec.Address,
			Label:      class.Label,
			Score:      s.score,
			Confidence: confidence,
			Reasons:    reasonStr,
		})
	}

	if len(summary.StrongestLinks) > 5 {
		summary.StrongestLinks = summary.StrongestLinks[:5]
	}
	if len(summary.RepeatedCounterparties) > 10 {
		summary.RepeatedCounterparties = summary.RepeatedCounterparties[:10]
	}
	if n := len(summary.Exchanges); n > 0 {
		summary.RiskHighlights = append(summary.RiskHighlights,
			fmt.Sprintf("%d exchange(s) detected (KYC risk)", n))
	}
	if n := len(summary.RepeatedCounterparties); n >= 5 {
		summary.RiskHighlights = append(summary.RiskHighlights,
			fmt.Sprintf("%d repeated counterparties (linkability risk)", n))
	}
	if summary.HighConfidenceLinks > 0 {
		summary.RiskHighlights = append(summary.RiskHighlights,
			fmt.Sprintf("%d high-confidence links (>=70%%)", summary.HighConfidenceLinks))
	}
	network.Summary = summary
	return network
}

// RepeatedCount counts repeat counterparty roles for the exposure
// scorer: a counterparty seen at least twice counts once per direction
// it moves meaningful native value in.
func (b *Builder) RepeatedCount() int {
	count := 0
	for _, rec := range b.records {
		if rec.Count < repeatThreshold {
			continue
		}
		if rec.Inflow > flowThreshold {
			count++
		}
		if rec.Outflow > flowThreshold {
			count++
		}
	}
	return count
}

func dedupe(items []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}

func joinReasons(reasons []string) string {
	if len(reasons) == 0 {
		return "linked"
	}
	limit := 2
	if len(reasons) < limit {
		limit = len(reasons)
	}
	out := reasons[0]
	for _, r := range reasons[1:limit] {
		out += ", " + r
	}
	return out
}

func shortAddr(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:8] + "..."
}
