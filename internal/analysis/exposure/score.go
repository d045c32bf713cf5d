// Package exposure combines independent behavioral signals into one
// explainable surveillance-exposure score.
package exposure

import "math"

// Risk tiers.
const (
	RiskHigh   = "HIGH"
	RiskMedium = "MEDIUM"
	RiskLow    = "LOW"
)

const maxLeakVectors = 5

// Weights is the declarative (signal, weight) table plus tier cut-offs.
// The numbers are hand-tuned; tuning them never touches control flow.
type Weights struct {
	SwapDensity   float64 `yaml:"swap_density"`
	Denomination  float64 `yaml:"denomination_concentration"`
	Temporal      float64 `yaml:"temporal_predictability"`
	Counterparty  float64 `yaml:"counterparty_repetition"`
	Automation    float64 `yaml:"automation_fingerprint"`
	Income        float64 `yaml:"income_predictability"`
	Concentration float64 `yaml:"portfolio_concentration"`
	ActivityBonus float64 `yaml:"activity_bonus"`
	HighTier      float64 `yaml:"high_tier"`
	MediumTier    float64 `yaml:"medium_tier"`
}

// DefaultWeights returns the tuned production weights.
func DefaultWeights() Weights {
	return Weights{
		SwapDensity:   20,
		Denomination:  20,
		Temporal:      20,
		Counterparty:  15,
		Automation:    15,
		Income:        10,
		Concentration: 15,
		ActivityBonus: 10,
		HighTier:      50,
		MediumTier:    25,
	}
}

// Signals are the raw scorer inputs. Graph, ledger and temporal values
// come from this repo's own pipeline; automation, opsec reuse and
// portfolio figures come from external collaborators.
type Signals struct {
	SwapCount              int
	MemecoinPct            float64 // share of holdings in meme assets, 0-100
	Hourly                 []int   // 24 UTC hour buckets
	ActiveHours            int
	NormalizedEntropy      float64 // 0-1, 1 = uniform activity
	RepeatedCounterparties int
	AutomationDetected     bool
	StableIncomeDetected   bool
	TopConcentrationPct    float64 // top-3 holdings share, 0-100
}

// SignalValues carries both raw and normalized values for explainability.
type SignalValues struct {
	SwapCount              int     `json:"swap_count"`
	SwapSignal             float64 `json:"swap_signal"`
	MemecoinPct            float64 `json:"memecoin_ratio"`
	MemecoinSignal         float64 `json:"memecoin_signal"`
	TemporalSignal         float64 `json:"active_hours_entropy"`
	RepeatedCounterparties int     `json:"repeated_counterparties"`
	CounterpartySignal     float64 `json:"counterparty_signal"`
	AutomationDetected     bool    `json:"automation_detected"`
	StableIncomeDetected   bool    `json:"stablecoin_income_detected"`
	ConcentrationPct       float64 `json:"portfolio_concentration"`
	ConcentrationSignal    float64 `json:"concentration_signal"`
}

// Score is the composite result.
type Score struct {
	Score       float64      `json:"surveillance_score"`
	RiskLevel   string       `json:"risk_level"`
	LeakVectors []string     `json:"top_leak_vectors"`
	Signals     SignalValues `json:"signals"`
}

// Scorer is a pure function object; identical inputs always produce
// identical outputs.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weight table.
func NewScorer(w Weights) *Scorer { return &Scorer{weights: w} }

// term is one row of the evaluated signal table: normalized value,
// weight, and the leak-vector rule. Rows are ordered by leak-vector
// priority; the weighted sum is order-independent.
type term struct {
	value     float64
	weight    float64
	threshold float64
	gate      bool // extra condition the leak vector requires
	message   string
}

// Compute evaluates all seven signals and the composite score.
func (s *Scorer) Compute(in Signals) Score {
	w := s.weights

	swapSignal := 0.0
	if in.SwapCount > 0 {
		swapSignal = math.Min(float64(in.SwapCount)/20, 1)
	}
	memeSignal := in.MemecoinPct / 100
	temporalSignal := 0.0
	if activity(in) {
		temporalSignal = 1 - in.NormalizedEntropy
	}
	counterpartySignal := math.Min(float64(in.RepeatedCounterparties)/2, 1)
	automationSignal := 0.0
	if in.AutomationDetected {
		automationSignal = 1
	}
	incomeSignal := 0.0
	if in.StableIncomeDetected {
		incomeSignal = 1
	}
	concentrationSignal := in.TopConcentrationPct / 100

	terms := []term{
		{temporalSignal, w.Temporal, 0.6, in.ActiveHours <= 8, "Consistent UTC trading hours"},
		{memeSignal, w.Denomination, 0.3, true, "High memecoin swap density"},
		{automationSignal, w.Automation, 0, true, "Automated execution fingerprint detected"},
		{counterpartySignal, w.Counterparty, 0.4, true, "Repeated counterparty patterns"},
		{swapSignal, w.SwapDensity, 0.5, true, "Behavioral execution fingerprint"},
		{concentrationSignal, w.Concentration, 0.7, true, "High portfolio concentration"},
		{incomeSignal, w.Income, 0, true, "Stablecoin income patterns"},
	}

	score := 0.0
	for _, t := range terms {
		score += t.value * t.weight
	}
	if activity(in) {
		score += w.ActivityBonus
	}
	score = math.Max(0, math.Min(100, score))

	risk := RiskLow
	switch {
	case score >= w.HighTier:
		risk = RiskHigh
	case score >= w.MediumTier:
		risk = RiskMedium
	}

	var leaks []string
	for _, t := range terms {
		if t.value > t.threshold && t.gate {
			leaks = append(leaks, t.message)
		}
	}
	if len(leaks) == 0 {
		if score > w.HighTier {
			leaks = append(leaks, "Multiple behavioral signals detected")
		} else {
			leaks = append(leaks, "Limited exposure signals")
		}
	}
	if len(leaks) > maxLeakVectors {
		leaks = leaks[:maxLeakVectors]
	}

	return Score{
		Score:       round1(score),
		RiskLevel:   risk,
		LeakVectors: leaks,
		Signals: SignalValues{
			SwapCount:              in.SwapCount,
			SwapSignal:             round3(swapSignal),
			MemecoinPct:            round1(in.MemecoinPct),
			MemecoinSignal:         round3(memeSignal),
			TemporalSignal:         round3(temporalSignal),
			RepeatedCounterparties: in.RepeatedCounterparties,
			CounterpartySignal:     round3(counterpartySignal),
			AutomationDetected:     in.AutomationDetected,
			StableIncomeDetected:   in.StableIncomeDetected,
			ConcentrationPct:       round1(in.TopConcentrationPct),
			ConcentrationSignal:    round3(concentrationSignal),
		},
	}
}

// activity reports whether the wallet shows any behavior at all; even
// minimal activity creates exposure.
func activity(in Signals) bool {
	if in.SwapCount > 0 {
		return true
	}
	for _, c := range in.Hourly {
		if c > 0 {
			return true
		}
	}
	return false
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
