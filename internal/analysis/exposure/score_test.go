package exposure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, 20.0, w.SwapDensity)
	assert.Equal(t, 20.0, w.Denomination)
	assert.Equal(t, 20.0, w.Temporal)
	assert.Equal(t, 15.0, w.Counterparty)
	assert.Equal(t, 15.0, w.Automation)
	assert.Equal(t, 10.0, w.Income)
	assert.Equal(t, 15.0, w.Concentration)
	assert.Equal(t, 10.0, w.ActivityBonus)
	assert.Equal(t, 50.0, w.HighTier)
	assert.Equal(t, 25.0, w.MediumTier)
}

func TestEmptyWalletScoresZero(t *testing.T) {
	out := NewScorer(DefaultWeights()).Compute(Signals{NormalizedEntropy: 1})

	assert.Equal(t, 0.0, out.Score)
	assert.Equal(t, RiskLow, out.RiskLevel)
	assert.Equal(t, []string{"Limited exposure signals"}, out.LeakVectors)
	assert.Equal(t, 0.0, out.Signals.TemporalSignal)
}

func TestInactiveWalletTemporalSignalGated(t *testing.T) {
	// Entropy 0 reads as perfectly predictable, but with no activity the
	// temporal signal must stay zero and no activity bonus applies.
	out := NewScorer(DefaultWeights()).Compute(Signals{
		NormalizedEntropy:   0,
		TopConcentrationPct: 100,
	})

	assert.Equal(t, 0.0, out.Signals.TemporalSignal)
	assert.InDelta(t, 15, out.Score, 1e-9) // concentration only, no bonus
	assert.Equal(t, RiskLow, out.RiskLevel)
	assert.Contains(t, out.LeakVectors, "High portfolio concentration")
}

func TestHighRiskProfile(t *testing.T) {
	out := NewScorer(DefaultWeights()).Compute(Signals{
		SwapCount:              40, // saturates at 1
		MemecoinPct:            80,
		Hourly:                 []int{10, 10, 10},
		ActiveHours:            3,
		NormalizedEntropy:      0.2,
		RepeatedCounterparties: 3, // saturates at 1
		AutomationDetected:     true,
		StableIncomeDetected:   true,
		TopConcentrationPct:    90,
	})

	// Raw weighted sum exceeds 100 and clamps.
	assert.Equal(t, 100.0, out.Score)
	assert.Equal(t, RiskHigh, out.RiskLevel)

	// All seven vectors fire; the list caps at five in priority order.
	require.Len(t, out.LeakVectors, 5)
	assert.Equal(t, []string{
		"Consistent UTC trading hours",
		"High memecoin swap density",
		"Automated execution fingerprint detected",
		"Repeated counterparty patterns",
		"Behavioral execution fingerprint",
	}, out.LeakVectors)

	assert.Equal(t, 1.0, out.Signals.SwapSignal)
	assert.InDelta(t, 0.8, out.Signals.MemecoinSignal, 1e-9)
	assert.InDelta(t, 0.8, out.Signals.TemporalSignal, 1e-9)
	assert.Equal(t, 1.0, out.Signals.CounterpartySignal)
	assert.True(t, out.Signals.AutomationDetected)
	assert.True(t, out.Signals.StableIncomeDetected)
}

func TestMediumTier(t *testing.T) {
	// swap 10/20=0.5 -> 10 points, counterparty 2/2=1 -> 15, bonus 10.
	out := NewScorer(DefaultWeights()).Compute(Signals{
		SwapCount:              10,
		NormalizedEntropy:      1,
		RepeatedCounterparties: 2,
	})

	assert.InDelta(t, 35, out.Score, 1e-9)
	assert.Equal(t, RiskMedium, out.RiskLevel)
	// swap signal is exactly 0.5, not above the 0.5 threshold.
	assert.Equal(t, []string{"Repeated counterparty patterns"}, out.LeakVectors)
}

func TestFallbackVectorForHighScoreWithoutThresholds(t *testing.T) {
	// Every signal sits at or below its leak threshold (or has its gate
	// closed) yet the weighted sum still crosses the high tier.
	out := NewScorer(DefaultWeights()).Compute(Signals{
		SwapCount:           10,  // 0.5, at threshold
		MemecoinPct:         30,  // 0.3, at threshold
		Hourly:              []int{5, 5},
		ActiveHours:         12,  // opens no temporal vector
		NormalizedEntropy:   0.1, // temporal 0.9
		TopConcentrationPct: 70,  // 0.7, at threshold
	})

	// 18 + 6 + 10 + 10.5 + bonus 10 = 54.5.
	assert.InDelta(t, 54.5, out.Score, 1e-9)
	assert.Equal(t, RiskHigh, out.RiskLevel)
	assert.Equal(t, []string{"Multiple behavioral signals detected"}, out.LeakVectors)
}

func TestScoreMonotonicInSwapCount(t *testing.T) {
	scorer := NewScorer(DefaultWeights())
	prev := -1.0
	for _, count := range []int{0, 1, 5, 10, 20, 40} {
		out := scorer.Compute(Signals{SwapCount: count, NormalizedEntropy: 1})
		assert.GreaterOrEqual(t, out.Score, prev, "swap count %d", count)
		prev = out.Score
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	in := Signals{
		SwapCount:              7,
		MemecoinPct:            42.5,
		Hourly:                 []int{1, 2, 3},
		ActiveHours:            3,
		NormalizedEntropy:      0.55,
		RepeatedCounterparties: 1,
		TopConcentrationPct:    66.6,
	}
	scorer := NewScorer(DefaultWeights())
	first := scorer.Compute(in)
	second := scorer.Compute(in)
	assert.Equal(t, first, second)
}
