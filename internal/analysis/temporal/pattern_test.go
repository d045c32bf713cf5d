package temporal

import (
	"math"
	"testing"

	"github.com/leaklens/leaklens/internal/analysis/normalize"
)

func resultAt(ts int64) normalize.Result {
	return normalize.Result{Signature: "sig", Timestamp: ts}
}

func TestBuildBucketsUTC(t *testing.T) {
	// 2023-11-15 00:30 UTC is a Wednesday.
	base := int64(1700008200)
	results := []normalize.Result{
		resultAt(base),
		resultAt(base + 3600),  // 01:30
		resultAt(base + 86400), // Thursday 00:30
		{Signature: "bad", Timestamp: 0, Malformed: true},
	}

	p := Build(results)
	if p.Total() != 3 {
		t.Fatalf("total = %d, want 3 (malformed skipped)", p.Total())
	}
	if p.Hourly[0] != 2 || p.Hourly[1] != 1 {
		t.Fatalf("hourly = %v", p.Hourly)
	}
	if p.Daily[3] != 2 || p.Daily[4] != 1 {
		t.Fatalf("daily = %v", p.Daily)
	}
	if p.ActiveHours() != 2 {
		t.Fatalf("active hours = %d, want 2", p.ActiveHours())
	}
}

func TestNormalizedEntropySingleHour(t *testing.T) {
	var p Pattern
	p.Hourly[9] = 50

	entropy := p.NormalizedEntropy()
	if entropy > 0.01 {
		t.Fatalf("entropy for single-hour activity = %f, want near 0", entropy)
	}
}

func TestNormalizedEntropyUniform(t *testing.T) {
	var p Pattern
	for h := range p.Hourly {
		p.Hourly[h] = 10
	}

	entropy := p.NormalizedEntropy()
	if math.Abs(entropy-1) > 1e-6 {
		t.Fatalf("entropy for uniform activity = %f, want 1", entropy)
	}
}

func TestNormalizedEntropyEmpty(t *testing.T) {
	var p Pattern
	if p.NormalizedEntropy() != 1 {
		t.Fatal("empty pattern must read as maximally unpredictable")
	}
}
