// Package temporal derives activity-timing features from the batch:
// hourly and daily histograms and the entropy of the hourly profile.
package temporal

import (
	"math"
	"time"

	"github.com/leaklens/leaklens/internal/analysis/normalize"
)

// entropyFloor keeps log2 defined for empty buckets without disturbing
// the distribution measurably.
const entropyFloor = 1e-10

// Pattern is the wallet's UTC activity histogram.
type Pattern struct {
	Hourly [24]int `json:"hourly"`
	Daily  [7]int  `json:"daily"`
}

// Build counts batch timestamps into UTC hour and weekday buckets,
// skipping malformed records.
func Build(results []normalize.Result) Pattern {
	var p Pattern
	for i := range results {
		if results[i].Malformed || results[i].Timestamp == 0 {
			continue
		}
		t := time.Unix(results[i].Timestamp, 0).UTC()
		p.Hourly[t.Hour()]++
		p.Daily[int(t.Weekday())]++
	}
	return p
}

// Total is the number of counted transactions.
func (p *Pattern) Total() int {
	total := 0
	for _, c := range p.Hourly {
		total += c
	}
	return total
}

// ActiveHours is the number of distinct UTC hours with any activity.
func (p *Pattern) ActiveHours() int {
	active := 0
	for _, c := range p.Hourly {
		if c > 0 {
			active++
		}
	}
	return active
}

// NormalizedEntropy returns the Shannon entropy of the hourly profile
// scaled to [0,1]: 1 for uniform activity, near 0 for activity pinned to
// a single hour.
func (p *Pattern) NormalizedEntropy() float64 {
	total := p.Total()
	if total == 0 {
		return 1 // no activity: maximally unpredictable, zero exposure signal
	}
	entropy := 0.0
	for _, c := range p.Hourly {
		prob := float64(c) / float64(total)
		if prob < entropyFloor {
			prob = entropyFloor
		}
		entropy -= prob * math.Log2(prob)
	}
	return entropy / math.Log2(24)
}
