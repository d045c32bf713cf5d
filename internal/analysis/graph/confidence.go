package graph

// Confidence estimates how certain the link between wallet and
// counterparty is, independent of the heuristic score: an interaction
// count base, a timing term, and a directionality term, capped at 1.
func Confidence(rec *Record) float64 {
	confidence := 0.0

	switch {
	case rec.Count >= 10:
		confidence += 0.4
	case rec.Count >= 5:
		confidence += 0.3
	case rec.Count >= 3:
		confidence += 0.2
	default:
		confidence += 0.1
	}

	if gap, ok := rec.meanGap(); ok {
		switch {
		case gap < 3600:
			confidence += 0.3
		case gap < 86400:
			confidence += 0.2
		default:
			confidence += 0.1
		}
	}

	hasInflow := rec.Inflow > flowThreshold
	hasOutflow := rec.Outflow > flowThreshold
	switch {
	case hasInflow && hasOutflow:
		confidence += 0.3
	case hasInflow || hasOutflow:
		confidence += 0.1
	}

	if confidence > 1 {
		confidence = 1
	}
	return confidence
}
