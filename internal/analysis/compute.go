package analysis

import "pedalcoach/internal/store"

// ComputeDecoupling calculates decoupling for a single activity, preferring
// the power/HR stream and falling back to the average-only estimate
func ComputeDecoupling(activity store.ActivitySummary, streams []store.StreamPoint) *DecouplingEstimate {
	if len(streams) > 0 {
		if d := StreamDecoupling(streams); d != nil {
			return d
		}
	}
	return EstimateDecoupling(activity)
}

// StreamQuality returns the share of stream points carrying both power and
// a plausible heart rate
func StreamQuality(streams []store.StreamPoint) float64 {
	if len(streams) == 0 {
		return 0
	}
	valid := 0
	for _, p := range streams {
		if validSample(p) {
			valid++
		}
	}
	return float64(valid) / float64(len(streams))
}

// DataQualityDescription returns a human-readable data quality assessment
func DataQualityDescription(score float64) string {
	switch {
	case score >= 0.95:
		return "Excellent"
	case score >= 0.85:
		return "Good"
	case score >= 0.70:
		return "Fair"
	case score >= 0.50:
		return "Poor"
	default:
		return "Very Poor"
	}
}
