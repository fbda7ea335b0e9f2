package analysis

import (
	"math"

	"pedalcoach/internal/store"
)

// Estimate tuning for rides that only have activity-level averages
const (
	referencePower       = 250.0 // watts
	intensityScale       = 2.0
	variabilityScale     = 5.0
	maxDurationFactor    = 3.0
	durationFactorPerHr  = 1.5
	maxDecouplingPct     = 20.0
	minDecouplingSamples = 120 // two minutes of 1 Hz data
)

// Classification is a decoupling interpretation band
type Classification struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	Severity    int    `json:"severity"` // 0 best, 5 worst
	Description string `json:"description"`
}

type decouplingBand struct {
	matches func(pct float64) bool
	class   Classification
}

// decouplingBands is evaluated top to bottom; the last band always matches.
var decouplingBands = []decouplingBand{
	{
		matches: func(pct float64) bool { return pct < 0 },
		class: Classification{
			Key: "improved", Label: "Negative (improved)", Color: "#3B82F6", Severity: 0,
			Description: "Efficiency rose in the second half - well paced or still warming up",
		},
	},
	{
		matches: func(pct float64) bool { return pct < 3 },
		class: Classification{
			Key: "excellent", Label: "Excellent", Color: "#10B981", Severity: 1,
			Description: "Excellent aerobic endurance at this duration and intensity",
		},
	},
	{
		matches: func(pct float64) bool { return pct < 5 },
		class: Classification{
			Key: "good", Label: "Good", Color: "#84CC16", Severity: 2,
			Description: "Good aerobic fitness - the effort was sustainable",
		},
	},
	{
		matches: func(pct float64) bool { return pct < 10 },
		class: Classification{
			Key: "moderate", Label: "Moderate", Color: "#F59E0B", Severity: 3,
			Description: "Some cardiovascular drift - build more base at this duration",
		},
	},
	{
		matches: func(pct float64) bool { return pct < 15 },
		class: Classification{
			Key: "high", Label: "High", Color: "#F97316", Severity: 4,
			Description: "Significant drift - effort exceeded current aerobic capacity",
		},
	},
	{
		matches: func(float64) bool { return true },
		class: Classification{
			Key: "very_high", Label: "Very high", Color: "#EF4444", Severity: 5,
			Description: "Heavy drift - likely fatigue, heat or dehydration",
		},
	},
}

// ClassifyDecoupling maps a decoupling percentage to its interpretation
func ClassifyDecoupling(pct float64) Classification {
	for _, b := range decouplingBands {
		if b.matches(pct) {
			return b.class
		}
	}
	return decouplingBands[len(decouplingBands)-1].class
}

// DecouplingEstimate is the aerobic decoupling of one activity. IsEstimate is
// true when it was derived from averages instead of a power/HR stream.
type DecouplingEstimate struct {
	EF             *float64       `json:"ef"`
	DecouplingPct  float64        `json:"decouplingPct"`
	Interpretation Classification `json:"interpretation"`
	IsEstimate     bool           `json:"isEstimate"`
}

// Decoupling returns the percentage drop from the first-half EF to the
// second-half EF, rounded to 1 decimal. Positive means the second half was
// less efficient. Returns nil when the first half EF is missing or zero.
func Decoupling(efFirst, efSecond *float64) *float64 {
	if efFirst == nil || *efFirst == 0 || efSecond == nil {
		return nil
	}
	d := roundTo((*efFirst-*efSecond) / *efFirst * 100, 1)
	return &d
}

// StreamDecoupling computes split-half decoupling from a power/HR stream
func StreamDecoupling(points []store.StreamPoint) *DecouplingEstimate {
	var valid []store.StreamPoint
	for _, p := range points {
		if validSample(p) {
			valid = append(valid, p)
		}
	}
	if len(valid) < minDecouplingSamples {
		return nil
	}

	mid := len(valid) / 2
	first := StreamEfficiencyFactor(valid[:mid])
	second := StreamEfficiencyFactor(valid[mid:])

	pct := Decoupling(&first, &second)
	if pct == nil {
		return nil
	}

	ef := roundTo(StreamEfficiencyFactor(valid), 2)
	return &DecouplingEstimate{
		EF:             &ef,
		DecouplingPct:  *pct,
		Interpretation: ClassifyDecoupling(*pct),
		IsEstimate:     false,
	}
}

// EstimateDecoupling approximates decoupling from activity averages when no
// stream is available. The estimate adds a duration factor (0-3%), an
// intensity factor relative to 250 W and a variability factor from max/avg
// power, clamped to [0, 20]. Returns nil without average power and HR.
func EstimateDecoupling(a store.ActivitySummary) *DecouplingEstimate {
	if a.AvgPower == nil || a.AvgHeartRate == nil {
		return nil
	}
	ef := EfficiencyFactor(*a.AvgPower, *a.AvgHeartRate)
	if ef == nil {
		return nil
	}
	avgPower := *a.AvgPower

	hours := a.DurationMin / 60
	durationFactor := clamp((hours-1)*durationFactorPerHr, 0, maxDurationFactor)

	intensityFactor := (avgPower / referencePower) * intensityScale

	var variabilityFactor float64
	if a.MaxPower != nil && *a.MaxPower > avgPower {
		variabilityFactor = (*a.MaxPower/avgPower - 1) * variabilityScale
	}

	pct := roundTo(clamp(durationFactor+intensityFactor+variabilityFactor, 0, maxDecouplingPct), 1)

	return &DecouplingEstimate{
		EF:             ef,
		DecouplingPct:  pct,
		Interpretation: ClassifyDecoupling(pct),
		IsEstimate:     true,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
