package analysis

import (
	"math"

	"pedalcoach/internal/store"
)

// Plausible ranges for stream samples; anything outside is sensor noise
const (
	minValidPower     = 1.0
	minValidHeartRate = 60
	maxValidHeartRate = 220
)

// EfficiencySample is the efficiency factor of one activity
type EfficiencySample struct {
	AvgPower     float64 `json:"avgPower"`
	AvgHeartRate float64 `json:"avgHeartRate"`
	EF           float64 `json:"ef"`
}

// EfficiencyFactor calculates power:HR efficiency, rounded to 2 decimals.
// Returns nil when either input is zero, negative or not a number.
// Typical values for trained cyclists range from 1.2 to 2.0.
func EfficiencyFactor(avgPower, avgHeartRate float64) *float64 {
	if !positive(avgPower) || !positive(avgHeartRate) {
		return nil
	}
	ef := roundTo(avgPower/avgHeartRate, 2)
	return &ef
}

// NewEfficiencySample builds a sample from an activity's averages
func NewEfficiencySample(a store.ActivitySummary) *EfficiencySample {
	if a.AvgPower == nil || a.AvgHeartRate == nil {
		return nil
	}
	ef := EfficiencyFactor(*a.AvgPower, *a.AvgHeartRate)
	if ef == nil {
		return nil
	}
	return &EfficiencySample{
		AvgPower:     *a.AvgPower,
		AvgHeartRate: *a.AvgHeartRate,
		EF:           *ef,
	}
}

// StreamEfficiencyFactor calculates EF from a power/HR stream, ignoring
// coasting and implausible heart rate samples. Returns 0 without valid data.
func StreamEfficiencyFactor(points []store.StreamPoint) float64 {
	var totalPower, totalHR float64
	var count int

	for _, p := range points {
		if !validSample(p) {
			continue
		}
		totalPower += *p.Power
		totalHR += float64(*p.HeartRate)
		count++
	}

	if count == 0 {
		return 0
	}

	return (totalPower / float64(count)) / (totalHR / float64(count))
}

func validSample(p store.StreamPoint) bool {
	if p.Power == nil || p.HeartRate == nil {
		return false
	}
	hr := *p.HeartRate
	return *p.Power >= minValidPower && hr > minValidHeartRate && hr < maxValidHeartRate
}

func positive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
