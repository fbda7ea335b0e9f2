package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedalcoach/internal/store"
)

func TestComputeDecoupling(t *testing.T) {
	activity := store.ActivitySummary{
		ID:           "ride-1",
		DurationMin:  120,
		AvgPower:     floatPtr(210),
		MaxPower:     floatPtr(420),
		AvgHeartRate: floatPtr(145),
	}

	tests := []struct {
		name     string
		streams  []store.StreamPoint
		estimate bool
	}{
		{
			name:     "no stream falls back to estimate",
			streams:  nil,
			estimate: true,
		},
		{
			name:     "short stream falls back to estimate",
			streams:  steadyStream(30, 210, 140, 210, 150),
			estimate: true,
		},
		{
			name:     "full stream is measured",
			streams:  steadyStream(3600, 210, 140, 210, 150),
			estimate: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ComputeDecoupling(activity, tt.streams)
			require.NotNil(t, d)
			assert.Equal(t, tt.estimate, d.IsEstimate)
		})
	}
}

func TestComputeDecoupling_NothingToWorkWith(t *testing.T) {
	assert.Nil(t, ComputeDecoupling(store.ActivitySummary{DurationMin: 60}, nil))
}

func TestStreamQuality(t *testing.T) {
	assert.Zero(t, StreamQuality(nil))

	points := steadyStream(100, 200, 140, 200, 140)
	for i := 0; i < 25; i++ {
		points[i].HeartRate = nil
	}
	assert.InDelta(t, 0.75, StreamQuality(points), 1e-9)
}

func TestDataQualityDescription(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{0.99, "Excellent"},
		{0.90, "Good"},
		{0.75, "Fair"},
		{0.60, "Poor"},
		{0.20, "Very Poor"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DataQualityDescription(tt.score))
	}
}
