package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedalcoach/internal/store"
)

func TestClassifyDecoupling(t *testing.T) {
	tests := []struct {
		pct      float64
		key      string
		severity int
	}{
		{-4.2, "improved", 0},
		{-0.1, "improved", 0},
		{0, "excellent", 1},
		{2.9, "excellent", 1},
		{3, "good", 2},
		{4.99, "good", 2},
		{5, "moderate", 3},
		{9.9, "moderate", 3},
		{10, "high", 4},
		{14.9, "high", 4},
		{15, "very_high", 5},
		{20, "very_high", 5},
		{87, "very_high", 5},
	}

	for _, tt := range tests {
		c := ClassifyDecoupling(tt.pct)
		assert.Equal(t, tt.key, c.Key, "ClassifyDecoupling(%v)", tt.pct)
		assert.Equal(t, tt.severity, c.Severity, "ClassifyDecoupling(%v)", tt.pct)
		assert.NotEmpty(t, c.Color)
		assert.NotEmpty(t, c.Description)
	}
}

func TestDecoupling(t *testing.T) {
	tests := []struct {
		name     string
		first    *float64
		second   *float64
		expected *float64
	}{
		{name: "drift", first: floatPtr(1.5), second: floatPtr(1.41), expected: floatPtr(6)},
		{name: "improved", first: floatPtr(1.4), second: floatPtr(1.47), expected: floatPtr(-5)},
		{name: "rounds to 1 decimal", first: floatPtr(1.53), second: floatPtr(1.5), expected: floatPtr(2)},
		{name: "no first half", first: nil, second: floatPtr(1.5), expected: nil},
		{name: "zero first half", first: floatPtr(0), second: floatPtr(1.5), expected: nil},
		{name: "no second half", first: floatPtr(1.5), second: nil, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decoupling(tt.first, tt.second)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 0.05)
		})
	}
}

func TestStreamDecoupling(t *testing.T) {
	t.Run("too few samples", func(t *testing.T) {
		points := steadyStream(60, 200, 140, 200, 140)
		assert.Nil(t, StreamDecoupling(points))
	})

	t.Run("heart rate drift", func(t *testing.T) {
		// First half EF 1.5, second half EF 1.4
		points := steadyStream(600, 210, 140, 210, 150)
		d := StreamDecoupling(points)
		require.NotNil(t, d)
		assert.False(t, d.IsEstimate)
		assert.InDelta(t, 6.7, d.DecouplingPct, 0.05)
		assert.Equal(t, "moderate", d.Interpretation.Key)
		require.NotNil(t, d.EF)
		assert.InDelta(t, 1.45, *d.EF, 0.01)
	})

	t.Run("invalid samples filtered", func(t *testing.T) {
		points := steadyStream(600, 200, 140, 200, 140)
		for i := 0; i < len(points); i += 3 {
			points[i].Power = floatPtr(0)
		}
		d := StreamDecoupling(points)
		require.NotNil(t, d)
		assert.InDelta(t, 0, d.DecouplingPct, 0.05)
		assert.Equal(t, "excellent", d.Interpretation.Key)
	})
}

func TestEstimateDecoupling(t *testing.T) {
	tests := []struct {
		name     string
		activity store.ActivitySummary
		expected float64
		key      string
	}{
		{
			name: "one hour steady ride",
			activity: store.ActivitySummary{
				DurationMin:  60,
				AvgPower:     floatPtr(250),
				MaxPower:     floatPtr(250),
				AvgHeartRate: floatPtr(150),
			},
			// duration 0, intensity 2, variability 0
			expected: 2,
			key:      "excellent",
		},
		{
			name: "long variable ride",
			activity: store.ActivitySummary{
				DurationMin:  180,
				AvgPower:     floatPtr(200),
				MaxPower:     floatPtr(600),
				AvgHeartRate: floatPtr(140),
			},
			// duration 3, intensity 1.6, variability 10
			expected: 14.6,
			key:      "high",
		},
		{
			name: "duration factor capped",
			activity: store.ActivitySummary{
				DurationMin:  600,
				AvgPower:     floatPtr(125),
				AvgHeartRate: floatPtr(120),
			},
			// duration 3 (capped), intensity 1, no max power
			expected: 4,
			key:      "good",
		},
		{
			name: "clamped to 20",
			activity: store.ActivitySummary{
				DurationMin:  240,
				AvgPower:     floatPtr(300),
				MaxPower:     floatPtr(1500),
				AvgHeartRate: floatPtr(160),
			},
			expected: 20,
			key:      "very_high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EstimateDecoupling(tt.activity)
			require.NotNil(t, d)
			assert.True(t, d.IsEstimate)
			assert.InDelta(t, tt.expected, d.DecouplingPct, 0.05)
			assert.Equal(t, tt.key, d.Interpretation.Key)
			assert.GreaterOrEqual(t, d.DecouplingPct, 0.0)
			assert.LessOrEqual(t, d.DecouplingPct, 20.0)
		})
	}
}

func TestEstimateDecoupling_MissingAverages(t *testing.T) {
	assert.Nil(t, EstimateDecoupling(store.ActivitySummary{DurationMin: 60}))
	assert.Nil(t, EstimateDecoupling(store.ActivitySummary{
		DurationMin: 60,
		AvgPower:    floatPtr(200),
	}))
	assert.Nil(t, EstimateDecoupling(store.ActivitySummary{
		DurationMin:  60,
		AvgPower:     floatPtr(0),
		AvgHeartRate: floatPtr(140),
	}))
}

func TestEstimateDecoupling_AlwaysClamped(t *testing.T) {
	for _, minutes := range []float64{0, 30, 90, 300, 900} {
		for _, power := range []float64{1, 80, 250, 400, 2000} {
			d := EstimateDecoupling(store.ActivitySummary{
				DurationMin:  minutes,
				AvgPower:     floatPtr(power),
				MaxPower:     floatPtr(power * 4),
				AvgHeartRate: floatPtr(140),
			})
			require.NotNil(t, d)
			assert.True(t, d.IsEstimate)
			assert.GreaterOrEqual(t, d.DecouplingPct, 0.0)
			assert.LessOrEqual(t, d.DecouplingPct, 20.0)
		}
	}
}

// steadyStream builds n one-second samples, the first half at p1/hr1 and the
// second half at p2/hr2
func steadyStream(n int, p1 float64, hr1 int, p2 float64, hr2 int) []store.StreamPoint {
	points := make([]store.StreamPoint, n)
	for i := range points {
		p, hr := p1, hr1
		if i >= n/2 {
			p, hr = p2, hr2
		}
		points[i] = store.StreamPoint{
			ActivityID: "ride-1",
			TimeOffset: i,
			Power:      floatPtr(p),
			HeartRate:  intPtr(hr),
		}
	}
	return points
}
