package service

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedalcoach/internal/analysis"
	"pedalcoach/internal/store"
)

func TestLoadSeries(t *testing.T) {
	svc, db, m := newTestService(t)

	addRide(t, db, store.ActivitySummary{ID: "a1", Date: day("2026-03-01").Add(8 * time.Hour), TSS: floatPtr(100), DurationMin: 120})
	addRide(t, db, store.ActivitySummary{ID: "a2", Date: day("2026-03-03").Add(8 * time.Hour), TSS: floatPtr(-30)})
	require.NoError(t, db.UpsertCrossTrainingSession(&store.CrossTrainingSession{
		ID: "x1", UserID: testUser, Date: day("2026-03-03"), Activity: "strength", DurationMin: 45, EstimatedTSS: 40,
	}))

	series, err := svc.LoadSeries(analysis.DateRange{From: day("2026-03-01"), To: day("2026-03-07")})
	require.NoError(t, err)
	require.Len(t, series, 7)

	assert.Equal(t, day("2026-03-01"), series[0].Date)
	assert.InDelta(t, 100.0/42, series[0].CTL, 1e-9)
	assert.InDelta(t, 100.0/7, series[0].ATL, 1e-9)
	for _, s := range series {
		assert.Equal(t, s.CTL-s.ATL, s.TSB)
	}

	// Negative TSS on the 3rd is dropped, cross-training counts
	direct, err := analysis.LoadSeriesForRange([]analysis.DailyLoadPoint{
		{Date: day("2026-03-01"), TSS: 100},
		{Date: day("2026-03-03"), TSS: 40},
	}, analysis.DateRange{From: day("2026-03-01"), To: day("2026-03-07")})
	require.NoError(t, err)
	for i := range series {
		assert.InDelta(t, direct[i].CTL, series[i].CTL, 1e-9)
		assert.InDelta(t, direct[i].ATL, series[i].ATL, 1e-9)
	}

	assert.Equal(t, 1, testutil.CollectAndCount(m.HistLoadSeriesDuration))
	assert.InDelta(t, series[6].TSB, testutil.ToFloat64(m.GaugeTSB), 1e-9)

	cached, err := svc.CachedLoadSeries(analysis.DateRange{From: day("2026-03-01"), To: day("2026-03-07")})
	require.NoError(t, err)
	assert.Equal(t, series, cached)

	rows, err := db.ListLoadSnapshots(testUser, day("2026-03-03"), day("2026-03-03"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 40.0, rows[0].TSS)
}

func TestLoadSeries_HistoryBeforeRangeCounts(t *testing.T) {
	svc, db, _ := newTestService(t)
	addRide(t, db, store.ActivitySummary{ID: "old", Date: day("2026-01-15"), TSS: floatPtr(150)})

	series, err := svc.LoadSeries(analysis.DateRange{From: day("2026-03-01"), To: day("2026-03-02")})
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Greater(t, series[0].CTL, 0.0)
	assert.Less(t, series[1].CTL, series[0].CTL, "load decays without training")
}

func TestLoadSeries_ReversedRange(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.LoadSeries(analysis.DateRange{From: day("2026-03-07"), To: day("2026-03-01")})
	var rangeErr *analysis.InvalidRangeError
	require.True(t, errors.As(err, &rangeErr))

	_, err = svc.CachedLoadSeries(analysis.DateRange{From: day("2026-03-07"), To: day("2026-03-01")})
	assert.True(t, errors.As(err, &rangeErr))
}

func TestLoadSeries_EmptyHistory(t *testing.T) {
	svc, _, _ := newTestService(t)

	series, err := svc.LoadSeries(analysis.DateRange{From: day("2026-03-01"), To: day("2026-03-03")})
	require.NoError(t, err)
	require.Len(t, series, 3)
	for _, s := range series {
		assert.Zero(t, s.CTL)
		assert.Zero(t, s.ATL)
		assert.Zero(t, s.TSB)
	}
}

func TestCurrentFitness(t *testing.T) {
	svc, db, _ := newTestService(t)
	addRide(t, db, store.ActivitySummary{ID: "a1", Date: testNow.Add(-2 * time.Hour), TSS: floatPtr(84)})

	snap, err := svc.CurrentFitness()
	require.NoError(t, err)
	assert.Equal(t, day("2026-03-12"), snap.Date)
	assert.InDelta(t, 2.0, snap.CTL, 1e-9)
	assert.InDelta(t, 12.0, snap.ATL, 1e-9)
}
