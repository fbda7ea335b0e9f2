package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedalcoach/internal/store"
)

func TestGetDashboardData(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedWeek(t, db)
	_, err := svc.DetectWeek(day("2026-03-09"))
	require.NoError(t, err)

	data, err := svc.GetDashboardData()
	require.NoError(t, err)

	assert.Len(t, data.LoadHistory, 14)
	assert.Equal(t, day("2026-03-12"), data.Current.Date)
	assert.Equal(t, data.Current.CTL-data.Current.ATL, data.Current.TSB)
	assert.NotEmpty(t, data.FormDescription)

	assert.Equal(t, day("2026-03-09"), data.WeekStart)
	assert.Equal(t, 6, data.WeekNumber)
	assert.Equal(t, "build", data.Phase)
	assert.Equal(t, 1, data.Week.TotalCompleted)

	require.Len(t, data.RecentAdaptations, 4)
	assert.Equal(t, store.AdaptationUnplanned, data.RecentAdaptations[0].AdaptationType)

	require.NotNil(t, data.Patterns)
	assert.Equal(t, 4, data.Patterns.TotalWorkoutsTracked)

	assert.Equal(t, 3, data.TotalRides)
	assert.Equal(t, []float64{1.43}, data.EFHistory)
	assert.Equal(t, 1.43, data.CurrentEF)
	assert.Empty(t, data.EFTrend)
}

func TestGetDashboardData_Empty(t *testing.T) {
	svc, _, _ := newTestService(t)

	data, err := svc.GetDashboardData()
	require.NoError(t, err)
	assert.Len(t, data.LoadHistory, 14)
	assert.Nil(t, data.Patterns)
	assert.Empty(t, data.RecentAdaptations)
	assert.Zero(t, data.CurrentEF)
}

func TestCalculateCurrentEF(t *testing.T) {
	now := testNow
	ride := func(daysAgo int, power, hr float64) store.ActivitySummary {
		return store.ActivitySummary{Date: now.Add(-time.Duration(daysAgo) * 24 * time.Hour), AvgPower: &power, AvgHeartRate: &hr}
	}

	ef, trend := calculateCurrentEF([]store.ActivitySummary{
		ride(20, 180, 150), // 1.2
		ride(2, 210, 140),  // 1.5
	}, now)
	assert.Equal(t, 1.5, ef)
	assert.Equal(t, "↑", trend)

	ef, trend = calculateCurrentEF([]store.ActivitySummary{ride(20, 180, 150)}, now)
	assert.Zero(t, ef)
	assert.Empty(t, trend)
}
