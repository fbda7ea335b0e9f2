package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedalcoach/internal/store"
)

// seedWeek stores the week of 2026-03-09: a completed Monday, a cut-short
// Tuesday, a missed Wednesday, an unplanned Thursday ride and an upcoming
// Saturday
func seedWeek(t *testing.T, db *store.DB) {
	t.Helper()

	addRide(t, db, store.ActivitySummary{
		ID: "a-mon", Date: day("2026-03-09").Add(7 * time.Hour), TSS: floatPtr(95), DurationMin: 75,
		AvgPower: floatPtr(200), AvgHeartRate: floatPtr(140),
	})
	addRide(t, db, store.ActivitySummary{ID: "a-tue", Date: day("2026-03-10").Add(18 * time.Hour), TSS: floatPtr(60), DurationMin: 50})
	addRide(t, db, store.ActivitySummary{ID: "a-thu", Date: day("2026-03-12").Add(6 * time.Hour), TSS: floatPtr(50), DurationMin: 60})

	addPlanned(t, db, store.PlannedWorkout{ID: "p-mon", ScheduledDate: day("2026-03-09"), WorkoutType: "endurance", TargetTSS: floatPtr(100), TargetDurationMin: floatPtr(75), CompletedActivityID: strPtr("a-mon")})
	addPlanned(t, db, store.PlannedWorkout{ID: "p-tue", ScheduledDate: day("2026-03-10"), WorkoutType: "threshold", TargetTSS: floatPtr(100), CompletedActivityID: strPtr("a-tue")})
	addPlanned(t, db, store.PlannedWorkout{ID: "p-wed", ScheduledDate: day("2026-03-11"), WorkoutType: "recovery", TargetTSS: floatPtr(80)})
	addPlanned(t, db, store.PlannedWorkout{ID: "p-sat", ScheduledDate: day("2026-03-14"), WorkoutType: "long", TargetTSS: floatPtr(150)})
}

func TestDetectWeek(t *testing.T) {
	svc, db, m := newTestService(t)
	seedWeek(t, db)

	detected, err := svc.DetectWeek(day("2026-03-11"))
	require.NoError(t, err)
	require.Len(t, detected, 4, "upcoming Saturday produces no record")

	assert.Equal(t, store.AdaptationCompleted, detected[0].AdaptationType)
	assert.Equal(t, store.AdaptationReduced, detected[1].AdaptationType)
	assert.Equal(t, store.AdaptationSkipped, detected[2].AdaptationType)
	assert.Equal(t, store.AdaptationUnplanned, detected[3].AdaptationType)

	require.NotNil(t, detected[1].StimulusAchievedPct)
	assert.Equal(t, 60, *detected[1].StimulusAchievedPct)
	assert.Equal(t, "a-thu", *detected[3].ActivityID)

	load, err := svc.LoadOn(testNow)
	require.NoError(t, err)
	for _, a := range detected {
		assert.Equal(t, testUser, a.UserID)
		assert.Equal(t, 6, a.WeekNumber)
		assert.Equal(t, "build", a.TrainingPhase)
		assert.Equal(t, load.CTL, a.CTLAtTime)
		assert.Equal(t, load.TSB, a.TSBAtTime)
		assert.Equal(t, testNow, a.DetectedAt)
	}

	stored, err := svc.WeekAdaptations(day("2026-03-15"))
	require.NoError(t, err)
	assert.Len(t, stored, 4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterAdaptations.WithLabelValues(string(store.AdaptationReduced))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterPatternRecompute.WithLabelValues("written")))

	patterns, err := svc.Patterns()
	require.NoError(t, err)
	assert.Equal(t, 4, patterns.TotalWorkoutsTracked)
	assert.Equal(t, 25.0, patterns.AvgWeeklyCompliance)
	assert.True(t, patterns.HasEnoughData)
	assert.Equal(t, int64(1), patterns.Version)
}

func TestDetectWeek_RedetectSupersedes(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedWeek(t, db)

	first, err := svc.DetectWeek(day("2026-03-09"))
	require.NoError(t, err)
	second, err := svc.DetectWeek(day("2026-03-09"))
	require.NoError(t, err)
	require.Len(t, second, len(first))

	current, err := svc.WeekAdaptations(day("2026-03-09"))
	require.NoError(t, err)
	assert.Len(t, current, 4)

	history, err := svc.AdaptationHistory("p-mon")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Nil(t, history[0].SupersededBy)
	require.NotNil(t, history[1].SupersededBy)
	assert.Equal(t, history[0].ID, *history[1].SupersededBy)

	patterns, err := svc.Patterns()
	require.NoError(t, err)
	assert.Equal(t, 4, patterns.TotalWorkoutsTracked, "superseded records are not counted twice")
	assert.Equal(t, int64(2), patterns.Version)
}

func TestDetectWeek_EmptyWeek(t *testing.T) {
	svc, _, m := newTestService(t)

	detected, err := svc.DetectWeek(day("2026-04-06"))
	require.NoError(t, err)
	assert.Empty(t, detected)

	_, err = svc.Patterns()
	assert.ErrorIs(t, err, store.ErrPatternsNotFound)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CounterPatternRecompute.WithLabelValues("written")))
}

func TestWeekSummary(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedWeek(t, db)

	_, err := svc.DetectWeek(day("2026-03-09"))
	require.NoError(t, err)

	summary, err := svc.WeekSummary(day("2026-03-13"))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalPlanned)
	assert.Equal(t, 1, summary.TotalCompleted)
	assert.Equal(t, 1, summary.TotalAdapted)
	assert.Equal(t, 1, summary.TotalSkipped)
	assert.Equal(t, 1, summary.TotalUnplanned)
	assert.Equal(t, 280.0, summary.TSSPlanned)
	assert.Equal(t, 205.0, summary.TSSActual)
	require.NotNil(t, summary.AvgStimulusAchievedPct)
	assert.Equal(t, 77.5, *summary.AvgStimulusAchievedPct)
	require.NotNil(t, summary.TSSAchievementPct)
	assert.Equal(t, 73.2, *summary.TSSAchievementPct)
}

func TestUpdateFeedback(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedWeek(t, db)

	detected, err := svc.DetectWeek(day("2026-03-09"))
	require.NoError(t, err)
	tuesday := detected[1]

	updated, err := svc.UpdateFeedback(tuesday.ID, strPtr("fatigue"), strPtr("legs heavy after Monday"))
	require.NoError(t, err)
	require.NotNil(t, updated.Reason)
	assert.Equal(t, "fatigue", *updated.Reason)
	assert.Equal(t, tuesday.AdaptationType, updated.AdaptationType, "classification is immutable")

	// Feedback survives re-detection
	redetected, err := svc.DetectWeek(day("2026-03-09"))
	require.NoError(t, err)
	require.NotNil(t, redetected[1].Reason)
	assert.Equal(t, "fatigue", *redetected[1].Reason)

	patterns, err := svc.Patterns()
	require.NoError(t, err)
	require.Len(t, patterns.ReasonDistribution, 1)
	assert.Equal(t, "fatigue", patterns.ReasonDistribution[0].Key)
	assert.Equal(t, 100.0, patterns.ReasonDistribution[0].Pct)

	_, err = svc.UpdateFeedback("missing", strPtr("illness"), nil)
	assert.ErrorIs(t, err, store.ErrAdaptationNotFound)
}

func TestDetectWeek_RideFromAnotherWeek(t *testing.T) {
	svc, db, _ := newTestService(t)

	// Monday's workout was ridden the Sunday before
	addRide(t, db, store.ActivitySummary{ID: "a-sat", Date: day("2026-03-07").Add(9 * time.Hour), TSS: floatPtr(40), DurationMin: 45})
	addRide(t, db, store.ActivitySummary{ID: "a-sun", Date: day("2026-03-08").Add(9 * time.Hour), TSS: floatPtr(98), DurationMin: 80})
	addPlanned(t, db, store.PlannedWorkout{ID: "p-mon", ScheduledDate: day("2026-03-09"), TargetTSS: floatPtr(100)})

	// Before the link exists the Sunday ride is unplanned
	before, err := svc.DetectWeek(day("2026-03-03"))
	require.NoError(t, err)
	require.Len(t, before, 2)
	assert.Equal(t, store.AdaptationUnplanned, before[1].AdaptationType)

	require.NoError(t, db.LinkActivity("p-mon", "a-sun"))

	detected, err := svc.DetectWeek(day("2026-03-10"))
	require.NoError(t, err)
	require.Len(t, detected, 1)
	monday := detected[0]
	assert.Equal(t, store.AdaptationCompleted, monday.AdaptationType)
	require.NotNil(t, monday.ActivityID)
	assert.Equal(t, "a-sun", *monday.ActivityID)
	require.NotNil(t, monday.StimulusAchievedPct)
	assert.Equal(t, 98, *monday.StimulusAchievedPct)
	assert.Equal(t, day("2026-03-09"), monday.WorkoutDate)

	// The earlier unplanned record is replaced and not produced again
	previous, err := svc.WeekAdaptations(day("2026-03-03"))
	require.NoError(t, err)
	require.Len(t, previous, 1)
	assert.Equal(t, "a-sat", *previous[0].ActivityID)

	redetected, err := svc.DetectWeek(day("2026-03-03"))
	require.NoError(t, err)
	require.Len(t, redetected, 1)
	assert.Equal(t, "a-sat", *redetected[0].ActivityID)

	summary, err := svc.WeekSummary(day("2026-03-10"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalCompleted)
	assert.Equal(t, 0, summary.TotalSkipped)
}
