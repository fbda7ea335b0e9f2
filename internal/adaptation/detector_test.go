package adaptation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedalcoach/internal/analysis"
	"pedalcoach/internal/store"
)

func floatPtr(f float64) *float64 {
	return &f
}

func strPtr(s string) *string {
	return &s
}

func date(s string) time.Time {
	t, err := time.Parse(analysis.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Thursday of the week starting 2026-03-09
var testNow = date("2026-03-12").Add(9 * time.Hour)

func testDetector() *Detector {
	return NewDetector(DefaultDetectorConfig()).WithClock(func() time.Time { return testNow })
}

var testContext = TrainingContext{
	UserID:     "athlete-1",
	WeekNumber: 6,
	Phase:      "build",
	Load:       analysis.LoadSnapshot{CTL: 62.4, ATL: 71.9, TSB: -9.5},
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name        string
		planned     store.PlannedWorkout
		activity    store.ActivitySummary
		ftp         *float64
		wantType    store.AdaptationType
		wantPct     *int
		wantTSS     *float64
		wantTSSDiff *float64
	}{
		{
			name:        "reduced ride",
			planned:     store.PlannedWorkout{ID: "p1", TargetTSS: floatPtr(100)},
			activity:    store.ActivitySummary{ID: "a1", TSS: floatPtr(70), DurationMin: 60},
			wantType:    store.AdaptationReduced,
			wantPct:     intPtr(70),
			wantTSS:     floatPtr(70),
			wantTSSDiff: floatPtr(-30),
		},
		{
			name: "completed as planned",
			planned: store.PlannedWorkout{
				ID: "p2", TargetTSS: floatPtr(85), TargetIntensityFactor: floatPtr(0.75),
			},
			activity: store.ActivitySummary{
				ID: "a2", TSS: floatPtr(85), IntensityFactor: floatPtr(0.76), DurationMin: 90,
			},
			wantType:    store.AdaptationCompleted,
			wantPct:     intPtr(100),
			wantTSS:     floatPtr(85),
			wantTSSDiff: floatPtr(0),
		},
		{
			name:     "lower band edge",
			planned:  store.PlannedWorkout{ID: "p3", TargetTSS: floatPtr(100)},
			activity: store.ActivitySummary{ID: "a3", TSS: floatPtr(90)},
			wantType: store.AdaptationCompleted,
			wantPct:  intPtr(90),
		},
		{
			name:     "just under lower band",
			planned:  store.PlannedWorkout{ID: "p4", TargetTSS: floatPtr(100)},
			activity: store.ActivitySummary{ID: "a4", TSS: floatPtr(89)},
			wantType: store.AdaptationReduced,
			wantPct:  intPtr(89),
		},
		{
			name:     "upper band edge",
			planned:  store.PlannedWorkout{ID: "p5", TargetTSS: floatPtr(100)},
			activity: store.ActivitySummary{ID: "a5", TSS: floatPtr(110)},
			wantType: store.AdaptationCompleted,
			wantPct:  intPtr(110),
		},
		{
			name:     "exceeded",
			planned:  store.PlannedWorkout{ID: "p6", TargetTSS: floatPtr(100)},
			activity: store.ActivitySummary{ID: "a6", TSS: floatPtr(125)},
			wantType: store.AdaptationExceeded,
			wantPct:  intPtr(125),
		},
		{
			name: "endurance ride instead of intervals",
			planned: store.PlannedWorkout{
				ID: "p7", TargetTSS: floatPtr(100), TargetIntensityFactor: floatPtr(0.9),
			},
			activity: store.ActivitySummary{
				ID: "a7", TSS: floatPtr(100), IntensityFactor: floatPtr(0.62), DurationMin: 150,
			},
			wantType: store.AdaptationSubstituted,
			wantPct:  intPtr(100),
		},
		{
			name: "intensity derived from normalized power",
			planned: store.PlannedWorkout{
				ID: "p8", TargetTSS: floatPtr(80), TargetIntensityFactor: floatPtr(0.65),
			},
			activity: store.ActivitySummary{
				ID: "a8", TSS: floatPtr(80), NormalizedPower: floatPtr(285), DurationMin: 60,
			},
			ftp:      floatPtr(300),
			wantType: store.AdaptationSubstituted, // 0.95 / 0.65 > 1.33
			wantPct:  intPtr(100),
		},
		{
			name:     "TSS derived from duration and intensity",
			planned:  store.PlannedWorkout{ID: "p9", TargetTSS: floatPtr(100)},
			activity: store.ActivitySummary{ID: "a9", IntensityFactor: floatPtr(0.8), DurationMin: 90},
			wantType: store.AdaptationCompleted,
			wantPct:  intPtr(96),
			wantTSS:  floatPtr(96),
		},
		{
			name:     "duration target only",
			planned:  store.PlannedWorkout{ID: "p10", TargetDurationMin: floatPtr(60)},
			activity: store.ActivitySummary{ID: "a10", DurationMin: 45},
			wantType: store.AdaptationCompleted,
			wantPct:  nil,
		},
		{
			name:     "zero planned TSS",
			planned:  store.PlannedWorkout{ID: "p12", TargetTSS: floatPtr(0), TargetDurationMin: floatPtr(60)},
			activity: store.ActivitySummary{ID: "a12", TSS: floatPtr(40), DurationMin: 90},
			wantType: store.AdaptationCompleted,
			wantPct:  nil,
			wantTSS:  floatPtr(40),
		},
		{
			name: "short easy ride instead of intervals",
			planned: store.PlannedWorkout{
				ID: "p13", TargetTSS: floatPtr(100), TargetIntensityFactor: floatPtr(0.9),
			},
			activity: store.ActivitySummary{
				ID: "a13", TSS: floatPtr(30), IntensityFactor: floatPtr(0.6), DurationMin: 50,
			},
			wantType: store.AdaptationReduced,
			wantPct:  intPtr(30),
		},
		{
			name: "long hard ride instead of endurance",
			planned: store.PlannedWorkout{
				ID: "p14", TargetTSS: floatPtr(80), TargetIntensityFactor: floatPtr(0.65),
			},
			activity: store.ActivitySummary{
				ID: "a14", TSS: floatPtr(160), IntensityFactor: floatPtr(0.95), DurationMin: 120,
			},
			wantType: store.AdaptationExceeded,
			wantPct:  intPtr(200),
		},
		{
			name: "type diverges without a TSS target",
			planned: store.PlannedWorkout{
				ID: "p15", TargetIntensityFactor: floatPtr(0.9),
			},
			activity: store.ActivitySummary{
				ID: "a15", TSS: floatPtr(55), IntensityFactor: floatPtr(0.6), DurationMin: 90,
			},
			wantType: store.AdaptationSubstituted,
			wantPct:  nil,
		},
		{
			name:     "no targets at all",
			planned:  store.PlannedWorkout{ID: "p11", WorkoutType: "recovery"},
			activity: store.ActivitySummary{ID: "a11", TSS: floatPtr(30), DurationMin: 40},
			wantType: store.AdaptationCompleted,
			wantPct:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.planned.ScheduledDate = date("2026-03-10")
			activity := tt.activity

			got, ok := testDetector().Detect(tt.planned, &activity, tt.ftp, testContext)
			require.True(t, ok)

			assert.Equal(t, tt.wantType, got.AdaptationType)
			assert.Equal(t, tt.wantPct, got.StimulusAchievedPct)
			require.NotNil(t, got.PlannedWorkoutID)
			assert.Equal(t, tt.planned.ID, *got.PlannedWorkoutID)
			require.NotNil(t, got.ActivityID)
			assert.Equal(t, activity.ID, *got.ActivityID)

			if tt.wantTSS != nil {
				require.NotNil(t, got.ActualTSS)
				assert.InDelta(t, *tt.wantTSS, *got.ActualTSS, 0.01)
			}
			if tt.wantTSSDiff != nil {
				require.NotNil(t, got.TSSDelta)
				assert.InDelta(t, *tt.wantTSSDiff, *got.TSSDelta, 0.01)
			}
		})
	}
}

func TestDetect_ExactMatchIsAlwaysCompleted(t *testing.T) {
	for _, tss := range []float64{20, 55, 100, 180, 320} {
		for _, intensity := range []float64{0.55, 0.7, 0.85, 1.0, 1.1} {
			planned := store.PlannedWorkout{
				ID:                    "p",
				ScheduledDate:         date("2026-03-09"),
				TargetTSS:             floatPtr(tss),
				TargetIntensityFactor: floatPtr(intensity),
			}
			activity := store.ActivitySummary{
				ID:              "a",
				TSS:             floatPtr(tss),
				IntensityFactor: floatPtr(intensity * 1.02),
			}

			got, ok := testDetector().Detect(planned, &activity, nil, testContext)
			require.True(t, ok)
			assert.Equal(t, store.AdaptationCompleted, got.AdaptationType, "tss=%v if=%v", tss, intensity)
		}
	}
}

func TestDetect_Skipped(t *testing.T) {
	planned := store.PlannedWorkout{
		ID:                "p1",
		ScheduledDate:     date("2026-03-11"),
		TargetTSS:         floatPtr(90),
		TargetDurationMin: floatPtr(75),
	}

	got, ok := testDetector().Detect(planned, nil, floatPtr(280), testContext)
	require.True(t, ok)

	assert.Equal(t, store.AdaptationSkipped, got.AdaptationType)
	assert.Nil(t, got.ActivityID)
	assert.Nil(t, got.ActualTSS)
	assert.Nil(t, got.TSSDelta)
	assert.Nil(t, got.DurationDelta)
	assert.Nil(t, got.StimulusAchievedPct)
	assert.Equal(t, floatPtr(90), got.PlannedTSS)
}

func TestDetect_Upcoming(t *testing.T) {
	for _, scheduled := range []string{"2026-03-12", "2026-03-14"} {
		planned := store.PlannedWorkout{ID: "p1", ScheduledDate: date(scheduled), TargetTSS: floatPtr(90)}
		_, ok := testDetector().Detect(planned, nil, nil, testContext)
		assert.False(t, ok, "scheduled %s", scheduled)
	}
}

func TestDetect_ContextCopiedVerbatim(t *testing.T) {
	planned := store.PlannedWorkout{ID: "p1", UserID: "athlete-1", ScheduledDate: date("2026-03-09"), TargetTSS: floatPtr(60)}
	activity := store.ActivitySummary{ID: "a1", TSS: floatPtr(60), DurationMin: 60}

	got, ok := testDetector().Detect(planned, &activity, nil, testContext)
	require.True(t, ok)

	assert.Equal(t, "athlete-1", got.UserID)
	assert.Equal(t, 6, got.WeekNumber)
	assert.Equal(t, "build", got.TrainingPhase)
	assert.Equal(t, 62.4, got.CTLAtTime)
	assert.Equal(t, 71.9, got.ATLAtTime)
	assert.Equal(t, -9.5, got.TSBAtTime)
	assert.Equal(t, testNow, got.DetectedAt)
	assert.Equal(t, date("2026-03-09"), got.WorkoutDate)

	_, err := uuid.Parse(got.ID)
	assert.NoError(t, err)
}

func TestDetect_DurationDelta(t *testing.T) {
	planned := store.PlannedWorkout{
		ID: "p1", ScheduledDate: date("2026-03-09"),
		TargetTSS: floatPtr(100), TargetDurationMin: floatPtr(90),
	}
	activity := store.ActivitySummary{ID: "a1", TSS: floatPtr(80), DurationMin: 72.5}

	got, ok := testDetector().Detect(planned, &activity, nil, testContext)
	require.True(t, ok)
	require.NotNil(t, got.DurationDelta)
	assert.Equal(t, -17.5, *got.DurationDelta)
}

func TestDetectUnplanned(t *testing.T) {
	activity := store.ActivitySummary{
		ID: "a1", UserID: "athlete-1", Date: date("2026-03-10").Add(17 * time.Hour),
		TSS: floatPtr(45), DurationMin: 50,
	}

	got := testDetector().DetectUnplanned(activity, nil, testContext)

	assert.Equal(t, store.AdaptationUnplanned, got.AdaptationType)
	assert.Nil(t, got.PlannedWorkoutID)
	require.NotNil(t, got.ActivityID)
	assert.Equal(t, "a1", *got.ActivityID)
	require.NotNil(t, got.ActualTSS)
	assert.Equal(t, 45.0, *got.ActualTSS)
	assert.Nil(t, got.TSSDelta)
	assert.Nil(t, got.StimulusAchievedPct)
	assert.Equal(t, date("2026-03-10"), got.WorkoutDate)
}

func TestDetectUnplanned_TSSFromNormalizedPower(t *testing.T) {
	activity := store.ActivitySummary{
		ID: "a1", Date: date("2026-03-10").Add(17 * time.Hour),
		NormalizedPower: floatPtr(210), DurationMin: 60,
	}

	got := testDetector().DetectUnplanned(activity, floatPtr(300), testContext)
	require.NotNil(t, got.ActualTSS)
	assert.InDelta(t, 49.0, *got.ActualTSS, 0.01) // 1h at IF 0.7

	got = testDetector().DetectUnplanned(activity, nil, testContext)
	assert.Nil(t, got.ActualTSS)
}

func TestCustomBands(t *testing.T) {
	cfg := DefaultDetectorConfig()
	cfg.CompletedLowerPct = 80
	d := NewDetector(cfg).WithClock(func() time.Time { return testNow })

	planned := store.PlannedWorkout{ID: "p1", ScheduledDate: date("2026-03-09"), TargetTSS: floatPtr(100)}
	activity := store.ActivitySummary{ID: "a1", TSS: floatPtr(85)}

	got, ok := d.Detect(planned, &activity, nil, testContext)
	require.True(t, ok)
	assert.Equal(t, store.AdaptationCompleted, got.AdaptationType)
}

func intPtr(i int) *int {
	return &i
}
