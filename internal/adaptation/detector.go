package adaptation

import (
	"math"
	"time"

	"github.com/google/uuid"

	"pedalcoach/internal/analysis"
	"pedalcoach/internal/store"
)

// DetectorConfig holds the tunable classification bounds
type DetectorConfig struct {
	// Stimulus achievement band (percent) counted as completed as planned
	CompletedLowerPct int
	CompletedUpperPct int

	// Actual/planned intensity factor ratios outside this band mean a
	// different workout type was ridden
	SubstitutionLowerRatio float64
	SubstitutionUpperRatio float64
}

// DefaultDetectorConfig returns the standard bounds
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		CompletedLowerPct:      90,
		CompletedUpperPct:      110,
		SubstitutionLowerRatio: 0.75,
		SubstitutionUpperRatio: 1.33,
	}
}

// TrainingContext is the ambient state copied into every adaptation record.
// The values are historical facts and are never recomputed afterwards.
type TrainingContext struct {
	UserID     string
	WeekNumber int
	Phase      string
	Load       analysis.LoadSnapshot
}

// Detector classifies planned workouts against what was actually ridden
type Detector struct {
	cfg   DetectorConfig
	now   func() time.Time
	newID func() string
}

// NewDetector creates a detector using the wall clock
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock returns a copy of the detector that reads time from now
func (d *Detector) WithClock(now func() time.Time) *Detector {
	c := *d
	c.now = now
	return &c
}

// stimulus is the measured side of a planned/actual comparison
type stimulus struct {
	pct     *int
	ifRatio *float64
}

type adaptationRule struct {
	matches func(s stimulus, cfg DetectorConfig) bool
	kind    store.AdaptationType
}

// rules is evaluated top to bottom; the last rule always matches
var rules = []adaptationRule{
	{
		matches: func(s stimulus, cfg DetectorConfig) bool {
			if s.ifRatio == nil {
				return false
			}
			if *s.ifRatio >= cfg.SubstitutionLowerRatio && *s.ifRatio <= cfg.SubstitutionUpperRatio {
				return false
			}
			// A shortfall or overshoot in TSS outranks the change of workout type
			return s.pct == nil || (*s.pct >= cfg.CompletedLowerPct && *s.pct <= cfg.CompletedUpperPct)
		},
		kind: store.AdaptationSubstituted,
	},
	{
		matches: func(s stimulus, cfg DetectorConfig) bool {
			return s.pct != nil && *s.pct < cfg.CompletedLowerPct
		},
		kind: store.AdaptationReduced,
	},
	{
		matches: func(s stimulus, cfg DetectorConfig) bool {
			return s.pct != nil && *s.pct <= cfg.CompletedUpperPct
		},
		kind: store.AdaptationCompleted,
	},
	{
		matches: func(s stimulus, cfg DetectorConfig) bool {
			return s.pct != nil
		},
		kind: store.AdaptationExceeded,
	},
	{
		// Nothing to compare against: the activity fulfilled the plan
		matches: func(stimulus, DetectorConfig) bool { return true },
		kind:    store.AdaptationCompleted,
	},
}

func (d *Detector) classify(s stimulus) store.AdaptationType {
	for _, r := range rules {
		if r.matches(s, d.cfg) {
			return r.kind
		}
	}
	return store.AdaptationCompleted
}

// Detect classifies one planned workout. activity is the ride linked to it,
// or nil. The boolean is false when the workout is still upcoming and there
// is nothing to record yet.
func (d *Detector) Detect(planned store.PlannedWorkout, activity *store.ActivitySummary, ftp *float64, tc TrainingContext) (store.WorkoutAdaptation, bool) {
	plannedID := planned.ID
	a := d.base(tc, planned.ScheduledDate)
	a.PlannedWorkoutID = &plannedID
	a.PlannedTSS = positiveOrNil(planned.TargetTSS)
	if a.UserID == "" {
		a.UserID = planned.UserID
	}

	if activity == nil {
		if !analysis.Day(planned.ScheduledDate).Before(analysis.Day(d.now())) {
			return store.WorkoutAdaptation{}, false
		}
		a.AdaptationType = store.AdaptationSkipped
		return a, true
	}

	activityID := activity.ID
	a.ActivityID = &activityID

	actualIF := IntensityFactor(*activity, ftp)
	actualTSS := ActualTSS(*activity, actualIF)
	a.ActualTSS = actualTSS

	if a.PlannedTSS != nil && actualTSS != nil {
		delta := round1(*actualTSS - *a.PlannedTSS)
		a.TSSDelta = &delta
	}
	if planned.TargetDurationMin != nil {
		delta := round1(activity.DurationMin - *planned.TargetDurationMin)
		a.DurationDelta = &delta
	}

	s := stimulus{pct: achievementPct(a.PlannedTSS, actualTSS)}
	if actualIF != nil && planned.TargetIntensityFactor != nil && *planned.TargetIntensityFactor > 0 {
		ratio := *actualIF / *planned.TargetIntensityFactor
		s.ifRatio = &ratio
	}

	a.StimulusAchievedPct = s.pct
	a.AdaptationType = d.classify(s)
	return a, true
}

// DetectUnplanned records an activity that no planned workout points at
func (d *Detector) DetectUnplanned(activity store.ActivitySummary, ftp *float64, tc TrainingContext) store.WorkoutAdaptation {
	activityID := activity.ID
	a := d.base(tc, activity.Date)
	if a.UserID == "" {
		a.UserID = activity.UserID
	}
	a.ActivityID = &activityID
	a.AdaptationType = store.AdaptationUnplanned
	a.ActualTSS = ActualTSS(activity, IntensityFactor(activity, ftp))
	return a
}

func (d *Detector) base(tc TrainingContext, date time.Time) store.WorkoutAdaptation {
	return store.WorkoutAdaptation{
		ID:            d.newID(),
		UserID:        tc.UserID,
		WorkoutDate:   analysis.Day(date),
		WeekNumber:    tc.WeekNumber,
		TrainingPhase: tc.Phase,
		CTLAtTime:     tc.Load.CTL,
		ATLAtTime:     tc.Load.ATL,
		TSBAtTime:     tc.Load.TSB,
		DetectedAt:    d.now(),
	}
}

// IntensityFactor returns the activity's IF, derived from normalized power
// and FTP when the source didn't provide one
func IntensityFactor(a store.ActivitySummary, ftp *float64) *float64 {
	if a.IntensityFactor != nil && *a.IntensityFactor > 0 {
		return a.IntensityFactor
	}
	if a.NormalizedPower == nil || ftp == nil || *a.NormalizedPower <= 0 || *ftp <= 0 {
		return nil
	}
	v := *a.NormalizedPower / *ftp
	return &v
}

// ActualTSS returns the activity's TSS, derived as hours * IF^2 * 100 when
// the source didn't provide one
func ActualTSS(a store.ActivitySummary, intensity *float64) *float64 {
	if a.TSS != nil {
		v := analysis.SanitizeTSS(*a.TSS)
		return &v
	}
	if intensity == nil || a.DurationMin <= 0 {
		return nil
	}
	v := round1(a.DurationMin / 60 * *intensity * *intensity * 100)
	return &v
}

// achievementPct compares actual TSS to the target. Without a positive
// target there is nothing to measure against.
func achievementPct(plannedTSS, actualTSS *float64) *int {
	if plannedTSS == nil || *plannedTSS <= 0 || actualTSS == nil {
		return nil
	}
	pct := int(math.Round(*actualTSS / *plannedTSS * 100))
	return &pct
}

func positiveOrNil(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
