package store

import "time"

// AdaptationType classifies how a planned workout was executed
type AdaptationType string

const (
	AdaptationCompleted   AdaptationType = "completed_as_planned"
	AdaptationReduced     AdaptationType = "reduced"
	AdaptationExceeded    AdaptationType = "exceeded"
	AdaptationSubstituted AdaptationType = "substituted"
	AdaptationSkipped     AdaptationType = "skipped"
	AdaptationUnplanned   AdaptationType = "unplanned"
)

// ActivitySummary is a completed ride (or other primary-sport session).
// Optional metrics are nil when the source didn't provide them.
type ActivitySummary struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"userId"`
	Date            time.Time `db:"date" json:"date"`
	Sport           string    `db:"sport" json:"sport"`
	TSS             *float64  `db:"tss" json:"tss"`
	DurationMin     float64   `db:"duration_min" json:"durationMin"`
	IntensityFactor *float64  `db:"intensity_factor" json:"intensityFactor"`
	NormalizedPower *float64  `db:"normalized_power" json:"normalizedPower"` // watts
	AvgPower        *float64  `db:"avg_power" json:"avgPower"`               // watts
	MaxPower        *float64  `db:"max_power" json:"maxPower"`               // watts
	AvgHeartRate    *float64  `db:"avg_heart_rate" json:"avgHeartRate"`      // bpm
}

// CrossTrainingSession is a non-cycling session carrying its own TSS estimate
type CrossTrainingSession struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"userId"`
	Date         time.Time `db:"date" json:"date"`
	Activity     string    `db:"activity" json:"activity"` // e.g. "strength", "run", "yoga"
	DurationMin  float64   `db:"duration_min" json:"durationMin"`
	EstimatedTSS float64   `db:"estimated_tss" json:"estimatedTss"`
}

// PlannedWorkout is a scheduled session from the training plan
type PlannedWorkout struct {
	ID                    string    `db:"id" json:"id"`
	UserID                string    `db:"user_id" json:"userId"`
	ScheduledDate         time.Time `db:"scheduled_date" json:"scheduledDate"`
	WorkoutType           string    `db:"workout_type" json:"workoutType"`                  // e.g. "endurance", "threshold", "vo2max"
	TargetTSS             *float64  `db:"target_tss" json:"targetTss"`
	TargetDurationMin     *float64  `db:"target_duration_min" json:"targetDurationMin"`
	TargetIntensityFactor *float64  `db:"target_intensity_factor" json:"targetIntensityFactor"`
	CompletedActivityID   *string   `db:"completed_activity_id" json:"completedActivityId"` // activity that fulfilled it
}

// WorkoutAdaptation records the outcome of one planned/actual pairing.
// Everything except Reason and Notes is immutable once written; re-detection
// inserts a new row and points SupersededBy of the old row at it.
type WorkoutAdaptation struct {
	ID                  string         `db:"id" json:"id"`
	UserID              string         `db:"user_id" json:"userId"`
	PlannedWorkoutID    *string        `db:"planned_workout_id" json:"plannedWorkoutId"`
	ActivityID          *string        `db:"activity_id" json:"activityId"`
	AdaptationType      AdaptationType `db:"adaptation_type" json:"adaptationType"`
	WorkoutDate         time.Time      `db:"workout_date" json:"workoutDate"`
	PlannedTSS          *float64       `db:"planned_tss" json:"plannedTss"`
	ActualTSS           *float64       `db:"actual_tss" json:"actualTss"`
	TSSDelta            *float64       `db:"tss_delta" json:"tssDelta"`
	DurationDelta       *float64       `db:"duration_delta" json:"durationDelta"` // minutes
	StimulusAchievedPct *int           `db:"stimulus_achieved_pct" json:"stimulusAchievedPct"`
	WeekNumber          int            `db:"week_number" json:"weekNumber"`
	TrainingPhase       string         `db:"training_phase" json:"trainingPhase"`
	CTLAtTime           float64        `db:"ctl_at_time" json:"ctlAtTime"`
	ATLAtTime           float64        `db:"atl_at_time" json:"atlAtTime"`
	TSBAtTime           float64        `db:"tsb_at_time" json:"tsbAtTime"`
	DetectedAt          time.Time      `db:"detected_at" json:"detectedAt"`
	Reason              *string        `db:"reason" json:"reason"`
	Notes               *string        `db:"notes" json:"notes"`
	SupersededBy        *string        `db:"superseded_by" json:"supersededBy"`
}

// WeekdayCompliance is the completed/total ratio for one weekday
type WeekdayCompliance struct {
	Weekday   time.Weekday `json:"weekday"`
	Completed int          `json:"completed"`
	Total     int          `json:"total"`
	Pct       float64      `json:"pct"` // 0-100, 0 when Total is 0
}

// Frequency is one bucket of a frequency distribution
type Frequency struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// UserTrainingPatterns is the per-user behavioral profile, recomputed from
// the full adaptation history and upserted as a single row.
type UserTrainingPatterns struct {
	UserID               string               `db:"user_id" json:"userId"`
	TotalWorkoutsTracked int                  `db:"total_workouts_tracked" json:"totalWorkoutsTracked"`
	AvgWeeklyCompliance  float64              `db:"avg_weekly_compliance" json:"avgWeeklyCompliance"`
	ComplianceByWeekday  [7]WeekdayCompliance `db:"compliance_by_weekday" json:"complianceByWeekday"`
	PreferredDays        []time.Weekday       `db:"preferred_days" json:"preferredDays"`
	ProblematicDays      []time.Weekday       `db:"problematic_days" json:"problematicDays"`
	CommonAdaptations    []Frequency          `db:"common_adaptations" json:"commonAdaptations"`
	ReasonDistribution   []Frequency          `db:"reason_distribution" json:"reasonDistribution"`
	AvgTSSAchievementPct *float64             `db:"avg_tss_achievement_pct" json:"avgTssAchievementPct"`
	TendsToUndertrain    bool                 `db:"tends_to_undertrain" json:"tendsToUndertrain"`
	TendsToOverreach     bool                 `db:"tends_to_overreach" json:"tendsToOverreach"`
	PatternConfidence    float64              `db:"pattern_confidence" json:"patternConfidence"`
	HasEnoughData        bool                 `db:"has_enough_data" json:"hasEnoughData"`
	Version              int64                `db:"version" json:"version"`
	ComputedAt           time.Time            `db:"computed_at" json:"computedAt"`
}

// LoadSnapshotRow is a cached CTL/ATL/TSB value for one day
type LoadSnapshotRow struct {
	UserID string  `db:"user_id" json:"userId"`
	Date   string  `db:"date" json:"date"` // YYYY-MM-DD
	TSS    float64 `db:"tss" json:"tss"`
	CTL    float64 `db:"ctl" json:"ctl"`
	ATL    float64 `db:"atl" json:"atl"`
	TSB    float64 `db:"tsb" json:"tsb"`
}

// StreamPoint is a single second of a ride's power/heart-rate stream
type StreamPoint struct {
	ActivityID string   `db:"activity_id" json:"activityId"`
	TimeOffset int      `db:"time_offset" json:"timeOffset"` // seconds
	Power      *float64 `db:"power" json:"power"`            // watts
	HeartRate  *int     `db:"heart_rate" json:"heartRate"`   // bpm
}
