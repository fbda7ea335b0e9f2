package adaptation

import (
	"math"
	"sort"

	"pedalcoach/internal/store"
)

// WeekSummary aggregates one week of adaptations
type WeekSummary struct {
	TotalPlanned           int      `json:"totalPlanned"`
	TotalCompleted         int      `json:"totalCompleted"`
	TotalAdapted           int      `json:"totalAdapted"` // reduced, exceeded or substituted
	TotalSkipped           int      `json:"totalSkipped"`
	TotalUnplanned         int      `json:"totalUnplanned"`
	AvgStimulusAchievedPct *float64 `json:"avgStimulusAchievedPct"`
	TSSPlanned             float64  `json:"tssPlanned"`
	TSSActual              float64  `json:"tssActual"` // unplanned rides included
	TSSAchievementPct      *float64 `json:"tssAchievementPct"`
}

// DetectWeek classifies every planned workout of a week and surfaces rides
// no planned workout points at as unplanned. Activities are linked through
// PlannedWorkout.CompletedActivityID. Upcoming workouts are omitted.
func (d *Detector) DetectWeek(planned []store.PlannedWorkout, activities []store.ActivitySummary, ftp *float64, tc TrainingContext) []store.WorkoutAdaptation {
	byID := make(map[string]*store.ActivitySummary, len(activities))
	for i := range activities {
		byID[activities[i].ID] = &activities[i]
	}

	linked := make(map[string]bool)
	var out []store.WorkoutAdaptation

	for _, pw := range planned {
		var activity *store.ActivitySummary
		if pw.CompletedActivityID != nil {
			if a, ok := byID[*pw.CompletedActivityID]; ok && !linked[a.ID] {
				activity = a
				linked[a.ID] = true
			}
		}
		if a, ok := d.Detect(pw, activity, ftp, tc); ok {
			out = append(out, a)
		}
	}

	for _, a := range activities {
		if linked[a.ID] {
			continue
		}
		out = append(out, d.DetectUnplanned(a, ftp, tc))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WorkoutDate.Before(out[j].WorkoutDate)
	})
	return out
}

// SummarizeWeek totals a week's adaptations. Superseded records are ignored.
func SummarizeWeek(adaptations []store.WorkoutAdaptation) WeekSummary {
	var s WeekSummary
	var pctSum, pctCount int

	for _, a := range adaptations {
		if a.SupersededBy != nil {
			continue
		}

		switch a.AdaptationType {
		case store.AdaptationCompleted:
			s.TotalCompleted++
		case store.AdaptationSkipped:
			s.TotalSkipped++
		case store.AdaptationUnplanned:
			s.TotalUnplanned++
		default:
			s.TotalAdapted++
		}
		if a.AdaptationType != store.AdaptationUnplanned {
			s.TotalPlanned++
		}

		if a.StimulusAchievedPct != nil {
			pctSum += *a.StimulusAchievedPct
			pctCount++
		}
		if a.PlannedTSS != nil {
			s.TSSPlanned += *a.PlannedTSS
		}
		if a.ActualTSS != nil {
			s.TSSActual += *a.ActualTSS
		}
	}

	if pctCount > 0 {
		avg := round1(float64(pctSum) / float64(pctCount))
		s.AvgStimulusAchievedPct = &avg
	}
	if s.TSSPlanned > 0 {
		pct := round1(s.TSSActual / s.TSSPlanned * 100)
		s.TSSAchievementPct = &pct
	}
	s.TSSPlanned = math.Round(s.TSSPlanned)
	s.TSSActual = math.Round(s.TSSActual)
	return s
}
