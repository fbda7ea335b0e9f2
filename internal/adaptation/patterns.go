package adaptation

import (
	"math"
	"sort"
	"strings"
	"time"

	"pedalcoach/internal/store"
)

const (
	// Workout count at which pattern confidence saturates
	ConfidenceSaturation = 50

	UndertrainThresholdPct = 85.0
	OverreachThresholdPct  = 115.0

	preferredDayCount   = 3
	problematicDayCount = 2
	problematicBelowPct = 50.0
)

// mondayFirst is the tie-break order for weekdays
var mondayFirst = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// RecomputeUserPatterns rebuilds the behavioral profile from the full
// adaptation history. Superseded records are ignored. When nothing is left
// it returns false and the caller must keep any previous snapshot.
func RecomputeUserPatterns(userID string, history []store.WorkoutAdaptation, minData int, now time.Time) (*store.UserTrainingPatterns, bool) {
	current := make([]store.WorkoutAdaptation, 0, len(history))
	for _, a := range history {
		if a.SupersededBy == nil {
			current = append(current, a)
		}
	}
	if len(current) == 0 {
		return nil, false
	}

	total := len(current)
	p := &store.UserTrainingPatterns{
		UserID:               userID,
		TotalWorkoutsTracked: total,
		ComputedAt:           now,
	}

	completed := 0
	for _, a := range current {
		if a.AdaptationType == store.AdaptationCompleted {
			completed++
		}
	}
	p.AvgWeeklyCompliance = round1(float64(completed) / float64(total) * 100)

	p.ComplianceByWeekday = weekdayCompliance(current)
	p.PreferredDays = preferredDays(p.ComplianceByWeekday)
	p.ProblematicDays = problematicDays(p.ComplianceByWeekday)
	p.CommonAdaptations = commonAdaptations(current)
	p.ReasonDistribution = reasonDistribution(current)
	p.AvgTSSAchievementPct = avgTSSAchievement(current)

	if p.AvgTSSAchievementPct != nil {
		p.TendsToUndertrain = *p.AvgTSSAchievementPct < UndertrainThresholdPct
		p.TendsToOverreach = *p.AvgTSSAchievementPct > OverreachThresholdPct
	}

	p.PatternConfidence = math.Min(1, float64(total)/ConfidenceSaturation)
	p.HasEnoughData = total >= minData
	return p, true
}

func weekdayCompliance(history []store.WorkoutAdaptation) [7]store.WeekdayCompliance {
	var days [7]store.WeekdayCompliance
	for i := range days {
		days[i].Weekday = time.Weekday(i)
	}
	for _, a := range history {
		wd := a.DetectedAt.Weekday()
		days[wd].Total++
		if a.AdaptationType == store.AdaptationCompleted {
			days[wd].Completed++
		}
	}
	for i := range days {
		if days[i].Total > 0 {
			days[i].Pct = round1(float64(days[i].Completed) / float64(days[i].Total) * 100)
		}
	}
	return days
}

// rankedDays returns tracked weekdays ordered by compliance, breaking ties
// by more workouts and then Monday-first order
func rankedDays(days [7]store.WeekdayCompliance, ascending bool) []store.WeekdayCompliance {
	var tracked []store.WeekdayCompliance
	for _, wd := range mondayFirst {
		if days[wd].Total > 0 {
			tracked = append(tracked, days[wd])
		}
	}
	sort.SliceStable(tracked, func(i, j int) bool {
		if tracked[i].Pct != tracked[j].Pct {
			if ascending {
				return tracked[i].Pct < tracked[j].Pct
			}
			return tracked[i].Pct > tracked[j].Pct
		}
		return tracked[i].Total > tracked[j].Total
	})
	return tracked
}

func preferredDays(days [7]store.WeekdayCompliance) []time.Weekday {
	out := []time.Weekday{}
	for _, d := range rankedDays(days, false) {
		if len(out) == preferredDayCount {
			break
		}
		out = append(out, d.Weekday)
	}
	return out
}

func problematicDays(days [7]store.WeekdayCompliance) []time.Weekday {
	out := []time.Weekday{}
	for _, d := range rankedDays(days, true) {
		if len(out) == problematicDayCount || d.Pct >= problematicBelowPct {
			break
		}
		out = append(out, d.Weekday)
	}
	return out
}

func commonAdaptations(history []store.WorkoutAdaptation) []store.Frequency {
	counts := make(map[string]int)
	for _, a := range history {
		if a.AdaptationType != store.AdaptationCompleted {
			counts[string(a.AdaptationType)]++
		}
	}
	return frequencies(counts, len(history))
}

// reasonDistribution is normalized to the adaptations that carry a reason
func reasonDistribution(history []store.WorkoutAdaptation) []store.Frequency {
	counts := make(map[string]int)
	withReason := 0
	for _, a := range history {
		if a.Reason == nil {
			continue
		}
		reason := strings.TrimSpace(*a.Reason)
		if reason == "" {
			continue
		}
		counts[reason]++
		withReason++
	}
	return frequencies(counts, withReason)
}

func frequencies(counts map[string]int, denominator int) []store.Frequency {
	out := make([]store.Frequency, 0, len(counts))
	for key, n := range counts {
		out = append(out, store.Frequency{
			Key:   key,
			Count: n,
			Pct:   round1(float64(n) / float64(denominator) * 100),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func avgTSSAchievement(history []store.WorkoutAdaptation) *float64 {
	var sum float64
	var n int
	for _, a := range history {
		if a.PlannedTSS == nil || a.ActualTSS == nil || *a.PlannedTSS <= 0 {
			continue
		}
		sum += *a.ActualTSS / *a.PlannedTSS * 100
		n++
	}
	if n == 0 {
		return nil
	}
	avg := round1(sum / float64(n))
	return &avg
}
