package service

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"pedalcoach/internal/adaptation"
	"pedalcoach/internal/analysis"
	"pedalcoach/internal/store"
)

// DashboardData contains all data needed for the dashboard
type DashboardData struct {
	// Current load, rounded for display
	Current         analysis.LoadSnapshot
	FormDescription string

	// Efficiency
	CurrentEF float64 // 7-day average, 0 without power/HR data
	EFTrend   string  // "↑" or "↓" against the 28-day average

	TotalRides int

	// This week
	WeekStart  time.Time
	WeekNumber int
	Phase      string
	Week       adaptation.WeekSummary

	RecentAdaptations []store.WorkoutAdaptation // newest first
	Patterns          *store.UserTrainingPatterns

	// For charts
	LoadHistory []analysis.LoadSnapshot
	EFHistory   []float64
	EFDates     []time.Time
}

// GetDashboardData fetches all data needed for the dashboard
func (s *CoachService) GetDashboardData() (*DashboardData, error) {
	now := s.now()
	today := analysis.Day(now)
	rng := analysis.DateRange{From: today.AddDate(0, 0, -(s.chartDays - 1)), To: today}

	data := &DashboardData{
		WeekStart:  adaptation.WeekStart(today),
		WeekNumber: s.plan.WeekNumber(today),
		Phase:      s.plan.PhaseOn(today),
	}

	series, err := s.LoadSeries(rng)
	if err != nil {
		return nil, fmt.Errorf("computing load series: %w", err)
	}
	data.LoadHistory = series
	if len(series) > 0 {
		data.Current = series[len(series)-1].Rounded()
		data.FormDescription = analysis.FormDescription(data.Current.TSB)
	}

	activities, err := s.store.ListActivities(s.userID, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	data.EFHistory, data.EFDates = buildEFHistory(activities)
	if data.TotalRides, err = s.store.CountActivities(s.userID); err != nil {
		return nil, fmt.Errorf("counting activities: %w", err)
	}
	data.CurrentEF, data.EFTrend = calculateCurrentEF(activities, now)

	if data.Week, err = s.WeekSummary(today); err != nil {
		return nil, err
	}

	adaptations, err := s.store.ListAdaptations(s.userID, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("listing adaptations: %w", err)
	}
	data.RecentAdaptations = newestFirst(adaptations, RecentAdaptations)

	patterns, err := s.Patterns()
	switch {
	case err == nil:
		data.Patterns = patterns
	case errors.Is(err, store.ErrPatternsNotFound):
	default:
		// Dashboard can show partial data
		log.WithError(err).Warn("loading training patterns")
	}

	return data, nil
}

// buildEFHistory builds EF chart data, oldest first
func buildEFHistory(activities []store.ActivitySummary) ([]float64, []time.Time) {
	var history []float64
	var dates []time.Time
	for _, a := range activities {
		if sample := analysis.NewEfficiencySample(a); sample != nil {
			history = append(history, sample.EF)
			dates = append(dates, a.Date)
		}
	}
	return history, dates
}

// calculateCurrentEF calculates the 7-day EF average and trend vs 28-day average
func calculateCurrentEF(activities []store.ActivitySummary, now time.Time) (currentEF float64, trend string) {
	sevenDaysAgo := now.AddDate(0, 0, -EFCurrentPeriodDays)
	twentyEightDaysAgo := now.AddDate(0, 0, -EFTrendCompareDays)

	var efSum, ef28Sum float64
	var efCount, ef28Count int
	for _, a := range activities {
		sample := analysis.NewEfficiencySample(a)
		if sample == nil {
			continue
		}
		if a.Date.After(sevenDaysAgo) {
			efSum += sample.EF
			efCount++
		}
		if a.Date.After(twentyEightDaysAgo) {
			ef28Sum += sample.EF
			ef28Count++
		}
	}

	if efCount > 0 {
		currentEF = efSum / float64(efCount)
	}

	if ef28Count > 0 && currentEF > 0 {
		ef28Avg := ef28Sum / float64(ef28Count)
		switch {
		case currentEF > ef28Avg:
			trend = "↑"
		case currentEF < ef28Avg:
			trend = "↓"
		}
	}
	return currentEF, trend
}

func newestFirst(adaptations []store.WorkoutAdaptation, limit int) []store.WorkoutAdaptation {
	out := make([]store.WorkoutAdaptation, 0, limit)
	for i := len(adaptations) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, adaptations[i])
	}
	return out
}
