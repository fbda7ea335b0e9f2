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

// DetectWeek classifies the week containing weekOf, stores the results
// (superseding earlier detections) and refreshes the user's patterns.
// Upcoming workouts produce no record.
func (s *CoachService) DetectWeek(weekOf time.Time) ([]store.WorkoutAdaptation, error) {
	rng := adaptation.WeekRange(weekOf)

	planned, err := s.store.ListPlannedWorkouts(s.userID, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("listing planned workouts: %w", err)
	}
	activities, err := s.weekActivities(rng, planned)
	if err != nil {
		return nil, err
	}

	// Context is the load as it stood at the end of the week, or today
	// for the current week
	asOf := rng.To
	if today := analysis.Day(s.now()); today.Before(asOf) {
		asOf = today
	}
	load, err := s.LoadOn(asOf)
	if err != nil {
		return nil, fmt.Errorf("computing load: %w", err)
	}
	tc := s.plan.Context(s.userID, rng.From, load)

	detected := s.detector.DetectWeek(planned, activities, s.ftp, tc)
	if len(detected) == 0 {
		return detected, nil
	}

	if err := s.store.SaveAdaptations(detected); err != nil {
		return nil, fmt.Errorf("saving adaptations: %w", err)
	}
	for _, a := range detected {
		s.metrics.CounterAdaptations.WithLabelValues(string(a.AdaptationType)).Inc()
	}

	log.WithFields(log.Fields{
		"user_id":     s.userID,
		"week":        rng.From.Format(analysis.DateLayout),
		"week_number": tc.WeekNumber,
		"phase":       tc.Phase,
		"detected":    len(detected),
	}).Info("week adaptations detected")

	if _, err := s.RecomputePatterns(); err != nil && !errors.Is(err, ErrNoHistory) {
		// Detection results are already stored; the next run retries
		log.WithError(err).Warn("recomputing patterns after detection")
	}

	return detected, nil
}

// weekActivities returns the rides a week's detection compares against: the
// week's own rides, minus those a workout from another week claimed, plus
// rides from other weeks that this week's workouts point at
func (s *CoachService) weekActivities(rng analysis.DateRange, planned []store.PlannedWorkout) ([]store.ActivitySummary, error) {
	inWeek, err := s.store.ListActivities(s.userID, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	linked, err := s.store.LinkedActivityIDs(s.userID, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("listing linked activities: %w", err)
	}

	wanted := make(map[string]bool, len(planned))
	for _, pw := range planned {
		if pw.CompletedActivityID != nil {
			wanted[*pw.CompletedActivityID] = true
		}
	}

	activities := make([]store.ActivitySummary, 0, len(inWeek))
	seen := make(map[string]bool, len(inWeek))
	for _, a := range inWeek {
		seen[a.ID] = true
		if linked[a.ID] && !wanted[a.ID] {
			continue
		}
		activities = append(activities, a)
	}

	for _, pw := range planned {
		if pw.CompletedActivityID == nil || seen[*pw.CompletedActivityID] {
			continue
		}
		id := *pw.CompletedActivityID
		seen[id] = true

		a, err := s.store.GetActivity(id)
		if errors.Is(err, store.ErrActivityNotFound) {
			log.WithFields(log.Fields{"planned_workout_id": pw.ID, "activity_id": id}).Warn("linked activity not found")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("getting linked activity %s: %w", id, err)
		}
		activities = append(activities, *a)
	}
	return activities, nil
}

// WeekAdaptations returns the current adaptations for the week containing weekOf
func (s *CoachService) WeekAdaptations(weekOf time.Time) ([]store.WorkoutAdaptation, error) {
	rng := adaptation.WeekRange(weekOf)
	adaptations, err := s.store.ListAdaptations(s.userID, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("listing adaptations: %w", err)
	}
	return adaptations, nil
}

// WeekSummary totals the current adaptations for the week containing weekOf
func (s *CoachService) WeekSummary(weekOf time.Time) (adaptation.WeekSummary, error) {
	adaptations, err := s.WeekAdaptations(weekOf)
	if err != nil {
		return adaptation.WeekSummary{}, err
	}
	return adaptation.SummarizeWeek(adaptations), nil
}

// UpdateFeedback records the athlete's reason and notes on an adaptation
func (s *CoachService) UpdateFeedback(id string, reason, notes *string) (*store.WorkoutAdaptation, error) {
	if err := s.store.UpdateAdaptationFeedback(id, reason, notes); err != nil {
		return nil, err
	}

	a, err := s.store.GetAdaptation(id)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"adaptation_id": id, "has_reason": reason != nil}).Debug("adaptation feedback updated")
	return a, nil
}

// AdaptationHistory returns every detection of a planned workout, newest first
func (s *CoachService) AdaptationHistory(plannedWorkoutID string) ([]store.WorkoutAdaptation, error) {
	return s.store.AdaptationHistory(plannedWorkoutID)
}
