package service

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"pedalcoach/internal/adaptation"
	"pedalcoach/internal/metrics"
	"pedalcoach/internal/store"
)

// Patterns returns the stored pattern snapshot
func (s *CoachService) Patterns() (*store.UserTrainingPatterns, error) {
	return s.store.GetUserTrainingPatterns(s.userID)
}

// RecomputePatterns rebuilds the user's pattern snapshot from the full
// adaptation history. A concurrent writer makes the snapshot write fail
// with a version conflict; the whole recompute is then retried. When the
// history is empty ErrNoHistory is returned and nothing is written.
func (s *CoachService) RecomputePatterns() (*store.UserTrainingPatterns, error) {
	for attempt := 1; attempt <= PatternWriteAttempts; attempt++ {
		var expected int64
		existing, err := s.store.GetUserTrainingPatterns(s.userID)
		switch {
		case err == nil:
			expected = existing.Version
		case errors.Is(err, store.ErrPatternsNotFound):
		default:
			return nil, fmt.Errorf("reading patterns: %w", err)
		}

		history, err := s.store.ListCurrentAdaptations(s.userID)
		if err != nil {
			return nil, fmt.Errorf("listing adaptation history: %w", err)
		}

		patterns, ok := adaptation.RecomputeUserPatterns(s.userID, history, s.minData, s.now())
		if !ok {
			s.metrics.CounterPatternRecompute.WithLabelValues(metrics.OutcomeNoop).Inc()
			return nil, ErrNoHistory
		}

		err = s.store.SaveUserTrainingPatterns(patterns, expected)
		if errors.Is(err, store.ErrPatternsVersionConflict) {
			s.metrics.CounterPatternRecompute.WithLabelValues(metrics.OutcomeConflict).Inc()
			log.WithFields(log.Fields{"user_id": s.userID, "attempt": attempt}).Debug("pattern snapshot changed underneath, retrying")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("saving patterns: %w", err)
		}

		s.metrics.CounterPatternRecompute.WithLabelValues(metrics.OutcomeWritten).Inc()
		log.WithFields(log.Fields{
			"user_id":    s.userID,
			"workouts":   patterns.TotalWorkoutsTracked,
			"confidence": patterns.PatternConfidence,
			"version":    patterns.Version,
		}).Info("training patterns recomputed")
		return patterns, nil
	}

	return nil, fmt.Errorf("recomputing patterns after %d attempts: %w", PatternWriteAttempts, store.ErrPatternsVersionConflict)
}
