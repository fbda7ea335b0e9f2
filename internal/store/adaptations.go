package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const adaptationColumns = `id, user_id, planned_workout_id, activity_id, adaptation_type,
	workout_date, planned_tss, actual_tss, tss_delta, duration_delta, stimulus_achieved_pct,
	week_number, training_phase, ctl_at_time, atl_at_time, tsb_at_time, detected_at,
	reason, notes, superseded_by`

// SaveAdaptations inserts freshly detected adaptations in one transaction.
// The current record for the same planned workout (or, for unplanned rides,
// the same activity) is marked superseded by the new one. User feedback on
// the old record carries over when the new one has none.
func (db *DB) SaveAdaptations(adaptations []WorkoutAdaptation) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range adaptations {
		a := &adaptations[i]

		if err := carryFeedback(tx, a); err != nil {
			return err
		}

		if err := insertAdaptation(tx, a); err != nil {
			return fmt.Errorf("inserting adaptation %s: %w", a.ID, err)
		}

		if err := supersede(tx, a); err != nil {
			return fmt.Errorf("superseding previous adaptation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertAdaptation(tx *sql.Tx, a *WorkoutAdaptation) error {
	_, err := tx.Exec(`
		INSERT INTO workout_adaptations (`+adaptationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.UserID, a.PlannedWorkoutID, a.ActivityID, string(a.AdaptationType),
		dayKey(a.WorkoutDate), a.PlannedTSS, a.ActualTSS, a.TSSDelta, a.DurationDelta,
		a.StimulusAchievedPct, a.WeekNumber, a.TrainingPhase,
		a.CTLAtTime, a.ATLAtTime, a.TSBAtTime, formatTimestamp(a.DetectedAt),
		a.Reason, a.Notes, a.SupersededBy,
	)
	return err
}

// previousMatch selects the current rows a new adaptation replaces
const previousMatch = `
	user_id = ? AND id != ? AND superseded_by IS NULL AND (
		(? IS NOT NULL AND planned_workout_id = ?)
		OR (planned_workout_id IS NULL AND ? IS NOT NULL AND activity_id = ?)
	)`

func previousArgs(a *WorkoutAdaptation) []any {
	return []any{
		a.UserID, a.ID,
		a.PlannedWorkoutID, a.PlannedWorkoutID,
		a.ActivityID, a.ActivityID,
	}
}

func carryFeedback(tx *sql.Tx, a *WorkoutAdaptation) error {
	if a.Reason != nil || a.Notes != nil {
		return nil
	}
	err := tx.QueryRow(`
		SELECT reason, notes FROM workout_adaptations
		WHERE `+previousMatch+`
		ORDER BY detected_at DESC
		LIMIT 1
	`, previousArgs(a)...).Scan(&a.Reason, &a.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading previous feedback: %w", err)
	}
	return nil
}

func supersede(tx *sql.Tx, a *WorkoutAdaptation) error {
	args := append([]any{a.ID}, previousArgs(a)...)
	_, err := tx.Exec(`
		UPDATE workout_adaptations SET superseded_by = ?
		WHERE `+previousMatch, args...)
	return err
}

// GetAdaptation retrieves an adaptation by ID, superseded or not
func (db *DB) GetAdaptation(id string) (*WorkoutAdaptation, error) {
	row := db.QueryRow(`SELECT `+adaptationColumns+` FROM workout_adaptations WHERE id = ?`, id)

	a, err := scanAdaptation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdaptationNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateAdaptationFeedback sets the user-supplied reason and notes. They are
// the only mutable fields of an adaptation.
func (db *DB) UpdateAdaptationFeedback(id string, reason, notes *string) error {
	result, err := db.Exec(`
		UPDATE workout_adaptations SET reason = ?, notes = ? WHERE id = ?
	`, reason, notes, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAdaptationNotFound
	}
	return nil
}

// ListAdaptations returns a user's current adaptations for workouts dated
// in [from, to]
func (db *DB) ListAdaptations(userID string, from, to time.Time) ([]WorkoutAdaptation, error) {
	return db.queryAdaptations(`
		SELECT `+adaptationColumns+`
		FROM workout_adaptations
		WHERE user_id = ? AND superseded_by IS NULL AND workout_date >= ? AND workout_date <= ?
		ORDER BY workout_date, detected_at, id
	`, userID, dayKey(from), dayKey(to))
}

// ListCurrentAdaptations returns a user's full history of current
// (non-superseded) adaptations
func (db *DB) ListCurrentAdaptations(userID string) ([]WorkoutAdaptation, error) {
	return db.queryAdaptations(`
		SELECT `+adaptationColumns+`
		FROM workout_adaptations
		WHERE user_id = ? AND superseded_by IS NULL
		ORDER BY workout_date, detected_at, id
	`, userID)
}

// AdaptationHistory returns every record for a planned workout, newest first
func (db *DB) AdaptationHistory(plannedWorkoutID string) ([]WorkoutAdaptation, error) {
	return db.queryAdaptations(`
		SELECT `+adaptationColumns+`
		FROM workout_adaptations
		WHERE planned_workout_id = ?
		ORDER BY detected_at DESC, id
	`, plannedWorkoutID)
}

func (db *DB) queryAdaptations(query string, args ...any) ([]WorkoutAdaptation, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adaptations []WorkoutAdaptation
	for rows.Next() {
		a, err := scanAdaptation(rows)
		if err != nil {
			return nil, err
		}
		adaptations = append(adaptations, *a)
	}
	return adaptations, rows.Err()
}

func scanAdaptation(row rowScanner) (*WorkoutAdaptation, error) {
	var a WorkoutAdaptation
	var kind, workoutDate, detectedAt string

	err := row.Scan(
		&a.ID, &a.UserID, &a.PlannedWorkoutID, &a.ActivityID, &kind,
		&workoutDate, &a.PlannedTSS, &a.ActualTSS, &a.TSSDelta, &a.DurationDelta,
		&a.StimulusAchievedPct, &a.WeekNumber, &a.TrainingPhase,
		&a.CTLAtTime, &a.ATLAtTime, &a.TSBAtTime, &detectedAt,
		&a.Reason, &a.Notes, &a.SupersededBy,
	)
	if err != nil {
		return nil, err
	}

	a.AdaptationType = AdaptationType(kind)
	if a.WorkoutDate, err = parseDay(workoutDate); err != nil {
		return nil, err
	}
	if a.DetectedAt, err = parseTimestamp(detectedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
