package store

import (
	"errors"
	"time"
)

// ErrPlannedWorkoutNotFound is returned when a planned workout doesn't exist
var ErrPlannedWorkoutNotFound = errors.New("planned workout not found")

// UpsertPlannedWorkout inserts or updates a planned workout
func (db *DB) UpsertPlannedWorkout(w *PlannedWorkout) error {
	_, err := db.Exec(`
		INSERT INTO planned_workouts (
			id, user_id, scheduled_date, workout_type, target_tss,
			target_duration_min, target_intensity_factor, completed_activity_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			scheduled_date = excluded.scheduled_date,
			workout_type = excluded.workout_type,
			target_tss = excluded.target_tss,
			target_duration_min = excluded.target_duration_min,
			target_intensity_factor = excluded.target_intensity_factor,
			completed_activity_id = excluded.completed_activity_id
	`,
		w.ID, w.UserID, dayKey(w.ScheduledDate), w.WorkoutType, w.TargetTSS,
		w.TargetDurationMin, w.TargetIntensityFactor, w.CompletedActivityID,
	)
	return err
}

// LinkActivity records the activity that fulfilled a planned workout
func (db *DB) LinkActivity(plannedID, activityID string) error {
	result, err := db.Exec(`
		UPDATE planned_workouts SET completed_activity_id = ? WHERE id = ?
	`, activityID, plannedID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPlannedWorkoutNotFound
	}
	return nil
}

// ListPlannedWorkouts returns a user's planned workouts scheduled in
// [from, to], ordered by date
func (db *DB) ListPlannedWorkouts(userID string, from, to time.Time) ([]PlannedWorkout, error) {
	rows, err := db.Query(`
		SELECT id, user_id, scheduled_date, workout_type, target_tss,
			target_duration_min, target_intensity_factor, completed_activity_id
		FROM planned_workouts
		WHERE user_id = ? AND scheduled_date >= ? AND scheduled_date <= ?
		ORDER BY scheduled_date, id
	`, userID, dayKey(from), dayKey(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []PlannedWorkout
	for rows.Next() {
		var w PlannedWorkout
		var scheduled string
		err := rows.Scan(
			&w.ID, &w.UserID, &scheduled, &w.WorkoutType, &w.TargetTSS,
			&w.TargetDurationMin, &w.TargetIntensityFactor, &w.CompletedActivityID,
		)
		if err != nil {
			return nil, err
		}
		if w.ScheduledDate, err = parseDay(scheduled); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

// LinkedActivityIDs returns the IDs of a user's activities in [from, to]
// that some planned workout, scheduled on any date, points at
func (db *DB) LinkedActivityIDs(userID string, from, to time.Time) (map[string]bool, error) {
	rows, err := db.Query(`
		SELECT DISTINCT pw.completed_activity_id
		FROM planned_workouts pw
		JOIN activities a ON a.id = pw.completed_activity_id
		WHERE pw.user_id = ? AND a.day >= ? AND a.day <= ?
	`, userID, dayKey(from), dayKey(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	linked := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		linked[id] = true
	}
	return linked, rows.Err()
}
