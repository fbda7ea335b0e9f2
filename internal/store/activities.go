package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const activityColumns = `id, user_id, start_time, sport, tss, duration_min,
	intensity_factor, normalized_power, avg_power, max_power, avg_heart_rate`

// UpsertActivity inserts or updates an activity
func (db *DB) UpsertActivity(a *ActivitySummary) error {
	_, err := db.Exec(`
		INSERT INTO activities (
			id, user_id, start_time, day, sport, tss, duration_min,
			intensity_factor, normalized_power, avg_power, max_power, avg_heart_rate, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			start_time = excluded.start_time,
			day = excluded.day,
			sport = excluded.sport,
			tss = excluded.tss,
			duration_min = excluded.duration_min,
			intensity_factor = excluded.intensity_factor,
			normalized_power = excluded.normalized_power,
			avg_power = excluded.avg_power,
			max_power = excluded.max_power,
			avg_heart_rate = excluded.avg_heart_rate,
			updated_at = CURRENT_TIMESTAMP
	`,
		a.ID, a.UserID, a.Date.Format(time.RFC3339), dayKey(a.Date), sportOrDefault(a.Sport),
		a.TSS, a.DurationMin, a.IntensityFactor, a.NormalizedPower,
		a.AvgPower, a.MaxPower, a.AvgHeartRate,
	)
	return err
}

// GetActivity retrieves an activity by ID
func (db *DB) GetActivity(id string) (*ActivitySummary, error) {
	row := db.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListActivities returns a user's activities whose calendar day falls in
// [from, to], ordered by start time. A zero from means no lower bound.
func (db *DB) ListActivities(userID string, from, to time.Time) ([]ActivitySummary, error) {
	rows, err := db.Query(`
		SELECT `+activityColumns+`
		FROM activities
		WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY start_time
	`, userID, dayKey(from), dayKey(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []ActivitySummary
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

// CountActivities returns the number of activities stored for a user
func (db *DB) CountActivities(userID string) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM activities WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (*ActivitySummary, error) {
	var a ActivitySummary
	var startTime string

	err := row.Scan(
		&a.ID, &a.UserID, &startTime, &a.Sport, &a.TSS, &a.DurationMin,
		&a.IntensityFactor, &a.NormalizedPower, &a.AvgPower, &a.MaxPower, &a.AvgHeartRate,
	)
	if err != nil {
		return nil, err
	}

	a.Date, err = time.Parse(time.RFC3339, startTime)
	if err != nil {
		return nil, fmt.Errorf("parsing start_time %q: %w", startTime, err)
	}
	return &a, nil
}

func sportOrDefault(s string) string {
	if s == "" {
		return "ride"
	}
	return s
}

// UpsertCrossTrainingSession inserts or updates a cross-training session
func (db *DB) UpsertCrossTrainingSession(s *CrossTrainingSession) error {
	_, err := db.Exec(`
		INSERT INTO cross_training_sessions (
			id, user_id, start_time, day, activity, duration_min, estimated_tss
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			start_time = excluded.start_time,
			day = excluded.day,
			activity = excluded.activity,
			duration_min = excluded.duration_min,
			estimated_tss = excluded.estimated_tss
	`,
		s.ID, s.UserID, s.Date.Format(time.RFC3339), dayKey(s.Date),
		s.Activity, s.DurationMin, s.EstimatedTSS,
	)
	return err
}

// ListCrossTrainingSessions returns a user's sessions whose calendar day
// falls in [from, to]
func (db *DB) ListCrossTrainingSessions(userID string, from, to time.Time) ([]CrossTrainingSession, error) {
	rows, err := db.Query(`
		SELECT id, user_id, start_time, activity, duration_min, estimated_tss
		FROM cross_training_sessions
		WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY start_time
	`, userID, dayKey(from), dayKey(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []CrossTrainingSession
	for rows.Next() {
		var s CrossTrainingSession
		var startTime string
		if err := rows.Scan(&s.ID, &s.UserID, &startTime, &s.Activity, &s.DurationMin, &s.EstimatedTSS); err != nil {
			return nil, err
		}
		s.Date, err = time.Parse(time.RFC3339, startTime)
		if err != nil {
			return nil, fmt.Errorf("parsing start_time %q: %w", startTime, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
