package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// GetUserTrainingPatterns retrieves the stored pattern snapshot for a user
func (db *DB) GetUserTrainingPatterns(userID string) (*UserTrainingPatterns, error) {
	row := db.QueryRow(`
		SELECT user_id, total_workouts_tracked, avg_weekly_compliance, compliance_by_weekday,
			preferred_days, problematic_days, common_adaptations, reason_distribution,
			avg_tss_achievement_pct, tends_to_undertrain, tends_to_overreach,
			pattern_confidence, has_enough_data, version, computed_at
		FROM user_training_patterns
		WHERE user_id = ?
	`, userID)

	var p UserTrainingPatterns
	var byWeekday, preferred, problematic, common, reasons, computedAt string
	var undertrain, overreach, enough int

	err := row.Scan(
		&p.UserID, &p.TotalWorkoutsTracked, &p.AvgWeeklyCompliance, &byWeekday,
		&preferred, &problematic, &common, &reasons,
		&p.AvgTSSAchievementPct, &undertrain, &overreach,
		&p.PatternConfidence, &enough, &p.Version, &computedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatternsNotFound
	}
	if err != nil {
		return nil, err
	}

	columns := []struct {
		name string
		raw  string
		dest any
	}{
		{"compliance_by_weekday", byWeekday, &p.ComplianceByWeekday},
		{"preferred_days", preferred, &p.PreferredDays},
		{"problematic_days", problematic, &p.ProblematicDays},
		{"common_adaptations", common, &p.CommonAdaptations},
		{"reason_distribution", reasons, &p.ReasonDistribution},
	}
	for _, c := range columns {
		if err := json.Unmarshal([]byte(c.raw), c.dest); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", c.name, err)
		}
	}

	p.TendsToUndertrain = undertrain == 1
	p.TendsToOverreach = overreach == 1
	p.HasEnoughData = enough == 1
	if p.ComputedAt, err = parseTimestamp(computedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveUserTrainingPatterns replaces the user's pattern snapshot. It succeeds
// only if the stored version still equals expectedVersion (0 when no
// snapshot existed); otherwise ErrPatternsVersionConflict is returned and
// nothing is written. On success p.Version holds the new version.
func (db *DB) SaveUserTrainingPatterns(p *UserTrainingPatterns, expectedVersion int64) error {
	encoded := make([]string, 0, 5)
	for _, v := range []any{
		p.ComplianceByWeekday, nonNilWeekdays(p.PreferredDays), nonNilWeekdays(p.ProblematicDays),
		nonNilFrequencies(p.CommonAdaptations), nonNilFrequencies(p.ReasonDistribution),
	} {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding patterns: %w", err)
		}
		encoded = append(encoded, string(b))
	}

	newVersion := expectedVersion + 1
	args := []any{
		p.TotalWorkoutsTracked, p.AvgWeeklyCompliance,
		encoded[0], encoded[1], encoded[2], encoded[3], encoded[4],
		p.AvgTSSAchievementPct, boolToInt(p.TendsToUndertrain), boolToInt(p.TendsToOverreach),
		p.PatternConfidence, boolToInt(p.HasEnoughData), newVersion,
		formatTimestamp(p.ComputedAt),
	}

	var result sql.Result
	var err error
	if expectedVersion == 0 {
		result, err = db.Exec(`
			INSERT INTO user_training_patterns (
				total_workouts_tracked, avg_weekly_compliance, compliance_by_weekday,
				preferred_days, problematic_days, common_adaptations, reason_distribution,
				avg_tss_achievement_pct, tends_to_undertrain, tends_to_overreach,
				pattern_confidence, has_enough_data, version, computed_at, user_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO NOTHING
		`, append(args, p.UserID)...)
	} else {
		result, err = db.Exec(`
			UPDATE user_training_patterns SET
				total_workouts_tracked = ?, avg_weekly_compliance = ?, compliance_by_weekday = ?,
				preferred_days = ?, problematic_days = ?, common_adaptations = ?, reason_distribution = ?,
				avg_tss_achievement_pct = ?, tends_to_undertrain = ?, tends_to_overreach = ?,
				pattern_confidence = ?, has_enough_data = ?, version = ?, computed_at = ?
			WHERE user_id = ? AND version = ?
		`, append(args, p.UserID, expectedVersion)...)
	}
	if err != nil {
		return fmt.Errorf("saving patterns: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPatternsVersionConflict
	}

	p.Version = newVersion
	return nil
}

func nonNilWeekdays(days []time.Weekday) []time.Weekday {
	if days == nil {
		return []time.Weekday{}
	}
	return days
}

func nonNilFrequencies(f []Frequency) []Frequency {
	if f == nil {
		return []Frequency{}
	}
	return f
}
