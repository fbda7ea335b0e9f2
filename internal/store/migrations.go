package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Rides, written by the import collaborator
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			start_time TEXT NOT NULL,
			day TEXT NOT NULL,
			sport TEXT NOT NULL DEFAULT 'ride',
			tss REAL,
			duration_min REAL NOT NULL DEFAULT 0,
			intensity_factor REAL,
			normalized_power REAL,
			avg_power REAL,
			max_power REAL,
			avg_heart_rate REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_user_day ON activities(user_id, day)`,

		// Power/HR streams (1 Hz)
		`CREATE TABLE IF NOT EXISTS streams (
			activity_id TEXT NOT NULL,
			time_offset INTEGER NOT NULL,
			power REAL,
			heart_rate INTEGER,
			PRIMARY KEY (activity_id, time_offset),
			FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
		)`,

		// Non-cycling sessions carrying their own TSS estimate
		`CREATE TABLE IF NOT EXISTS cross_training_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			start_time TEXT NOT NULL,
			day TEXT NOT NULL,
			activity TEXT NOT NULL,
			duration_min REAL NOT NULL DEFAULT 0,
			estimated_tss REAL NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_cross_training_user_day ON cross_training_sessions(user_id, day)`,

		// Training plan
		`CREATE TABLE IF NOT EXISTS planned_workouts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			scheduled_date TEXT NOT NULL,
			workout_type TEXT NOT NULL DEFAULT '',
			target_tss REAL,
			target_duration_min REAL,
			target_intensity_factor REAL,
			completed_activity_id TEXT,
			FOREIGN KEY (completed_activity_id) REFERENCES activities(id) ON DELETE SET NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_planned_workouts_user_date ON planned_workouts(user_id, scheduled_date)`,

		// Adaptations are append-only; re-detection sets superseded_by on the old row
		`CREATE TABLE IF NOT EXISTS workout_adaptations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			planned_workout_id TEXT,
			activity_id TEXT,
			adaptation_type TEXT NOT NULL,
			workout_date TEXT NOT NULL,
			planned_tss REAL,
			actual_tss REAL,
			tss_delta REAL,
			duration_delta REAL,
			stimulus_achieved_pct INTEGER,
			week_number INTEGER NOT NULL DEFAULT 0,
			training_phase TEXT NOT NULL DEFAULT '',
			ctl_at_time REAL NOT NULL DEFAULT 0,
			atl_at_time REAL NOT NULL DEFAULT 0,
			tsb_at_time REAL NOT NULL DEFAULT 0,
			detected_at TEXT NOT NULL,
			reason TEXT,
			notes TEXT,
			superseded_by TEXT,
			CHECK (planned_workout_id IS NOT NULL OR activity_id IS NOT NULL)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_adaptations_user_date ON workout_adaptations(user_id, workout_date)`,
		`CREATE INDEX IF NOT EXISTS idx_adaptations_planned ON workout_adaptations(planned_workout_id)`,
		`CREATE INDEX IF NOT EXISTS idx_adaptations_current ON workout_adaptations(user_id, superseded_by)`,

		// One pattern snapshot per user, guarded by version
		`CREATE TABLE IF NOT EXISTS user_training_patterns (
			user_id TEXT PRIMARY KEY,
			total_workouts_tracked INTEGER NOT NULL,
			avg_weekly_compliance REAL NOT NULL,
			compliance_by_weekday TEXT NOT NULL,
			preferred_days TEXT NOT NULL,
			problematic_days TEXT NOT NULL,
			common_adaptations TEXT NOT NULL,
			reason_distribution TEXT NOT NULL,
			avg_tss_achievement_pct REAL,
			tends_to_undertrain INTEGER NOT NULL,
			tends_to_overreach INTEGER NOT NULL,
			pattern_confidence REAL NOT NULL,
			has_enough_data INTEGER NOT NULL,
			version INTEGER NOT NULL,
			computed_at TEXT NOT NULL
		)`,

		// Cached load series for fast dashboard startup
		`CREATE TABLE IF NOT EXISTS load_snapshots (
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			tss REAL NOT NULL,
			ctl REAL NOT NULL,
			atl REAL NOT NULL,
			tsb REAL NOT NULL,
			PRIMARY KEY (user_id, date)
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
