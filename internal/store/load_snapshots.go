package store

import (
	"fmt"
	"time"
)

// ReplaceLoadSnapshots caches a freshly computed load series for a user.
// Rows in the span of the new series are replaced; older rows are kept.
func (db *DB) ReplaceLoadSnapshots(userID string, rows []LoadSnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	first, last := rows[0].Date, rows[len(rows)-1].Date
	if _, err := tx.Exec(`
		DELETE FROM load_snapshots WHERE user_id = ? AND date >= ? AND date <= ?
	`, userID, first, last); err != nil {
		return fmt.Errorf("deleting cached snapshots: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO load_snapshots (user_id, date, tss, ctl, atl, tsb)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			tss = excluded.tss, ctl = excluded.ctl, atl = excluded.atl, tsb = excluded.tsb
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(userID, r.Date, r.TSS, r.CTL, r.ATL, r.TSB); err != nil {
			return fmt.Errorf("inserting snapshot %s: %w", r.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListLoadSnapshots returns cached snapshots for days in [from, to]
func (db *DB) ListLoadSnapshots(userID string, from, to time.Time) ([]LoadSnapshotRow, error) {
	rows, err := db.Query(`
		SELECT user_id, date, tss, ctl, atl, tsb
		FROM load_snapshots
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`, userID, dayKey(from), dayKey(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LoadSnapshotRow
	for rows.Next() {
		var r LoadSnapshotRow
		if err := rows.Scan(&r.UserID, &r.Date, &r.TSS, &r.CTL, &r.ATL, &r.TSB); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
