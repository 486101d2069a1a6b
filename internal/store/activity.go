// activity.go appends entries to and reads from the activity feed. The
// feed is append-only: nothing in the system updates or deletes entries.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	"intercept/internal/models"
)

// ActivityStore handles activity feed operations.
type ActivityStore struct {
	db *sql.DB
}

// NewActivityStore creates a new ActivityStore.
func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Record appends one entry to the activity feed. Recording is best-effort:
// a failure is logged and never propagated, so an activity write can never
// change the outcome of the operation that triggered it.
func (s *ActivityStore) Record(a models.Activity) {
	_, err := s.db.Exec(`
		INSERT INTO activity (action, actor, category, detail)
		VALUES ($1, $2, $3, $4)
	`, a.Action, a.Actor, a.Category, a.Detail)
	if err != nil {
		slog.Warn("failed to record activity",
			"action", a.Action,
			"category", a.Category,
			"error", err,
		)
		return
	}
	slog.Debug("activity recorded",
		"action", a.Action,
		"category", a.Category,
		"actor", a.Actor,
	)
}

// Recent returns the most recent activity entries, newest first.
func (s *ActivityStore) Recent(limit int) ([]models.Activity, error) {
	rows, err := s.db.Query(`
		SELECT id, action, actor, category, detail, created_at
		FROM activity
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Action, &a.Actor, &a.Category, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}
