package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"intercept/internal/content"
)

// Health reports service liveness plus the last publish sweep.
type Health struct {
	db      *sql.DB
	sweeper *content.Sweeper
}

// NewHealth builds the health handler.
func NewHealth(db *sql.DB, sweeper *content.Sweeper) *Health {
	return &Health{db: db, sweeper: sweeper}
}

// Check returns status, database reachability and sweep observability.
func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.db.PingContext(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	body := map[string]any{"status": status}
	if h.sweeper != nil {
		lastRun, published := h.sweeper.LastRun()
		sweep := map[string]any{"published": published}
		if !lastRun.IsZero() {
			sweep["last_run"] = lastRun.UTC().Format(time.RFC3339)
		}
		body["sweep"] = sweep
	}

	writeJSON(w, code, body)
}
