package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"intercept/internal/store"
)

// Activities serves the admin activity feed.
type Activities struct {
	activity *store.ActivityStore
}

// NewActivities builds the activity feed handler.
func NewActivities(activity *store.ActivityStore) *Activities {
	return &Activities{activity: activity}
}

// List returns the newest activity entries.
func (h *Activities) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	entries, err := h.activity.Recent(limit)
	if err != nil {
		slog.Error("list activity", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
