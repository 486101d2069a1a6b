package handlers

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"intercept/internal/middleware"
	"intercept/internal/models"
	"intercept/internal/store"
)

const maxReportLen = 10_000

// Reports handles the public report form and the admin review queue.
type Reports struct {
	reports  *store.ReportStore
	activity *store.ActivityStore
}

// NewReports builds the reports handler.
func NewReports(reports *store.ReportStore, activity *store.ActivityStore) *Reports {
	return &Reports{reports: reports, activity: activity}
}

type reportRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	Anonymous bool   `json:"anonymous"`
}

type reportStatusRequest struct {
	Status models.ReportStatus `json:"status"`
}

// Create accepts a report submission. Anonymous reports drop the name
// and email even if the client sent them.
func (h *Reports) Create(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "Message is required.")
		return
	}
	if utf8.RuneCountInString(req.Message) > maxReportLen {
		writeError(w, http.StatusBadRequest, "Message is too long (max 10,000 characters).")
		return
	}

	report := &models.Report{
		Message:   req.Message,
		Anonymous: req.Anonymous,
		Status:    models.ReportPending,
	}
	if !req.Anonymous {
		report.Name = optionalField(req.Name)
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				writeError(w, http.StatusBadRequest, "Email address is not valid.")
				return
			}
			report.Email = &email
		}
	}

	created, err := h.reports.Create(report)
	if err != nil {
		slog.Error("create report", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	actorName := "Anonymous"
	if created.Name != nil {
		actorName = *created.Name
	}
	h.activity.Record(models.Activity{
		Action:   "Report submitted",
		Actor:    actorName,
		Category: models.ActivityReport,
		Detail:   "New report received",
	})

	writeJSON(w, http.StatusCreated, created)
}

// List returns all reports, newest first. Admin only.
func (h *Reports) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.List()
	if err != nil {
		slog.Error("list reports", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// UpdateStatus moves a report through the review workflow. Admin only.
func (h *Reports) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	var req reportStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	switch req.Status {
	case models.ReportPending, models.ReportReviewed, models.ReportResolved:
	default:
		writeError(w, http.StatusBadRequest, "Status must be pending, reviewed or resolved.")
		return
	}

	updated, err := h.reports.UpdateStatus(id, req.Status)
	if err != nil {
		slog.Error("update report status", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	actor := middleware.IdentityFromCtx(r.Context())
	h.activity.Record(models.Activity{
		Action:   "Report " + string(req.Status),
		Actor:    actor.Name,
		Category: models.ActivityReport,
		Detail:   "Report marked " + string(req.Status),
	})

	writeJSON(w, http.StatusOK, updated)
}
