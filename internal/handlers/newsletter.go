package handlers

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"intercept/internal/middleware"
	"intercept/internal/models"
	"intercept/internal/store"
)

// Newsletter handles subscription signup and the admin subscriber list.
type Newsletter struct {
	subs     *store.NewsletterStore
	activity *store.ActivityStore
}

// NewNewsletter builds the newsletter handler.
func NewNewsletter(subs *store.NewsletterStore, activity *store.ActivityStore) *Newsletter {
	return &Newsletter{subs: subs, activity: activity}
}

type subscribeRequest struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

// Subscribe adds an email to the list, reactivating a previously
// unsubscribed address.
func (h *Newsletter) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "A valid email address is required.")
		return
	}

	existing, err := h.subs.FindByEmail(req.Email)
	if err != nil {
		slog.Error("look up subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	var sub *models.Subscription
	switch {
	case existing == nil:
		source := strings.TrimSpace(req.Source)
		if source == "" {
			source = "website"
		}
		sub, err = h.subs.Create(&models.Subscription{
			Email:     req.Email,
			Status:    models.SubscriptionActive,
			IPAddress: optionalField(middleware.ClientIP(r)),
			UserAgent: optionalField(r.UserAgent()),
			Source:    source,
		})
	case existing.Status == models.SubscriptionUnsubscribed:
		sub, err = h.subs.Reactivate(existing.ID)
	default:
		writeError(w, http.StatusConflict, "This email is already subscribed.")
		return
	}
	if err != nil {
		slog.Error("save subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	h.activity.Record(models.Activity{
		Action:   "Newsletter subscription",
		Actor:    req.Email,
		Category: models.ActivityNewsletter,
		Detail:   "Subscribed: " + req.Email,
	})

	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe marks an address as unsubscribed.
func (h *Newsletter) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "A valid email address is required.")
		return
	}

	sub, err := h.subs.Unsubscribe(req.Email)
	if err != nil {
		slog.Error("unsubscribe", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "No active subscription for this email.")
		return
	}

	h.activity.Record(models.Activity{
		Action:   "Newsletter unsubscribe",
		Actor:    req.Email,
		Category: models.ActivityNewsletter,
		Detail:   "Unsubscribed: " + req.Email,
	})

	writeJSON(w, http.StatusOK, sub)
}

// List returns subscribers with filtering and pagination. Admin only.
func (h *Newsletter) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	filter := store.SubscriptionFilter{
		Search: q.Get("search"),
		Status: models.SubscriptionStatus(q.Get("status")),
		SortBy: q.Get("sortBy"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	subs, total, err := h.subs.List(filter)
	if err != nil {
		slog.Error("list subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscriptions": subs,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}

// Stats returns subscriber counts. Admin only.
func (h *Newsletter) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.subs.Stats()
	if err != nil {
		slog.Error("subscription stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Delete removes a subscriber outright. Admin only.
func (h *Newsletter) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	deleted, err := h.subs.Delete(id)
	if err != nil {
		slog.Error("delete subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	if deleted == nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	actor := middleware.IdentityFromCtx(r.Context())
	h.activity.Record(models.Activity{
		Action:   "Subscriber removed",
		Actor:    actor.Name,
		Category: models.ActivityNewsletter,
		Detail:   "Removed: " + deleted.Email,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted."})
}
