package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"intercept/internal/middleware"
	"intercept/internal/models"
	"intercept/internal/store"
)

// Resources handles the curated external links section.
type Resources struct {
	resources *store.ResourceStore
	activity  *store.ActivityStore
}

// NewResources builds the resources handler.
func NewResources(resources *store.ResourceStore, activity *store.ActivityStore) *Resources {
	return &Resources{resources: resources, activity: activity}
}

type resourceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Thumbnail   string `json:"thumbnail"`
}

// List returns resources, optionally filtered by type, paginated.
func (h *Resources) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	resourceType := models.ResourceType(q.Get("type"))
	if resourceType != "" && !resourceType.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown resource type.")
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	items, total, err := h.resources.List(resourceType, limit, (page-1)*limit)
	if err != nil {
		slog.Error("list resources", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"resources": items,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// Create adds a resource link. Admin only.
func (h *Resources) Create(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.URL = strings.TrimSpace(req.URL)

	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required.")
		return
	}
	resourceType := models.ResourceType(req.Type)
	if !resourceType.Valid() {
		writeError(w, http.StatusBadRequest, "Type must be podcast, article, video or guide.")
		return
	}
	if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "A valid http(s) URL is required.")
		return
	}

	actor := middleware.IdentityFromCtx(r.Context())
	created, err := h.resources.Create(&models.Resource{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Type:        resourceType,
		URL:         req.URL,
		Thumbnail:   optionalField(req.Thumbnail),
		CreatedBy:   actor.ID,
	})
	if err != nil {
		slog.Error("create resource", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	h.activity.Record(models.Activity{
		Action:   "Resource added",
		Actor:    actor.Name,
		Category: models.ActivityResource,
		Detail:   "Resource: " + created.Title,
	})

	writeJSON(w, http.StatusCreated, created)
}

// Delete removes a resource link. Admin only.
func (h *Resources) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	deleted, err := h.resources.Delete(id)
	if err != nil {
		slog.Error("delete resource", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	if deleted == nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	actor := middleware.IdentityFromCtx(r.Context())
	h.activity.Record(models.Activity{
		Action:   "Resource deleted",
		Actor:    actor.Name,
		Category: models.ActivityResource,
		Detail:   "Resource: " + deleted.Title,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted."})
}
