package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"intercept/internal/cache"
	"intercept/internal/content"
	"intercept/internal/middleware"
	"intercept/internal/models"
	"intercept/internal/store"
	"intercept/internal/uploads"
)

// maxMultipartSize bounds a content mutation request: one audio file,
// one image, plus form fields.
const maxMultipartSize = 56 << 20

// Content serves one content type (blogs or podcasts) over the same
// handler set.
type Content struct {
	svc   *content.Service
	store *store.ContentStore
	lists *cache.ListCache
	typ   models.ContentType
}

// NewContent builds a content handler bound to one content type.
func NewContent(svc *content.Service, st *store.ContentStore, lists *cache.ListCache, typ models.ContentType) *Content {
	return &Content{svc: svc, store: st, lists: lists, typ: typ}
}

// List returns content items. Only admins may filter beyond published:
// a non-admin asking for drafts or scheduled items is refused outright
// rather than quietly served the published set.
func (h *Content) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.IdentityFromCtx(r.Context())
	admin := actor != nil && actor.IsAdmin()

	filter := store.ContentFilter{
		Type:   h.typ,
		Status: models.ContentStatus(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
		SortBy: r.URL.Query().Get("sortBy"),
	}
	if !admin {
		if filter.Status != "" && filter.Status != models.ContentStatusPublished {
			if actor == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		filter.Status = models.ContentStatusPublished
	}

	key := fmt.Sprintf("%s:%s:%s:%s", h.typ, filter.Status, filter.Search, filter.SortBy)
	if !admin {
		if body, ok := h.lists.Get(r.Context(), key); ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
	}

	items, err := h.store.List(filter)
	if err != nil {
		slog.Error("list content", "type", h.typ, "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	rendered := views(items)
	if !admin {
		if body, err := json.Marshal(rendered); err == nil {
			h.lists.Set(r.Context(), key, body)
		}
	}
	writeJSON(w, http.StatusOK, rendered)
}

// Get returns a single item and counts the view.
func (h *Content) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	actor := middleware.IdentityFromCtx(r.Context())
	item, err := h.svc.Get(actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if item.Type != h.typ {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	writeJSON(w, http.StatusOK, view(item))
}

// Create accepts a multipart form with the content fields and optional
// image and audio uploads.
func (h *Content) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.IdentityFromCtx(r.Context())

	form, media, err := parseContentForm(w, r, h.typ)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := content.Input{
		Title:    form.value("title"),
		Excerpt:  form.value("excerpt"),
		Body:     form.value("body"),
		Category: form.value("category"),
		Status:   models.ContentStatus(form.value("status")),
		Duration: form.value("duration"),
		AuthorID: actor.ID,
	}
	if raw := form.value("tags"); raw != "" {
		in.Tags, err = content.ParseTags(raw)
		if err != nil {
			writeServiceError(w, err)
			return
		}
	}
	if raw := form.value("featured"); raw != "" {
		in.Featured, _ = strconv.ParseBool(raw)
	}
	if raw := form.value("scheduledAt"); raw != "" {
		in.ScheduledAt, err = content.ParseSchedule(raw)
		if err != nil {
			writeServiceError(w, err)
			return
		}
	}

	created, err := h.svc.Create(r.Context(), *actor, h.typ, in, media)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view(created))
}

// Update accepts a partial multipart form; absent fields keep their
// stored values, and new uploads replace the stored files.
func (h *Content) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	actor := middleware.IdentityFromCtx(r.Context())

	form, media, err := parseContentForm(w, r, h.typ)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := content.UpdateInput{
		Title:    form.ptr("title"),
		Excerpt:  form.ptr("excerpt"),
		Body:     form.ptr("body"),
		Category: form.ptr("category"),
		Duration: form.ptr("duration"),
		Status:   models.ContentStatus(form.value("status")),
	}
	if raw := form.ptr("tags"); raw != nil {
		in.Tags, err = content.ParseTags(*raw)
		if err != nil {
			writeServiceError(w, err)
			return
		}
	}
	if raw := form.ptr("featured"); raw != nil {
		featured, _ := strconv.ParseBool(*raw)
		in.Featured = &featured
	}
	if raw := form.ptr("scheduledAt"); raw != nil {
		in.ScheduledAt, err = content.ParseSchedule(*raw)
		if err != nil {
			writeServiceError(w, err)
			return
		}
	}

	updated, err := h.svc.Update(r.Context(), *actor, id, in, media)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view(updated))
}

// Delete removes an item and its stored files.
func (h *Content) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	actor := middleware.IdentityFromCtx(r.Context())

	if err := h.svc.Delete(r.Context(), *actor, id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted."})
}

// contentView augments an item with the public URLs of its stored files.
type contentView struct {
	*models.Content
	ImageURL string `json:"image_url,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
}

func view(c *models.Content) contentView {
	v := contentView{Content: c}
	if c.Image != nil && *c.Image != "" {
		v.ImageURL = uploads.FileURL(*c.Image)
	}
	if c.Audio != nil && *c.Audio != "" {
		v.AudioURL = uploads.FileURL(*c.Audio)
	}
	return v
}

func views(items []models.Content) []contentView {
	out := make([]contentView, len(items))
	for i := range items {
		out[i] = view(&items[i])
	}
	return out
}

// contentForm wraps the parsed multipart values with presence-aware
// accessors, so updates can tell an absent field from an empty one.
type contentForm struct {
	values map[string][]string
}

func (f contentForm) value(key string) string {
	vs := f.values[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

func (f contentForm) ptr(key string) *string {
	vs, ok := f.values[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	return &vs[0]
}

// parseContentForm parses the multipart body and reads the optional
// uploads into memory. Audio parts are only accepted on podcast routes.
func parseContentForm(w http.ResponseWriter, r *http.Request, typ models.ContentType) (contentForm, []uploads.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartSize)
	if err := r.ParseMultipartForm(maxMultipartSize); err != nil {
		return contentForm{}, nil, fmt.Errorf("request body must be multipart form data")
	}

	fields := map[string]uploads.Kind{"image": uploads.KindImage}
	if typ == models.ContentTypePodcast {
		fields["audio"] = uploads.KindAudio
	} else if _, _, err := r.FormFile("audio"); err != http.ErrMissingFile {
		return contentForm{}, nil, fmt.Errorf("audio uploads are only accepted for podcasts")
	}

	var media []uploads.Upload
	for field, kind := range fields {
		up, err := readUpload(r, field, kind)
		if err != nil {
			return contentForm{}, nil, err
		}
		if up != nil {
			media = append(media, *up)
		}
	}

	return contentForm{values: r.MultipartForm.Value}, media, nil
}

// readUpload reads one named file part, sniffing its real content type.
// Returns nil when the part is absent.
func readUpload(r *http.Request, field string, kind uploads.Kind) (*uploads.Upload, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s upload", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s upload", field)
	}

	contentType := header.Header.Get("Content-Type")
	if ct := sniffContentType(data); ct != "application/octet-stream" {
		contentType = ct
	}

	return &uploads.Upload{
		Kind:        kind,
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// sniffContentType detects the content type from the first 512 bytes.
func sniffContentType(data []byte) string {
	n := len(data)
	if n > 512 {
		n = 512
	}
	return http.DetectContentType(data[:n])
}
