package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"intercept/internal/middleware"
	"intercept/internal/models"
	"intercept/internal/store"
)

const maxCommentLen = 2_000

// Comments handles comments on content items.
type Comments struct {
	comments *store.CommentStore
	content  *store.ContentStore
	activity *store.ActivityStore
}

// NewComments builds the comments handler.
func NewComments(comments *store.CommentStore, content *store.ContentStore, activity *store.ActivityStore) *Comments {
	return &Comments{comments: comments, content: content, activity: activity}
}

type commentRequest struct {
	Body string `json:"body"`
}

// List returns the comments on a published item, oldest first.
func (h *Comments) List(w http.ResponseWriter, r *http.Request) {
	item, ok := h.visibleContent(w, r)
	if !ok {
		return
	}

	comments, err := h.comments.ListByContent(item.ID)
	if err != nil {
		slog.Error("list comments", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// Create adds a comment by the authenticated user.
func (h *Comments) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.IdentityFromCtx(r.Context())

	item, ok := h.visibleContent(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, "Comment body is required.")
		return
	}
	if utf8.RuneCountInString(req.Body) > maxCommentLen {
		writeError(w, http.StatusBadRequest, "Comment is too long (max 2,000 characters).")
		return
	}

	comment := &models.Comment{
		ContentID:  item.ID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Body:       req.Body,
	}
	created, err := h.comments.Create(comment)
	if err != nil {
		slog.Error("create comment", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	h.activity.Record(models.Activity{
		Action:   "Comment added",
		Actor:    actor.Name,
		Category: models.ActivityComment,
		Detail:   "On: " + item.Title,
	})

	writeJSON(w, http.StatusCreated, created)
}

// Delete removes a comment. Admin only.
func (h *Comments) Delete(w http.ResponseWriter, r *http.Request) {
	contentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	commentID, err := uuid.Parse(chi.URLParam(r, "commentID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	deleted, err := h.comments.Delete(contentID, commentID)
	if err != nil {
		slog.Error("delete comment", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	if deleted == nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}

	actor := middleware.IdentityFromCtx(r.Context())
	h.activity.Record(models.Activity{
		Action:   "Comment deleted",
		Actor:    actor.Name,
		Category: models.ActivityComment,
		Detail:   "By: " + deleted.AuthorName,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted."})
}

// visibleContent resolves the {id} route param to a content item the
// caller is allowed to see. Writes the error response itself on failure.
func (h *Comments) visibleContent(w http.ResponseWriter, r *http.Request) (*models.Content, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return nil, false
	}

	item, err := h.content.FindByID(id)
	if err != nil {
		slog.Error("find content", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return nil, false
	}

	actor := middleware.IdentityFromCtx(r.Context())
	admin := actor != nil && actor.IsAdmin()
	if item == nil || (!item.IsPublished() && !admin) {
		writeError(w, http.StatusNotFound, "Not found.")
		return nil, false
	}
	return item, true
}
