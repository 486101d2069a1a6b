package handlers

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"intercept/internal/middleware"
	"intercept/internal/models"
	"intercept/internal/store"
)

// Users is the admin-facing user management handler. It operates on
// regular accounts only; admin accounts are never listed or editable
// through it.
type Users struct {
	users    *store.UserStore
	activity *store.ActivityStore
}

// NewUsers builds the user management handler.
func NewUsers(users *store.UserStore, activity *store.ActivityStore) *Users {
	return &Users{users: users, activity: activity}
}

type userRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

// List returns regular user accounts with search and sorting.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.users.List(store.UserFilter{
		Search: q.Get("search"),
		Status: q.Get("status"),
		SortBy: q.Get("sortBy"),
	})
	if err != nil {
		slog.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Get returns a single user account.
func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.find(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Create adds a regular user account on the admin's behalf.
func (h *Users) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" || utf8.RuneCountInString(req.Name) > maxNameLen {
		writeError(w, http.StatusBadRequest, "Name is required (max 200 characters).")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "A valid email address is required.")
		return
	}
	if len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen {
		writeError(w, http.StatusBadRequest, "Password must be between 8 and 72 characters.")
		return
	}

	existing, err := h.users.FindByEmail(req.Email)
	if err != nil {
		slog.Error("look up user", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "An account with this email already exists.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = "active"
	}
	created, err := h.users.Create(&models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		Phone:        optionalField(req.Phone),
		Location:     optionalField(req.Location),
		Status:       status,
	})
	if err != nil {
		slog.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	actor := middleware.IdentityFromCtx(r.Context())
	h.activity.Record(models.Activity{
		Action:   "User created",
		Actor:    actor.Name,
		Category: models.ActivityUser,
		Detail:   "User: " + created.Email,
	})

	writeJSON(w, http.StatusCreated, created)
}

// Update edits a user account. Absent fields keep their values; a new
// password is rehashed.
func (h *Users) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.find(w, r)
	if !ok {
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		if utf8.RuneCountInString(name) > maxNameLen {
			writeError(w, http.StatusBadRequest, "Name is too long (max 200 characters).")
			return
		}
		user.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" && email != user.Email {
		if _, err := mail.ParseAddress(email); err != nil {
			writeError(w, http.StatusBadRequest, "Email address is not valid.")
			return
		}
		existing, err := h.users.FindByEmail(email)
		if err != nil {
			slog.Error("look up user", "error", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong.")
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, "An account with this email already exists.")
			return
		}
		user.Email = email
	}
	if req.Password != "" {
		if len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen {
			writeError(w, http.StatusBadRequest, "Password must be between 8 and 72 characters.")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("hash password", "error", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong.")
			return
		}
		user.PasswordHash = string(hash)
	}
	if v := optionalField(req.Phone); v != nil {
		user.Phone = v
	}
	if v := optionalField(req.Location); v != nil {
		user.Location = v
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		user.Status = status
	}

	if err := h.users.Update(user); err != nil {
		slog.Error("update user", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	actor := middleware.IdentityFromCtx(r.Context())
	h.activity.Record(models.Activity{
		Action:   "User updated",
		Actor:    actor.Name,
		Category: models.ActivityUser,
		Detail:   "User: " + user.Email,
	})

	writeJSON(w, http.StatusOK, user)
}

// Delete removes a user account.
func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.find(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(user.ID); err != nil {
		slog.Error("delete user", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	actor := middleware.IdentityFromCtx(r.Context())
	h.activity.Record(models.Activity{
		Action:   "User deleted",
		Actor:    actor.Name,
		Category: models.ActivityUser,
		Detail:   "User: " + user.Email,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted."})
}

// find resolves the {id} param to a regular user account, writing the
// error response itself on failure. Admin accounts stay out of reach.
func (h *Users) find(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found.")
		return nil, false
	}

	user, err := h.users.FindByID(id)
	if err != nil {
		slog.Error("find user", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return nil, false
	}
	if user == nil || user.IsAdmin() {
		writeError(w, http.StatusNotFound, "Not found.")
		return nil, false
	}
	return user, true
}
