package handlers

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"intercept/internal/auth"
	"intercept/internal/models"
	"intercept/internal/store"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt input limit
	maxNameLen     = 200
)

// Auth handles registration and login.
type Auth struct {
	users    *store.UserStore
	tokens   *auth.Service
	activity *store.ActivityStore
}

// NewAuth builds the auth handler.
func NewAuth(users *store.UserStore, tokens *auth.Service, activity *store.ActivityStore) *Auth {
	return &Auth{users: users, tokens: tokens, activity: activity}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a new user account and returns a signed token.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
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

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		Phone:        optionalField(req.Phone),
		Location:     optionalField(req.Location),
		Status:       "active",
	}
	created, err := h.users.Create(user)
	if err != nil {
		slog.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	h.activity.Record(models.Activity{
		Action:   "User registered",
		Actor:    created.Name,
		Category: models.ActivityUser,
		Detail:   "User: " + created.Email,
	})

	token, err := h.tokens.Token(created)
	if err != nil {
		slog.Error("sign token", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: created})
}

// Login verifies credentials and returns a signed token.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.FindByEmail(req.Email)
	if err != nil {
		slog.Error("look up user", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	token, err := h.tokens.Token(user)
	if err != nil {
		slog.Error("sign token", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// optionalField maps empty form values to NULL columns.
func optionalField(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
