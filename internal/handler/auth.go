package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bobabar/api/internal/auth"
	"github.com/bobabar/api/internal/database"
	"github.com/bobabar/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// AuthStore defines the database methods needed by admin auth handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AuthStore interface {
	GetAdminByEmail(ctx context.Context, email string) (database.AdminUser, error)
	GetAdminByID(ctx context.Context, id int64) (database.AdminUser, error)
	UpdateAdminPassword(ctx context.Context, arg database.UpdateAdminPasswordParams) error
}

// AuthHandler handles admin authentication endpoints.
type AuthHandler struct {
	store     AuthStore
	jwtSecret string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store AuthStore, jwtSecret string) *AuthHandler {
	return &AuthHandler{store: store, jwtSecret: jwtSecret}
}

// RegisterRoutes registers the unauthenticated auth endpoints.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// RegisterProtectedRoutes registers auth endpoints that need a bearer token.
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.Me)
	r.Patch("/auth/password", h.ChangePassword)
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type adminResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	Token string        `json:"token"`
	Admin adminResponse `json:"admin"`
}

func toAdminResponse(a database.AdminUser) adminResponse {
	return adminResponse{ID: a.ID, Email: a.Email, Role: a.Role}
}

// --- Handlers ---

// Login exchanges email + password for an admin token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	admin, err := h.store.GetAdminByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeInternalError(w, "get admin by email", err)
		return
	}

	if !admin.IsActive {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin inactive"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, admin.ID, admin.Email, admin.Role)
	if err != nil {
		writeInternalError(w, "generate token", err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, Admin: toAdminResponse(admin)})
}

// Me returns the admin behind the bearer token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	admin, ok := h.currentAdmin(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toAdminResponse(admin))
}

// ChangePassword verifies the current password and stores a new hash.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "currentPassword and newPassword are required"})
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "newPassword must be at least 8 characters"})
		return
	}

	admin, ok := h.currentAdmin(w, r)
	if !ok {
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid current password"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeInternalError(w, "hash password", err)
		return
	}

	if err := h.store.UpdateAdminPassword(r.Context(), database.UpdateAdminPasswordParams{
		ID:           admin.ID,
		PasswordHash: string(hash),
	}); err != nil {
		writeInternalError(w, "update admin password", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// --- Helpers ---

// currentAdmin loads the token's admin. Tokens outlive deactivation, so the
// active flag is checked on every call.
func (h *AuthHandler) currentAdmin(w http.ResponseWriter, r *http.Request) (database.AdminUser, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return database.AdminUser{}, false
	}

	admin, err := h.store.GetAdminByID(r.Context(), claims.AdminID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "admin not found"})
			return database.AdminUser{}, false
		}
		writeInternalError(w, "get admin by id", err)
		return database.AdminUser{}, false
	}

	if !admin.IsActive {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin inactive"})
		return database.AdminUser{}, false
	}

	return admin, true
}
