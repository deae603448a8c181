package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ananke-board/ananke/database"
	"github.com/ananke-board/ananke/services"
)

// AuthHandler handles authentication and account management endpoints
type AuthHandler struct {
	authService *services.AuthService
	users       *database.UserService
}

func NewAuthHandler(authService *services.AuthService, users *database.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		users:       users,
	}
}

func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int((24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

func userPayload(u *database.User) map[string]any {
	return map[string]any{
		"id":                u.ID,
		"name":              u.DisplayName(),
		"email":             u.Email,
		"first_name":        u.FirstName,
		"last_name":         u.LastName,
		"role":              u.Role,
		"is_setup_complete": u.IsSetupComplete,
		"avatar_url":        u.AvatarURL,
	}
}

// Login verifies email/password and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		log.Printf("Database error during login: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if err != nil || h.authService.CheckPassword(user.PasswordHash, req.Password) != nil {
		log.Printf("Failed login attempt for email: %s", req.Email)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.authService.CreateToken(user)
	if err != nil {
		log.Printf("Error creating token: %v", err)
		writeError(w, http.StatusInternalServerError, "Authentication error")
		return
	}

	log.Printf("User logged in: %s (%s)", user.DisplayName(), user.Role)
	setTokenCookie(w, token)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"require_setup": !user.IsSetupComplete,
		"user":          userPayload(user),
	})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Me returns the current user's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.users.GetByID(r.Context(), ctx.ID)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err != nil {
		log.Printf("Error loading user %d: %v", ctx.ID, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": userPayload(user)})
}

// CreateAccount creates a new user account (admin and up). The owner
// role is not assignable; there is exactly one owner, created at setup.
func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password required")
		return
	}

	role := services.Role(req.Role)
	if req.Role == "" {
		role = services.RoleReader
	}
	if !role.Valid() || role == services.RoleOwner {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	id, err := h.users.Create(r.Context(), req.Email, hash, string(role))
	if errors.Is(err, database.ErrEmailTaken) {
		log.Printf("Account creation failed: email already exists (%s)", req.Email)
		writeError(w, http.StatusConflict, "Email already in use")
		return
	}
	if err != nil {
		log.Printf("Database error during account creation: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	log.Printf("Account created: %s with role %s (by %s)", req.Email, role, actor.Name)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "success": true})
}

// CompleteSetup stores the user's profile, marks setup complete and
// re-issues the session cookie so the token reflects the new name.
func (h *AuthHandler) CompleteSetup(w http.ResponseWriter, r *http.Request) {
	ctx, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		FirstName string  `json:"firstName"`
		LastName  string  `json:"lastName"`
		Email     string  `json:"email"`
		Password  string  `json:"password"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	var hash string
	if req.Password != "" {
		var err error
		hash, err = h.authService.HashPassword(req.Password)
		if err != nil {
			log.Printf("Error hashing password: %v", err)
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
	}

	var avatarURL string
	if req.AvatarURL != nil {
		avatarURL = *req.AvatarURL
	}

	err := h.users.SetupProfile(r.Context(), ctx.ID, req.FirstName, req.LastName, req.Email, hash, avatarURL, req.AvatarURL != nil)
	if err != nil {
		log.Printf("Error updating profile for user %d: %v", ctx.ID, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	user, err := h.users.GetByID(r.Context(), ctx.ID)
	if err != nil {
		// Profile saved but reload failed; the stale cookie still works
		// until its expiry.
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	token, err := h.authService.CreateToken(user)
	if err == nil {
		setTokenCookie(w, token)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    userPayload(user),
	})
}

// ListUsers returns all accounts (admin and up)
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		log.Printf("Error listing users: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	payload := make([]map[string]any, 0, len(users))
	for i := range users {
		payload = append(payload, userPayload(&users[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": payload})
}

// UpdateRole changes a user's role (admin and up). The owner cannot be
// demoted and the owner role cannot be granted.
func (h *AuthHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	role := services.Role(req.Role)
	if !role.Valid() || role == services.RoleOwner {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	err = h.users.UpdateRole(r.Context(), id, string(role))
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found or protected")
		return
	}
	if err != nil {
		log.Printf("Error updating role for user %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteUser removes an account (admin and up). Self-deletion and the
// owner are refused.
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := UserFromContext(r.Context())

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if id == actor.ID {
		writeError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	err = h.users.Delete(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found or protected")
		return
	}
	if err != nil {
		log.Printf("Error deleting user %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ListAssignees returns the reduced user list shown in assignee pickers;
// available to every authenticated role.
func (h *AuthHandler) ListAssignees(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		log.Printf("Error listing users: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	payload := make([]database.Assignee, 0, len(users))
	for i := range users {
		payload = append(payload, database.Assignee{
			ID:        users[i].ID,
			Name:      users[i].DisplayName(),
			AvatarURL: users[i].AvatarURL,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": payload})
}
