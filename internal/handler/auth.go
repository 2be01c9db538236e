package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/taskify/internal/apperror"
	"github.com/sakif/taskify/internal/auth"
	"github.com/sakif/taskify/internal/model"
	"github.com/sakif/taskify/internal/service"
)

// AuthHandler exposes registration, login, and the current-account
// endpoints. It owns the wire shapes; all business rules live in
// IdentityService.
type AuthHandler struct {
	identity *service.IdentityService
	logger   *slog.Logger
}

func NewAuthHandler(identity *service.IdentityService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, logger: logger}
}

// userResponse is the public view of an account. The password hash never
// appears here (and model.User tags it json:"-" as a second line of
// defense).
type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// authResponse is returned by register and login.
type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toAuthResponse(result *service.AuthResult) authResponse {
	return authResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      toUserResponse(result.User),
	}
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"email": "...", "password": "...", "confirmPassword": "..."}
//
// Responds 201 with a token — registering signs the user in.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "request body is not valid JSON"))
		return
	}

	result, err := h.identity.Register(r.Context(), service.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.logError(r, "register failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuthResponse(result))
}

// HandleLogin authenticates an email/password pair.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "request body is not valid JSON"))
		return
	}

	result, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logError(r, "login failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(result))
}

// HandleMe returns the authenticated user's account.
//
// HTTP: GET /api/me (bearer token required)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("missing authentication"))
		return
	}

	user, err := h.identity.GetUser(r.Context(), userID)
	if err != nil {
		h.logError(r, "fetching current user failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleDeleteMe permanently deletes the authenticated user's account and,
// via the database cascade, all of their tasks.
//
// HTTP: DELETE /api/me (bearer token required)
func (h *AuthHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("missing authentication"))
		return
	}

	if err := h.identity.DeleteAccount(r.Context(), userID); err != nil {
		h.logError(r, "account deletion failed", err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// logError records a failed request. Client-classified errors (validation,
// bad credentials) log at Info — they are routine; everything else is a
// server-side problem and logs at Error.
func (h *AuthHandler) logError(r *http.Request, msg string, err error) {
	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	}
	if isClientError(err) {
		h.logger.Info(msg, attrs...)
		return
	}
	h.logger.Error(msg, attrs...)
}
