package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/isdelr/grandline-guide/internal/api/respond"
	"github.com/isdelr/grandline-guide/internal/auth"
	"github.com/isdelr/grandline-guide/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles signup, login and the token probe.
type AuthHandler struct {
	users  services.UserServiceProvider
	tokens auth.TokenIssuer
	events services.EventServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, tokens auth.TokenIssuer, events services.EventServiceProvider) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, events: events}
}

// CredentialsPayload defines the structure for signup and login requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by signup and login.
type TokenResponse struct {
	Token string `json:"token"`
}

// ProtectedResponse is returned by the token probe.
type ProtectedResponse struct {
	Message string       `json:"message"`
	User    *auth.Claims `json:"user"`
}

// Signup handles new user registration.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.KindValidation, "Invalid request body")
		return
	}

	user, err := h.users.CreateUser(r.Context(), payload.Username, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			respond.Error(w, http.StatusBadRequest, respond.KindValidation, "Username and password are required")
		case errors.Is(err, services.ErrDuplicateUser):
			respond.Error(w, http.StatusBadRequest, respond.KindConflict, "User already exists")
		default:
			log.Error().Err(err).Str("username", payload.Username).Msg("Failed to register user")
			respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "Failed to register user")
		}
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "Failed to generate token")
		return
	}

	h.recordEvent(r.Context(), services.EventSignup, "info", "Account created", user.Username)
	respond.JSON(w, http.StatusCreated, TokenResponse{Token: token})
}

// Login handles user authentication and JWT generation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.KindValidation, "Invalid request body")
		return
	}

	user, err := h.users.VerifyCredentials(r.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Err(err).Str("username", payload.Username).Msg("Failed authentication attempt")
			if errors.Is(err, services.ErrInvalidCredentials) {
				h.recordEvent(r.Context(), services.EventLoginFailure, "warn", "Failed login attempt", payload.Username)
			}
			respond.Error(w, http.StatusBadRequest, respond.KindAuth, "Invalid credentials")
			return
		}
		log.Error().Err(err).Str("username", payload.Username).Msg("Failed to verify credentials")
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "Failed to log in")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "Failed to generate token")
		return
	}

	h.recordEvent(r.Context(), services.EventLoginSuccess, "info", "Logged in", user.Username)
	respond.JSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Protected echoes the decoded token subject.
func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		respond.Error(w, http.StatusUnauthorized, respond.KindAuth, "Token required")
		return
	}

	respond.JSON(w, http.StatusOK, ProtectedResponse{
		Message: "This is a protected route",
		User:    claims,
	})
}

// Events returns the caller's recent account activity.
func (h *AuthHandler) Events(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, respond.KindAuth, "Token required")
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}

	events, err := h.events.GetRecentEvents(r.Context(), claims.Username, limit)
	if err != nil {
		log.Error().Err(err).Str("username", claims.Username).Msg("Failed to retrieve events")
		respond.Error(w, http.StatusInternalServerError, respond.KindInternal, "Failed to retrieve events")
		return
	}
	respond.JSON(w, http.StatusOK, events)
}

// recordEvent stores an audit event. Failures are logged and otherwise ignored.
func (h *AuthHandler) recordEvent(ctx context.Context, eventType, level, message, username string) {
	if err := h.events.CreateEvent(ctx, eventType, level, message, &username); err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}
