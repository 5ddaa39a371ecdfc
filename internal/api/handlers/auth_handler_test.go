package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/grandline-guide/internal/api/respond"
	"github.com/isdelr/grandline-guide/internal/auth"
	"github.com/isdelr/grandline-guide/internal/models"
	"github.com/isdelr/grandline-guide/internal/services"
)

func newTestAuthHandler() (*AuthHandler, *mockUserService, *mockEventService, *auth.TokenService) {
	users := newMockUserService()
	events := &mockEventService{}
	tokens := auth.NewTokenService("test-secret")
	return NewAuthHandler(users, tokens, events), users, events, tokens
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) respond.ErrorBody {
	t.Helper()
	var body respond.ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestAuthHandler_Signup(t *testing.T) {
	h, users, events, tokens := newTestAuthHandler()

	w := postJSON(t, h.Signup, `{"username":"nami","password":"tangerine"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	claims, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "nami", claims.Username)
	assert.Equal(t, users.users["nami"].ID, claims.UserID)
	assert.Equal(t, []string{services.EventSignup}, events.types())
}

func TestAuthHandler_SignupErrors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		serviceErr  error
		wantStatus  int
		wantKind    string
		wantMessage string
	}{
		{
			name:        "missing password",
			body:        `{"username":"nami"}`,
			wantStatus:  http.StatusBadRequest,
			wantKind:    respond.KindValidation,
			wantMessage: "Username and password are required",
		},
		{
			name:        "empty body object",
			body:        `{}`,
			wantStatus:  http.StatusBadRequest,
			wantKind:    respond.KindValidation,
			wantMessage: "Username and password are required",
		},
		{
			name:       "malformed json",
			body:       `{"username":`,
			wantStatus: http.StatusBadRequest,
			wantKind:   respond.KindValidation,
		},
		{
			name:        "storage failure",
			body:        `{"username":"nami","password":"x"}`,
			serviceErr:  errBoom,
			wantStatus:  http.StatusInternalServerError,
			wantKind:    respond.KindInternal,
			wantMessage: "Failed to register user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, users, events, _ := newTestAuthHandler()
			users.err = tt.serviceErr

			w := postJSON(t, h.Signup, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.wantKind, body.Error)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body.Message)
			}
			assert.Empty(t, events.types())
		})
	}
}

func TestAuthHandler_SignupDuplicate(t *testing.T) {
	h, _, _, _ := newTestAuthHandler()

	first := postJSON(t, h.Signup, `{"username":"zoro","password":"swords"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := postJSON(t, h.Signup, `{"username":"zoro","password":"other"}`)
	assert.Equal(t, http.StatusBadRequest, second.Code)
	body := decodeError(t, second)
	assert.Equal(t, respond.KindConflict, body.Error)
	assert.Equal(t, "User already exists", body.Message)
}

func TestAuthHandler_Login(t *testing.T) {
	h, users, events, tokens := newTestAuthHandler()
	_, err := users.CreateUser(context.Background(), "sanji", "allblue")
	require.NoError(t, err)

	w := postJSON(t, h.Login, `{"username":"sanji","password":"allblue"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	claims, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "sanji", claims.Username)
	assert.Equal(t, []string{services.EventLoginSuccess}, events.types())
}

func TestAuthHandler_LoginFailuresAreIndistinguishable(t *testing.T) {
	h, users, events, _ := newTestAuthHandler()
	_, err := users.CreateUser(context.Background(), "sanji", "allblue")
	require.NoError(t, err)

	wrongPassword := postJSON(t, h.Login, `{"username":"sanji","password":"nope"}`)
	unknownUser := postJSON(t, h.Login, `{"username":"buggy","password":"allblue"}`)

	for _, w := range []*httptest.ResponseRecorder{wrongPassword, unknownUser} {
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, respond.ErrorBody{Error: respond.KindAuth, Message: "Invalid credentials"}, body)
	}
	assert.Equal(t, []string{services.EventLoginFailure}, events.types())
}

func TestAuthHandler_LoginInternalError(t *testing.T) {
	h, users, _, _ := newTestAuthHandler()
	users.err = errBoom

	w := postJSON(t, h.Login, `{"username":"sanji","password":"allblue"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, respond.KindInternal, decodeError(t, w).Error)
}

func TestAuthHandler_Protected(t *testing.T) {
	h, _, _, tokens := newTestAuthHandler()
	token, err := tokens.Issue(models.User{ID: "id-robin", Username: "robin"})
	require.NoError(t, err)

	handler := auth.JWTMiddleware(tokens)(http.HandlerFunc(h.Protected))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Message string `json:"message"`
		User    struct {
			ID       string `json:"id"`
			Username string `json:"username"`
			Iat      int64  `json:"iat"`
			Exp      int64  `json:"exp"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "This is a protected route", resp.Message)
	assert.Equal(t, "id-robin", resp.User.ID)
	assert.Equal(t, "robin", resp.User.Username)
	assert.Equal(t, int64(auth.TokenTTL.Seconds()), resp.User.Exp-resp.User.Iat)
}

func TestAuthHandler_ProtectedWithoutClaims(t *testing.T) {
	h, _, _, _ := newTestAuthHandler()
	w := httptest.NewRecorder()

	h.Protected(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Events(t *testing.T) {
	h, users, events, tokens := newTestAuthHandler()
	_, err := users.CreateUser(context.Background(), "usopp", "sogeking")
	require.NoError(t, err)
	postJSON(t, h.Login, `{"username":"usopp","password":"sogeking"}`)
	postJSON(t, h.Login, `{"username":"usopp","password":"wrong"}`)

	token, err := tokens.Issue(models.User{ID: "id-usopp", Username: "usopp"})
	require.NoError(t, err)
	handler := auth.JWTMiddleware(tokens)(http.HandlerFunc(h.Events))

	tests := []struct {
		name      string
		query     string
		wantLimit int
	}{
		{name: "default limit", query: "", wantLimit: 20},
		{name: "explicit limit", query: "?limit=5", wantLimit: 5},
		{name: "limit too large", query: "?limit=1000", wantLimit: 20},
		{name: "limit not a number", query: "?limit=abc", wantLimit: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/events"+tt.query, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			var got []models.Event
			require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&got))
			assert.Len(t, got, 2)
			assert.Equal(t, tt.wantLimit, events.gotLimit)
		})
	}
}

func TestAuthHandler_EventsStorageFailure(t *testing.T) {
	h, _, events, tokens := newTestAuthHandler()
	events.getErr = errBoom
	token, err := tokens.Issue(models.User{ID: "id-usopp", Username: "usopp"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	auth.JWTMiddleware(tokens)(http.HandlerFunc(h.Events)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
