// Package api is the HTTP client for the Grand Line Guide backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/isdelr/grandline-guide/internal/models"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsAuthError reports whether err is a rejected token or credentials.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.Kind == "auth_error"
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Subject is the identity echoed by the token probe.
type Subject struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// ProtectedResponse is the body of GET /protected.
type ProtectedResponse struct {
	Message string  `json:"message"`
	User    Subject `json:"user"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to the backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Guide generation can take a while.
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// Signup registers a user and returns the issued token.
func (c *Client) Signup(ctx context.Context, username, password string) (string, error) {
	var resp tokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/signup", "", credentials{Username: username, Password: password}, &resp); err != nil {
		return "", fmt.Errorf("signup request failed: %w", err)
	}
	return resp.Token, nil
}

// Login authenticates and returns the issued token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp tokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/login", "", credentials{Username: username, Password: password}, &resp); err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	return resp.Token, nil
}

// Protected probes the token.
func (c *Client) Protected(ctx context.Context, token string) (*ProtectedResponse, error) {
	var resp ProtectedResponse
	if err := c.doRequest(ctx, http.MethodGet, "/protected", token, nil, &resp); err != nil {
		return nil, fmt.Errorf("protected request failed: %w", err)
	}
	return &resp, nil
}

// CountryGuide asks the backend for a guide. Every call is a fresh request.
func (c *Client) CountryGuide(ctx context.Context, country string) (string, error) {
	var resp struct {
		Result string `json:"result"`
	}
	body := map[string]string{"country": country}
	if err := c.doRequest(ctx, http.MethodPost, "/api/country-guide", "", body, &resp); err != nil {
		return "", fmt.Errorf("country guide request failed: %w", err)
	}
	return resp.Result, nil
}

// Events returns the caller's recent account activity.
func (c *Client) Events(ctx context.Context, token string, limit int) ([]models.Event, error) {
	path := "/api/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var events []models.Event
	if err := c.doRequest(ctx, http.MethodGet, path, token, nil, &events); err != nil {
		return nil, fmt.Errorf("events request failed: %w", err)
	}
	return events, nil
}

func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			apiErr.Kind = errResp.Error
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
