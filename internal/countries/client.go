// Package countries is a client for the restcountries directory. Every
// lookup returns records normalized into models.Country.
package countries

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/isdelr/grandline-guide/internal/models"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public restcountries v3.1 API.
const DefaultBaseURL = "https://restcountries.com/v3.1"

// requestedFields limits upstream payloads to what normalize reads.
const requestedFields = "name,population,region,languages,flags,capital"

// ErrNotFound is returned when a lookup matched nothing.
var ErrNotFound = errors.New("country not found")

// UpstreamError describes a failed call to the directory.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("countries %s: upstream status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("countries %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is reports a 404 from the directory as ErrNotFound.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the country directory. It never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a directory client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListAll returns every country in upstream order.
func (c *Client) ListAll(ctx context.Context) ([]models.Country, error) {
	return c.list(ctx, "list all", "/all")
}

// FindByName returns countries whose name matches the fragment.
func (c *Client) FindByName(ctx context.Context, name string) ([]models.Country, error) {
	return c.list(ctx, "find by name", "/name/"+url.PathEscape(name))
}

// FindByRegion returns the countries of one region.
func (c *Client) FindByRegion(ctx context.Context, region string) ([]models.Country, error) {
	return c.list(ctx, "find by region", "/region/"+url.PathEscape(region))
}

// FindByCode returns the country with the given 2- or 3-letter code. Only the
// first upstream record is used.
func (c *Client) FindByCode(ctx context.Context, code string) (models.Country, error) {
	const op = "find by code"
	body, err := c.get(ctx, op, "/alpha/"+url.PathEscape(code))
	if err != nil {
		return models.Country{}, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var raw rawCountry
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return models.Country{}, c.decodeError(op, err)
		}
		return normalize(raw), nil
	}

	var raws []rawCountry
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return models.Country{}, c.decodeError(op, err)
	}
	if len(raws) == 0 {
		return models.Country{}, fmt.Errorf("%s %q: %w", op, code, ErrNotFound)
	}
	return normalize(raws[0]), nil
}

func (c *Client) list(ctx context.Context, op, path string) ([]models.Country, error) {
	body, err := c.get(ctx, op, path)
	if err != nil {
		return nil, err
	}

	var raws []rawCountry
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, c.decodeError(op, err)
	}

	out := make([]models.Country, 0, len(raws))
	for _, raw := range raws {
		out = append(out, normalize(raw))
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, path string) ([]byte, error) {
	endpoint := c.baseURL + path + "?fields=" + requestedFields

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("op", op).Str("path", path).Msg("Country directory request failed")
		return nil, &UpstreamError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("op", op).Msg("Failed to read country directory response")
		return nil, &UpstreamError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Str("op", op).Str("path", path).Msg("Country directory returned an error")
		return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode}
	}
	return body, nil
}

func (c *Client) decodeError(op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("Failed to decode country directory response")
	return &UpstreamError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
}
