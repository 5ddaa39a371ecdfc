// Package guide turns a country name into a short AI-written travel guide.
//
// The only caller-controlled input is the country name. It is validated,
// dropped into a fixed prompt, and sent to the generator with sampling
// parameters that are fixed server-side.
package guide

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxCountryLength bounds the country name in runes.
const MaxCountryLength = 100

var (
	// ErrInvalidCountry is returned for empty, over-long or control-character names.
	ErrInvalidCountry = errors.New("invalid country name")

	// ErrUpstream wraps every failure of the generation API.
	ErrUpstream = errors.New("guide generation failed")
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Stream calls yield for every chunk of text as it arrives.
	Stream(ctx context.Context, prompt string, yield func(chunk string) error) error
}

// ValidateCountry trims the name and checks it is usable in the prompt.
func ValidateCountry(country string) (string, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return "", ErrInvalidCountry
	}
	if utf8.RuneCountInString(country) > MaxCountryLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidCountry, MaxCountryLength)
	}
	for _, r := range country {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: contains control characters", ErrInvalidCountry)
		}
	}
	return country, nil
}

// Service validates input, renders the prompt and calls the generator. It
// never retries.
type Service struct {
	gen     Generator
	timeout time.Duration
}

// NewService creates a Service. A zero timeout leaves the caller's context
// as the only deadline.
func NewService(gen Generator, timeout time.Duration) *Service {
	return &Service{gen: gen, timeout: timeout}
}

// Generate returns the trimmed guide text for country.
func (s *Service) Generate(ctx context.Context, country string) (string, error) {
	country, err := ValidateCountry(country)
	if err != nil {
		return "", err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	text, err := s.gen.Generate(ctx, BuildPrompt(country))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return strings.TrimSpace(text), nil
}

// Stream forwards the guide for country chunk by chunk.
func (s *Service) Stream(ctx context.Context, country string, yield func(chunk string) error) error {
	country, err := ValidateCountry(country)
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.gen.Stream(ctx, BuildPrompt(country), yield); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
