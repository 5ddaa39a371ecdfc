package guide

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// GenerationConfig returns the fixed sampling parameters for guide requests.
func GenerationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](1.2),
		TopP:             genai.Ptr[float32](0.9),
		TopK:             genai.Ptr[float32](20),
		MaxOutputTokens:  1024,
		ResponseMIMEType: "text/plain",
	}
}

// GenAIGenerator generates text using Google's Gemini API.
type GenAIGenerator struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGenAIGenerator creates a new Gemini-backed generator.
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIGenerator{
		client: client,
		model:  model,
		config: GenerationConfig(),
	}, nil
}

// Generate sends the prompt as a single user turn.
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("GenAI returned no text")
	}
	return text, nil
}

// Stream sends the prompt and yields partial responses as they arrive.
func (g *GenAIGenerator) Stream(ctx context.Context, prompt string, yield func(chunk string) error) error {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	for result, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, g.config) {
		if err != nil {
			return fmt.Errorf("GenAI stream failed: %w", err)
		}
		if chunk := result.Text(); chunk != "" {
			if err := yield(chunk); err != nil {
				return err
			}
		}
	}
	return nil
}

// Name returns the generator name.
func (g *GenAIGenerator) Name() string {
	return fmt.Sprintf("genai:%s", g.model)
}

// ErrNotConfigured is returned by Unavailable.
var ErrNotConfigured = errors.New("generation API key not configured")

// Unavailable is the generator used when no API key is configured; every
// request fails as an upstream error.
type Unavailable struct{}

// Generate implements Generator.
func (Unavailable) Generate(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

// Stream implements Generator.
func (Unavailable) Stream(context.Context, string, func(string) error) error {
	return ErrNotConfigured
}
