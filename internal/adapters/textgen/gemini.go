// Package textgen adapts hosted text generation APIs to commentary.Generator.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// DefaultEndpoint is the public Gemini REST base URL including the API version.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModel is used when Config.Model is blank.
const DefaultModel = "gemini-3-flash-preview"

// Sentinel errors returned by the Gemini adapter.
var (
	ErrMissingAPIKey = errors.New("api key is required")
	ErrNoText        = errors.New("response missing text")
)

// Config configures the Gemini adapter.
type Config struct {
	// Endpoint is the base URL, optionally ending in an API version
	// segment such as /v1beta.
	Endpoint   string
	Model      string
	APIKey     string
	HTTPClient *http.Client
}

// Gemini generates text through the Gemini API client.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini adapter, filling blank fields with defaults.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	base, version := splitEndpoint(endpoint)
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    base,
			APIVersion: version,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Generate sends prompt as a single user turn and returns the text of the
// first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if res == nil || len(res.Candidates) == 0 {
		return "", ErrNoText
	}
	return res.Text(), nil
}

// splitEndpoint separates a trailing API version segment from the base URL.
// The base keeps its trailing slash.
func splitEndpoint(endpoint string) (base, version string) {
	trimmed := strings.TrimRight(endpoint, "/")
	i := strings.LastIndex(trimmed, "/")
	if i < 0 {
		return trimmed + "/", ""
	}
	last := trimmed[i+1:]
	if len(last) > 1 && last[0] == 'v' && last[1] >= '0' && last[1] <= '9' {
		return trimmed[:i+1], last
	}
	return trimmed + "/", ""
}
