// Package gemini provides a Gemini-backed implementation of the pipeline's
// Generator interface.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the generation model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// Client wraps one generative model of the Gemini API.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// New creates a Client for the given model name.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: c, model: c.GenerativeModel(model)}, nil
}

// Generate sends one prompt and returns the full response text of the
// first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		break
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini: empty response")
	}
	return b.String(), nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}
