// Package agent implements the three analysis agents behind schema
// deduction, pipeline recommendation and insight summaries. Decisions are
// made by the deterministic rules package; the Gemini client only phrases
// human-facing text and every agent degrades to rule output when the LLM
// is unconfigured or unavailable.
package agent

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/h19overflow/PipeWeave/internal/config"
)

// Client is a thin wrapper around the Gemini API used by all agents.
// A nil Client is valid and means LLM phrasing is disabled.
type Client struct {
	genai *genai.Client
	cfg   config.GeminiConfig
}

// NewClient connects to Gemini. With an empty API key it returns a nil
// client, which every agent treats as "deterministic output only".
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{genai: c, cfg: cfg}, nil
}

// Enabled reports whether LLM phrasing is available.
func (c *Client) Enabled() bool {
	return c != nil && c.genai != nil
}

// GenerateText runs a single prompt and returns the trimmed response text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("llm client not configured")
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	resp, err := c.genai.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty llm response")
	}
	return text, nil
}
