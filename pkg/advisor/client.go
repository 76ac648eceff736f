package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
)

// Advisor is the external advisory function: a bounded text prompt in, a
// short status line out, or an error. Implementations must be treated as
// unreliable and rate-limited; never call one without going through the
// Cache first.
type Advisor interface {
	Generate(ctx context.Context, callType CallType, prompt string) (string, error)
}

// Client calls an Anthropic-style messages endpoint.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewClient reads the API key from the configured environment variable.
// A missing key yields a nil client; callers treat that as "advisor
// unavailable" and use the deterministic fallback.
func NewClient(cfg models.AdvisorConfig) *Client {
	key := os.Getenv(cfg.APIKeyEnv)
	if !cfg.Enabled || key == "" {
		return nil
	}
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   key,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

const systemPrompt = "You pick the single most important thing to show on a desktop status line. " +
	"Answer with one short line, under 50 characters, no preamble."

// Generate performs the advisory call and returns a trimmed single line.
func (c *Client) Generate(ctx context.Context, callType CallType, prompt string) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: 100,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshalling advisory request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating advisory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisory request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading advisory response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisory endpoint returned %d", resp.StatusCode)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decoding advisory response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("advisory response had no content")
	}

	line := strings.TrimSpace(parsed.Content[0].Text)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if line == "" {
		return "", fmt.Errorf("advisory response was empty")
	}
	return line, nil
}
