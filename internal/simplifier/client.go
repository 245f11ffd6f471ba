package simplifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/textsimplify/api/internal/apierror"
	"github.com/textsimplify/api/internal/config"
)

const anthropicVersion = "2023-06-01"

// Completer produces a completion for a prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client calls the Anthropic Messages API
type Client struct {
	client    *http.Client
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
}

// NewClient creates a new completion API client
func NewClient(cfg config.ClaudeConfig) *Client {
	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		baseURL:   cfg.BaseURL,
	}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete sends the prompt to the Messages API and returns the reply text.
// Single attempt, no retry.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := messageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call completion API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", apierror.Unauthorized("Invalid API key")
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", apierror.RateLimited("Too many requests, please try again later")
	case resp.StatusCode >= 300:
		return "", fmt.Errorf("completion API returned status %d: %s", resp.StatusCode, body)
	}

	var msgResp messageResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(msgResp.Content) == 0 {
		return "", fmt.Errorf("completion API returned empty content")
	}

	return msgResp.Content[0].Text, nil
}
