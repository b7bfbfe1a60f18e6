// Package openai generates recommendations through a hosted chat-completion
// API. The model's free-form text is expected to contain a JSON array of
// recommendation objects; anything else is a malformed response. Retry and
// fallback policy live in the resolver, not here.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sydlexius/crescendo/internal/recommend"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultModel     = "gpt-3.5-turbo"
	defaultSearchURL = "https://open.spotify.com/search/"

	temperature = 0.7
	maxTokens   = 500
)

// ErrMalformedResponse indicates the model output contained no parseable
// JSON array of recommendation objects.
type ErrMalformedResponse struct {
	Reason string
}

func (e *ErrMalformedResponse) Error() string {
	return fmt.Sprintf("malformed model response: %s", e.Reason)
}

// Config holds the client settings. Zero values fall back to defaults;
// an empty APIKey leaves the client unconfigured.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	SearchURL string
}

// Client is the LLM recommendation client. It implements the resolver's
// Generator capability.
type Client struct {
	rest      *resty.Client
	model     string
	searchURL string
	apiKey    string
	logger    *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = defaultSearchURL
	}

	rest := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		rest.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		rest:      rest,
		model:     cfg.Model,
		searchURL: cfg.SearchURL,
		apiKey:    cfg.APIKey,
		logger:    logger.With(slog.String("component", "openai-client")),
	}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Generate submits the prompt as a single user message with fixed sampling
// parameters, extracts the JSON array from the reply and post-processes
// each entry with a search link. A single failure of any kind surfaces as
// one error; the client never retries.
func (c *Client) Generate(ctx context.Context, prompt string) ([]recommend.Recommendation, error) {
	body := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	var parsed chatResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&parsed).
		SetError(&parsed).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("chat completion request: %w", err)
	}
	if resp.IsError() {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return nil, fmt.Errorf("chat completion: %s (HTTP %d)", parsed.Error.Message, resp.StatusCode())
		}
		return nil, fmt.Errorf("chat completion: HTTP %d", resp.StatusCode())
	}
	if len(parsed.Choices) == 0 {
		return nil, &ErrMalformedResponse{Reason: "no choices in response"}
	}

	recs, err := c.parseRecommendations(parsed.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("generated recommendations", slog.Int("count", len(recs)))
	return recs, nil
}

// parseRecommendations locates the JSON array in the model output and
// validates the four required string fields of every entry.
func (c *Client) parseRecommendations(content string) ([]recommend.Recommendation, error) {
	raw := extractJSONArray(content)
	if raw == "" {
		return nil, &ErrMalformedResponse{Reason: "no JSON array in output"}
	}

	var recs []recommend.Recommendation
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, &ErrMalformedResponse{Reason: fmt.Sprintf("invalid JSON array: %v", err)}
	}
	if len(recs) == 0 {
		return nil, &ErrMalformedResponse{Reason: "empty recommendation array"}
	}
	for i, r := range recs {
		if r.Title == "" || r.Artist == "" || r.Genre == "" || r.Reason == "" {
			return nil, &ErrMalformedResponse{Reason: fmt.Sprintf("entry %d missing required fields", i)}
		}
		recs[i].LinkURL = c.searchLink(r.Title, r.Artist)
	}
	return recs, nil
}

// searchLink builds a deterministic search URL for a recommendation.
func (c *Client) searchLink(title, artist string) string {
	return c.searchURL + url.PathEscape(title+" "+artist)
}
