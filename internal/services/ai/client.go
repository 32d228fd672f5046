package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/yovohub/hub/internal/config"
	"github.com/yovohub/hub/internal/logging"
)

// Completer turns a user prompt into raw completion text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

type Completion struct {
	Content string
	Usage   UsageStats
}

type UsageStats struct {
	Model        string
	TokensInput  int
	TokensOutput int
	Duration     time.Duration
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey      string
	url         string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	limiter     *rate.Limiter
}

func NewClient(cfg config.AIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		apiKey:      cfg.APIKey,
		url:         cfg.APIURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
	}
	return c
}

func (c *Client) Model() string {
	return c.model
}

// CloseIdleConnections releases pooled connections held by the HTTP client.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
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
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *Client) Complete(ctx context.Context, prompt string) (Completion, error) {
	start := time.Now()
	stats := UsageStats{Model: c.model}

	if strings.TrimSpace(c.apiKey) == "" {
		return Completion{Usage: stats}, &CompletionError{Err: errors.New("API key not configured")}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Completion{Usage: stats}, &CompletionError{Err: fmt.Errorf("waiting for rate limiter: %w", err)}
		}
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemInstruction},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return Completion{Usage: stats}, &CompletionError{Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Completion{Usage: stats}, &CompletionError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	logging.Debug("Sending completion request", logging.Fields{
		"model":         c.model,
		"prompt_length": len(prompt),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		stats.Duration = time.Since(start)
		return Completion{Usage: stats}, &CompletionError{Err: err}
	}
	defer func() {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		stats.Duration = time.Since(start)
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return Completion{Usage: stats}, &CompletionError{StatusCode: resp.StatusCode, Body: string(preview)}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		stats.Duration = time.Since(start)
		return Completion{Usage: stats}, &CompletionError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	stats.Duration = time.Since(start)
	stats.TokensInput = decoded.Usage.PromptTokens
	stats.TokensOutput = decoded.Usage.CompletionTokens

	if len(decoded.Choices) == 0 {
		return Completion{Usage: stats}, &CompletionError{StatusCode: resp.StatusCode, Err: errors.New("response has no choices")}
	}

	return Completion{Content: decoded.Choices[0].Message.Content, Usage: stats}, nil
}
