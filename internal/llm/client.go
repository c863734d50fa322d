package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	bioerrors "bioeval/internal/errors"
	"bioeval/internal/logging"
	"bioeval/internal/token"
)

// Message is a single chat message in OpenAI format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one chat completion call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// TokenUsage reports token accounting from the API.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the assistant reply plus usage accounting.
type CompletionResponse struct {
	Content string
	Usage   TokenUsage
}

// Client is the minimal LLM surface the pipeline depends on.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Config holds client construction options.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Logger     logging.Logger
}

// OpenAI API compatible client
type openaiClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logging.Logger
	retry      bioerrors.RetryConfig
}

// NewClient constructs a client that speaks the OpenAI-compatible chat
// completions API. BaseURL defaults to OpenRouter.
func NewClient(cfg Config) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	retry := bioerrors.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}

	return &openaiClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.OrNop(cfg.Logger),
		retry:      retry,
	}
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage TokenUsage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete performs one chat completion with retry on transient failures.
func (c *openaiClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return bioerrors.RetryWithResultAndLog(ctx, c.retry, func(ctx context.Context) (*CompletionResponse, error) {
		return c.completeOnce(ctx, req)
	}, c.logger)
}

func (c *openaiClient) completeOnce(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body, err := json.Marshal(map[string]any{
		"model":       req.Model,
		"messages":    req.Messages,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	c.logger.Debug("=== LLM Request ===")
	c.logger.Debug("URL: POST %s", endpoint)
	c.logger.Debug("Model: %s, prompt ~%d tokens", req.Model, promptTokens(req.Messages))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("HTTP request failed: %v", err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("=== LLM Response ===")
	c.logger.Debug("Status: %d, %d bytes", resp.StatusCode, len(respBody))

	if resp.StatusCode != http.StatusOK {
		if bioerrors.IsRetryableStatusCode(resp.StatusCode) {
			return nil, bioerrors.NewTransientHTTPError(resp.StatusCode, truncate(string(respBody), 500))
		}
		return nil, bioerrors.NewPermanentHTTPError(resp.StatusCode, truncate(string(respBody), 500))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, &bioerrors.PermanentError{
			Err: fmt.Errorf("API error (%s): %s", parsed.Error.Type, parsed.Error.Message),
		}
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("response contained no choices")
	}

	content := parsed.Choices[0].Message.Content

	// Some OpenRouter-routed providers omit usage accounting. Fill it from a
	// local count so cost logging stays meaningful.
	usage := parsed.Usage
	if usage.PromptTokens == 0 {
		usage.PromptTokens = promptTokens(req.Messages)
	}
	if usage.CompletionTokens == 0 {
		usage.CompletionTokens = token.Count(content)
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	return &CompletionResponse{
		Content: content,
		Usage:   usage,
	}, nil
}

// promptTokens counts tokens across all message contents.
func promptTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += token.Count(m.Content)
	}
	return total
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
