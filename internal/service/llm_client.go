package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ChatMessage is one turn in an LLM conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// LLMCallOptions configures an LLM API call.
type LLMCallOptions struct {
	Temperature float64       // Default: 0.8
	MaxTokens   int           // Default: 1024
	Timeout     time.Duration // Default: 60s
}

// LLMCallResult holds the result of an LLM API call including token usage.
type LLMCallResult struct {
	Content      string
	InputTokens  int
	OutputTokens int
	FinishReason string
	Model        string
}

// LLMClient calls an OpenAI-compatible chat completions API. The companion
// persona goes in as the system message; conversation history follows.
type LLMClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewLLMClient creates a new LLM client.
func NewLLMClient(apiKey, baseURL, model string, logger *slog.Logger) *LLMClient {
	return &LLMClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{},
		logger:  logger,
	}
}

// Chat sends the message history and returns the assistant's reply.
func (c *LLMClient) Chat(ctx context.Context, messages []ChatMessage, opts LLMCallOptions) (*LLMCallResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("no LLM API key configured")
	}

	if opts.Temperature == 0 {
		opts.Temperature = 0.8
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1024
	}
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}

	reqBody := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("LLM request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read LLM response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LLM API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed struct {
		Model   string `json:"model"`
		Choices []struct {
			Message      ChatMessage `json:"message"`
			FinishReason string      `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("LLM response contained no choices")
	}

	c.logger.Debug("llm call completed",
		"model", parsed.Model,
		"input_tokens", parsed.Usage.PromptTokens,
		"output_tokens", parsed.Usage.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &LLMCallResult{
		Content:      parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		FinishReason: parsed.Choices[0].FinishReason,
		Model:        parsed.Model,
	}, nil
}

// ClassifySentiment tags text with one of a small fixed label set. Used
// for message and journal sentiment; failures are non-fatal at call sites.
func (c *LLMClient) ClassifySentiment(ctx context.Context, text string) (string, error) {
	result, err := c.Chat(ctx, []ChatMessage{
		{
			Role:    "system",
			Content: `Classify the sentiment of the user's text. Respond with JSON: {"sentiment": "<label>"} where label is one of: positive, negative, neutral, mixed.`,
		},
		{Role: "user", Content: truncate(text, 2000)},
	}, LLMCallOptions{Temperature: 0.1, MaxTokens: 32, Timeout: 15 * time.Second})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Sentiment string `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(result.Content), &parsed); err != nil {
		return "", fmt.Errorf("sentiment response was not JSON: %w", err)
	}
	switch parsed.Sentiment {
	case "positive", "negative", "neutral", "mixed":
		return parsed.Sentiment, nil
	}
	return "", fmt.Errorf("unknown sentiment label %q", parsed.Sentiment)
}

// Summarize produces a short rolling summary of a conversation so long
// threads keep context without replaying full history.
func (c *LLMClient) Summarize(ctx context.Context, messages []ChatMessage) (string, error) {
	prompt := []ChatMessage{
		{
			Role:    "system",
			Content: "Summarize this conversation in 2-3 sentences. Capture the topics discussed and anything personal the user shared that a companion should remember.",
		},
	}
	prompt = append(prompt, messages...)

	result, err := c.Chat(ctx, prompt, LLMCallOptions{Temperature: 0.3, MaxTokens: 200, Timeout: 30 * time.Second})
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
