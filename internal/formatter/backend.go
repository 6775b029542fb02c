package formatter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChatBackend turns a system/user prompt pair into a completion.
type ChatBackend interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// OpenAIBackend speaks the OpenAI chat-completions wire format. Any
// endpoint implementing that format works (OpenAI, a local proxy, or a
// compatible gateway).
type OpenAIBackend struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	return &OpenAIBackend{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (b *OpenAIBackend) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	payload := map[string]any{
		"model": b.model,
		"messages": []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		"temperature": 0.3,
		"max_tokens":  maxTokens,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices: %s", string(body))
	}
	return result.Choices[0].Message.Content, nil
}
