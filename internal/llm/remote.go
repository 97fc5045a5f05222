// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     llm
// Description: Remote generation via OpenAI- or Anthropic-style APIs
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

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

	"github.com/msto63/cicero/pkg/core/logging"
)

// APIFormat selects the remote wire format
type APIFormat int

const (
	// FormatOpenAI is the chat-completions format, also spoken by most
	// self-hosted gateways
	FormatOpenAI APIFormat = iota

	// FormatAnthropic is the messages format
	FormatAnthropic
)

// ParseAPIFormat maps a configuration string to a format
func ParseAPIFormat(s string) APIFormat {
	if strings.EqualFold(s, "anthropic") {
		return FormatAnthropic
	}
	return FormatOpenAI
}

// defaultAnthropicVersion is sent when the config does not override it
const defaultAnthropicVersion = "2023-06-01"

// RemoteConfig holds remote engine configuration
type RemoteConfig struct {
	Format     APIFormat
	BaseURL    string
	APIKey     string
	Model      string
	APIVersion string
}

// RemoteClient talks to a hosted generation API
type RemoteClient struct {
	cfg        RemoteConfig
	httpClient *http.Client
	logger     *logging.Logger
}

// NewRemoteClient creates a remote engine
func NewRemoteClient(cfg RemoteConfig) *RemoteClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAnthropicVersion
	}
	return &RemoteClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logging.New("llm.remote"),
	}
}

// IsReady reports whether the client is configured
func (c *RemoteClient) IsReady(_ context.Context) bool {
	return c.cfg.APIKey != "" && c.cfg.BaseURL != "" && c.cfg.Model != ""
}

// Generate runs one completion in the configured format
func (c *RemoteClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("API key not configured")
	}
	if c.cfg.BaseURL == "" {
		return "", fmt.Errorf("base URL not configured")
	}

	switch c.cfg.Format {
	case FormatAnthropic:
		return c.generateAnthropic(ctx, systemPrompt, userPrompt)
	default:
		return c.generateOpenAI(ctx, systemPrompt, userPrompt)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *RemoteClient) generateOpenAI(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var messages []chatMessage
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	body := map[string]interface{}{
		"model":       c.cfg.Model,
		"messages":    messages,
		"max_tokens":  DefaultMaxTokens,
		"temperature": DefaultTemperature,
	}

	data, err := c.post(ctx, c.cfg.BaseURL+"/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("invalid response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("invalid response: no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *RemoteClient) generateAnthropic(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body := map[string]interface{}{
		"model":       c.cfg.Model,
		"max_tokens":  DefaultMaxTokens,
		"temperature": DefaultTemperature,
		"messages":    []chatMessage{{Role: "user", Content: userPrompt}},
	}
	if systemPrompt != "" {
		body["system"] = systemPrompt
	}

	data, err := c.post(ctx, c.cfg.BaseURL+"/messages", body, map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": c.cfg.APIVersion,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("invalid response: %w", err)
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("invalid response: no text block")
}

func (c *RemoteClient) post(ctx context.Context, url string, body interface{}, headers map[string]string) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}
