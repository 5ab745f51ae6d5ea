// Package textgen turns a topic into a ready-to-publish post through an
// OpenAI-compatible chat completion endpoint.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/m3rciful/studiobot/core/logger"
)

// DefaultSystemPrompt is used when the configuration leaves the prompt empty.
const DefaultSystemPrompt = "You write short, friendly social media posts for a creative studio. " +
	"Answer with the post text only, without a title and without hashtags unless asked."

var (
	// ErrNotConfigured is returned when no API key was provided.
	ErrNotConfigured = errors.New("text generation is not configured")
	// ErrEmptyResponse is returned when the endpoint answers without content.
	ErrEmptyResponse = errors.New("empty completion")
)

// Options configure a Client.
type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
}

// Client generates posts. A zero-key Client is valid and always fails with ErrNotConfigured.
type Client struct {
	client *openai.Client
	model  string
	system string
}

// New builds a Client from opts.
func New(opts Options) *Client {
	system := strings.TrimSpace(opts.SystemPrompt)
	if system == "" {
		system = DefaultSystemPrompt
	}
	c := &Client{model: opts.Model, system: system}
	if strings.TrimSpace(opts.APIKey) == "" {
		return c
	}
	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	c.client = openai.NewClientWithConfig(config)
	return c
}

// Enabled reports whether an API key was configured.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Generate asks the model for a post about topic.
func (c *Client) Generate(ctx context.Context, topic string) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.system},
			{Role: openai.ChatMessageRoleUser, Content: "Write a post about: " + topic},
		},
	})
	if err != nil {
		logger.LogEvent(ctx, logger.AI, slog.LevelWarn, "ai.generate",
			slog.String("status", "error"),
			slog.String("model", c.model),
			logger.TookAttr(start),
			logger.ErrAttr(err),
		)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	logger.LogEvent(ctx, logger.AI, slog.LevelInfo, "ai.generate",
		slog.String("status", "ok"),
		slog.String("model", c.model),
		slog.Int("tokens", resp.Usage.TotalTokens),
		slog.Int("chars", len(text)),
		logger.TookAttr(start),
	)
	return text, nil
}
