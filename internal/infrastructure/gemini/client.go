// Package gemini wraps the Google Gen AI client for the business assistant.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.5-flash"

// ErrEmptyReply is returned when the model produced no text
var ErrEmptyReply = errors.New("gemini: empty reply")

// Turn is one earlier message of a chat
type Turn struct {
	FromUser bool
	Text     string
}

// Prompt is a single chat completion request
type Prompt struct {
	System   string
	History  []Turn
	Question string
}

// Completion is the model's answer with token usage
type Completion struct {
	Text      string
	TokensIn  int32
	TokensOut int32
}

// Config holds the client settings
type Config struct {
	APIKey          string
	Model           string
	Timeout         time.Duration
	MaxOutputTokens int32
	Logger          *zap.Logger
}

// Client sends chat prompts to a Gemini model
type Client struct {
	client    *genai.Client
	model     string
	timeout   time.Duration
	maxTokens int32
	logger    *zap.Logger
}

// NewClient creates a Gemini API client
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{
		client:    client,
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		maxTokens: cfg.MaxOutputTokens,
		logger:    cfg.Logger,
	}, nil
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// Complete sends the prompt and returns the model's reply
func (c *Client) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{}
	if p.System != "" {
		config.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if c.maxTokens > 0 {
		config.MaxOutputTokens = c.maxTokens
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, Contents(p), config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyReply
	}
	out := &Completion{Text: text}
	if u := resp.UsageMetadata; u != nil {
		out.TokensIn = u.PromptTokenCount
		out.TokensOut = u.CandidatesTokenCount
	}
	c.logger.Debug("Gemini reply received",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int32("tokens_in", out.TokensIn),
		zap.Int32("tokens_out", out.TokensOut))
	return out, nil
}

// Contents converts the history and question into Gemini contents
func Contents(p Prompt) []*genai.Content {
	contents := make([]*genai.Content, 0, len(p.History)+1)
	for _, t := range p.History {
		role := genai.Role(genai.RoleModel)
		if t.FromUser {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return append(contents, genai.NewContentFromText(p.Question, genai.RoleUser))
}
