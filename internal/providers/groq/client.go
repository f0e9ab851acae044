package groq

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aiworkspace/workspace-backend/internal/config"
)

// ErrNoAPIKey is returned when no provider key is configured.
var ErrNoAPIKey = errors.New("groq: API key is not configured")

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest describes a single chat completion call.
type CompletionRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Completer is the surface the handlers depend on; tests stub it.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Transcribe(ctx context.Context, filePath, language string) (string, error)
}

// Client talks to Groq's OpenAI-compatible API for both chat
// completions and Whisper transcription.
type Client struct {
	cfg    config.GroqConfig
	client *openai.Client
}

// NewClient creates a Groq client. A missing API key is not an error
// here; Complete and Transcribe report ErrNoAPIKey per call so the
// server still boots in degraded mode.
func NewClient(cfg config.GroqConfig) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

// Complete performs a single non-streaming completion. One attempt, no
// retries; the caller decides how to degrade.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	if c.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = 0.5
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("groq: completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Transcribe runs Whisper speech-to-text on an audio file. The language
// hint accepts BCP-47 tags like "en-US"; Whisper wants the primary
// subtag only.
func (c *Client) Transcribe(ctx context.Context, filePath, language string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}

	if c.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.cfg.WhisperModel,
		FilePath: filePath,
		Language: primarySubtag(language),
	})
	if err != nil {
		return "", err
	}

	return resp.Text, nil
}

func primarySubtag(language string) string {
	if i := strings.IndexAny(language, "-_"); i > 0 {
		return language[:i]
	}
	return language
}

// SystemUser is a convenience for the common two-message prompt shape.
func SystemUser(system, user string) []Message {
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}
