package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ChatRequest is a single chat completion round trip. Context carries an
// optional second system message (retrieved knowledge-graph evidence).
type ChatRequest struct {
	System      string
	Context     string
	User        string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Completer executes a chat completion against an external LLM service
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// CompleteFunc adapts a plain function to the Completer interface
type CompleteFunc func(ctx context.Context, req ChatRequest) (string, error)

func (f CompleteFunc) Complete(ctx context.Context, req ChatRequest) (string, error) {
	return f(ctx, req)
}

// OpenAIClient is a Completer backed by an OpenAI-compatible chat API
type OpenAIClient struct {
	client *openai.Client
}

// ClientConfig configures the OpenAI-backed completer
type ClientConfig struct {
	APIKey  string
	BaseURL string        // Optional, for OpenAI-compatible services
	Timeout time.Duration // Per-call HTTP timeout, default 60s
}

// NewOpenAIClient creates a Completer using the OpenAI SDK.
// Each call carries a bounded HTTP timeout so a stalled service cannot
// hang the pipeline.
func NewOpenAIClient(cfg ClientConfig) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = &http.Client{
		Timeout: timeout,
	}

	return &OpenAIClient{client: openai.NewClientWithConfig(config)}
}

// Complete sends the request as system(/context)/user messages and returns
// the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.System},
	}
	if req.Context != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.Context,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}
