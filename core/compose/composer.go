// Package compose turns the assembled context and the user question into
// the final answer via an external LLM chat completion.
package compose

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siherrmann/fodmapper/core/llm"
	"github.com/siherrmann/fodmapper/model"
)

// Composer generates the final answer text
type Composer struct {
	completer llm.Completer
	config    model.ChatConfig
	log       *slog.Logger
}

// NewComposer creates a response composer using the given completer
func NewComposer(completer llm.Completer, config model.ChatConfig, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		completer: completer,
		config:    config,
		log:       logger,
	}
}

// Compose sends the three-message payload (system instruction, retrieved
// context, user question) to the completion service. On failure it returns
// a user-facing apology embedding the error; nothing propagates past this
// boundary.
func (c *Composer) Compose(ctx context.Context, systemPrompt string, contextText string, userQuery string) string {
	response, err := c.completer.Complete(ctx, llm.ChatRequest{
		System:      systemPrompt,
		Context:     fmt.Sprintf("Context from FODMAP database:\n%s", contextText),
		User:        userQuery,
		Model:       c.config.Model,
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		c.log.Error("Response composition failed", slog.String("error", err.Error()))
		return fmt.Sprintf("I encountered an error: %s. Please try again.", err.Error())
	}

	return response
}
