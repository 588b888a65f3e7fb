package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/fodmapper/core/llm"
	"github.com/siherrmann/fodmapper/model"
	"github.com/siherrmann/fodmapper/prompts"
)

func TestCompose(t *testing.T) {
	config := model.DefaultChatConfig()

	t.Run("Forwards system, context and user messages", func(t *testing.T) {
		var captured llm.ChatRequest
		completer := llm.CompleteFunc(func(ctx context.Context, req llm.ChatRequest) (string, error) {
			captured = req
			return "Soğan FODMAP açısından yüksek risklidir.", nil
		})
		composer := NewComposer(completer, config, nil)

		answer := composer.Compose(context.Background(), prompts.System, "Soğan (avoid) contains Früktan", "Soğan yiyebilir miyim?")

		assert.Equal(t, "Soğan FODMAP açısından yüksek risklidir.", answer)
		assert.Equal(t, prompts.System, captured.System)
		assert.Contains(t, captured.Context, "Context from FODMAP database:")
		assert.Contains(t, captured.Context, "Soğan (avoid) contains Früktan")
		assert.Equal(t, "Soğan yiyebilir miyim?", captured.User)
		assert.Equal(t, config.Model, captured.Model)
		assert.Equal(t, config.Temperature, captured.Temperature)
	})

	t.Run("Service failure returns an apology, never an error", func(t *testing.T) {
		completer := llm.CompleteFunc(func(ctx context.Context, req llm.ChatRequest) (string, error) {
			return "", errors.New("connection reset")
		})
		composer := NewComposer(completer, config, nil)

		answer := composer.Compose(context.Background(), prompts.System, "", "Soğan yiyebilir miyim?")

		require.NotEmpty(t, answer)
		assert.Contains(t, answer, "I encountered an error: connection reset")
		assert.Contains(t, answer, "Please try again.")
	})
}
