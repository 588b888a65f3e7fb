// Package classify labels free-text user queries as one of the four
// routing buckets (ingredient, meal, food_group, general).
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/siherrmann/fodmapper/core/llm"
	"github.com/siherrmann/fodmapper/model"
	"github.com/siherrmann/fodmapper/prompts"
)

// Classifier asks an external LLM to classify a user query.
// It never fails: service and parse errors are recovered via the
// ingredient fallback so the router always gets a decision.
type Classifier struct {
	completer llm.Completer
	config    model.ChatConfig
	log       *slog.Logger
}

// NewClassifier creates a classifier using the given completer
func NewClassifier(completer llm.Completer, config model.ChatConfig, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		completer: completer,
		config:    config,
		log:       logger,
	}
}

// Classify labels the user query. On any service or parse failure it
// returns the fallback classification (ingredient lookup on the lowercased
// raw query) with the error recorded on the result.
func (c *Classifier) Classify(ctx context.Context, userQuery string) *model.Classification {
	response, err := c.completer.Complete(ctx, llm.ChatRequest{
		System:      prompts.QueryClassification,
		User:        fmt.Sprintf("Classify this query: %q", userQuery),
		Model:       c.config.Model,
		Temperature: c.config.AnalysisTemp,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		c.log.Warn("Classification service failed, using ingredient fallback", slog.String("error", err.Error()))
		return model.FallbackClassification(userQuery, err)
	}

	classification := &model.Classification{}
	if err := json.Unmarshal([]byte(response), classification); err != nil {
		c.log.Warn("Unparsable classification response, using ingredient fallback", slog.String("error", err.Error()))
		return model.FallbackClassification(userQuery, err)
	}

	if !classification.QueryType.Valid() || (classification.QueryType != model.QueryTypeGeneral && len(classification.IdentifiedItems) == 0) {
		c.log.Warn("Invalid classification shape, using ingredient fallback", slog.String("query_type", string(classification.QueryType)))
		return model.FallbackClassification(userQuery, fmt.Errorf("invalid classification: type %q with %d items", classification.QueryType, len(classification.IdentifiedItems)))
	}

	return classification
}
