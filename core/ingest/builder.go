// Package ingest parses raw FODMAP diet information into structured data
// and builds the knowledge graph from it. It owns all graph writes; the
// chat pipeline only reads.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/siherrmann/fodmapper/core/llm"
	"github.com/siherrmann/fodmapper/database"
	"github.com/siherrmann/fodmapper/helper"
	"github.com/siherrmann/fodmapper/model"
	"github.com/siherrmann/fodmapper/prompts"
)

// Builder parses source documents and writes the knowledge graph
type Builder struct {
	completer llm.Completer
	graph     database.GraphDBHandlerFunctions
	embedder  llm.EmbedFunc // Optional, enables name embeddings
	config    model.ChatConfig
	log       *slog.Logger
}

// NewBuilder creates a graph builder
func NewBuilder(completer llm.Completer, graph database.GraphDBHandlerFunctions, config model.ChatConfig, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		completer: completer,
		graph:     graph,
		config:    config,
		log:       logger,
	}
}

// SetEmbedder enables storing a name embedding for every inserted food
func (b *Builder) SetEmbedder(embedder llm.EmbedFunc) {
	b.embedder = embedder
}

// ParseSource converts raw FODMAP diet text into structured diet data via
// the parser prompt. Unlike the chat pipeline this is a batch operation, so
// failures are returned as errors instead of being swallowed.
func (b *Builder) ParseSource(ctx context.Context, content string) (*model.DietData, error) {
	response, err := b.completer.Complete(ctx, llm.ChatRequest{
		System:      prompts.IngestSystem,
		User:        fmt.Sprintf(prompts.IngestUserTemplate, content),
		Model:       b.config.Model,
		Temperature: 0,
	})
	if err != nil {
		return nil, helper.NewError("parse source", err)
	}

	data := &model.DietData{}
	if err := json.Unmarshal([]byte(response), data); err != nil {
		return nil, helper.NewError("parse source response", fmt.Errorf("invalid JSON: %w", err))
	}
	if data.DietType.Name == "" {
		return nil, helper.NewError("parse source response", fmt.Errorf("missing diet_type name"))
	}

	return data, nil
}

// BuildGraph clears the existing graph and rebuilds it from the parsed
// diet data: diet type, FODMAP categories with CONTAINS_FODMAP edges, food
// groups with BELONGS_TO edges, SHOULD_AVOID/IS_RECOMMENDED edges to the
// diet type, and REFERS_TO edges for alternative names.
func (b *Builder) BuildGraph(ctx context.Context, data *model.DietData) error {
	if err := b.graph.ClearGraph(ctx); err != nil {
		return helper.NewError("clear graph", err)
	}

	dietID, err := b.graph.InsertDietType(data.DietType.Name, data.DietType.Description)
	if err != nil {
		return helper.NewError("insert diet type", err)
	}

	for _, category := range data.FodmapCategories {
		categoryID, err := b.graph.InsertFodmapCategory(category.Name, category.Description)
		if err != nil {
			return helper.NewError("insert fodmap category", err)
		}
		if err := b.graph.InsertEdge(categoryID, dietID, model.EdgePartOf, nil); err != nil {
			return helper.NewError("insert category edge", err)
		}

		for _, food := range category.Foods {
			foodID, err := b.insertFood(food.Name, "", "")
			if err != nil {
				return err
			}
			amount := food.Amount
			if amount == "" {
				amount = "unknown"
			}
			err = b.graph.InsertEdge(foodID, categoryID, model.EdgeContainsFodmap, model.Metadata{"amount": amount})
			if err != nil {
				return helper.NewError("insert contains edge", err)
			}
		}
	}

	for _, group := range data.StandardFoodGroups {
		groupID, err := b.graph.InsertFoodGroup(group.Name)
		if err != nil {
			return helper.NewError("insert food group", err)
		}
		if err := b.graph.InsertEdge(groupID, dietID, model.EdgePartOf, nil); err != nil {
			return helper.NewError("insert group edge", err)
		}

		for _, food := range group.Foods {
			foodID, err := b.insertFood(food.Name, food.FodmapLevel, food.ServingInfo)
			if err != nil {
				return err
			}
			if err := b.graph.InsertEdge(foodID, groupID, model.EdgeBelongsTo, nil); err != nil {
				return helper.NewError("insert belongs edge", err)
			}

			if food.ShouldAvoid {
				if err := b.graph.InsertEdge(foodID, dietID, model.EdgeShouldAvoid, nil); err != nil {
					return helper.NewError("insert avoid edge", err)
				}
			}
			if food.IsRecommended {
				if err := b.graph.InsertEdge(foodID, dietID, model.EdgeIsRecommended, nil); err != nil {
					return helper.NewError("insert recommended edge", err)
				}
			}

			for _, altName := range food.AlternativeNames {
				altID, err := b.graph.InsertAlternativeName(altName)
				if err != nil {
					return helper.NewError("insert alternative name", err)
				}
				if err := b.graph.InsertEdge(altID, foodID, model.EdgeRefersTo, nil); err != nil {
					return helper.NewError("insert refers edge", err)
				}
			}
		}
	}

	b.log.Info("Built knowledge graph",
		slog.String("diet", data.DietType.Name),
		slog.Int("num_groups", len(data.StandardFoodGroups)),
		slog.Int("num_categories", len(data.FodmapCategories)),
	)

	return nil
}

// insertFood inserts a food node and, when an embedder is configured,
// stores its name embedding for similarity lookups.
func (b *Builder) insertFood(name string, fodmapLevel string, servingInfo string) (uuid.UUID, error) {
	foodID, err := b.graph.InsertFood(name, fodmapLevel, servingInfo)
	if err != nil {
		return uuid.Nil, helper.NewError("insert food", err)
	}

	if b.embedder != nil {
		embedding, err := b.embedder(name)
		if err != nil {
			b.log.Warn("Skipping name embedding", slog.String("food", name), slog.String("error", err.Error()))
			return foodID, nil
		}
		if err := b.graph.UpdateFoodEmbedding(foodID, embedding); err != nil {
			return uuid.Nil, helper.NewError("update food embedding", err)
		}
	}

	return foodID, nil
}

// Stats returns the relationship statistics of the built graph
func (b *Builder) Stats(ctx context.Context) (*database.GraphStats, error) {
	return b.graph.Stats(ctx)
}
