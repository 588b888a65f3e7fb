// Package meal decomposes dishes into their base ingredients and builds
// the graph lookups for them.
package meal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/fodmapper/core/llm"
	"github.com/siherrmann/fodmapper/model"
	"github.com/siherrmann/fodmapper/prompts"
)

// IngredientSetQuery matches all foods whose lowercased name is in the
// bound ingredient set, with optional food-group and FODMAP-category
// traversal. Status is derived from edge presence; SHOULD_AVOID is checked
// before IS_RECOMMENDED.
const IngredientSetQuery = `
SELECT f.name AS ingredient,
       fg.name AS food_group,
       COALESCE(json_agg(DISTINCT fc.name) FILTER (WHERE fc.name IS NOT NULL), '[]'::json) AS fodmap_categories,
       CASE
           WHEN EXISTS (SELECT 1 FROM graph_edges a WHERE a.from_id = f.id AND a.edge_type = 'SHOULD_AVOID') THEN 'avoid'
           WHEN EXISTS (SELECT 1 FROM graph_edges r WHERE r.from_id = f.id AND r.edge_type = 'IS_RECOMMENDED') THEN 'recommended'
           ELSE 'unknown'
       END AS status
FROM foods f
LEFT JOIN graph_edges bt ON bt.from_id = f.id AND bt.edge_type = 'BELONGS_TO'
LEFT JOIN food_groups fg ON fg.id = bt.to_id
LEFT JOIN graph_edges cf ON cf.from_id = f.id AND cf.edge_type = 'CONTAINS_FODMAP'
LEFT JOIN fodmap_categories fc ON fc.id = cf.to_id
WHERE lower(f.name) = ANY(:ingredients)
GROUP BY f.id, f.name, fg.name`

// Analyzer breaks a meal down into its base ingredients via an external LLM
type Analyzer struct {
	completer llm.Completer
	config    model.ChatConfig
	log       *slog.Logger
}

// NewAnalyzer creates a meal analyzer using the given completer
func NewAnalyzer(completer llm.Completer, config model.ChatConfig, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		completer: completer,
		config:    config,
		log:       logger,
	}
}

// AnalyzeMeal decomposes a dish into its base ingredients. On any service
// or parse failure it returns an analysis with empty ingredients and the
// error recorded; callers must treat empty ingredients as "no decomposition
// available", not as a failure.
func (a *Analyzer) AnalyzeMeal(ctx context.Context, mealName string) *model.MealAnalysis {
	response, err := a.completer.Complete(ctx, llm.ChatRequest{
		System:      prompts.MealAnalysis,
		User:        fmt.Sprintf("List all main ingredients in this dish: %q", mealName),
		Model:       a.config.Model,
		Temperature: a.config.AnalysisTemp,
		MaxTokens:   a.config.MaxTokens,
	})
	if err != nil {
		a.log.Warn("Meal analysis service failed", slog.String("dish", mealName), slog.String("error", err.Error()))
		return &model.MealAnalysis{DishName: mealName, Ingredients: []model.Ingredient{}, Err: err.Error()}
	}

	analysis := &model.MealAnalysis{}
	if err := json.Unmarshal([]byte(response), analysis); err != nil {
		a.log.Warn("Unparsable meal analysis response", slog.String("dish", mealName), slog.String("error", err.Error()))
		return &model.MealAnalysis{DishName: mealName, Ingredients: []model.Ingredient{}, Err: err.Error()}
	}

	if analysis.DishName == "" {
		analysis.DishName = mealName
	}

	return analysis
}

// BuildIngredientQuery constructs the graph lookup for a decomposed
// ingredient list. Names are lowercased; duplicates pass through unchanged.
func BuildIngredientQuery(ingredients []model.Ingredient) *model.QuerySpec {
	names := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		names = append(names, strings.ToLower(ing.Name))
	}

	return &model.QuerySpec{
		Query: IngredientSetQuery,
		Params: map[string]interface{}{
			"ingredients": names,
		},
	}
}
