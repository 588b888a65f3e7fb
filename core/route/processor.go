// Package route turns a classified user query into graph lookups and
// assembles the retrieved records into the context for response generation.
package route

import (
	"context"
	"log/slog"
	"strings"

	"github.com/siherrmann/fodmapper/core/classify"
	"github.com/siherrmann/fodmapper/core/meal"
	"github.com/siherrmann/fodmapper/model"
)

// IngredientLookupQuery matches foods whose lowercased name contains the
// bound substring. Same shape as the ingredient-set query of the meal path.
const IngredientLookupQuery = `
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
WHERE lower(f.name) LIKE '%' || :ingredient || '%'
GROUP BY f.id, f.name, fg.name`

// FoodGroupQuery matches food groups by name substring and aggregates the
// member foods with their derived status as a JSON array.
const FoodGroupQuery = `
SELECT fg.name AS group_name,
       COALESCE(json_agg(json_build_object(
           'name', f.name,
           'status', CASE
               WHEN EXISTS (SELECT 1 FROM graph_edges a WHERE a.from_id = f.id AND a.edge_type = 'SHOULD_AVOID') THEN 'avoid'
               WHEN EXISTS (SELECT 1 FROM graph_edges r WHERE r.from_id = f.id AND r.edge_type = 'IS_RECOMMENDED') THEN 'recommended'
               ELSE 'unknown'
           END
       )) FILTER (WHERE f.name IS NOT NULL), '[]'::json) AS foods
FROM food_groups fg
LEFT JOIN graph_edges bt ON bt.to_id = fg.id AND bt.edge_type = 'BELONGS_TO'
LEFT JOIN foods f ON f.id = bt.from_id
WHERE lower(fg.name) LIKE '%' || :group_name || '%'
GROUP BY fg.id, fg.name`

// Processor routes a user query: classify, decompose meals, build specs
type Processor struct {
	classifier *classify.Classifier
	analyzer   *meal.Analyzer
	log        *slog.Logger
}

// NewProcessor creates a query processor
func NewProcessor(classifier *classify.Classifier, analyzer *meal.Analyzer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		classifier: classifier,
		analyzer:   analyzer,
		log:        logger,
	}
}

// ProcessQuery classifies the user query and builds the graph lookups for it.
//
// Meal queries produce one spec per dish whose decomposition yielded
// ingredients; every analysis (including empty ones) is accumulated on the
// classification for downstream reporting. Ingredient queries build exactly
// one substring lookup for the first identified item; later items are
// silently ignored. Food-group queries build one lookup against the first
// group name. General queries build no specs, the model answers without
// graph context.
func (p *Processor) ProcessQuery(ctx context.Context, userQuery string) ([]*model.QuerySpec, *model.Classification) {
	classification := p.classifier.Classify(ctx, userQuery)
	var specs []*model.QuerySpec

	switch classification.QueryType {
	case model.QueryTypeMeal:
		for _, dish := range classification.IdentifiedItems {
			analysis := p.analyzer.AnalyzeMeal(ctx, dish)
			classification.MealAnalyses = append(classification.MealAnalyses, analysis)

			if len(analysis.Ingredients) > 0 {
				specs = append(specs, meal.BuildIngredientQuery(analysis.Ingredients))
			}
		}

	case model.QueryTypeIngredient:
		specs = append(specs, &model.QuerySpec{
			Query: IngredientLookupQuery,
			Params: map[string]interface{}{
				"ingredient": strings.ToLower(classification.IdentifiedItems[0]),
			},
		})

	case model.QueryTypeFoodGroup:
		specs = append(specs, &model.QuerySpec{
			Query: FoodGroupQuery,
			Params: map[string]interface{}{
				"group_name": strings.ToLower(classification.IdentifiedItems[0]),
			},
		})

	case model.QueryTypeGeneral:
		// No graph lookup, the model answers from its own knowledge
	}

	p.log.Info("Processed query",
		slog.String("query_type", string(classification.QueryType)),
		slog.Int("num_specs", len(specs)),
	)

	return specs, classification
}
