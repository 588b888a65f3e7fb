package route

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/fodmapper/core/meal"
	"github.com/siherrmann/fodmapper/model"
)

// groupTextLimit caps the number of foods listed per group in context text.
// Remaining foods stay in the structured bundle.
const groupTextLimit = 5

// Gateway executes a parameterized read query against the knowledge graph.
// Backend errors never surface here: the gateway logs them and returns an
// empty row set so the pipeline continues without data for that subject.
type Gateway interface {
	Query(ctx context.Context, query string, params map[string]interface{}) []model.Row
}

// SemanticSearcher finds food names similar to an unmatched ingredient
type SemanticSearcher interface {
	SimilarFoods(ctx context.Context, name string, topK int) ([]string, error)
}

// Assembler executes query specs and merges the results into a ContextBundle
type Assembler struct {
	gateway  Gateway
	searcher SemanticSearcher // Optional, only used with SemanticFallback
	config   model.ChatConfig
	log      *slog.Logger
}

// NewAssembler creates a context assembler over the given gateway
func NewAssembler(gateway Gateway, config model.ChatConfig, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		gateway: gateway,
		config:  config,
		log:     logger,
	}
}

// SetSemanticSearcher enables the embedding-based retry for empty
// ingredient lookups. Only consulted when ChatConfig.SemanticFallback is set.
func (a *Assembler) SetSemanticSearcher(searcher SemanticSearcher) {
	a.searcher = searcher
}

// AssembleContext runs every spec through the gateway and builds the
// textual context plus the structured per-subject results. Specs are
// executed strictly in order; that order determines text ordering.
// Returns an empty Text when nothing was retrieved; the caller substitutes
// the no-information sentinel.
func (a *Assembler) AssembleContext(ctx context.Context, specs []*model.QuerySpec, classification *model.Classification) *model.ContextBundle {
	bundle := &model.ContextBundle{
		ResultsBySubject: make(map[string]*model.SubjectResults),
	}

	var parts []string

	if classification.QueryType == model.QueryTypeMeal {
		parts = a.assembleMealContext(ctx, specs, classification, bundle)
	} else {
		parts = a.assembleLookupContext(ctx, specs, classification, bundle)
	}

	bundle.Text = strings.Join(parts, "\n")
	return bundle
}

// assembleMealContext walks the meal analyses in order. Analyses with a
// non-empty decomposition consume the next spec's results; analyses without
// one still get their header and an empty entry in the bundle.
func (a *Assembler) assembleMealContext(ctx context.Context, specs []*model.QuerySpec, classification *model.Classification, bundle *model.ContextBundle) []string {
	var parts []string
	specIndex := 0

	for _, analysis := range classification.MealAnalyses {
		parts = append(parts, fmt.Sprintf("\nAnalysis for %s:", analysis.DishName))

		var records []model.Record
		if len(analysis.Ingredients) > 0 && specIndex < len(specs) {
			rows := a.gateway.Query(ctx, specs[specIndex].Query, specs[specIndex].Params)
			specIndex++
			records = foodRecords(rows)
		}

		var concerns []string
		for _, record := range records {
			food, ok := record.(*model.FoodResult)
			if !ok {
				continue
			}
			switch food.Status {
			case model.StatusAvoid:
				concerns = append(concerns, fmt.Sprintf("- %s should be avoided (contains %s)",
					food.Ingredient, strings.Join(food.FodmapCategories, ", ")))
			case model.StatusRecommended:
				parts = append(parts, fmt.Sprintf("- %s is safe to eat", food.Ingredient))
			}
			// unknown status stays in the bundle but is omitted from the text
		}

		if len(concerns) > 0 {
			parts = append(parts, "FODMAP concerns:")
			parts = append(parts, concerns...)
		}

		bundle.ResultsBySubject["meal_"+analysis.DishName] = &model.SubjectResults{
			Records:   records,
			QueryType: "meal_analysis",
		}
	}

	return parts
}

// assembleLookupContext handles the ingredient and food-group paths.
// General queries arrive with zero specs and fall through untouched.
func (a *Assembler) assembleLookupContext(ctx context.Context, specs []*model.QuerySpec, classification *model.Classification, bundle *model.ContextBundle) []string {
	var parts []string

	for _, spec := range specs {
		rows := a.gateway.Query(ctx, spec.Query, spec.Params)

		if len(rows) == 0 && classification.QueryType == model.QueryTypeIngredient {
			rows = a.semanticRetry(ctx, classification)
		}

		var records []model.Record
		if classification.QueryType == model.QueryTypeFoodGroup {
			records = groupRecords(rows)
		} else {
			records = foodRecords(rows)
		}

		for _, record := range records {
			switch r := record.(type) {
			case *model.FoodResult:
				line := fmt.Sprintf("%s (%s)", r.Ingredient, r.Status)
				if len(r.FodmapCategories) > 0 {
					line += " contains " + strings.Join(r.FodmapCategories, ", ")
				}
				parts = append(parts, line)

			case *model.FoodGroupResult:
				foods := make([]string, 0, len(r.Foods))
				for _, food := range r.Foods {
					foods = append(foods, fmt.Sprintf("%s (%s)", food.Name, food.Status))
				}
				if len(foods) > groupTextLimit {
					foods = foods[:groupTextLimit]
				}
				parts = append(parts, fmt.Sprintf("%s: %s", r.Group, strings.Join(foods, ", ")))
			}
		}

		if len(records) > 0 {
			key := string(classification.QueryType)
			bundle.ResultsBySubject[key] = &model.SubjectResults{
				Records:   records,
				QueryType: key,
			}
		}
	}

	return parts
}

// semanticRetry re-runs an empty ingredient lookup against the nearest
// food names by embedding similarity. Opt-in via ChatConfig.SemanticFallback.
func (a *Assembler) semanticRetry(ctx context.Context, classification *model.Classification) []model.Row {
	if !a.config.SemanticFallback || a.searcher == nil || len(classification.IdentifiedItems) == 0 {
		return nil
	}

	item := classification.IdentifiedItems[0]
	names, err := a.searcher.SimilarFoods(ctx, item, a.config.SemanticTopK)
	if err != nil {
		a.log.Warn("Semantic food search failed", slog.String("item", item), slog.String("error", err.Error()))
		return nil
	}
	if len(names) == 0 {
		return nil
	}

	a.log.Info("Retrying empty ingredient lookup with similar foods",
		slog.String("item", item),
		slog.Int("num_similar", len(names)),
	)

	lowered := make([]string, 0, len(names))
	for _, name := range names {
		lowered = append(lowered, strings.ToLower(name))
	}

	return a.gateway.Query(ctx, meal.IngredientSetQuery, map[string]interface{}{
		"ingredients": lowered,
	})
}

// foodRecords converts raw gateway rows into tagged food results
func foodRecords(rows []model.Row) []model.Record {
	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, &model.FoodResult{
			Ingredient:       stringValue(row["ingredient"]),
			FoodGroup:        stringValue(row["food_group"]),
			FodmapCategories: stringSlice(row["fodmap_categories"]),
			Status:           model.Status(stringValue(row["status"])),
		})
	}
	return records
}

// groupRecords converts raw gateway rows into tagged food-group results
func groupRecords(rows []model.Row) []model.Record {
	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		group := &model.FoodGroupResult{
			Group: stringValue(row["group_name"]),
		}
		if foods, ok := row["foods"].([]interface{}); ok {
			for _, entry := range foods {
				food, ok := entry.(map[string]interface{})
				if !ok {
					continue
				}
				group.Foods = append(group.Foods, model.GroupFood{
					Name:   stringValue(food["name"]),
					Status: model.Status(stringValue(food["status"])),
				})
			}
		}
		records = append(records, group)
	}
	return records
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func stringSlice(v interface{}) []string {
	entries, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if s, ok := entry.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
