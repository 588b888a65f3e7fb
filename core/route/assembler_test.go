package route

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/fodmapper/model"
)

// fakeGateway returns canned rows keyed by a bound parameter value and
// records every executed query for assertions.
type fakeGateway struct {
	rows    map[string][]model.Row
	queries []string
}

func (g *fakeGateway) Query(ctx context.Context, query string, params map[string]interface{}) []model.Row {
	g.queries = append(g.queries, query)
	for _, v := range params {
		switch key := v.(type) {
		case string:
			if rows, ok := g.rows[key]; ok {
				return rows
			}
		case []string:
			if rows, ok := g.rows[strings.Join(key, ",")]; ok {
				return rows
			}
		}
	}
	return []model.Row{}
}

type fakeSearcher struct {
	names  []string
	err    error
	called bool
}

func (s *fakeSearcher) SimilarFoods(ctx context.Context, name string, topK int) ([]string, error) {
	s.called = true
	return s.names, s.err
}

func foodRow(name, group, status string, categories ...string) model.Row {
	fodmaps := make([]interface{}, 0, len(categories))
	for _, category := range categories {
		fodmaps = append(fodmaps, category)
	}
	return model.Row{
		"ingredient":        name,
		"food_group":        group,
		"fodmap_categories": fodmaps,
		"status":            status,
	}
}

func TestAssembleMealContext(t *testing.T) {
	ctx := context.Background()
	config := model.DefaultChatConfig()

	t.Run("Safe foods listed before FODMAP concerns", func(t *testing.T) {
		gateway := &fakeGateway{rows: map[string][]model.Row{
			"patlıcan,kıyma,soğan,domates": {
				foodRow("soğan", "Sebzeler", "avoid", "Früktan"),
				foodRow("patlıcan", "Sebzeler", "recommended"),
				foodRow("domates", "Sebzeler", "unknown"),
			},
		}}
		assembler := NewAssembler(gateway, config, nil)

		classification := &model.Classification{
			QueryType:       model.QueryTypeMeal,
			IdentifiedItems: []string{"Karnıyarık"},
			MealAnalyses: []*model.MealAnalysis{{
				DishName: "Karnıyarık",
				Ingredients: []model.Ingredient{
					{Name: "patlıcan"}, {Name: "kıyma"}, {Name: "soğan"}, {Name: "domates"},
				},
			}},
		}
		specs := []*model.QuerySpec{{
			Query:  "ingredient set",
			Params: map[string]interface{}{"ingredients": []string{"patlıcan", "kıyma", "soğan", "domates"}},
		}}

		bundle := assembler.AssembleContext(ctx, specs, classification)

		assert.Contains(t, bundle.Text, "Analysis for Karnıyarık:")
		assert.Contains(t, bundle.Text, "- patlıcan is safe to eat")
		assert.Contains(t, bundle.Text, "FODMAP concerns:")
		assert.Contains(t, bundle.Text, "- soğan should be avoided (contains Früktan)")

		safeIndex := strings.Index(bundle.Text, "patlıcan is safe to eat")
		concernsIndex := strings.Index(bundle.Text, "FODMAP concerns:")
		require.NotEqual(t, -1, safeIndex)
		require.NotEqual(t, -1, concernsIndex)
		assert.Less(t, safeIndex, concernsIndex, "safe foods come before the concerns block")

		assert.NotContains(t, bundle.Text, "domates", "unknown status is omitted from the text")

		results, ok := bundle.ResultsBySubject["meal_Karnıyarık"]
		require.True(t, ok)
		assert.Equal(t, "meal_analysis", results.QueryType)
		assert.Len(t, results.Records, 3, "unknown status stays in the bundle")
	})

	t.Run("Dish without decomposition keeps its header and empty results", func(t *testing.T) {
		gateway := &fakeGateway{rows: map[string][]model.Row{
			"bulgur": {foodRow("bulgur", "Tahıllar", "avoid", "Früktan")},
		}}
		assembler := NewAssembler(gateway, config, nil)

		classification := &model.Classification{
			QueryType:       model.QueryTypeMeal,
			IdentifiedItems: []string{"Gizemli yemek", "Kısır"},
			MealAnalyses: []*model.MealAnalysis{
				{DishName: "Gizemli yemek", Err: "decomposition failed"},
				{DishName: "Kısır", Ingredients: []model.Ingredient{{Name: "bulgur"}}},
			},
		}
		// only the decomposable dish produced a spec
		specs := []*model.QuerySpec{{
			Query:  "ingredient set",
			Params: map[string]interface{}{"ingredients": []string{"bulgur"}},
		}}

		bundle := assembler.AssembleContext(ctx, specs, classification)

		assert.Contains(t, bundle.Text, "Analysis for Gizemli yemek:")
		assert.Contains(t, bundle.Text, "Analysis for Kısır:")
		assert.Contains(t, bundle.Text, "- bulgur should be avoided (contains Früktan)")
		assert.Len(t, gateway.queries, 1, "failed dish must not consume a lookup")

		empty, ok := bundle.ResultsBySubject["meal_Gizemli yemek"]
		require.True(t, ok)
		assert.Empty(t, empty.Records)
	})

	t.Run("Assembly is repeatable", func(t *testing.T) {
		gateway := &fakeGateway{rows: map[string][]model.Row{
			"patlıcan": {
				foodRow("soğan", "Sebzeler", "avoid", "Früktan"),
				foodRow("patlıcan", "Sebzeler", "recommended"),
			},
		}}
		assembler := NewAssembler(gateway, config, nil)

		classification := &model.Classification{
			QueryType: model.QueryTypeMeal,
			MealAnalyses: []*model.MealAnalysis{{
				DishName:    "Karnıyarık",
				Ingredients: []model.Ingredient{{Name: "patlıcan"}},
			}},
		}
		specs := []*model.QuerySpec{{
			Query:  "ingredient set",
			Params: map[string]interface{}{"ingredients": []string{"patlıcan"}},
		}}

		first := assembler.AssembleContext(ctx, specs, classification)
		second := assembler.AssembleContext(ctx, specs, classification)

		assert.Equal(t, first.Text, second.Text)
	})
}

func TestAssembleLookupContext(t *testing.T) {
	ctx := context.Background()
	config := model.DefaultChatConfig()

	t.Run("Ingredient lookup builds food lines and bundle entry", func(t *testing.T) {
		gateway := &fakeGateway{rows: map[string][]model.Row{
			"soğan": {foodRow("Soğan", "Sebzeler", "avoid", "Früktan", "GOS")},
		}}
		assembler := NewAssembler(gateway, config, nil)

		classification := &model.Classification{
			QueryType:       model.QueryTypeIngredient,
			IdentifiedItems: []string{"soğan"},
		}
		specs := []*model.QuerySpec{{
			Query:  IngredientLookupQuery,
			Params: map[string]interface{}{"ingredient": "soğan"},
		}}

		bundle := assembler.AssembleContext(ctx, specs, classification)

		assert.Equal(t, "Soğan (avoid) contains Früktan, GOS", bundle.Text)

		results, ok := bundle.ResultsBySubject["ingredient"]
		require.True(t, ok)
		require.Len(t, results.Records, 1)
		food, ok := results.Records[0].(*model.FoodResult)
		require.True(t, ok)
		assert.Equal(t, model.StatusAvoid, food.Status)
		assert.Equal(t, []string{"Früktan", "GOS"}, food.FodmapCategories)
	})

	t.Run("Empty lookup leaves text and bundle empty", func(t *testing.T) {
		gateway := &fakeGateway{}
		assembler := NewAssembler(gateway, config, nil)

		classification := &model.Classification{
			QueryType:       model.QueryTypeIngredient,
			IdentifiedItems: []string{"yıldız tozu"},
		}
		specs := []*model.QuerySpec{{
			Query:  IngredientLookupQuery,
			Params: map[string]interface{}{"ingredient": "yıldız tozu"},
		}}

		bundle := assembler.AssembleContext(ctx, specs, classification)

		assert.Empty(t, bundle.Text)
		assert.Empty(t, bundle.ResultsBySubject)
	})

	t.Run("Group text truncates after five foods", func(t *testing.T) {
		foods := make([]interface{}, 0, 7)
		for i := 1; i <= 7; i++ {
			foods = append(foods, map[string]interface{}{
				"name":   fmt.Sprintf("sebze %d", i),
				"status": "recommended",
			})
		}
		gateway := &fakeGateway{rows: map[string][]model.Row{
			"sebzeler": {{"group_name": "Sebzeler", "foods": foods}},
		}}
		assembler := NewAssembler(gateway, config, nil)

		classification := &model.Classification{
			QueryType:       model.QueryTypeFoodGroup,
			IdentifiedItems: []string{"sebzeler"},
		}
		specs := []*model.QuerySpec{{
			Query:  FoodGroupQuery,
			Params: map[string]interface{}{"group_name": "sebzeler"},
		}}

		bundle := assembler.AssembleContext(ctx, specs, classification)

		assert.Contains(t, bundle.Text, "sebze 5 (recommended)")
		assert.NotContains(t, bundle.Text, "sebze 6")

		results, ok := bundle.ResultsBySubject["food_group"]
		require.True(t, ok)
		group, ok := results.Records[0].(*model.FoodGroupResult)
		require.True(t, ok)
		assert.Len(t, group.Foods, 7, "truncation only applies to the text")
	})
}

func TestSemanticRetry(t *testing.T) {
	ctx := context.Background()

	classification := &model.Classification{
		QueryType:       model.QueryTypeIngredient,
		IdentifiedItems: []string{"kuru sogan"},
	}
	specs := []*model.QuerySpec{{
		Query:  IngredientLookupQuery,
		Params: map[string]interface{}{"ingredient": "kuru sogan"},
	}}

	t.Run("Disabled by default", func(t *testing.T) {
		gateway := &fakeGateway{}
		searcher := &fakeSearcher{names: []string{"Soğan"}}
		assembler := NewAssembler(gateway, model.DefaultChatConfig(), nil)
		assembler.SetSemanticSearcher(searcher)

		bundle := assembler.AssembleContext(ctx, specs, classification)

		assert.False(t, searcher.called)
		assert.Empty(t, bundle.Text)
	})

	t.Run("Retries empty lookup with lowercased similar names", func(t *testing.T) {
		config := model.DefaultChatConfig()
		config.SemanticFallback = true

		gateway := &fakeGateway{rows: map[string][]model.Row{
			"soğan": {foodRow("Soğan", "Sebzeler", "avoid", "Früktan")},
		}}
		searcher := &fakeSearcher{names: []string{"Soğan"}}
		assembler := NewAssembler(gateway, config, nil)
		assembler.SetSemanticSearcher(searcher)

		bundle := assembler.AssembleContext(ctx, specs, classification)

		assert.True(t, searcher.called)
		assert.Contains(t, bundle.Text, "Soğan (avoid)")
		require.Len(t, gateway.queries, 2, "retry runs a second query")
	})

	t.Run("No searcher configured leaves results empty", func(t *testing.T) {
		config := model.DefaultChatConfig()
		config.SemanticFallback = true

		gateway := &fakeGateway{}
		assembler := NewAssembler(gateway, config, nil)

		bundle := assembler.AssembleContext(ctx, specs, classification)

		assert.Empty(t, bundle.Text)
	})
}
