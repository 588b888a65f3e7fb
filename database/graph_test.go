package database

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siherrmann/fodmapper/core/meal"
	"github.com/siherrmann/fodmapper/core/route"
	"github.com/siherrmann/fodmapper/model"
)

// seedGraph builds a small FODMAP graph: two vegetables with opposite
// status and one FODMAP category.
func seedGraph(t *testing.T, handler *GraphDBHandler) (dietID uuid.UUID) {
	dietID, err := handler.InsertDietType("FODMAP", "Low-FODMAP elimination diet")
	require.NoError(t, err)

	groupID, err := handler.InsertFoodGroup("Sebzeler")
	require.NoError(t, err)
	require.NoError(t, handler.InsertEdge(groupID, dietID, model.EdgePartOf, nil))

	categoryID, err := handler.InsertFodmapCategory("Früktan", "Fructans")
	require.NoError(t, err)
	require.NoError(t, handler.InsertEdge(categoryID, dietID, model.EdgePartOf, nil))

	onionID, err := handler.InsertFood("Soğan", "high", "")
	require.NoError(t, err)
	require.NoError(t, handler.InsertEdge(onionID, groupID, model.EdgeBelongsTo, nil))
	require.NoError(t, handler.InsertEdge(onionID, dietID, model.EdgeShouldAvoid, nil))
	require.NoError(t, handler.InsertEdge(onionID, categoryID, model.EdgeContainsFodmap, model.Metadata{"amount": "high"}))

	eggplantID, err := handler.InsertFood("Patlıcan", "low", "1 cup")
	require.NoError(t, err)
	require.NoError(t, handler.InsertEdge(eggplantID, groupID, model.EdgeBelongsTo, nil))
	require.NoError(t, handler.InsertEdge(eggplantID, dietID, model.EdgeIsRecommended, nil))

	return dietID
}

func TestGraphDBHandlerInserts(t *testing.T) {
	handler := initGraphHandler(t)
	ctx := context.Background()

	t.Run("Food insert merges on lowercased name", func(t *testing.T) {
		first, err := handler.InsertFood("Soğan", "high", "")
		require.NoError(t, err)

		second, err := handler.InsertFood("soğan", "high", "")
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("Edge insert is idempotent", func(t *testing.T) {
		dietID, err := handler.InsertDietType("FODMAP", "Low-FODMAP elimination diet")
		require.NoError(t, err)
		foodID, err := handler.InsertFood("Sarımsak", "high", "")
		require.NoError(t, err)

		require.NoError(t, handler.InsertEdge(foodID, dietID, model.EdgeShouldAvoid, nil))
		require.NoError(t, handler.InsertEdge(foodID, dietID, model.EdgeShouldAvoid, nil))

		stats, err := handler.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.FoodsToAvoid)
	})

	t.Run("Stats counts relationships", func(t *testing.T) {
		require.NoError(t, handler.ClearGraph(ctx))
		seedGraph(t, handler)

		stats, err := handler.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalFoods)
		assert.Equal(t, 1, stats.FoodsToAvoid)
		assert.Equal(t, 1, stats.RecommendedFoods)
		assert.Equal(t, 2, stats.CategorizedFoods)
	})

	t.Run("Clear graph removes everything", func(t *testing.T) {
		seedGraph(t, handler)
		require.NoError(t, handler.ClearGraph(ctx))

		stats, err := handler.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.TotalFoods)
	})
}

func TestGraphDBHandlerQuery(t *testing.T) {
	handler := initGraphHandler(t)
	ctx := context.Background()
	seedGraph(t, handler)

	t.Run("Ingredient lookup derives avoid status and categories", func(t *testing.T) {
		rows := handler.Query(ctx, route.IngredientLookupQuery, map[string]interface{}{
			"ingredient": "soğan",
		})

		require.Len(t, rows, 1)
		assert.Equal(t, "Soğan", rows[0]["ingredient"])
		assert.Equal(t, "Sebzeler", rows[0]["food_group"])
		assert.Equal(t, "avoid", rows[0]["status"])
		assert.Equal(t, []interface{}{"Früktan"}, rows[0]["fodmap_categories"])
	})

	t.Run("Ingredient lookup derives recommended status", func(t *testing.T) {
		rows := handler.Query(ctx, route.IngredientLookupQuery, map[string]interface{}{
			"ingredient": "patlıcan",
		})

		require.Len(t, rows, 1)
		assert.Equal(t, "recommended", rows[0]["status"])
		assert.Equal(t, []interface{}{}, rows[0]["fodmap_categories"])
	})

	t.Run("Ingredient set query matches multiple foods", func(t *testing.T) {
		rows := handler.Query(ctx, meal.IngredientSetQuery, map[string]interface{}{
			"ingredients": []string{"soğan", "patlıcan", "kıyma"},
		})

		assert.Len(t, rows, 2, "unseeded ingredient yields no row")
	})

	t.Run("Food group query aggregates member foods", func(t *testing.T) {
		rows := handler.Query(ctx, route.FoodGroupQuery, map[string]interface{}{
			"group_name": "sebze",
		})

		require.Len(t, rows, 1)
		assert.Equal(t, "Sebzeler", rows[0]["group_name"])
		foods, ok := rows[0]["foods"].([]interface{})
		require.True(t, ok)
		assert.Len(t, foods, 2)
	})

	t.Run("Unknown ingredient returns empty rows", func(t *testing.T) {
		rows := handler.Query(ctx, route.IngredientLookupQuery, map[string]interface{}{
			"ingredient": "yıldız tozu",
		})

		assert.Empty(t, rows)
	})

	t.Run("Invalid query returns empty rows, not an error", func(t *testing.T) {
		rows := handler.Query(ctx, `SELECT * FROM no_such_table`, nil)

		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("Missing parameter returns empty rows", func(t *testing.T) {
		rows := handler.Query(ctx, route.IngredientLookupQuery, map[string]interface{}{})

		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})
}

func TestSimilarFoods(t *testing.T) {
	handler := initGraphHandler(t)
	ctx := context.Background()

	t.Run("Without embedder returns an error", func(t *testing.T) {
		_, err := handler.SimilarFoods(ctx, "soğan", 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no embedder set")
	})

	t.Run("Returns nearest foods by embedding distance", func(t *testing.T) {
		embeddings := map[string][]float32{
			"Soğan":    unitVector(0),
			"Sarımsak": unitVector(10),
			"Patlıcan": unitVector(200),
		}
		handler.SetEmbedder(func(text string) ([]float32, error) {
			if embedding, ok := embeddings[text]; ok {
				return embedding, nil
			}
			return unitVector(5), nil
		})

		for name := range embeddings {
			id, err := handler.InsertFood(name, "", "")
			require.NoError(t, err)
			require.NoError(t, handler.UpdateFoodEmbedding(id, embeddings[name]))
		}

		names, err := handler.SimilarFoods(ctx, "kuru sogan", 2)
		require.NoError(t, err)
		require.Len(t, names, 2)
		assert.Equal(t, "Soğan", names[0], "nearest food comes first")
	})
}

// unitVector returns a 384d unit vector rotated in the plane of the first
// two dimensions, so angular distance grows with the offset.
func unitVector(degrees float64) []float32 {
	v := make([]float32, 384)
	radians := degrees * math.Pi / 180
	v[0] = float32(math.Cos(radians))
	v[1] = float32(math.Sin(radians))
	return v
}
