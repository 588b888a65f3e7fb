package model

// DietData is the structured form of a parsed FODMAP source document,
// as returned by the ingestion parser. It is the input to the graph builder.
type DietData struct {
	DietType           DietType         `json:"diet_type"`
	StandardFoodGroups []StandardGroup  `json:"standard_food_groups"`
	FodmapCategories   []FodmapCategory `json:"fodmap_categories"`
}

// DietType describes the diet the graph is built for
type DietType struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StandardGroup is a conventional food group with its foods
type StandardGroup struct {
	Name  string      `json:"name"`
	Foods []FoodEntry `json:"foods"`
}

// FoodEntry is a single food with its avoid/recommend flags.
// Both flags false means the status is unclear (neutral).
type FoodEntry struct {
	Name             string   `json:"name"`
	ShouldAvoid      bool     `json:"should_avoid"`
	IsRecommended    bool     `json:"is_recommended"`
	FodmapLevel      string   `json:"fodmap_level"` // high, low or moderate
	ServingInfo      string   `json:"serving_info,omitempty"`
	AlternativeNames []string `json:"alternative_names,omitempty"`
}

// FodmapCategory is a FODMAP class (Fructans, Lactose, Polyols, ...)
// with the foods containing it
type FodmapCategory struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Foods       []CategoryFood `json:"foods"`
}

// CategoryFood links a food to a FODMAP category with an optional amount
type CategoryFood struct {
	Name   string `json:"name"`
	Amount string `json:"amount,omitempty"`
}
