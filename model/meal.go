package model

// Ingredient is a single ingredient of a decomposed dish
type Ingredient struct {
	Name               string `json:"name"`
	IsMainIngredient   bool   `json:"is_main_ingredient"`
	TypicalPreparation string `json:"typical_preparation"`
}

// MealAnalysis is the decomposition of one dish into its base ingredients.
// It is immutable after creation. An empty Ingredients slice means no
// decomposition is available; Err carries the recovered service error.
type MealAnalysis struct {
	DishName    string       `json:"dish_name"`
	Ingredients []Ingredient `json:"ingredients"`
	Err         string       `json:"error,omitempty"`
}
