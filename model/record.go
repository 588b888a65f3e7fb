package model

// Status is the diet status of a food, derived server-side from edge
// presence. A food with both SHOULD_AVOID and IS_RECOMMENDED edges reports
// avoid; the precedence is fixed in the graph queries, never recomputed here.
type Status string

const (
	StatusAvoid       Status = "avoid"
	StatusRecommended Status = "recommended"
	StatusUnknown     Status = "unknown"
)

// RecordKind discriminates the gateway record variants
type RecordKind string

const (
	RecordKindFood      RecordKind = "food"
	RecordKindFoodGroup RecordKind = "food_group"
)

// Record is a tagged gateway result. The context assembler switches on
// Kind() instead of probing for keys in a raw row.
type Record interface {
	Kind() RecordKind
}

// FoodResult is a per-food gateway record
type FoodResult struct {
	Ingredient       string   `json:"ingredient"`
	FoodGroup        string   `json:"food_group,omitempty"`
	FodmapCategories []string `json:"fodmap_categories"`
	Status           Status   `json:"status"`
}

func (r *FoodResult) Kind() RecordKind { return RecordKindFood }

// GroupFood is a name/status pair inside a food group record
type GroupFood struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// FoodGroupResult is a per-group gateway record listing the group's foods
type FoodGroupResult struct {
	Group string      `json:"group"`
	Foods []GroupFood `json:"foods"`
}

func (r *FoodGroupResult) Kind() RecordKind { return RecordKindFoodGroup }

// Row is a raw gateway row as returned by the graph store
type Row map[string]interface{}
