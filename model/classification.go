package model

import "strings"

// QueryType is one of the four mutually exclusive classification buckets
type QueryType string

const (
	QueryTypeIngredient QueryType = "ingredient"
	QueryTypeMeal       QueryType = "meal"
	QueryTypeFoodGroup  QueryType = "food_group"
	QueryTypeGeneral    QueryType = "general"
)

// Valid reports whether the query type is one of the known buckets
func (q QueryType) Valid() bool {
	switch q {
	case QueryTypeIngredient, QueryTypeMeal, QueryTypeFoodGroup, QueryTypeGeneral:
		return true
	}
	return false
}

// Classification is the routing decision for a single user query.
// MealAnalyses is only populated for meal queries, after decomposition.
// Err records a classification service failure that was recovered via the
// ingredient fallback; it is informational and never fatal.
type Classification struct {
	QueryType          QueryType       `json:"query_type"`
	IdentifiedItems    []string        `json:"identified_items"`
	RequiresBreakdown  bool            `json:"requires_ingredient_breakdown"`
	MealAnalyses       []*MealAnalysis `json:"meal_analyses,omitempty"`
	Err                string          `json:"error,omitempty"`
}

// FallbackClassification is the recovery path for classification failures.
// The raw query is treated as a single ingredient lookup so the pipeline
// always produces a routing decision.
func FallbackClassification(userQuery string, err error) *Classification {
	c := &Classification{
		QueryType:       QueryTypeIngredient,
		IdentifiedItems: []string{strings.ToLower(userQuery)},
	}
	if err != nil {
		c.Err = err.Error()
	}
	return c
}
