package model

// EdgeType labels a relationship in the knowledge graph
type EdgeType string

const (
	EdgeBelongsTo      EdgeType = "BELONGS_TO"      // Food -> FoodGroup
	EdgeContainsFodmap EdgeType = "CONTAINS_FODMAP" // Food -> FODMAPCategory
	EdgeShouldAvoid    EdgeType = "SHOULD_AVOID"    // Food -> DietType
	EdgeIsRecommended  EdgeType = "IS_RECOMMENDED"  // Food -> DietType
	EdgePartOf         EdgeType = "PART_OF"         // FoodGroup/FODMAPCategory -> DietType
	EdgeRefersTo       EdgeType = "REFERS_TO"       // AlternativeName -> Food
)
