package model

// SubjectResults holds the records retrieved for one query subject together
// with the query type tag used for presentation.
type SubjectResults struct {
	Records   []Record `json:"records"`
	QueryType string   `json:"query_type"`
}

// ContextBundle is the assembled evidence for one user turn: the
// LLM-readable context text plus the structured results keyed by subject.
// Built fresh per turn, never persisted.
type ContextBundle struct {
	Text             string                     `json:"text"`
	ResultsBySubject map[string]*SubjectResults `json:"results_by_subject"`
}

// NoContextSentinel is substituted by the caller when no information was
// retrieved from the knowledge graph.
const NoContextSentinel = "No specific information found in the FODMAP database."
