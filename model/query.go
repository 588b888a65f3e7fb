package model

// QuerySpec is a parameterized read query against the knowledge graph,
// ready for execution by the gateway. The query uses named :placeholders
// bound from Params.
type QuerySpec struct {
	Query  string                 `json:"query"`
	Params map[string]interface{} `json:"params"`
}
