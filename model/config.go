package model

// ChatConfig holds the sampling and routing configuration for the chatbot
type ChatConfig struct {
	// LLM parameters
	Model        string  `json:"model"`
	Temperature  float32 `json:"temperature"`   // Response composition
	AnalysisTemp float32 `json:"analysis_temp"` // Classification and decomposition
	MaxTokens    int     `json:"max_tokens"`

	// Semantic fallback parameters
	SemanticFallback bool `json:"semantic_fallback"` // Retry empty ingredient lookups via embedding similarity
	SemanticTopK     int  `json:"semantic_top_k"`
}

// DefaultChatConfig returns the configuration matching the production prompts
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		Model:            "gpt-4",
		Temperature:      0.7,
		AnalysisTemp:     0.1,
		MaxTokens:        500,
		SemanticFallback: false,
		SemanticTopK:     3,
	}
}
