package ai

// Embedding providers and the output dimension of their models. The
// dimension is fixed per provider/model pair and must match the vector
// index of the target collection.

const (
	ProviderOpenAI = "openai"
	ProviderVoyage = "voyage"
	ProviderGoogle = "google"

	ProviderGemini = "gemini"
)

var modelDimensions = map[string]int{
	// OpenAI family
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,

	// Voyage family
	"voyage-3":      1024,
	"voyage-3-lite": 512,
	"voyage-2":      1024,

	// Google family
	"text-embedding-004": 768,
	"embedding-001":      768,
}

// ModelDimension returns the output vector length for a known embedding
// model, or 0 when the model is unknown.
func ModelDimension(model string) int {
	return modelDimensions[model]
}
