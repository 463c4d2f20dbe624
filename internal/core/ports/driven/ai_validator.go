package driven

import "github.com/custodia-labs/sred-drafter/internal/core/domain"

// AIConfigValidator checks provider settings before they are relied on.
type AIConfigValidator interface {
	// ValidateEmbedding runs a trial embedding and checks its width.
	// Unconfigured settings are valid.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM runs a trial completion. Unconfigured settings are valid.
	ValidateLLM(config *domain.LLMSettings) error
}
