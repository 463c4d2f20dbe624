package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or text generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderLocal is the built-in feature-hashing embedder. It needs no
	// network and is deterministic, but has no semantic understanding.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderLocal:
		return "Local hashing embedder (offline)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible gateways).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's default vector size.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds text generation provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible gateways).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// RequestsPerSecond throttles generation calls. Zero disables throttling.
	RequestsPerSecond float64

	// Burst is the token bucket size used with RequestsPerSecond.
	Burst int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalFailurePolicy decides what a section does when exemplar retrieval fails.
type RetrievalFailurePolicy string

// Retrieval failure policies.
const (
	// RetrievalFail aborts the section, and therefore the report.
	RetrievalFail RetrievalFailurePolicy = "fail"

	// RetrievalDegrade drafts the section with zero exemplars.
	RetrievalDegrade RetrievalFailurePolicy = "degrade"
)

// IsValid returns true if the policy is recognised.
func (p RetrievalFailurePolicy) IsValid() bool {
	return p == RetrievalFail || p == RetrievalDegrade
}

// RetrievalSettings configures exemplar retrieval.
type RetrievalSettings struct {
	// Collection is the exemplar collection name.
	Collection string

	// NResults is the number of exemplars shown to the generator per section.
	NResults int

	// FailurePolicy decides what happens when a query fails.
	FailurePolicy RetrievalFailurePolicy

	// Relaxation lists the filter fields dropped, in order, when the strict
	// query returns too few exemplars. Empty disables relaxation.
	Relaxation []FilterField
}

// PipelineSettings configures report orchestration.
type PipelineSettings struct {
	// Parallel runs the three section pipelines concurrently.
	Parallel bool

	// SectionTimeout bounds each section pipeline. Zero means no timeout.
	SectionTimeout time.Duration

	// MaxReviewRounds is the number of review passes per section. One
	// reproduces the single review then single refine behaviour.
	MaxReviewRounds int
}

// StoreSettings locates the exemplar database.
type StoreSettings struct {
	// Dir is the data directory holding the exemplar database.
	// Empty means the default under the user's home directory.
	Dir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Pipeline  PipelineSettings
	Store     StoreSettings
}

// Default collection and retrieval values.
const (
	DefaultCollection      = "sred_reports"
	DefaultNResults        = 3
	DefaultMaxReviewRounds = 1
)

// DefaultAppSettings returns settings with sensible defaults.
// The LLM is left unconfigured; embeddings default to the offline local embedder
// so ingestion and retrieval work without credentials.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderLocal,
			Model:      DefaultEmbeddingModels()[AIProviderLocal],
			Dimensions: EmbeddingDimensions()[DefaultEmbeddingModels()[AIProviderLocal]],
		},
		LLM: LLMSettings{},
		Retrieval: RetrievalSettings{
			Collection:    DefaultCollection,
			NResults:      DefaultNResults,
			FailurePolicy: RetrievalFail,
			Relaxation:    append([]FilterField(nil), DefaultRelaxation...),
		},
		Pipeline: PipelineSettings{
			Parallel:        false,
			MaxReviewRounds: DefaultMaxReviewRounds,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderLocal,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support text generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLocal:  "hash-384",
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Local
		"hash-384": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
