package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDimensions  = "embedding.dimensions"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMRate          = "llm.rate_limit.requests_per_second"
	keyLLMBurst         = "llm.rate_limit.burst"
	keyRetrievalN       = "retrieval.n_results"
	keyRetrievalPolicy  = "retrieval.failure_policy"
	keyRetrievalRelax   = "retrieval.relaxation"
	keyPipelineParallel = "pipeline.parallel"
	keyPipelineTimeout  = "pipeline.section_timeout_seconds"
	keyPipelineRounds   = "pipeline.max_review_rounds"
	keyStoreDir         = "store.dir"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIModel     = "OPENAI_MODEL"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// SetEnv replaces the environment lookup. Used by tests.
func (s *SettingsService) SetEnv(getenv func(string) string) {
	s.getenv = getenv
}

// Get retrieves current application settings, with environment overrides
// applied on top of the config file.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.configStore.GetInt(keyEmbedDimensions),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			RequestsPerSecond: s.getFloat(keyLLMRate),
			Burst:             s.configStore.GetInt(keyLLMBurst),
		},
		Retrieval: domain.RetrievalSettings{
			Collection:    defaults.Retrieval.Collection,
			NResults:      s.getInt(keyRetrievalN, defaults.Retrieval.NResults),
			FailurePolicy: s.getPolicy(defaults.Retrieval.FailurePolicy),
			Relaxation:    s.getRelaxation(defaults.Retrieval.Relaxation),
		},
		Pipeline: domain.PipelineSettings{
			Parallel:        s.getBool(keyPipelineParallel, defaults.Pipeline.Parallel),
			SectionTimeout:  time.Duration(s.configStore.GetInt(keyPipelineTimeout)) * time.Second,
			MaxReviewRounds: s.getInt(keyPipelineRounds, defaults.Pipeline.MaxReviewRounds),
		},
		Store: domain.StoreSettings{
			Dir: s.configStore.GetString(keyStoreDir),
		},
	}

	// The local embedder has a fixed vector size.
	if settings.Embedding.Dimensions == 0 {
		settings.Embedding.Dimensions = domain.EmbeddingDimensions()[settings.Embedding.Model]
	}

	s.applyEnv(settings)
	return settings, nil
}

// applyEnv fills credentials and the OpenAI model from the environment.
// An explicit config value for the key wins over the environment.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if s.getenv == nil {
		return
	}
	openAIKey := s.getenv(EnvOpenAIAPIKey)
	anthropicKey := s.getenv(EnvAnthropicAPIKey)

	if settings.Embedding.APIKey == "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = openAIKey
	}

	switch settings.LLM.Provider {
	case domain.AIProviderOpenAI:
		if settings.LLM.APIKey == "" {
			settings.LLM.APIKey = openAIKey
		}
		if model := s.getenv(EnvOpenAIModel); model != "" && s.configStore.GetString(keyLLMModel) == "" {
			settings.LLM.Model = model
		}
		if settings.LLM.Model == "" {
			settings.LLM.Model = domain.DefaultLLMModels()[domain.AIProviderOpenAI]
		}
	case domain.AIProviderAnthropic:
		if settings.LLM.APIKey == "" {
			settings.LLM.APIKey = anthropicKey
		}
	case "":
		// No provider configured: an OpenAI key in the environment is enough.
		if openAIKey != "" {
			settings.LLM.Provider = domain.AIProviderOpenAI
			settings.LLM.APIKey = openAIKey
			settings.LLM.Model = s.getenv(EnvOpenAIModel)
			if settings.LLM.Model == "" {
				settings.LLM.Model = domain.DefaultLLMModels()[domain.AIProviderOpenAI]
			}
		}
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
		skip  bool
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String(), false},
		{keyEmbedModel, settings.Embedding.Model, false},
		{keyEmbedBaseURL, settings.Embedding.BaseURL, false},
		{keyEmbedAPIKey, settings.Embedding.APIKey, settings.Embedding.APIKey == ""},
		{keyEmbedDimensions, settings.Embedding.Dimensions, false},
		{keyLLMProvider, settings.LLM.Provider.String(), false},
		{keyLLMModel, settings.LLM.Model, false},
		{keyLLMBaseURL, settings.LLM.BaseURL, false},
		{keyLLMAPIKey, settings.LLM.APIKey, settings.LLM.APIKey == ""},
		{keyLLMRate, settings.LLM.RequestsPerSecond, false},
		{keyLLMBurst, settings.LLM.Burst, false},
		{keyRetrievalN, settings.Retrieval.NResults, false},
		{keyRetrievalPolicy, string(settings.Retrieval.FailurePolicy), false},
		{keyRetrievalRelax, fieldNames(settings.Retrieval.Relaxation), false},
		{keyPipelineParallel, settings.Pipeline.Parallel, false},
		{keyPipelineTimeout, int(settings.Pipeline.SectionTimeout / time.Second), false},
		{keyPipelineRounds, settings.Pipeline.MaxReviewRounds, false},
		{keyStoreDir, settings.Store.Dir, false},
	}
	for _, v := range values {
		if v.skip {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Keys lists the settable keys, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindProvider
	kindPolicy
	kindFieldList
)

var settingKinds = map[string]settingKind{
	keyEmbedProvider:    kindProvider,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyEmbedDimensions:  kindInt,
	keyLLMProvider:      kindProvider,
	keyLLMModel:         kindString,
	keyLLMBaseURL:       kindString,
	keyLLMAPIKey:        kindString,
	keyLLMRate:          kindFloat,
	keyLLMBurst:         kindInt,
	keyRetrievalN:       kindInt,
	keyRetrievalPolicy:  kindPolicy,
	keyRetrievalRelax:   kindFieldList,
	keyPipelineParallel: kindBool,
	keyPipelineTimeout:  kindInt,
	keyPipelineRounds:   kindInt,
	keyStoreDir:         kindString,
}

// Set parses value for the key's type and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindString:
		parsed = value
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case kindProvider:
		p := domain.AIProvider(value)
		if !p.IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		if key == keyEmbedProvider && p == domain.AIProviderAnthropic {
			return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, p)
		}
		if key == keyLLMProvider && p == domain.AIProviderLocal {
			return fmt.Errorf("%w: provider %s does not support text generation", domain.ErrInvalidInput, p)
		}
		parsed = value
	case kindPolicy:
		if !domain.RetrievalFailurePolicy(value).IsValid() {
			return fmt.Errorf("%w: failure policy must be fail or degrade", domain.ErrInvalidInput)
		}
		parsed = value
	case kindFieldList:
		fields := parseFieldList(value)
		if err := domain.ValidateRelaxation(fields); err != nil {
			return err
		}
		parsed = fieldNames(fields)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig runs a trial embedding with the current settings.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig runs a trial completion with the current settings.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string) float64 {
	val, ok := s.configStore.Get(key)
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getPolicy(defaultVal domain.RetrievalFailurePolicy) domain.RetrievalFailurePolicy {
	policy := domain.RetrievalFailurePolicy(s.configStore.GetString(keyRetrievalPolicy))
	if !policy.IsValid() {
		return defaultVal
	}
	return policy
}

// getRelaxation reads the relaxation plan. A missing key gives the default;
// an invalid plan falls back to it as well.
func (s *SettingsService) getRelaxation(defaultVal []domain.FilterField) []domain.FilterField {
	if _, exists := s.configStore.Get(keyRetrievalRelax); !exists {
		return append([]domain.FilterField(nil), defaultVal...)
	}
	names := s.configStore.GetStringSlice(keyRetrievalRelax)
	plan := make([]domain.FilterField, 0, len(names))
	for _, name := range names {
		plan = append(plan, domain.FilterField(name))
	}
	if domain.ValidateRelaxation(plan) != nil {
		return append([]domain.FilterField(nil), defaultVal...)
	}
	return plan
}

// parseFieldList splits a comma-separated list, dropping blanks.
func parseFieldList(value string) []domain.FilterField {
	var fields []domain.FilterField
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			fields = append(fields, domain.FilterField(part))
		}
	}
	return fields
}

func fieldNames(fields []domain.FilterField) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}
