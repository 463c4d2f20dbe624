package driving

import "github.com/custodia-labs/sred-drafter/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single setting by its dotted key, e.g. "llm.provider".
	Set(key, value string) error

	// Keys lists the settable keys.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig runs a trial embedding with the current settings.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig runs a trial completion with the current settings.
	ValidateLLMConfig() error
}
