package driving

import "github.com/custodia-labs/wikiqa-cli/internal/core/domain"

// SettingsService manages client settings.
type SettingsService interface {
	// Get retrieves current settings, applying environment overrides.
	Get() (*domain.ClientSettings, error)

	// Save validates and persists settings.
	Save(settings *domain.ClientSettings) error

	// Set updates a single setting by its config key.
	Set(key, value string) error

	// Validate checks the settings for consistency.
	Validate(settings *domain.ClientSettings) error

	// GetDefaults returns default settings.
	GetDefaults() domain.ClientSettings

	// Keys lists the supported config keys.
	Keys() []string

	// List returns the effective value of every key, in Keys order.
	List() ([]domain.Setting, error)
}
