package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/wikiqa-cli/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyBaseURL           = "backend.base_url"
	KeyTimeout           = "backend.timeout"
	KeyRequestsPerSecond = "backend.requests_per_second"
	KeyMaxArticles       = "build.max_articles"
	KeySearchLimit       = "search.limit"
	KeyRefreshInterval   = "status.refresh_interval"
)

// Environment variables that override the config file.
const (
	EnvBaseURL     = "WIKIQA_BASE_URL"
	EnvMaxArticles = "WIKIQA_MAX_ARTICLES"
	EnvSearchLimit = "WIKIQA_SEARCH_LIMIT"
	EnvTimeout     = "WIKIQA_TIMEOUT"
)

// SettingsService manages client settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validate    *validator.Validate
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		lookupEnv:   os.LookupEnv,
	}
}

// WithEnv replaces the environment lookup. Used by tests.
func (s *SettingsService) WithEnv(lookup func(string) (string, bool)) *SettingsService {
	s.lookupEnv = lookup
	return s
}

// Get retrieves current settings: defaults, then the config file, then
// environment overrides.
func (s *SettingsService) Get() (*domain.ClientSettings, error) {
	defaults := domain.DefaultClientSettings()

	settings := &domain.ClientSettings{
		BaseURL:           s.getString(KeyBaseURL, defaults.BaseURL),
		MaxArticles:       s.getInt(KeyMaxArticles, defaults.MaxArticles),
		SearchLimit:       s.getInt(KeySearchLimit, defaults.SearchLimit),
		Timeout:           s.getDuration(KeyTimeout, defaults.Timeout),
		RequestsPerSecond: s.configStore.GetFloat(KeyRequestsPerSecond),
		RefreshInterval:   s.getDuration(KeyRefreshInterval, defaults.RefreshInterval),
	}

	if err := s.applyEnv(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save validates and persists settings.
func (s *SettingsService) Save(settings *domain.ClientSettings) error {
	if err := s.Validate(settings); err != nil {
		return err
	}

	if err := s.configStore.Set(KeyBaseURL, strings.TrimRight(settings.BaseURL, "/")); err != nil {
		return fmt.Errorf("save base_url: %w", err)
	}
	if err := s.configStore.Set(KeyTimeout, settings.Timeout.String()); err != nil {
		return fmt.Errorf("save timeout: %w", err)
	}
	if err := s.configStore.Set(KeyRequestsPerSecond, settings.RequestsPerSecond); err != nil {
		return fmt.Errorf("save requests_per_second: %w", err)
	}
	if err := s.configStore.Set(KeyRefreshInterval, settings.RefreshInterval.String()); err != nil {
		return fmt.Errorf("save refresh_interval: %w", err)
	}
	if err := s.configStore.Set(KeyMaxArticles, settings.MaxArticles); err != nil {
		return fmt.Errorf("save max_articles: %w", err)
	}
	if err := s.configStore.Set(KeySearchLimit, settings.SearchLimit); err != nil {
		return fmt.Errorf("save search limit: %w", err)
	}

	return nil
}

// Set updates a single setting by its config key.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	switch key {
	case KeyBaseURL:
		settings.BaseURL = value
	case KeyTimeout, KeyRefreshInterval:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", key, domain.ErrInvalidInput, err)
		}
		if key == KeyTimeout {
			settings.Timeout = d
		} else {
			settings.RefreshInterval = d
		}
	case KeyRequestsPerSecond:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", key, domain.ErrInvalidInput, err)
		}
		settings.RequestsPerSecond = f
	case KeyMaxArticles, KeySearchLimit:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", key, domain.ErrInvalidInput, err)
		}
		if key == KeyMaxArticles {
			settings.MaxArticles = n
		} else {
			settings.SearchLimit = n
		}
	default:
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	return s.Save(settings)
}

// Validate checks the settings against their field constraints.
func (s *SettingsService) Validate(settings *domain.ClientSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: nil settings", domain.ErrInvalidSettings)
	}
	if err := s.validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", domain.ErrInvalidSettings, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidSettings, err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.ClientSettings {
	return domain.DefaultClientSettings()
}

// Keys lists the supported config keys.
func (s *SettingsService) Keys() []string {
	return []string{
		KeyBaseURL, KeyTimeout, KeyRequestsPerSecond,
		KeyMaxArticles, KeySearchLimit, KeyRefreshInterval,
	}
}

// List returns the effective value of every key, in Keys order.
func (s *SettingsService) List() ([]domain.Setting, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	values := map[string]string{
		KeyBaseURL:           settings.BaseURL,
		KeyTimeout:           settings.Timeout.String(),
		KeyRequestsPerSecond: strconv.FormatFloat(settings.RequestsPerSecond, 'f', -1, 64),
		KeyMaxArticles:       strconv.Itoa(settings.MaxArticles),
		KeySearchLimit:       strconv.Itoa(settings.SearchLimit),
		KeyRefreshInterval:   settings.RefreshInterval.String(),
	}

	keys := s.Keys()
	out := make([]domain.Setting, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.Setting{Key: k, Value: values[k]})
	}
	return out, nil
}

// applyEnv overlays environment variables onto settings.
func (s *SettingsService) applyEnv(settings *domain.ClientSettings) error {
	if v, ok := s.lookupEnv(EnvBaseURL); ok && v != "" {
		settings.BaseURL = v
	}
	if v, ok := s.lookupEnv(EnvMaxArticles); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", EnvMaxArticles, domain.ErrInvalidSettings, err)
		}
		settings.MaxArticles = n
	}
	if v, ok := s.lookupEnv(EnvSearchLimit); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", EnvSearchLimit, domain.ErrInvalidSettings, err)
		}
		settings.SearchLimit = n
	}
	if v, ok := s.lookupEnv(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", EnvTimeout, domain.ErrInvalidSettings, err)
		}
		settings.Timeout = d
	}
	return nil
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

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		logger.Warn("ignoring invalid %s %q: %v", key, val, err)
		return defaultVal
	}
	return d
}
