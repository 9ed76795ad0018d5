package domain

import "time"

// Default client settings.
const (
	DefaultBaseURL     = "http://localhost:8000"
	DefaultSearchLimit = 10
	DefaultTimeout     = 120 * time.Second
)

// ClientSettings configures how the client talks to the backend.
type ClientSettings struct {
	// BaseURL is the backend root, without the /api prefix.
	BaseURL string `validate:"required,url"`

	// MaxArticles is the default article count for builds.
	MaxArticles int `validate:"min=1,max=10"`

	// SearchLimit is the default result count for searches.
	SearchLimit int `validate:"min=1,max=50"`

	// Timeout bounds each HTTP request. Zero disables the client-side timeout.
	Timeout time.Duration `validate:"gte=0"`

	// RequestsPerSecond throttles outgoing requests. Zero means unlimited.
	RequestsPerSecond float64 `validate:"gte=0"`

	// RefreshInterval re-synchronizes status in long-running modes.
	// Zero disables periodic refresh.
	RefreshInterval time.Duration `validate:"gte=0"`
}

// DefaultClientSettings returns the settings used when nothing is configured.
func DefaultClientSettings() ClientSettings {
	return ClientSettings{
		BaseURL:     DefaultBaseURL,
		MaxArticles: DefaultMaxArticles,
		SearchLimit: DefaultSearchLimit,
		Timeout:     DefaultTimeout,
	}
}

// Setting is a single config key and its effective value, formatted for display.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
