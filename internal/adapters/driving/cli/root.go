// Package cli provides the cobra command tree for wikiqa.
// It is a driving adapter: commands translate arguments into calls on the
// driving ports and render the results to the command's output.
package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/mcp"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/wikiqa-cli/internal/logger"
)

// Services holds everything the commands need. It is produced by the
// bootstrap function once flags have been parsed.
type Services struct {
	Session  driving.SessionService
	Settings driving.SettingsService

	// Config is optional. When set, long-running commands watch it for
	// external edits.
	Config driven.WatchableConfigStore

	// Refresher is optional. The MCP server runs it for its lifetime.
	Refresher mcp.Refresher

	// RefreshInterval drives the TUI's periodic status refresh.
	RefreshInterval time.Duration
}

// Bootstrap builds the services for the given config directory.
// An empty directory selects the default location.
type Bootstrap func(configDir string) (*Services, error)

var (
	version = "dev"

	verbose   bool
	configDir string

	bootstrap Bootstrap

	sessionService  driving.SessionService
	settingsService driving.SettingsService
	configStore     driven.WatchableConfigStore
	statusRefresher mcp.Refresher
	refreshInterval time.Duration
)

// errSessionNotConfigured is returned when a command runs without services.
var errSessionNotConfigured = errors.New("session service not configured")

var rootCmd = &cobra.Command{
	Use:   "wikiqa",
	Short: "Ask questions about any Wikipedia topic",
	Long: `wikiqa builds a knowledge base from Wikipedia articles on a topic and
answers questions about it, citing the articles it used.

It talks to a wikiqa backend over HTTP. Point it at your backend with
'wikiqa settings set backend.base_url <url>' or WIKIQA_BASE_URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd == versionCmd || sessionService != nil || bootstrap == nil {
			return nil
		}
		svcs, err := bootstrap(configDir)
		if err != nil {
			return err
		}
		SetServices(svcs)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.wikiqa)")
}

// SetServices installs the services used by every command.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	sessionService = s.Session
	settingsService = s.Settings
	configStore = s.Config
	statusRefresher = s.Refresher
	refreshInterval = s.RefreshInterval
}

// SetBootstrap sets the function that builds services after flag parsing.
func SetBootstrap(fn Bootstrap) {
	bootstrap = fn
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Cancelling ctx stops long-running commands.
func Execute(ctx context.Context) error {
	defer logger.Sync()
	return rootCmd.ExecuteContext(ctx)
}

func requireSession() error {
	if sessionService == nil {
		return errSessionNotConfigured
	}
	return nil
}
