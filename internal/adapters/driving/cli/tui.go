package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/wikiqa-cli/internal/logger"
)

// articleDefaulter is implemented by sessions whose default build size can
// change at runtime.
type articleDefaulter interface {
	SetMaxArticles(n int)
}

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for wikiqa.

The TUI has a builder for creating a knowledge base, a chat view for
asking questions, and a settings editor. Edits to config.toml made while
the TUI is running are picked up automatically.

Controls:
  Tab          - Switch view
  Enter        - Build / Send / Edit
  Ctrl+Up/Down - More / fewer articles
  Ctrl+L       - Clear conversation
  Ctrl+R       - Refresh status
  F1           - Toggle help
  Ctrl+C       - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(tui.NewPorts(sessionService, settingsService))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	app.WithContext(ctx).WithRefreshInterval(refreshInterval)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if configStore != nil {
		go watchConfig(ctx, p)
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// watchConfig forwards external config edits to the running program.
func watchConfig(ctx context.Context, p *tea.Program) {
	err := configStore.Watch(ctx, func() {
		if msg, ok := reloadSettings(); ok {
			p.Send(msg)
		}
	})
	if err != nil && ctx.Err() == nil {
		logger.Warn("config watch stopped: %v", err)
	}
}

// reloadSettings re-reads settings after a config change and applies the
// parts the session owns.
func reloadSettings() (messages.SettingsReloaded, bool) {
	if settingsService == nil {
		return messages.SettingsReloaded{}, false
	}
	s, err := settingsService.Get()
	if err != nil {
		logger.Warn("reloading settings: %v", err)
		return messages.SettingsReloaded{}, false
	}
	if d, ok := sessionService.(articleDefaulter); ok {
		d.SetMaxArticles(s.MaxArticles)
	}
	logger.Debug("settings reloaded, max articles %d", s.MaxArticles)
	return messages.SettingsReloaded{MaxArticles: s.MaxArticles}, true
}
