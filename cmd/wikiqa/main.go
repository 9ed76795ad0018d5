// Command wikiqa is a terminal client for the wikiqa question-answering backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driven/backend/httpapi"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/wikiqa-cli/internal/core/services"
	"github.com/custodia-labs/wikiqa-cli/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// bootstrap wires the driven adapters into the services used by the commands.
func bootstrap(configDir string) (*cli.Services, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	// The working directory's .env is loaded first so it wins over the
	// config directory's; the process environment wins over both.
	dir := filepath.Dir(store.Path())
	if err := file.LoadDotEnv(".env", filepath.Join(dir, ".env")); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	settingsService := services.NewSettingsService(store)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if err := settingsService.Validate(settings); err != nil {
		logger.Warn("%v; using defaults", err)
		defaults := settingsService.GetDefaults()
		settings = &defaults
	}

	logger.Section("bootstrap")
	logger.Debug("config: %s", store.Path())
	logger.Debug("backend: %s", settings.BaseURL)

	client := httpapi.NewClient(httpapi.ConfigFromSettings(*settings))
	session := services.NewSession(client, services.SessionConfig{
		MaxArticles: settings.MaxArticles,
		SearchLimit: settings.SearchLimit,
	})

	return &cli.Services{
		Session:         session,
		Settings:        settingsService,
		Config:          store,
		Refresher:       services.NewStatusRefresher(session, settings.RefreshInterval),
		RefreshInterval: settings.RefreshInterval,
	}, nil
}
