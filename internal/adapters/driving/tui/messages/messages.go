// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewBuilder is the knowledge base builder.
	ViewBuilder ViewType = iota
	// ViewChat is the conversation view.
	ViewChat
	// ViewSettings is the settings configuration view.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewBuilder:
		return "builder"
	case ViewChat:
		return "chat"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Next returns the view reached by cycling forward with tab.
func (v ViewType) Next() ViewType {
	switch v {
	case ViewBuilder:
		return ViewChat
	case ViewChat:
		return ViewSettings
	default:
		return ViewBuilder
	}
}

// StatusRefreshed carries the session state after a status refresh.
type StatusRefreshed struct {
	View driving.SessionView
}

// BuildRequested asks the app to submit a build.
type BuildRequested struct {
	Topic       string
	MaxArticles int
}

// BuildFinished carries the backend result of an accepted build.
type BuildFinished struct {
	Pending driving.PendingBuild
	Result  domain.BuildResult
	Err     error
}

// BuildApplied carries the outcome once the session has applied a build.
type BuildApplied struct {
	Outcome domain.BuildOutcome
}

// AskRequested asks the app to submit a question.
type AskRequested struct {
	Question string
}

// AskFinished carries the backend answer for an accepted question.
type AskFinished struct {
	Pending driving.PendingAsk
	Answer  domain.Answer
	Err     error
}

// ClearRequested asks the app to clear the conversation.
type ClearRequested struct{}

// ClearFinished signals that a history deletion completed.
type ClearFinished struct {
	Err error
}

// SettingsLoaded carries the effective client settings.
type SettingsLoaded struct {
	Settings []domain.Setting
	Err      error
}

// SettingsSaved signals a setting was persisted.
type SettingsSaved struct {
	Key string
	Err error
}

// SettingsReloaded is sent when the config file changed on disk.
type SettingsReloaded struct {
	MaxArticles int
}

// RefreshTick triggers a periodic status refresh.
type RefreshTick struct{}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
