// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/styles"
)

// State represents the current session activity for display.
type State string

const (
	StateNotBuilt State = "not_built"
	StateReady    State = "ready"
	StateBuilding State = "building"
	StateThinking State = "thinking"
	StateClearing State = "clearing"
	StateError    State = "error"
)

// Bar displays session activity and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	topic   string
	stale   bool
	hints   []key.Binding
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateNotBuilt,
		hints:  km.ShortHelp(),
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	var left string
	switch s.state {
	case StateBuilding:
		left = s.styles.Warning.Render("Building...")
	case StateThinking:
		left = s.styles.Muted.Render("Thinking...")
	case StateClearing:
		left = s.styles.Muted.Render("Clearing...")
	case StateError:
		if s.message != "" {
			left = s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		} else {
			left = s.styles.Error.Render("Error")
		}
	case StateReady:
		if s.topic != "" {
			left = s.styles.Success.Render("Ready: " + s.topic)
		} else {
			left = s.styles.Success.Render("Ready")
		}
	case StateNotBuilt:
		left = s.styles.Muted.Render("Not Built")
	default:
		left = s.styles.Muted.Render("Not Built")
	}

	if s.stale {
		left += " " + s.styles.Warning.Render("(stale)")
	}
	return left
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	hints := make([]string, 0, len(s.hints))
	for _, b := range s.hints {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the error detail.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetTopic sets the active topic shown next to Ready.
func (s *Bar) SetTopic(topic string) {
	s.topic = topic
}

// SetStale marks the displayed status as possibly out of date.
func (s *Bar) SetStale(stale bool) {
	s.stale = stale
}

// Stale reports whether the stale marker is shown.
func (s *Bar) Stale() bool {
	return s.stale
}

// SetHints replaces the keybinding hints. Nil restores the short help.
func (s *Bar) SetHints(bindings []key.Binding) {
	if bindings == nil {
		bindings = s.keymap.ShortHelp()
	}
	s.hints = bindings
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to its initial state.
func (s *Bar) Clear() {
	s.state = StateNotBuilt
	s.message = ""
	s.topic = ""
	s.stale = false
}
