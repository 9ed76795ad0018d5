// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
)

// ErrNoSettingsService indicates that no settings service was provided.
var ErrNoSettingsService = errors.New("settings service not available")

// Key constants for key handling.
const (
	keyUp    = "up"
	keyDown  = "down"
	keyEnter = "enter"
	keyEsc   = "esc"
)

// View lists the client settings and edits one at a time.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	entries []domain.Setting
	err     error
	saved   string

	selected int
	editing  bool
	input    textinput.Model

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	in := textinput.New()
	in.CharLimit = 256

	return &View{
		styles:          s,
		settingsService: settingsService,
		input:           in,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		entries, err := svc.List()
		return messages.SettingsLoaded{Settings: entries, Err: err}
	}
}

func (v *View) saveSetting(key, value string) tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Key: key, Err: ErrNoSettingsService}
		}
		return messages.SettingsSaved{Key: key, Err: svc.Set(key, value)}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.setEntries(msg.Settings)
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			v.saved = ""
			return v, nil
		}
		v.err = nil
		v.saved = msg.Key
		v.editing = false
		v.input.Blur()
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) setEntries(entries []domain.Setting) {
	if entries == nil {
		entries = []domain.Setting{}
	}
	v.entries = entries
	if v.selected >= len(entries) {
		v.selected = 0
	}
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.editing {
		switch msg.String() {
		case keyEsc:
			v.editing = false
			v.input.Blur()
			return v, nil
		case keyEnter:
			key := v.entries[v.selected].Key
			return v, v.saveSetting(key, v.input.Value())
		default:
			var cmd tea.Cmd
			v.input, cmd = v.input.Update(msg)
			return v, cmd
		}
	}

	switch msg.String() {
	case keyUp:
		if v.selected > 0 {
			v.selected--
		}
	case keyDown:
		if v.selected < len(v.entries)-1 {
			v.selected++
		}
	case keyEnter:
		if v.selected < len(v.entries) {
			v.editing = true
			v.saved = ""
			v.input.SetValue(v.entries[v.selected].Value)
			v.input.CursorEnd()
			return v, v.input.Focus()
		}
	}
	return v, nil
}

// View renders the settings list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.entries == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	for i, e := range v.entries {
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}

		if v.editing && i == v.selected {
			b.WriteString(v.styles.Normal.Render(indicator+e.Key+": ") + v.input.View())
		} else {
			line := fmt.Sprintf("%s%s: %s", indicator, e.Key, e.Value)
			if i == v.selected {
				b.WriteString(v.styles.Selected.Render(line))
			} else {
				b.WriteString(v.styles.Normal.Render(line))
			}
		}
		b.WriteString("\n")
	}

	if v.saved != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Success.Render("Saved " + v.saved))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	if v.editing {
		return v.styles.Help.Render("[enter] save  [esc] cancel")
	}
	return v.styles.Help.Render("[↑/↓] navigate  [enter] edit  [tab] switch view")
}

// Editing reports whether a value is being edited.
func (v *View) Editing() bool {
	return v.editing
}

// Selected returns the index of the highlighted setting.
func (v *View) Selected() int {
	return v.selected
}

// Entries returns the displayed settings.
func (v *View) Entries() []domain.Setting {
	return v.entries
}

// Err returns the last load or save error.
func (v *View) Err() error {
	return v.err
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.Width = width / 2
}

// Reset leaves edit mode and clears messages.
func (v *View) Reset() {
	v.editing = false
	v.saved = ""
	v.err = nil
	v.input.SetValue("")
	v.input.Blur()
}
