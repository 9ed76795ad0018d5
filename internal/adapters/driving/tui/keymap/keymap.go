// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help toggles the help view.
	Help key.Binding

	// Back leaves help or cancels an edit.
	Back key.Binding

	// Submit sends the current input.
	Submit key.Binding

	// Switch cycles between builder, chat and settings.
	Switch key.Binding

	// Refresh re-synchronizes status with the backend.
	Refresh key.Binding

	// Clear deletes the conversation history.
	Clear key.Binding

	// More and Fewer adjust the article count in the builder.
	More  key.Binding
	Fewer key.Binding

	// Up and Down navigate lists and scroll the transcript.
	Up   key.Binding
	Down key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Switch: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch view"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear chat"),
		),
		More: key.NewBinding(
			key.WithKeys("ctrl+up", "shift+up"),
			key.WithHelp("ctrl+↑", "more articles"),
		),
		Fewer: key.NewBinding(
			key.WithKeys("ctrl+down", "shift+down"),
			key.WithHelp("ctrl+↓", "fewer articles"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "pgup"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "pgdown"),
			key.WithHelp("↓", "down"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Switch, k.Help, k.Quit}
}

// BuilderHelp returns keybindings for the builder view.
func (k *KeyMap) BuilderHelp() []key.Binding {
	return []key.Binding{k.Submit, k.More, k.Fewer, k.Switch}
}

// ChatHelp returns keybindings for the chat view.
func (k *KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Clear, k.Refresh, k.Switch}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Switch, k.Back},
		{k.More, k.Fewer},
		{k.Up, k.Down, k.Clear, k.Refresh},
		{k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
