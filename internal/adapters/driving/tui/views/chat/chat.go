// Package chat provides the conversation view for the TUI.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
)

// View shows the transcript and the question input.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	input    *input.TextInput
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	transcript []domain.Message
	kbReady    bool
	topic      string
	sending    bool
	clearing   bool
	askFailed  bool

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	v := &View{
		styles:   s,
		keymap:   km,
		input:    input.New(s, "Question", ""),
		viewport: viewport.New(80, 16),
		spinner:  sp,
		width:    80,
		height:   24,
	}
	v.renderer = newRenderer(76)
	v.updatePlaceholder()
	return v
}

// newRenderer builds a markdown renderer. A nil renderer falls back to plain text.
func newRenderer(wrap int) *glamour.TermRenderer {
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case spinner.TickMsg:
		if !v.sending {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refreshContent()
		return v, cmd

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Submit):
		// Rejections are silent: nothing is sent before a knowledge base
		// exists, while an answer is pending, or for a blank question.
		if !v.kbReady || v.sending {
			return v, nil
		}
		q := v.input.Trimmed()
		if q == "" {
			return v, nil
		}
		req := messages.AskRequested{Question: q}
		return v, func() tea.Msg { return req }

	case keymap.Matches(keyStr, v.keymap.Clear):
		if v.clearing {
			return v, nil
		}
		return v, func() tea.Msg { return messages.ClearRequested{} }

	case keymap.Matches(keyStr, v.keymap.Up), keymap.Matches(keyStr, v.keymap.Down):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// Accepted clears the input after a question was accepted and starts the
// thinking indicator.
func (v *View) Accepted() tea.Cmd {
	v.input.Reset()
	v.sending = true
	v.refreshContent()
	return v.spinner.Tick
}

// SetClearing marks a clear as in flight.
func (v *View) SetClearing(clearing bool) {
	v.clearing = clearing
}

// SetSession syncs the transcript and readiness with the session.
func (v *View) SetSession(view driving.SessionView) {
	v.transcript = view.Transcript
	v.kbReady = view.KBReady
	v.topic = view.Topic
	v.sending = view.Sending
	v.askFailed = view.AskErr != nil
	v.updatePlaceholder()
	v.refreshContent()
}

func (v *View) updatePlaceholder() {
	switch {
	case !v.kbReady:
		v.input.SetPlaceholder("Build a knowledge base first")
	case v.topic != "":
		v.input.SetPlaceholder(fmt.Sprintf("Ask about %s...", v.topic))
	default:
		v.input.SetPlaceholder("Ask a question...")
	}
}

func (v *View) refreshContent() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.transcript) == 0 && !v.sending {
		if !v.kbReady {
			return v.styles.Muted.Render("No knowledge base yet. Switch to the builder with tab.")
		}
		return v.styles.Muted.Render("No messages yet.")
	}

	parts := make([]string, 0, len(v.transcript)+1)
	last := len(v.transcript) - 1
	for i, m := range v.transcript {
		parts = append(parts, v.renderMessage(m, i == last && v.askFailed))
	}
	if v.sending {
		parts = append(parts, v.spinner.View()+" "+v.styles.Muted.Render("Thinking..."))
	}
	return strings.Join(parts, "\n\n")
}

func (v *View) renderMessage(m domain.Message, failed bool) string {
	if m.Role == domain.RoleUser {
		return v.styles.UserLabel.Render("You") + "\n" + v.styles.Normal.Render(m.Content)
	}

	var b strings.Builder
	b.WriteString(v.styles.AssistantLabel.Render("Assistant"))
	b.WriteString("\n")
	if failed {
		b.WriteString(v.styles.Error.Render(m.Content))
	} else {
		b.WriteString(v.renderMarkdown(m.Content))
	}

	if len(m.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render("Sources:"))
		for _, src := range m.Sources {
			b.WriteString("\n")
			b.WriteString(v.styles.Source.Render(fmt.Sprintf("  - %s (%s)", src.Title, src.RelevanceLabel())))
		}
	}
	return b.String()
}

func (v *View) renderMarkdown(content string) string {
	if v.renderer == nil {
		return v.styles.Normal.Render(content)
	}
	out, err := v.renderer.Render(content)
	if err != nil {
		return v.styles.Normal.Render(content)
	}
	return strings.TrimRight(out, "\n")
}

// View renders the chat view.
func (v *View) View() string {
	title := "Chat"
	if v.topic != "" {
		title = "Chat: " + v.topic
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render(title),
		"",
		v.viewport.View(),
		"",
		v.input.View(),
	)
}

// Sending reports whether an answer is pending.
func (v *View) Sending() bool {
	return v.sending
}

// Transcript returns the displayed transcript.
func (v *View) Transcript() []domain.Message {
	return v.transcript
}

// Input exposes the question input.
func (v *View) Input() *input.TextInput {
	return v.input
}

// Content returns the rendered transcript.
func (v *View) Content() string {
	return v.renderTranscript()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)

	vpHeight := height - 7
	if vpHeight < 3 {
		vpHeight = 3
	}
	v.viewport.Width = width
	v.viewport.Height = vpHeight
	v.renderer = newRenderer(width - 4)
	v.refreshContent()
}
