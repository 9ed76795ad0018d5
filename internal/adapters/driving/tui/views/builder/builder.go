// Package builder provides the knowledge base builder view for the TUI.
package builder

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
)

// Article count bounds offered by the builder.
const (
	MinArticles = 1
	MaxArticles = 10
)

// View collects a topic and article count and shows the last build outcome.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	input    *input.TextInput
	articles *list.ArticleList
	spinner  spinner.Model

	maxArticles int
	building    bool
	topic       string
	outcome     *domain.BuildOutcome

	width  int
	height int
	ready  bool
}

// NewView creates a new builder view.
func NewView(s *styles.Styles, km *keymap.KeyMap, maxArticles int) *View {
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
		input:    input.New(s, "Topic", "e.g. Ancient Egypt, Quantum Computing"),
		articles: list.NewArticleList(s),
		spinner:  sp,
		width:    80,
		height:   24,
	}
	v.SetMaxArticles(maxArticles)
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the builder view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case spinner.TickMsg:
		if !v.building {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
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
		// Rejections are silent: nothing is sent while building or
		// when the topic is blank.
		if v.building {
			return v, nil
		}
		topic := v.input.Trimmed()
		if topic == "" {
			return v, nil
		}
		req := messages.BuildRequested{Topic: topic, MaxArticles: v.maxArticles}
		return v, func() tea.Msg { return req }

	case keymap.Matches(keyStr, v.keymap.More):
		v.SetMaxArticles(v.maxArticles + 1)
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Fewer):
		v.SetMaxArticles(v.maxArticles - 1)
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Up), keymap.Matches(keyStr, v.keymap.Down):
		v.articles, _ = v.articles.Update(msg)
		return v, nil
	}

	if v.building {
		return v, nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// StartBuilding switches to the building state and starts the spinner.
func (v *View) StartBuilding(topic string) tea.Cmd {
	v.building = true
	v.topic = topic
	v.outcome = nil
	v.input.Blur()
	return v.spinner.Tick
}

// SetOutcome records the result of a completed build.
func (v *View) SetOutcome(outcome domain.BuildOutcome) tea.Cmd {
	v.building = false
	v.outcome = &outcome
	if outcome.Event != nil {
		v.articles.SetArticles(outcome.Event.Articles)
	} else {
		v.articles.SetArticles(nil)
	}
	return v.input.Focus()
}

// SetSession syncs the view with the session state.
func (v *View) SetSession(view driving.SessionView) {
	v.building = view.Building
	if v.outcome == nil && view.LastBuild != nil {
		o := *view.LastBuild
		v.outcome = &o
		if o.Event != nil {
			v.articles.SetArticles(o.Event.Articles)
		}
	}
	if v.outcome == nil && view.KBReady && len(view.Status.Articles) > 0 && v.articles.Count() == 0 {
		v.articles.SetArticles(view.Status.Articles)
	}
}

// SetMaxArticles sets the article count, clamped to the offered range.
func (v *View) SetMaxArticles(n int) {
	if n < MinArticles {
		n = MinArticles
	}
	if n > MaxArticles {
		n = MaxArticles
	}
	v.maxArticles = n
}

// View renders the builder view.
func (v *View) View() string {
	sections := make([]string, 0, 10)

	sections = append(sections,
		v.styles.Title.Render("Build a Knowledge Base"),
		v.styles.Muted.Render("Index Wikipedia articles about a topic, then ask questions about it."),
		"",
		v.input.View(),
		"",
		v.renderArticleCount(),
		"",
	)

	switch {
	case v.building:
		sections = append(sections,
			v.spinner.View()+" "+v.styles.Normal.Render(fmt.Sprintf("Building knowledge base for %q...", v.topic)))
	case v.outcome != nil:
		sections = append(sections, v.renderOutcome())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderArticleCount() string {
	const width = MaxArticles - MinArticles + 1
	filled := v.maxArticles - MinArticles + 1
	bar := strings.Repeat("■", filled) + strings.Repeat("□", width-filled)
	return v.styles.Normal.Render(fmt.Sprintf("Articles: %d ", v.maxArticles)) +
		v.styles.Subtitle.Render(bar) +
		v.styles.Help.Render(fmt.Sprintf("  (%d-%d)", MinArticles, MaxArticles))
}

func (v *View) renderOutcome() string {
	o := v.outcome
	if !o.Succeeded() {
		return v.styles.Border.BorderForeground(v.styles.Theme().Error).Padding(0, 1).Render(
			v.styles.Error.Render("Build failed: " + o.ErrorMessage()))
	}

	var b strings.Builder
	b.WriteString(v.styles.Success.Render(o.Event.Message))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d articles, %d chunks indexed",
		o.Event.ArticleCount(), o.Event.DocumentCount)))
	b.WriteString("\n\n")
	b.WriteString(v.articles.View())
	return v.styles.Border.Padding(0, 1).Render(b.String())
}

// Building reports whether a build is in progress.
func (v *View) Building() bool {
	return v.building
}

// MaxArticlesValue returns the selected article count.
func (v *View) MaxArticlesValue() int {
	return v.maxArticles
}

// Outcome returns the last build outcome, or nil.
func (v *View) Outcome() *domain.BuildOutcome {
	return v.outcome
}

// Input exposes the topic input for tests and focus handling.
func (v *View) Input() *input.TextInput {
	return v.input
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.articles.SetDimensions(width-4, height-14)
}
