// Package sidebar renders the knowledge base summary panel.
package sidebar

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
)

// DefaultWidth is the sidebar width including its border.
const DefaultWidth = 30

// maxListed caps the article titles shown under the counters.
const maxListed = 8

// View is a read-only summary of the session.
type View struct {
	styles  *styles.Styles
	session driving.SessionView
	width   int
	height  int
}

// NewView creates a new sidebar.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, width: DefaultWidth, height: 20}
}

// SetSession replaces the displayed session state.
func (v *View) SetSession(view driving.SessionView) {
	v.session = view
}

// SetDimensions sets the sidebar size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Width returns the sidebar width.
func (v *View) Width() int {
	return v.width
}

// View renders the sidebar.
func (v *View) View() string {
	s := v.session
	inner := v.width - 4
	if inner < 10 {
		inner = 10
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Knowledge Base"))
	b.WriteString("\n\n")

	if s.KBReady {
		b.WriteString(v.styles.Success.Render("● Ready"))
	} else {
		b.WriteString(v.styles.Muted.Render("○ Not Built"))
	}
	b.WriteString("\n")

	if s.Building {
		b.WriteString(v.styles.Warning.Render("Building..."))
		b.WriteString("\n")
	}

	if s.Topic != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Topic"))
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render(clip(s.Topic, inner)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.row("Articles", s.Status.ArticleCount))
	b.WriteString(v.row("Chunks", s.Status.DocumentCount))
	b.WriteString(v.row("Messages", s.Status.ConversationLength))

	if n := len(s.Status.Articles); n > 0 {
		b.WriteString("\n")
		for i, a := range s.Status.Articles {
			if i == maxListed {
				b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  +%d more", n-maxListed)))
				b.WriteString("\n")
				break
			}
			b.WriteString(v.styles.Normal.Render("• " + clip(a.Title, inner-2)))
			b.WriteString("\n")
		}
	}

	switch {
	case s.Stale:
		b.WriteString("\n")
		b.WriteString(v.styles.Warning.Render("Status may be out of date"))
	case !s.Synced:
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Backend not reached yet"))
	}

	return v.styles.Sidebar.Width(v.width - 2).Render(strings.TrimRight(b.String(), "\n"))
}

func (v *View) row(label string, n int) string {
	return v.styles.Muted.Render(fmt.Sprintf("%-9s", label)) + v.styles.Normal.Render(fmt.Sprintf("%d", n)) + "\n"
}

func clip(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}
