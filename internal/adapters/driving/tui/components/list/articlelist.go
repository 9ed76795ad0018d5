// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
)

// ArticleList displays indexed articles in a navigable list.
type ArticleList struct {
	articles []domain.ArticleRef
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewArticleList creates a new article list component.
func NewArticleList(s *styles.Styles) *ArticleList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ArticleList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the article list.
func (r *ArticleList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ArticleList) Update(msg tea.Msg) (*ArticleList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyUp:
			r.MoveUp()
		case tea.KeyDown:
			r.MoveDown()
		default:
		}
	}
	return r, nil
}

// View renders the article list.
func (r *ArticleList) View() string {
	if len(r.articles) == 0 {
		return r.styles.Muted.Render("No articles")
	}

	lines := make([]string, 0, len(r.articles)+2)
	header := r.styles.Subtitle.Render(fmt.Sprintf("Indexed articles (%d)", len(r.articles)))
	lines = append(lines, header, "")

	// Each article takes two lines: title and summary or URL.
	visibleCount := (r.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(r.articles) {
		end = len(r.articles)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderArticle(i, r.articles[i]))
	}

	return strings.Join(lines, "\n")
}

func (r *ArticleList) renderArticle(index int, article domain.ArticleRef) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	title := truncate(article.Title, r.width-6)
	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(indicator + title)
	} else {
		titleLine = r.styles.Normal.Render(indicator + title)
	}

	detail := article.URL
	if article.HasSummary() {
		detail = *article.Summary
	}
	return titleLine + "\n" + r.styles.Muted.Render("    "+truncate(detail, r.width-6))
}

func truncate(s string, maxLen int) string {
	if maxLen < 10 {
		maxLen = 10
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// SetArticles replaces the list contents and resets the selection.
func (r *ArticleList) SetArticles(articles []domain.ArticleRef) {
	r.articles = articles
	r.selected = 0
}

// Articles returns the current articles.
func (r *ArticleList) Articles() []domain.ArticleRef {
	return r.articles
}

// Selected returns the index of the selected article.
func (r *ArticleList) Selected() int {
	return r.selected
}

// SelectedArticle returns the selected article, or nil if the list is empty.
func (r *ArticleList) SelectedArticle() *domain.ArticleRef {
	if r.selected < 0 || r.selected >= len(r.articles) {
		return nil
	}
	return &r.articles[r.selected]
}

// MoveUp moves selection up.
func (r *ArticleList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ArticleList) MoveDown() {
	if r.selected < len(r.articles)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ArticleList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of articles.
func (r *ArticleList) Count() int {
	return len(r.articles)
}
