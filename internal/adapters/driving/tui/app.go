package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/views/builder"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/wikiqa-cli/internal/adapters/driving/tui/views/sidebar"
	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/wikiqa-cli/internal/logger"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
//
// Build, ask and clear begin and resolve inside Update; only their
// backend calls run as commands. Status refreshes run whole inside a
// command, so the session serializes its own state.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for backend calls.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	builderView  *builder.View
	chatView     *chat.View
	settingsView *settings.View
	sidebar      *sidebar.View
	statusbar    *status.Bar

	// currentView tracks which view is active.
	currentView messages.ViewType

	// returnView is restored when help is closed.
	returnView messages.ViewType

	// session is the last state read from the session service.
	session driving.SessionView

	// clearing is true while a history deletion is in flight.
	clearing bool

	// refreshInterval enables periodic status refresh when positive.
	refreshInterval time.Duration

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	maxArticles := domain.DefaultMaxArticles
	if ports.Settings != nil {
		if cfg, err := ports.Settings.Get(); err == nil {
			maxArticles = cfg.MaxArticles
		}
	}

	a := &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		builderView:  builder.NewView(s, km, maxArticles),
		chatView:     chat.NewView(s, km),
		settingsView: settings.NewView(s, ports.Settings),
		sidebar:      sidebar.NewView(s),
		statusbar:    status.NewBar(s, km),
		currentView:  messages.ViewBuilder,
	}
	a.statusbar.SetHints(km.BuilderHelp())
	return a, nil
}

// WithContext sets the context for backend calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// WithRefreshInterval enables periodic status refresh.
func (a *App) WithRefreshInterval(d time.Duration) *App {
	a.refreshInterval = d
	return a
}

// Init implements tea.Model.
// It performs the initial status refresh.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("wikiqa - Wikipedia Q&A"),
		a.startCmd(),
		a.builderView.Init(),
		a.tickCmd(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.StatusRefreshed:
		a.sync(msg.View)
		return a, nil

	case messages.RefreshTick:
		return a, tea.Batch(a.refreshCmd(), a.tickCmd())

	case messages.BuildRequested:
		p, ok := a.ports.Session.BeginBuild(msg.Topic, msg.MaxArticles)
		if !ok {
			return a, nil
		}
		spin := a.builderView.StartBuilding(p.Topic())
		a.sync(a.ports.Session.View())
		return a, tea.Batch(spin, a.runBuildCmd(p))

	case messages.BuildFinished:
		outcome := a.ports.Session.CompleteBuild(msg.Pending, msg.Result, msg.Err)
		focus := a.builderView.SetOutcome(outcome)
		a.sync(a.ports.Session.View())
		if !outcome.Succeeded() {
			a.setError(outcome.Err)
			return a, focus
		}
		a.err = nil
		return a, a.switchTo(messages.ViewChat)

	case messages.AskRequested:
		p, ok := a.ports.Session.BeginAsk(msg.Question)
		if !ok {
			return a, nil
		}
		a.sync(a.ports.Session.View())
		spin := a.chatView.Accepted()
		return a, tea.Batch(spin, a.runAskCmd(p))

	case messages.AskFinished:
		if !a.ports.Session.ResolveAsk(msg.Pending, msg.Answer, msg.Err) {
			logger.Debug("tui: answer discarded after topic change")
		}
		a.sync(a.ports.Session.View())
		return a, nil

	case messages.ClearRequested:
		if !a.ports.Session.BeginClear() {
			return a, nil
		}
		a.clearing = true
		a.chatView.SetClearing(true)
		a.sync(a.ports.Session.View())
		return a, a.runClearCmd()

	case messages.ClearFinished:
		a.ports.Session.ResolveClear(msg.Err)
		a.clearing = false
		a.chatView.SetClearing(false)
		a.sync(a.ports.Session.View())
		if msg.Err != nil {
			a.setError(fmt.Errorf("clear failed: %w", msg.Err))
		}
		return a, nil

	case messages.SettingsReloaded:
		a.builderView.SetMaxArticles(msg.MaxArticles)
		if a.currentView == messages.ViewSettings {
			return a, a.settingsView.Init()
		}
		return a, nil

	case messages.SettingsLoaded, messages.SettingsSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case spinner.TickMsg:
		// Each spinner only accepts its own ticks.
		var bcmd, ccmd tea.Cmd
		a.builderView, bcmd = a.builderView.Update(msg)
		a.chatView, ccmd = a.chatView.Update(msg)
		return a, tea.Batch(bcmd, ccmd)

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(keyStr, a.keymap.Help):
		if a.currentView == messages.ViewHelp {
			return a, a.switchTo(a.returnView)
		}
		a.returnView = a.currentView
		return a, a.switchTo(messages.ViewHelp)

	case a.currentView == messages.ViewHelp && keymap.Matches(keyStr, a.keymap.Back):
		return a, a.switchTo(a.returnView)

	case keymap.Matches(keyStr, a.keymap.Switch):
		return a, a.switchTo(a.currentView.Next())

	case keymap.Matches(keyStr, a.keymap.Refresh):
		return a, a.refreshCmd()
	}

	return a, a.forward(msg)
}

// forward passes a message to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewBuilder:
		a.builderView, cmd = a.builderView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
		// Help is static
	}
	return cmd
}

func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewBuilder:
		a.statusbar.SetHints(a.keymap.BuilderHelp())
		a.chatView.Input().Blur()
		return a.builderView.Input().Focus()
	case messages.ViewChat:
		a.statusbar.SetHints(a.keymap.ChatHelp())
		a.builderView.Input().Blur()
		return a.chatView.Input().Focus()
	case messages.ViewSettings:
		a.statusbar.SetHints(nil)
		a.settingsView.Reset()
		return a.settingsView.Init()
	case messages.ViewHelp:
		a.statusbar.SetHints(nil)
	}
	return nil
}

// sync pushes a session snapshot into every view.
func (a *App) sync(view driving.SessionView) {
	a.session = view
	a.builderView.SetSession(view)
	a.chatView.SetSession(view)
	a.sidebar.SetSession(view)

	a.statusbar.SetStale(view.Stale)
	a.statusbar.SetTopic(view.Topic)
	switch {
	case view.Building:
		a.statusbar.SetState(status.StateBuilding)
	case view.Sending:
		a.statusbar.SetState(status.StateThinking)
	case a.clearing:
		a.statusbar.SetState(status.StateClearing)
	case a.statusbar.State() == status.StateError:
		// Keep the error visible until the next action.
	case view.KBReady:
		a.statusbar.SetState(status.StateReady)
	default:
		a.statusbar.SetState(status.StateNotBuilt)
	}
}

func (a *App) setError(err error) {
	if err == nil {
		return
	}
	a.err = err
	a.statusbar.SetState(status.StateError)
	a.statusbar.SetMessage(err.Error())
}

// Commands. Each runs one backend call off the update loop.

func (a *App) startCmd() tea.Cmd {
	session, ctx := a.ports.Session, a.ctx
	return func() tea.Msg {
		return messages.StatusRefreshed{View: session.Start(ctx)}
	}
}

func (a *App) refreshCmd() tea.Cmd {
	if a.statusbar.State() == status.StateError {
		a.statusbar.SetState(status.StateNotBuilt)
	}
	session, ctx := a.ports.Session, a.ctx
	return func() tea.Msg {
		return messages.StatusRefreshed{View: session.Refresh(ctx)}
	}
}

func (a *App) tickCmd() tea.Cmd {
	if a.refreshInterval <= 0 {
		return nil
	}
	return tea.Tick(a.refreshInterval, func(time.Time) tea.Msg {
		return messages.RefreshTick{}
	})
}

func (a *App) runBuildCmd(p driving.PendingBuild) tea.Cmd {
	session, ctx := a.ports.Session, a.ctx
	return func() tea.Msg {
		result, err := session.RunBuild(ctx, p)
		return messages.BuildFinished{Pending: p, Result: result, Err: err}
	}
}

func (a *App) runAskCmd(p driving.PendingAsk) tea.Cmd {
	session, ctx := a.ports.Session, a.ctx
	return func() tea.Msg {
		answer, err := session.RunAsk(ctx, p)
		return messages.AskFinished{Pending: p, Answer: answer, Err: err}
	}
}

func (a *App) runClearCmd() tea.Cmd {
	session, ctx := a.ports.Session, a.ctx
	return func() tea.Msg {
		return messages.ClearFinished{Err: session.RunClear(ctx)}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var main string
	switch a.currentView {
	case messages.ViewBuilder:
		main = a.builderView.View()
	case messages.ViewChat:
		main = a.chatView.View()
	case messages.ViewSettings:
		main = a.settingsView.View()
	case messages.ViewHelp:
		main = a.viewHelp()
	}

	mainWidth := a.width - a.sidebar.Width() - 1
	if mainWidth < 20 {
		mainWidth = 20
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(mainWidth).Render(main),
		" ",
		a.sidebar.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderTabs(),
		body,
		a.statusbar.View(),
	)
}

func (a *App) renderTabs() string {
	tabs := []messages.ViewType{messages.ViewBuilder, messages.ViewChat, messages.ViewSettings}
	labels := map[messages.ViewType]string{
		messages.ViewBuilder:  "Build",
		messages.ViewChat:     "Chat",
		messages.ViewSettings: "Settings",
	}

	parts := make([]string, 0, len(tabs)+1)
	parts = append(parts, a.styles.Title.Render("wikiqa")+"  ")
	for _, t := range tabs {
		if t == a.currentView {
			parts = append(parts, a.styles.ActiveTab.Render(labels[t]))
		} else {
			parts = append(parts, a.styles.Tab.Render(labels[t]))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// viewHelp renders the keybinding reference.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Session returns the last session state the app rendered.
func (a *App) Session() driving.SessionView {
	return a.session
}

// StatusState returns the status bar state.
func (a *App) StatusState() status.State {
	return a.statusbar.State()
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	mainWidth := width - a.sidebar.Width() - 1
	bodyHeight := height - 2
	a.builderView.SetDimensions(mainWidth, bodyHeight)
	a.chatView.SetDimensions(mainWidth, bodyHeight)
	a.settingsView.SetDimensions(mainWidth, bodyHeight)
	a.sidebar.SetDimensions(a.sidebar.Width(), bodyHeight)
	a.statusbar.SetWidth(width)
}
