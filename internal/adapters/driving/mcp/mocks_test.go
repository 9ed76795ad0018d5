package mcp

import (
	"context"
	"strings"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
)

type mockPendingBuild struct {
	topic string
	max   int
}

func (p *mockPendingBuild) Topic() string    { return p.topic }
func (p *mockPendingBuild) MaxArticles() int { return p.max }

type mockPendingAsk struct {
	question string
}

func (p *mockPendingAsk) Question() string { return p.question }

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	view driving.SessionView

	busy        bool
	buildResult domain.BuildResult
	buildErr    error
	answer      domain.Answer
	askErr      error
	discard     bool
	hits        []domain.SearchHit
	searchErr   error
	clearErr    error

	starts     int
	lastBuild  *mockPendingBuild
	lastLimit  int
	clearCalls int
}

var _ driving.SessionService = (*mockSessionService)(nil)

func (m *mockSessionService) Start(context.Context) driving.SessionView {
	m.starts++
	return m.view
}

func (m *mockSessionService) Refresh(context.Context) driving.SessionView { return m.view }

func (m *mockSessionService) View() driving.SessionView { return m.view }

func (m *mockSessionService) BeginBuild(topic string, maxArticles int) (driving.PendingBuild, bool) {
	topic = strings.TrimSpace(topic)
	if topic == "" || m.busy {
		return nil, false
	}
	m.lastBuild = &mockPendingBuild{topic: topic, max: maxArticles}
	return m.lastBuild, true
}

func (m *mockSessionService) RunBuild(context.Context, driving.PendingBuild) (domain.BuildResult, error) {
	return m.buildResult, m.buildErr
}

func (m *mockSessionService) CompleteBuild(p driving.PendingBuild, result domain.BuildResult, err error) domain.BuildOutcome {
	switch {
	case err != nil:
		return domain.BuildOutcome{State: domain.BuildFailed, Topic: p.Topic(), Err: err}
	case !result.Success:
		return domain.BuildOutcome{State: domain.BuildFailed, Topic: p.Topic(), Err: &domain.DomainFailure{Reason: result.Message}}
	default:
		return domain.BuildOutcome{
			State: domain.BuildSucceeded,
			Topic: p.Topic(),
			Event: &domain.BuildCompleted{
				Topic:         p.Topic(),
				Message:       result.Message,
				Articles:      result.Articles,
				DocumentCount: result.DocumentCount,
			},
		}
	}
}

func (m *mockSessionService) Build(ctx context.Context, topic string, maxArticles int) (domain.BuildOutcome, bool) {
	p, ok := m.BeginBuild(topic, maxArticles)
	if !ok {
		return domain.BuildOutcome{}, false
	}
	result, err := m.RunBuild(ctx, p)
	return m.CompleteBuild(p, result, err), true
}

func (m *mockSessionService) BeginAsk(question string) (driving.PendingAsk, bool) {
	question = strings.TrimSpace(question)
	if question == "" || !m.view.KBReady || m.view.Sending {
		return nil, false
	}
	return &mockPendingAsk{question: question}, true
}

func (m *mockSessionService) RunAsk(context.Context, driving.PendingAsk) (domain.Answer, error) {
	return m.answer, m.askErr
}

func (m *mockSessionService) ResolveAsk(driving.PendingAsk, domain.Answer, error) bool {
	return !m.discard
}

func (m *mockSessionService) Ask(ctx context.Context, question string) bool {
	p, ok := m.BeginAsk(question)
	if !ok {
		return false
	}
	answer, err := m.RunAsk(ctx, p)
	m.ResolveAsk(p, answer, err)
	return true
}

func (m *mockSessionService) BeginClear() bool { return true }

func (m *mockSessionService) RunClear(context.Context) error { return m.clearErr }

func (m *mockSessionService) ResolveClear(error) {}

func (m *mockSessionService) Clear(context.Context) error {
	m.clearCalls++
	return m.clearErr
}

func (m *mockSessionService) Search(_ context.Context, _ string, limit int) ([]domain.SearchHit, error) {
	m.lastLimit = limit
	return m.hits, m.searchErr
}

func (m *mockSessionService) History(context.Context) ([]domain.Message, error) {
	return []domain.Message{}, nil
}

// mockRefresher records Start/Stop calls.
type mockRefresher struct {
	started chan struct{}
	stopped bool
}

func (r *mockRefresher) Start(ctx context.Context) error {
	close(r.started)
	<-ctx.Done()
	return ctx.Err()
}

func (r *mockRefresher) Stop() { r.stopped = true }
