package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
)

func newEgyptBackend() *mockBackend {
	backend := newMockBackend()
	backend.buildFn = func(_ context.Context, topic string, _ int) (domain.BuildResult, error) {
		return domain.BuildResult{
			Success:       true,
			Message:       "Successfully built knowledge base for '" + topic + "'",
			Articles:      egyptArticles(),
			DocumentCount: 42,
		}, nil
	}
	return backend
}

func TestNewSession_Defaults(t *testing.T) {
	s := NewSession(newMockBackend(), SessionConfig{})

	assert.Equal(t, domain.DefaultMaxArticles, s.config.MaxArticles)
	assert.Equal(t, domain.DefaultSearchLimit, s.config.SearchLimit)

	view := s.View()
	assert.False(t, view.KBReady)
	assert.Empty(t, view.Topic)
	assert.Empty(t, view.Transcript)
	assert.Nil(t, view.LastBuild)
}

func TestSession_Start_ReadyBackendGreets(t *testing.T) {
	backend := newMockBackend()
	backend.statusFn = func(context.Context) (domain.StatusSnapshot, error) {
		return readyStatus("Volcanoes", 4), nil
	}
	s := NewSession(backend, SessionConfig{})

	view := s.Start(context.Background())

	assert.True(t, view.KBReady)
	assert.Equal(t, "Volcanoes", view.Topic)
	assert.True(t, view.Synced)
	require.Len(t, view.Transcript, 1)
	assert.Contains(t, view.Transcript[0].Content, "Volcanoes")
	assert.Equal(t, 0, backend.count("history"), "history is not restored automatically")
}

func TestSession_BuildThenAsk(t *testing.T) {
	backend := newEgyptBackend()
	backend.askFn = func(context.Context, string) (domain.Answer, error) {
		return domain.Answer{
			Answer: "The pyramids were built by skilled workers.",
			Sources: []domain.SourceRef{{
				Title:          "Egyptian pyramids",
				URL:            "https://en.wikipedia.org/wiki/Egyptian_pyramids",
				RelevanceScore: 0.92,
			}},
		}, nil
	}
	s := NewSession(backend, SessionConfig{})
	s.Start(context.Background())

	outcome, ok := s.Build(context.Background(), "Ancient Egypt", 0)
	require.True(t, ok)
	require.True(t, outcome.Succeeded())

	view := s.View()
	assert.True(t, view.KBReady)
	assert.Equal(t, "Ancient Egypt", view.Topic)
	assert.Equal(t, 5, view.Status.ArticleCount)
	assert.Equal(t, 42, view.Status.DocumentCount)
	require.Len(t, view.Transcript, 1)
	assert.Equal(t, `Knowledge base ready! Ask me anything about "Ancient Egypt".`, view.Transcript[0].Content)

	require.True(t, s.Ask(context.Background(), "Who built the pyramids?"))

	view = s.View()
	require.Len(t, view.Transcript, 3)
	assert.Equal(t, domain.RoleUser, view.Transcript[1].Role)
	answer := view.Transcript[2]
	assert.Equal(t, domain.RoleAssistant, answer.Role)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "92%", answer.Sources[0].RelevanceLabel())
	assert.False(t, view.Sending)
}

func TestSession_Ask_BackendErrorIsInBand(t *testing.T) {
	backend := newEgyptBackend()
	backend.askFn = func(context.Context, string) (domain.Answer, error) {
		return domain.Answer{}, &domain.AskError{StatusCode: 500, Detail: "LLM unavailable"}
	}
	s := NewSession(backend, SessionConfig{})
	s.Build(context.Background(), "Ancient Egypt", 5)

	require.True(t, s.Ask(context.Background(), "Who built the pyramids?"))

	view := s.View()
	last := view.Transcript[len(view.Transcript)-1]
	assert.Equal(t, "Error: LLM unavailable", last.Content)
	assert.Empty(t, last.Sources)
	assert.False(t, view.Sending)

	var askErr *domain.AskError
	require.ErrorAs(t, view.AskErr, &askErr)
	assert.Equal(t, 500, askErr.StatusCode)
}

func TestSession_AskErr_AnswerWithErrorTextIsNotAFailure(t *testing.T) {
	backend := newEgyptBackend()
	backend.askFn = func(context.Context, string) (domain.Answer, error) {
		return domain.Answer{Answer: "Error: the scribe miscounted the grain tax."}, nil
	}
	s := NewSession(backend, SessionConfig{})
	s.Build(context.Background(), "Ancient Egypt", 5)

	require.True(t, s.Ask(context.Background(), "What went wrong in the ledger?"))

	view := s.View()
	assert.NoError(t, view.AskErr)
	assert.Equal(t, "Error: the scribe miscounted the grain tax.", view.Transcript[len(view.Transcript)-1].Content)
}

func TestSession_BeginAsk_RejectsSecondSend(t *testing.T) {
	s := NewSession(newEgyptBackend(), SessionConfig{})
	s.Build(context.Background(), "Ancient Egypt", 5)

	p, ok := s.BeginAsk("Who built the pyramids?")
	require.True(t, ok)

	_, ok = s.BeginAsk("When?")
	assert.False(t, ok)

	answer, err := s.RunAsk(context.Background(), p)
	assert.True(t, s.ResolveAsk(p, answer, err))
	assert.Len(t, s.View().Transcript, 3)
}

func TestSession_Ask_NotReadyIssuesNoCall(t *testing.T) {
	backend := newMockBackend()
	s := NewSession(backend, SessionConfig{})
	s.Start(context.Background())

	assert.False(t, s.Ask(context.Background(), "Anything?"))
	assert.Equal(t, 0, backend.count("ask"))
	assert.Empty(t, s.View().Transcript)
}

func TestSession_Build_WhitespaceTopicIssuesNoRequest(t *testing.T) {
	backend := newMockBackend()
	s := NewSession(backend, SessionConfig{})

	_, ok := s.Build(context.Background(), "   ", 5)

	assert.False(t, ok)
	assert.Equal(t, 0, backend.count("build"))
	assert.False(t, s.View().Building)
}

func TestSession_Build_UsesSessionDefault(t *testing.T) {
	backend := newEgyptBackend()
	var gotMax int
	inner := backend.buildFn
	backend.buildFn = func(ctx context.Context, topic string, maxArticles int) (domain.BuildResult, error) {
		gotMax = maxArticles
		return inner(ctx, topic, maxArticles)
	}
	s := NewSession(backend, SessionConfig{MaxArticles: 7})

	s.Build(context.Background(), "Nile", 0)
	assert.Equal(t, 7, gotMax)

	s.SetMaxArticles(2)
	s.Build(context.Background(), "Nile", 0)
	assert.Equal(t, 2, gotMax)
}

func TestSession_TopicChange_ExactlyOneGreeting(t *testing.T) {
	backend := newEgyptBackend()
	backend.statusFn = func(context.Context) (domain.StatusSnapshot, error) {
		return readyStatus("Volcanoes", 4), nil
	}
	s := NewSession(backend, SessionConfig{})
	s.Start(context.Background())
	s.Ask(context.Background(), "What is magma?")
	require.Len(t, s.View().Transcript, 3)

	s.Build(context.Background(), "Ancient Egypt", 5)

	transcript := s.View().Transcript
	require.Len(t, transcript, 1)
	assert.Contains(t, transcript[0].Content, "Ancient Egypt")
}

func TestSession_OverrideHoldsUntilSuccessfulRefresh(t *testing.T) {
	backend := newEgyptBackend()
	var mu sync.Mutex
	status := domain.StatusSnapshot{Articles: []domain.ArticleRef{}}
	var statusErr error
	backend.statusFn = func(context.Context) (domain.StatusSnapshot, error) {
		mu.Lock()
		defer mu.Unlock()
		return status, statusErr
	}
	s := NewSession(backend, SessionConfig{})
	s.Start(context.Background())

	s.Build(context.Background(), "Ancient Egypt", 5)
	require.True(t, s.View().KBReady)

	// A failed refresh keeps the build's view.
	mu.Lock()
	statusErr = transportErr("status")
	mu.Unlock()
	view := s.Refresh(context.Background())
	assert.True(t, view.KBReady)
	assert.Equal(t, "Ancient Egypt", view.Topic)
	assert.True(t, view.Stale)

	// A successful refresh converges to backend truth.
	mu.Lock()
	statusErr = nil
	status = readyStatus("Ancient Egypt", 5)
	mu.Unlock()
	view = s.Refresh(context.Background())
	assert.True(t, view.KBReady)
	assert.Equal(t, "Ancient Egypt", view.Topic)
	assert.False(t, view.Stale)
	assert.Len(t, view.Transcript, 1, "same topic does not greet again")
}

func TestSession_RefreshStartedBeforeBuildDoesNotUndoIt(t *testing.T) {
	backend := newEgyptBackend()
	var mu sync.Mutex
	status := readyStatus("Volcanoes", 4)
	var gate chan struct{}
	entered := make(chan struct{}, 1)
	backend.statusFn = func(context.Context) (domain.StatusSnapshot, error) {
		mu.Lock()
		snap, g := status, gate
		mu.Unlock()
		if g != nil {
			entered <- struct{}{}
			<-g
		}
		return snap, nil
	}
	s := NewSession(backend, SessionConfig{})
	s.Start(context.Background())

	// The next refresh fetches the pre-build snapshot and blocks.
	mu.Lock()
	gate = make(chan struct{})
	release := gate
	mu.Unlock()

	landed := make(chan struct{})
	go func() {
		defer close(landed)
		s.Refresh(context.Background())
	}()
	<-entered

	mu.Lock()
	gate = nil
	mu.Unlock()

	_, accepted := s.Build(context.Background(), "Ancient Egypt", 5)
	require.True(t, accepted)

	close(release)
	<-landed

	view := s.View()
	assert.True(t, view.KBReady)
	assert.Equal(t, "Ancient Egypt", view.Topic)
	assert.Equal(t, len(egyptArticles()), view.Status.ArticleCount)
	require.Len(t, view.Transcript, 1)
	assert.Contains(t, view.Transcript[0].Content, "Ancient Egypt")

	p, ok := s.BeginAsk("Who built the pyramids?")
	require.True(t, ok)
	answer, err := s.RunAsk(context.Background(), p)
	assert.True(t, s.ResolveAsk(p, answer, err))

	// A refresh started after the build is applied normally.
	mu.Lock()
	status = readyStatus("Ancient Egypt", 6)
	mu.Unlock()
	view = s.Refresh(context.Background())
	assert.Equal(t, "Ancient Egypt", view.Topic)
	assert.Equal(t, 6, view.Status.ArticleCount)
	assert.Len(t, view.Transcript, 3, "same topic keeps the conversation")
}

func TestSession_RefreshStartedBeforeBuild_FailureStillMarksStale(t *testing.T) {
	backend := newEgyptBackend()
	var mu sync.Mutex
	var gate chan struct{}
	entered := make(chan struct{}, 1)
	backend.statusFn = func(context.Context) (domain.StatusSnapshot, error) {
		mu.Lock()
		g := gate
		mu.Unlock()
		if g != nil {
			entered <- struct{}{}
			<-g
			return domain.StatusSnapshot{}, transportErr("status")
		}
		return readyStatus("Volcanoes", 4), nil
	}
	s := NewSession(backend, SessionConfig{})
	s.Start(context.Background())

	mu.Lock()
	gate = make(chan struct{})
	release := gate
	mu.Unlock()

	landed := make(chan struct{})
	go func() {
		defer close(landed)
		s.Refresh(context.Background())
	}()
	<-entered

	s.Build(context.Background(), "Ancient Egypt", 5)
	close(release)
	<-landed

	view := s.View()
	assert.True(t, view.Stale)
	assert.Equal(t, "Ancient Egypt", view.Topic)
	assert.True(t, view.KBReady)
}

func TestSession_Refresh_FailureKeepsPreviousState(t *testing.T) {
	backend := newMockBackend()
	fail := false
	backend.statusFn = func(context.Context) (domain.StatusSnapshot, error) {
		if fail {
			return domain.StatusSnapshot{}, transportErr("status")
		}
		return readyStatus("Volcanoes", 4), nil
	}
	s := NewSession(backend, SessionConfig{})

	before := s.Start(context.Background())
	fail = true
	after := s.Refresh(context.Background())

	assert.Equal(t, before.KBReady, after.KBReady)
	assert.Equal(t, before.Topic, after.Topic)
	assert.Equal(t, before.Status, after.Status)
	assert.True(t, after.Stale)
}

func TestSession_StaleAnswerDiscarded(t *testing.T) {
	backend := newEgyptBackend()
	backend.statusFn = func(context.Context) (domain.StatusSnapshot, error) {
		return readyStatus("Volcanoes", 4), nil
	}
	s := NewSession(backend, SessionConfig{})
	s.Start(context.Background())

	p, ok := s.BeginAsk("What is magma?")
	require.True(t, ok)

	s.Build(context.Background(), "Ancient Egypt", 5)

	answer, err := s.RunAsk(context.Background(), p)
	assert.False(t, s.ResolveAsk(p, answer, err))

	transcript := s.View().Transcript
	require.Len(t, transcript, 1)
	assert.Contains(t, transcript[0].Content, "Ancient Egypt")
}

func TestSession_Clear(t *testing.T) {
	backend := newEgyptBackend()
	s := NewSession(backend, SessionConfig{})
	s.Build(context.Background(), "Ancient Egypt", 5)
	s.Ask(context.Background(), "Who built the pyramids?")

	require.NoError(t, s.Clear(context.Background()))
	assert.Empty(t, s.View().Transcript)
}

func TestSession_Clear_Failure(t *testing.T) {
	backend := newEgyptBackend()
	backend.clearFn = func(context.Context) (domain.ClearAck, error) {
		return domain.ClearAck{}, transportErr("clear_history")
	}
	s := NewSession(backend, SessionConfig{})
	s.Build(context.Background(), "Ancient Egypt", 5)
	s.Ask(context.Background(), "Who built the pyramids?")

	assert.Error(t, s.Clear(context.Background()))
	assert.Len(t, s.View().Transcript, 3)
}

func TestSession_ClearPhases(t *testing.T) {
	backend := newEgyptBackend()
	s := NewSession(backend, SessionConfig{})
	s.Build(context.Background(), "Ancient Egypt", 5)

	require.True(t, s.BeginClear())
	assert.False(t, s.BeginClear())
	err := s.RunClear(context.Background())
	s.ResolveClear(err)

	assert.Empty(t, s.View().Transcript)
	assert.True(t, s.BeginClear())
}

func TestSession_BuildPhases(t *testing.T) {
	backend := newEgyptBackend()
	s := NewSession(backend, SessionConfig{})

	p, ok := s.BeginBuild("Ancient Egypt", 5)
	require.True(t, ok)
	assert.True(t, s.View().Building)

	_, ok = s.BeginBuild("Volcanoes", 5)
	assert.False(t, ok)

	result, err := s.RunBuild(context.Background(), p)
	outcome := s.CompleteBuild(p, result, err)

	assert.True(t, outcome.Succeeded())
	view := s.View()
	assert.False(t, view.Building)
	require.NotNil(t, view.LastBuild)
	assert.Equal(t, "Ancient Egypt", view.LastBuild.Topic)
}

func TestSession_BuildFailureLeavesReadiness(t *testing.T) {
	backend := newMockBackend()
	backend.buildFn = func(context.Context, string, int) (domain.BuildResult, error) {
		return domain.BuildResult{Success: false, Message: "No articles found"}, nil
	}
	s := NewSession(backend, SessionConfig{})

	outcome, ok := s.Build(context.Background(), "Xyzzy", 5)

	require.True(t, ok)
	assert.Equal(t, "No articles found", outcome.ErrorMessage())
	assert.False(t, s.View().KBReady)
}

func TestSession_Search_DefaultLimit(t *testing.T) {
	backend := newMockBackend()
	var gotLimit int
	backend.searchFn = func(_ context.Context, _ string, limit int) ([]domain.SearchHit, error) {
		gotLimit = limit
		return []domain.SearchHit{{Title: "Nile"}}, nil
	}
	s := NewSession(backend, SessionConfig{SearchLimit: 15})

	hits, err := s.Search(context.Background(), "river", 0)

	require.NoError(t, err)
	assert.Equal(t, []domain.SearchHit{{Title: "Nile"}}, hits)
	assert.Equal(t, 15, gotLimit)
}

func TestSession_Search_Error(t *testing.T) {
	backend := newMockBackend()
	backend.searchFn = func(context.Context, string, int) ([]domain.SearchHit, error) {
		return nil, transportErr("search")
	}
	s := NewSession(backend, SessionConfig{})

	_, err := s.Search(context.Background(), "river", 3)

	assert.True(t, domain.IsTransport(err))
}

func TestSession_History_DoesNotTouchTranscript(t *testing.T) {
	backend := newEgyptBackend()
	backend.historyFn = func(context.Context) ([]domain.Message, error) {
		return []domain.Message{
			domain.NewUserMessage("old question"),
			domain.NewAssistantMessage("old answer", nil),
		}, nil
	}
	s := NewSession(backend, SessionConfig{})
	s.Build(context.Background(), "Ancient Egypt", 5)

	msgs, err := s.History(context.Background())

	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Len(t, s.View().Transcript, 1)
}

func TestSession_ConcurrentAsksAcceptOne(t *testing.T) {
	backend := newEgyptBackend()
	release := make(chan struct{})
	backend.askFn = func(context.Context, string) (domain.Answer, error) {
		<-release
		return domain.Answer{Answer: "ok"}, nil
	}
	s := NewSession(backend, SessionConfig{})
	s.Build(context.Background(), "Ancient Egypt", 5)

	var wg sync.WaitGroup
	accepted := make(chan bool, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accepted <- s.Ask(context.Background(), "question")
		}()
	}

	require.Eventually(t, func() bool { return backend.count("ask") == 1 && s.View().Sending }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()
	close(accepted)

	n := 0
	for ok := range accepted {
		if ok {
			n++
		}
	}
	assert.GreaterOrEqual(t, n, 1)
	assert.Equal(t, n, backend.count("ask"))
}
