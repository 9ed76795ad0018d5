package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/wikiqa-cli/internal/logger"
)

// Ensure Session implements the interface.
var _ driving.SessionService = (*Session)(nil)

// SessionConfig holds per-session defaults.
type SessionConfig struct {
	// MaxArticles is used when a build does not specify a count.
	MaxArticles int

	// SearchLimit is used when a search does not specify a limit.
	SearchLimit int
}

// buildOverride is the readiness and topic announced by the most recent
// BuildCompleted. It wins over the synchronizer until the next
// successful refresh.
type buildOverride struct {
	topic string
}

// Session composes the synchronizer and the two controllers and derives
// the view the UI renders.
//
// Lock order is session.mu before any controller lock. The build listener
// runs outside the build controller's lock.
type Session struct {
	backend driven.Backend
	config  SessionConfig

	sync  *StatusSynchronizer
	build *BuildController
	conv  *ConversationController

	mu       sync.Mutex
	override *buildOverride

	// buildEpoch advances on every BuildCompleted. A refresh that started
	// in an earlier epoch carries a snapshot older than the build.
	buildEpoch uint64
}

// NewSession wires a session around backend.
func NewSession(backend driven.Backend, cfg SessionConfig) *Session {
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = domain.DefaultMaxArticles
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = domain.DefaultSearchLimit
	}

	s := &Session{
		backend: backend,
		config:  cfg,
		sync:    NewStatusSynchronizer(backend),
		build:   NewBuildController(backend),
		conv:    NewConversationController(backend),
	}
	s.build.OnCompleted(s.onBuildCompleted)
	return s
}

// SetMaxArticles changes the default article count for later builds.
func (s *Session) SetMaxArticles(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.config.MaxArticles = n
	}
}

// onBuildCompleted records the override, patches the status and resets
// the conversation for the new topic.
func (s *Session) onBuildCompleted(evt domain.BuildCompleted) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buildEpoch++
	s.override = &buildOverride{topic: evt.Topic}
	s.sync.ApplyBuild(evt)
	s.conv.ObserveTopic(evt.Topic)
	logger.L().Debug("session adopted built topic", zap.String("topic", evt.Topic))
}

// Start performs the initial refresh.
func (s *Session) Start(ctx context.Context) driving.SessionView {
	logger.Debug("session starting")
	return s.Refresh(ctx)
}

// Refresh fetches the backend status and applies it. A successful refresh
// clears the build override; a failed one leaves everything in place.
// A snapshot fetched before a build completed is dropped: the build's
// readiness and topic stand until a refresh started after it lands.
func (s *Session) Refresh(ctx context.Context) driving.SessionView {
	s.mu.Lock()
	epoch := s.buildEpoch
	s.mu.Unlock()

	snap, err := s.backend.FetchStatus(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil && epoch != s.buildEpoch {
		logger.L().Debug("refresh superseded by build",
			zap.String("snapshot_topic", snap.TopicName()),
			zap.Uint64("epoch", epoch),
			zap.Uint64("build_epoch", s.buildEpoch))
		return s.viewLocked()
	}

	state := s.sync.Apply(snap, err)
	if err == nil {
		s.override = nil
		s.conv.ObserveTopic(state.Snapshot.TopicName())
	}
	return s.viewLocked()
}

// View returns the current session state.
func (s *Session) View() driving.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// viewLocked builds the view (caller must hold s.mu).
func (s *Session) viewLocked() driving.SessionView {
	state := s.sync.State()

	ready := state.Snapshot.KBReady
	topic := state.Snapshot.TopicName()
	if s.override != nil {
		ready = true
		topic = s.override.topic
	}

	return driving.SessionView{
		KBReady:    ready,
		Topic:      topic,
		Status:     state.Snapshot,
		Synced:     state.Synced,
		Stale:      state.Stale,
		Building:   s.build.Busy(),
		Sending:    s.conv.Busy(),
		Transcript: s.conv.Transcript(),
		AskErr:     s.conv.LastErr(),
		LastBuild:  s.build.LastOutcome(),
	}
}

// kbReady reports the derived readiness.
func (s *Session) kbReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.override != nil {
		return true
	}
	return s.sync.State().Snapshot.KBReady
}

// BeginBuild accepts a build. A count <= 0 uses the session default.
func (s *Session) BeginBuild(topic string, maxArticles int) (driving.PendingBuild, bool) {
	if maxArticles <= 0 {
		s.mu.Lock()
		maxArticles = s.config.MaxArticles
		s.mu.Unlock()
	}
	p, ok := s.build.Begin(topic, maxArticles)
	if !ok {
		return nil, false
	}
	return p, true
}

// RunBuild performs the backend call for p.
func (s *Session) RunBuild(ctx context.Context, p driving.PendingBuild) (domain.BuildResult, error) {
	pb, ok := p.(*PendingBuild)
	if !ok {
		return domain.BuildResult{}, fmt.Errorf("run build: %w", domain.ErrInvalidInput)
	}
	return s.build.Run(ctx, pb)
}

// CompleteBuild applies the backend result of p.
func (s *Session) CompleteBuild(p driving.PendingBuild, result domain.BuildResult, err error) domain.BuildOutcome {
	pb, _ := p.(*PendingBuild)
	return s.build.Complete(pb, result, err)
}

// Build runs a whole build.
func (s *Session) Build(ctx context.Context, topic string, maxArticles int) (domain.BuildOutcome, bool) {
	p, ok := s.BeginBuild(topic, maxArticles)
	if !ok {
		return domain.BuildOutcome{}, false
	}
	result, err := s.RunBuild(ctx, p)
	return s.CompleteBuild(p, result, err), true
}

// BeginAsk accepts a question when the knowledge base is ready.
func (s *Session) BeginAsk(question string) (driving.PendingAsk, bool) {
	p, ok := s.conv.Begin(question, s.kbReady())
	if !ok {
		return nil, false
	}
	return p, true
}

// RunAsk performs the backend call for p.
func (s *Session) RunAsk(ctx context.Context, p driving.PendingAsk) (domain.Answer, error) {
	pa, ok := p.(*PendingAsk)
	if !ok {
		return domain.Answer{}, fmt.Errorf("run ask: %w", domain.ErrInvalidInput)
	}
	return s.conv.Run(ctx, pa)
}

// ResolveAsk applies the answer for p.
func (s *Session) ResolveAsk(p driving.PendingAsk, answer domain.Answer, err error) bool {
	pa, _ := p.(*PendingAsk)
	return s.conv.Resolve(pa, answer, err)
}

// Ask runs a whole question round-trip.
func (s *Session) Ask(ctx context.Context, question string) bool {
	p, ok := s.BeginAsk(question)
	if !ok {
		return false
	}
	answer, err := s.RunAsk(ctx, p)
	s.ResolveAsk(p, answer, err)
	return true
}

// BeginClear marks a clear as in flight.
func (s *Session) BeginClear() bool {
	return s.conv.BeginClear()
}

// RunClear deletes the backend-owned history.
func (s *Session) RunClear(ctx context.Context) error {
	_, err := s.backend.ClearHistory(ctx)
	return err
}

// ResolveClear wipes the transcript when err is nil.
func (s *Session) ResolveClear(err error) {
	s.conv.ResolveClear(err)
}

// Clear deletes backend history and then the local transcript.
func (s *Session) Clear(ctx context.Context) error {
	return s.conv.Clear(ctx)
}

// Search looks up article titles. A limit <= 0 uses the session default.
func (s *Session) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	if limit <= 0 {
		s.mu.Lock()
		limit = s.config.SearchLimit
		s.mu.Unlock()
	}
	hits, err := s.backend.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return hits, nil
}

// History reads the backend-owned conversation history.
func (s *Session) History(ctx context.Context) ([]domain.Message, error) {
	msgs, err := s.backend.GetHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return msgs, nil
}
