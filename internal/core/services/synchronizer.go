package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/wikiqa-cli/internal/logger"
)

// SyncState is the synchronizer's last-known-good cache.
type SyncState struct {
	// Snapshot is the most recent successfully fetched (or patched) status.
	Snapshot domain.StatusSnapshot

	// Synced is true once any refresh has succeeded.
	Synced bool

	// Stale is true when the latest refresh failed after an earlier success.
	Stale bool

	// LastError is the error of the latest failed refresh, cleared on success.
	LastError error

	// RefreshedAt is the time of the latest successful refresh.
	RefreshedAt time.Time
}

// StatusSynchronizer holds the single source of truth for knowledge base
// status. Refresh failures never surface: the previous snapshot is kept
// so the client stays usable while the backend is unreachable.
type StatusSynchronizer struct {
	backend driven.Backend
	now     func() time.Time

	mu    sync.RWMutex
	state SyncState
}

// NewStatusSynchronizer creates a synchronizer with an empty snapshot.
func NewStatusSynchronizer(backend driven.Backend) *StatusSynchronizer {
	return &StatusSynchronizer{
		backend: backend,
		now:     time.Now,
		state: SyncState{
			Snapshot: domain.StatusSnapshot{Articles: []domain.ArticleRef{}},
		},
	}
}

// Refresh fetches the backend status and applies it.
func (s *StatusSynchronizer) Refresh(ctx context.Context) SyncState {
	snap, err := s.backend.FetchStatus(ctx)
	return s.Apply(snap, err)
}

// Apply records the outcome of a status fetch. On success the snapshot is
// replaced wholesale; on failure it is preserved and marked stale if it
// had been synced before.
func (s *StatusSynchronizer) Apply(snap domain.StatusSnapshot, err error) SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		logger.L().Warn("status refresh failed, keeping last-known-good",
			zap.Error(err), zap.Bool("synced", s.state.Synced))
		s.state.LastError = err
		s.state.Stale = s.state.Synced
		return s.copyState()
	}

	if snap.Articles == nil {
		snap.Articles = []domain.ArticleRef{}
	}
	s.state = SyncState{
		Snapshot:    snap.Clone(),
		Synced:      true,
		RefreshedAt: s.now(),
	}
	logger.L().Debug("status refreshed",
		zap.Bool("kb_ready", snap.KBReady),
		zap.String("topic", snap.TopicName()),
		zap.Int("articles", snap.ArticleCount))
	return s.copyState()
}

// ApplyBuild optimistically patches the snapshot from a completed build.
// Counters come from the backend's build result; the next refresh
// replaces them with the backend's own status.
func (s *StatusSynchronizer) ApplyBuild(evt domain.BuildCompleted) SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles := append([]domain.ArticleRef{}, evt.Articles...)
	snap := s.state.Snapshot
	snap.KBReady = true
	snap.Topic = domain.StringPtr(evt.Topic)
	snap.ArticleCount = len(articles)
	snap.DocumentCount = evt.DocumentCount
	snap.Articles = articles
	snap.ConversationLength = 0
	s.state.Snapshot = snap
	return s.copyState()
}

// State returns the most recent state.
func (s *StatusSynchronizer) State() SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyState()
}

// copyState returns a deep copy (caller must hold lock).
func (s *StatusSynchronizer) copyState() SyncState {
	out := s.state
	out.Snapshot = s.state.Snapshot.Clone()
	return out
}
