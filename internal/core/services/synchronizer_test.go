package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
)

func TestStatusSynchronizer_InitialState(t *testing.T) {
	s := NewStatusSynchronizer(newMockBackend())

	state := s.State()
	assert.False(t, state.Synced)
	assert.False(t, state.Stale)
	assert.False(t, state.Snapshot.KBReady)
	assert.NotNil(t, state.Snapshot.Articles)
	assert.Empty(t, state.Snapshot.Articles)
}

func TestStatusSynchronizer_Refresh_ReplacesSnapshot(t *testing.T) {
	backend := newMockBackend()
	backend.statusFn = func(context.Context) (domain.StatusSnapshot, error) {
		return readyStatus("Volcanoes", 4), nil
	}
	s := NewStatusSynchronizer(backend)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	state := s.Refresh(context.Background())

	assert.True(t, state.Synced)
	assert.False(t, state.Stale)
	assert.NoError(t, state.LastError)
	assert.True(t, state.Snapshot.KBReady)
	assert.Equal(t, "Volcanoes", state.Snapshot.TopicName())
	assert.Equal(t, 4, state.Snapshot.ArticleCount)
	assert.Equal(t, fixed, state.RefreshedAt)
}

func TestStatusSynchronizer_Refresh_FailureBeforeAnySync(t *testing.T) {
	backend := newMockBackend()
	backend.statusFn = func(context.Context) (domain.StatusSnapshot, error) {
		return domain.StatusSnapshot{}, transportErr("status")
	}
	s := NewStatusSynchronizer(backend)

	state := s.Refresh(context.Background())

	assert.False(t, state.Synced)
	assert.False(t, state.Stale, "never synced is not stale")
	assert.Error(t, state.LastError)
	assert.False(t, state.Snapshot.KBReady)
}

func TestStatusSynchronizer_Refresh_FailureKeepsLastKnownGood(t *testing.T) {
	backend := newMockBackend()
	fail := false
	backend.statusFn = func(context.Context) (domain.StatusSnapshot, error) {
		if fail {
			return domain.StatusSnapshot{}, transportErr("status")
		}
		return readyStatus("Volcanoes", 4), nil
	}
	s := NewStatusSynchronizer(backend)

	first := s.Refresh(context.Background())
	fail = true
	second := s.Refresh(context.Background())

	assert.True(t, second.Synced)
	assert.True(t, second.Stale)
	assert.True(t, domain.IsTransport(second.LastError))
	assert.Equal(t, first.Snapshot, second.Snapshot)

	// Recovery clears the stale flag.
	fail = false
	third := s.Refresh(context.Background())
	assert.False(t, third.Stale)
	assert.NoError(t, third.LastError)
}

func TestStatusSynchronizer_Refresh_NilArticlesNormalised(t *testing.T) {
	backend := newMockBackend()
	backend.statusFn = func(context.Context) (domain.StatusSnapshot, error) {
		return domain.StatusSnapshot{KBReady: false}, nil
	}
	s := NewStatusSynchronizer(backend)

	state := s.Refresh(context.Background())

	assert.NotNil(t, state.Snapshot.Articles)
}

func TestStatusSynchronizer_ApplyBuild_PatchesSnapshot(t *testing.T) {
	backend := newMockBackend()
	backend.statusFn = func(context.Context) (domain.StatusSnapshot, error) {
		snap := readyStatus("Volcanoes", 4)
		snap.ConversationLength = 6
		return snap, nil
	}
	s := NewStatusSynchronizer(backend)
	s.Refresh(context.Background())

	state := s.ApplyBuild(domain.BuildCompleted{
		Topic:         "Ancient Egypt",
		Articles:      egyptArticles(),
		DocumentCount: 42,
	})

	assert.True(t, state.Snapshot.KBReady)
	assert.Equal(t, "Ancient Egypt", state.Snapshot.TopicName())
	assert.Equal(t, 5, state.Snapshot.ArticleCount)
	assert.Equal(t, 42, state.Snapshot.DocumentCount)
	assert.Equal(t, 0, state.Snapshot.ConversationLength)
	assert.Len(t, state.Snapshot.Articles, 5)
	assert.True(t, state.Synced)
}

func TestStatusSynchronizer_State_ReturnsCopy(t *testing.T) {
	s := NewStatusSynchronizer(newMockBackend())
	s.ApplyBuild(domain.BuildCompleted{Topic: "Nile", Articles: egyptArticles()})

	state := s.State()
	require.NotEmpty(t, state.Snapshot.Articles)
	state.Snapshot.Articles[0].Title = "mutated"
	*state.Snapshot.Topic = "mutated"

	again := s.State()
	assert.Equal(t, "Ancient Egypt", again.Snapshot.Articles[0].Title)
	assert.Equal(t, "Nile", again.Snapshot.TopicName())
}
