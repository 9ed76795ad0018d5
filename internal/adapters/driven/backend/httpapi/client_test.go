package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
)

// newTestClient starts a server with handler and returns a client pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, domain.DefaultBaseURL, c.BaseURL())
	assert.Nil(t, c.limiter)

	c = NewClient(Config{BaseURL: "http://example.test/", RequestsPerSecond: 2})
	assert.Equal(t, "http://example.test", c.BaseURL())
	assert.NotNil(t, c.limiter)
}

func TestConfigFromSettings(t *testing.T) {
	s := domain.DefaultClientSettings()
	s.RequestsPerSecond = 3
	cfg := ConfigFromSettings(s)
	assert.Equal(t, s.BaseURL, cfg.BaseURL)
	assert.Equal(t, s.Timeout, cfg.Timeout)
	assert.InDelta(t, 3.0, cfg.RequestsPerSecond, 0.0001)
}

func TestClient_FetchStatus(t *testing.T) {
	t.Run("decodes snapshot", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/status", r.URL.Path)
			assert.NotEmpty(t, r.Header.Get(HeaderRequestID))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"kb_ready":true,"topic":"Ancient Egypt","article_count":5,
				"document_count":42,"conversation_length":2,
				"articles":[{"title":"Pyramid","url":"https://en.wikipedia.org/wiki/Pyramid","summary":"A pyramid..."}]}`))
		})

		snap, err := c.FetchStatus(context.Background())

		require.NoError(t, err)
		assert.True(t, snap.KBReady)
		assert.Equal(t, "Ancient Egypt", snap.TopicName())
		assert.Equal(t, 5, snap.ArticleCount)
		assert.Equal(t, 42, snap.DocumentCount)
		assert.Equal(t, 2, snap.ConversationLength)
		require.Len(t, snap.Articles, 1)
		assert.True(t, snap.Articles[0].HasSummary())
	})

	t.Run("null topic", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"kb_ready":false,"topic":null,"article_count":0,"document_count":0,"conversation_length":0,"articles":[]}`))
		})

		snap, err := c.FetchStatus(context.Background())

		require.NoError(t, err)
		assert.False(t, snap.KBReady)
		assert.Nil(t, snap.Topic)
	})

	t.Run("non-2xx is transport error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := c.FetchStatus(context.Background())

		var te *domain.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "status", te.Op)
		assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
		assert.Equal(t, "Failed to fetch status", te.Error())
	})

	t.Run("network failure is transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		c := NewClient(Config{BaseURL: url})

		_, err := c.FetchStatus(context.Background())

		var te *domain.TransportError
		require.ErrorAs(t, err, &te)
		assert.Zero(t, te.StatusCode)
		assert.Error(t, errors.Unwrap(te))
	})
}

func TestClient_Search(t *testing.T) {
	t.Run("sends query and limit", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/search", r.URL.Path)
			assert.Equal(t, "climate change", r.URL.Query().Get("q"))
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			writeJSON(t, w, http.StatusOK, map[string]any{"titles": []string{"Climate change", "Global warming"}})
		})

		hits, err := c.Search(context.Background(), "climate change", 3)

		require.NoError(t, err)
		assert.Equal(t, []domain.SearchHit{{Title: "Climate change"}, {Title: "Global warming"}}, hits)
	})

	t.Run("default limit", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			writeJSON(t, w, http.StatusOK, map[string]any{"titles": []string{}})
		})

		hits, err := c.Search(context.Background(), "x", 0)

		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := c.Search(context.Background(), "x", 1)

		assert.True(t, domain.IsTransport(err))
		assert.Contains(t, err.Error(), "Search failed")
	})
}

func TestClient_Build(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var req buildRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Ancient Egypt", req.Topic)
			assert.Equal(t, 5, req.MaxArticles)
			writeJSON(t, w, http.StatusOK, map[string]any{
				"success":        true,
				"message":        `Indexed 1 articles on "Ancient Egypt"`,
				"articles":       []map[string]string{{"title": "Pyramid", "url": "u", "summary": ""}},
				"document_count": 42,
			})
		})

		result, err := c.Build(context.Background(), "Ancient Egypt", 0)

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 42, result.DocumentCount)
		require.Len(t, result.Articles, 1)
		assert.False(t, result.Articles[0].HasSummary())
	})

	t.Run("domain failure is not an error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"success": false, "message": "No articles found for this topic",
				"articles": []any{}, "document_count": 0,
			})
		})

		result, err := c.Build(context.Background(), "zzzz", 5)

		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "No articles found for this topic", result.Message)
	})

	t.Run("transport failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := c.Build(context.Background(), "x", 5)

		var te *domain.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "build", te.Op)
		assert.Equal(t, "Build failed", te.Message)
	})
}

func TestClient_Ask(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var req askRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "What caused the pyramids?", req.Question)
			writeJSON(t, w, http.StatusOK, map[string]any{
				"answer":  "Pharaohs built them as tombs [1].",
				"sources": []map[string]any{{"title": "Pyramid", "url": "u", "relevance_score": 0.92}},
			})
		})

		answer, err := c.Ask(context.Background(), "What caused the pyramids?")

		require.NoError(t, err)
		assert.Equal(t, "Pharaohs built them as tombs [1].", answer.Answer)
		require.Len(t, answer.Sources, 1)
		assert.Equal(t, 92, answer.Sources[0].RelevancePercent())
	})

	t.Run("detail extracted from body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusInternalServerError, map[string]string{"detail": "LLM unavailable"})
		})

		_, err := c.Ask(context.Background(), "q")

		var ae *domain.AskError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, http.StatusInternalServerError, ae.StatusCode)
		assert.Equal(t, "LLM unavailable", ae.Detail)
	})

	t.Run("generic message without detail", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("not json"))
		})

		_, err := c.Ask(context.Background(), "q")

		require.Error(t, err)
		assert.Equal(t, domain.GenericAskFailure, err.Error())
	})

	t.Run("nil sources normalised", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{"answer": "a"})
		})

		answer, err := c.Ask(context.Background(), "q")

		require.NoError(t, err)
		assert.NotNil(t, answer.Sources)
	})
}

func TestClient_GetHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`[
			{"role":"user","content":"q","sources":[],"timestamp":"2026-03-01T10:00:00.123456"},
			{"role":"assistant","content":"a","sources":[{"title":"T","url":"u","relevance_score":0.5}],"timestamp":"2026-03-01T10:00:01Z"},
			{"role":"system","content":"skipped","sources":[],"timestamp":""}
		]`))
	})

	msgs, err := c.GetHistory(context.Background())

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 123456000, time.UTC), msgs[0].Timestamp)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Len(t, msgs[1].Sources, 1)
}

func TestClient_ClearHistory(t *testing.T) {
	t.Run("ack", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			writeJSON(t, w, http.StatusOK, map[string]string{"message": "Conversation cleared"})
		})

		ack, err := c.ClearHistory(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "Conversation cleared", ack.Message)
	})

	t.Run("failure", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := c.ClearHistory(context.Background())

		var te *domain.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "Failed to clear history", te.Message)
	})
}

func TestClient_RateLimitRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"titles": []string{}})
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, RequestsPerSecond: 0.001})

	_, err := c.Search(context.Background(), "first", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Search(ctx, "second", 1)

	assert.True(t, domain.IsTransport(err))
}

func TestParseTimestamp(t *testing.T) {
	assert.True(t, parseTimestamp("").IsZero())
	assert.True(t, parseTimestamp("yesterday").IsZero())
	assert.Equal(t, 2026, parseTimestamp("2026-01-02T03:04:05").Year())
}
