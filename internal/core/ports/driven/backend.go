package driven

import (
	"context"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
)

// Backend is the remote knowledge-retrieval and answer-generation service.
//
// Implementations perform exactly one request per call: no retry, no
// caching. Non-success responses are translated into *domain.TransportError,
// except Ask which fails with *domain.AskError.
type Backend interface {
	// FetchStatus returns the backend's current knowledge base snapshot.
	FetchStatus(ctx context.Context) (domain.StatusSnapshot, error)

	// Search looks up article titles matching query.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)

	// Build constructs the knowledge base for topic. A result with
	// Success == false is a successful call reporting a domain failure.
	Build(ctx context.Context, topic string, maxArticles int) (domain.BuildResult, error)

	// Ask answers a question against the current knowledge base.
	Ask(ctx context.Context, question string) (domain.Answer, error)

	// GetHistory returns the backend-owned conversation history.
	GetHistory(ctx context.Context) ([]domain.Message, error)

	// ClearHistory deletes the backend-owned conversation history.
	ClearHistory(ctx context.Context) (domain.ClearAck, error)
}
