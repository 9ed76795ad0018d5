package driving

import (
	"context"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
)

// SessionView is a consistent read of the whole session at one instant.
type SessionView struct {
	// KBReady is the derived readiness flag.
	KBReady bool

	// Topic is the derived active topic, empty when none.
	Topic string

	// Status is the synchronizer's last-known snapshot.
	Status domain.StatusSnapshot

	// Synced is true once any refresh has succeeded.
	Synced bool

	// Stale is true when the latest refresh failed after an earlier success.
	Stale bool

	// Building is true while a build is in flight.
	Building bool

	// Sending is true while a question is in flight.
	Sending bool

	// Transcript is a copy of the conversation transcript.
	Transcript []domain.Message

	// AskErr is the failure behind the latest resolved question, nil when
	// it was answered. The same failure is in Transcript as an in-band
	// message.
	AskErr error

	// LastBuild is the outcome of the most recent build, if any.
	LastBuild *domain.BuildOutcome
}

// PendingBuild is a build that has been accepted and awaits its backend call.
type PendingBuild interface {
	// Topic is the trimmed topic supplied to the build.
	Topic() string

	// MaxArticles is the requested article count.
	MaxArticles() int
}

// PendingAsk is a question that has been accepted and awaits its answer.
type PendingAsk interface {
	// Question is the trimmed question text.
	Question() string
}

// SessionService is the session orchestration entry point for UI adapters.
//
// Begin/Complete pairs split each workflow at its suspension point so that
// event-loop adapters can run the backend call asynchronously and apply the
// result on their own loop. Blocking variants run both phases in sequence.
type SessionService interface {
	// Start performs the initial status refresh.
	Start(ctx context.Context) SessionView

	// Refresh re-synchronizes with the backend. Failures are swallowed.
	Refresh(ctx context.Context) SessionView

	// View returns the current session state.
	View() SessionView

	// BeginBuild accepts a build, or returns false for a silent rejection.
	BeginBuild(topic string, maxArticles int) (PendingBuild, bool)

	// RunBuild performs the backend call for a pending build.
	RunBuild(ctx context.Context, p PendingBuild) (domain.BuildResult, error)

	// CompleteBuild applies the backend result of a pending build.
	CompleteBuild(p PendingBuild, result domain.BuildResult, err error) domain.BuildOutcome

	// Build runs a whole build and reports whether it was accepted.
	Build(ctx context.Context, topic string, maxArticles int) (domain.BuildOutcome, bool)

	// BeginAsk appends the user message and accepts the question, or
	// returns false for a silent rejection.
	BeginAsk(question string) (PendingAsk, bool)

	// RunAsk performs the backend call for a pending question.
	RunAsk(ctx context.Context, p PendingAsk) (domain.Answer, error)

	// ResolveAsk applies the answer. It returns false when the response
	// was discarded because the topic changed meanwhile.
	ResolveAsk(p PendingAsk, answer domain.Answer, err error) bool

	// Ask runs a whole question round-trip and reports whether it was accepted.
	Ask(ctx context.Context, question string) bool

	// BeginClear marks a clear as in flight, or returns false when one is.
	BeginClear() bool

	// RunClear deletes the backend-owned history.
	RunClear(ctx context.Context) error

	// ResolveClear wipes the local transcript when err is nil.
	ResolveClear(err error)

	// Clear deletes backend history and then the local transcript.
	// On failure the transcript is unchanged and the error is returned.
	Clear(ctx context.Context) error

	// Search looks up article titles. A limit <= 0 uses the default.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)

	// History reads the backend-owned conversation history. It does not
	// touch the local transcript.
	History(ctx context.Context) ([]domain.Message, error)
}
