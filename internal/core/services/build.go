package services

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/wikiqa-cli/internal/logger"
)

// Ensure PendingBuild implements the interface.
var _ driving.PendingBuild = (*PendingBuild)(nil)

// PendingBuild is an accepted build awaiting its backend call.
// It carries the requested topic through to the completion event.
type PendingBuild struct {
	id          string
	topic       string
	maxArticles int
}

// ID returns the build's unique identifier.
func (p *PendingBuild) ID() string { return p.id }

// Topic returns the trimmed topic supplied to the build.
func (p *PendingBuild) Topic() string { return p.topic }

// MaxArticles returns the requested article count.
func (p *PendingBuild) MaxArticles() int { return p.maxArticles }

// BuildListener receives BuildCompleted events.
type BuildListener func(domain.BuildCompleted)

// BuildController drives the "construct knowledge base for topic X" workflow.
type BuildController struct {
	backend driven.Backend

	mu       sync.Mutex
	state    domain.BuildState
	current  *PendingBuild
	last     *domain.BuildOutcome
	listener BuildListener
}

// NewBuildController creates an idle build controller.
func NewBuildController(backend driven.Backend) *BuildController {
	return &BuildController{
		backend: backend,
		state:   domain.BuildIdle,
	}
}

// OnCompleted registers the listener for BuildCompleted events.
// Only one listener is kept; the Session registers itself.
func (b *BuildController) OnCompleted(fn BuildListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listener = fn
}

// Begin accepts a build. It returns false, changing nothing, when the
// topic is empty or whitespace or a build is already in flight.
func (b *BuildController) Begin(topic string, maxArticles int) (*PendingBuild, bool) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		logger.Debug("build rejected: %v", domain.ErrEmptyInput)
		return nil, false
	}
	if maxArticles <= 0 {
		maxArticles = domain.DefaultMaxArticles
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == domain.BuildBuilding {
		logger.Debug("build rejected: %v", domain.ErrBusy)
		return nil, false
	}

	p := &PendingBuild{id: uuid.NewString(), topic: topic, maxArticles: maxArticles}
	b.state = domain.BuildBuilding
	b.current = p
	logger.L().Info("build submitted",
		zap.String("build_id", p.id),
		zap.String("topic", topic),
		zap.Int("max_articles", maxArticles))
	return p, true
}

// Run performs the backend call for p.
func (b *BuildController) Run(ctx context.Context, p *PendingBuild) (domain.BuildResult, error) {
	return b.backend.Build(ctx, p.topic, p.maxArticles)
}

// Complete interprets the backend response for p and returns the
// controller to idle. A successful build emits exactly one
// BuildCompleted carrying p's topic. Completing a build that is not
// the one in flight has no effect.
func (b *BuildController) Complete(p *PendingBuild, result domain.BuildResult, err error) domain.BuildOutcome {
	outcome := interpretBuild(p, result, err)

	b.mu.Lock()
	if p == nil || b.current != p {
		b.mu.Unlock()
		logger.Warn("build completion ignored: not the build in flight")
		return outcome
	}
	b.state = domain.BuildIdle
	b.current = nil
	b.last = &outcome
	listener := b.listener
	b.mu.Unlock()

	if outcome.Succeeded() {
		logger.L().Info("build completed",
			zap.String("build_id", p.id),
			zap.String("topic", p.topic),
			zap.Int("articles", outcome.Event.ArticleCount()),
			zap.Int("documents", outcome.Event.DocumentCount))
		if listener != nil {
			listener(*outcome.Event)
		}
	} else {
		logger.L().Warn("build failed",
			zap.String("build_id", p.id),
			zap.String("topic", p.topic),
			zap.Error(outcome.Err))
	}
	return outcome
}

// Submit runs a whole build: Begin, the backend call, then Complete.
func (b *BuildController) Submit(ctx context.Context, topic string, maxArticles int) (domain.BuildOutcome, bool) {
	p, ok := b.Begin(topic, maxArticles)
	if !ok {
		return domain.BuildOutcome{}, false
	}
	result, err := b.Run(ctx, p)
	return b.Complete(p, result, err), true
}

// State returns the controller state.
func (b *BuildController) State() domain.BuildState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Busy reports whether a build is in flight.
func (b *BuildController) Busy() bool {
	return b.State() == domain.BuildBuilding
}

// LastOutcome returns the outcome of the most recent build, or nil.
func (b *BuildController) LastOutcome() *domain.BuildOutcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return nil
	}
	out := *b.last
	return &out
}

// interpretBuild maps a backend response onto an outcome.
func interpretBuild(p *PendingBuild, result domain.BuildResult, err error) domain.BuildOutcome {
	topic := ""
	if p != nil {
		topic = p.topic
	}

	switch {
	case err != nil:
		return domain.BuildOutcome{State: domain.BuildFailed, Topic: topic, Err: err}
	case !result.Success:
		return domain.BuildOutcome{
			State: domain.BuildFailed,
			Topic: topic,
			Err:   &domain.DomainFailure{Reason: result.Message},
		}
	default:
		articles := result.Articles
		if articles == nil {
			articles = []domain.ArticleRef{}
		}
		return domain.BuildOutcome{
			State: domain.BuildSucceeded,
			Topic: topic,
			Event: &domain.BuildCompleted{
				Topic:         topic,
				Message:       result.Message,
				Articles:      articles,
				DocumentCount: result.DocumentCount,
			},
		}
	}
}
