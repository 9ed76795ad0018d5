package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/wikiqa-cli/internal/core/domain"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/wikiqa-cli/internal/logger"
)

// Ensure PendingAsk implements the interface.
var _ driving.PendingAsk = (*PendingAsk)(nil)

// PendingAsk is an accepted question awaiting its answer. It is tagged
// with the topic generation active when it was issued.
type PendingAsk struct {
	id         string
	generation uint64
	topic      string
	question   string
}

// ID returns the question's unique identifier.
func (p *PendingAsk) ID() string { return p.id }

// Question returns the trimmed question text.
func (p *PendingAsk) Question() string { return p.question }

// Topic returns the topic that was active when the question was sent.
func (p *PendingAsk) Topic() string { return p.topic }

// ConversationController drives the question/answer loop. It exclusively
// owns the transcript.
type ConversationController struct {
	backend driven.Backend

	mu         sync.Mutex
	transcript []domain.Message
	topic      string
	generation uint64
	inflight   *PendingAsk
	clearing   bool
	lastErr    error
}

// NewConversationController creates a controller with an empty transcript.
func NewConversationController(backend driven.Backend) *ConversationController {
	return &ConversationController{
		backend:    backend,
		transcript: []domain.Message{},
	}
}

// ObserveTopic reacts to the active topic. A new non-empty topic that
// differs from the current one replaces the transcript with a single
// greeting and abandons any in-flight question. It reports whether a
// reset happened.
func (c *ConversationController) ObserveTopic(topic string) bool {
	if topic == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if topic == c.topic {
		return false
	}

	c.topic = topic
	c.generation++
	c.transcript = []domain.Message{domain.NewAssistantMessage(domain.GreetingFor(topic), nil)}
	if c.inflight != nil {
		logger.L().Debug("topic changed with question in flight",
			zap.String("ask_id", c.inflight.id),
			zap.String("old_topic", c.inflight.topic),
			zap.String("new_topic", topic))
	}
	c.inflight = nil
	c.lastErr = nil
	logger.L().Info("conversation reset", zap.String("topic", topic), zap.Uint64("generation", c.generation))
	return true
}

// Begin appends the user message and accepts the question. It returns
// false, changing nothing, when the question is empty or whitespace, a
// question is already in flight, or the knowledge base is not ready.
func (c *ConversationController) Begin(question string, kbReady bool) (*PendingAsk, bool) {
	question = strings.TrimSpace(question)
	if question == "" {
		logger.Debug("ask rejected: %v", domain.ErrEmptyInput)
		return nil, false
	}
	if !kbReady {
		logger.Debug("ask rejected: %v", domain.ErrNotReady)
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight != nil {
		logger.Debug("ask rejected: %v", domain.ErrBusy)
		return nil, false
	}

	p := &PendingAsk{
		id:         uuid.NewString(),
		generation: c.generation,
		topic:      c.topic,
		question:   question,
	}
	c.inflight = p
	c.lastErr = nil
	c.transcript = append(c.transcript, domain.NewUserMessage(question))
	logger.L().Debug("ask sent", zap.String("ask_id", p.id), zap.String("topic", p.topic))
	return p, true
}

// Run performs the backend call for p.
func (c *ConversationController) Run(ctx context.Context, p *PendingAsk) (domain.Answer, error) {
	return c.backend.Ask(ctx, p.question)
}

// Resolve applies the backend response for p. Responses for a superseded
// topic, or for a question that is no longer in flight, are discarded and
// Resolve returns false. Failures are appended as in-band error messages.
func (c *ConversationController) Resolve(p *PendingAsk, answer domain.Answer, err error) bool {
	if p == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if p.generation != c.generation || c.inflight != p {
		logger.L().Info("ask discarded: stale topic",
			zap.String("ask_id", p.id),
			zap.String("asked_topic", p.topic),
			zap.String("current_topic", c.topic))
		return false
	}

	c.inflight = nil
	c.lastErr = err
	if err != nil {
		logger.L().Warn("ask failed", zap.String("ask_id", p.id), zap.Error(err))
		c.transcript = append(c.transcript, domain.NewAssistantMessage(domain.ErrorContent(err), nil))
		return true
	}

	sources := append([]domain.SourceRef{}, answer.Sources...)
	c.transcript = append(c.transcript, domain.NewAssistantMessage(answer.Answer, sources))
	logger.L().Debug("ask answered", zap.String("ask_id", p.id), zap.Int("sources", len(sources)))
	return true
}

// Ask runs a whole question round-trip and reports whether it was accepted.
func (c *ConversationController) Ask(ctx context.Context, question string, kbReady bool) bool {
	p, ok := c.Begin(question, kbReady)
	if !ok {
		return false
	}
	answer, err := c.Run(ctx, p)
	c.Resolve(p, answer, err)
	return true
}

// BeginClear marks a clear as in flight. It returns false when one already is.
func (c *ConversationController) BeginClear() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearing {
		return false
	}
	c.clearing = true
	return true
}

// ResolveClear applies the backend response to a clear request. The
// transcript is wiped only on acknowledgement; on failure it is left
// exactly as it was. A wipe also abandons any in-flight question so its
// late answer cannot land in the emptied transcript.
func (c *ConversationController) ResolveClear(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearing = false
	if err != nil {
		logger.L().Warn("clear failed, transcript kept", zap.Error(err))
		return
	}
	c.transcript = []domain.Message{}
	c.generation++
	c.inflight = nil
	c.lastErr = nil
	logger.L().Info("conversation cleared", zap.Uint64("generation", c.generation))
}

// Clear deletes backend history and then the local transcript.
func (c *ConversationController) Clear(ctx context.Context) error {
	if !c.BeginClear() {
		return fmt.Errorf("clear: %w", domain.ErrBusy)
	}
	_, err := c.backend.ClearHistory(ctx)
	c.ResolveClear(err)
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// Transcript returns a copy of the transcript.
func (c *ConversationController) Transcript() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Message{}, c.transcript...)
}

// LastErr returns the failure behind the latest resolved question, or
// nil when it was answered or nothing has resolved since the last reset.
func (c *ConversationController) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Busy reports whether a question is in flight.
func (c *ConversationController) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != nil
}

// Topic returns the topic the transcript belongs to.
func (c *ConversationController) Topic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topic
}
