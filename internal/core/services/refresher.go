package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/custodia-labs/wikiqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/wikiqa-cli/internal/logger"
)

// Refresher is the part of the session a StatusRefresher drives.
type Refresher interface {
	Refresh(ctx context.Context) driving.SessionView
}

// StatusRefresher re-synchronizes a session on a fixed interval so
// long-running surfaces converge to backend truth without user action.
type StatusRefresher struct {
	target   Refresher
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewStatusRefresher creates a refresher. An interval <= 0 disables it.
func NewStatusRefresher(target Refresher, interval time.Duration) *StatusRefresher {
	return &StatusRefresher{target: target, interval: interval}
}

// Start runs the refresh loop until ctx is done or Stop is called.
// It blocks; a Start issued while a loop is running, or still winding
// down after Stop, returns immediately.
func (r *StatusRefresher) Start(ctx context.Context) error {
	if r.interval <= 0 {
		return nil
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.done = make(chan struct{})
	stopCh, done := r.stopCh, r.done
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.done == done {
			r.running = false
		}
		r.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			view := r.target.Refresh(ctx)
			logger.L().Debug("periodic refresh",
				zap.Bool("kb_ready", view.KBReady),
				zap.Bool("stale", view.Stale))
		}
	}
}

// Stop ends a running loop and waits for it to return. The loop itself
// clears running on exit.
func (r *StatusRefresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
	done := r.done
	r.mu.Unlock()

	<-done
}
