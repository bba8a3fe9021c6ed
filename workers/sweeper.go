package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DraftStore is the part of the wizard registry the sweeper needs.
type DraftStore interface {
	Sweep(idle time.Duration) int
	Len() int
}

// DraftSweeper drops wizard drafts nobody has touched for longer than ttl.
type DraftSweeper struct {
	drafts    DraftStore
	ttl       time.Duration
	triggerCh chan struct{}
	logger    *zap.Logger
}

func NewDraftSweeper(drafts DraftStore, ttl time.Duration, logger *zap.Logger) *DraftSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftSweeper{
		drafts:    drafts,
		ttl:       ttl,
		triggerCh: make(chan struct{}, 1),
		logger:    logger.Named("sweeper"),
	}
}

// Trigger asks the worker to sweep now. Calls made while a sweep is already
// pending are coalesced.
func (w *DraftSweeper) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run sweeps on every trigger until ctx is done.
func (w *DraftSweeper) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("draft sweeper stopping")
			return
		case <-w.triggerCh:
			w.SweepOnce()
		}
	}
}

// SweepOnce runs a single pass and returns how many drafts were dropped.
func (w *DraftSweeper) SweepOnce() int {
	removed := w.drafts.Sweep(w.ttl)
	if removed > 0 {
		w.logger.Info("expired wizard drafts",
			zap.Int("removed", removed),
			zap.Int("remaining", w.drafts.Len()),
			zap.Duration("ttl", w.ttl))
	}
	return removed
}
