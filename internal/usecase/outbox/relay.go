// Package outbox drains queued notifications to the event bus.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"quorum-lending/internal/domain/event"
	"quorum-lending/pkg/clock"
	"quorum-lending/pkg/logger"
)

// Relay publishes pending outbox rows and marks each one published only after
// the publisher accepted it, so delivery is at least once.
type Relay struct {
	Events    event.Repository
	Publisher event.Publisher
	Clock     clock.Clock
	BatchSize int
	Interval  time.Duration
}

// RunOnce publishes one bounded batch in occurrence order and stops at the
// first failure; the next cycle retries from that row.
func (r Relay) RunOnce(ctx context.Context) (int, error) {
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Events.ListPending(ctx, limit)
	if err != nil {
		logger.CtxError(ctx, "outbox list failed", err)
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	published := 0
	for i := range pending {
		e := &pending[i]
		if err := r.Publisher.Publish(ctx, e); err != nil {
			logger.CtxError(ctx, "outbox publish failed", err,
				slog.String("event_id", e.ID),
				slog.String("event_type", string(e.Type)),
			)
			return published, err
		}
		if err := r.Events.MarkPublished(ctx, e.ID, r.now()); err != nil {
			logger.CtxError(ctx, "outbox mark published failed", err, slog.String("event_id", e.ID))
			return published, err
		}
		published++
	}

	logger.CtxDebug(ctx, "outbox relay cycle completed", slog.Int("published_count", published))
	return published, nil
}

// Run repeats RunOnce every Interval until ctx is done. Cycle errors are
// logged by RunOnce and retried on the next tick.
func (r Relay) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.CtxInfo(ctx, "outbox relay started", slog.Duration("interval", interval))
	for {
		_, _ = r.RunOnce(ctx)
		select {
		case <-ctx.Done():
			logger.CtxInfo(ctx, "outbox relay stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (r Relay) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
