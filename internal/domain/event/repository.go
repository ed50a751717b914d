package event

import (
	"context"
	"fmt"
	"time"
)

type Repository interface {
	Append(ctx context.Context, e *Event) error
	ListPending(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	// List returns events matching f in occurrence order.
	List(ctx context.Context, f Filter) ([]Event, error)
}

type Publisher interface {
	Publish(ctx context.Context, e *Event) error
}

// Record builds an event and queues it on repo, normally the one bound to the
// transaction that caused it.
func Record(ctx context.Context, repo Repository, t Type, loanID uint64, principal string, data any, at time.Time) error {
	e, err := New(t, loanID, principal, data, at)
	if err != nil {
		return fmt.Errorf("build %s event: %w", t, err)
	}
	return repo.Append(ctx, e)
}
