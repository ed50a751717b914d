package mysql

import (
	"context"
	"errors"
	"time"

	"quorum-lending/internal/domain/event"

	"gorm.io/gorm"
)

var errEventNotFound = errors.New("outbox event not found")

type EventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) *EventRepository { return &EventRepository{db: db} }

func (r *EventRepository) Append(ctx context.Context, e *event.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) ListPending(ctx context.Context, limit int) ([]event.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []event.Event{}
	err := r.db.WithContext(ctx).
		Where("status = ?", event.StatusPending).
		Order("seq ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *EventRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&event.Event{}).
		Where("event_id = ? AND status = ?", id, event.StatusPending).
		Updates(map[string]any{
			"status":       event.StatusPublished,
			"published_at": at.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errEventNotFound
	}
	return nil
}

func (r *EventRepository) List(ctx context.Context, f event.Filter) ([]event.Event, error) {
	q := r.db.WithContext(ctx).Model(&event.Event{})
	if f.LoanID != 0 {
		q = q.Where("loan_id = ?", f.LoanID)
	}
	if f.Type != "" {
		q = q.Where("event_type = ?", f.Type)
	}
	out := []event.Event{}
	err := q.Order("seq ASC").Find(&out).Error
	return out, err
}
