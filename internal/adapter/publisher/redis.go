package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"quorum-lending/internal/domain/event"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher fans events out over Redis Pub/Sub, one channel per event
// type: "<prefix>.<event_type>".
type RedisPublisher struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisPublisher(rdb *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, prefix: prefix}
}

func (p *RedisPublisher) Channel(t event.Type) string {
	if p.prefix == "" {
		return string(t)
	}
	return p.prefix + "." + string(t)
}

func (p *RedisPublisher) Publish(ctx context.Context, e *event.Event) error {
	b, err := json.Marshal(e.Envelope())
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	if err := p.rdb.Publish(ctx, p.Channel(e.Type), b).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", e.ID, err)
	}
	return nil
}

var _ event.Publisher = (*RedisPublisher)(nil)
