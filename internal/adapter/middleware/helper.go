package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"quorum-lending/pkg/principal"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// errCorruptEntry marks a stored entry that no longer decodes. Whether the
// original request ran is unknown, so it must not be replayed or re-run.
var errCorruptEntry = errors.New("corrupt idempotency entry")

func hashBody(b []byte) string {
	s := sha256.Sum256(b)
	return hex.EncodeToString(s[:])
}

// entryKey scopes a request id to the route and the calling principal.
func entryKey(method, route, caller, requestID string) string {
	return "quorum:idemp:" + strings.ToLower(method) + ":" + route + ":" + caller + ":" + requestID
}

// validRequestID accepts a principal-style 32-char hex id or a canonical
// (lowercase, hyphenated) RFC 4122 uuid.
func validRequestID(id string) bool {
	if principal.Valid(id) {
		return true
	}
	u, err := uuid.Parse(id)
	return err == nil && u.String() == id && u.Variant() == uuid.RFC4122
}

// parseRequestAt reads Ax-Request-At as epoch seconds, epoch milliseconds or
// RFC 3339 with an explicit zone.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing Ax-Request-At")
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	// RFC3339Nano also parses values without a fraction
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New("Ax-Request-At must be epoch (s/ms) or RFC3339 with timezone")
}

// entryStore keeps one JSON entry per idempotency key in Redis.
type entryStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// reserve claims key for an in-flight request. false means the key exists.
func (s entryStore) reserve(ctx context.Context, key string, e idempEntry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("encode entry: %w", err)
	}
	return s.rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

// load returns redis.Nil when the key is gone and errCorruptEntry when the
// stored value does not decode.
func (s entryStore) load(ctx context.Context, key string) (idempEntry, error) {
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return idempEntry{}, err
	}
	var e idempEntry
	if err := json.Unmarshal(v, &e); err != nil {
		return idempEntry{}, fmt.Errorf("%w: %w", errCorruptEntry, err)
	}
	return e, nil
}

// finish replaces the reservation with the final response for s.ttl.
func (s entryStore) finish(ctx context.Context, key string, e idempEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}
