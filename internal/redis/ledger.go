// Package redis provides a Redis-backed webhook event ledger.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/paysync/internal/domain"
	"github.com/redis/go-redis/v9"
)

var (
	ErrFailedToParseRedisURL = errors.New("redis: failed to parse connection url")
	ErrRedisNotReady         = errors.New("redis: server not ready")
)

// DefaultKeyPrefix namespaces ledger keys.
const DefaultKeyPrefix = "paysync:webhook_event:"

// commands is the subset of redis.Cmdable the ledger needs.
type commands interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// EventLedger stores processed event ids as keys with a TTL. The TTL should
// exceed the processor's redelivery window.
type EventLedger struct {
	rdb    commands
	prefix string
	ttl    time.Duration
}

var _ domain.EventLedger = (*EventLedger)(nil)

// NewEventLedger creates a ledger over rdb. A zero ttl keeps keys forever.
func NewEventLedger(rdb commands, ttl time.Duration) *EventLedger {
	return &EventLedger{rdb: rdb, prefix: DefaultKeyPrefix, ttl: ttl}
}

func (l *EventLedger) key(eventID string) string {
	return l.prefix + eventID
}

// Seen reports whether eventID has a live ledger key.
func (l *EventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.rdb.Exists(ctx, l.key(eventID)).Result()
	if err != nil {
		return false, domain.Internal(err, "ledger.seen", "failed to check webhook event")
	}
	return n > 0, nil
}

// Record sets the ledger key if absent. The value is the event type.
func (l *EventLedger) Record(ctx context.Context, eventID, eventType string) error {
	if err := l.rdb.SetNX(ctx, l.key(eventID), eventType, l.ttl).Err(); err != nil {
		return domain.Internal(err, "ledger.record", "failed to record webhook event")
	}
	return nil
}

// Connect parses url and pings the server, retrying until attempts run out
// or ctx is done.
func Connect(ctx context.Context, url string, attempts int, interval time.Duration) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisURL, err)
	}

	var lastErr error
	for range max(attempts, 1) {
		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(interval):
		}
	}

	return nil, errors.Join(ErrRedisNotReady, lastErr)
}
