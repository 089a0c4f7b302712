// Package outbox queues audit events so that recording them never blocks or
// fails the operation that produced them. A Consumer drains the queue into
// the audit store.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dalemusser/partnerportal/internal/app/store/audit"
	"github.com/go-redis/redis/v8"
)

// ErrFull is returned by Inline.Append when the in-process buffer is at capacity.
var ErrFull = errors.New("outbox full")

// Queue is an ordered buffer of pending audit events.
type Queue interface {
	Append(ctx context.Context, e audit.Event) error
	// Peek returns up to max events from the head without removing them.
	Peek(ctx context.Context, max int) ([]audit.Event, error)
	// Ack removes the first n events.
	Ack(ctx context.Context, n int) error
	Len(ctx context.Context) (int64, error)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Redis list                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// Redis stores events as JSON in a Redis list (RPUSH / LRANGE / LTRIM).
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis returns a queue on the list named key.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = "partnerportal:audit:outbox"
	}
	return &Redis{client: client, key: key}
}

func (q *Redis) Append(ctx context.Context, e audit.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return q.client.RPush(ctx, q.key, b).Err()
}

func (q *Redis) Peek(ctx context.Context, max int) ([]audit.Event, error) {
	if max <= 0 {
		return nil, nil
	}
	raw, err := q.client.LRange(ctx, q.key, 0, int64(max-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]audit.Event, 0, len(raw))
	for _, s := range raw {
		var e audit.Event
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			// Keep position so Ack counts stay aligned; the consumer drops it.
			out = append(out, audit.Event{})
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (q *Redis) Ack(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	return q.client.LTrim(ctx, q.key, int64(n), -1).Err()
}

func (q *Redis) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

/*─────────────────────────────────────────────────────────────────────────────*
| In-process                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// Inline is a bounded in-memory queue used when no Redis is configured.
// Events still queued at process exit are lost unless the consumer is
// stopped first (Stop drains).
type Inline struct {
	mu     sync.Mutex
	events []audit.Event
	cap    int
}

// NewInline returns an in-process queue holding at most capacity events.
func NewInline(capacity int) *Inline {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Inline{cap: capacity}
}

func (q *Inline) Append(_ context.Context, e audit.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) >= q.cap {
		return ErrFull
	}
	q.events = append(q.events, e)
	return nil
}

func (q *Inline) Peek(_ context.Context, max int) ([]audit.Event, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if max > len(q.events) {
		max = len(q.events)
	}
	out := make([]audit.Event, max)
	copy(out, q.events[:max])
	return out, nil
}

func (q *Inline) Ack(_ context.Context, n int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.events) {
		n = len(q.events)
	}
	q.events = q.events[n:]
	return nil
}

func (q *Inline) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.events)), nil
}
