// Package queue provides the notification queue client shared by the chat
// server (producer) and the dispatch workers (consumer). The queue itself is
// an opaque Redis list: entries are appended with RPUSH and drained with
// LPOP, so two consumers can never observe the same entry.
package queue

import (
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// envelope is the wire frame carried on the list.
type envelope struct {
	Type    string            `json:"type"`
	Payload domain.QueueEntry `json:"payload"`
}

type RedisQueue struct {
	client *redis.Client
	key    string
	log    *slog.Logger
}

// NewRedisQueue connects to Redis and verifies the connection. The instance
// is constructed once at process start and injected everywhere a queue is
// needed; there is no lazy singleton.
func NewRedisQueue(ctx context.Context, redisURL, key string, log *slog.Logger) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisQueue{client: client, key: key, log: log}, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Push appends one entry to the tail of the queue.
func (q *RedisQueue) Push(ctx context.Context, entry domain.QueueEntry) error {
	data, err := json.Marshal(envelope{Type: domain.QueueEntryType, Payload: entry})
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, q.key, data).Err()
}

// Pop takes one entry from the head of the queue without blocking.
// The boolean is false when the queue is empty. A frame that does not decode
// to a known entry is reported as ErrInvalidPayload; it has already been
// removed from the list and is intentionally lost (at-most-once).
func (q *RedisQueue) Pop(ctx context.Context) (domain.QueueEntry, bool, error) {
	raw, err := q.client.LPop(ctx, q.key).Result()
	if err == redis.Nil {
		return domain.QueueEntry{}, false, nil
	}
	if err != nil {
		return domain.QueueEntry{}, false, err
	}
	entry, err := Decode([]byte(raw))
	if err != nil {
		return domain.QueueEntry{}, false, err
	}
	return entry, true, nil
}

// Decode validates and unwraps one queue frame.
func Decode(raw []byte) (domain.QueueEntry, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.QueueEntry{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
	}
	if env.Type != domain.QueueEntryType {
		return domain.QueueEntry{}, fmt.Errorf("%w: unexpected type %q", apperrors.ErrInvalidPayload, env.Type)
	}
	if !env.Payload.Kind.Valid() {
		return domain.QueueEntry{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, apperrors.ErrUnknownRoomKind)
	}
	return env.Payload, nil
}
