package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryQueue is an in-process queue. Enqueue never blocks; a full
// buffer drops the message with ErrQueueFull.
type MemoryQueue struct {
	ch chan Message
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{ch: make(chan Message, size)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case msg := <-q.ch:
		return msg, nil
	}
}

// RedisQueue stores JSON encoded messages in a Redis list so queued mail
// survives restarts and can be drained by any instance.
type RedisQueue struct {
	client *redis.Client
	key    string
	wait   time.Duration
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key, wait: time.Second}
}

func (q *RedisQueue) Enqueue(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push message: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}

		res, err := q.client.BRPop(ctx, q.wait, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			return Message{}, fmt.Errorf("pop message: %w", err)
		}

		var msg Message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			return Message{}, fmt.Errorf("decode message: %w", err)
		}
		return msg, nil
	}
}
