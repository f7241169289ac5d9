package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/clocktower-engine/pkg/queue"
)

// actionsKey is the global queue all game actions flow through. Ordering
// within the queue is what serializes mutations: one worker pops, applies
// against the engine for that game, persists, then pops the next.
const actionsKey = "actions"

// ActionQueue manages the queue of pending game actions
type ActionQueue struct {
	client *Client
}

func NewActionQueue(client *Client) *ActionQueue {
	return &ActionQueue{
		client: client,
	}
}

// Enqueue adds a request to the end of the global actions queue
func (q *ActionQueue) Enqueue(ctx context.Context, req *queue.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	if err := q.client.rdb.RPush(ctx, actionsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue action: %w", err)
	}
	return nil
}

// Dequeue removes and returns the next request.
// Returns nil if the queue is empty.
func (q *ActionQueue) Dequeue(ctx context.Context) (*queue.Request, error) {
	result, err := q.client.rdb.LPop(ctx, actionsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Queue is empty
		}
		return nil, fmt.Errorf("failed to dequeue action: %w", err)
	}

	req, err := queue.FromJSON([]byte(result))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// BlockingDequeue blocks until a request is available, then returns it.
// A zero timeout waits forever.
func (q *ActionQueue) BlockingDequeue(ctx context.Context, timeout time.Duration) (*queue.Request, error) {
	result, err := q.client.rdb.BLPop(ctx, timeout, actionsKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Timed out with nothing queued
		}
		return nil, fmt.Errorf("failed to dequeue action: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	req, err := queue.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// Depth returns the number of pending actions
func (q *ActionQueue) Depth(ctx context.Context) (int, error) {
	count, err := q.client.rdb.LLen(ctx, actionsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}

// Clear removes all pending actions
func (q *ActionQueue) Clear(ctx context.Context) error {
	if err := q.client.rdb.Del(ctx, actionsKey).Err(); err != nil {
		return fmt.Errorf("failed to clear action queue: %w", err)
	}
	return nil
}
