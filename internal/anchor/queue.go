package anchor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RetryQueue buffers submissions that could not be delivered, in FIFO order.
type RetryQueue interface {
	Push(ctx context.Context, sub Submission) error
	Pop(ctx context.Context, max int) ([]Submission, error)
	Len(ctx context.Context) (int, error)
}

// MemoryQueue is the in-process retry queue used in dev mode and tests.
type MemoryQueue struct {
	mu   sync.Mutex
	subs []Submission
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Push(_ context.Context, sub Submission) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.subs = append(q.subs, sub)
	return nil
}

func (q *MemoryQueue) Pop(_ context.Context, max int) ([]Submission, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if max > len(q.subs) {
		max = len(q.subs)
	}
	popped := append([]Submission{}, q.subs[:max]...)
	q.subs = append(q.subs[:0], q.subs[max:]...)
	return popped, nil
}

func (q *MemoryQueue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.subs), nil
}

// RedisQueue persists the retry backlog in a redis list so queued anchors
// survive a process restart.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "anchor:retry"
	}
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Push(ctx context.Context, sub Submission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal anchor submission: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push anchor submission: %w", err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context, max int) ([]Submission, error) {
	raw, err := q.client.LPopCount(ctx, q.key, max).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop anchor submissions: %w", err)
	}
	subs := make([]Submission, 0, len(raw))
	for _, item := range raw {
		var sub Submission
		if err := json.Unmarshal([]byte(item), &sub); err != nil {
			return nil, fmt.Errorf("unmarshal anchor submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("measure anchor backlog: %w", err)
	}
	return int(n), nil
}
