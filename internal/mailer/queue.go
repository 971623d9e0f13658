package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
)

// ErrQueueClosed is returned by Pop once a queue has been closed.
var ErrQueueClosed = errors.New("mail queue closed")

// Queue carries jobs from the API to the workers.
type Queue interface {
	Push(ctx context.Context, j Job) error
	// Pop blocks until a job is available or ctx is done.
	Pop(ctx context.Context) (Job, error)
}

// RedisQueue is a list: producers LPUSH, workers BRPOP.
type RedisQueue struct {
	client *redis.Client
	key    string
	// poll bounds each BRPOP so Pop notices cancellation.
	poll time.Duration
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "zedemy:mail:queue"
	}
	return &RedisQueue{client: client, key: key, poll: 5 * time.Second}
}

func (q *RedisQueue) Push(ctx context.Context, j Job) error {
	b, err := json.Marshal(j)
	if err != nil {
		return apperr.Encoding("encode mail job", err)
	}
	return apperr.Upstream("enqueue mail job", q.client.LPush(ctx, q.key, b).Err())
}

func (q *RedisQueue) Pop(ctx context.Context) (Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		res, err := q.client.BRPop(ctx, q.poll, q.key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Job{}, ctx.Err()
			}
			return Job{}, apperr.Upstream("dequeue mail job", err)
		}
		// res is [key, value]
		var j Job
		if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
			return Job{}, apperr.Encoding("decode mail job", err)
		}
		return j, nil
	}
}

// Len reports the number of pending jobs.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// MemoryQueue is a buffered channel for single-process deployments.
type MemoryQueue struct {
	ch   chan Job
	done chan struct{}
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{ch: make(chan Job, size), done: make(chan struct{})}
}

func (q *MemoryQueue) Push(ctx context.Context, j Job) error {
	select {
	case q.ch <- j:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Pop(ctx context.Context) (Job, error) {
	select {
	case j := <-q.ch:
		return j, nil
	case <-q.done:
		return Job{}, ErrQueueClosed
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Close stops producers and consumers. It must be called once.
func (q *MemoryQueue) Close() { close(q.done) }

func (q *MemoryQueue) Len() int { return len(q.ch) }
