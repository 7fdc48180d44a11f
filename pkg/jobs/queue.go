package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotStarted is returned when enqueueing on a queue that is not running.
var ErrNotStarted = errors.New("queue not started")

// Job wraps a payload with delivery bookkeeping.
type Job[T any] struct {
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes one payload.
type Handler[T any] func(context.Context, T) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is an in-memory worker pool delivering payloads with retries.
type Queue[T any] struct {
	name    string
	handler Handler[T]

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	jobs    chan Job[T]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	retries sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a queue around handler.
func NewQueue[T any](name string, handler Handler[T], cfg QueueConfig) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue[T]{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		jobs:       make(chan Job[T], cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.workers))
}

// Stop cancels pending retries, lets workers drain buffered jobs and waits for them.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.cancel()
	q.mu.Unlock()

	q.retries.Wait()
	close(q.jobs)
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue pushes a payload onto the queue without blocking past ctx.
func (q *Queue[T]) Enqueue(ctx context.Context, payload T) error {
	return q.push(ctx, Job[T]{Payload: payload, Enqueued: time.Now().UTC()})
}

func (q *Queue[T]) push(ctx context.Context, job Job[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started {
		return fmt.Errorf("%s: %w", q.name, ErrNotStarted)
	}

	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue %s: %w", q.name, ctx.Err())
	default:
		return fmt.Errorf("queue %s is full", q.name)
	}
}

func (q *Queue[T]) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		// Buffered jobs still run after Stop, on a fresh context.
		ctx := q.ctx
		if ctx.Err() != nil {
			ctx = context.Background()
		}
		if err := q.handler(ctx, job.Payload); err != nil {
			q.handleFailure(job, err)
		}
	}
}

func (q *Queue[T]) handleFailure(job Job[T], err error) {
	job.Attempt++
	q.mu.Lock()
	if job.Attempt > q.maxRetries || !q.started {
		q.mu.Unlock()
		q.logger.Error("job dropped", zap.String("queue", q.name), zap.Int("attempt", job.Attempt), zap.Error(err))
		return
	}
	q.retries.Add(1)
	q.mu.Unlock()
	q.logger.Warn("job failed, retrying", zap.String("queue", q.name), zap.Int("attempt", job.Attempt), zap.Error(err))

	go func(j Job[T]) {
		defer q.retries.Done()
		timer := time.NewTimer(q.retryDelay * time.Duration(j.Attempt))
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.logger.Error("job dropped on shutdown", zap.String("queue", q.name), zap.Int("attempt", j.Attempt))
		case <-timer.C:
			if err := q.push(context.Background(), j); err != nil {
				q.logger.Error("failed to requeue job", zap.String("queue", q.name), zap.Error(err))
			}
		}
	}(job)
}
