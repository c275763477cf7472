// Package async runs learn calls on a worker pool so HTTP confirmations
// return immediately. Correctness under concurrent learns for the same key
// is guaranteed by the learner's per-key locking; the queue only bounds
// concurrency and adds backpressure.
package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"docparse/internal/entity"
	"docparse/internal/template"
)

// Job is one confirmed document to learn from.
type Job struct {
	ID          uuid.UUID
	Fragments   []entity.TextFragment
	Confirmed   entity.ParsedFieldSet
	Keys        []string
	ImageSize   entity.ImageSize
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

type LearnQueue struct {
	learner *template.Learner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*LearnQueue)

func WithWorkers(n int) Option {
	return func(q *LearnQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *LearnQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *LearnQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewLearnQueue(learner *template.Learner, logger *slog.Logger, opts ...Option) *LearnQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &LearnQueue{
		learner: learner,
		logger:  logger,
		workers: 4,
		timeout: 30 * time.Second,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *LearnQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.learner.Learn(ctx, job.Fragments, job.Confirmed, job.Keys, job.ImageSize)
					cancel()

					if err != nil {
						q.logger.Error("learn failed", "worker_id", workerID, "job_id", job.ID, "error", err)
					} else {
						q.logger.Info("learned document", "worker_id", workerID, "job_id", job.ID, "keys", len(job.Keys))
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *LearnQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.ID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued learn job", "job_id", job.ID, "keys", len(job.Keys))
	default:
		q.logger.Warn("queue full, applying backpressure", "job_id", job.ID)
		q.ch <- job
	}
	return nil
}

func (q *LearnQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
