package async

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
)

type ProcessorQueue struct {
	handle  Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool

	processed atomic.Int64
	failed    atomic.Int64
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(handle Handler, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		handle:  handle,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(common.WithRequestID(context.Background(), job.TraceID), q.timeout)
	defer cancel()

	start := time.Now()
	err := q.handle(ctx, job)
	if err != nil {
		q.failed.Add(1)
		q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "req_id", job.TraceID, "error", err)
		return
	}
	q.processed.Add(1)
	q.logger.Info("processed file successfully",
		"worker_id", workerID,
		"path", job.Path,
		"req_id", job.TraceID,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"waited_ms", start.Sub(job.SubmittedAt).Milliseconds(),
	)
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	if job.TraceID == "" {
		job.TraceID = uuid.New().String()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued file for processing", "path", job.Path, "force", job.Force)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len is the number of jobs waiting for a worker.
func (q *ProcessorQueue) Len() int { return len(q.ch) }

// Stats reports how many jobs finished successfully and how many failed.
func (q *ProcessorQueue) Stats() (processed, failed int64) {
	return q.processed.Load(), q.failed.Load()
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
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
