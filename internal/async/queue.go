package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

var (
	ErrQueueFull   = errors.New("task queue is full")
	ErrQueueClosed = errors.New("task queue is shutting down")
)

// Task is a unit of detached background work. Run receives a context owned by the
// queue, not by whoever submitted the task.
type Task struct {
	Name string
	Key  string // correlation id for logs (job id, file id)
	Run  func(ctx context.Context) error
}

// Queue is a fixed pool of workers draining a bounded channel of tasks.
type Queue struct {
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Task
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Task, n)
		}
	}
}

func WithTaskTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Task, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for task := range q.ch {
					q.run(workerID, task)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *Queue) run(workerID int, task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
				q.logger.Error("task panic", "worker_id", workerID, "task", task.Name, "key", task.Key, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		return task.Run(ctx)
	}()

	if err != nil {
		q.logger.Error("task failed", "worker_id", workerID, "task", task.Name, "key", task.Key, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return
	}
	q.logger.Info("task done", "worker_id", workerID, "task", task.Name, "key", task.Key, "elapsed_ms", time.Since(start).Milliseconds())
}

// Submit enqueues without blocking. It fails with ErrQueueFull when every slot is
// taken and ErrQueueClosed after Shutdown.
func (q *Queue) Submit(_ context.Context, task Task) error {
	if task.Run == nil {
		return fmt.Errorf("task %q has no Run func", task.Name)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot submit: queue is shutting down", "task", task.Name, "key", task.Key)
		return ErrQueueClosed
	}
	select {
	case q.ch <- task:
		q.logger.Debug("task queued", "task", task.Name, "key", task.Key)
		return nil
	default:
		q.logger.Warn("queue full, rejecting task", "task", task.Name, "key", task.Key)
		return ErrQueueFull
	}
}

// Shutdown stops intake and waits for queued tasks to finish or ctx to end.
func (q *Queue) Shutdown(ctx context.Context) {
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
