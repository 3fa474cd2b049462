// Package queue provides the in-process task runner pipeline stages execute
// on. A single worker drains a FIFO buffer, so no two tasks ever run
// concurrently; stage handlers re-read persisted state, so a task that lost a
// race simply no-ops on its status guard.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("task queue is closed")

// ErrFull is returned by Enqueue when the buffer is exhausted.
var ErrFull = errors.New("task queue is full")

type task struct {
	id   uuid.UUID
	name string
	run  func(context.Context) error
}

// Worker is a single-goroutine FIFO task runner.
type Worker struct {
	logger *slog.Logger
	tasks  chan task

	mu      sync.Mutex
	started bool
	closed  bool

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a worker with the given buffer capacity.
func New(logger *slog.Logger, buffer int) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Worker{
		logger: logger,
		tasks:  make(chan task, buffer),
		done:   make(chan struct{}),
	}
}

// Start launches the worker goroutine. Calling Start twice is a no-op.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.loop(ctx)
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)
	for t := range w.tasks {
		start := time.Now()
		w.logger.Info("task started", "task_id", t.id, "task", t.name)
		if err := t.run(ctx); err != nil {
			w.logger.Error("task failed", "task_id", t.id, "task", t.name, "duration", time.Since(start), "error", err)
			continue
		}
		w.logger.Info("task finished", "task_id", t.id, "task", t.name, "duration", time.Since(start))
	}
}

// Enqueue schedules a task. It never blocks: a full buffer is an error the
// caller surfaces instead of stalling a request.
func (w *Worker) Enqueue(name string, run func(context.Context) error) error {
	// The send stays under the lock so Close cannot close the channel
	// between the check and the send; it cannot block, the select is
	// non-blocking.
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	t := task{id: uuid.New(), name: name, run: run}
	select {
	case w.tasks <- t:
		w.logger.Info("task enqueued", "task_id", t.id, "task", name)
		return nil
	default:
		return ErrFull
	}
}

// Close stops accepting tasks, drains the buffer, and waits for the worker
// to exit. The context bounds the wait; on expiry the current task is
// cancelled.
func (w *Worker) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	started := w.started
	w.mu.Unlock()

	close(w.tasks)
	if !started {
		return nil
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.cancel()
		<-w.done
		return ctx.Err()
	}
}
