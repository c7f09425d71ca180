package task

import (
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned when the queue's buffer is at capacity.
	ErrQueueFull = errors.New("task queue is full")

	// ErrQueueClosed is returned when enqueueing after Close.
	ErrQueueClosed = errors.New("task queue is closed")
)

// TaskQueue is a bounded in-memory queue feeding the runner's
// workers. A full queue rejects rather than blocks; callers rely on
// the database-backed recovery path to pick the job up later.
type TaskQueue struct {
	tasks  chan Task
	mu     sync.Mutex
	closed bool
}

// NewTaskQueue creates a queue with the given buffer size. Sizes
// below 1 are raised to 1.
func NewTaskQueue(size int) *TaskQueue {
	if size < 1 {
		size = 1
	}
	return &TaskQueue{
		tasks: make(chan Task, size),
	}
}

// Enqueue adds a task without blocking. It returns ErrQueueFull when
// the buffer is at capacity and ErrQueueClosed after Close.
func (q *TaskQueue) Enqueue(t Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Chan returns the receive side of the queue for workers. The channel
// is closed by Close once no more tasks will arrive.
func (q *TaskQueue) Chan() <-chan Task {
	return q.tasks
}

// Len reports the number of tasks currently buffered.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// Close marks the queue closed and closes the underlying channel so
// draining workers terminate. Close is idempotent.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
}
