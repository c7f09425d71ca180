package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/store"
)

// RunnerConfig holds tuning knobs for the task runner.
type RunnerConfig struct {
	// WorkerCount is the number of concurrent workers executing tasks.
	WorkerCount int

	// QueueSize is the buffer size of the in-memory task queue.
	QueueSize int

	// StuckJobAge is how long a job may sit in processing before the
	// monitor assumes its worker died and returns it to pending.
	StuckJobAge time.Duration

	// StuckJobCheckInterval is how often the monitor sweeps for stuck
	// and stranded jobs.
	StuckJobCheckInterval time.Duration
}

// DefaultRunnerConfig returns the runner defaults used in production.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:           2,
		QueueSize:             50,
		StuckJobAge:           10 * time.Minute,
		StuckJobCheckInterval: time.Minute,
	}
}

// TaskRunner executes generation tasks on a pool of workers fed by a
// bounded queue. The jobs table is the durable source of truth: on
// Start the runner re-queues every pending job, and a background
// monitor returns jobs stranded in processing by a crashed worker to
// pending and re-queues them. Because claiming a job is atomic, a job
// enqueued twice executes once.
type TaskRunner struct {
	jobs    store.JobStore
	factory Factory
	queue   *TaskQueue
	config  RunnerConfig
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

var _ Submitter = (*TaskRunner)(nil)

// NewTaskRunner creates a runner over the given job store and task
// factory. Invalid config values fall back to defaults.
func NewTaskRunner(jobs store.JobStore, factory Factory, config RunnerConfig, logger *slog.Logger) *TaskRunner {
	defaults := DefaultRunnerConfig()
	if config.WorkerCount < 1 {
		config.WorkerCount = defaults.WorkerCount
	}
	if config.QueueSize < 1 {
		config.QueueSize = defaults.QueueSize
	}
	if config.StuckJobAge <= 0 {
		config.StuckJobAge = defaults.StuckJobAge
	}
	if config.StuckJobCheckInterval <= 0 {
		config.StuckJobCheckInterval = defaults.StuckJobCheckInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &TaskRunner{
		jobs:    jobs,
		factory: factory,
		queue:   NewTaskQueue(config.QueueSize),
		config:  config,
		logger:  logger.With(slog.String("component", "task_runner")),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers and the stuck-job monitor, then re-queues
// jobs left pending by a previous run. Recovery failures are logged
// rather than fatal; the monitor retries them on its next sweep.
func (r *TaskRunner) Start() error {
	r.logger.Info("starting task runner",
		slog.Int("worker_count", r.config.WorkerCount),
		slog.Int("queue_size", r.config.QueueSize))

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.monitorStuckJobs()

	if err := r.recoverPendingJobs(r.ctx); err != nil {
		r.logger.Error("failed to recover pending jobs",
			slog.String("error", err.Error()))
	}
	return nil
}

// Stop shuts the runner down. In-flight tasks run to completion;
// queued tasks are drained and executed before the workers exit.
func (r *TaskRunner) Stop() {
	r.logger.Info("stopping task runner")
	r.cancel()
	r.queue.Close()
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

// Submit queues a task for execution without blocking. A full queue is
// reported to the caller; the job stays pending in the database and the
// monitor re-queues it on a later sweep.
func (r *TaskRunner) Submit(ctx context.Context, t Task) error {
	log := r.logger
	if err := r.queue.Enqueue(t); err != nil {
		log.Warn("failed to enqueue task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return fmt.Errorf("enqueueing task %s: %w", t.ID(), err)
	}

	log.Debug("task enqueued",
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()),
		slog.Int("queue_depth", r.queue.Len()))
	return nil
}

// worker consumes tasks from the queue until it is closed and drained.
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	log := r.logger.With(slog.Int("worker_id", id))
	log.Debug("worker started")

	for t := range r.queue.Chan() {
		r.runTask(log, t)
	}
	log.Debug("worker stopped")
}

// runTask executes a single task. It deliberately uses a fresh context
// rather than the runner's: cancellation during Stop should let the
// in-flight job finish, not abort it halfway through a batch.
func (r *TaskRunner) runTask(log *slog.Logger, t Task) {
	log.Info("executing task",
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()))

	start := time.Now()
	if err := t.Execute(context.Background()); err != nil {
		log.Error("task execution failed",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return
	}

	log.Info("task completed",
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()),
		slog.Duration("duration", time.Since(start)))
}

// recoverPendingJobs re-queues every job currently pending in the
// database. Called at startup, when the queue is empty by definition.
func (r *TaskRunner) recoverPendingJobs(ctx context.Context) error {
	pending, err := r.jobs.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("listing pending jobs: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	r.logger.Info("recovering pending jobs", slog.Int("count", len(pending)))
	for _, job := range pending {
		if !r.enqueueJob(job.ID) {
			break
		}
	}
	return nil
}

// monitorStuckJobs periodically returns jobs stranded in processing to
// pending and re-queues them, and sweeps up pending jobs old enough
// that their original submission event must have been lost.
func (r *TaskRunner) monitorStuckJobs() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.sweepStuckJobs()
		}
	}
}

func (r *TaskRunner) sweepStuckJobs() {
	cutoff := time.Now().UTC().Add(-r.config.StuckJobAge)

	ids, err := r.jobs.ResetStuck(r.ctx, cutoff)
	if err != nil {
		r.logger.Error("failed to reset stuck jobs",
			slog.String("error", err.Error()))
	} else if len(ids) > 0 {
		r.logger.Warn("reset stuck jobs to pending", slog.Int("count", len(ids)))
		for _, id := range ids {
			if !r.enqueueJob(id) {
				return
			}
		}
	}

	// Pending jobs untouched since before the cutoff were submitted but
	// never picked up, typically because the queue was full at the time.
	pending, err := r.jobs.ListPending(r.ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs",
			slog.String("error", err.Error()))
		return
	}
	for _, job := range pending {
		if !job.UpdatedAt.Before(cutoff) {
			continue
		}
		if !r.enqueueJob(job.ID) {
			return
		}
	}
}

// enqueueJob builds and queues a task for the given job. It reports
// false once the queue is full so sweeps stop early; the remaining
// jobs stay pending for the next pass.
func (r *TaskRunner) enqueueJob(id uuid.UUID) bool {
	t, err := r.factory.CreateTask(id)
	if err != nil {
		r.logger.Error("failed to create task for job",
			slog.String("job_id", id.String()),
			slog.String("error", err.Error()))
		return true
	}

	if err := r.queue.Enqueue(t); err != nil {
		r.logger.Warn("failed to re-queue job",
			slog.String("job_id", id.String()),
			slog.String("error", err.Error()))
		return false
	}
	return true
}
