package task

import (
	"context"

	"github.com/google/uuid"
)

// Task represents a unit of background work tied to a generation job
// row. Unlike the job row itself, a Task carries no persistent state:
// the jobs table is the durable record, and a Task is only the
// in-process handle used to execute it.
type Task interface {
	// ID returns the identifier of the job this task executes.
	ID() uuid.UUID

	// Type returns the task type string used for event routing.
	Type() string

	// Execute performs the work. Implementations are responsible for
	// recording their own outcome (completion or failure) on the job
	// row; Execute errors are reported for logging only.
	Execute(ctx context.Context) error
}

// Factory creates executable tasks from job identifiers. The runner
// uses it to rebuild tasks for jobs found pending at startup, and the
// event handler uses it to turn job events into queued work.
type Factory interface {
	CreateTask(jobID uuid.UUID) (Task, error)
}

// Submitter accepts tasks for background execution.
type Submitter interface {
	Submit(ctx context.Context, t Task) error
}
