package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
)

// JobStore defines the interface for generation job persistence. The
// jobs table doubles as the durable work queue: Claim implements the
// atomic pending→processing transition, and the terminal transitions are
// conditional updates so the state machine is linearizable per job.
type JobStore interface {
	// Create saves a new pending job.
	Create(ctx context.Context, job *domain.GenerationJob) error

	// GetByID retrieves a job by ID.
	// Returns ErrJobNotFound if no job exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationJob, error)

	// ListPending returns all pending jobs ordered by creation time
	// ascending, used for startup recovery.
	ListPending(ctx context.Context) ([]*domain.GenerationJob, error)

	// Claim atomically moves a job from pending to processing. Returns
	// false when the job was not pending (another worker won the claim,
	// or the job was cancelled); that is a no-op, not an error.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)

	// UpdateProgress records progress (0–100) on a processing job.
	// Monotonicity is enforced here: a lower value than the stored one
	// leaves the row unchanged. Returns ErrJobNotFound if the job is no
	// longer processing, so a worker holding a stale claim stops early.
	UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error

	// Complete moves a processing job to completed and sets its result
	// reference. Returns ErrJobNotFound if the job is not processing.
	Complete(ctx context.Context, id uuid.UUID, resultID uuid.UUID) error

	// Fail moves a pending or processing job to failed with the given
	// message. Returns ErrJobNotFound if the job is already terminal.
	Fail(ctx context.Context, id uuid.UUID, message string) error

	// Cancel moves a pending job to failed with the cancelled message.
	// Returns false when the job was not pending.
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)

	// ResetStuck returns processing jobs older than the cutoff to
	// pending so recovery can re-enqueue them. Returns the reset job IDs.
	ResetStuck(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)

	// AppendLog attaches a diagnostic entry to a job.
	AppendLog(ctx context.Context, entry *domain.JobLogEntry) error

	// ListLogs returns a job's log entries ordered by creation time
	// ascending.
	ListLogs(ctx context.Context, jobID uuid.UUID) ([]*domain.JobLogEntry, error)

	// WithTx returns a JobStore bound to the given transaction.
	WithTx(tx *sql.Tx) JobStore
}
