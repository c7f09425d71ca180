package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/platform/logger"
	"github.com/revisehq/revise-api/internal/store"
)

// PostgresJobStore implements store.JobStore using PostgreSQL. The
// generation_jobs table doubles as the durable work queue: every state
// transition is a conditional UPDATE guarded by the current status, so
// the pending→processing→terminal machine is race-free without explicit
// row locks.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a PostgreSQL implementation of
// store.JobStore. If logger is nil, slog.Default is used.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

var _ store.JobStore = (*PostgresJobStore)(nil)

// WithTx implements store.JobStore.WithTx.
func (s *PostgresJobStore) WithTx(tx *sql.Tx) store.JobStore {
	return &PostgresJobStore{db: tx, logger: s.logger}
}

// Create implements store.JobStore.Create.
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.GenerationJob) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return err
	}

	topics, err := marshalStrings(job.FocusTopics)
	if err != nil {
		return err
	}
	itemTypes, err := marshalStrings(job.ItemTypes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO generation_jobs (id, user_id, document_id, kind, status, item_count,
			item_types, difficulty, focus_topics, progress, result_id, message,
			created_at, started_at, completed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		job.DocumentID,
		job.Kind,
		job.Status,
		job.ItemCount,
		itemTypes,
		job.Difficulty,
		topics,
		job.Progress,
		uuidOrNull(job.ResultID),
		job.Message,
		job.CreatedAt,
		timeOrNull(job.StartedAt),
		timeOrNull(job.CompletedAt),
		job.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create generation job",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return MapError(err)
	}

	log.Info("generation job created",
		slog.String("job_id", job.ID.String()),
		slog.String("kind", string(job.Kind)),
		slog.String("document_id", job.DocumentID.String()))
	return nil
}

// GetByID implements store.JobStore.GetByID.
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, document_id, kind, status, item_count, item_types,
			difficulty, focus_topics, progress, result_id, message,
			created_at, started_at, completed_at, updated_at
		FROM generation_jobs
		WHERE id = $1
	`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("generation job not found", slog.String("job_id", id.String()))
			return nil, store.ErrJobNotFound
		}
		log.Error("failed to get generation job",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return nil, MapError(err)
	}

	return job, nil
}

// ListPending implements store.JobStore.ListPending. Oldest first, so
// startup recovery re-enqueues jobs in submission order.
func (s *PostgresJobStore) ListPending(ctx context.Context) ([]*domain.GenerationJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, document_id, kind, status, item_count, item_types,
			difficulty, focus_topics, progress, result_id, message,
			created_at, started_at, completed_at, updated_at
		FROM generation_jobs
		WHERE status = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, domain.JobStatusPending)
	if err != nil {
		log.Error("failed to list pending jobs", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	jobs := []*domain.GenerationJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			log.Error("failed to scan job row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating job rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return jobs, nil
}

// Claim implements store.JobStore.Claim. The conditional UPDATE is the
// whole claim protocol: whichever worker flips pending to processing
// first wins, everyone else sees zero rows and moves on.
func (s *PostgresJobStore) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	query := `
		UPDATE generation_jobs
		SET status = $1, started_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusProcessing, now, id, domain.JobStatusPending)
	if err != nil {
		log.Error("failed to claim generation job",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return false, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, MapError(err)
	}

	claimed := rowsAffected > 0
	if claimed {
		log.Info("generation job claimed", slog.String("job_id", id.String()))
	} else {
		log.Debug("generation job not claimable", slog.String("job_id", id.String()))
	}
	return claimed, nil
}

// UpdateProgress implements store.JobStore.UpdateProgress. GREATEST
// keeps progress monotonic even across a stuck-job reset and re-run.
// ErrJobNotFound on a zero-row update tells a worker that the job left
// processing under it, so it can stop instead of generating into a row
// it no longer owns.
func (s *PostgresJobStore) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	query := `
		UPDATE generation_jobs
		SET progress = GREATEST(progress, $1), updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		progress, time.Now().UTC(), id, domain.JobStatusProcessing)
	if err != nil {
		log.Error("failed to update job progress",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrJobNotFound); err != nil {
		log.Warn("progress update on non-processing job",
			slog.String("job_id", id.String()),
			slog.Int("progress", progress))
		return err
	}
	return nil
}

// Complete implements store.JobStore.Complete. Only a processing job
// can complete; progress snaps to 100 and the result reference is set.
func (s *PostgresJobStore) Complete(ctx context.Context, id uuid.UUID, resultID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	query := `
		UPDATE generation_jobs
		SET status = $1, result_id = $2, progress = 100, message = '',
			completed_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusCompleted, resultID, now, id, domain.JobStatusProcessing)
	if err != nil {
		log.Error("failed to complete generation job",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrJobNotFound); err != nil {
		return err
	}

	log.Info("generation job completed",
		slog.String("job_id", id.String()),
		slog.String("result_id", resultID.String()))
	return nil
}

// Fail implements store.JobStore.Fail. Works from pending or
// processing; a job already terminal stays put.
func (s *PostgresJobStore) Fail(ctx context.Context, id uuid.UUID, message string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	query := `
		UPDATE generation_jobs
		SET status = $1, message = $2, completed_at = $3, updated_at = $3
		WHERE id = $4 AND status IN ($5, $6)
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusFailed, message, now, id,
		domain.JobStatusPending, domain.JobStatusProcessing)
	if err != nil {
		log.Error("failed to mark generation job failed",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrJobNotFound); err != nil {
		return err
	}

	log.Info("generation job failed",
		slog.String("job_id", id.String()),
		slog.String("message", message))
	return nil
}

// Cancel implements store.JobStore.Cancel. Only a still-pending job can
// be cancelled; false means the job had already been claimed or
// finished.
func (s *PostgresJobStore) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	query := `
		UPDATE generation_jobs
		SET status = $1, message = $2, completed_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusFailed, domain.CancelledJobMessage, now, id, domain.JobStatusPending)
	if err != nil {
		log.Error("failed to cancel generation job",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return false, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, MapError(err)
	}

	cancelled := rowsAffected > 0
	if cancelled {
		log.Info("generation job cancelled", slog.String("job_id", id.String()))
	}
	return cancelled, nil
}

// ResetStuck implements store.JobStore.ResetStuck. Progress is left
// alone; GREATEST in UpdateProgress keeps it monotonic across the
// re-run.
func (s *PostgresJobStore) ResetStuck(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE generation_jobs
		SET status = $1, started_at = NULL, updated_at = $2
		WHERE status = $3 AND started_at < $4
		RETURNING id
	`
	rows, err := s.db.QueryContext(ctx, query,
		domain.JobStatusPending, time.Now().UTC(), domain.JobStatusProcessing, cutoff)
	if err != nil {
		log.Error("failed to reset stuck jobs", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			log.Error("failed to scan reset job ID", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating reset job rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if len(ids) > 0 {
		log.Warn("stuck generation jobs reset to pending", slog.Int("count", len(ids)))
	}
	return ids, nil
}

// AppendLog implements store.JobStore.AppendLog.
func (s *PostgresJobStore) AppendLog(ctx context.Context, entry *domain.JobLogEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO job_logs (id, job_id, level, message, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.JobID,
		entry.Level,
		entry.Message,
		detailsOrNull(entry.Details),
		entry.CreatedAt,
	)
	if err != nil {
		log.Error("failed to append job log",
			slog.String("error", err.Error()),
			slog.String("job_id", entry.JobID.String()))
		return MapError(err)
	}

	return nil
}

// ListLogs implements store.JobStore.ListLogs.
func (s *PostgresJobStore) ListLogs(ctx context.Context, jobID uuid.UUID) ([]*domain.JobLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, job_id, level, message, details, created_at
		FROM job_logs
		WHERE job_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, jobID)
	if err != nil {
		log.Error("failed to list job logs",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []*domain.JobLogEntry{}
	for rows.Next() {
		var entry domain.JobLogEntry
		var level string
		var details []byte

		err := rows.Scan(&entry.ID, &entry.JobID, &level, &entry.Message, &details, &entry.CreatedAt)
		if err != nil {
			log.Error("failed to scan job log row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}

		entry.Level = domain.JobLogLevel(level)
		if len(details) > 0 {
			entry.Details = json.RawMessage(details)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating job log rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return entries, nil
}

func scanJob(row rowScanner) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	var kind, status, difficulty string
	var itemTypes, topics []byte
	var resultID uuid.NullUUID
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.DocumentID,
		&kind,
		&status,
		&job.ItemCount,
		&itemTypes,
		&difficulty,
		&topics,
		&job.Progress,
		&resultID,
		&job.Message,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Kind = domain.JobKind(kind)
	job.Status = domain.JobStatus(status)
	job.Difficulty = domain.Difficulty(difficulty)
	if len(itemTypes) > 0 {
		if err := json.Unmarshal(itemTypes, &job.ItemTypes); err != nil {
			return nil, fmt.Errorf("failed to decode item types: %w", err)
		}
	}
	if len(topics) > 0 {
		if err := json.Unmarshal(topics, &job.FocusTopics); err != nil {
			return nil, fmt.Errorf("failed to decode focus topics: %w", err)
		}
	}
	if resultID.Valid {
		job.ResultID = &resultID.UUID
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

func marshalStrings(values []string) ([]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode string list: %w", err)
	}
	return data, nil
}

func detailsOrNull(details json.RawMessage) []byte {
	if len(details) == 0 {
		return nil
	}
	return details
}
