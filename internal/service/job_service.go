package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/events"
	"github.com/revisehq/revise-api/internal/store"
	"github.com/revisehq/revise-api/internal/task"
)

// SubmitJobRequest carries a validated generation request into the job
// service. Zero-value params fall back to the domain defaults.
type SubmitJobRequest struct {
	DocumentID uuid.UUID
	Kind       domain.JobKind
	Params     domain.JobParams
}

// JobService manages generation job submission and lifecycle. The
// worker side lives in internal/task; this service owns the synchronous
// edges: creating the pending row, reading snapshots, and cancelling.
type JobService interface {
	// Submit validates the request, persists a pending job, and emits
	// the event that hands it to the runner. The job handle is returned
	// synchronously; generation happens in the background.
	Submit(ctx context.Context, userID uuid.UUID, req SubmitJobRequest) (*domain.GenerationJob, error)

	// Status returns the job snapshot. Returns store.ErrJobNotFound if
	// absent and ErrNotOwned for another user's job.
	Status(ctx context.Context, userID, jobID uuid.UUID) (*domain.GenerationJob, error)

	// Cancel stops a pending job. Processing jobs run to completion;
	// cancelling one returns ErrJobNotCancellable.
	Cancel(ctx context.Context, userID, jobID uuid.UUID) (*domain.GenerationJob, error)

	// Logs returns the job's audit trail, oldest first.
	Logs(ctx context.Context, userID, jobID uuid.UUID) ([]*domain.JobLogEntry, error)
}

type jobService struct {
	jobs      store.JobStore
	documents store.DocumentStore
	emitter   events.Emitter
	logger    *slog.Logger
}

// NewJobService creates a JobService over the given stores and emitter.
func NewJobService(jobs store.JobStore, documents store.DocumentStore, emitter events.Emitter, logger *slog.Logger) JobService {
	return &jobService{
		jobs:      jobs,
		documents: documents,
		emitter:   emitter,
		logger:    logger.With(slog.String("component", "job_service")),
	}
}

func (s *jobService) Submit(ctx context.Context, userID uuid.UUID, req SubmitJobRequest) (*domain.GenerationJob, error) {
	doc, err := s.documents.GetByID(ctx, req.DocumentID)
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			return nil, err
		}
		s.logger.Error("failed to load document for submission",
			slog.String("error", err.Error()),
			slog.String("document_id", req.DocumentID.String()))
		return nil, opError("job", "submit", err)
	}
	if doc.UserID != userID {
		return nil, ErrNotOwned
	}
	if !doc.IsProcessed() {
		return nil, fmt.Errorf("%w: document status is %s", ErrDocumentNotReady, doc.Status)
	}

	job, err := domain.NewGenerationJob(userID, req.DocumentID, req.Kind, req.Params)
	if err != nil {
		s.logger.Debug("rejected invalid generation request",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating job: %w", err)
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.Error("failed to persist job",
			slog.String("error", err.Error()))
		return nil, opError("job", "submit", err)
	}

	// The pending row is the durable record; the event only wakes the
	// runner. If emission fails the sweep picks the job up later, so
	// the submission still succeeds.
	event, err := events.New(task.TaskTypeGeneration, task.GenerationPayload{JobID: job.ID})
	if err != nil {
		s.logger.Error("failed to build job event",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return job, nil
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("failed to emit job event, job stays pending",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return job, nil
	}

	s.logger.Info("generation job submitted",
		slog.String("job_id", job.ID.String()),
		slog.String("kind", string(job.Kind)),
		slog.String("document_id", req.DocumentID.String()))
	return job, nil
}

func (s *jobService) Status(ctx context.Context, userID, jobID uuid.UUID) (*domain.GenerationJob, error) {
	return s.getOwned(ctx, userID, jobID)
}

func (s *jobService) Cancel(ctx context.Context, userID, jobID uuid.UUID) (*domain.GenerationJob, error) {
	if _, err := s.getOwned(ctx, userID, jobID); err != nil {
		return nil, err
	}

	cancelled, err := s.jobs.Cancel(ctx, jobID)
	if err != nil {
		s.logger.Error("failed to cancel job",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return nil, opError("job", "cancel", err)
	}
	if !cancelled {
		return nil, ErrJobNotCancellable
	}

	s.logger.Info("generation job cancelled", slog.String("job_id", jobID.String()))
	return s.getOwned(ctx, userID, jobID)
}

func (s *jobService) Logs(ctx context.Context, userID, jobID uuid.UUID) ([]*domain.JobLogEntry, error) {
	if _, err := s.getOwned(ctx, userID, jobID); err != nil {
		return nil, err
	}

	entries, err := s.jobs.ListLogs(ctx, jobID)
	if err != nil {
		s.logger.Error("failed to list job logs",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return nil, opError("job", "logs", err)
	}
	return entries, nil
}

func (s *jobService) getOwned(ctx context.Context, userID, jobID uuid.UUID) (*domain.GenerationJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return nil, err
		}
		s.logger.Error("failed to load job",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
		return nil, opError("job", "get", err)
	}
	if job.UserID != userID {
		return nil, ErrNotOwned
	}
	return job, nil
}
