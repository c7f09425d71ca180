package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/store"
)

// MockJobStore implements store.JobStore over an in-memory map with
// the same conditional state transitions as the real store.
type MockJobStore struct {
	CreateFn         func(ctx context.Context, job *domain.GenerationJob) error
	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*domain.GenerationJob, error)
	ListPendingFn    func(ctx context.Context) ([]*domain.GenerationJob, error)
	ClaimFn          func(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateProgressFn func(ctx context.Context, id uuid.UUID, progress int) error
	CompleteFn       func(ctx context.Context, id uuid.UUID, resultID uuid.UUID) error
	FailFn           func(ctx context.Context, id uuid.UUID, message string) error
	CancelFn         func(ctx context.Context, id uuid.UUID) (bool, error)
	ResetStuckFn     func(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	AppendLogFn      func(ctx context.Context, entry *domain.JobLogEntry) error
	ListLogsFn       func(ctx context.Context, jobID uuid.UUID) ([]*domain.JobLogEntry, error)

	Jobs map[uuid.UUID]*domain.GenerationJob
	Logs []*domain.JobLogEntry
}

var _ store.JobStore = (*MockJobStore)(nil)

// NewMockJobStore creates an empty in-memory job store.
func NewMockJobStore() *MockJobStore {
	return &MockJobStore{Jobs: make(map[uuid.UUID]*domain.GenerationJob)}
}

func (m *MockJobStore) Create(ctx context.Context, job *domain.GenerationJob) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, job)
	}
	m.Jobs[job.ID] = job
	return nil
}

func (m *MockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationJob, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	job, ok := m.Jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return job, nil
}

func (m *MockJobStore) ListPending(ctx context.Context) ([]*domain.GenerationJob, error) {
	if m.ListPendingFn != nil {
		return m.ListPendingFn(ctx)
	}
	var pending []*domain.GenerationJob
	for _, job := range m.Jobs {
		if job.Status == domain.JobStatusPending {
			pending = append(pending, job)
		}
	}
	return pending, nil
}

func (m *MockJobStore) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.ClaimFn != nil {
		return m.ClaimFn(ctx, id)
	}
	job, ok := m.Jobs[id]
	if !ok || job.Status != domain.JobStatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	job.Status = domain.JobStatusProcessing
	job.StartedAt = &now
	return true, nil
}

func (m *MockJobStore) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	if m.UpdateProgressFn != nil {
		return m.UpdateProgressFn(ctx, id, progress)
	}
	job, ok := m.Jobs[id]
	if !ok || job.Status != domain.JobStatusProcessing {
		return store.ErrJobNotFound
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	return nil
}

func (m *MockJobStore) Complete(ctx context.Context, id uuid.UUID, resultID uuid.UUID) error {
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, id, resultID)
	}
	job, ok := m.Jobs[id]
	if !ok || job.Status != domain.JobStatusProcessing {
		return store.ErrJobNotFound
	}
	now := time.Now().UTC()
	job.Status = domain.JobStatusCompleted
	job.ResultID = &resultID
	job.Progress = 100
	job.CompletedAt = &now
	return nil
}

func (m *MockJobStore) Fail(ctx context.Context, id uuid.UUID, message string) error {
	if m.FailFn != nil {
		return m.FailFn(ctx, id, message)
	}
	job, ok := m.Jobs[id]
	if !ok || (job.Status != domain.JobStatusPending && job.Status != domain.JobStatusProcessing) {
		return store.ErrJobNotFound
	}
	now := time.Now().UTC()
	job.Status = domain.JobStatusFailed
	job.Message = message
	job.CompletedAt = &now
	return nil
}

func (m *MockJobStore) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.CancelFn != nil {
		return m.CancelFn(ctx, id)
	}
	job, ok := m.Jobs[id]
	if !ok || job.Status != domain.JobStatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	job.Status = domain.JobStatusFailed
	job.Message = domain.CancelledJobMessage
	job.CompletedAt = &now
	return true, nil
}

func (m *MockJobStore) ResetStuck(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	if m.ResetStuckFn != nil {
		return m.ResetStuckFn(ctx, cutoff)
	}
	var reset []uuid.UUID
	for _, job := range m.Jobs {
		if job.Status == domain.JobStatusProcessing && job.StartedAt != nil && job.StartedAt.Before(cutoff) {
			job.Status = domain.JobStatusPending
			job.StartedAt = nil
			reset = append(reset, job.ID)
		}
	}
	return reset, nil
}

func (m *MockJobStore) AppendLog(ctx context.Context, entry *domain.JobLogEntry) error {
	if m.AppendLogFn != nil {
		return m.AppendLogFn(ctx, entry)
	}
	m.Logs = append(m.Logs, entry)
	return nil
}

func (m *MockJobStore) ListLogs(ctx context.Context, jobID uuid.UUID) ([]*domain.JobLogEntry, error) {
	if m.ListLogsFn != nil {
		return m.ListLogsFn(ctx, jobID)
	}
	var out []*domain.JobLogEntry
	for _, entry := range m.Logs {
		if entry.JobID == jobID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *MockJobStore) WithTx(tx *sql.Tx) store.JobStore { return m }
