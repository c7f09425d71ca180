package task

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/generation"
	"github.com/revisehq/revise-api/internal/store"
)

// fakeJobStore is an in-memory store.JobStore with hooks for error
// injection. Safe for concurrent use so runner tests can share it with
// workers.
type fakeJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.GenerationJob
	logs []*domain.JobLogEntry

	claimErr        error
	listPendingErr  error
	progressGone    bool
	progressUpdates []int
	failMessages    []string
	completed       map[uuid.UUID]uuid.UUID
	resetIDs        [][]uuid.UUID
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{
		jobs:      make(map[uuid.UUID]*domain.GenerationJob),
		completed: make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeJobStore) add(job *domain.GenerationJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = job
}

func (f *fakeJobStore) Create(ctx context.Context, job *domain.GenerationJob) error {
	f.add(job)
	return nil
}

func (f *fakeJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeJobStore) ListPending(ctx context.Context) ([]*domain.GenerationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listPendingErr != nil {
		return nil, f.listPendingErr
	}
	var pending []*domain.GenerationJob
	for _, job := range f.jobs {
		if job.Status == domain.JobStatusPending {
			pending = append(pending, job)
		}
	}
	return pending, nil
}

func (f *fakeJobStore) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	job, ok := f.jobs[id]
	if !ok || job.Status != domain.JobStatusPending {
		return false, nil
	}
	job.Status = domain.JobStatusProcessing
	now := time.Now().UTC()
	job.StartedAt = &now
	return true, nil
}

func (f *fakeJobStore) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.progressGone {
		return store.ErrJobNotFound
	}
	f.progressUpdates = append(f.progressUpdates, progress)
	if job, ok := f.jobs[id]; ok && progress > job.Progress {
		job.Progress = progress
	}
	return nil
}

func (f *fakeJobStore) Complete(ctx context.Context, id uuid.UUID, resultID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok || job.Status != domain.JobStatusProcessing {
		return store.ErrJobNotFound
	}
	job.Status = domain.JobStatusCompleted
	job.ResultID = &resultID
	job.Progress = 100
	f.completed[id] = resultID
	return nil
}

func (f *fakeJobStore) Fail(ctx context.Context, id uuid.UUID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok || (job.Status != domain.JobStatusPending && job.Status != domain.JobStatusProcessing) {
		return store.ErrJobNotFound
	}
	job.Status = domain.JobStatusFailed
	job.Message = message
	f.failMessages = append(f.failMessages, message)
	return nil
}

func (f *fakeJobStore) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok || job.Status != domain.JobStatusPending {
		return false, nil
	}
	job.Status = domain.JobStatusFailed
	job.Message = domain.CancelledJobMessage
	return true, nil
}

// ResetStuck pops the next scripted batch of IDs; tests queue batches
// so only the first sweep finds work.
func (f *fakeJobStore) ResetStuck(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.resetIDs) == 0 {
		return nil, nil
	}
	ids := f.resetIDs[0]
	f.resetIDs = f.resetIDs[1:]
	return ids, nil
}

func (f *fakeJobStore) AppendLog(ctx context.Context, entry *domain.JobLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, entry)
	return nil
}

func (f *fakeJobStore) ListLogs(ctx context.Context, jobID uuid.UUID) ([]*domain.JobLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.JobLogEntry
	for _, entry := range f.logs {
		if entry.JobID == jobID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeJobStore) WithTx(tx *sql.Tx) store.JobStore { return f }

func (f *fakeJobStore) loggedMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.logs))
	for _, entry := range f.logs {
		out = append(out, entry.Message)
	}
	return out
}

// fakeDocumentStore serves a fixed document and chunk set.
type fakeDocumentStore struct {
	doc       *domain.Document
	docErr    error
	chunks    []*domain.Chunk
	chunksErr error
}

func (f *fakeDocumentStore) Create(ctx context.Context, doc *domain.Document) error { return nil }

func (f *fakeDocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	if f.docErr != nil {
		return nil, f.docErr
	}
	if f.doc == nil || f.doc.ID != id {
		return nil, store.ErrDocumentNotFound
	}
	return f.doc, nil
}

func (f *fakeDocumentStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Document, error) {
	return nil, nil
}

func (f *fakeDocumentStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.DocumentStatus) error {
	return nil
}

func (f *fakeDocumentStore) CreateChunks(ctx context.Context, chunks []*domain.Chunk) error {
	return nil
}

func (f *fakeDocumentStore) GetChunks(ctx context.Context, documentID uuid.UUID) ([]*domain.Chunk, error) {
	if f.chunksErr != nil {
		return nil, f.chunksErr
	}
	return f.chunks, nil
}

func (f *fakeDocumentStore) WithTx(tx *sql.Tx) store.DocumentStore { return f }

// fakeGenerator replays scripted batches and records every request it
// receives.
type fakeGenerator struct {
	mu       sync.Mutex
	batches  []*generation.Batch
	err      error
	requests []generation.Request
}

func (f *fakeGenerator) Generate(ctx context.Context, req generation.Request) (*generation.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return &generation.Batch{}, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeGenerator) request(i int) generation.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

// fakeTask records executions and signals them on a channel. When
// claims is set, Execute flips the job out of pending first, the way a
// real task would, so sweep tests do not re-queue it forever.
type fakeTask struct {
	id       uuid.UUID
	execErr  error
	executed chan uuid.UUID
	claims   *fakeJobStore
}

func newFakeTask(executed chan uuid.UUID) *fakeTask {
	return &fakeTask{id: uuid.New(), executed: executed}
}

func (f *fakeTask) ID() uuid.UUID { return f.id }
func (f *fakeTask) Type() string  { return "fake" }

func (f *fakeTask) Execute(ctx context.Context) error {
	if f.claims != nil {
		_, _ = f.claims.Claim(ctx, f.id)
	}
	if f.executed != nil {
		f.executed <- f.id
	}
	return f.execErr
}

// fakeFactory creates fakeTasks that signal on the shared channel.
type fakeFactory struct {
	mu        sync.Mutex
	executed  chan uuid.UUID
	claims    *fakeJobStore
	createErr error
	created   []uuid.UUID
}

func (f *fakeFactory) CreateTask(jobID uuid.UUID) (Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, jobID)
	return &fakeTask{id: jobID, executed: f.executed, claims: f.claims}, nil
}

func (f *fakeFactory) createdIDs() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uuid.UUID, len(f.created))
	copy(out, f.created)
	return out
}

// fakeSubmitter records submitted tasks.
type fakeSubmitter struct {
	mu        sync.Mutex
	submitted []Task
	err       error
}

func (f *fakeSubmitter) Submit(ctx context.Context, t Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.submitted = append(f.submitted, t)
	return nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}
