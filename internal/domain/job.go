package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobKind is the target artifact of a generation job.
type JobKind string

// Possible job kind values
const (
	JobKindDeck JobKind = "deck"
	JobKindQuiz JobKind = "quiz"
)

// JobStatus represents a generation job's position in its state machine:
// pending → processing → {completed | failed}. Pending leaves the state
// machine only via a worker claim or cancellation; completed and failed
// are terminal.
type JobStatus string

// Possible job status values
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Item count bounds for a generation request.
const (
	MinJobItemCount     = 1
	MaxJobItemCount     = 50
	DefaultJobItemCount = 10
)

// CancelledJobMessage is the failure message recorded when a pending job
// is cancelled before a worker claims it.
const CancelledJobMessage = "cancelled"

// GenerationJob validation errors
var (
	ErrJobIDEmpty         = errors.New("job ID cannot be empty")
	ErrJobUserIDEmpty     = errors.New("job user ID cannot be empty")
	ErrJobDocumentIDEmpty = errors.New("job document ID cannot be empty")
	ErrInvalidJobKind     = errors.New("invalid job kind")
	ErrInvalidJobStatus   = errors.New("invalid job status")
	ErrInvalidItemCount   = fmt.Errorf("item count must be between %d and %d", MinJobItemCount, MaxJobItemCount)
	ErrInvalidDifficulty  = errors.New("invalid difficulty")
	ErrInvalidItemTypes   = errors.New("item types do not match the job kind")
	ErrInvalidProgress    = errors.New("progress must be between 0 and 100")
	ErrJobResultMismatch  = errors.New("result ID is only valid on a completed job")
	ErrJobMessageMismatch = errors.New("failure message is only valid on a failed job")
)

// GenerationJob is one asynchronous request to turn a processed document
// into a deck or quiz. Exactly one worker owns a job while it is
// processing; all other observers poll read-only snapshots.
//
// Invariant: ResultID is set if and only if the job is completed, and
// Message is set if and only if it is failed. Progress never decreases
// while processing; the store layer enforces monotonicity.
type GenerationJob struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	DocumentID  uuid.UUID  `json:"document_id"`
	Kind        JobKind    `json:"kind"`
	Status      JobStatus  `json:"status"`
	ItemCount   int        `json:"item_count"`
	ItemTypes   []string   `json:"item_types,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	FocusTopics []string   `json:"focus_topics,omitempty"`
	Progress    int        `json:"progress"`
	ResultID    *uuid.UUID `json:"result_id,omitempty"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// JobParams are the caller-tunable knobs of a generation request. Zero
// values take defaults: item count 10, difficulty mixed, no topic or
// type constraints.
type JobParams struct {
	ItemCount   int
	ItemTypes   []string
	Difficulty  Difficulty
	FocusTopics []string
}

// NewGenerationJob creates a pending job for the given document.
func NewGenerationJob(userID, documentID uuid.UUID, kind JobKind, params JobParams) (*GenerationJob, error) {
	if params.ItemCount == 0 {
		params.ItemCount = DefaultJobItemCount
	}
	if params.Difficulty == "" {
		params.Difficulty = DifficultyMixed
	}

	now := time.Now().UTC()
	job := &GenerationJob{
		ID:          uuid.New(),
		UserID:      userID,
		DocumentID:  documentID,
		Kind:        kind,
		Status:      JobStatusPending,
		ItemCount:   params.ItemCount,
		ItemTypes:   params.ItemTypes,
		Difficulty:  params.Difficulty,
		FocusTopics: params.FocusTopics,
		Progress:    0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the GenerationJob has valid data and that the
// terminal-state invariants hold.
func (j *GenerationJob) Validate() error {
	if j.ID == uuid.Nil {
		return ErrJobIDEmpty
	}

	if j.UserID == uuid.Nil {
		return ErrJobUserIDEmpty
	}

	if j.DocumentID == uuid.Nil {
		return ErrJobDocumentIDEmpty
	}

	if !isValidJobKind(j.Kind) {
		return ErrInvalidJobKind
	}

	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}

	if j.ItemCount < MinJobItemCount || j.ItemCount > MaxJobItemCount {
		return ErrInvalidItemCount
	}

	if !validItemTypes(j.Kind, j.ItemTypes) {
		return ErrInvalidItemTypes
	}

	if !IsValidDifficulty(j.Difficulty) {
		return ErrInvalidDifficulty
	}

	if j.Progress < 0 || j.Progress > 100 {
		return ErrInvalidProgress
	}

	if j.ResultID != nil && j.Status != JobStatusCompleted {
		return ErrJobResultMismatch
	}

	if j.Message != "" && j.Status != JobStatusFailed {
		return ErrJobMessageMismatch
	}

	return nil
}

// IsTerminal reports whether the job can no longer change state.
func (j *GenerationJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// CanTransitionTo reports whether moving from the job's current status
// to next is a legal state-machine edge. pending→failed covers
// cancellation before a worker claim.
func (j *GenerationJob) CanTransitionTo(next JobStatus) bool {
	switch j.Status {
	case JobStatusPending:
		return next == JobStatusProcessing || next == JobStatusFailed
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

func isValidJobKind(k JobKind) bool {
	return k == JobKindDeck || k == JobKindQuiz
}

// validItemTypes checks that every requested item type belongs to the
// job's kind: card types for decks, question types for quizzes.
func validItemTypes(kind JobKind, itemTypes []string) bool {
	for _, t := range itemTypes {
		switch kind {
		case JobKindDeck:
			if !isValidCardType(CardType(t)) {
				return false
			}
		case JobKindQuiz:
			if !isValidQuestionType(QuestionType(t)) {
				return false
			}
		}
	}
	return true
}

func isValidJobStatus(s JobStatus) bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}
