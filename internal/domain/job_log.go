package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobLogLevel classifies a job log entry.
type JobLogLevel string

// Possible job log level values
const (
	JobLogLevelInfo  JobLogLevel = "info"
	JobLogLevelWarn  JobLogLevel = "warn"
	JobLogLevelError JobLogLevel = "error"
)

// JobLogEntry validation errors
var (
	ErrJobLogIDEmpty      = errors.New("job log ID cannot be empty")
	ErrJobLogJobIDEmpty   = errors.New("job log job ID cannot be empty")
	ErrJobLogMessageEmpty = errors.New("job log message cannot be empty")
	ErrInvalidJobLogLevel = errors.New("invalid job log level")
)

// JobLogEntry is one diagnostic record attached to a generation job.
// Entries are written on state transitions and candidate rejections so
// no generated content is ever dropped without trace.
type JobLogEntry struct {
	ID        uuid.UUID       `json:"id"`
	JobID     uuid.UUID       `json:"job_id"`
	Level     JobLogLevel     `json:"level"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewJobLogEntry creates a log entry for the given job. details may be
// nil; when present it must already be valid JSON.
func NewJobLogEntry(jobID uuid.UUID, level JobLogLevel, message string, details json.RawMessage) (*JobLogEntry, error) {
	entry := &JobLogEntry{
		ID:        uuid.New(),
		JobID:     jobID,
		Level:     level,
		Message:   message,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the JobLogEntry has valid data.
func (e *JobLogEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrJobLogIDEmpty
	}

	if e.JobID == uuid.Nil {
		return ErrJobLogJobIDEmpty
	}

	if !isValidJobLogLevel(e.Level) {
		return ErrInvalidJobLogLevel
	}

	if e.Message == "" {
		return ErrJobLogMessageEmpty
	}

	return nil
}

func isValidJobLogLevel(l JobLogLevel) bool {
	switch l {
	case JobLogLevelInfo, JobLogLevelWarn, JobLogLevelError:
		return true
	default:
		return false
	}
}
