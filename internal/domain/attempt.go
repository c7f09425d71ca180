package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// QuizAttempt validation errors
var (
	ErrAttemptIDEmpty        = errors.New("attempt ID cannot be empty")
	ErrAttemptQuizIDEmpty    = errors.New("attempt quiz ID cannot be empty")
	ErrAttemptUserIDEmpty    = errors.New("attempt user ID cannot be empty")
	ErrAnswerIDEmpty         = errors.New("answer ID cannot be empty")
	ErrAnswerAttemptIDEmpty  = errors.New("answer attempt ID cannot be empty")
	ErrAnswerQuestionIDEmpty = errors.New("answer question ID cannot be empty")
	ErrNegativeTimeSpent     = errors.New("time spent cannot be negative")
)

// QuizAttempt is one learner's pass through a quiz. Score fields are
// meaningful only once CompletedAt is set; a finished attempt is
// immutable.
type QuizAttempt struct {
	ID             uuid.UUID  `json:"id"`
	QuizID         uuid.UUID  `json:"quiz_id"`
	UserID         uuid.UUID  `json:"user_id"`
	TotalQuestions int        `json:"total_questions"`
	CorrectCount   int        `json:"correct_count"`
	Percentage     int        `json:"percentage"`
	Passed         bool       `json:"passed"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// NewQuizAttempt starts an attempt over the given number of questions.
func NewQuizAttempt(quizID, userID uuid.UUID, totalQuestions int) (*QuizAttempt, error) {
	attempt := &QuizAttempt{
		ID:             uuid.New(),
		QuizID:         quizID,
		UserID:         userID,
		TotalQuestions: totalQuestions,
		StartedAt:      time.Now().UTC(),
	}

	if err := attempt.Validate(); err != nil {
		return nil, err
	}

	return attempt, nil
}

// Validate checks if the QuizAttempt has valid data.
func (a *QuizAttempt) Validate() error {
	if a.ID == uuid.Nil {
		return ErrAttemptIDEmpty
	}

	if a.QuizID == uuid.Nil {
		return ErrAttemptQuizIDEmpty
	}

	if a.UserID == uuid.Nil {
		return ErrAttemptUserIDEmpty
	}

	return nil
}

// IsFinished reports whether the attempt has been completed.
func (a *QuizAttempt) IsFinished() bool {
	return a.CompletedAt != nil
}

// AttemptAnswer records one submitted answer within an attempt.
type AttemptAnswer struct {
	ID          uuid.UUID `json:"id"`
	AttemptID   uuid.UUID `json:"attempt_id"`
	QuestionID  uuid.UUID `json:"question_id"`
	AnswerText  string    `json:"answer_text"`
	IsCorrect   bool      `json:"is_correct"`
	TimeSpentMs int       `json:"time_spent_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAttemptAnswer records an answer to a question. Blank answer text is
// allowed: clients submit blanks for skipped questions.
func NewAttemptAnswer(attemptID, questionID uuid.UUID, answerText string, isCorrect bool, timeSpentMs int) (*AttemptAnswer, error) {
	answer := &AttemptAnswer{
		ID:          uuid.New(),
		AttemptID:   attemptID,
		QuestionID:  questionID,
		AnswerText:  answerText,
		IsCorrect:   isCorrect,
		TimeSpentMs: timeSpentMs,
		CreatedAt:   time.Now().UTC(),
	}

	if err := answer.Validate(); err != nil {
		return nil, err
	}

	return answer, nil
}

// Validate checks if the AttemptAnswer has valid data.
func (a *AttemptAnswer) Validate() error {
	if a.ID == uuid.Nil {
		return ErrAnswerIDEmpty
	}

	if a.AttemptID == uuid.Nil {
		return ErrAnswerAttemptIDEmpty
	}

	if a.QuestionID == uuid.Nil {
		return ErrAnswerQuestionIDEmpty
	}

	if a.TimeSpentMs < 0 {
		return ErrNegativeTimeSpent
	}

	return nil
}
