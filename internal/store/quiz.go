package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
)

// QuizStore defines the interface for quiz and question persistence.
type QuizStore interface {
	// Create saves a new quiz.
	Create(ctx context.Context, quiz *domain.Quiz) error

	// CreateQuestions saves a batch of questions. Must run within the
	// same transaction that creates the quiz.
	CreateQuestions(ctx context.Context, questions []*domain.Question) error

	// GetByID retrieves a quiz by ID.
	// Returns ErrQuizNotFound if no quiz exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error)

	// GetQuestions returns a quiz's questions ordered by position.
	GetQuestions(ctx context.Context, quizID uuid.UUID) ([]*domain.Question, error)

	// GetQuestion retrieves a single question by ID.
	// Returns ErrQuestionNotFound if no question exists.
	GetQuestion(ctx context.Context, id uuid.UUID) (*domain.Question, error)

	// WithTx returns a QuizStore bound to the given transaction.
	WithTx(tx *sql.Tx) QuizStore
}

// AttemptStore defines the interface for quiz attempt persistence.
type AttemptStore interface {
	// CreateAttempt saves a new in-progress attempt.
	CreateAttempt(ctx context.Context, attempt *domain.QuizAttempt) error

	// GetAttempt retrieves an attempt by ID.
	// Returns ErrAttemptNotFound if no attempt exists.
	GetAttempt(ctx context.Context, id uuid.UUID) (*domain.QuizAttempt, error)

	// FinishAttempt writes the final score and completion time. The
	// update is conditional on the attempt still being unfinished;
	// returns ErrConcurrentUpdate if another finish won the race.
	FinishAttempt(ctx context.Context, attempt *domain.QuizAttempt) error

	// CreateAnswer records an answer. Returns ErrAnswerExists when the
	// (attempt, question) pair already has one.
	CreateAnswer(ctx context.Context, answer *domain.AttemptAnswer) error

	// ListAnswers returns an attempt's answers ordered by creation time.
	ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]*domain.AttemptAnswer, error)

	// CountAnswers returns how many answers the attempt has recorded.
	CountAnswers(ctx context.Context, attemptID uuid.UUID) (int, error)

	// WithTx returns an AttemptStore bound to the given transaction.
	WithTx(tx *sql.Tx) AttemptStore
}
