package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/store"
)

// QuizWithQuestions pairs a quiz with its ordered questions. Correct
// answers and explanations stay on the Question values; the API layer
// decides what to expose before an attempt is finished.
type QuizWithQuestions struct {
	Quiz      *domain.Quiz       `json:"quiz"`
	Questions []*domain.Question `json:"questions"`
}

// QuizService provides quiz reads. Attempt scoring lives in the quiz
// subpackage.
type QuizService interface {
	// Get returns a quiz with its questions ordered by position.
	// Returns store.ErrQuizNotFound if absent and ErrNotOwned for
	// another user's quiz.
	Get(ctx context.Context, userID, quizID uuid.UUID) (*QuizWithQuestions, error)
}

type quizService struct {
	quizzes store.QuizStore
	logger  *slog.Logger
}

// NewQuizService creates a QuizService over the given store.
func NewQuizService(quizzes store.QuizStore, logger *slog.Logger) QuizService {
	return &quizService{
		quizzes: quizzes,
		logger:  logger.With(slog.String("component", "quiz_service")),
	}
}

func (s *quizService) Get(ctx context.Context, userID, quizID uuid.UUID) (*QuizWithQuestions, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, store.ErrQuizNotFound) {
			return nil, err
		}
		s.logger.Error("failed to load quiz",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quizID.String()))
		return nil, opError("quiz", "get", err)
	}
	if quiz.UserID != userID {
		return nil, ErrNotOwned
	}

	questions, err := s.quizzes.GetQuestions(ctx, quizID)
	if err != nil {
		s.logger.Error("failed to load quiz questions",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quizID.String()))
		return nil, opError("quiz", "get", err)
	}

	return &QuizWithQuestions{Quiz: quiz, Questions: questions}, nil
}
