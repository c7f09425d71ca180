package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/platform/logger"
	"github.com/revisehq/revise-api/internal/store"
)

// Common quiz scoring errors. Not-found conditions pass through as the
// store sentinels.
var (
	// ErrQuizNotOwned indicates the quiz belongs to another user.
	ErrQuizNotOwned = errors.New("quiz not owned by user")

	// ErrAttemptNotOwned indicates the attempt belongs to another user.
	ErrAttemptNotOwned = errors.New("attempt not owned by user")

	// ErrAttemptFinished indicates a write against an attempt that has
	// already been completed. Finished attempts are immutable.
	ErrAttemptFinished = errors.New("attempt is already finished")

	// ErrIncompleteAttempt indicates a finish request while questions
	// remain unanswered. Skipped questions are submitted as blank
	// answers, so every question has an answer row before finishing.
	ErrIncompleteAttempt = errors.New("attempt has unanswered questions")

	// ErrQuestionNotInQuiz indicates the question belongs to a
	// different quiz than the attempt.
	ErrQuestionNotInQuiz = errors.New("question does not belong to the attempt's quiz")

	// ErrNoQuestions indicates an attempt was started on a quiz with no
	// questions.
	ErrNoQuestions = errors.New("quiz has no questions")
)

// AnswerResult is the immediate feedback for one submitted answer.
type AnswerResult struct {
	QuestionID    uuid.UUID `json:"question_id"`
	IsCorrect     bool      `json:"is_correct"`
	CorrectAnswer string    `json:"correct_answer"`
	Explanation   string    `json:"explanation,omitempty"`
}

// Scorer runs quiz attempts: one attempt per call to StartAttempt,
// answers graded as they arrive, score fixed at FinishAttempt.
type Scorer interface {
	// StartAttempt opens an attempt over all of the quiz's questions.
	// Returns store.ErrQuizNotFound, ErrQuizNotOwned, or ErrNoQuestions.
	StartAttempt(ctx context.Context, userID, quizID uuid.UUID) (*domain.QuizAttempt, error)

	// SubmitAnswer grades one answer and records it. Grading happens
	// before the insert, so the stored row already carries the verdict.
	// Each question takes exactly one answer; a second submission
	// returns store.ErrAnswerExists. Blank answer text is a recorded
	// (incorrect) skip, not an error.
	SubmitAnswer(ctx context.Context, userID, attemptID, questionID uuid.UUID, answerText string, timeSpentMs int) (*AnswerResult, error)

	// FinishAttempt scores the attempt and marks it complete. Returns
	// ErrIncompleteAttempt while any question lacks an answer and
	// ErrAttemptFinished on repeat calls. The finished attempt is
	// immutable.
	FinishAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*domain.QuizAttempt, error)
}

type scorer struct {
	quizzes  store.QuizStore
	attempts store.AttemptStore
	now      func() time.Time
	logger   *slog.Logger
}

var _ Scorer = (*scorer)(nil)

// NewScorer creates a Scorer over the given stores.
func NewScorer(quizzes store.QuizStore, attempts store.AttemptStore, log *slog.Logger) Scorer {
	return &scorer{
		quizzes:  quizzes,
		attempts: attempts,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   log.With(slog.String("component", "quiz_scorer")),
	}
}

func (s *scorer) StartAttempt(ctx context.Context, userID, quizID uuid.UUID) (*domain.QuizAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, store.ErrQuizNotFound) {
			return nil, err
		}
		log.Error("failed to load quiz for attempt",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quizID.String()))
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}

	if quiz.UserID != userID {
		log.Warn("attempt on quiz owned by another user",
			slog.String("quiz_id", quizID.String()),
			slog.String("user_id", userID.String()))
		return nil, ErrQuizNotOwned
	}

	questions, err := s.quizzes.GetQuestions(ctx, quizID)
	if err != nil {
		log.Error("failed to load quiz questions",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quizID.String()))
		return nil, fmt.Errorf("failed to load quiz questions: %w", err)
	}

	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	attempt, err := domain.NewQuizAttempt(quizID, userID, len(questions))
	if err != nil {
		return nil, fmt.Errorf("failed to build attempt: %w", err)
	}

	if err := s.attempts.CreateAttempt(ctx, attempt); err != nil {
		log.Error("failed to create attempt",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quizID.String()))
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	log.Info("quiz attempt started",
		slog.String("attempt_id", attempt.ID.String()),
		slog.String("quiz_id", quizID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("total_questions", attempt.TotalQuestions))

	return attempt, nil
}

func (s *scorer) SubmitAnswer(ctx context.Context, userID, attemptID, questionID uuid.UUID, answerText string, timeSpentMs int) (*AnswerResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	attempt, err := s.getOwnedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	if attempt.IsFinished() {
		return nil, ErrAttemptFinished
	}

	question, err := s.quizzes.GetQuestion(ctx, questionID)
	if err != nil {
		if errors.Is(err, store.ErrQuestionNotFound) {
			return nil, err
		}
		log.Error("failed to load question",
			slog.String("error", err.Error()),
			slog.String("question_id", questionID.String()))
		return nil, fmt.Errorf("failed to load question: %w", err)
	}

	if question.QuizID != attempt.QuizID {
		return nil, ErrQuestionNotInQuiz
	}

	isCorrect := answerMatches(question, answerText)

	answer, err := domain.NewAttemptAnswer(attemptID, questionID, answerText, isCorrect, timeSpentMs)
	if err != nil {
		return nil, err
	}

	if err := s.attempts.CreateAnswer(ctx, answer); err != nil {
		if errors.Is(err, store.ErrAnswerExists) {
			return nil, err
		}
		log.Error("failed to record answer",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attemptID.String()),
			slog.String("question_id", questionID.String()))
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}

	log.Debug("answer recorded",
		slog.String("attempt_id", attemptID.String()),
		slog.String("question_id", questionID.String()),
		slog.Bool("is_correct", isCorrect),
		slog.Int("time_spent_ms", timeSpentMs))

	return &AnswerResult{
		QuestionID:    questionID,
		IsCorrect:     isCorrect,
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
	}, nil
}

func (s *scorer) FinishAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*domain.QuizAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	attempt, err := s.getOwnedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	if attempt.IsFinished() {
		return nil, ErrAttemptFinished
	}

	answered, err := s.attempts.CountAnswers(ctx, attemptID)
	if err != nil {
		log.Error("failed to count answers",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attemptID.String()))
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}

	if answered < attempt.TotalQuestions {
		return nil, fmt.Errorf("%w: %d of %d answered",
			ErrIncompleteAttempt, answered, attempt.TotalQuestions)
	}

	quiz, err := s.quizzes.GetByID(ctx, attempt.QuizID)
	if err != nil {
		log.Error("failed to load quiz for scoring",
			slog.String("error", err.Error()),
			slog.String("quiz_id", attempt.QuizID.String()))
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}

	answers, err := s.attempts.ListAnswers(ctx, attemptID)
	if err != nil {
		log.Error("failed to list answers",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attemptID.String()))
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}

	correct := 0
	for _, answer := range answers {
		if answer.IsCorrect {
			correct++
		}
	}

	now := s.now()
	finished := *attempt
	finished.CorrectCount = correct
	finished.Percentage = int(math.Round(float64(correct*100) / float64(attempt.TotalQuestions)))
	finished.Passed = finished.Percentage >= quiz.PassPercentage
	finished.CompletedAt = &now

	if err := s.attempts.FinishAttempt(ctx, &finished); err != nil {
		// A conflicting finish means the attempt completed under us.
		if errors.Is(err, store.ErrConcurrentUpdate) {
			return nil, ErrAttemptFinished
		}
		log.Error("failed to finish attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attemptID.String()))
		return nil, fmt.Errorf("failed to finish attempt: %w", err)
	}

	log.Info("quiz attempt finished",
		slog.String("attempt_id", attemptID.String()),
		slog.String("quiz_id", attempt.QuizID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("correct_count", correct),
		slog.Int("percentage", finished.Percentage),
		slog.Bool("passed", finished.Passed))

	return &finished, nil
}

func (s *scorer) getOwnedAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*domain.QuizAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		if errors.Is(err, store.ErrAttemptNotFound) {
			return nil, err
		}
		log.Error("failed to load attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attemptID.String()))
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}

	if attempt.UserID != userID {
		log.Warn("access to attempt owned by another user",
			slog.String("attempt_id", attemptID.String()),
			slog.String("user_id", userID.String()))
		return nil, ErrAttemptNotOwned
	}

	return attempt, nil
}

// answerMatches grades an answer against its question. Choice answers
// (option IDs, "true"/"false") compare exactly; free-text answers
// compare case-insensitively after trimming surrounding whitespace.
func answerMatches(question *domain.Question, answerText string) bool {
	switch question.Type {
	case domain.QuestionTypeMultipleChoice, domain.QuestionTypeTrueFalse:
		return answerText == question.CorrectAnswer
	case domain.QuestionTypeShortAnswer, domain.QuestionTypeFillBlank:
		return strings.EqualFold(strings.TrimSpace(answerText), strings.TrimSpace(question.CorrectAnswer))
	default:
		return false
	}
}
