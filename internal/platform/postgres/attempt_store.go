package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/platform/logger"
	"github.com/revisehq/revise-api/internal/store"
)

// PostgresAttemptStore implements store.AttemptStore using PostgreSQL.
// The (attempt_id, question_id) unique constraint makes answer
// submission idempotent-hostile on purpose: a second answer to the same
// question surfaces as store.ErrAnswerExists.
type PostgresAttemptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAttemptStore creates a PostgreSQL implementation of
// store.AttemptStore. If logger is nil, slog.Default is used.
func NewPostgresAttemptStore(db store.DBTX, logger *slog.Logger) *PostgresAttemptStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAttemptStore{
		db:     db,
		logger: logger.With(slog.String("component", "attempt_store")),
	}
}

var _ store.AttemptStore = (*PostgresAttemptStore)(nil)

// WithTx implements store.AttemptStore.WithTx.
func (s *PostgresAttemptStore) WithTx(tx *sql.Tx) store.AttemptStore {
	return &PostgresAttemptStore{db: tx, logger: s.logger}
}

// CreateAttempt implements store.AttemptStore.CreateAttempt.
func (s *PostgresAttemptStore) CreateAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO quiz_attempts (id, quiz_id, user_id, total_questions,
			correct_count, percentage, passed, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.QuizID,
		attempt.UserID,
		attempt.TotalQuestions,
		attempt.CorrectCount,
		attempt.Percentage,
		attempt.Passed,
		attempt.StartedAt,
		timeOrNull(attempt.CompletedAt),
	)
	if err != nil {
		log.Error("failed to create quiz attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attempt.ID.String()))
		return MapError(err)
	}

	log.Info("quiz attempt started",
		slog.String("attempt_id", attempt.ID.String()),
		slog.String("quiz_id", attempt.QuizID.String()))
	return nil
}

// GetAttempt implements store.AttemptStore.GetAttempt.
func (s *PostgresAttemptStore) GetAttempt(ctx context.Context, id uuid.UUID) (*domain.QuizAttempt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, quiz_id, user_id, total_questions, correct_count,
			percentage, passed, started_at, completed_at
		FROM quiz_attempts
		WHERE id = $1
	`

	var attempt domain.QuizAttempt
	var completedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&attempt.ID,
		&attempt.QuizID,
		&attempt.UserID,
		&attempt.TotalQuestions,
		&attempt.CorrectCount,
		&attempt.Percentage,
		&attempt.Passed,
		&attempt.StartedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("quiz attempt not found", slog.String("attempt_id", id.String()))
			return nil, store.ErrAttemptNotFound
		}
		log.Error("failed to get quiz attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", id.String()))
		return nil, MapError(err)
	}

	if completedAt.Valid {
		t := completedAt.Time
		attempt.CompletedAt = &t
	}
	return &attempt, nil
}

// FinishAttempt implements store.AttemptStore.FinishAttempt. The update
// only lands while completed_at is still NULL, so two racing finishes
// resolve to exactly one winner.
func (s *PostgresAttemptStore) FinishAttempt(ctx context.Context, attempt *domain.QuizAttempt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if attempt.CompletedAt == nil {
		return fmt.Errorf("finish requires a completion time")
	}

	query := `
		UPDATE quiz_attempts
		SET correct_count = $1, percentage = $2, passed = $3, completed_at = $4
		WHERE id = $5 AND completed_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query,
		attempt.CorrectCount,
		attempt.Percentage,
		attempt.Passed,
		timeOrNull(attempt.CompletedAt),
		attempt.ID,
	)
	if err != nil {
		log.Error("failed to finish quiz attempt",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attempt.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rowsAffected > 0 {
		log.Info("quiz attempt finished",
			slog.String("attempt_id", attempt.ID.String()),
			slog.Int("percentage", attempt.Percentage),
			slog.Bool("passed", attempt.Passed))
		return nil
	}

	var exists bool
	checkQuery := `SELECT EXISTS (SELECT 1 FROM quiz_attempts WHERE id = $1)`
	if err := s.db.QueryRowContext(ctx, checkQuery, attempt.ID).Scan(&exists); err != nil {
		return MapError(err)
	}
	if !exists {
		return store.ErrAttemptNotFound
	}
	return store.ErrConcurrentUpdate
}

// CreateAnswer implements store.AttemptStore.CreateAnswer.
func (s *PostgresAttemptStore) CreateAnswer(ctx context.Context, answer *domain.AttemptAnswer) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO attempt_answers (id, attempt_id, question_id, answer_text,
			is_correct, time_spent_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		answer.ID,
		answer.AttemptID,
		answer.QuestionID,
		answer.AnswerText,
		answer.IsCorrect,
		answer.TimeSpentMs,
		answer.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("answer already recorded",
				slog.String("attempt_id", answer.AttemptID.String()),
				slog.String("question_id", answer.QuestionID.String()))
			return fmt.Errorf("%w: %v", store.ErrAnswerExists, err)
		}
		log.Error("failed to create attempt answer",
			slog.String("error", err.Error()),
			slog.String("attempt_id", answer.AttemptID.String()))
		return MapError(err)
	}

	return nil
}

// ListAnswers implements store.AttemptStore.ListAnswers.
func (s *PostgresAttemptStore) ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]*domain.AttemptAnswer, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, attempt_id, question_id, answer_text, is_correct, time_spent_ms, created_at
		FROM attempt_answers
		WHERE attempt_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, attemptID)
	if err != nil {
		log.Error("failed to list attempt answers",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attemptID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	answers := []*domain.AttemptAnswer{}
	for rows.Next() {
		var answer domain.AttemptAnswer
		err := rows.Scan(
			&answer.ID,
			&answer.AttemptID,
			&answer.QuestionID,
			&answer.AnswerText,
			&answer.IsCorrect,
			&answer.TimeSpentMs,
			&answer.CreatedAt,
		)
		if err != nil {
			log.Error("failed to scan answer row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		answers = append(answers, &answer)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating answer rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return answers, nil
}

// CountAnswers implements store.AttemptStore.CountAnswers.
func (s *PostgresAttemptStore) CountAnswers(ctx context.Context, attemptID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT COUNT(*) FROM attempt_answers WHERE attempt_id = $1`

	var count int
	if err := s.db.QueryRowContext(ctx, query, attemptID).Scan(&count); err != nil {
		log.Error("failed to count attempt answers",
			slog.String("error", err.Error()),
			slog.String("attempt_id", attemptID.String()))
		return 0, MapError(err)
	}
	return count, nil
}
