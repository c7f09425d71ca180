package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/platform/logger"
	"github.com/revisehq/revise-api/internal/store"
)

// PostgresQuizStore implements store.QuizStore using PostgreSQL.
// Question options are stored as a JSONB array.
type PostgresQuizStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuizStore creates a PostgreSQL implementation of
// store.QuizStore. If logger is nil, slog.Default is used.
func NewPostgresQuizStore(db store.DBTX, logger *slog.Logger) *PostgresQuizStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuizStore{
		db:     db,
		logger: logger.With(slog.String("component", "quiz_store")),
	}
}

var _ store.QuizStore = (*PostgresQuizStore)(nil)

// WithTx implements store.QuizStore.WithTx.
func (s *PostgresQuizStore) WithTx(tx *sql.Tx) store.QuizStore {
	return &PostgresQuizStore{db: tx, logger: s.logger}
}

// Create implements store.QuizStore.Create.
func (s *PostgresQuizStore) Create(ctx context.Context, quiz *domain.Quiz) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := quiz.Validate(); err != nil {
		log.Warn("quiz validation failed during create",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quiz.ID.String()))
		return err
	}

	query := `
		INSERT INTO quizzes (id, user_id, document_id, job_id, title, description,
			pass_percentage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		quiz.ID,
		quiz.UserID,
		uuidOrNull(quiz.DocumentID),
		uuidOrNull(quiz.JobID),
		quiz.Title,
		quiz.Description,
		quiz.PassPercentage,
		quiz.CreatedAt,
		quiz.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create quiz",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quiz.ID.String()))
		return MapError(err)
	}

	log.Info("quiz created",
		slog.String("quiz_id", quiz.ID.String()),
		slog.String("user_id", quiz.UserID.String()))
	return nil
}

// CreateQuestions implements store.QuizStore.CreateQuestions. Callers
// run it in the same transaction that creates the quiz.
func (s *PostgresQuizStore) CreateQuestions(ctx context.Context, questions []*domain.Question) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(questions) == 0 {
		return nil
	}

	query := `
		INSERT INTO quiz_questions (id, quiz_id, question_type, prompt, options,
			correct_answer, explanation, position, source_page, source_snippet, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, question := range questions {
		if err := question.Validate(); err != nil {
			log.Warn("question validation failed during batch create",
				slog.String("error", err.Error()),
				slog.String("question_id", question.ID.String()))
			return err
		}

		options, err := marshalOptions(question.Options)
		if err != nil {
			return err
		}

		_, err = s.db.ExecContext(ctx, query,
			question.ID,
			question.QuizID,
			question.Type,
			question.Prompt,
			options,
			question.CorrectAnswer,
			question.Explanation,
			question.Position,
			intOrNull(question.SourcePage),
			question.SourceSnippet,
			question.CreatedAt,
		)
		if err != nil {
			log.Error("failed to create quiz question",
				slog.String("error", err.Error()),
				slog.String("question_id", question.ID.String()),
				slog.String("quiz_id", question.QuizID.String()))
			return MapError(err)
		}
	}

	log.Debug("quiz questions created",
		slog.String("quiz_id", questions[0].QuizID.String()),
		slog.Int("count", len(questions)))
	return nil
}

// GetByID implements store.QuizStore.GetByID.
func (s *PostgresQuizStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, document_id, job_id, title, description,
			pass_percentage, created_at, updated_at
		FROM quizzes
		WHERE id = $1
	`

	var quiz domain.Quiz
	var documentID, jobID uuid.NullUUID
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&quiz.ID,
		&quiz.UserID,
		&documentID,
		&jobID,
		&quiz.Title,
		&quiz.Description,
		&quiz.PassPercentage,
		&quiz.CreatedAt,
		&quiz.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("quiz not found", slog.String("quiz_id", id.String()))
			return nil, store.ErrQuizNotFound
		}
		log.Error("failed to get quiz by ID",
			slog.String("error", err.Error()),
			slog.String("quiz_id", id.String()))
		return nil, MapError(err)
	}

	if documentID.Valid {
		quiz.DocumentID = &documentID.UUID
	}
	if jobID.Valid {
		quiz.JobID = &jobID.UUID
	}
	return &quiz, nil
}

// GetQuestions implements store.QuizStore.GetQuestions.
func (s *PostgresQuizStore) GetQuestions(ctx context.Context, quizID uuid.UUID) ([]*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, quiz_id, question_type, prompt, options, correct_answer,
			explanation, position, source_page, source_snippet, created_at
		FROM quiz_questions
		WHERE quiz_id = $1
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, quizID)
	if err != nil {
		log.Error("failed to list quiz questions",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quizID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	questions := []*domain.Question{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			log.Error("failed to scan question row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating question rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return questions, nil
}

// GetQuestion implements store.QuizStore.GetQuestion.
func (s *PostgresQuizStore) GetQuestion(ctx context.Context, id uuid.UUID) (*domain.Question, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, quiz_id, question_type, prompt, options, correct_answer,
			explanation, position, source_page, source_snippet, created_at
		FROM quiz_questions
		WHERE id = $1
	`

	question, err := scanQuestion(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("quiz question not found", slog.String("question_id", id.String()))
			return nil, store.ErrQuestionNotFound
		}
		log.Error("failed to get quiz question",
			slog.String("error", err.Error()),
			slog.String("question_id", id.String()))
		return nil, MapError(err)
	}

	return question, nil
}

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var question domain.Question
	var questionType string
	var options []byte
	var sourcePage sql.NullInt64

	err := row.Scan(
		&question.ID,
		&question.QuizID,
		&questionType,
		&question.Prompt,
		&options,
		&question.CorrectAnswer,
		&question.Explanation,
		&question.Position,
		&sourcePage,
		&question.SourceSnippet,
		&question.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	question.Type = domain.QuestionType(questionType)
	if len(options) > 0 {
		if err := json.Unmarshal(options, &question.Options); err != nil {
			return nil, fmt.Errorf("failed to decode question options: %w", err)
		}
	}
	if sourcePage.Valid {
		page := int(sourcePage.Int64)
		question.SourcePage = &page
	}
	return &question, nil
}

func marshalOptions(options []domain.QuestionOption) ([]byte, error) {
	if len(options) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode question options: %w", err)
	}
	return data, nil
}
