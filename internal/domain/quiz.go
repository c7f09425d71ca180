package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionType identifies how a quiz question is asked and answered.
type QuestionType string

// Possible question type values
const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeFillBlank      QuestionType = "fill_blank"
)

// DefaultPassPercentage is the passing threshold for quizzes that do not
// set their own.
const DefaultPassPercentage = 70

// Quiz validation errors
var (
	ErrQuizIDEmpty            = errors.New("quiz ID cannot be empty")
	ErrQuizUserIDEmpty        = errors.New("quiz user ID cannot be empty")
	ErrQuizTitleEmpty         = errors.New("quiz title cannot be empty")
	ErrInvalidPassPercentage  = errors.New("pass percentage must be between 0 and 100")
	ErrQuestionIDEmpty        = errors.New("question ID cannot be empty")
	ErrQuestionQuizIDEmpty    = errors.New("question quiz ID cannot be empty")
	ErrQuestionPromptEmpty    = errors.New("question prompt cannot be empty")
	ErrQuestionAnswerEmpty    = errors.New("question correct answer cannot be empty")
	ErrInvalidQuestionType    = errors.New("invalid question type")
	ErrQuestionOptionsInvalid = errors.New("multiple choice question needs at least two distinct options")
)

// Quiz is a named collection of questions, optionally linked to the
// document and job that produced it.
type Quiz struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	DocumentID     *uuid.UUID `json:"document_id,omitempty"`
	JobID          *uuid.UUID `json:"job_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	PassPercentage int        `json:"pass_percentage"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewQuiz creates a new Quiz with the default pass percentage.
func NewQuiz(userID uuid.UUID, title, description string) (*Quiz, error) {
	now := time.Now().UTC()
	quiz := &Quiz{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          title,
		Description:    description,
		PassPercentage: DefaultPassPercentage,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	return quiz, nil
}

// NewGeneratedQuiz creates a Quiz linked to the document and job that
// produced it.
func NewGeneratedQuiz(userID, documentID, jobID uuid.UUID, title, description string) (*Quiz, error) {
	quiz, err := NewQuiz(userID, title, description)
	if err != nil {
		return nil, err
	}

	quiz.DocumentID = &documentID
	quiz.JobID = &jobID
	return quiz, nil
}

// Validate checks if the Quiz has valid data.
func (q *Quiz) Validate() error {
	if q.ID == uuid.Nil {
		return ErrQuizIDEmpty
	}

	if q.UserID == uuid.Nil {
		return ErrQuizUserIDEmpty
	}

	if q.Title == "" {
		return ErrQuizTitleEmpty
	}

	if q.PassPercentage < 0 || q.PassPercentage > 100 {
		return ErrInvalidPassPercentage
	}

	return nil
}

// QuestionOption is one selectable choice of a multiple-choice question.
// ID is the short key a learner submits as their answer ("a", "b", ...).
type QuestionOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is a single quiz question. For multiple choice,
// CorrectAnswer holds the ID of the correct option; for true/false it is
// "true" or "false"; otherwise it is the expected answer text.
type Question struct {
	ID            uuid.UUID        `json:"id"`
	QuizID        uuid.UUID        `json:"quiz_id"`
	Type          QuestionType     `json:"type"`
	Prompt        string           `json:"prompt"`
	Options       []QuestionOption `json:"options,omitempty"`
	CorrectAnswer string           `json:"correct_answer"`
	Explanation   string           `json:"explanation,omitempty"`
	Position      int              `json:"position"`
	SourcePage    *int             `json:"source_page,omitempty"`
	SourceSnippet string           `json:"source_snippet,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// NewQuestion creates a Question at the given position in its quiz.
func NewQuestion(quizID uuid.UUID, questionType QuestionType, prompt, correctAnswer string, position int) (*Question, error) {
	question := &Question{
		ID:            uuid.New(),
		QuizID:        quizID,
		Type:          questionType,
		Prompt:        prompt,
		CorrectAnswer: correctAnswer,
		Position:      position,
		CreatedAt:     time.Now().UTC(),
	}

	if err := question.Validate(); err != nil {
		return nil, err
	}

	return question, nil
}

// Validate checks if the Question has valid data. Multiple-choice
// questions must carry at least two distinct non-empty options and the
// correct answer must name one of them.
func (q *Question) Validate() error {
	if q.ID == uuid.Nil {
		return ErrQuestionIDEmpty
	}

	if q.QuizID == uuid.Nil {
		return ErrQuestionQuizIDEmpty
	}

	if !isValidQuestionType(q.Type) {
		return ErrInvalidQuestionType
	}

	if strings.TrimSpace(q.Prompt) == "" {
		return ErrQuestionPromptEmpty
	}

	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return ErrQuestionAnswerEmpty
	}

	if q.Type == QuestionTypeMultipleChoice {
		if !validOptionSet(q.Options, q.CorrectAnswer) {
			return ErrQuestionOptionsInvalid
		}
	}

	return nil
}

func validOptionSet(options []QuestionOption, correctAnswer string) bool {
	if len(options) < 2 {
		return false
	}

	seen := make(map[string]struct{}, len(options))
	correctFound := false
	for _, opt := range options {
		if opt.ID == "" || strings.TrimSpace(opt.Text) == "" {
			return false
		}
		if _, dup := seen[opt.ID]; dup {
			return false
		}
		seen[opt.ID] = struct{}{}
		if opt.ID == correctAnswer {
			correctFound = true
		}
	}

	return correctFound
}

func isValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeTrueFalse,
		QuestionTypeShortAnswer, QuestionTypeFillBlank:
		return true
	default:
		return false
	}
}
