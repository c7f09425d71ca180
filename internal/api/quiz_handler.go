package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/revisehq/revise-api/internal/api/shared"
	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/service"
	"github.com/revisehq/revise-api/internal/service/quiz"
)

// QuestionView is a question as shown to a quiz taker. The correct
// answer and explanation are withheld; they come back per question in
// the grading response.
type QuestionView struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Prompt     string                  `json:"prompt"`
	Options    []domain.QuestionOption `json:"options,omitempty"`
	Position   int                     `json:"position"`
	SourcePage *int                    `json:"source_page,omitempty"`
}

// QuizResponse is a quiz with its taker-facing questions.
type QuizResponse struct {
	Quiz      *domain.Quiz   `json:"quiz"`
	Questions []QuestionView `json:"questions"`
}

// SubmitAnswerRequest represents the request body for answering a
// question. AnswerText may be empty; a blank submission records a skip.
type SubmitAnswerRequest struct {
	QuestionID  string `json:"question_id"             validate:"required,uuid"`
	AnswerText  string `json:"answer_text"`
	TimeSpentMs int    `json:"time_spent_ms,omitempty" validate:"omitempty,min=0"`
}

// QuizHandler handles quiz and quiz attempt HTTP requests.
type QuizHandler struct {
	quizService service.QuizService
	scorer      quiz.Scorer
	validator   *validator.Validate
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService service.QuizService, scorer quiz.Scorer) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		scorer:      scorer,
		validator:   validator.New(),
	}
}

// GetQuiz handles GET /api/quizzes/{id} requests.
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	qz, err := h.quizService.Get(r.Context(), userID, quizID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, quizToResponse(qz))
}

// StartAttempt handles POST /api/quizzes/{id}/attempts requests.
func (h *QuizHandler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	attempt, err := h.scorer.StartAttempt(r.Context(), userID, quizID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, attempt)
}

// SubmitAnswer handles POST /api/attempts/{id}/answers requests. The
// grading result, including the correct answer and explanation, comes
// back immediately.
func (h *QuizHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, attemptID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	questionID, err := parseUUIDField(req.QuestionID, "question_id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.scorer.SubmitAnswer(
		r.Context(),
		userID,
		attemptID,
		questionID,
		req.AnswerText,
		req.TimeSpentMs,
	)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// FinishAttempt handles POST /api/attempts/{id}/finish requests. Every
// question must have a recorded answer before an attempt can finish.
func (h *QuizHandler) FinishAttempt(w http.ResponseWriter, r *http.Request) {
	userID, attemptID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	attempt, err := h.scorer.FinishAttempt(r.Context(), userID, attemptID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, attempt)
}

// quizToResponse strips grading fields from the quiz's questions.
func quizToResponse(qz *service.QuizWithQuestions) QuizResponse {
	questions := make([]QuestionView, 0, len(qz.Questions))
	for _, q := range qz.Questions {
		questions = append(questions, QuestionView{
			ID:         q.ID.String(),
			Type:       string(q.Type),
			Prompt:     q.Prompt,
			Options:    q.Options,
			Position:   q.Position,
			SourcePage: q.SourcePage,
		})
	}
	return QuizResponse{
		Quiz:      qz.Quiz,
		Questions: questions,
	}
}
