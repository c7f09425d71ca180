package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/revisehq/revise-api/internal/api/shared"
	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/service"
	"github.com/revisehq/revise-api/internal/service/auth"
	"github.com/revisehq/revise-api/internal/service/quiz"
	"github.com/revisehq/revise-api/internal/service/review"
	"github.com/revisehq/revise-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes. The
// mapping is central so every handler agrees on the taxonomy: invalid
// input 400, unauthenticated 401, not owned 403, absent 404, state
// conflicts 409, everything else 500.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Ownership errors
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, review.ErrCardNotOwned),
		errors.Is(err, quiz.ErrQuizNotOwned),
		errors.Is(err, quiz.ErrAttemptNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, review.ErrCardNotFound),
		errors.Is(err, review.ErrScheduleNotFound):
		return http.StatusNotFound

	// State and uniqueness conflicts
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrConcurrentUpdate),
		errors.Is(err, service.ErrDocumentNotReady),
		errors.Is(err, service.ErrJobNotCancellable),
		errors.Is(err, quiz.ErrAttemptFinished),
		errors.Is(err, quiz.ErrIncompleteAttempt),
		errors.Is(err, quiz.ErrNoQuestions):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidJobKind),
		errors.Is(err, domain.ErrInvalidItemCount),
		errors.Is(err, domain.ErrInvalidDifficulty),
		errors.Is(err, domain.ErrInvalidItemTypes),
		errors.Is(err, domain.ErrNegativeTimeSpent),
		errors.Is(err, quiz.ErrQuestionNotInQuiz),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns the client-facing message for an error.
// Internal detail never crosses this boundary; unknown errors collapse
// to a generic message.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	// Ownership errors
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, review.ErrCardNotOwned),
		errors.Is(err, quiz.ErrQuizNotOwned),
		errors.Is(err, quiz.ErrAttemptNotOwned):
		return "You do not have access to this resource"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrDocumentNotFound):
		return "Document not found"

	case errors.Is(err, store.ErrDeckNotFound):
		return "Deck not found"

	case errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, review.ErrCardNotFound):
		return "Card not found"

	case errors.Is(err, review.ErrScheduleNotFound):
		return "Card schedule not found"

	case errors.Is(err, store.ErrJobNotFound):
		return "Generation job not found"

	case errors.Is(err, store.ErrQuizNotFound):
		return "Quiz not found"

	case errors.Is(err, store.ErrQuestionNotFound):
		return "Question not found"

	case errors.Is(err, store.ErrAttemptNotFound):
		return "Quiz attempt not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, store.ErrAnswerExists):
		return "Question already answered"

	case errors.Is(err, store.ErrConcurrentUpdate):
		return "Resource was modified concurrently, retry the request"

	case errors.Is(err, service.ErrDocumentNotReady):
		return "Document is not ready for generation"

	case errors.Is(err, service.ErrJobNotCancellable):
		return "Job can no longer be cancelled"

	case errors.Is(err, quiz.ErrAttemptFinished):
		return "Attempt is already finished"

	case errors.Is(err, quiz.ErrIncompleteAttempt):
		return "All questions must be answered before finishing"

	case errors.Is(err, quiz.ErrNoQuestions):
		return "Quiz has no questions"

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidRating):
		return "Invalid review rating"

	case errors.Is(err, domain.ErrInvalidJobKind):
		return "Invalid generation kind"

	case errors.Is(err, domain.ErrInvalidItemCount):
		return fmt.Sprintf("Item count must be between %d and %d",
			domain.MinJobItemCount, domain.MaxJobItemCount)

	case errors.Is(err, domain.ErrInvalidDifficulty):
		return "Invalid difficulty"

	case errors.Is(err, domain.ErrInvalidItemTypes):
		return "Item types do not match the generation kind"

	case errors.Is(err, quiz.ErrQuestionNotInQuiz):
		return "Question does not belong to this quiz"

	case errors.Is(err, domain.ErrNegativeTimeSpent):
		return "Time spent cannot be negative"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return "Invalid " + validationErr.Field
		}
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps an error onto its status code and safe message
// and writes the response. An explicit message overrides the derived
// one; the raw error goes to the logs only.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError turns a validator error into a client-safe
// message naming the failing field without echoing submitted values.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// validator.ValidationErrors format:
	// "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid ID format"
	default:
		return "validation failed"
	}
}
