package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/revisehq/revise-api/internal/api/shared"
	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/service/review"
	"github.com/revisehq/revise-api/internal/store"
)

// SubmitReviewRequest represents the request body for reviewing a card.
type SubmitReviewRequest struct {
	Rating      string `json:"rating"                  validate:"required,oneof=again hard good easy"`
	TimeSpentMs int    `json:"time_spent_ms,omitempty" validate:"omitempty,min=0"`
}

// DueCardResponse pairs a card with its scheduling state.
type DueCardResponse struct {
	Card     *domain.Card         `json:"card"`
	Schedule *domain.CardSchedule `json:"schedule"`
}

// DueCardsResponse wraps the list of cards due for review.
type DueCardsResponse struct {
	Cards []DueCardResponse `json:"cards"`
	Count int               `json:"count"`
}

// ReviewHandler handles spaced-repetition review HTTP requests.
type ReviewHandler struct {
	scheduler review.Service
	validator *validator.Validate
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(scheduler review.Service) *ReviewHandler {
	return &ReviewHandler{
		scheduler: scheduler,
		validator: validator.New(),
	}
}

// GetDueCards handles GET /api/cards/due requests. Accepts optional
// deck_id and limit query parameters.
func (h *ReviewHandler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	deckID, err := getQueryUUID(r, "deck_id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	limit, err := getQueryInt(r, "limit", review.DefaultDueLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	due, err := h.scheduler.DueCards(r.Context(), userID, deckID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to fetch due cards")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, dueCardsToResponse(due))
}

// SubmitReview handles POST /api/cards/{id}/review requests. The
// updated schedule comes back so clients can show the next due date
// without a second round trip.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.scheduler.SubmitReview(
		r.Context(),
		userID,
		cardID,
		domain.ReviewRating(req.Rating),
		req.TimeSpentMs,
	)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// dueCardsToResponse converts store due-card pairs to the response shape.
func dueCardsToResponse(due []*store.DueCard) DueCardsResponse {
	cards := make([]DueCardResponse, 0, len(due))
	for _, d := range due {
		cards = append(cards, DueCardResponse{
			Card:     d.Card,
			Schedule: d.Schedule,
		})
	}
	return DueCardsResponse{
		Cards: cards,
		Count: len(cards),
	}
}
