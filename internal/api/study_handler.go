package api

import (
	"net/http"

	"github.com/revisehq/revise-api/internal/api/shared"
	"github.com/revisehq/revise-api/internal/service/review"
)

// StudySessionResponse bundles a freshly assembled study batch with its
// summary counters.
type StudySessionResponse struct {
	Cards   []DueCardResponse     `json:"cards"`
	Summary review.SessionSummary `json:"summary"`
}

// StudyHandler handles study session HTTP requests.
type StudyHandler struct {
	scheduler review.Service
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(scheduler review.Service) *StudyHandler {
	return &StudyHandler{scheduler: scheduler}
}

// GetSession handles GET /api/study/session requests. It assembles a
// due-card batch for the caller; reviews are then submitted one at a
// time through the card review endpoint.
func (h *StudyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
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

	session, err := review.NewSession(r.Context(), h.scheduler, userID, deckID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start study session")
		return
	}

	cards := dueCardsToResponse(session.Cards())
	shared.RespondWithJSON(w, r, http.StatusOK, StudySessionResponse{
		Cards:   cards.Cards,
		Summary: session.Summary(),
	})
}
