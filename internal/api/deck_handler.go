package api

import (
	"net/http"

	"github.com/revisehq/revise-api/internal/api/shared"
	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/service"
)

// DeckListResponse wraps the user's deck list.
type DeckListResponse struct {
	Decks []*domain.Deck `json:"decks"`
	Count int            `json:"count"`
}

// DeckHandler handles deck-related HTTP requests.
type DeckHandler struct {
	deckService service.DeckService
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(deckService service.DeckService) *DeckHandler {
	return &DeckHandler{deckService: deckService}
}

// ListDecks handles GET /api/decks requests.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	decks, err := h.deckService.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list decks")
		return
	}

	if decks == nil {
		decks = []*domain.Deck{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DeckListResponse{
		Decks: decks,
		Count: len(decks),
	})
}

// GetDeck handles GET /api/decks/{id} requests. The response includes
// the deck's cards.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	deck, err := h.deckService.Get(r.Context(), userID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, deck)
}

// DeleteDeck handles DELETE /api/decks/{id} requests. Cards and their
// schedules go with the deck.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	if err := h.deckService.Delete(r.Context(), userID, deckID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetDeckStats handles GET /api/decks/{id}/stats requests.
func (h *DeckHandler) GetDeckStats(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	stats, err := h.deckService.Stats(r.Context(), userID, deckID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
