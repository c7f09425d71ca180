package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/service"
	"github.com/revisehq/revise-api/internal/store"
)

type mockDeckService struct {
	listFn   func(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error)
	getFn    func(ctx context.Context, userID, deckID uuid.UUID) (*service.DeckWithCards, error)
	deleteFn func(ctx context.Context, userID, deckID uuid.UUID) error
	statsFn  func(ctx context.Context, userID, deckID uuid.UUID) (*store.DeckStats, error)
}

func (m *mockDeckService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockDeckService) Get(ctx context.Context, userID, deckID uuid.UUID) (*service.DeckWithCards, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, deckID)
	}
	return nil, store.ErrDeckNotFound
}

func (m *mockDeckService) Delete(ctx context.Context, userID, deckID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, deckID)
	}
	return store.ErrDeckNotFound
}

func (m *mockDeckService) Stats(ctx context.Context, userID, deckID uuid.UUID) (*store.DeckStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, userID, deckID)
	}
	return nil, store.ErrDeckNotFound
}

func TestDeckHandler_ListDecks(t *testing.T) {
	t.Parallel()

	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	t.Run("returns_decks", func(t *testing.T) {
		t.Parallel()

		svc := &mockDeckService{
			listFn: func(ctx context.Context, uid uuid.UUID) ([]*domain.Deck, error) {
				return []*domain.Deck{
					{ID: uuid.New(), UserID: uid, Title: "Chapter 3"},
					{ID: uuid.New(), UserID: uid, Title: "Chapter 2"},
				}, nil
			},
		}
		handler := NewDeckHandler(svc)

		req := newTestRequest(t, http.MethodGet, "/api/decks", nil, userID, nil)
		rr := httptest.NewRecorder()
		handler.ListDecks(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp DeckListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
		require.Len(t, resp.Decks, 2)
		assert.Equal(t, "Chapter 3", resp.Decks[0].Title)
	})

	t.Run("empty_list_is_not_null", func(t *testing.T) {
		t.Parallel()

		handler := NewDeckHandler(&mockDeckService{})

		req := newTestRequest(t, http.MethodGet, "/api/decks", nil, userID, nil)
		rr := httptest.NewRecorder()
		handler.ListDecks(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"decks":[]`)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		handler := NewDeckHandler(&mockDeckService{})
		req := newTestRequest(t, http.MethodGet, "/api/decks", nil, uuid.Nil, nil)
		rr := httptest.NewRecorder()
		handler.ListDecks(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestDeckHandler_GetDeck(t *testing.T) {
	t.Parallel()

	userID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	deckID := uuid.MustParse("33333333-3333-3333-3333-333333333333")

	t.Run("returns_deck_with_cards", func(t *testing.T) {
		t.Parallel()

		svc := &mockDeckService{
			getFn: func(ctx context.Context, uid, did uuid.UUID) (*service.DeckWithCards, error) {
				return &service.DeckWithCards{
					Deck: &domain.Deck{ID: did, UserID: uid, Title: "Photosynthesis"},
					Cards: []*domain.Card{
						{ID: uuid.New(), DeckID: did, UserID: uid, Front: "front", Back: "back"},
					},
				}, nil
			},
		}
		handler := NewDeckHandler(svc)

		req := newTestRequest(t, http.MethodGet, "/api/decks/"+deckID.String(), nil, userID,
			map[string]string{"id": deckID.String()})
		rr := httptest.NewRecorder()
		handler.GetDeck(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp service.DeckWithCards
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Photosynthesis", resp.Deck.Title)
		assert.Len(t, resp.Cards, 1)
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		handler := NewDeckHandler(&mockDeckService{})
		req := newTestRequest(t, http.MethodGet, "/api/decks/"+deckID.String(), nil, userID,
			map[string]string{"id": deckID.String()})
		rr := httptest.NewRecorder()
		handler.GetDeck(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, errorMessage(t, rr), "Deck not found")
	})

	t.Run("not_owned", func(t *testing.T) {
		t.Parallel()

		svc := &mockDeckService{
			getFn: func(ctx context.Context, uid, did uuid.UUID) (*service.DeckWithCards, error) {
				return nil, service.ErrNotOwned
			},
		}
		handler := NewDeckHandler(svc)
		req := newTestRequest(t, http.MethodGet, "/api/decks/"+deckID.String(), nil, userID,
			map[string]string{"id": deckID.String()})
		rr := httptest.NewRecorder()
		handler.GetDeck(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestDeckHandler_DeleteDeck(t *testing.T) {
	t.Parallel()

	userID := uuid.MustParse("44444444-4444-4444-4444-444444444444")
	deckID := uuid.MustParse("55555555-5555-5555-5555-555555555555")

	t.Run("deletes_deck", func(t *testing.T) {
		t.Parallel()

		var deletedID uuid.UUID
		svc := &mockDeckService{
			deleteFn: func(ctx context.Context, uid, did uuid.UUID) error {
				deletedID = did
				return nil
			},
		}
		handler := NewDeckHandler(svc)

		req := newTestRequest(t, http.MethodDelete, "/api/decks/"+deckID.String(), nil, userID,
			map[string]string{"id": deckID.String()})
		rr := httptest.NewRecorder()
		handler.DeleteDeck(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, deckID, deletedID)
		assert.Empty(t, rr.Body.String())
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		handler := NewDeckHandler(&mockDeckService{})
		req := newTestRequest(t, http.MethodDelete, "/api/decks/"+deckID.String(), nil, userID,
			map[string]string{"id": deckID.String()})
		rr := httptest.NewRecorder()
		handler.DeleteDeck(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDeckHandler_GetDeckStats(t *testing.T) {
	t.Parallel()

	userID := uuid.MustParse("66666666-6666-6666-6666-666666666666")
	deckID := uuid.MustParse("77777777-7777-7777-7777-777777777777")

	t.Run("returns_stats", func(t *testing.T) {
		t.Parallel()

		svc := &mockDeckService{
			statsFn: func(ctx context.Context, uid, did uuid.UUID) (*store.DeckStats, error) {
				return &store.DeckStats{Total: 40, Due: 12, New: 5, Learning: 20, Mastered: 15}, nil
			},
		}
		handler := NewDeckHandler(svc)

		req := newTestRequest(t, http.MethodGet, "/api/decks/"+deckID.String()+"/stats", nil, userID,
			map[string]string{"id": deckID.String()})
		rr := httptest.NewRecorder()
		handler.GetDeckStats(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp store.DeckStats
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 40, resp.Total)
		assert.Equal(t, 12, resp.Due)
		assert.Equal(t, 15, resp.Mastered)
	})
}
