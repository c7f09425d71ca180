package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/store"
)

// DeckWithCards pairs a deck with its full card list for detail reads.
type DeckWithCards struct {
	Deck  *domain.Deck   `json:"deck"`
	Cards []*domain.Card `json:"cards"`
}

// DeckService provides deck reads, deletion, and study statistics.
type DeckService interface {
	// List returns the user's decks, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error)

	// Get returns a deck with its cards. Returns store.ErrDeckNotFound
	// if absent and ErrNotOwned for another user's deck.
	Get(ctx context.Context, userID, deckID uuid.UUID) (*DeckWithCards, error)

	// Delete removes a deck and, through cascading constraints, its
	// cards and their schedules.
	Delete(ctx context.Context, userID, deckID uuid.UUID) error

	// Stats aggregates the deck's schedule state for the study overview.
	Stats(ctx context.Context, userID, deckID uuid.UUID) (*store.DeckStats, error)
}

type deckService struct {
	decks     store.DeckStore
	cards     store.CardStore
	schedules store.ScheduleStore
	mastery   store.MasteryThresholds
	now       func() time.Time
	logger    *slog.Logger
}

// NewDeckService creates a DeckService. The mastery thresholds come
// from the srs parameters so stats agree with the review engine.
func NewDeckService(decks store.DeckStore, cards store.CardStore, schedules store.ScheduleStore, mastery store.MasteryThresholds, logger *slog.Logger) DeckService {
	return &deckService{
		decks:     decks,
		cards:     cards,
		schedules: schedules,
		mastery:   mastery,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With(slog.String("component", "deck_service")),
	}
}

func (s *deckService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	decks, err := s.decks.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list decks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, opError("deck", "list", err)
	}
	return decks, nil
}

func (s *deckService) Get(ctx context.Context, userID, deckID uuid.UUID) (*DeckWithCards, error) {
	deck, err := s.getOwned(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}

	cards, err := s.cards.ListByDeck(ctx, deckID)
	if err != nil {
		s.logger.Error("failed to list deck cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, opError("deck", "get", err)
	}

	return &DeckWithCards{Deck: deck, Cards: cards}, nil
}

func (s *deckService) Delete(ctx context.Context, userID, deckID uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, deckID); err != nil {
		return err
	}

	if err := s.decks.Delete(ctx, deckID); err != nil {
		s.logger.Error("failed to delete deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return opError("deck", "delete", err)
	}

	s.logger.Info("deck deleted",
		slog.String("deck_id", deckID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

func (s *deckService) Stats(ctx context.Context, userID, deckID uuid.UUID) (*store.DeckStats, error) {
	if _, err := s.getOwned(ctx, userID, deckID); err != nil {
		return nil, err
	}

	stats, err := s.schedules.DeckStats(ctx, userID, deckID, s.now(), s.mastery)
	if err != nil {
		s.logger.Error("failed to aggregate deck stats",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, opError("deck", "stats", err)
	}
	return stats, nil
}

func (s *deckService) getOwned(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error) {
	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			return nil, err
		}
		s.logger.Error("failed to load deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, opError("deck", "get", err)
	}
	if deck.UserID != userID {
		return nil, ErrNotOwned
	}
	return deck, nil
}
