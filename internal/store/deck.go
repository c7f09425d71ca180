package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
)

// DeckStore defines the interface for deck persistence.
type DeckStore interface {
	// Create saves a new deck.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by ID.
	// Returns ErrDeckNotFound if no deck exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListByUser returns the user's decks ordered by creation time
	// descending.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error)

	// Delete removes a deck. Cards and their schedules go with it via
	// cascading constraints. Returns ErrDeckNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a DeckStore bound to the given transaction.
	WithTx(tx *sql.Tx) DeckStore
}
