package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
)

// CardStore defines the interface for card persistence.
type CardStore interface {
	// CreateMultiple saves a batch of cards. Must run within a
	// transaction (use WithTx under store.RunInTransaction) so a
	// generated deck is committed all-or-nothing.
	CreateMultiple(ctx context.Context, cards []*domain.Card) error

	// GetByID retrieves a card by ID.
	// Returns ErrCardNotFound if no card exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByDeck returns a deck's cards ordered by creation time then ID.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// WithTx returns a CardStore bound to the given transaction.
	WithTx(tx *sql.Tx) CardStore
}
