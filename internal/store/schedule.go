package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
)

// DueCard pairs a card with its schedule state for review queries.
type DueCard struct {
	Card     *domain.Card
	Schedule *domain.CardSchedule
}

// DeckStats aggregates a deck's schedule state for the study overview.
// New counts cards never reviewed; Mastered applies the derived mastery
// predicate; Learning is everything in between.
type DeckStats struct {
	Total    int `json:"total"`
	Due      int `json:"due"`
	New      int `json:"new"`
	Learning int `json:"learning"`
	Mastered int `json:"mastered"`
}

// MasteryThresholds carries the predicate constants into aggregate
// queries so SQL and the srs package never drift.
type MasteryThresholds struct {
	MinRepetitions  int
	MinIntervalDays int
}

// ScheduleStore defines the interface for per-(user, card) review state.
type ScheduleStore interface {
	// CreateMultiple saves initial schedules for newly committed cards.
	// Must run within the same transaction that creates the cards.
	CreateMultiple(ctx context.Context, schedules []*domain.CardSchedule) error

	// Get retrieves the schedule for a (user, card) pair.
	// Returns ErrScheduleNotFound if none exists.
	Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardSchedule, error)

	// Update persists a recomputed schedule using optimistic concurrency:
	// the row is written only if its updated_at still equals
	// expectedUpdatedAt. Returns ErrConcurrentUpdate when the row moved
	// underneath the caller, ErrScheduleNotFound when the row is gone.
	Update(ctx context.Context, schedule *domain.CardSchedule, expectedUpdatedAt time.Time) error

	// DueCards returns cards whose due_at ≤ now, ordered by due_at
	// ascending then card ID ascending. A nil deckID means all decks.
	// The ordering is deterministic: repeated calls without intervening
	// reviews return identical sequences.
	DueCards(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, limit int, now time.Time) ([]*DueCard, error)

	// DeckStats aggregates schedule state for one deck.
	DeckStats(ctx context.Context, userID, deckID uuid.UUID, now time.Time, mastery MasteryThresholds) (*DeckStats, error)

	// WithTx returns a ScheduleStore bound to the given transaction.
	WithTx(tx *sql.Tx) ScheduleStore
}
