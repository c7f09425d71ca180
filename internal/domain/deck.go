package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Deck validation errors
var (
	ErrDeckIDEmpty     = errors.New("deck ID cannot be empty")
	ErrDeckUserIDEmpty = errors.New("deck user ID cannot be empty")
	ErrDeckTitleEmpty  = errors.New("deck title cannot be empty")
)

// Deck is a named collection of cards. Generated decks carry the source
// document and the job that produced them; both links are nullable so
// hand-built decks remain representable.
type Deck struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	DocumentID  *uuid.UUID `json:"document_id,omitempty"`
	JobID       *uuid.UUID `json:"job_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewDeck creates a new Deck owned by the given user.
func NewDeck(userID uuid.UUID, title, description string) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// NewGeneratedDeck creates a Deck linked to the document and job that
// produced it.
func NewGeneratedDeck(userID, documentID, jobID uuid.UUID, title, description string) (*Deck, error) {
	deck, err := NewDeck(userID, title, description)
	if err != nil {
		return nil, err
	}

	deck.DocumentID = &documentID
	deck.JobID = &jobID
	return deck, nil
}

// Validate checks if the Deck has valid data.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if d.UserID == uuid.Nil {
		return ErrDeckUserIDEmpty
	}

	if d.Title == "" {
		return ErrDeckTitleEmpty
	}

	return nil
}
