package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CardType identifies how a card is presented during review.
type CardType string

// Possible card type values
const (
	// CardTypeBasic is a plain front/back flashcard.
	CardTypeBasic CardType = "basic"
	// CardTypeCloze is a fill-in-the-deletion card: the front contains
	// the deleted span verbatim, the cloze answer holds the span.
	CardTypeCloze CardType = "cloze"
	// CardTypeReverse is reviewed in both directions.
	CardTypeReverse CardType = "reverse"
	// CardTypeImage prompts with an image reference on the front.
	CardTypeImage CardType = "image"
)

// Difficulty is the requested difficulty band for generated content.
type Difficulty string

// Possible difficulty values
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyMixed  Difficulty = "mixed"
)

// Card validation errors
var (
	ErrCardIDEmpty          = errors.New("card ID cannot be empty")
	ErrCardDeckIDEmpty      = errors.New("card deck ID cannot be empty")
	ErrCardUserIDEmpty      = errors.New("card user ID cannot be empty")
	ErrCardFrontEmpty       = errors.New("card front cannot be empty")
	ErrCardBackEmpty        = errors.New("card back cannot be empty")
	ErrCardClozeAnswerEmpty = errors.New("cloze card answer cannot be empty")
	ErrInvalidCardType      = errors.New("invalid card type")
)

// Card is a flashcard generated from a source document (or hand-built).
// SourcePage and SourceSnippet record the provenance used by the
// anti-hallucination gate; they are immutable once the card is committed.
type Card struct {
	ID            uuid.UUID  `json:"id"`
	DeckID        uuid.UUID  `json:"deck_id"`
	UserID        uuid.UUID  `json:"user_id"`
	Type          CardType   `json:"type"`
	Front         string     `json:"front"`
	Back          string     `json:"back"`
	ClozeAnswer   string     `json:"cloze_answer,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	SourcePage    *int       `json:"source_page,omitempty"`
	SourceSnippet string     `json:"source_snippet,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewCard creates a new Card in the given deck.
func NewCard(deckID, userID uuid.UUID, cardType CardType, front, back string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		UserID:    userID,
		Type:      cardType,
		Front:     front,
		Back:      back,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}

	if !isValidCardType(c.Type) {
		return ErrInvalidCardType
	}

	if strings.TrimSpace(c.Front) == "" {
		return ErrCardFrontEmpty
	}

	if strings.TrimSpace(c.Back) == "" {
		return ErrCardBackEmpty
	}

	if c.Type == CardTypeCloze && strings.TrimSpace(c.ClozeAnswer) == "" {
		return ErrCardClozeAnswerEmpty
	}

	return nil
}

func isValidCardType(t CardType) bool {
	switch t {
	case CardTypeBasic, CardTypeCloze, CardTypeReverse, CardTypeImage:
		return true
	default:
		return false
	}
}

// IsValidDifficulty reports whether d is one of the defined bands.
func IsValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed:
		return true
	default:
		return false
	}
}
