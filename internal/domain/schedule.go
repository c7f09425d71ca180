package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// CardSchedule validation errors
var (
	ErrScheduleUserIDEmpty    = errors.New("schedule user ID cannot be empty")
	ErrScheduleCardIDEmpty    = errors.New("schedule card ID cannot be empty")
	ErrNegativeInterval       = errors.New("interval days cannot be negative")
	ErrNegativeRepetitions    = errors.New("repetitions cannot be negative")
	ErrEaseBelowFloor         = errors.New("ease factor cannot be below 1.3")
	ErrRepetitionsWithoutGrow = errors.New("repetitions require a non-zero interval")
)

// Default scheduling constants shared with the srs package.
const (
	// DefaultEaseFactor is the ease assigned to a freshly created schedule.
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the SM-2 floor; ease never drops below it.
	MinEaseFactor = 1.3
)

// CardSchedule is the per-(user, card) spaced-repetition state. One row
// exists for every card a user owns; it is created in the same
// transaction that commits a generated deck and mutated only by review
// submission. Mastery is derived from this state, never stored.
type CardSchedule struct {
	UserID         uuid.UUID     `json:"user_id"`
	CardID         uuid.UUID     `json:"card_id"`
	EaseFactor     float64       `json:"ease_factor"`
	IntervalDays   int           `json:"interval_days"`
	Repetitions    int           `json:"repetitions"`
	LastRating     *ReviewRating `json:"last_rating,omitempty"`
	LastReviewedAt *time.Time    `json:"last_reviewed_at,omitempty"`
	DueAt          time.Time     `json:"due_at"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewCardSchedule creates the initial schedule for a card: default ease,
// zero interval and repetitions, due immediately.
func NewCardSchedule(userID, cardID uuid.UUID) (*CardSchedule, error) {
	now := time.Now().UTC()
	schedule := &CardSchedule{
		UserID:       userID,
		CardID:       cardID,
		EaseFactor:   DefaultEaseFactor,
		IntervalDays: 0,
		Repetitions:  0,
		DueAt:        now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	return schedule, nil
}

// Validate checks the schedule's structural invariants: non-negative
// interval and repetitions, ease at or above the floor, and
// interval_days == 0 implying repetitions == 0.
func (s *CardSchedule) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrScheduleUserIDEmpty
	}

	if s.CardID == uuid.Nil {
		return ErrScheduleCardIDEmpty
	}

	if s.IntervalDays < 0 {
		return ErrNegativeInterval
	}

	if s.Repetitions < 0 {
		return ErrNegativeRepetitions
	}

	if s.EaseFactor < MinEaseFactor {
		return ErrEaseBelowFloor
	}

	if s.IntervalDays == 0 && s.Repetitions != 0 {
		return ErrRepetitionsWithoutGrow
	}

	return nil
}

// IsDue reports whether the card should be reviewed at the given time.
func (s *CardSchedule) IsDue(now time.Time) bool {
	return !s.DueAt.After(now)
}
