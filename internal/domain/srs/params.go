// Package srs implements the SM-2 spaced-repetition scheduling law as a
// pure, deterministic service over domain.CardSchedule state.
package srs

import (
	"errors"
	"fmt"

	"github.com/revisehq/revise-api/internal/domain"
)

// Params validation errors
var (
	ErrInvalidMinEase        = errors.New("minimum ease must be positive")
	ErrInvalidFixedIntervals = errors.New("fixed intervals must be positive")
	ErrInvalidQualityMap     = errors.New("quality map must cover all ratings with values in [0,5]")
	ErrInvalidMastery        = errors.New("mastery thresholds must be positive")
)

// failureQualityThreshold is the SM-2 boundary: quality below 3 is a
// failing review.
const failureQualityThreshold = 3

// Params holds the tunable constants of the scheduling law.
type Params struct {
	// InitialEase seeds new schedules.
	InitialEase float64

	// MinEase is the floor the ease factor is clamped to after every
	// update. SM-2 uses 1.3; there is no upper bound.
	MinEase float64

	// FirstInterval and SecondInterval are the fixed interval lengths in
	// days after the first and second consecutive successful reviews.
	FirstInterval  int
	SecondInterval int

	// MasteryMinRepetitions and MasteryMinIntervalDays define the derived
	// mastery predicate: a card is mastered once both are reached.
	MasteryMinRepetitions  int
	MasteryMinIntervalDays int

	// Qualities maps each rating bucket onto its SM-2 quality value.
	// The chosen representatives: again=0, hard=3, good=4, easy=5.
	// Hard sits at 3 so it counts as a (barely) successful review.
	Qualities map[domain.ReviewRating]int
}

// DefaultParams returns the standard SM-2 constants.
func DefaultParams() Params {
	return Params{
		InitialEase:            domain.DefaultEaseFactor,
		MinEase:                domain.MinEaseFactor,
		FirstInterval:          1,
		SecondInterval:         6,
		MasteryMinRepetitions:  2,
		MasteryMinIntervalDays: 21,
		Qualities: map[domain.ReviewRating]int{
			domain.ReviewRatingAgain: 0,
			domain.ReviewRatingHard:  3,
			domain.ReviewRatingGood:  4,
			domain.ReviewRatingEasy:  5,
		},
	}
}

// Validate checks the parameter set for internal consistency.
func (p Params) Validate() error {
	if p.MinEase <= 0 {
		return ErrInvalidMinEase
	}

	if p.InitialEase < p.MinEase {
		return fmt.Errorf("%w: initial ease %.2f below minimum %.2f", ErrInvalidMinEase, p.InitialEase, p.MinEase)
	}

	if p.FirstInterval <= 0 || p.SecondInterval <= 0 {
		return ErrInvalidFixedIntervals
	}

	if p.MasteryMinRepetitions <= 0 || p.MasteryMinIntervalDays <= 0 {
		return ErrInvalidMastery
	}

	ratings := []domain.ReviewRating{
		domain.ReviewRatingAgain,
		domain.ReviewRatingHard,
		domain.ReviewRatingGood,
		domain.ReviewRatingEasy,
	}
	for _, r := range ratings {
		q, ok := p.Qualities[r]
		if !ok || q < 0 || q > 5 {
			return ErrInvalidQualityMap
		}
	}

	return nil
}

// quality resolves a rating bucket to its SM-2 quality value.
func (p Params) quality(rating domain.ReviewRating) (int, error) {
	q, ok := p.Qualities[rating]
	if !ok {
		return 0, domain.ErrInvalidRating
	}
	return q, nil
}
