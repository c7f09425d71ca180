package srs

import (
	"fmt"
	"time"

	"github.com/revisehq/revise-api/internal/domain"
)

// Service computes review schedule updates. Implementations must be
// pure: the caller supplies now, and nothing outside the arguments is
// read or written.
type Service interface {
	// NextReview returns the schedule state after reviewing with the
	// given rating at the given time. The input schedule is not mutated.
	// Returns domain.ErrInvalidRating for ratings outside the bucket set.
	NextReview(schedule *domain.CardSchedule, rating domain.ReviewRating, now time.Time) (*domain.CardSchedule, error)

	// Mastered reports whether the schedule state satisfies the derived
	// mastery predicate. Mastery is never stored.
	Mastered(schedule *domain.CardSchedule) bool
}

type service struct {
	params Params
}

// NewService creates a Service with the given parameters.
func NewService(params Params) (Service, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid srs params: %w", err)
	}
	return &service{params: params}, nil
}

// NewDefaultService creates a Service with the standard SM-2 constants.
func NewDefaultService() (Service, error) {
	return NewService(DefaultParams())
}

func (s *service) NextReview(schedule *domain.CardSchedule, rating domain.ReviewRating, now time.Time) (*domain.CardSchedule, error) {
	quality, err := s.params.quality(rating)
	if err != nil {
		return nil, err
	}

	next := *schedule
	next.EaseFactor = nextEaseFactor(schedule.EaseFactor, quality, s.params.MinEase)

	if quality < failureQualityThreshold {
		// Failure resets the repetition streak and schedules a next-day
		// retry regardless of how long the prior interval was.
		next.Repetitions = 0
		next.IntervalDays = 1
	} else {
		next.IntervalDays = nextInterval(schedule.IntervalDays, schedule.Repetitions, next.EaseFactor, s.params)
		next.Repetitions = schedule.Repetitions + 1
	}

	utc := now.UTC()
	next.DueAt = utc.AddDate(0, 0, next.IntervalDays)
	next.LastRating = &rating
	next.LastReviewedAt = &utc
	next.UpdatedAt = utc

	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("computed schedule invalid: %w", err)
	}

	return &next, nil
}

func (s *service) Mastered(schedule *domain.CardSchedule) bool {
	return schedule.Repetitions >= s.params.MasteryMinRepetitions &&
		schedule.IntervalDays >= s.params.MasteryMinIntervalDays
}
