package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revisehq/revise-api/internal/domain"
)

func newTestSchedule(t *testing.T) *domain.CardSchedule {
	t.Helper()
	schedule, err := domain.NewCardSchedule(uuid.New(), uuid.New())
	require.NoError(t, err)
	return schedule
}

func TestNextReviewFailureResetsState(t *testing.T) {
	t.Parallel()
	svc, err := NewDefaultService()
	require.NoError(t, err)

	// Mature card: E=2.5, I=30, R=5.
	schedule := newTestSchedule(t)
	schedule.EaseFactor = 2.5
	schedule.IntervalDays = 30
	schedule.Repetitions = 5

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	next, err := svc.NextReview(schedule, domain.ReviewRatingAgain, now)
	require.NoError(t, err)

	assert.InDelta(t, 1.7, next.EaseFactor, 1e-9, "again from 2.5 should land on 1.7")
	assert.Equal(t, 1, next.IntervalDays, "failure always schedules a next-day retry")
	assert.Equal(t, 0, next.Repetitions, "failure resets the streak")
	assert.Equal(t, now.AddDate(0, 0, 1), next.DueAt)

	// The input schedule must not be mutated.
	assert.Equal(t, 30, schedule.IntervalDays)
	assert.Equal(t, 5, schedule.Repetitions)
}

func TestNextReviewFixedEarlyIntervals(t *testing.T) {
	t.Parallel()
	svc, err := NewDefaultService()
	require.NoError(t, err)

	schedule := newTestSchedule(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Review 1: good on a new card.
	first, err := svc.NextReview(schedule, domain.ReviewRatingGood, now)
	require.NoError(t, err)
	assert.Equal(t, 1, first.IntervalDays)
	assert.Equal(t, 1, first.Repetitions)
	assert.InDelta(t, 2.5, first.EaseFactor, 1e-9, "good leaves ease unchanged")

	// Review 2: good again.
	second, err := svc.NextReview(first, domain.ReviewRatingGood, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 6, second.IntervalDays)
	assert.Equal(t, 2, second.Repetitions)

	// Review 3: interval finally grows by ease.
	third, err := svc.NextReview(second, domain.ReviewRatingGood, now.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, 15, third.IntervalDays, "6 × 2.5 = 15")
	assert.Equal(t, 3, third.Repetitions)
	assert.Equal(t, now.AddDate(0, 0, 7).AddDate(0, 0, 15), third.DueAt)
}

func TestNextReviewEaseNeverBelowFloor(t *testing.T) {
	t.Parallel()
	svc, err := NewDefaultService()
	require.NoError(t, err)

	schedule := newTestSchedule(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	ratings := []domain.ReviewRating{
		domain.ReviewRatingAgain,
		domain.ReviewRatingAgain,
		domain.ReviewRatingHard,
		domain.ReviewRatingAgain,
		domain.ReviewRatingAgain,
		domain.ReviewRatingHard,
		domain.ReviewRatingAgain,
	}

	for i, rating := range ratings {
		schedule, err = svc.NextReview(schedule, rating, now.AddDate(0, 0, i))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, schedule.EaseFactor, 1.3, "ease dropped below floor after review %d", i+1)
	}
}

func TestNextReviewHardCountsAsSuccess(t *testing.T) {
	t.Parallel()
	svc, err := NewDefaultService()
	require.NoError(t, err)

	schedule := newTestSchedule(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	next, err := svc.NextReview(schedule, domain.ReviewRatingHard, now)
	require.NoError(t, err)

	assert.Equal(t, 1, next.Repetitions, "hard maps to quality 3, a passing review")
	assert.Equal(t, 1, next.IntervalDays)
	assert.InDelta(t, 2.36, next.EaseFactor, 1e-9)
}

func TestNextReviewEasyGrowsEaseWithoutBound(t *testing.T) {
	t.Parallel()
	svc, err := NewDefaultService()
	require.NoError(t, err)

	schedule := newTestSchedule(t)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		schedule, err = svc.NextReview(schedule, domain.ReviewRatingEasy, now.AddDate(0, 0, i))
		require.NoError(t, err)
	}

	assert.InDelta(t, 2.5+12*0.1, schedule.EaseFactor, 1e-6, "easy adds 0.1 per review with no ceiling")
	assert.Equal(t, 12, schedule.Repetitions)
}

func TestNextReviewInvalidRating(t *testing.T) {
	t.Parallel()
	svc, err := NewDefaultService()
	require.NoError(t, err)

	schedule := newTestSchedule(t)
	_, err = svc.NextReview(schedule, domain.ReviewRating("amazing"), time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidRating)
}

func TestNextReviewRecordsRatingAndTime(t *testing.T) {
	t.Parallel()
	svc, err := NewDefaultService()
	require.NoError(t, err)

	schedule := newTestSchedule(t)
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	next, err := svc.NextReview(schedule, domain.ReviewRatingGood, now)
	require.NoError(t, err)

	require.NotNil(t, next.LastRating)
	assert.Equal(t, domain.ReviewRatingGood, *next.LastRating)
	require.NotNil(t, next.LastReviewedAt)
	assert.Equal(t, now, *next.LastReviewedAt)
}

func TestMastered(t *testing.T) {
	t.Parallel()
	svc, err := NewDefaultService()
	require.NoError(t, err)

	testCases := []struct {
		name        string
		repetitions int
		interval    int
		expected    bool
	}{
		{"new card", 0, 0, false},
		{"young card", 2, 6, false},
		{"long interval but single repetition", 1, 30, false},
		{"exactly at thresholds", 2, 21, true},
		{"well past thresholds", 8, 120, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			schedule := newTestSchedule(t)
			schedule.Repetitions = tc.repetitions
			schedule.IntervalDays = tc.interval
			assert.Equal(t, tc.expected, svc.Mastered(schedule))
		})
	}
}

func TestNewServiceRejectsInvalidParams(t *testing.T) {
	t.Parallel()

	params := DefaultParams()
	params.MinEase = 0
	_, err := NewService(params)
	assert.ErrorIs(t, err, ErrInvalidMinEase)

	params = DefaultParams()
	params.Qualities = map[domain.ReviewRating]int{domain.ReviewRatingAgain: 0}
	_, err = NewService(params)
	assert.ErrorIs(t, err, ErrInvalidQualityMap)
}
