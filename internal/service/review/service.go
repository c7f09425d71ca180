package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/domain/srs"
	"github.com/revisehq/revise-api/internal/platform/logger"
	"github.com/revisehq/revise-api/internal/store"
)

// Due-card query limits. Callers passing limit <= 0 get the default;
// anything above the maximum is clamped.
const (
	DefaultDueLimit = 20
	MaxDueLimit     = 100
)

// Optimistic concurrency retry budget for review submission. Conflicts
// are rare (same user, same card, overlapping requests), so a short
// constant backoff is enough.
const (
	casMaxRetries = 3
	casRetryDelay = 25 * time.Millisecond
)

// Common review service errors
var (
	// ErrCardNotFound indicates the card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrCardNotOwned indicates the card belongs to another user.
	ErrCardNotOwned = errors.New("card not owned by user")

	// ErrScheduleNotFound indicates the card has no schedule row. Cards
	// get a schedule in the transaction that creates them, so this means
	// the card predates the schedule table or the row was lost.
	ErrScheduleNotFound = errors.New("card schedule not found")
)

// ReviewResult is the outcome of one review submission: the persisted
// schedule state plus the derived mastery flag.
type ReviewResult struct {
	Schedule *domain.CardSchedule `json:"schedule"`
	Mastered bool                 `json:"mastered"`
}

// Service coordinates spaced-repetition review over the schedule store.
type Service interface {
	// DueCards returns the user's cards due for review, ordered by due
	// time then card ID. A nil deckID spans all decks. The same inputs
	// without an intervening review return the same sequence.
	DueCards(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, limit int) ([]*store.DueCard, error)

	// SubmitReview records one review: it recomputes the card's schedule
	// from the rating and persists it. Concurrent submissions for the
	// same card are serialized by optimistic locking; a conflicting
	// writer is retried a few times before giving up with
	// store.ErrConcurrentUpdate.
	//
	// Returns domain.ErrInvalidRating for unknown ratings,
	// ErrCardNotFound / ErrCardNotOwned / ErrScheduleNotFound per their
	// names. timeSpentMs is recorded in logs only.
	SubmitReview(ctx context.Context, userID, cardID uuid.UUID, rating domain.ReviewRating, timeSpentMs int) (*ReviewResult, error)
}

type service struct {
	cards     store.CardStore
	schedules store.ScheduleStore
	srs       srs.Service
	now       func() time.Time
	logger    *slog.Logger
}

var _ Service = (*service)(nil)

// NewService creates a review Service.
func NewService(cards store.CardStore, schedules store.ScheduleStore, srsService srs.Service, log *slog.Logger) Service {
	return &service{
		cards:     cards,
		schedules: schedules,
		srs:       srsService,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    log.With(slog.String("component", "review_service")),
	}
}

func (s *service) DueCards(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, limit int) ([]*store.DueCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = DefaultDueLimit
	}
	if limit > MaxDueLimit {
		limit = MaxDueLimit
	}

	due, err := s.schedules.DueCards(ctx, userID, deckID, limit, s.now())
	if err != nil {
		log.Error("failed to query due cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to query due cards: %w", err)
	}

	return due, nil
}

func (s *service) SubmitReview(ctx context.Context, userID, cardID uuid.UUID, rating domain.ReviewRating, timeSpentMs int) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !rating.IsValid() {
		return nil, domain.ErrInvalidRating
	}

	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		log.Error("failed to load card for review",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, fmt.Errorf("failed to load card: %w", err)
	}

	if card.UserID != userID {
		log.Warn("review attempt on card owned by another user",
			slog.String("card_id", cardID.String()),
			slog.String("user_id", userID.String()))
		return nil, ErrCardNotOwned
	}

	// Load-compute-store under optimistic locking. A concurrent review
	// of the same card moves updated_at and fails the conditional write;
	// retrying reloads the fresh state so no review is lost.
	var updated *domain.CardSchedule
	backoff := retry.WithMaxRetries(casMaxRetries, retry.NewConstant(casRetryDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		schedule, err := s.schedules.Get(ctx, userID, cardID)
		if err != nil {
			return err
		}

		next, err := s.srs.NextReview(schedule, rating, s.now())
		if err != nil {
			return err
		}

		if err := s.schedules.Update(ctx, next, schedule.UpdatedAt); err != nil {
			if errors.Is(err, store.ErrConcurrentUpdate) {
				return retry.RetryableError(err)
			}
			return err
		}

		updated = next
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrScheduleNotFound) {
			log.Warn("card has no schedule",
				slog.String("card_id", cardID.String()),
				slog.String("user_id", userID.String()))
			return nil, ErrScheduleNotFound
		}
		log.Error("failed to submit review",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to submit review: %w", err)
	}

	log.Info("review submitted",
		slog.String("card_id", cardID.String()),
		slog.String("user_id", userID.String()),
		slog.String("rating", string(rating)),
		slog.Float64("ease_factor", updated.EaseFactor),
		slog.Int("interval_days", updated.IntervalDays),
		slog.Int("repetitions", updated.Repetitions),
		slog.Time("due_at", updated.DueAt),
		slog.Int("time_spent_ms", timeSpentMs))

	return &ReviewResult{
		Schedule: updated,
		Mastered: s.srs.Mastered(updated),
	}, nil
}
