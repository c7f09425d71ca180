package review

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/store"
)

// ErrNotInSession indicates a submission for a card outside the
// session's batch.
var ErrNotInSession = errors.New("card is not part of this session")

// SessionSummary is a point-in-time view of a session's progress.
// Reviewed counts distinct cards; Counts tallies every submission, so a
// card failed and then retried shows up under both ratings.
type SessionSummary struct {
	TotalCards int                         `json:"total_cards"`
	Reviewed   int                         `json:"reviewed"`
	Remaining  int                         `json:"remaining"`
	Mastered   int                         `json:"mastered"`
	Counts     map[domain.ReviewRating]int `json:"counts"`
	StartedAt  time.Time                   `json:"started_at"`
}

// StudySession batches a user's due cards for one sitting and tallies
// outcomes as they are submitted. Nothing about the session itself is
// persisted: schedule updates go through the review Service, so
// concurrent sessions over the same cards stay consistent and an
// abandoned session loses only its tallies.
type StudySession struct {
	userID  uuid.UUID
	service Service

	mu        sync.Mutex
	cards     []*store.DueCard
	inBatch   map[uuid.UUID]struct{}
	reviewed  map[uuid.UUID]struct{}
	counts    map[domain.ReviewRating]int
	mastered  int
	startedAt time.Time
}

// NewSession starts a session over the user's due cards. A nil deckID
// spans all decks; limit <= 0 falls back to DefaultDueLimit. A session
// with no due cards is valid and immediately complete.
func NewSession(ctx context.Context, svc Service, userID uuid.UUID, deckID *uuid.UUID, limit int) (*StudySession, error) {
	cards, err := svc.DueCards(ctx, userID, deckID, limit)
	if err != nil {
		return nil, err
	}

	inBatch := make(map[uuid.UUID]struct{}, len(cards))
	for _, dc := range cards {
		inBatch[dc.Card.ID] = struct{}{}
	}

	return &StudySession{
		userID:   userID,
		service:  svc,
		cards:    cards,
		inBatch:  inBatch,
		reviewed: make(map[uuid.UUID]struct{}),
		counts: map[domain.ReviewRating]int{
			domain.ReviewRatingAgain: 0,
			domain.ReviewRatingHard:  0,
			domain.ReviewRatingGood:  0,
			domain.ReviewRatingEasy:  0,
		},
		startedAt: time.Now().UTC(),
	}, nil
}

// Cards returns the session's batch in review order.
func (s *StudySession) Cards() []*store.DueCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*store.DueCard, len(s.cards))
	copy(out, s.cards)
	return out
}

// Next returns the first card not yet reviewed this session, in batch
// order. The second return is false once every card has been reviewed.
func (s *StudySession) Next() (*store.DueCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dc := range s.cards {
		if _, done := s.reviewed[dc.Card.ID]; !done {
			return dc, true
		}
	}
	return nil, false
}

// Submit records a review for a card in the batch and tallies the
// outcome. Resubmitting a card is allowed (fail now, retry later in the
// same sitting); it tallies again but the card stays counted once in
// Reviewed.
func (s *StudySession) Submit(ctx context.Context, cardID uuid.UUID, rating domain.ReviewRating, timeSpentMs int) (*ReviewResult, error) {
	s.mu.Lock()
	_, ok := s.inBatch[cardID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotInSession
	}

	result, err := s.service.SubmitReview(ctx, s.userID, cardID, rating, timeSpentMs)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.counts[rating]++
	if _, seen := s.reviewed[cardID]; !seen {
		s.reviewed[cardID] = struct{}{}
		if result.Mastered {
			s.mastered++
		}
	}
	s.mu.Unlock()

	return result, nil
}

// Summary reports the session's progress so far.
func (s *StudySession) Summary() SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[domain.ReviewRating]int, len(s.counts))
	for rating, n := range s.counts {
		counts[rating] = n
	}

	return SessionSummary{
		TotalCards: len(s.cards),
		Reviewed:   len(s.reviewed),
		Remaining:  len(s.cards) - len(s.reviewed),
		Mastered:   s.mastered,
		Counts:     counts,
		StartedAt:  s.startedAt,
	}
}
