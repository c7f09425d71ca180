package review

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/store"
)

// fakeCardStore serves a fixed card set.
type fakeCardStore struct {
	cards  map[uuid.UUID]*domain.Card
	getErr error
}

func newFakeCardStore(cards ...*domain.Card) *fakeCardStore {
	f := &fakeCardStore{cards: make(map[uuid.UUID]*domain.Card)}
	for _, c := range cards {
		f.cards[c.ID] = c
	}
	return f
}

func (f *fakeCardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	return nil
}

func (f *fakeCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	card, ok := f.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return card, nil
}

func (f *fakeCardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	return nil, nil
}

func (f *fakeCardStore) WithTx(tx *sql.Tx) store.CardStore { return f }

// fakeScheduleStore is an in-memory store.ScheduleStore keyed by card
// ID. conflicts makes the next N Update calls fail with
// ErrConcurrentUpdate so retry behavior can be exercised.
type fakeScheduleStore struct {
	mu        sync.Mutex
	schedules map[uuid.UUID]*domain.CardSchedule
	due       []*store.DueCard
	dueErr    error
	getErr    error
	conflicts int
	updates   int

	lastLimit int
	lastDeck  *uuid.UUID
}

func newFakeScheduleStore(schedules ...*domain.CardSchedule) *fakeScheduleStore {
	f := &fakeScheduleStore{schedules: make(map[uuid.UUID]*domain.CardSchedule)}
	for _, s := range schedules {
		f.schedules[s.CardID] = s
	}
	return f
}

func (f *fakeScheduleStore) CreateMultiple(ctx context.Context, schedules []*domain.CardSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range schedules {
		f.schedules[s.CardID] = s
	}
	return nil
}

func (f *fakeScheduleStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	schedule, ok := f.schedules[cardID]
	if !ok || schedule.UserID != userID {
		return nil, store.ErrScheduleNotFound
	}
	copied := *schedule
	return &copied, nil
}

func (f *fakeScheduleStore) Update(ctx context.Context, schedule *domain.CardSchedule, expectedUpdatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflicts > 0 {
		f.conflicts--
		return store.ErrConcurrentUpdate
	}
	current, ok := f.schedules[schedule.CardID]
	if !ok {
		return store.ErrScheduleNotFound
	}
	if !current.UpdatedAt.Equal(expectedUpdatedAt) {
		return store.ErrConcurrentUpdate
	}
	copied := *schedule
	f.schedules[schedule.CardID] = &copied
	f.updates++
	return nil
}

func (f *fakeScheduleStore) DueCards(ctx context.Context, userID uuid.UUID, deckID *uuid.UUID, limit int, now time.Time) ([]*store.DueCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	f.lastDeck = deckID
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	if len(f.due) > limit {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeScheduleStore) DeckStats(ctx context.Context, userID, deckID uuid.UUID, now time.Time, mastery store.MasteryThresholds) (*store.DeckStats, error) {
	return &store.DeckStats{}, nil
}

func (f *fakeScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore { return f }

func (f *fakeScheduleStore) stored(cardID uuid.UUID) *domain.CardSchedule {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schedules[cardID]
}

func (f *fakeScheduleStore) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}
