package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/platform/logger"
	"github.com/revisehq/revise-api/internal/store"
)

// PostgresScheduleStore implements store.ScheduleStore using PostgreSQL.
// Updates use optimistic concurrency on updated_at so two racing reviews
// of the same card cannot silently clobber each other.
type PostgresScheduleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresScheduleStore creates a PostgreSQL implementation of
// store.ScheduleStore. If logger is nil, slog.Default is used.
func NewPostgresScheduleStore(db store.DBTX, logger *slog.Logger) *PostgresScheduleStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresScheduleStore{
		db:     db,
		logger: logger.With(slog.String("component", "schedule_store")),
	}
}

var _ store.ScheduleStore = (*PostgresScheduleStore)(nil)

// WithTx implements store.ScheduleStore.WithTx.
func (s *PostgresScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore {
	return &PostgresScheduleStore{db: tx, logger: s.logger}
}

// CreateMultiple implements store.ScheduleStore.CreateMultiple.
func (s *PostgresScheduleStore) CreateMultiple(ctx context.Context, schedules []*domain.CardSchedule) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(schedules) == 0 {
		return nil
	}

	query := `
		INSERT INTO card_schedules (user_id, card_id, ease_factor, interval_days, repetitions,
			last_rating, last_reviewed_at, due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, schedule := range schedules {
		if err := schedule.Validate(); err != nil {
			log.Warn("schedule validation failed during batch create",
				slog.String("error", err.Error()),
				slog.String("card_id", schedule.CardID.String()))
			return err
		}

		_, err := s.db.ExecContext(ctx, query,
			schedule.UserID,
			schedule.CardID,
			schedule.EaseFactor,
			schedule.IntervalDays,
			schedule.Repetitions,
			ratingOrNull(schedule.LastRating),
			timeOrNull(schedule.LastReviewedAt),
			schedule.DueAt,
			schedule.CreatedAt,
			schedule.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to create card schedule",
				slog.String("error", err.Error()),
				slog.String("card_id", schedule.CardID.String()),
				slog.String("user_id", schedule.UserID.String()))
			return MapError(err)
		}
	}

	log.Debug("card schedules created", slog.Int("count", len(schedules)))
	return nil
}

// Get implements store.ScheduleStore.Get.
func (s *PostgresScheduleStore) Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.CardSchedule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, card_id, ease_factor, interval_days, repetitions,
			last_rating, last_reviewed_at, due_at, created_at, updated_at
		FROM card_schedules
		WHERE user_id = $1 AND card_id = $2
	`

	schedule, err := scanSchedule(s.db.QueryRowContext(ctx, query, userID, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card schedule not found",
				slog.String("user_id", userID.String()),
				slog.String("card_id", cardID.String()))
			return nil, store.ErrScheduleNotFound
		}
		log.Error("failed to get card schedule",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, MapError(err)
	}

	return schedule, nil
}

// Update implements store.ScheduleStore.Update. The row is written only
// when its updated_at still matches expectedUpdatedAt; a zero-row update
// against an existing row means another review won the race.
func (s *PostgresScheduleStore) Update(ctx context.Context, schedule *domain.CardSchedule, expectedUpdatedAt time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := schedule.Validate(); err != nil {
		log.Warn("schedule validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", schedule.CardID.String()))
		return err
	}

	query := `
		UPDATE card_schedules
		SET ease_factor = $1, interval_days = $2, repetitions = $3,
			last_rating = $4, last_reviewed_at = $5, due_at = $6, updated_at = $7
		WHERE user_id = $8 AND card_id = $9 AND updated_at = $10
	`
	result, err := s.db.ExecContext(ctx, query,
		schedule.EaseFactor,
		schedule.IntervalDays,
		schedule.Repetitions,
		ratingOrNull(schedule.LastRating),
		timeOrNull(schedule.LastReviewedAt),
		schedule.DueAt,
		schedule.UpdatedAt,
		schedule.UserID,
		schedule.CardID,
		expectedUpdatedAt,
	)
	if err != nil {
		log.Error("failed to update card schedule",
			slog.String("error", err.Error()),
			slog.String("card_id", schedule.CardID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Zero rows: either the row is gone or someone else updated it first.
	var exists bool
	checkQuery := `SELECT EXISTS (SELECT 1 FROM card_schedules WHERE user_id = $1 AND card_id = $2)`
	if err := s.db.QueryRowContext(ctx, checkQuery, schedule.UserID, schedule.CardID).Scan(&exists); err != nil {
		return MapError(err)
	}
	if !exists {
		return store.ErrScheduleNotFound
	}

	log.Debug("concurrent schedule update detected",
		slog.String("user_id", schedule.UserID.String()),
		slog.String("card_id", schedule.CardID.String()))
	return store.ErrConcurrentUpdate
}

// DueCards implements store.ScheduleStore.DueCards. Ordering is
// deterministic (due_at, then card ID) so a queue fetched twice without
// intervening reviews comes back identical.
func (s *PostgresScheduleStore) DueCards(
	ctx context.Context,
	userID uuid.UUID,
	deckID *uuid.UUID,
	limit int,
	now time.Time,
) ([]*store.DueCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var query string
	var args []any

	if deckID != nil {
		query = `
			SELECT c.id, c.deck_id, c.user_id, c.card_type, c.front, c.back, c.cloze_answer,
				c.difficulty, c.source_page, c.source_snippet, c.created_at, c.updated_at,
				s.user_id, s.card_id, s.ease_factor, s.interval_days, s.repetitions,
				s.last_rating, s.last_reviewed_at, s.due_at, s.created_at, s.updated_at
			FROM card_schedules s
			JOIN cards c ON c.id = s.card_id
			WHERE s.user_id = $1 AND s.due_at <= $2 AND c.deck_id = $3
			ORDER BY s.due_at ASC, s.card_id ASC
			LIMIT $4
		`
		args = []any{userID, now, *deckID, limit}
	} else {
		query = `
			SELECT c.id, c.deck_id, c.user_id, c.card_type, c.front, c.back, c.cloze_answer,
				c.difficulty, c.source_page, c.source_snippet, c.created_at, c.updated_at,
				s.user_id, s.card_id, s.ease_factor, s.interval_days, s.repetitions,
				s.last_rating, s.last_reviewed_at, s.due_at, s.created_at, s.updated_at
			FROM card_schedules s
			JOIN cards c ON c.id = s.card_id
			WHERE s.user_id = $1 AND s.due_at <= $2
			ORDER BY s.due_at ASC, s.card_id ASC
			LIMIT $3
		`
		args = []any{userID, now, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query due cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	due := []*store.DueCard{}
	for rows.Next() {
		var card domain.Card
		var schedule domain.CardSchedule
		var cardType, difficulty string
		var sourcePage sql.NullInt64
		var lastRating sql.NullString
		var lastReviewedAt sql.NullTime

		err := rows.Scan(
			&card.ID, &card.DeckID, &card.UserID, &cardType, &card.Front, &card.Back,
			&card.ClozeAnswer, &difficulty, &sourcePage, &card.SourceSnippet,
			&card.CreatedAt, &card.UpdatedAt,
			&schedule.UserID, &schedule.CardID, &schedule.EaseFactor,
			&schedule.IntervalDays, &schedule.Repetitions,
			&lastRating, &lastReviewedAt, &schedule.DueAt,
			&schedule.CreatedAt, &schedule.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan due card row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}

		card.Type = domain.CardType(cardType)
		card.Difficulty = domain.Difficulty(difficulty)
		if sourcePage.Valid {
			page := int(sourcePage.Int64)
			card.SourcePage = &page
		}
		if lastRating.Valid {
			rating := domain.ReviewRating(lastRating.String)
			schedule.LastRating = &rating
		}
		if lastReviewedAt.Valid {
			t := lastReviewedAt.Time
			schedule.LastReviewedAt = &t
		}

		due = append(due, &store.DueCard{Card: &card, Schedule: &schedule})
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating due card rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("due cards fetched",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(due)))
	return due, nil
}

// DeckStats implements store.ScheduleStore.DeckStats. New means never
// reviewed; Mastered applies the thresholds; Learning is the remainder.
func (s *PostgresScheduleStore) DeckStats(
	ctx context.Context,
	userID, deckID uuid.UUID,
	now time.Time,
	mastery store.MasteryThresholds,
) (*store.DeckStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE s.due_at <= $3),
			COUNT(*) FILTER (WHERE s.last_reviewed_at IS NULL),
			COUNT(*) FILTER (WHERE s.repetitions >= $4 AND s.interval_days >= $5)
		FROM card_schedules s
		JOIN cards c ON c.id = s.card_id
		WHERE s.user_id = $1 AND c.deck_id = $2
	`

	var stats store.DeckStats
	err := s.db.QueryRowContext(ctx, query,
		userID, deckID, now, mastery.MinRepetitions, mastery.MinIntervalDays,
	).Scan(&stats.Total, &stats.Due, &stats.New, &stats.Mastered)
	if err != nil {
		log.Error("failed to aggregate deck stats",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}

	stats.Learning = stats.Total - stats.New - stats.Mastered

	return &stats, nil
}

func scanSchedule(row rowScanner) (*domain.CardSchedule, error) {
	var schedule domain.CardSchedule
	var lastRating sql.NullString
	var lastReviewedAt sql.NullTime

	err := row.Scan(
		&schedule.UserID,
		&schedule.CardID,
		&schedule.EaseFactor,
		&schedule.IntervalDays,
		&schedule.Repetitions,
		&lastRating,
		&lastReviewedAt,
		&schedule.DueAt,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastRating.Valid {
		rating := domain.ReviewRating(lastRating.String)
		schedule.LastRating = &rating
	}
	if lastReviewedAt.Valid {
		t := lastReviewedAt.Time
		schedule.LastReviewedAt = &t
	}
	return &schedule, nil
}

func ratingOrNull(r *domain.ReviewRating) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*r), Valid: true}
}

func timeOrNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
