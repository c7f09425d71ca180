package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/store"
)

// testBcryptCost keeps password hashing cheap in tests.
const testBcryptCost = 4

// openTestDB connects to the database named by DATABASE_URL and brings
// its schema up to date. Tests that need a live database call this
// first and are skipped when none is configured.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("skipping integration test, DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "failed to open database connection")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("error closing database connection: %v", err)
		}
	})

	require.NoError(t, db.Ping(), "database is not reachable")
	require.NoError(t, MigrateUp(db), "failed to apply migrations")
	return db
}

// beginTestTx opens a transaction that is always rolled back, so tests
// leave no rows behind.
func beginTestTx(t *testing.T, db *sql.DB) *sql.Tx {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin transaction")
	t.Cleanup(func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Logf("error rolling back transaction: %v", err)
		}
	})
	return tx
}

func createTestUser(t *testing.T, ctx context.Context, db store.DBTX) *domain.User {
	t.Helper()

	email := fmt.Sprintf("learner-%s@example.com", uuid.NewString())
	user, err := domain.NewUser(email, "a-long-enough-password")
	require.NoError(t, err)
	require.NoError(t, NewPostgresUserStore(db, testBcryptCost, nil).Create(ctx, user))
	return user
}

func createProcessedDocument(t *testing.T, ctx context.Context, db store.DBTX, userID uuid.UUID) *domain.Document {
	t.Helper()

	doc, err := domain.NewDocument(userID, "Cell Biology", "pdf")
	require.NoError(t, err)
	doc.Status = domain.DocumentStatusProcessed
	require.NoError(t, NewPostgresDocumentStore(db, nil).Create(ctx, doc))
	return doc
}

func createPendingJob(t *testing.T, ctx context.Context, db store.DBTX, userID, documentID uuid.UUID) *domain.GenerationJob {
	t.Helper()

	job, err := domain.NewGenerationJob(userID, documentID, domain.JobKindDeck, domain.JobParams{ItemCount: 4})
	require.NoError(t, err)
	require.NoError(t, NewPostgresJobStore(db, nil).Create(ctx, job))
	return job
}

func createDeckWithCards(t *testing.T, ctx context.Context, db store.DBTX, userID uuid.UUID, count int) (*domain.Deck, []*domain.Card) {
	t.Helper()

	deck, err := domain.NewDeck(userID, "Cell Biology", "")
	require.NoError(t, err)
	require.NoError(t, NewPostgresDeckStore(db, nil).Create(ctx, deck))

	cards := make([]*domain.Card, 0, count)
	for i := 0; i < count; i++ {
		card, err := domain.NewCard(deck.ID, userID, domain.CardTypeBasic,
			fmt.Sprintf("What does organelle %d do?", i), "It produces ATP")
		require.NoError(t, err)
		card.Difficulty = domain.DifficultyMixed
		cards = append(cards, card)
	}
	require.NoError(t, NewPostgresCardStore(db, nil).CreateMultiple(ctx, cards))
	return deck, cards
}
