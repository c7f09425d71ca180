package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revisehq/revise-api/internal/store"
)

// mockDBTX satisfies store.DBTX without touching a real database.
type mockDBTX struct{}

func (m *mockDBTX) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, nil
}

func (m *mockDBTX) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, nil
}

func (m *mockDBTX) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}

func (m *mockDBTX) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func TestStoreConstructorsPanicOnNilDB(t *testing.T) {
	assert.Panics(t, func() { NewPostgresUserStore(nil, 10, nil) })
	assert.Panics(t, func() { NewPostgresDocumentStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresDeckStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresCardStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresScheduleStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresJobStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresQuizStore(nil, nil) })
	assert.Panics(t, func() { NewPostgresAttemptStore(nil, nil) })
}

func TestStoreConstructorsDefaultLogger(t *testing.T) {
	db := &mockDBTX{}

	assert.NotNil(t, NewPostgresUserStore(db, 10, nil).logger)
	assert.NotNil(t, NewPostgresDocumentStore(db, nil).logger)
	assert.NotNil(t, NewPostgresJobStore(db, nil).logger)
	assert.NotNil(t, NewPostgresScheduleStore(db, nil).logger)
}

func TestNewPostgresUserStoreBcryptCost(t *testing.T) {
	tests := []struct {
		name     string
		cost     int
		expected int
	}{
		{name: "valid cost kept", cost: 12, expected: 12},
		{name: "zero cost uses default", cost: 0, expected: 10},
		{name: "below minimum uses default", cost: 3, expected: 10},
		{name: "above maximum uses default", cost: 32, expected: 10},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := NewPostgresUserStore(&mockDBTX{}, tt.cost, slog.Default())
			assert.Equal(t, tt.expected, s.bcryptCost)
		})
	}
}

func TestWithTxRebindsConnection(t *testing.T) {
	db := &mockDBTX{}
	tx := &sql.Tx{}

	docStore := NewPostgresDocumentStore(db, nil)
	bound, ok := docStore.WithTx(tx).(*PostgresDocumentStore)
	require.True(t, ok)
	assert.Same(t, tx, bound.db.(*sql.Tx))
	assert.Same(t, db, docStore.db.(*mockDBTX), "original store keeps its connection")

	jobStore := NewPostgresJobStore(db, nil)
	boundJobs, ok := jobStore.WithTx(tx).(*PostgresJobStore)
	require.True(t, ok)
	assert.Same(t, tx, boundJobs.db.(*sql.Tx))

	scheduleStore := NewPostgresScheduleStore(db, nil)
	boundSchedules, ok := scheduleStore.WithTx(tx).(*PostgresScheduleStore)
	require.True(t, ok)
	assert.Same(t, tx, boundSchedules.db.(*sql.Tx))
}

// Compile-time interface checks for every store implementation.
var (
	_ store.UserStore     = (*PostgresUserStore)(nil)
	_ store.DocumentStore = (*PostgresDocumentStore)(nil)
	_ store.DeckStore     = (*PostgresDeckStore)(nil)
	_ store.CardStore     = (*PostgresCardStore)(nil)
	_ store.ScheduleStore = (*PostgresScheduleStore)(nil)
	_ store.JobStore      = (*PostgresJobStore)(nil)
	_ store.QuizStore     = (*PostgresQuizStore)(nil)
	_ store.AttemptStore  = (*PostgresAttemptStore)(nil)
)
