package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/store"
)

func TestPostgresJobStoreIntegration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	t.Run("claim_has_a_single_winner", func(t *testing.T) {
		tx := beginTestTx(t, db)
		jobs := NewPostgresJobStore(tx, nil)
		user := createTestUser(t, ctx, tx)
		doc := createProcessedDocument(t, ctx, tx, user.ID)
		job := createPendingJob(t, ctx, tx, user.ID, doc.ID)

		claimed, err := jobs.Claim(ctx, job.ID)
		require.NoError(t, err)
		assert.True(t, claimed)

		again, err := jobs.Claim(ctx, job.ID)
		require.NoError(t, err)
		assert.False(t, again, "second claim must lose")

		got, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusProcessing, got.Status)
		require.NotNil(t, got.StartedAt)
	})

	t.Run("progress_is_monotonic", func(t *testing.T) {
		tx := beginTestTx(t, db)
		jobs := NewPostgresJobStore(tx, nil)
		user := createTestUser(t, ctx, tx)
		doc := createProcessedDocument(t, ctx, tx, user.ID)
		job := createPendingJob(t, ctx, tx, user.ID, doc.ID)

		claimed, err := jobs.Claim(ctx, job.ID)
		require.NoError(t, err)
		require.True(t, claimed)

		require.NoError(t, jobs.UpdateProgress(ctx, job.ID, 40))
		got, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, 40, got.Progress)

		// A lower value never wins; the write itself still succeeds.
		require.NoError(t, jobs.UpdateProgress(ctx, job.ID, 25))
		got, err = jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, 40, got.Progress)

		require.NoError(t, jobs.UpdateProgress(ctx, job.ID, 60))
		got, err = jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, 60, got.Progress)
	})

	t.Run("progress_update_fails_once_job_leaves_processing", func(t *testing.T) {
		tx := beginTestTx(t, db)
		jobs := NewPostgresJobStore(tx, nil)
		user := createTestUser(t, ctx, tx)
		doc := createProcessedDocument(t, ctx, tx, user.ID)
		job := createPendingJob(t, ctx, tx, user.ID, doc.ID)

		// Never claimed: there is no processing row to update.
		assert.ErrorIs(t, jobs.UpdateProgress(ctx, job.ID, 10), store.ErrJobNotFound)

		claimed, err := jobs.Claim(ctx, job.ID)
		require.NoError(t, err)
		require.True(t, claimed)
		require.NoError(t, jobs.Complete(ctx, job.ID, uuid.New()))

		// A worker holding a stale claim learns the job is gone.
		assert.ErrorIs(t, jobs.UpdateProgress(ctx, job.ID, 99), store.ErrJobNotFound)
	})

	t.Run("complete_requires_a_processing_job", func(t *testing.T) {
		tx := beginTestTx(t, db)
		jobs := NewPostgresJobStore(tx, nil)
		user := createTestUser(t, ctx, tx)
		doc := createProcessedDocument(t, ctx, tx, user.ID)
		job := createPendingJob(t, ctx, tx, user.ID, doc.ID)

		resultID := uuid.New()
		assert.ErrorIs(t, jobs.Complete(ctx, job.ID, resultID), store.ErrJobNotFound)

		claimed, err := jobs.Claim(ctx, job.ID)
		require.NoError(t, err)
		require.True(t, claimed)
		require.NoError(t, jobs.Complete(ctx, job.ID, resultID))

		got, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusCompleted, got.Status)
		assert.Equal(t, 100, got.Progress)
		assert.Empty(t, got.Message)
		require.NotNil(t, got.ResultID)
		assert.Equal(t, resultID, *got.ResultID)
		require.NotNil(t, got.CompletedAt)

		assert.ErrorIs(t, jobs.Complete(ctx, job.ID, uuid.New()), store.ErrJobNotFound)
	})

	t.Run("fail_reaches_pending_and_processing", func(t *testing.T) {
		tx := beginTestTx(t, db)
		jobs := NewPostgresJobStore(tx, nil)
		user := createTestUser(t, ctx, tx)
		doc := createProcessedDocument(t, ctx, tx, user.ID)

		pending := createPendingJob(t, ctx, tx, user.ID, doc.ID)
		require.NoError(t, jobs.Fail(ctx, pending.ID, "document unreadable"))
		got, err := jobs.GetByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusFailed, got.Status)
		assert.Equal(t, "document unreadable", got.Message)

		// Terminal jobs stay put.
		assert.ErrorIs(t, jobs.Fail(ctx, pending.ID, "again"), store.ErrJobNotFound)

		processing := createPendingJob(t, ctx, tx, user.ID, doc.ID)
		claimed, err := jobs.Claim(ctx, processing.ID)
		require.NoError(t, err)
		require.True(t, claimed)
		require.NoError(t, jobs.Fail(ctx, processing.ID, "generator exhausted"))
		got, err = jobs.GetByID(ctx, processing.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusFailed, got.Status)
	})

	t.Run("cancel_only_reaches_pending", func(t *testing.T) {
		tx := beginTestTx(t, db)
		jobs := NewPostgresJobStore(tx, nil)
		user := createTestUser(t, ctx, tx)
		doc := createProcessedDocument(t, ctx, tx, user.ID)

		pending := createPendingJob(t, ctx, tx, user.ID, doc.ID)
		cancelled, err := jobs.Cancel(ctx, pending.ID)
		require.NoError(t, err)
		assert.True(t, cancelled)

		got, err := jobs.GetByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusFailed, got.Status)
		assert.Equal(t, domain.CancelledJobMessage, got.Message)

		cancelled, err = jobs.Cancel(ctx, pending.ID)
		require.NoError(t, err)
		assert.False(t, cancelled, "terminal job cannot be cancelled again")

		processing := createPendingJob(t, ctx, tx, user.ID, doc.ID)
		claimed, err := jobs.Claim(ctx, processing.ID)
		require.NoError(t, err)
		require.True(t, claimed)

		cancelled, err = jobs.Cancel(ctx, processing.ID)
		require.NoError(t, err)
		assert.False(t, cancelled)
		got, err = jobs.GetByID(ctx, processing.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusProcessing, got.Status, "claimed job runs to completion")
	})

	t.Run("reset_stuck_reopens_old_processing_jobs", func(t *testing.T) {
		tx := beginTestTx(t, db)
		jobs := NewPostgresJobStore(tx, nil)
		user := createTestUser(t, ctx, tx)
		doc := createProcessedDocument(t, ctx, tx, user.ID)
		job := createPendingJob(t, ctx, tx, user.ID, doc.ID)

		claimed, err := jobs.Claim(ctx, job.ID)
		require.NoError(t, err)
		require.True(t, claimed)

		// A cutoff in the past leaves young processing jobs alone.
		ids, err := jobs.ResetStuck(ctx, time.Now().UTC().Add(-time.Hour))
		require.NoError(t, err)
		assert.NotContains(t, ids, job.ID)

		ids, err = jobs.ResetStuck(ctx, time.Now().UTC().Add(time.Minute))
		require.NoError(t, err)
		assert.Contains(t, ids, job.ID)

		got, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusPending, got.Status)
		assert.Nil(t, got.StartedAt)

		// The worker that held the stale claim loses its next write.
		assert.ErrorIs(t, jobs.UpdateProgress(ctx, job.ID, 50), store.ErrJobNotFound)
	})

	t.Run("list_pending_oldest_first", func(t *testing.T) {
		tx := beginTestTx(t, db)
		jobs := NewPostgresJobStore(tx, nil)
		user := createTestUser(t, ctx, tx)
		doc := createProcessedDocument(t, ctx, tx, user.ID)

		older := createPendingJob(t, ctx, tx, user.ID, doc.ID)
		newer, err := domain.NewGenerationJob(user.ID, doc.ID, domain.JobKindQuiz, domain.JobParams{})
		require.NoError(t, err)
		newer.CreatedAt = older.CreatedAt.Add(time.Second)
		newer.UpdatedAt = newer.CreatedAt
		require.NoError(t, jobs.Create(ctx, newer))

		pending, err := jobs.ListPending(ctx)
		require.NoError(t, err)

		olderIdx, newerIdx := -1, -1
		for i, j := range pending {
			switch j.ID {
			case older.ID:
				olderIdx = i
			case newer.ID:
				newerIdx = i
			}
		}
		require.GreaterOrEqual(t, olderIdx, 0)
		require.GreaterOrEqual(t, newerIdx, 0)
		assert.Less(t, olderIdx, newerIdx, "recovery re-enqueues in submission order")
	})

	t.Run("log_trail_is_ordered_by_time", func(t *testing.T) {
		tx := beginTestTx(t, db)
		jobs := NewPostgresJobStore(tx, nil)
		user := createTestUser(t, ctx, tx)
		doc := createProcessedDocument(t, ctx, tx, user.ID)
		job := createPendingJob(t, ctx, tx, user.ID, doc.ID)

		first, err := domain.NewJobLogEntry(job.ID, domain.JobLogLevelInfo, "generation started", nil)
		require.NoError(t, err)
		second, err := domain.NewJobLogEntry(job.ID, domain.JobLogLevelWarn, "candidate rejected", nil)
		require.NoError(t, err)
		second.CreatedAt = first.CreatedAt.Add(time.Millisecond)

		// Insert out of order; the trail sorts by creation time.
		require.NoError(t, jobs.AppendLog(ctx, second))
		require.NoError(t, jobs.AppendLog(ctx, first))

		entries, err := jobs.ListLogs(ctx, job.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "generation started", entries[0].Message)
		assert.Equal(t, "candidate rejected", entries[1].Message)
	})
}
