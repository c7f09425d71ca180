package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/service"
	"github.com/revisehq/revise-api/internal/store"
)

type mockJobService struct {
	submitFn func(ctx context.Context, userID uuid.UUID, req service.SubmitJobRequest) (*domain.GenerationJob, error)
	statusFn func(ctx context.Context, userID, jobID uuid.UUID) (*domain.GenerationJob, error)
	cancelFn func(ctx context.Context, userID, jobID uuid.UUID) (*domain.GenerationJob, error)
	logsFn   func(ctx context.Context, userID, jobID uuid.UUID) ([]*domain.JobLogEntry, error)
}

func (m *mockJobService) Submit(ctx context.Context, userID uuid.UUID, req service.SubmitJobRequest) (*domain.GenerationJob, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, userID, req)
	}
	return nil, store.ErrDocumentNotFound
}

func (m *mockJobService) Status(ctx context.Context, userID, jobID uuid.UUID) (*domain.GenerationJob, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx, userID, jobID)
	}
	return nil, store.ErrJobNotFound
}

func (m *mockJobService) Cancel(ctx context.Context, userID, jobID uuid.UUID) (*domain.GenerationJob, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, userID, jobID)
	}
	return nil, store.ErrJobNotFound
}

func (m *mockJobService) Logs(ctx context.Context, userID, jobID uuid.UUID) ([]*domain.JobLogEntry, error) {
	if m.logsFn != nil {
		return m.logsFn(ctx, userID, jobID)
	}
	return nil, store.ErrJobNotFound
}

func TestJobHandler_SubmitJob(t *testing.T) {
	t.Parallel()

	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	documentID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	jobID := uuid.MustParse("33333333-3333-3333-3333-333333333333")

	t.Run("accepts_job", func(t *testing.T) {
		t.Parallel()

		var gotReq service.SubmitJobRequest
		svc := &mockJobService{
			submitFn: func(ctx context.Context, uid uuid.UUID, req service.SubmitJobRequest) (*domain.GenerationJob, error) {
				gotReq = req
				return &domain.GenerationJob{
					ID:         jobID,
					UserID:     uid,
					DocumentID: req.DocumentID,
					Kind:       req.Kind,
					Status:     domain.JobStatusPending,
					ItemCount:  req.Params.ItemCount,
					Difficulty: domain.DifficultyMixed,
					CreatedAt:  time.Now().UTC(),
				}, nil
			},
		}
		handler := NewJobHandler(svc)

		body := SubmitJobRequestBody{
			DocumentID: documentID.String(),
			Kind:       "quiz",
			ItemCount:  intPtr(5),
			ItemTypes:  []string{"multiple_choice", "true_false"},
		}
		req := newTestRequest(t, http.MethodPost, "/api/generation-jobs", body, userID, nil)
		rr := httptest.NewRecorder()
		handler.SubmitJob(rr, req)

		require.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, documentID, gotReq.DocumentID)
		assert.Equal(t, domain.JobKindQuiz, gotReq.Kind)
		assert.Equal(t, 5, gotReq.Params.ItemCount)
		assert.Equal(t, []string{"multiple_choice", "true_false"}, gotReq.Params.ItemTypes)

		var resp domain.GenerationJob
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, jobID, resp.ID)
		assert.Equal(t, domain.JobStatusPending, resp.Status)
	})

	t.Run("omitted_params_stay_zero", func(t *testing.T) {
		t.Parallel()

		var gotReq service.SubmitJobRequest
		svc := &mockJobService{
			submitFn: func(ctx context.Context, uid uuid.UUID, req service.SubmitJobRequest) (*domain.GenerationJob, error) {
				gotReq = req
				return &domain.GenerationJob{ID: jobID, Status: domain.JobStatusPending}, nil
			},
		}
		handler := NewJobHandler(svc)

		body := SubmitJobRequestBody{DocumentID: documentID.String(), Kind: "deck"}
		req := newTestRequest(t, http.MethodPost, "/api/generation-jobs", body, userID, nil)
		rr := httptest.NewRecorder()
		handler.SubmitJob(rr, req)

		// Defaulting happens in the domain layer, not the handler.
		require.Equal(t, http.StatusAccepted, rr.Code)
		assert.Equal(t, 0, gotReq.Params.ItemCount)
		assert.Empty(t, gotReq.Params.Difficulty)
	})

	t.Run("unknown_kind", func(t *testing.T) {
		t.Parallel()

		handler := NewJobHandler(&mockJobService{})
		body := SubmitJobRequestBody{DocumentID: documentID.String(), Kind: "essay"}
		req := newTestRequest(t, http.MethodPost, "/api/generation-jobs", body, userID, nil)
		rr := httptest.NewRecorder()
		handler.SubmitJob(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, errorMessage(t, rr), "Invalid Kind")
	})

	t.Run("invalid_document_id", func(t *testing.T) {
		t.Parallel()

		handler := NewJobHandler(&mockJobService{})
		body := SubmitJobRequestBody{DocumentID: "not-a-uuid", Kind: "quiz"}
		req := newTestRequest(t, http.MethodPost, "/api/generation-jobs", body, userID, nil)
		rr := httptest.NewRecorder()
		handler.SubmitJob(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, errorMessage(t, rr), "Invalid DocumentID")
	})

	t.Run("item_count_out_of_range", func(t *testing.T) {
		t.Parallel()

		for _, count := range []int{0, 500} {
			handler := NewJobHandler(&mockJobService{})
			body := SubmitJobRequestBody{DocumentID: documentID.String(), Kind: "quiz", ItemCount: intPtr(count)}
			req := newTestRequest(t, http.MethodPost, "/api/generation-jobs", body, userID, nil)
			rr := httptest.NewRecorder()
			handler.SubmitJob(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code, "item count %d", count)
			assert.Contains(t, errorMessage(t, rr), "Invalid ItemCount")
		}
	})

	t.Run("document_not_found", func(t *testing.T) {
		t.Parallel()

		handler := NewJobHandler(&mockJobService{})
		body := SubmitJobRequestBody{DocumentID: documentID.String(), Kind: "quiz"}
		req := newTestRequest(t, http.MethodPost, "/api/generation-jobs", body, userID, nil)
		rr := httptest.NewRecorder()
		handler.SubmitJob(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, errorMessage(t, rr), "Document not found")
	})

	t.Run("document_not_ready", func(t *testing.T) {
		t.Parallel()

		svc := &mockJobService{
			submitFn: func(ctx context.Context, uid uuid.UUID, req service.SubmitJobRequest) (*domain.GenerationJob, error) {
				return nil, fmt.Errorf("%w: document status is pending", service.ErrDocumentNotReady)
			},
		}
		handler := NewJobHandler(svc)
		body := SubmitJobRequestBody{DocumentID: documentID.String(), Kind: "quiz"}
		req := newTestRequest(t, http.MethodPost, "/api/generation-jobs", body, userID, nil)
		rr := httptest.NewRecorder()
		handler.SubmitJob(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, errorMessage(t, rr), "not ready for generation")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		handler := NewJobHandler(&mockJobService{})
		body := SubmitJobRequestBody{DocumentID: documentID.String(), Kind: "quiz"}
		req := newTestRequest(t, http.MethodPost, "/api/generation-jobs", body, uuid.Nil, nil)
		rr := httptest.NewRecorder()
		handler.SubmitJob(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestJobHandler_GetJob(t *testing.T) {
	t.Parallel()

	userID := uuid.MustParse("44444444-4444-4444-4444-444444444444")
	jobID := uuid.MustParse("55555555-5555-5555-5555-555555555555")

	t.Run("returns_snapshot", func(t *testing.T) {
		t.Parallel()

		svc := &mockJobService{
			statusFn: func(ctx context.Context, uid, jid uuid.UUID) (*domain.GenerationJob, error) {
				return &domain.GenerationJob{
					ID:       jid,
					UserID:   uid,
					Status:   domain.JobStatusProcessing,
					Progress: 40,
				}, nil
			},
		}
		handler := NewJobHandler(svc)

		req := newTestRequest(t, http.MethodGet, "/api/generation-jobs/"+jobID.String(), nil, userID,
			map[string]string{"id": jobID.String()})
		rr := httptest.NewRecorder()
		handler.GetJob(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp domain.GenerationJob
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, domain.JobStatusProcessing, resp.Status)
		assert.Equal(t, 40, resp.Progress)
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		handler := NewJobHandler(&mockJobService{})
		req := newTestRequest(t, http.MethodGet, "/api/generation-jobs/"+jobID.String(), nil, userID,
			map[string]string{"id": jobID.String()})
		rr := httptest.NewRecorder()
		handler.GetJob(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, errorMessage(t, rr), "Generation job not found")
	})

	t.Run("not_owned", func(t *testing.T) {
		t.Parallel()

		svc := &mockJobService{
			statusFn: func(ctx context.Context, uid, jid uuid.UUID) (*domain.GenerationJob, error) {
				return nil, service.ErrNotOwned
			},
		}
		handler := NewJobHandler(svc)
		req := newTestRequest(t, http.MethodGet, "/api/generation-jobs/"+jobID.String(), nil, userID,
			map[string]string{"id": jobID.String()})
		rr := httptest.NewRecorder()
		handler.GetJob(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("invalid_job_id", func(t *testing.T) {
		t.Parallel()

		handler := NewJobHandler(&mockJobService{})
		req := newTestRequest(t, http.MethodGet, "/api/generation-jobs/oops", nil, userID,
			map[string]string{"id": "oops"})
		rr := httptest.NewRecorder()
		handler.GetJob(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestJobHandler_CancelJob(t *testing.T) {
	t.Parallel()

	userID := uuid.MustParse("66666666-6666-6666-6666-666666666666")
	jobID := uuid.MustParse("77777777-7777-7777-7777-777777777777")

	t.Run("cancels_pending_job", func(t *testing.T) {
		t.Parallel()

		svc := &mockJobService{
			cancelFn: func(ctx context.Context, uid, jid uuid.UUID) (*domain.GenerationJob, error) {
				return &domain.GenerationJob{
					ID:      jid,
					UserID:  uid,
					Status:  domain.JobStatusFailed,
					Message: domain.CancelledJobMessage,
				}, nil
			},
		}
		handler := NewJobHandler(svc)

		req := newTestRequest(t, http.MethodPost, "/api/generation-jobs/"+jobID.String()+"/cancel", nil, userID,
			map[string]string{"id": jobID.String()})
		rr := httptest.NewRecorder()
		handler.CancelJob(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp domain.GenerationJob
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, domain.JobStatusFailed, resp.Status)
		assert.Equal(t, domain.CancelledJobMessage, resp.Message)
	})

	t.Run("processing_job_not_cancellable", func(t *testing.T) {
		t.Parallel()

		svc := &mockJobService{
			cancelFn: func(ctx context.Context, uid, jid uuid.UUID) (*domain.GenerationJob, error) {
				return nil, fmt.Errorf("%w: job is processing", service.ErrJobNotCancellable)
			},
		}
		handler := NewJobHandler(svc)

		req := newTestRequest(t, http.MethodPost, "/api/generation-jobs/"+jobID.String()+"/cancel", nil, userID,
			map[string]string{"id": jobID.String()})
		rr := httptest.NewRecorder()
		handler.CancelJob(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, errorMessage(t, rr), "can no longer be cancelled")
	})
}

func TestJobHandler_GetJobLogs(t *testing.T) {
	t.Parallel()

	userID := uuid.MustParse("88888888-8888-8888-8888-888888888888")
	jobID := uuid.MustParse("99999999-9999-9999-9999-999999999999")

	t.Run("returns_entries", func(t *testing.T) {
		t.Parallel()

		svc := &mockJobService{
			logsFn: func(ctx context.Context, uid, jid uuid.UUID) ([]*domain.JobLogEntry, error) {
				return []*domain.JobLogEntry{
					{ID: uuid.New(), JobID: jid, Level: domain.JobLogLevelInfo, Message: "job claimed"},
					{ID: uuid.New(), JobID: jid, Level: domain.JobLogLevelWarn, Message: "candidate rejected"},
				}, nil
			},
		}
		handler := NewJobHandler(svc)

		req := newTestRequest(t, http.MethodGet, "/api/generation-jobs/"+jobID.String()+"/logs", nil, userID,
			map[string]string{"id": jobID.String()})
		rr := httptest.NewRecorder()
		handler.GetJobLogs(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp JobLogsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, jobID.String(), resp.JobID)
		require.Len(t, resp.Logs, 2)
		assert.Equal(t, "job claimed", resp.Logs[0].Message)
		assert.Equal(t, domain.JobLogLevelWarn, resp.Logs[1].Level)
	})

	t.Run("empty_trail_is_not_null", func(t *testing.T) {
		t.Parallel()

		svc := &mockJobService{
			logsFn: func(ctx context.Context, uid, jid uuid.UUID) ([]*domain.JobLogEntry, error) {
				return nil, nil
			},
		}
		handler := NewJobHandler(svc)

		req := newTestRequest(t, http.MethodGet, "/api/generation-jobs/"+jobID.String()+"/logs", nil, userID,
			map[string]string{"id": jobID.String()})
		rr := httptest.NewRecorder()
		handler.GetJobLogs(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"logs":[]`)
	})
}
