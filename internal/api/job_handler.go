package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/revisehq/revise-api/internal/api/shared"
	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/service"
)

// SubmitJobRequestBody represents the request body for submitting a
// generation job. ItemCount is a pointer so that an explicit zero is
// rejected rather than mistaken for "use the default".
type SubmitJobRequestBody struct {
	DocumentID  string   `json:"document_id"            validate:"required,uuid"`
	Kind        string   `json:"kind"                   validate:"required,oneof=deck quiz"`
	ItemCount   *int     `json:"item_count,omitempty"   validate:"omitempty,min=1,max=50"`
	ItemTypes   []string `json:"item_types,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"   validate:"omitempty,oneof=easy medium hard mixed"`
	FocusTopics []string `json:"focus_topics,omitempty"`
}

// JobLogsResponse wraps a job's log entries.
type JobLogsResponse struct {
	JobID string                `json:"job_id"`
	Logs  []*domain.JobLogEntry `json:"logs"`
}

// JobHandler handles generation job HTTP requests.
type JobHandler struct {
	jobService service.JobService
	validator  *validator.Validate
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService service.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		validator:  validator.New(),
	}
}

// SubmitJob handles POST /api/generation-jobs requests. Generation runs
// in the background, so a successful submission returns 202 Accepted
// with the pending job snapshot.
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req SubmitJobRequestBody
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	documentID, err := parseUUIDField(req.DocumentID, "document_id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	itemCount := 0
	if req.ItemCount != nil {
		itemCount = *req.ItemCount
	}

	job, err := h.jobService.Submit(r.Context(), userID, service.SubmitJobRequest{
		DocumentID: documentID,
		Kind:       domain.JobKind(req.Kind),
		Params: domain.JobParams{
			ItemCount:   itemCount,
			ItemTypes:   req.ItemTypes,
			Difficulty:  domain.Difficulty(req.Difficulty),
			FocusTopics: req.FocusTopics,
		},
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, job)
}

// GetJob handles GET /api/generation-jobs/{id} requests.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	userID, jobID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	job, err := h.jobService.Status(r.Context(), userID, jobID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, job)
}

// CancelJob handles POST /api/generation-jobs/{id}/cancel requests.
// Only pending jobs can be cancelled; a processing job runs to
// completion.
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	userID, jobID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	job, err := h.jobService.Cancel(r.Context(), userID, jobID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, job)
}

// GetJobLogs handles GET /api/generation-jobs/{id}/logs requests.
func (h *JobHandler) GetJobLogs(w http.ResponseWriter, r *http.Request) {
	userID, jobID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	logs, err := h.jobService.Logs(r.Context(), userID, jobID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if logs == nil {
		logs = []*domain.JobLogEntry{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, JobLogsResponse{
		JobID: jobID.String(),
		Logs:  logs,
	})
}
