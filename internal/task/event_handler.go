package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/events"
)

// GenerationPayload is the payload of TaskTypeGeneration events. The
// job service emits one after persisting the job row; this package
// turns it back into an executable task.
type GenerationPayload struct {
	JobID uuid.UUID `json:"job_id"`
}

// GenerationEventHandler bridges the event emitter and the task
// runner: it converts TaskTypeGeneration events into tasks and submits
// them for background execution.
type GenerationEventHandler struct {
	factory   Factory
	submitter Submitter
	logger    *slog.Logger
}

var _ events.Handler = (*GenerationEventHandler)(nil)

// NewGenerationEventHandler creates a handler that feeds the given
// submitter from generation events.
func NewGenerationEventHandler(factory Factory, submitter Submitter, logger *slog.Logger) *GenerationEventHandler {
	return &GenerationEventHandler{
		factory:   factory,
		submitter: submitter,
		logger:    logger.With(slog.String("component", "generation_event_handler")),
	}
}

// HandleEvent implements events.Handler. Events of other types are
// ignored without error so the handler can share an emitter with
// future handlers.
func (h *GenerationEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != TaskTypeGeneration {
		h.logger.Debug("ignoring event of unrelated type",
			slog.String("event_type", event.Type))
		return nil
	}

	var payload GenerationPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to decode generation event payload",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("decoding generation event payload: %w", err)
	}
	if payload.JobID == uuid.Nil {
		return fmt.Errorf("generation event %s has no job ID", event.ID)
	}

	t, err := h.factory.CreateTask(payload.JobID)
	if err != nil {
		return fmt.Errorf("creating task for job %s: %w", payload.JobID, err)
	}

	if err := h.submitter.Submit(ctx, t); err != nil {
		// The job row is already pending in the database, so a full
		// queue is not fatal: the runner's sweep will retry it.
		return fmt.Errorf("submitting task for job %s: %w", payload.JobID, err)
	}

	h.logger.Debug("generation job queued from event",
		slog.String("job_id", payload.JobID.String()))
	return nil
}
