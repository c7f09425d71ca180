package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event asks a background component to act. Payload is event-specific
// data serialized as JSON so that emitting packages need no dependency
// on the handling package's types.
type Event struct {
	// ID uniquely identifies this event, for log correlation.
	ID uuid.UUID `json:"id"`

	// Type names the kind of work requested, e.g. a task type.
	Type string `json:"type"`

	// Payload carries event-specific data as JSON.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt records when the event was emitted.
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// New creates an Event of the given type with the payload serialized to
// JSON.
func New(eventType string, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Handler processes emitted events.
type Handler interface {
	// HandleEvent processes one event. An error means the event was not
	// acted on; emitters decide whether that is fatal.
	HandleEvent(ctx context.Context, event *Event) error
}

// Emitter publishes events to registered handlers. Services emit
// through this interface so they stay unaware of who is listening.
type Emitter interface {
	Emit(ctx context.Context, event *Event) error
}
