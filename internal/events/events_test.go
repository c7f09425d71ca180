package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	t.Parallel()

	type jobPayload struct {
		JobID  uuid.UUID `json:"job_id"`
		UserID uuid.UUID `json:"user_id"`
	}

	payload := jobPayload{JobID: uuid.New(), UserID: uuid.New()}

	event, err := New("generation_job", payload)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "generation_job", event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded jobPayload
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEventRejectsUnserializablePayload(t *testing.T) {
	t.Parallel()

	_, err := New("generation_job", func() {})
	assert.Error(t, err)
}

func TestUnmarshalPayload(t *testing.T) {
	t.Parallel()

	event, err := New("generation_job", map[string]string{"job_id": "abc"})
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, "abc", decoded["job_id"])
}

// recordingHandler implements Handler for tests.
type recordingHandler struct {
	lastEvent *Event
	err       error
	calls     int
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.lastEvent = event
	h.calls++
	return h.err
}
