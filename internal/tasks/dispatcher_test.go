package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeMessage(t *testing.T, task string, payload any) kafka.Message {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}
	env := Envelope{
		EventID:    "e-1",
		Task:       task,
		OccurredAt: time.Now().UTC(),
		Producer:   "test",
		Payload:    raw,
	}
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return kafka.Message{Value: b}
}

func TestHandle_RoutesToRegisteredTask(t *testing.T) {
	d := NewDispatcher()
	var got ContactMailPayload
	d.Register(TaskContactMail, func(_ context.Context, payload json.RawMessage) error {
		return json.Unmarshal(payload, &got)
	})

	msg := envelopeMessage(t, TaskContactMail, ContactMailPayload{
		Subject:    "hello",
		From:       "reader@example.com",
		Message:    "hi there",
		Recipients: []string{"admin@example.com"},
	})

	require.NoError(t, d.Handle(context.Background(), msg))
	assert.Equal(t, "hello", got.Subject)
	assert.Equal(t, []string{"admin@example.com"}, got.Recipients)
}

func TestHandle_UnknownTaskIsCommitted(t *testing.T) {
	d := NewDispatcher()
	msg := envelopeMessage(t, "never_heard_of_it", nil)

	// nil means the consumer commits and the message is not redelivered
	assert.NoError(t, d.Handle(context.Background(), msg))
}

func TestHandle_MalformedEnvelopeIsCommitted(t *testing.T) {
	d := NewDispatcher()
	assert.NoError(t, d.Handle(context.Background(), kafka.Message{Value: []byte("{not json")}))
}

func TestHandle_TaskErrorPropagatesForRedelivery(t *testing.T) {
	d := NewDispatcher()
	sentinel := errors.New("smtp refused")
	d.Register(TaskContactMail, func(context.Context, json.RawMessage) error {
		return sentinel
	})

	err := d.Handle(context.Background(), envelopeMessage(t, TaskContactMail, nil))
	assert.ErrorIs(t, err, sentinel)
}
