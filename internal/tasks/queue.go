package tasks

import (
	"encoding/json"
	"time"

	"bookstore/internal/kafkax"

	"github.com/google/uuid"
)

// Queue publishes task envelopes. Enqueue is near fire-and-forget: the
// producer buffers the message and delivery failures are logged by the
// producer loop; the only enqueue-time error is a producer already closed
// during shutdown.
type Queue struct {
	producer *kafkax.Producer
	name     string
}

func NewQueue(producer *kafkax.Producer, producerName string) *Queue {
	return &Queue{producer: producer, name: producerName}
}

func (q *Queue) Enqueue(task string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = b
	}
	env := Envelope{
		EventID:    uuid.NewString(),
		Task:       task,
		OccurredAt: time.Now().UTC(),
		Producer:   q.name,
		Payload:    raw,
	}
	return q.producer.Publish([]byte(task), kafkax.MustMarshal(env))
}
