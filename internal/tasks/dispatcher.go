package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"
)

// TaskFunc processes one task payload. Returning an error leaves the message
// uncommitted so the consumer redelivers it.
type TaskFunc func(ctx context.Context, payload json.RawMessage) error

// Dispatcher routes envelopes to registered task handlers by task name.
type Dispatcher struct {
	handlers map[string]TaskFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]TaskFunc)}
}

func (d *Dispatcher) Register(task string, fn TaskFunc) {
	d.handlers[task] = fn
}

// Handle is the consumer entry point. Unknown tasks and malformed envelopes
// are logged and committed: redelivering them could never succeed.
func (d *Dispatcher) Handle(ctx context.Context, m kafka.Message) error {
	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Printf("tasks: dropping malformed envelope at offset %d: %v", m.Offset, err)
		return nil
	}
	fn, ok := d.handlers[env.Task]
	if !ok {
		log.Printf("tasks: dropping unknown task %q event_id=%s", env.Task, env.EventID)
		return nil
	}
	if err := fn(ctx, env.Payload); err != nil {
		return fmt.Errorf("task %s event_id=%s: %w", env.Task, env.EventID, err)
	}
	log.Printf("tasks: done task=%s event_id=%s producer=%s", env.Task, env.EventID, env.Producer)
	return nil
}
