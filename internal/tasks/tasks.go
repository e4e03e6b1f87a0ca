// Package tasks defines the asynchronous work the store defers to the
// background worker: catalog replication and outbound contact mail.
package tasks

import (
	"encoding/json"
	"time"
)

const Topic = "store.tasks"

const (
	// TaskBookSync asks the worker to pull the warehouse catalog into the
	// store database.
	TaskBookSync = "book_sync"
	// TaskContactMail asks the worker to deliver a contact form message.
	TaskContactMail = "contact_mail"
)

// Envelope is the wire format of every task message.
type Envelope struct {
	EventID    string          `json:"event_id"`
	Task       string          `json:"task"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// ContactMailPayload carries a contact form submission to the mailer.
type ContactMailPayload struct {
	Subject    string   `json:"subject"`
	From       string   `json:"from"`
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}
