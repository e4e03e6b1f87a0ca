// Package contact handles the public contact form. Delivery happens in the
// background worker, the HTTP request only validates and enqueues.
package contact

import (
	"encoding/json"
	"net/http"

	"bookstore/internal/httpx"
	"bookstore/internal/tasks"

	"github.com/go-chi/chi/v5"
)

// Enqueuer is the task queue surface the handler needs.
type Enqueuer interface {
	Enqueue(task string, payload any) error
}

type HTTPHandler struct {
	queue      Enqueuer
	recipients []string
}

func NewHTTPHandler(queue Enqueuer, recipients []string) *HTTPHandler {
	return &HTTPHandler{queue: queue, recipients: recipients}
}

func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Post("/contact", h.Submit)
}

type contactRequest struct {
	Subject string `json:"subject" validate:"required,min=1,max=200"`
	From    string `json:"from_email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=1,max=5000"`
}

// contactResponse keeps the form_is_valid key the web client expects; on
// validation failure the field errors ride along.
type contactResponse struct {
	FormIsValid bool                `json:"form_is_valid"`
	Errors      []httpx.ErrorDetail `json:"errors,omitempty"`
}

// Submit validates the form and hands the mail off to the worker. Delivery
// failures are invisible here: the response only reflects validation.
func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(contactResponse{FormIsValid: false, Errors: details})
		return
	}

	err := h.queue.Enqueue(tasks.TaskContactMail, tasks.ContactMailPayload{
		Subject:    req.Subject,
		From:       req.From,
		Message:    req.Message,
		Recipients: h.recipients,
	})
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to queue message", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(contactResponse{FormIsValid: true})
}
