package contact

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookstore/internal/tasks"
	"bookstore/internal/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	err      error
	task     string
	payloads []any
}

func (f *fakeQueue) Enqueue(task string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.task = task
	f.payloads = append(f.payloads, payload)
	return nil
}

func newContactRouter(q Enqueuer) http.Handler {
	r := chi.NewRouter()
	NewHTTPHandler(q, []string{"admin@example.com"}).RegisterRoutes(r)
	return r
}

func TestSubmit_ValidFormIsQueued(t *testing.T) {
	q := &fakeQueue{}
	router := newContactRouter(q)

	body := map[string]any{
		"subject":    "Shipping question",
		"from_email": "reader@example.com",
		"message":    "Where is my order?",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/contact", body))
	resp := testutil.RecordHTTPResponse(w)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, resp.Body["form_is_valid"])

	require.Len(t, q.payloads, 1)
	assert.Equal(t, tasks.TaskContactMail, q.task)
	payload := q.payloads[0].(tasks.ContactMailPayload)
	assert.Equal(t, "Shipping question", payload.Subject)
	assert.Equal(t, []string{"admin@example.com"}, payload.Recipients)
}

func TestSubmit_InvalidEmailFailsValidation(t *testing.T) {
	q := &fakeQueue{}
	router := newContactRouter(q)

	body := map[string]any{
		"subject":    "Shipping question",
		"from_email": "not-an-email",
		"message":    "Where is my order?",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/contact", body))
	resp := testutil.RecordHTTPResponse(w)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, false, resp.Body["form_is_valid"])

	// the offending field is named in the response
	errs := resp.Body["errors"].([]interface{})
	require.NotEmpty(t, errs)
	assert.Equal(t, "from", errs[0].(map[string]interface{})["field"])

	assert.Empty(t, q.payloads, "invalid forms are never queued")
}

func TestSubmit_MissingSubject(t *testing.T) {
	q := &fakeQueue{}
	router := newContactRouter(q)

	body := map[string]any{
		"from_email": "reader@example.com",
		"message":    "Hello",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/contact", body))
	resp := testutil.RecordHTTPResponse(w)
	assert.Equal(t, false, resp.Body["form_is_valid"])
}

func TestSubmit_QueueFailure(t *testing.T) {
	router := newContactRouter(&fakeQueue{err: errors.New("broker down")})

	body := map[string]any{
		"subject":    "Shipping question",
		"from_email": "reader@example.com",
		"message":    "Where is my order?",
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/contact", body))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
