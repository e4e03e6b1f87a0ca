package warehouse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListBooks_DecodesNestedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/books", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "1f9f4b2a-0c3d-4e5f-8a7b-9c0d1e2f3a4b",
				"title": "Dune",
				"author": [{"id": 1, "name": "Frank Herbert"}],
				"summary": "Desert planet politics.",
				"genre": [{"id": 2, "name": "Science Fiction"}],
				"price": "19.99",
				"mark": 8.5
			}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 0)
	books, err := c.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)

	b := books[0]
	assert.Equal(t, "Dune", b.Title)
	require.Len(t, b.Authors, 1)
	assert.Equal(t, "Frank Herbert", b.Authors[0].Name)
	require.Len(t, b.Genres, 1)
	assert.Equal(t, int64(2), b.Genres[0].ID)
	assert.True(t, b.Price.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, 8.5, b.Mark)
}

func TestListBooks_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 2)
	books, err := c.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestListBooks_GivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 1)
	_, err := c.ListBooks(context.Background())
	assert.Error(t, err)
}

func TestCreateOrder_ReturnsStatusWithoutRetry(t *testing.T) {
	var calls int32
	var received OrderPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Equal(t, "/orders/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 3)
	payload := OrderPayload{
		ID:           "3c1d9a2b-5566-4d77-8899-aabbccddeeff",
		CustomerMail: "reader@example.com",
		CustomerName: "Ada Lovelace",
		OrderDate:    "2026-08-30",
		OrderItems: []OrderItemPayload{
			{ID: 7, Book: "1f9f4b2a-0c3d-4e5f-8a7b-9c0d1e2f3a4b", Quantity: 2},
		},
	}

	status, err := c.CreateOrder(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "submission must not be retried")
	assert.Equal(t, payload.ID, received.ID)
	assert.Equal(t, 2, received.OrderItems[0].Quantity)
}

func TestCreateOrder_Accepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 100, 0)
	status, err := c.CreateOrder(context.Background(), OrderPayload{ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
}
