package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bookstore/internal/httpx"
	"bookstore/internal/redisx"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// DefaultPageSize matches the store listing of 10 books per page.
const DefaultPageSize = 10

type HTTPHandler struct {
	service *Service
	cache   *redis.Client // optional
}

func NewHTTPHandler(service *Service, cache *redis.Client) *HTTPHandler {
	return &HTTPHandler{service: service, cache: cache}
}

// List handles GET /books with page and genre query params.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	genreID, _ := strconv.ParseInt(query.Get("genre"), 10, 64)

	cacheKey := fmt.Sprintf(redisx.KeyCatalogPage, page, genreID)
	if h.cache != nil {
		if s, err := h.cache.Get(r.Context(), cacheKey).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(s))
			return
		}
	}

	q := Query{
		GenreID: genreID,
		Limit:   DefaultPageSize,
		Offset:  (page - 1) * DefaultPageSize,
	}
	books, total, err := h.service.List(r.Context(), q)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if books == nil {
		books = []Book{}
	}

	resp := httpx.SuccessResponse{
		Success: true,
		Data:    books,
		Meta: map[string]any{
			"page":        page,
			"page_size":   DefaultPageSize,
			"total":       total,
			"total_pages": (total + DefaultPageSize - 1) / DefaultPageSize,
		},
	}
	body, err := json.Marshal(resp)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cacheKey, body, redisx.TTLCatalogPage).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// GetByID handles GET /books/{id}.
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	book, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, book, nil)
}

// ListGenres handles GET /genres.
func (h *HTTPHandler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.service.ListGenres(r.Context())
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if genres == nil {
		genres = []Genre{}
	}
	httpx.JSONSuccess(w, r, genres, nil)
}
