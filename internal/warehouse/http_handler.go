package warehouse

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bookstore/internal/httpx"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// RegisterPublicRoutes mounts every read endpoint plus order intake. GET
// /books and POST /orders/ return raw payloads, not the response envelope:
// their shape is the contract with the store service.
func (h *HTTPHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/books", h.ListBooks)
	r.Post("/orders/", h.CreateOrder)

	r.Get("/authors", h.ListAuthors)
	r.Get("/genres", h.ListGenres)
	r.Get("/books/{id}", h.GetBook)
	r.Get("/books/{id}/instances", h.ListInstances)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{id}", h.GetOrder)
}

// RegisterStaffRoutes mounts the mutating endpoints, which sit behind auth.
func (h *HTTPHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/authors", h.CreateAuthor)
	r.Put("/authors/{id}", h.UpdateAuthor)
	r.Delete("/authors/{id}", h.DeleteAuthor)

	r.Post("/genres", h.CreateGenre)
	r.Put("/genres/{id}", h.UpdateGenre)
	r.Delete("/genres/{id}", h.DeleteGenre)

	r.Post("/books", h.CreateBook)
	r.Put("/books/{id}", h.UpdateBook)
	r.Delete("/books/{id}", h.DeleteBook)

	r.Post("/books/{id}/instances", h.CreateInstance)
	r.Put("/instances/{id}", h.UpdateInstance)
	r.Delete("/instances/{id}", h.DeleteInstance)

	r.Post("/orders/status", h.SetOrderStatus)
	r.Delete("/orders/{id}", h.DeleteOrder)
}

// ListBooks serves the catalog as a plain JSON array for the store's sync
// worker.
func (h *HTTPHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list books", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

type createOrderItemRequest struct {
	ID       int64  `json:"id" validate:"required"`
	Book     string `json:"book" validate:"required,uuid4"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

type createOrderRequest struct {
	ID           string                   `json:"id" validate:"required,uuid4"`
	CustomerMail string                   `json:"customer_mail" validate:"required,email"`
	CustomerName string                   `json:"customer_name" validate:"required"`
	OrderDate    string                   `json:"order_date" validate:"required,datetime=2006-01-02"`
	Comment      string                   `json:"comment" validate:"max=200"`
	OrderItems   []createOrderItemRequest `json:"order_items" validate:"required,min=1,dive"`
}

// CreateOrder is the store's submission endpoint. 201 acknowledges a new
// order, 200 a resubmission of one already on file; both count as accepted
// on the store side.
func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", details)
		return
	}
	orderDate, err := time.Parse("2006-01-02", req.OrderDate)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid order date", nil)
		return
	}

	order := Order{
		ID:           req.ID,
		CustomerMail: req.CustomerMail,
		CustomerName: req.CustomerName,
		OrderDate:    orderDate,
		Comment:      req.Comment,
		Items:        make([]OrderItem, 0, len(req.OrderItems)),
	}
	for _, it := range req.OrderItems {
		bookID := it.Book
		order.Items = append(order.Items, OrderItem{
			ID:       it.ID,
			BookID:   &bookID,
			Quantity: it.Quantity,
		})
	}

	created, err := h.service.CreateOrder(r.Context(), &order)
	switch {
	case errors.Is(err, ErrInUse):
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "order references an unknown book", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create order", nil)
	default:
		w.Header().Set("Content-Type", "application/json")
		if created {
			w.WriteHeader(http.StatusCreated)
		}
		json.NewEncoder(w).Encode(order)
	}
}

type nameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

func (h *HTTPHandler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := h.service.ListAuthors(r.Context())
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list authors", nil)
		return
	}
	httpx.JSONSuccess(w, r, authors, nil)
}

func (h *HTTPHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeName(w, r)
	if !ok {
		return
	}
	author, err := h.service.CreateAuthor(r.Context(), req.Name)
	if errors.Is(err, ErrAlreadyExists) {
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_EXISTS", "author already exists", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create author", nil)
		return
	}
	httpx.JSONSuccessCreated(w, r, author)
}

func (h *HTTPHandler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodeName(w, r)
	if !ok {
		return
	}
	author, err := h.service.UpdateAuthor(r.Context(), id, req.Name)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "author not found", nil)
	case errors.Is(err, ErrAlreadyExists):
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_EXISTS", "author already exists", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to update author", nil)
	default:
		httpx.JSONSuccess(w, r, author, nil)
	}
}

func (h *HTTPHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.service.DeleteAuthor(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "author not found", nil)
	case errors.Is(err, ErrInUse):
		httpx.JSONError(w, r, http.StatusConflict, "IN_USE", "author is referenced by books", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete author", nil)
	default:
		httpx.JSONSuccessNoContent(w)
	}
}

func (h *HTTPHandler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.service.ListGenres(r.Context())
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list genres", nil)
		return
	}
	httpx.JSONSuccess(w, r, genres, nil)
}

func (h *HTTPHandler) CreateGenre(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeName(w, r)
	if !ok {
		return
	}
	genre, err := h.service.CreateGenre(r.Context(), req.Name)
	if errors.Is(err, ErrAlreadyExists) {
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_EXISTS", "genre already exists", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create genre", nil)
		return
	}
	httpx.JSONSuccessCreated(w, r, genre)
}

func (h *HTTPHandler) UpdateGenre(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodeName(w, r)
	if !ok {
		return
	}
	genre, err := h.service.UpdateGenre(r.Context(), id, req.Name)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "genre not found", nil)
	case errors.Is(err, ErrAlreadyExists):
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_EXISTS", "genre already exists", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to update genre", nil)
	default:
		httpx.JSONSuccess(w, r, genre, nil)
	}
}

func (h *HTTPHandler) DeleteGenre(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.service.DeleteGenre(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "genre not found", nil)
	case errors.Is(err, ErrInUse):
		httpx.JSONError(w, r, http.StatusConflict, "IN_USE", "genre is referenced by books", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete genre", nil)
	default:
		httpx.JSONSuccessNoContent(w)
	}
}

type bookRequest struct {
	Title     string          `json:"title" validate:"required,min=1,max=500"`
	Summary   string          `json:"summary" validate:"max=2000"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	Mark      float64         `json:"mark" validate:"required,gte=1,lte=5"`
	AuthorIDs []int64         `json:"author_ids" validate:"required,min=1"`
	GenreIDs  []int64         `json:"genre_ids" validate:"required,min=1"`
}

func (h *HTTPHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.GetBook(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load book", nil)
		return
	}
	httpx.JSONSuccess(w, r, book, nil)
}

func (h *HTTPHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", details)
		return
	}

	book := Book{Title: req.Title, Summary: req.Summary, Price: req.Price, Mark: req.Mark}
	err := h.service.CreateBook(r.Context(), &book, req.AuthorIDs, req.GenreIDs)
	switch {
	case errors.Is(err, ErrAlreadyExists):
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_EXISTS", "book already exists", nil)
	case errors.Is(err, ErrInUse):
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "unknown author or genre id", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create book", nil)
	default:
		httpx.JSONSuccessCreated(w, r, book)
	}
}

func (h *HTTPHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", details)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), chi.URLParam(r, "id"),
		req.Title, req.Summary, req.Price, req.Mark, req.AuthorIDs, req.GenreIDs)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
	case errors.Is(err, ErrInUse):
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "unknown author or genre id", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to update book", nil)
	default:
		httpx.JSONSuccess(w, r, book, nil)
	}
}

func (h *HTTPHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteBook(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete book", nil)
	default:
		httpx.JSONSuccessNoContent(w)
	}
}

func (h *HTTPHandler) ListInstances(w http.ResponseWriter, r *http.Request) {
	instances, err := h.service.ListInstances(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list instances", nil)
		return
	}
	httpx.JSONSuccess(w, r, instances, nil)
}

func (h *HTTPHandler) CreateInstance(w http.ResponseWriter, r *http.Request) {
	instance, err := h.service.CreateInstance(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "book not found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to create instance", nil)
		return
	}
	httpx.JSONSuccessCreated(w, r, instance)
}

type updateInstanceRequest struct {
	Status      int    `json:"status" validate:"required"`
	OrderItemID *int64 `json:"order_item"`
}

func (h *HTTPHandler) UpdateInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", details)
		return
	}

	instance, err := h.service.UpdateInstance(r.Context(), id, InstanceStatus(req.Status), req.OrderItemID)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "instance not found", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "failed to update instance", nil)
	default:
		httpx.JSONSuccess(w, r, instance, nil)
	}
}

func (h *HTTPHandler) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := h.service.DeleteInstance(r.Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "instance not found", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete instance", nil)
	default:
		httpx.JSONSuccessNoContent(w)
	}
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !Status(n).Valid() {
			httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid status filter", nil)
			return
		}
		st := Status(n)
		status = &st
	}

	orders, err := h.service.ListOrders(r.Context(), status)
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list orders", nil)
		return
	}
	httpx.JSONSuccess(w, r, orders, map[string]any{"count": len(orders)})
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load order", nil)
		return
	}
	httpx.JSONSuccess(w, r, order, nil)
}

type setOrderStatusRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1,dive,uuid4"`
	Status int      `json:"status" validate:"required"`
}

func (h *HTTPHandler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req setOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", details)
		return
	}

	updated, err := h.service.SetOrderStatus(r.Context(), req.IDs, Status(req.Status))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid status value", nil)
		return
	}
	httpx.JSONSuccess(w, r, map[string]any{"updated": updated}, nil)
}

func (h *HTTPHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteOrder(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete order", nil)
	default:
		httpx.JSONSuccessNoContent(w)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid id", nil)
		return 0, false
	}
	return id, true
}

func decodeName(w http.ResponseWriter, r *http.Request) (nameRequest, bool) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", nil)
		return req, false
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", details)
		return req, false
	}
	return req, true
}
