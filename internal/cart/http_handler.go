package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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

func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/order", h.Cart)
	r.Post("/order/items/{bookID}", h.AddItem)
	r.Patch("/order/items/{itemID}", h.UpdateItem)
	r.Delete("/order/items/{itemID}", h.DeleteItem)
	r.Post("/order/send", h.Submit)
}

// RegisterAdminRoutes mounts the order management endpoints. The caller is
// expected to guard them with the admin role middleware.
func (h *HTTPHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/orders", h.ListOrders)
	r.Post("/orders/status", h.SetStatus)
}

type cartResponse struct {
	Order Order           `json:"order"`
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (h *HTTPHandler) Cart(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	order, items, total, err := h.service.Cart(r.Context(), userID)
	if errors.Is(err, ErrNoActiveOrder) {
		httpx.JSONSuccess(w, r, cartResponse{Items: []Item{}, Total: decimal.Zero}, nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load order", nil)
		return
	}
	httpx.JSONSuccess(w, r, cartResponse{Order: order, Items: items, Total: total}, nil)
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	bookID := chi.URLParam(r, "bookID")

	item, err := h.service.AddToOrder(r.Context(), userID, bookID)
	if errors.Is(err, ErrBookNotFound) {
		httpx.JSONError(w, r, http.StatusNotFound, "BOOK_NOT_FOUND", "book does not exist", nil)
		return
	}
	if err != nil {
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to add book to order", nil)
		return
	}
	httpx.JSONSuccessCreated(w, r, item)
}

type updateItemRequest struct {
	BookID   string `json:"book_id" validate:"required,uuid4"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid item id", nil)
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", details)
		return
	}

	err = h.service.UpdateItem(r.Context(), userID, itemID, req.BookID, req.Quantity)
	switch {
	case errors.Is(err, ErrItemNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "ITEM_NOT_FOUND", "order item not found", nil)
	case errors.Is(err, ErrBookNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "BOOK_NOT_FOUND", "book does not exist", nil)
	case errors.Is(err, ErrDuplicateBook):
		httpx.JSONError(w, r, http.StatusConflict, "DUPLICATE_BOOK", "book already in order", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to update order item", nil)
	default:
		httpx.JSONSuccessNoContent(w)
	}
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid item id", nil)
		return
	}

	err = h.service.DeleteItem(r.Context(), userID, itemID)
	switch {
	case errors.Is(err, ErrItemNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "ITEM_NOT_FOUND", "order item not found", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to delete order item", nil)
	default:
		httpx.JSONSuccessNoContent(w)
	}
}

func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	order, err := h.service.Submit(r.Context(), userID)
	switch {
	case errors.Is(err, ErrNoActiveOrder):
		httpx.JSONError(w, r, http.StatusConflict, "NO_ACTIVE_ORDER", "no order in progress", nil)
	case errors.Is(err, ErrEmptyOrder):
		httpx.JSONError(w, r, http.StatusConflict, "EMPTY_ORDER", "order has no items", nil)
	case errors.Is(err, ErrSubmitFailed):
		httpx.JSONError(w, r, http.StatusBadGateway, "WAREHOUSE_ERROR", "warehouse rejected the order", nil)
	case err != nil:
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to submit order", nil)
	default:
		httpx.JSONSuccess(w, r, order, nil)
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

type setStatusRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1,dive,uuid4"`
	Status int      `json:"status" validate:"required"`
}

func (h *HTTPHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", details)
		return
	}

	updated, err := h.service.SetStatus(r.Context(), req.IDs, Status(req.Status))
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "invalid status value", nil)
		return
	}
	httpx.JSONSuccess(w, r, map[string]any{"updated": updated}, nil)
}
