package cart

import (
	"context"
	"fmt"
	"net/http"
	"time"

	whclient "bookstore/internal/platform/warehouse"
	"bookstore/internal/user"

	"github.com/shopspring/decimal"
)

// Gateway is the warehouse order submission surface used at checkout.
type Gateway interface {
	CreateOrder(ctx context.Context, o whclient.OrderPayload) (int, error)
}

// Service implements the cart and checkout workflow.
type Service struct {
	repo  Repository
	users user.Repository
	wh    Gateway
}

func NewService(repo Repository, users user.Repository, wh Gateway) *Service {
	return &Service{repo: repo, users: users, wh: wh}
}

// AddToOrder puts one copy of the book into the user's cart, creating the
// in-progress order if needed. Adding a book already in the cart increments
// its quantity.
func (s *Service) AddToOrder(ctx context.Context, userID, bookID string) (Item, error) {
	order, err := s.repo.GetOrCreateInProgress(ctx, userID)
	if err != nil {
		return Item{}, fmt.Errorf("get or create order: %w", err)
	}
	return s.repo.UpsertItem(ctx, order.ID, bookID)
}

// Cart returns the user's in-progress order, its items and the order total.
func (s *Service) Cart(ctx context.Context, userID string) (Order, []Item, decimal.Decimal, error) {
	order, err := s.repo.InProgressOrder(ctx, userID)
	if err != nil {
		return Order{}, nil, decimal.Zero, err
	}
	items, err := s.repo.ItemsOf(ctx, order.ID)
	if err != nil {
		return Order{}, nil, decimal.Zero, err
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return order, items, total, nil
}

// UpdateItem overwrites an existing line item's book and quantity.
func (s *Service) UpdateItem(ctx context.Context, userID string, itemID int64, bookID string, quantity int) error {
	return s.repo.UpdateItem(ctx, userID, itemID, bookID, quantity)
}

// DeleteItem removes a line item unconditionally.
func (s *Service) DeleteItem(ctx context.Context, userID string, itemID int64) error {
	return s.repo.DeleteItem(ctx, userID, itemID)
}

// Submit sends the user's in-progress order to the warehouse. A 201, or a
// 200 when the warehouse already holds this order id from an earlier attempt
// whose response was lost, moves the order to Sent; on anything else local
// state is left untouched and the failure is surfaced to the caller.
func (s *Service) Submit(ctx context.Context, userID string) (Order, error) {
	order, err := s.repo.InProgressOrder(ctx, userID)
	if err != nil {
		return Order{}, err
	}
	items, err := s.repo.ItemsOf(ctx, order.ID)
	if err != nil {
		return Order{}, err
	}
	if len(items) == 0 {
		return Order{}, ErrEmptyOrder
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Order{}, fmt.Errorf("load user: %w", err)
	}

	now := time.Now()
	payload := whclient.OrderPayload{
		ID:           order.ID,
		CustomerMail: u.Email,
		CustomerName: u.FullName(),
		OrderDate:    now.Format("2006-01-02"),
		OrderItems:   make([]whclient.OrderItemPayload, 0, len(items)),
	}
	for _, it := range items {
		payload.OrderItems = append(payload.OrderItems, whclient.OrderItemPayload{
			ID:       it.ID,
			Book:     it.BookID,
			Quantity: it.Quantity,
		})
	}

	status, err := s.wh.CreateOrder(ctx, payload)
	if err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return Order{}, fmt.Errorf("%w: warehouse returned status %d", ErrSubmitFailed, status)
	}

	if err := s.repo.MarkSent(ctx, order.ID, now); err != nil {
		return Order{}, err
	}
	order.Status = StatusSent
	if order.OrderDate == nil {
		order.OrderDate = &now
	}
	return order, nil
}

// SetStatus moves any set of orders to the given status unconditionally,
// replacing the per-status admin batch actions with one parameterized
// operation.
func (s *Service) SetStatus(ctx context.Context, orderIDs []string, status Status) (int64, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("invalid status %d", status)
	}
	return s.repo.SetStatus(ctx, orderIDs, status)
}

// ListOrders returns orders for the admin view, optionally filtered by status.
func (s *Service) ListOrders(ctx context.Context, status *Status) ([]Order, error) {
	return s.repo.ListOrders(ctx, status)
}
