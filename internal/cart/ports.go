package cart

import (
	"context"
	"time"
)

// Repository defines the contract for order/cart data storage.
//
// UpsertItem adds a line item with quantity 1, or increments the quantity by
// one when the order already contains the book. Adding the same book twice
// must never produce two rows.
type Repository interface {
	GetOrCreateInProgress(ctx context.Context, userID string) (Order, error)
	InProgressOrder(ctx context.Context, userID string) (Order, error)
	UpsertItem(ctx context.Context, orderID, bookID string) (Item, error)
	ItemsOf(ctx context.Context, orderID string) ([]Item, error)
	UpdateItem(ctx context.Context, userID string, itemID int64, bookID string, quantity int) error
	DeleteItem(ctx context.Context, userID string, itemID int64) error
	MarkSent(ctx context.Context, orderID string, orderDate time.Time) error
	SetStatus(ctx context.Context, orderIDs []string, status Status) (int64, error)
	ListOrders(ctx context.Context, status *Status) ([]Order, error)
}
