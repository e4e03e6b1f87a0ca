package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoActiveOrder is returned when the user has no in-progress order.
	ErrNoActiveOrder = errors.New("no in-progress order")
	// ErrEmptyOrder is returned when submitting an order with no items.
	ErrEmptyOrder = errors.New("order has no items")
	// ErrItemNotFound is returned when a line item does not exist or belongs
	// to another user's order.
	ErrItemNotFound = errors.New("order item not found")
	// ErrBookNotFound is returned when a line item references a missing book.
	ErrBookNotFound = errors.New("book not found")
	// ErrDuplicateBook is returned when an update would collide with an
	// existing line item for the same book.
	ErrDuplicateBook = errors.New("order already contains this book")
	// ErrSubmitFailed is returned when the warehouse did not accept the order.
	ErrSubmitFailed = errors.New("order submission failed")
)

// Status is the store-side order status. It deliberately differs from the
// warehouse enumeration: the store tracks a Sent state the warehouse never
// sees, so the two sets are kept as distinct types.
type Status int16

const (
	StatusWaiting    Status = 1
	StatusInProgress Status = 2
	StatusSent       Status = 3
	StatusDone       Status = 4
	StatusRejected   Status = 5
)

func (s Status) Valid() bool {
	return s >= StatusWaiting && s <= StatusRejected
}

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "Waiting"
	case StatusInProgress:
		return "In progress"
	case StatusSent:
		return "Sent"
	case StatusDone:
		return "Done"
	case StatusRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// Order is a store order. The single order in StatusInProgress per user is
// that user's shopping cart.
type Order struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	OrderDate   *time.Time `json:"order_date,omitempty"`
	ShippedDate *time.Time `json:"shipped_date,omitempty"`
	Status      Status     `json:"status"`
	Comment     string     `json:"comment,omitempty"`
}

// Item is one order line. Title and Price are read-only projections of the
// referenced book.
type Item struct {
	ID       int64           `json:"id"`
	OrderID  string          `json:"order_id"`
	BookID   string          `json:"book_id"`
	Quantity int             `json:"quantity"`
	Title    string          `json:"title,omitempty"`
	Price    decimal.Decimal `json:"price,omitempty"`
}
