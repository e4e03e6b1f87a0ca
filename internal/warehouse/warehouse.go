package warehouse

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInUse         = errors.New("resource in use")
)

// Status is the warehouse-side order lifecycle. It is narrower than the
// store's: the warehouse does not track shipment separately from completion.
type Status int16

const (
	StatusWaiting    Status = 1
	StatusInProgress Status = 2
	StatusDone       Status = 3
	StatusRejected   Status = 4
)

func (s Status) Valid() bool {
	return s >= StatusWaiting && s <= StatusRejected
}

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusInProgress:
		return "in progress"
	case StatusDone:
		return "done"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// InstanceStatus tracks one physical copy of a book.
type InstanceStatus int16

const (
	InstanceInStock  InstanceStatus = 1
	InstanceReserved InstanceStatus = 2
	InstanceSold     InstanceStatus = 3
)

func (s InstanceStatus) Valid() bool {
	return s >= InstanceInStock && s <= InstanceSold
}

type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Book carries the singular "author" and "genre" JSON keys. The store's
// catalog sync consumes this shape as-is, so the tags are part of the wire
// contract between the two services.
type Book struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Authors   []Author        `json:"author"`
	Summary   string          `json:"summary"`
	Genres    []Genre         `json:"genre"`
	Price     decimal.Decimal `json:"price"`
	Mark      float64         `json:"mark"`
	Instances []BookInstance  `json:"books,omitempty"`
}

// BookInstance is a single physical copy. OrderItemID is set while the copy
// is reserved or sold for a specific order line.
type BookInstance struct {
	ID          int64          `json:"id"`
	BookID      string         `json:"book"`
	OrderItemID *int64         `json:"order_item,omitempty"`
	Status      InstanceStatus `json:"status"`
}

// Order is a store submission as the warehouse sees it. Customer identity is
// denormalized into the row because warehouse staff have no access to the
// store's user accounts.
type Order struct {
	ID           string      `json:"id"`
	CustomerMail string      `json:"customer_mail"`
	CustomerName string      `json:"customer_name"`
	OrderDate    time.Time   `json:"order_date"`
	ShippedDate  *time.Time  `json:"shipped_date,omitempty"`
	Status       Status      `json:"status"`
	Comment      string      `json:"comment,omitempty"`
	Items        []OrderItem `json:"order_items,omitempty"`
}

// OrderItem keeps a nullable book reference: deleting a book from the
// catalog must not erase the history of orders that contained it.
type OrderItem struct {
	ID       int64   `json:"id"`
	OrderID  string  `json:"order"`
	BookID   *string `json:"book"`
	Quantity int     `json:"quantity"`
}
