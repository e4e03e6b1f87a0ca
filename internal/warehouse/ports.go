package warehouse

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository is the warehouse persistence surface.
type Repository interface {
	// Authors.
	ListAuthors(ctx context.Context) ([]Author, error)
	CreateAuthor(ctx context.Context, name string) (Author, error)
	UpdateAuthor(ctx context.Context, id int64, name string) (Author, error)
	DeleteAuthor(ctx context.Context, id int64) error

	// Genres.
	ListGenres(ctx context.Context) ([]Genre, error)
	CreateGenre(ctx context.Context, name string) (Genre, error)
	UpdateGenre(ctx context.Context, id int64, name string) (Genre, error)
	DeleteGenre(ctx context.Context, id int64) error

	// Books.
	ListBooks(ctx context.Context) ([]Book, error)
	GetBook(ctx context.Context, id string) (Book, error)
	CreateBook(ctx context.Context, b *Book, authorIDs, genreIDs []int64) error
	UpdateBook(ctx context.Context, id string, title, summary string, price decimal.Decimal, mark float64, authorIDs, genreIDs []int64) (Book, error)
	DeleteBook(ctx context.Context, id string) error

	// Physical copies.
	ListInstances(ctx context.Context, bookID string) ([]BookInstance, error)
	CreateInstance(ctx context.Context, bookID string) (BookInstance, error)
	UpdateInstance(ctx context.Context, id int64, status InstanceStatus, orderItemID *int64) (BookInstance, error)
	DeleteInstance(ctx context.Context, id int64) error

	// Orders.
	ListOrders(ctx context.Context, status *Status) ([]Order, error)
	GetOrder(ctx context.Context, id string) (Order, error)
	CreateOrder(ctx context.Context, o *Order) error
	SetOrderStatus(ctx context.Context, orderIDs []string, status Status) (int64, error)
	DeleteOrder(ctx context.Context, id string) error
}
