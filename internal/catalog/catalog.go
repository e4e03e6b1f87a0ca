package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a book or genre is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a book with the same ID exists.
	ErrAlreadyExists = errors.New("book already exists")
)

// Author is a catalog author row.
type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Genre is a catalog genre row, deduplicated by name.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Book represents a book title in the store's local catalog copy. IDs are
// assigned by the warehouse and replicated during sync, never generated here.
type Book struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Summary   string          `json:"summary"`
	Price     decimal.Decimal `json:"price"`
	Rating    float64         `json:"rating"` // 1..5
	Authors   []Author        `json:"authors"`
	Genres    []Genre         `json:"genres"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Query defines filters and pagination for listing books.
type Query struct {
	GenreID int64
	Limit   int
	Offset  int
}
