package catalog

import (
	"context"
)

// Repository defines the contract for catalog data storage.
type Repository interface {
	List(ctx context.Context, q Query) ([]Book, int, error)
	GetByID(ctx context.Context, id string) (Book, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	ListGenres(ctx context.Context) ([]Genre, error)
	// CreateWithRelations inserts the book and attaches all of its genres and
	// authors in one transaction, creating genre and author rows by name as
	// needed.
	CreateWithRelations(ctx context.Context, b *Book, authorNames, genreNames []string) error
}
