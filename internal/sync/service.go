// Package sync replicates the warehouse catalog into the store database.
// Replication is create-only: books already known to the store are never
// updated or removed, the warehouse stays the source of truth for new stock.
package sync

import (
	"context"
	"fmt"
	"log"

	"bookstore/internal/catalog"
	whclient "bookstore/internal/platform/warehouse"
)

// Lister fetches the warehouse catalog.
type Lister interface {
	ListBooks(ctx context.Context) ([]whclient.BookRecord, error)
}

// Catalog is the slice of the store catalog repository the sync needs.
type Catalog interface {
	ExistsByID(ctx context.Context, id string) (bool, error)
	CreateWithRelations(ctx context.Context, b *catalog.Book, authorNames, genreNames []string) error
}

type Service struct {
	client Lister
	repo   Catalog
}

func NewService(client Lister, repo Catalog) *Service {
	return &Service{client: client, repo: repo}
}

// Run performs one sync pass. A fetch failure aborts the pass so the task is
// redelivered; a failure on an individual book is logged and skipped, the
// next pass picks it up again.
func (s *Service) Run(ctx context.Context) error {
	records, err := s.client.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("fetch warehouse catalog: %w", err)
	}

	var created, skipped, failed int
	for _, rec := range records {
		exists, err := s.repo.ExistsByID(ctx, rec.ID)
		if err != nil {
			log.Printf("sync: check book %s: %v", rec.ID, err)
			failed++
			continue
		}
		if exists {
			skipped++
			continue
		}

		book := catalog.Book{
			ID:      rec.ID,
			Title:   rec.Title,
			Summary: rec.Summary,
			Price:   rec.Price,
			Rating:  rec.Mark,
		}
		authorNames := make([]string, 0, len(rec.Authors))
		for _, a := range rec.Authors {
			authorNames = append(authorNames, a.Name)
		}
		genreNames := make([]string, 0, len(rec.Genres))
		for _, g := range rec.Genres {
			genreNames = append(genreNames, g.Name)
		}

		if err := s.repo.CreateWithRelations(ctx, &book, authorNames, genreNames); err != nil {
			log.Printf("sync: create book %s (%s): %v", rec.ID, rec.Title, err)
			failed++
			continue
		}
		created++
	}

	log.Printf("sync: pass complete total=%d created=%d skipped=%d failed=%d",
		len(records), created, skipped, failed)
	return nil
}
