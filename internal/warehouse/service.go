package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bookstore/internal/redisx"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Service wraps the repository with the small amount of warehouse business
// logic: order intake idempotency and status validation.
type Service struct {
	repo  Repository
	redis *redis.Client
}

func NewService(repo Repository, rdb *redis.Client) *Service {
	return &Service{repo: repo, redis: rdb}
}

func (s *Service) ListAuthors(ctx context.Context) ([]Author, error) {
	return s.repo.ListAuthors(ctx)
}

func (s *Service) CreateAuthor(ctx context.Context, name string) (Author, error) {
	return s.repo.CreateAuthor(ctx, name)
}

func (s *Service) UpdateAuthor(ctx context.Context, id int64, name string) (Author, error) {
	return s.repo.UpdateAuthor(ctx, id, name)
}

func (s *Service) DeleteAuthor(ctx context.Context, id int64) error {
	return s.repo.DeleteAuthor(ctx, id)
}

func (s *Service) ListGenres(ctx context.Context) ([]Genre, error) {
	return s.repo.ListGenres(ctx)
}

func (s *Service) CreateGenre(ctx context.Context, name string) (Genre, error) {
	return s.repo.CreateGenre(ctx, name)
}

func (s *Service) UpdateGenre(ctx context.Context, id int64, name string) (Genre, error) {
	return s.repo.UpdateGenre(ctx, id, name)
}

func (s *Service) DeleteGenre(ctx context.Context, id int64) error {
	return s.repo.DeleteGenre(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context) ([]Book, error) {
	return s.repo.ListBooks(ctx)
}

func (s *Service) GetBook(ctx context.Context, id string) (Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) CreateBook(ctx context.Context, b *Book, authorIDs, genreIDs []int64) error {
	return s.repo.CreateBook(ctx, b, authorIDs, genreIDs)
}

func (s *Service) UpdateBook(ctx context.Context, id string, title, summary string, price decimal.Decimal, mark float64, authorIDs, genreIDs []int64) (Book, error) {
	return s.repo.UpdateBook(ctx, id, title, summary, price, mark, authorIDs, genreIDs)
}

func (s *Service) DeleteBook(ctx context.Context, id string) error {
	return s.repo.DeleteBook(ctx, id)
}

func (s *Service) ListInstances(ctx context.Context, bookID string) ([]BookInstance, error) {
	return s.repo.ListInstances(ctx, bookID)
}

func (s *Service) CreateInstance(ctx context.Context, bookID string) (BookInstance, error) {
	return s.repo.CreateInstance(ctx, bookID)
}

func (s *Service) UpdateInstance(ctx context.Context, id int64, status InstanceStatus, orderItemID *int64) (BookInstance, error) {
	if !status.Valid() {
		return BookInstance{}, fmt.Errorf("invalid instance status %d", status)
	}
	return s.repo.UpdateInstance(ctx, id, status, orderItemID)
}

func (s *Service) DeleteInstance(ctx context.Context, id int64) error {
	return s.repo.DeleteInstance(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, status *Status) ([]Order, error) {
	return s.repo.ListOrders(ctx, status)
}

func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// CreateOrder accepts a store submission. Intake is idempotent: a resubmitted
// order id loads the stored order instead of failing, so a store that never
// saw the first response can retry until it converges. The short-lived redis
// reservation absorbs rapid duplicates, the primary key catches the rest.
// Returns false when the order already existed.
func (s *Service) CreateOrder(ctx context.Context, o *Order) (bool, error) {
	if s.redis != nil {
		key := fmt.Sprintf(redisx.KeyIdemOrderCreate, o.ID)
		ok, err := s.redis.SetNX(ctx, key, 1, redisx.TTLIdempotency).Result()
		if err != nil {
			// Redis being down must not stop order intake.
			log.Printf("warehouse: idempotency check unavailable: %v", err)
		} else if !ok {
			if existing, err := s.repo.GetOrder(ctx, o.ID); err == nil {
				*o = existing
				return false, nil
			}
			// reservation without a row: the first attempt died before the
			// insert committed, fall through and insert now
		}
	}
	o.Status = StatusWaiting
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			if existing, gerr := s.repo.GetOrder(ctx, o.ID); gerr == nil {
				*o = existing
				return false, nil
			}
		}
		return false, err
	}
	return true, nil
}

func (s *Service) SetOrderStatus(ctx context.Context, orderIDs []string, status Status) (int64, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("invalid status %d", status)
	}
	return s.repo.SetOrderStatus(ctx, orderIDs, status)
}

func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	return s.repo.DeleteOrder(ctx, id)
}
