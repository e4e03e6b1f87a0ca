package cart

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: 5 * time.Second}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// GetOrCreateInProgress returns the user's in-progress order, creating one if
// none exists. The partial unique index on orders(user_id) for status 2 makes
// the insert race-safe: a concurrent insert loses the conflict and the
// follow-up select finds the winner's row.
func (r *PostgresRepo) GetOrCreateInProgress(ctx context.Context, userID string) (Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO orders (id, user_id, status)
		VALUES (gen_random_uuid(), $1, $2)
		ON CONFLICT (user_id) WHERE status = 2 DO NOTHING`,
		userID, StatusInProgress,
	)
	if err != nil {
		return Order{}, err
	}
	return r.inProgressOrder(ctx, userID)
}

func (r *PostgresRepo) InProgressOrder(ctx context.Context, userID string) (Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.inProgressOrder(ctx, userID)
}

func (r *PostgresRepo) inProgressOrder(ctx context.Context, userID string) (Order, error) {
	var o Order
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, order_date, shipped_date, status, comment
		FROM orders
		WHERE user_id = $1 AND status = $2`,
		userID, StatusInProgress,
	).Scan(&o.ID, &o.UserID, &o.OrderDate, &o.ShippedDate, &o.Status, &o.Comment)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNoActiveOrder
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// UpsertItem adds one copy of the book to the order. A second add for the
// same book bumps the existing row's quantity instead of creating a
// duplicate line.
func (r *PostgresRepo) UpsertItem(ctx context.Context, orderID, bookID string) (Item, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var it Item
	err := r.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, book_id, quantity)
		VALUES ($1, $2, 1)
		ON CONFLICT (order_id, book_id)
		DO UPDATE SET quantity = order_items.quantity + 1
		RETURNING id, order_id, book_id, quantity`,
		orderID, bookID,
	).Scan(&it.ID, &it.OrderID, &it.BookID, &it.Quantity)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Item{}, ErrBookNotFound
		}
		return Item{}, err
	}
	return it, nil
}

func (r *PostgresRepo) ItemsOf(ctx context.Context, orderID string) ([]Item, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.book_id, oi.quantity, b.title, b.price
		FROM order_items oi
		JOIN books b ON b.id = oi.book_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.Quantity, &it.Title, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateItem rewrites a line item's book and quantity. The join on orders
// scopes the update to the caller's own in-progress order and nothing else.
func (r *PostgresRepo) UpdateItem(ctx context.Context, userID string, itemID int64, bookID string, quantity int) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE order_items oi
		SET book_id = $1, quantity = $2
		FROM orders o
		WHERE oi.id = $3
		  AND o.id = oi.order_id
		  AND o.user_id = $4
		  AND o.status = $5`,
		bookID, quantity, itemID, userID, StatusInProgress,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				return ErrBookNotFound
			case "23505":
				return ErrDuplicateBook
			}
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteItem(ctx context.Context, userID string, itemID int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		DELETE FROM order_items oi
		USING orders o
		WHERE oi.id = $1
		  AND o.id = oi.order_id
		  AND o.user_id = $2
		  AND o.status = $3`,
		itemID, userID, StatusInProgress,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// MarkSent flips an in-progress order to Sent and stamps the order date.
// The status guard makes the transition idempotent under double submits.
func (r *PostgresRepo) MarkSent(ctx context.Context, orderID string, orderDate time.Time) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, order_date = COALESCE(order_date, $2)
		WHERE id = $3 AND status = $4`,
		StatusSent, orderDate, orderID, StatusInProgress,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoActiveOrder
	}
	return nil
}

// SetStatus batch-updates order statuses and reports how many rows changed.
// Moving orders to Done also stamps the shipped date.
func (r *PostgresRepo) SetStatus(ctx context.Context, orderIDs []string, status Status) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `UPDATE orders SET status = $1 WHERE id = ANY($2)`
	if status == StatusDone {
		query = `UPDATE orders SET status = $1, shipped_date = COALESCE(shipped_date, CURRENT_DATE) WHERE id = ANY($2)`
	}
	tag, err := r.db.Exec(ctx, query, status, orderIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepo) ListOrders(ctx context.Context, status *Status) ([]Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, user_id, order_date, shipped_date, status, comment
		FROM orders`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY order_date DESC NULLS LAST, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.OrderDate, &o.ShippedDate, &o.Status, &o.Comment); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
