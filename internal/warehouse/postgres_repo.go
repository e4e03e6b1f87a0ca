package warehouse

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
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

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrAlreadyExists
		case "23503":
			return ErrInUse
		}
	}
	return err
}

func (r *PostgresRepo) ListAuthors(ctx context.Context) ([]Author, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, name FROM authors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	authors := make([]Author, 0)
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

func (r *PostgresRepo) CreateAuthor(ctx context.Context, name string) (Author, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var a Author
	err := r.db.QueryRow(ctx,
		`INSERT INTO authors (name) VALUES ($1) RETURNING id, name`, name,
	).Scan(&a.ID, &a.Name)
	if err != nil {
		return Author{}, mapPgError(err)
	}
	return a, nil
}

func (r *PostgresRepo) UpdateAuthor(ctx context.Context, id int64, name string) (Author, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var a Author
	err := r.db.QueryRow(ctx,
		`UPDATE authors SET name = $1 WHERE id = $2 RETURNING id, name`, name, id,
	).Scan(&a.ID, &a.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Author{}, ErrNotFound
	}
	if err != nil {
		return Author{}, mapPgError(err)
	}
	return a, nil
}

func (r *PostgresRepo) DeleteAuthor(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListGenres(ctx context.Context) ([]Genre, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, name FROM genres ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	genres := make([]Genre, 0)
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (r *PostgresRepo) CreateGenre(ctx context.Context, name string) (Genre, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var g Genre
	err := r.db.QueryRow(ctx,
		`INSERT INTO genres (name) VALUES ($1) RETURNING id, name`, name,
	).Scan(&g.ID, &g.Name)
	if err != nil {
		return Genre{}, mapPgError(err)
	}
	return g, nil
}

func (r *PostgresRepo) UpdateGenre(ctx context.Context, id int64, name string) (Genre, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var g Genre
	err := r.db.QueryRow(ctx,
		`UPDATE genres SET name = $1 WHERE id = $2 RETURNING id, name`, name, id,
	).Scan(&g.ID, &g.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Genre{}, ErrNotFound
	}
	if err != nil {
		return Genre{}, mapPgError(err)
	}
	return g, nil
}

func (r *PostgresRepo) DeleteGenre(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM genres WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBooks returns the whole catalog with authors, genres and physical
// copies attached. The catalog is small enough that three queries and an
// in-memory join beat anything fancier.
func (r *PostgresRepo) ListBooks(ctx context.Context) ([]Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, title, summary, price, mark
		FROM books
		ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]Book, 0)
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Summary, &b.Price, &b.Mark); err != nil {
			return nil, err
		}
		b.Authors = []Author{}
		b.Genres = []Genre{}
		b.Instances = []BookInstance{}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachRelations(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *PostgresRepo) GetBook(ctx context.Context, id string) (Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var b Book
	err := r.db.QueryRow(ctx, `
		SELECT id, title, summary, price, mark
		FROM books
		WHERE id = $1`, id,
	).Scan(&b.ID, &b.Title, &b.Summary, &b.Price, &b.Mark)
	if errors.Is(err, pgx.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	if err != nil {
		return Book{}, err
	}
	b.Authors = []Author{}
	b.Genres = []Genre{}
	b.Instances = []BookInstance{}
	books := []Book{b}
	if err := r.attachRelations(ctx, books); err != nil {
		return Book{}, err
	}
	return books[0], nil
}

func (r *PostgresRepo) attachRelations(ctx context.Context, books []Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]string, 0, len(books))
	byID := make(map[string]*Book, len(books))
	for i := range books {
		ids = append(ids, books[i].ID)
		byID[books[i].ID] = &books[i]
	}

	rows, err := r.db.Query(ctx, `
		SELECT ba.book_id, a.id, a.name
		FROM book_authors ba
		JOIN authors a ON a.id = ba.author_id
		WHERE ba.book_id = ANY($1)
		ORDER BY a.name`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var bookID string
		var a Author
		if err := rows.Scan(&bookID, &a.ID, &a.Name); err != nil {
			rows.Close()
			return err
		}
		byID[bookID].Authors = append(byID[bookID].Authors, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(ctx, `
		SELECT bg.book_id, g.id, g.name
		FROM book_genres bg
		JOIN genres g ON g.id = bg.genre_id
		WHERE bg.book_id = ANY($1)
		ORDER BY g.name`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var bookID string
		var g Genre
		if err := rows.Scan(&bookID, &g.ID, &g.Name); err != nil {
			rows.Close()
			return err
		}
		byID[bookID].Genres = append(byID[bookID].Genres, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(ctx, `
		SELECT id, book_id, order_item_id, status
		FROM book_instances
		WHERE book_id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var bi BookInstance
		if err := rows.Scan(&bi.ID, &bi.BookID, &bi.OrderItemID, &bi.Status); err != nil {
			rows.Close()
			return err
		}
		byID[bi.BookID].Instances = append(byID[bi.BookID].Instances, bi)
	}
	rows.Close()
	return rows.Err()
}

func (r *PostgresRepo) CreateBook(ctx context.Context, b *Book, authorIDs, genreIDs []int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO books (id, title, summary, price, mark)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5)
		RETURNING id`,
		b.ID, b.Title, b.Summary, b.Price, b.Mark,
	).Scan(&b.ID)
	if err != nil {
		return mapPgError(err)
	}
	if err := linkBook(ctx, tx, `INSERT INTO book_authors (book_id, author_id) VALUES ($1, $2)`, b.ID, authorIDs); err != nil {
		return mapPgError(err)
	}
	if err := linkBook(ctx, tx, `INSERT INTO book_genres (book_id, genre_id) VALUES ($1, $2)`, b.ID, genreIDs); err != nil {
		return mapPgError(err)
	}
	return tx.Commit(ctx)
}

func linkBook(ctx context.Context, tx pgx.Tx, query, bookID string, ids []int64) error {
	for _, id := range ids {
		if _, err := tx.Exec(ctx, query, bookID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepo) UpdateBook(ctx context.Context, id string, title, summary string, price decimal.Decimal, mark float64, authorIDs, genreIDs []int64) (Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Book{}, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE books SET title = $1, summary = $2, price = $3, mark = $4
		WHERE id = $5`,
		title, summary, price, mark, id)
	if err != nil {
		return Book{}, mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return Book{}, ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM book_authors WHERE book_id = $1`, id); err != nil {
		return Book{}, err
	}
	if err := linkBook(ctx, tx, `INSERT INTO book_authors (book_id, author_id) VALUES ($1, $2)`, id, authorIDs); err != nil {
		return Book{}, mapPgError(err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM book_genres WHERE book_id = $1`, id); err != nil {
		return Book{}, err
	}
	if err := linkBook(ctx, tx, `INSERT INTO book_genres (book_id, genre_id) VALUES ($1, $2)`, id, genreIDs); err != nil {
		return Book{}, mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Book{}, err
	}
	return r.GetBook(ctx, id)
}

func (r *PostgresRepo) DeleteBook(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListInstances(ctx context.Context, bookID string) ([]BookInstance, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, book_id, order_item_id, status
		FROM book_instances
		WHERE book_id = $1
		ORDER BY id`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instances := make([]BookInstance, 0)
	for rows.Next() {
		var bi BookInstance
		if err := rows.Scan(&bi.ID, &bi.BookID, &bi.OrderItemID, &bi.Status); err != nil {
			return nil, err
		}
		instances = append(instances, bi)
	}
	return instances, rows.Err()
}

func (r *PostgresRepo) CreateInstance(ctx context.Context, bookID string) (BookInstance, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var bi BookInstance
	err := r.db.QueryRow(ctx, `
		INSERT INTO book_instances (book_id, status)
		VALUES ($1, $2)
		RETURNING id, book_id, order_item_id, status`,
		bookID, InstanceInStock,
	).Scan(&bi.ID, &bi.BookID, &bi.OrderItemID, &bi.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return BookInstance{}, ErrNotFound
		}
		return BookInstance{}, err
	}
	return bi, nil
}

func (r *PostgresRepo) UpdateInstance(ctx context.Context, id int64, status InstanceStatus, orderItemID *int64) (BookInstance, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var bi BookInstance
	err := r.db.QueryRow(ctx, `
		UPDATE book_instances SET status = $1, order_item_id = $2
		WHERE id = $3
		RETURNING id, book_id, order_item_id, status`,
		status, orderItemID, id,
	).Scan(&bi.ID, &bi.BookID, &bi.OrderItemID, &bi.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return BookInstance{}, ErrNotFound
	}
	if err != nil {
		return BookInstance{}, mapPgError(err)
	}
	return bi, nil
}

func (r *PostgresRepo) DeleteInstance(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM book_instances WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListOrders(ctx context.Context, status *Status) ([]Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, customer_mail, customer_name, order_date, shipped_date, status, comment
		FROM orders`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY order_date DESC, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerMail, &o.CustomerName, &o.OrderDate, &o.ShippedDate, &o.Status, &o.Comment); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PostgresRepo) GetOrder(ctx context.Context, id string) (Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var o Order
	err := r.db.QueryRow(ctx, `
		SELECT id, customer_mail, customer_name, order_date, shipped_date, status, comment
		FROM orders
		WHERE id = $1`, id,
	).Scan(&o.ID, &o.CustomerMail, &o.CustomerName, &o.OrderDate, &o.ShippedDate, &o.Status, &o.Comment)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	orders := []Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return Order{}, err
	}
	return orders[0], nil
}

func (r *PostgresRepo) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	byID := make(map[string]*Order, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		byID[orders[i].ID] = &orders[i]
		orders[i].Items = []OrderItem{}
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, book_id, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.Quantity); err != nil {
			return err
		}
		byID[it.OrderID].Items = append(byID[it.OrderID].Items, it)
	}
	return rows.Err()
}

// CreateOrder inserts the order and all of its items in one transaction.
// Item ids come from the submitting store so that both sides can refer to
// the same line by the same id.
func (r *PostgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, customer_mail, customer_name, order_date, status, comment)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.CustomerMail, o.CustomerName, o.OrderDate, o.Status, o.Comment)
	if err != nil {
		return mapPgError(err)
	}
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, book_id, quantity)
			VALUES ($1, $2, $3, $4)`,
			it.ID, o.ID, it.BookID, it.Quantity)
		if err != nil {
			return mapPgError(err)
		}
	}
	return tx.Commit(ctx)
}

// SetOrderStatus also stamps shipped_date the first time an order reaches
// Done.
func (r *PostgresRepo) SetOrderStatus(ctx context.Context, orderIDs []string, status Status) (int64, error) {
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

func (r *PostgresRepo) DeleteOrder(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
