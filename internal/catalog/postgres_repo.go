package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	where := ""
	args := []any{}
	if q.GenreID != 0 {
		where = "WHERE EXISTS (SELECT 1 FROM book_genres bg WHERE bg.book_id = b.id AND bg.genre_id = $1)"
		args = append(args, q.GenreID)
	}

	countSQL := "SELECT COUNT(*) FROM books b " + where
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf(`
		SELECT b.id, b.title, b.summary, b.price, b.rating, b.created_at, b.updated_at
		FROM books b
		%s
		ORDER BY b.title
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset)

	timeoutCtx2, cancel2 := r.withTimeout(ctx)
	defer cancel2()
	rows, err := r.db.Query(timeoutCtx2, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var books []Book
	var ids []string
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Summary, &b.Price, &b.Rating, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		books = append(books, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachRelations(ctx, books, ids); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	const query = `
		SELECT id, title, summary, price, rating, created_at, updated_at
		FROM books
		WHERE id = $1
		LIMIT 1
	`
	var b Book
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(
		&b.ID, &b.Title, &b.Summary, &b.Price, &b.Rating, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}

	books := []Book{b}
	if err := r.attachRelations(ctx, books, []string{id}); err != nil {
		return Book{}, err
	}
	return books[0], nil
}

func (r *PostgresRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) ListGenres(ctx context.Context) ([]Genre, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, `SELECT id, name FROM genres ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var genres []Genre
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (r *PostgresRepo) CreateWithRelations(ctx context.Context, b *Book, authorNames, genreNames []string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(timeoutCtx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(timeoutCtx) }()

	const insertBook = `
		INSERT INTO books (id, title, summary, price, rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(timeoutCtx, insertBook, b.ID, b.Title, b.Summary, b.Price, b.Rating).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}

	b.Genres = b.Genres[:0]
	for _, name := range genreNames {
		var g Genre
		g.Name = name
		// find-or-create by name; the no-op update makes RETURNING work for
		// existing rows too
		err := tx.QueryRow(timeoutCtx, `
			INSERT INTO genres (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name).Scan(&g.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(timeoutCtx,
			`INSERT INTO book_genres (book_id, genre_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			b.ID, g.ID); err != nil {
			return err
		}
		b.Genres = append(b.Genres, g)
	}

	b.Authors = b.Authors[:0]
	for _, name := range authorNames {
		var a Author
		a.Name = name
		err := tx.QueryRow(timeoutCtx, `
			INSERT INTO authors (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name).Scan(&a.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(timeoutCtx,
			`INSERT INTO book_authors (book_id, author_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			b.ID, a.ID); err != nil {
			return err
		}
		b.Authors = append(b.Authors, a)
	}

	return tx.Commit(timeoutCtx)
}

// attachRelations loads authors and genres for the given book ids and fills
// them into books (matched by position through an id index).
func (r *PostgresRepo) attachRelations(ctx context.Context, books []Book, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	byID := make(map[string]*Book, len(books))
	for i := range books {
		byID[books[i].ID] = &books[i]
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, `
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
		if b, ok := byID[bookID]; ok {
			b.Authors = append(b.Authors, a)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(timeoutCtx, `
		SELECT bg.book_id, g.id, g.name
		FROM book_genres bg
		JOIN genres g ON g.id = bg.genre_id
		WHERE bg.book_id = ANY($1)
		ORDER BY g.name`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var bookID string
		var g Genre
		if err := rows.Scan(&bookID, &g.ID, &g.Name); err != nil {
			return err
		}
		if b, ok := byID[bookID]; ok {
			b.Genres = append(b.Genres, g)
		}
	}
	return rows.Err()
}
