package bookrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookrental/model"
	"bookrental/util/apperr"
	"bookrental/util/database"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
)

const (
	dialect   = "postgres"
	tableBook = "books"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	List(ctx context.Context, f model.BookFilter) ([]model.Book, error)
	ByID(ctx context.Context, id int64) (model.Book, bool, error)
	// ByIDForUpdate locks the row until the surrounding transaction ends.
	ByIDForUpdate(ctx context.Context, id int64) (model.Book, bool, error)
	// LockForUpdate locks the listed rows in ascending id order and returns
	// the ones that exist. Concurrent callers with overlapping ids therefore
	// queue instead of deadlocking.
	LockForUpdate(ctx context.Context, ids []int64) (map[int64]model.Book, error)
	Update(ctx context.Context, b model.Book) (bool, error)
	// Reserve marks an available book as rented. It returns a CONFLICT error
	// when the book is missing or already rented.
	Reserve(ctx context.Context, id int64) error
	// Release marks a book available regardless of its current state.
	Release(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type repo struct{ q database.Querier }

func New(q database.Querier) Repo { return &repo{q: q} }

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
INSERT INTO books (title, author, genre, available)
VALUES ($1,$2,$3,$4)
RETURNING id`
	if err := r.q.QueryRow(ctx, q, b.Title, b.Author, b.Genre, b.Available).Scan(&b.ID); err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *repo) List(ctx context.Context, f model.BookFilter) ([]model.Book, error) {
	q, args, err := buildListQuery(f)
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := []model.Book{}
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Available); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func buildListQuery(f model.BookFilter) (string, []any, error) {
	var where []exp.Expression
	if f.AvailableOnly {
		where = append(where, goqu.C("available").IsTrue())
	}
	for _, c := range []struct{ col, v string }{{"title", f.Title}, {"author", f.Author}, {"genre", f.Genre}} {
		if c.v != "" {
			where = append(where, goqu.C(c.col).ILike("%"+EscapeLike(c.v)+"%"))
		}
	}
	stmt := goqu.Dialect(dialect).
		From(tableBook).
		Prepared(true).
		Select("id", "title", "author", "genre", "available").
		Where(where...).
		Order(goqu.I("id").Asc())
	q, args, err := stmt.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build book query: %w", err)
	}
	return q, args, nil
}

// EscapeLike escapes LIKE metacharacters so user input matches literally.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *repo) ByID(ctx context.Context, id int64) (model.Book, bool, error) {
	return r.byID(ctx, id, "")
}

func (r *repo) ByIDForUpdate(ctx context.Context, id int64) (model.Book, bool, error) {
	return r.byID(ctx, id, " FOR UPDATE")
}

func (r *repo) byID(ctx context.Context, id int64, suffix string) (model.Book, bool, error) {
	q := `
SELECT id, title, author, genre, available
FROM books
WHERE id = $1` + suffix
	var b model.Book
	err := r.q.QueryRow(ctx, q, id).Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Book{}, false, nil
	}
	if err != nil {
		return model.Book{}, false, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, true, nil
}

func (r *repo) LockForUpdate(ctx context.Context, ids []int64) (map[int64]model.Book, error) {
	out := make(map[int64]model.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	const q = `
SELECT id, title, author, genre, available
FROM books
WHERE id = ANY($1)
ORDER BY id
FOR UPDATE`
	rows, err := r.q.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("lock books: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.Available); err != nil {
			return nil, err
		}
		out[b.ID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock books: %w", err)
	}
	return out, nil
}

func (r *repo) Update(ctx context.Context, b model.Book) (bool, error) {
	const q = `
UPDATE books
SET title = $2, author = $3, genre = $4, available = $5
WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, b.ID, b.Title, b.Author, b.Genre, b.Available)
	if err != nil {
		return false, fmt.Errorf("update book %d: %w", b.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) Reserve(ctx context.Context, id int64) error {
	// Guard: only flip if still available.
	const q = `
UPDATE books
SET available = FALSE
WHERE id = $1
AND available`
	tag, err := r.q.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("reserve book %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.ErrConflict, "Book with ID %d is not available for rental", id)
	}
	return nil
}

func (r *repo) Release(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `UPDATE books SET available = TRUE WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("release book %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete book %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}
