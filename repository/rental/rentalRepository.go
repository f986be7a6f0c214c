package rental

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookrental/model"
	bookrepo "bookrental/repository/book"
	"bookrental/util/apperr"
	"bookrental/util/database"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
)

type Repo interface {
	// Rentals
	Create(ctx context.Context, r *model.Rental) error
	List(ctx context.Context, f model.RentalFilter) ([]model.Rental, error)
	ByID(ctx context.Context, id int64) (model.Rental, bool, error)
	ByIDForUpdate(ctx context.Context, id int64) (model.Rental, bool, error)
	Update(ctx context.Context, r model.Rental) (bool, error)

	// Items
	AddItem(ctx context.Context, rentalID, bookID int64) (model.RentalItem, error)
	ItemsForRental(ctx context.Context, rentalID int64) ([]model.RentalItem, error)
	BooksForRentals(ctx context.Context, rentalIDs []int64) (map[int64][]model.Book, error)
	RentalsForBook(ctx context.Context, bookID int64) ([]model.Rental, error)
	// HeldElsewhere reports whether an open rental other than rentalID
	// contains the book.
	HeldElsewhere(ctx context.Context, bookID, rentalID int64) (bool, error)
}

type repo struct {
	q database.Querier
}

func New(q database.Querier) Repo { return &repo{q: q} }

// Rentals

func (r *repo) Create(ctx context.Context, rt *model.Rental) error {
	const q = `
		INSERT INTO rentals (user_details, rental_date, return_date)
		VALUES ($1, $2, $3)
		RETURNING id`
	if err := r.q.QueryRow(ctx, q, rt.UserDetails, rt.RentalDate.Time, dateArg(rt.ReturnDate)).Scan(&rt.ID); err != nil {
		return fmt.Errorf("insert rental: %w", err)
	}
	return nil
}

func (r *repo) List(ctx context.Context, f model.RentalFilter) ([]model.Rental, error) {
	q, args, err := buildListQuery(f)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, q, args...)
}

func buildListQuery(f model.RentalFilter) (string, []any, error) {
	var where []exp.Expression
	if f.User != "" {
		where = append(where, goqu.C("user_details").ILike("%"+bookrepo.EscapeLike(f.User)+"%"))
	}
	if f.From != nil {
		where = append(where, goqu.C("rental_date").Gte(f.From.Time))
	}
	if f.To != nil {
		where = append(where, goqu.C("rental_date").Lte(f.To.Time))
	}
	if f.OpenOnly {
		where = append(where, goqu.C("return_date").IsNull())
	}
	stmt := goqu.Dialect("postgres").
		From("rentals").
		Prepared(true).
		Select("id", "user_details", "rental_date", "return_date").
		Where(where...).
		Order(goqu.I("id").Asc())
	q, args, err := stmt.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build rental query: %w", err)
	}
	return q, args, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (model.Rental, bool, error) {
	return r.byID(ctx, id, "")
}

func (r *repo) ByIDForUpdate(ctx context.Context, id int64) (model.Rental, bool, error) {
	return r.byID(ctx, id, " FOR UPDATE")
}

func (r *repo) byID(ctx context.Context, id int64, suffix string) (model.Rental, bool, error) {
	q := `
		SELECT id, user_details, rental_date, return_date
		FROM rentals
		WHERE id = $1` + suffix
	rt, err := scanRental(r.q.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Rental{}, false, nil
	}
	if err != nil {
		return model.Rental{}, false, fmt.Errorf("get rental %d: %w", id, err)
	}
	return rt, true, nil
}

func (r *repo) Update(ctx context.Context, rt model.Rental) (bool, error) {
	const q = `
		UPDATE rentals
		SET user_details = $2,
			rental_date = $3,
			return_date = $4
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, rt.ID, rt.UserDetails, rt.RentalDate.Time, dateArg(rt.ReturnDate))
	if err != nil {
		return false, fmt.Errorf("update rental %d: %w", rt.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Items

func (r *repo) AddItem(ctx context.Context, rentalID, bookID int64) (model.RentalItem, error) {
	const q = `
		INSERT INTO rental_items (rental_id, book_id)
		VALUES ($1, $2)
		RETURNING id`
	it := model.RentalItem{RentalID: rentalID, BookID: bookID}
	err := r.q.QueryRow(ctx, q, rentalID, bookID).Scan(&it.ID)
	switch {
	case err == nil:
	case database.IsForeignKeyViolation(err):
		return model.RentalItem{}, apperr.Newf(apperr.ErrNotFound, "rental %d or book %d not found", rentalID, bookID)
	case database.IsUniqueViolation(err):
		return model.RentalItem{}, apperr.Newf(apperr.ErrConflict, "Book with ID %d is not available for rental", bookID)
	default:
		return model.RentalItem{}, fmt.Errorf("insert rental item (%d,%d): %w", rentalID, bookID, err)
	}
	return it, nil
}

func (r *repo) ItemsForRental(ctx context.Context, rentalID int64) ([]model.RentalItem, error) {
	const q = `
		SELECT id, rental_id, book_id
		FROM rental_items
		WHERE rental_id = $1
		ORDER BY id`
	rows, err := r.q.Query(ctx, q, rentalID)
	if err != nil {
		return nil, fmt.Errorf("list rental items: %w", err)
	}
	defer rows.Close()

	out := []model.RentalItem{}
	for rows.Next() {
		var it model.RentalItem
		if err := rows.Scan(&it.ID, &it.RentalID, &it.BookID); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *repo) BooksForRentals(ctx context.Context, rentalIDs []int64) (map[int64][]model.Book, error) {
	out := make(map[int64][]model.Book, len(rentalIDs))
	if len(rentalIDs) == 0 {
		return out, nil
	}
	const q = `
		SELECT ri.rental_id, b.id, b.title, b.author, b.genre, b.available
		FROM rental_items ri
		JOIN books b ON b.id = ri.book_id
		WHERE ri.rental_id = ANY($1)
		ORDER BY ri.rental_id, ri.id`
	rows, err := r.q.Query(ctx, q, rentalIDs)
	if err != nil {
		return nil, fmt.Errorf("list rental books: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rentalID int64
		var b model.Book
		if err := rows.Scan(&rentalID, &b.ID, &b.Title, &b.Author, &b.Genre, &b.Available); err != nil {
			return nil, err
		}
		out[rentalID] = append(out[rentalID], b)
	}
	return out, rows.Err()
}

func (r *repo) RentalsForBook(ctx context.Context, bookID int64) ([]model.Rental, error) {
	const q = `
		SELECT r.id, r.user_details, r.rental_date, r.return_date
		FROM rentals r
		JOIN rental_items ri ON ri.rental_id = r.id
		WHERE ri.book_id = $1
		ORDER BY r.id`
	return r.query(ctx, q, bookID)
}

func (r *repo) HeldElsewhere(ctx context.Context, bookID, rentalID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM rental_items ri
			JOIN rentals r ON r.id = ri.rental_id
			WHERE ri.book_id = $1
				AND ri.rental_id <> $2
				AND r.return_date IS NULL
		)`
	var held bool
	if err := r.q.QueryRow(ctx, q, bookID, rentalID).Scan(&held); err != nil {
		return false, fmt.Errorf("check open rentals for book %d: %w", bookID, err)
	}
	return held, nil
}

func (r *repo) query(ctx context.Context, q string, args ...any) ([]model.Rental, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list rentals: %w", err)
	}
	defer rows.Close()

	out := []model.Rental{}
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func scanRental(row pgx.Row) (model.Rental, error) {
	var (
		rt       model.Rental
		rentedOn time.Time
		returned *time.Time
	)
	if err := row.Scan(&rt.ID, &rt.UserDetails, &rentedOn, &returned); err != nil {
		return model.Rental{}, err
	}
	rt.RentalDate = model.DateOf(rentedOn)
	if returned != nil {
		d := model.DateOf(*returned)
		rt.ReturnDate = &d
	}
	return rt, nil
}

func dateArg(d *model.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}
