package rental

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookrental/model"
	"bookrental/repository"
	"bookrental/util/apperr"
	"bookrental/util/lock"
)

// Mode selects how Create handles a failing book in the middle of a request.
type Mode string

const (
	// ModeAtomic validates every book before writing anything.
	ModeAtomic Mode = "atomic"
	// ModeSequential writes the rental first and each book as it is checked;
	// a failure keeps the rows written before it.
	ModeSequential Mode = "sequential"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAtomic:
		return ModeAtomic, nil
	case ModeSequential:
		return ModeSequential, nil
	}
	return "", fmt.Errorf("unknown rental mode %q", s)
}

type CreateInput struct {
	UserDetails string
	RentalDate  *model.Date // today when nil
	ReturnDate  *model.Date
	BookIDs     []int64
}

type Service interface {
	// Create rents every listed book under one new rental.
	Create(ctx context.Context, in CreateInput) (*model.RentalDetail, error)

	List(ctx context.Context, f model.RentalFilter) ([]model.RentalDetail, error)
	Detail(ctx context.Context, id int64) (*model.RentalDetail, error)

	// Update overwrites rental fields only; books keep their availability.
	Update(ctx context.Context, id int64, p model.RentalPatch) (*model.RentalDetail, error)

	// Return frees the rental's books and stamps today's return date. Books
	// already rented again under another open rental stay unavailable.
	Return(ctx context.Context, id int64) (*model.RentalDetail, error)

	// ForBook lists the rentals a book has been part of.
	ForBook(ctx context.Context, bookID int64) ([]model.RentalDetail, error)
}

type Option func(*service)

func WithLocker(l lock.Locker) Option { return func(s *service) { s.locker = l } }

func WithClock(now func() time.Time) Option { return func(s *service) { s.now = now } }

func WithMode(m Mode) Option { return func(s *service) { s.mode = m } }

func WithLogger(l *slog.Logger) Option { return func(s *service) { s.log = l } }

// WithLockTimeout bounds how long Create and Return wait for book locks.
func WithLockTimeout(d time.Duration) Option { return func(s *service) { s.lockTimeout = d } }

// ----- Service implementation -----

type service struct {
	st          repository.Store
	locker      lock.Locker
	now         func() time.Time
	mode        Mode
	log         *slog.Logger
	lockTimeout time.Duration
}

func New(st repository.Store, opts ...Option) Service {
	s := &service{
		st:          st,
		locker:      lock.Noop{},
		now:         time.Now,
		mode:        ModeAtomic,
		log:         slog.Default(),
		lockTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) today() model.Date { return model.DateOf(s.now()) }

func (s *service) Create(ctx context.Context, in CreateInput) (*model.RentalDetail, error) {
	if len(in.BookIDs) == 0 {
		return nil, apperr.Validation("At least one book must be selected for rental")
	}
	for _, id := range in.BookIDs {
		if id <= 0 {
			return nil, apperr.Newf(apperr.ErrValidation, "invalid book id %d", id)
		}
	}

	rt := model.Rental{
		UserDetails: in.UserDetails,
		RentalDate:  s.today(),
		ReturnDate:  in.ReturnDate,
	}
	if in.RentalDate != nil {
		rt.RentalDate = *in.RentalDate
	}

	release, err := s.lockBooks(ctx, in.BookIDs)
	if err != nil {
		return nil, err
	}
	defer release()

	if s.mode == ModeSequential {
		err = s.createSequential(ctx, &rt, in.BookIDs)
	} else {
		err = s.createAtomic(ctx, &rt, in.BookIDs)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("rental created", "rental_id", rt.ID, "books", len(in.BookIDs), "mode", string(s.mode))
	return s.Detail(ctx, rt.ID)
}

func (s *service) createAtomic(ctx context.Context, rt *model.Rental, bookIDs []int64) error {
	return s.st.InTx(ctx, func(tx repository.Store) error {
		// Rows are locked in id order; errors are still reported in request order.
		locked, err := tx.Books().LockForUpdate(ctx, bookIDs)
		if err != nil {
			return err
		}
		seen := make(map[int64]bool, len(bookIDs))
		for _, id := range bookIDs {
			if seen[id] {
				return bookUnavailable(id)
			}
			seen[id] = true
			b, ok := locked[id]
			if err := rentable(id, b, ok); err != nil {
				return err
			}
		}

		if err := tx.Rentals().Create(ctx, rt); err != nil {
			return err
		}
		for _, id := range bookIDs {
			if err := attach(ctx, tx, rt.ID, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) createSequential(ctx context.Context, rt *model.Rental, bookIDs []int64) error {
	if err := s.st.Rentals().Create(ctx, rt); err != nil {
		return err
	}
	for _, id := range bookIDs {
		err := s.st.InTx(ctx, func(tx repository.Store) error {
			if err := checkRentable(ctx, tx, id); err != nil {
				return err
			}
			return attach(ctx, tx, rt.ID, id)
		})
		if err != nil {
			s.log.Warn("rental left partially applied", "rental_id", rt.ID, "book_id", id, "err", err)
			return err
		}
	}
	return nil
}

func checkRentable(ctx context.Context, tx repository.Store, bookID int64) error {
	b, ok, err := tx.Books().ByIDForUpdate(ctx, bookID)
	if err != nil {
		return err
	}
	return rentable(bookID, b, ok)
}

func rentable(id int64, b model.Book, found bool) error {
	if !found {
		return apperr.Newf(apperr.ErrNotFound, "Book with ID %d not found", id)
	}
	if !b.Available {
		return bookUnavailable(id)
	}
	return nil
}

// attach links the book to the rental and marks it rented.
func attach(ctx context.Context, tx repository.Store, rentalID, bookID int64) error {
	if _, err := tx.Rentals().AddItem(ctx, rentalID, bookID); err != nil {
		return err
	}
	return tx.Books().Reserve(ctx, bookID)
}

func (s *service) List(ctx context.Context, f model.RentalFilter) ([]model.RentalDetail, error) {
	if f.From != nil && f.To != nil && f.From.After(f.To.Time) {
		return nil, apperr.Validation("from must not be after to")
	}
	rows, err := s.st.Rentals().List(ctx, f)
	if err != nil {
		return nil, err
	}
	return hydrate(ctx, s.st, rows)
}

func (s *service) Detail(ctx context.Context, id int64) (*model.RentalDetail, error) {
	rt, ok, err := s.st.Rentals().ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, rentalNotFound(id)
	}
	out, err := hydrate(ctx, s.st, []model.Rental{rt})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *service) Update(ctx context.Context, id int64, p model.RentalPatch) (*model.RentalDetail, error) {
	if p.UserDetails.Null || p.RentalDate.Null {
		return nil, apperr.Validation("userDetails and rentalDate cannot be null")
	}
	err := s.st.InTx(ctx, func(tx repository.Store) error {
		rt, ok, err := tx.Rentals().ByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return rentalNotFound(id)
		}
		if v, ok := p.UserDetails.Get(); ok {
			rt.UserDetails = v
		}
		if v, ok := p.RentalDate.Get(); ok {
			rt.RentalDate = v
		}
		if p.ReturnDate.Set {
			// Availability is not recomputed here; only Return frees books.
			s.log.Warn("rental return date edited directly", "rental_id", id, "cleared", p.ReturnDate.Null)
			rt.ReturnDate = nil
			if v, ok := p.ReturnDate.Get(); ok {
				rt.ReturnDate = &v
			}
		}
		_, err = tx.Rentals().Update(ctx, rt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Detail(ctx, id)
}

func (s *service) Return(ctx context.Context, id int64) (*model.RentalDetail, error) {
	items, err := s.st.Rentals().ItemsForRental(ctx, id)
	if err != nil {
		return nil, err
	}
	bookIDs := make([]int64, 0, len(items))
	for _, it := range items {
		bookIDs = append(bookIDs, it.BookID)
	}
	release, err := s.lockBooks(ctx, bookIDs)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.st.InTx(ctx, func(tx repository.Store) error {
		rt, ok, err := tx.Rentals().ByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return rentalNotFound(id)
		}
		// Items are fixed at creation, so the set locked above is complete.
		if _, err := tx.Books().LockForUpdate(ctx, bookIDs); err != nil {
			return err
		}
		for _, bookID := range bookIDs {
			// A repeated return must not free a book someone has rented since.
			held, err := tx.Rentals().HeldElsewhere(ctx, bookID, id)
			if err != nil {
				return err
			}
			if held {
				continue
			}
			if _, err := tx.Books().Release(ctx, bookID); err != nil {
				return err
			}
		}
		today := s.today()
		rt.ReturnDate = &today
		_, err = tx.Rentals().Update(ctx, rt)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rental returned", "rental_id", id, "books", len(bookIDs))
	return s.Detail(ctx, id)
}

func (s *service) ForBook(ctx context.Context, bookID int64) ([]model.RentalDetail, error) {
	if _, ok, err := s.st.Books().ByID(ctx, bookID); err != nil {
		return nil, err
	} else if !ok {
		return nil, apperr.Newf(apperr.ErrNotFound, "Book with ID %d not found", bookID)
	}
	rows, err := s.st.Rentals().RentalsForBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return hydrate(ctx, s.st, rows)
}

func (s *service) lockBooks(ctx context.Context, bookIDs []int64) (func(), error) {
	lctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	release, err := s.locker.Lock(lctx, lock.BookKeys(bookIDs)...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, apperr.Conflict("books are being rented or returned by another request, retry later")
		}
		return nil, err
	}
	return release, nil
}

// hydrate attaches each rental's books in one store round trip.
func hydrate(ctx context.Context, st repository.Store, rows []model.Rental) ([]model.RentalDetail, error) {
	ids := make([]int64, 0, len(rows))
	for _, rt := range rows {
		ids = append(ids, rt.ID)
	}
	books, err := st.Rentals().BooksForRentals(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.RentalDetail, 0, len(rows))
	for _, rt := range rows {
		bs := books[rt.ID]
		if bs == nil {
			bs = []model.Book{}
		}
		out = append(out, model.RentalDetail{Rental: rt, Books: bs})
	}
	return out, nil
}

func bookUnavailable(id int64) error {
	return apperr.Newf(apperr.ErrConflict, "Book with ID %d is not available for rental", id)
}

func rentalNotFound(id int64) error {
	return apperr.Newf(apperr.ErrNotFound, "Rental with ID %d not found", id)
}
