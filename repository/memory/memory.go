// Package memory is an in-process Store used for local runs and tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"bookrental/model"
	"bookrental/repository"
	bookrepo "bookrental/repository/book"
	rentalrepo "bookrental/repository/rental"
	"bookrental/util/apperr"
)

// Store keeps all rows in maps. Transactions hold txMu exclusively and are
// rolled back by restoring a snapshot; reads outside a transaction take it
// shared, so they never observe uncommitted writes; inside InTx use the tx
// argument, since the outer Store blocks until the transaction ends. Ids are
// never reused.
type Store struct {
	txMu sync.RWMutex
	mu   sync.RWMutex

	books   map[int64]model.Book
	rentals map[int64]model.Rental
	items   map[int64]model.RentalItem

	nextBook, nextRental, nextItem int64
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		books:   map[int64]model.Book{},
		rentals: map[int64]model.Rental{},
		items:   map[int64]model.RentalItem{},
	}
}

func (s *Store) Books() bookrepo.Repo     { return &books{s: s} }
func (s *Store) Rentals() rentalrepo.Repo { return &rentals{s: s} }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.snapshot()
	if err := fn(txView{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	books   map[int64]model.Book
	rentals map[int64]model.Rental
	items   map[int64]model.RentalItem
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{books: maps.Clone(s.books), rentals: maps.Clone(s.rentals), items: maps.Clone(s.items)}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books, s.rentals, s.items = snap.books, snap.rentals, snap.items
}

// txView is the store as seen from inside InTx. Reads and writes skip txMu,
// which the enclosing transaction already holds.
type txView struct{ s *Store }

func (t txView) Books() bookrepo.Repo           { return &books{s: t.s, inTx: true} }
func (t txView) Rentals() rentalrepo.Repo       { return &rentals{s: t.s, inTx: true} }
func (t txView) Ping(context.Context) error     { return nil }
func (t txView) InTx(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

// write serialises a mutation against running transactions.
func (s *Store) write(inTx bool, fn func()) {
	if !inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// read waits for any running transaction to finish before looking at rows.
func (s *Store) read(inTx bool, fn func()) {
	if !inTx {
		s.txMu.RLock()
		defer s.txMu.RUnlock()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// books

type books struct {
	s    *Store
	inTx bool
}

func (r *books) Create(_ context.Context, b *model.Book) error {
	r.s.write(r.inTx, func() {
		r.s.nextBook++
		b.ID = r.s.nextBook
		r.s.books[b.ID] = *b
	})
	return nil
}

func (r *books) List(_ context.Context, f model.BookFilter) ([]model.Book, error) {
	out := []model.Book{}
	r.s.read(r.inTx, func() {
		for _, id := range slices.Sorted(maps.Keys(r.s.books)) {
			b := r.s.books[id]
			if f.AvailableOnly && !b.Available {
				continue
			}
			if !containsFold(b.Title, f.Title) || !containsFold(b.Author, f.Author) || !containsFold(b.Genre, f.Genre) {
				continue
			}
			out = append(out, b)
		}
	})
	return out, nil
}

func (r *books) ByID(_ context.Context, id int64) (model.Book, bool, error) {
	var (
		b  model.Book
		ok bool
	)
	r.s.read(r.inTx, func() { b, ok = r.s.books[id] })
	return b, ok, nil
}

// ByIDForUpdate needs no row lock: transactions already run one at a time.
func (r *books) ByIDForUpdate(ctx context.Context, id int64) (model.Book, bool, error) {
	return r.ByID(ctx, id)
}

func (r *books) LockForUpdate(_ context.Context, ids []int64) (map[int64]model.Book, error) {
	out := make(map[int64]model.Book, len(ids))
	r.s.read(r.inTx, func() {
		for _, id := range ids {
			if b, ok := r.s.books[id]; ok {
				out[id] = b
			}
		}
	})
	return out, nil
}

func (r *books) Update(_ context.Context, b model.Book) (bool, error) {
	var ok bool
	r.s.write(r.inTx, func() {
		if _, ok = r.s.books[b.ID]; ok {
			r.s.books[b.ID] = b
		}
	})
	return ok, nil
}

func (r *books) Reserve(_ context.Context, id int64) error {
	var err error
	r.s.write(r.inTx, func() {
		b, ok := r.s.books[id]
		if !ok || !b.Available {
			err = apperr.Newf(apperr.ErrConflict, "Book with ID %d is not available for rental", id)
			return
		}
		b.Available = false
		r.s.books[id] = b
	})
	return err
}

func (r *books) Release(_ context.Context, id int64) (bool, error) {
	var ok bool
	r.s.write(r.inTx, func() {
		var b model.Book
		if b, ok = r.s.books[id]; ok {
			b.Available = true
			r.s.books[id] = b
		}
	})
	return ok, nil
}

// Delete cascades to rental items, as the Postgres foreign key does.
func (r *books) Delete(_ context.Context, id int64) (bool, error) {
	var ok bool
	r.s.write(r.inTx, func() {
		if _, ok = r.s.books[id]; !ok {
			return
		}
		delete(r.s.books, id)
		maps.DeleteFunc(r.s.items, func(_ int64, it model.RentalItem) bool { return it.BookID == id })
	})
	return ok, nil
}

// rentals

type rentals struct {
	s    *Store
	inTx bool
}

func (r *rentals) Create(_ context.Context, rt *model.Rental) error {
	r.s.write(r.inTx, func() {
		r.s.nextRental++
		rt.ID = r.s.nextRental
		r.s.rentals[rt.ID] = cloneRental(*rt)
	})
	return nil
}

func (r *rentals) List(_ context.Context, f model.RentalFilter) ([]model.Rental, error) {
	out := []model.Rental{}
	r.s.read(r.inTx, func() {
		for _, id := range slices.Sorted(maps.Keys(r.s.rentals)) {
			rt := r.s.rentals[id]
			switch {
			case !containsFold(rt.UserDetails, f.User):
				continue
			case f.From != nil && rt.RentalDate.Before(f.From.Time):
				continue
			case f.To != nil && rt.RentalDate.After(f.To.Time):
				continue
			case f.OpenOnly && !rt.Open():
				continue
			}
			out = append(out, cloneRental(rt))
		}
	})
	return out, nil
}

func (r *rentals) ByID(_ context.Context, id int64) (model.Rental, bool, error) {
	var (
		rt model.Rental
		ok bool
	)
	r.s.read(r.inTx, func() { rt, ok = r.s.rentals[id] })
	return cloneRental(rt), ok, nil
}

func (r *rentals) ByIDForUpdate(ctx context.Context, id int64) (model.Rental, bool, error) {
	return r.ByID(ctx, id)
}

func (r *rentals) Update(_ context.Context, rt model.Rental) (bool, error) {
	var ok bool
	r.s.write(r.inTx, func() {
		if _, ok = r.s.rentals[rt.ID]; ok {
			r.s.rentals[rt.ID] = cloneRental(rt)
		}
	})
	return ok, nil
}

func (r *rentals) AddItem(_ context.Context, rentalID, bookID int64) (model.RentalItem, error) {
	var (
		it  model.RentalItem
		err error
	)
	r.s.write(r.inTx, func() {
		if _, ok := r.s.rentals[rentalID]; !ok {
			err = apperr.Newf(apperr.ErrNotFound, "rental %d not found", rentalID)
			return
		}
		if _, ok := r.s.books[bookID]; !ok {
			err = apperr.Newf(apperr.ErrNotFound, "Book with ID %d not found", bookID)
			return
		}
		for _, existing := range r.s.items {
			if existing.RentalID == rentalID && existing.BookID == bookID {
				err = apperr.Newf(apperr.ErrConflict, "Book with ID %d is not available for rental", bookID)
				return
			}
		}
		r.s.nextItem++
		it = model.RentalItem{ID: r.s.nextItem, RentalID: rentalID, BookID: bookID}
		r.s.items[it.ID] = it
	})
	return it, err
}

func (r *rentals) ItemsForRental(_ context.Context, rentalID int64) ([]model.RentalItem, error) {
	var out []model.RentalItem
	r.s.read(r.inTx, func() {
		out = r.s.itemsWhere(func(it model.RentalItem) bool { return it.RentalID == rentalID })
	})
	return out, nil
}

func (r *rentals) BooksForRentals(_ context.Context, rentalIDs []int64) (map[int64][]model.Book, error) {
	out := make(map[int64][]model.Book, len(rentalIDs))
	r.s.read(r.inTx, func() {
		for _, it := range r.s.itemsWhere(func(it model.RentalItem) bool { return slices.Contains(rentalIDs, it.RentalID) }) {
			if b, ok := r.s.books[it.BookID]; ok {
				out[it.RentalID] = append(out[it.RentalID], b)
			}
		}
	})
	return out, nil
}

func (r *rentals) RentalsForBook(_ context.Context, bookID int64) ([]model.Rental, error) {
	out := []model.Rental{}
	r.s.read(r.inTx, func() {
		var ids []int64
		for _, it := range r.s.itemsWhere(func(it model.RentalItem) bool { return it.BookID == bookID }) {
			ids = append(ids, it.RentalID)
		}
		slices.Sort(ids)
		for _, id := range slices.Compact(ids) {
			if rt, ok := r.s.rentals[id]; ok {
				out = append(out, cloneRental(rt))
			}
		}
	})
	return out, nil
}

func (r *rentals) HeldElsewhere(_ context.Context, bookID, rentalID int64) (bool, error) {
	var held bool
	r.s.read(r.inTx, func() {
		for _, it := range r.s.items {
			if it.BookID != bookID || it.RentalID == rentalID {
				continue
			}
			if rt, ok := r.s.rentals[it.RentalID]; ok && rt.Open() {
				held = true
				return
			}
		}
	})
	return held, nil
}

// itemsWhere returns matching items in id order. Callers hold mu.
func (s *Store) itemsWhere(keep func(model.RentalItem) bool) []model.RentalItem {
	out := []model.RentalItem{}
	for _, id := range slices.Sorted(maps.Keys(s.items)) {
		if it := s.items[id]; keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	return sub == "" || strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// cloneRental detaches the ReturnDate pointer from stored state.
func cloneRental(rt model.Rental) model.Rental {
	if rt.ReturnDate != nil {
		d := *rt.ReturnDate
		rt.ReturnDate = &d
	}
	return rt
}
