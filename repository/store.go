// Package repository groups the book and rental repositories behind a single
// transaction boundary.
package repository

import (
	"context"

	bookrepo "bookrental/repository/book"
	rentalrepo "bookrental/repository/rental"
	"bookrental/util/apperr"
	"bookrental/util/database"

	"github.com/jackc/pgx/v5"
)

// Store hands out repositories that share one connection or transaction.
type Store interface {
	Books() bookrepo.Repo
	Rentals() rentalrepo.Repo
	// InTx runs fn against a transactional view of the store. Everything fn
	// writes is committed when it returns nil and discarded otherwise.
	// Calling InTx on a transactional view joins the outer transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

type pgStore struct {
	db   *database.DB
	q    database.Querier
	inTx bool
}

// NewPostgres returns a Store backed by the pool in db.
func NewPostgres(db *database.DB) Store { return &pgStore{db: db, q: db.Pool} }

func (s *pgStore) Books() bookrepo.Repo     { return bookrepo.New(s.q) }
func (s *pgStore) Rentals() rentalrepo.Repo { return rentalrepo.New(s.q) }

func (s *pgStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		return fn(&pgStore{db: s.db, q: tx, inTx: true})
	})
	if database.IsLockConflict(err) {
		return apperr.Conflict("books are being rented or returned by another request, retry later")
	}
	return err
}

func (s *pgStore) Ping(ctx context.Context) error { return s.db.Ping(ctx) }
