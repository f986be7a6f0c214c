package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"bookrental/model"
	"bookrental/repository"
	rentalsvc "bookrental/service/rental"
	"bookrental/util/apperr"
	"bookrental/util/database"

	"github.com/stretchr/testify/require"
)

// newPostgres connects to TEST_DATABASE_URL and empties the tables.
func newPostgres(t *testing.T) repository.Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := database.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE rental_items, rentals, books RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return repository.NewPostgres(db)
}

func TestPostgres_BookRoundTrip(t *testing.T) {
	st := newPostgres(t)
	ctx := context.Background()

	b := model.Book{Title: "Dune", Author: "Frank Herbert", Genre: "SF", Available: true}
	require.NoError(t, st.Books().Create(ctx, &b))
	require.NotZero(t, b.ID)

	got, ok, err := st.Books().ByID(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, b, got)

	rows, err := st.Books().List(ctx, model.BookFilter{Author: "HERB"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, st.Books().Reserve(ctx, b.ID))
	err = st.Books().Reserve(ctx, b.ID)
	require.Equal(t, apperr.ErrConflict, apperr.Code(err))

	ok, err = st.Books().Release(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = st.Books().ByID(ctx, 9999)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPostgres_RentalItemsAndRollback(t *testing.T) {
	st := newPostgres(t)
	ctx := context.Background()

	b := model.Book{Title: "Emma", Author: "Jane Austen", Available: true}
	require.NoError(t, st.Books().Create(ctx, &b))

	boom := errors.New("abort")
	err := st.InTx(ctx, func(tx repository.Store) error {
		rt := model.Rental{UserDetails: "alice", RentalDate: model.NewDate(2024, time.May, 1)}
		require.NoError(t, tx.Rentals().Create(ctx, &rt))
		_, err := tx.Rentals().AddItem(ctx, rt.ID, b.ID)
		require.NoError(t, err)
		require.NoError(t, tx.Books().Reserve(ctx, b.ID))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, _, err := st.Books().ByID(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, got.Available)
	rentals, err := st.Rentals().List(ctx, model.RentalFilter{})
	require.NoError(t, err)
	require.Empty(t, rentals)

	rt := model.Rental{UserDetails: "bob", RentalDate: model.NewDate(2024, time.May, 2)}
	require.NoError(t, st.Rentals().Create(ctx, &rt))
	_, err = st.Rentals().AddItem(ctx, rt.ID, b.ID)
	require.NoError(t, err)
	_, err = st.Rentals().AddItem(ctx, rt.ID, b.ID)
	require.Equal(t, apperr.ErrConflict, apperr.Code(err))
	_, err = st.Rentals().AddItem(ctx, rt.ID, 4242)
	require.Equal(t, apperr.ErrNotFound, apperr.Code(err))

	books, err := st.Rentals().BooksForRentals(ctx, []int64{rt.ID})
	require.NoError(t, err)
	require.Len(t, books[rt.ID], 1)

	ret := model.NewDate(2024, time.May, 9)
	rt.ReturnDate = &ret
	ok, err := st.Rentals().Update(ctx, rt)
	require.NoError(t, err)
	require.True(t, ok)

	stored, ok, err := st.Rentals().ByID(ctx, rt.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, stored.ReturnDate.Equal(ret))

	open, err := st.Rentals().List(ctx, model.RentalFilter{OpenOnly: true})
	require.NoError(t, err)
	require.Empty(t, open)

	history, err := st.Rentals().RentalsForBook(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestPostgres_CrossedRentalsNeverFailHard(t *testing.T) {
	st := newPostgres(t)
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"Dune", "Emma"} {
		b := model.Book{Title: title, Author: "x", Available: true}
		require.NoError(t, st.Books().Create(ctx, &b))
		ids = append(ids, b.ID)
	}
	svc := rentalsvc.New(st)

	for round := 0; round < 10; round++ {
		orders := [][]int64{{ids[0], ids[1]}, {ids[1], ids[0]}}
		errs := make([]error, len(orders))
		var wg sync.WaitGroup
		for i, order := range orders {
			wg.Add(1)
			go func() {
				defer wg.Done()
				var d *model.RentalDetail
				d, errs[i] = svc.Create(ctx, rentalsvc.CreateInput{UserDetails: "crossed", BookIDs: order})
				if errs[i] == nil {
					_, errs[i] = svc.Return(ctx, d.ID)
				}
			}()
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				require.Equal(t, apperr.ErrConflict, apperr.Code(err), "round %d: %v", round, err)
			}
		}
	}
}

func TestPostgres_HeldElsewhereAndLockForUpdate(t *testing.T) {
	st := newPostgres(t)
	ctx := context.Background()

	b := model.Book{Title: "Dune", Author: "x", Available: true}
	require.NoError(t, st.Books().Create(ctx, &b))
	returned := model.NewDate(2024, time.June, 3)
	closed := model.Rental{UserDetails: "alice", RentalDate: model.NewDate(2024, time.June, 1), ReturnDate: &returned}
	open := model.Rental{UserDetails: "bob", RentalDate: model.NewDate(2024, time.June, 4)}
	require.NoError(t, st.Rentals().Create(ctx, &closed))
	require.NoError(t, st.Rentals().Create(ctx, &open))
	_, err := st.Rentals().AddItem(ctx, closed.ID, b.ID)
	require.NoError(t, err)

	held, err := st.Rentals().HeldElsewhere(ctx, b.ID, closed.ID)
	require.NoError(t, err)
	require.False(t, held)

	_, err = st.Rentals().AddItem(ctx, open.ID, b.ID)
	require.NoError(t, err)
	held, err = st.Rentals().HeldElsewhere(ctx, b.ID, closed.ID)
	require.NoError(t, err)
	require.True(t, held)

	err = st.InTx(ctx, func(tx repository.Store) error {
		got, err := tx.Books().LockForUpdate(ctx, []int64{9999, b.ID})
		require.NoError(t, err)
		require.Equal(t, map[int64]model.Book{b.ID: b}, got)
		return nil
	})
	require.NoError(t, err)
}
