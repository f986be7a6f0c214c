package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var r Rental
	require.NoError(t, json.Unmarshal([]byte(`{"rentalId":3,"userDetails":"u","rentalDate":"2024-02-29","returnDate":null}`), &r))
	require.True(t, r.RentalDate.Equal(NewDate(2024, time.February, 29)))
	require.Nil(t, r.ReturnDate)
	require.True(t, r.Open())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, `{"rentalId":3,"userDetails":"u","rentalDate":"2024-02-29","returnDate":null}`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"rentalDate":"29/02/2024"}`), &r))
	require.Error(t, json.Unmarshal([]byte(`{"rentalDate":20240229}`), &r))
}

func TestDateOf_DropsClock(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	d := DateOf(time.Date(2024, time.March, 1, 2, 0, 0, 0, loc))
	require.Equal(t, "2024-03-01", d.String())
	require.Empty(t, Date{}.String())
}

func TestField_States(t *testing.T) {
	var p BookPatch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Dune","genre":null}`), &p))

	v, ok := p.Title.Get()
	require.True(t, ok)
	require.Equal(t, "Dune", v)

	require.True(t, p.Genre.Set)
	require.True(t, p.Genre.Null)
	_, ok = p.Genre.Get()
	require.False(t, ok)

	require.False(t, p.Author.Set)
	require.False(t, p.Available.Set)

	require.Error(t, json.Unmarshal([]byte(`{"available":"yes"}`), &p))
}

func TestRentalDetail_JSONShape(t *testing.T) {
	ret := NewDate(2024, time.January, 9)
	d := RentalDetail{
		Rental: Rental{ID: 1, UserDetails: "alice", RentalDate: NewDate(2024, time.January, 2), ReturnDate: &ret},
		Books:  []Book{{ID: 7, Title: "Dune", Author: "Frank Herbert", Available: false}},
	}
	out, err := json.Marshal(d)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"rentalId":1,"userDetails":"alice","rentalDate":"2024-01-02","returnDate":"2024-01-09",
		"books":[{"bookId":7,"title":"Dune","author":"Frank Herbert","genre":"","available":false}]
	}`, string(out))
}
