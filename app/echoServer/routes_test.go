package echoServer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookrental/app/echoServer/controller/book"
	"bookrental/app/echoServer/controller/rental"
	"bookrental/app/echoServer/validation"
	"bookrental/model"
	"bookrental/repository/memory"
	booksvc "bookrental/service/book"
	rentalsvc "bookrental/service/rental"
	"bookrental/util/jwt"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type server struct {
	e  *echo.Echo
	st *memory.Store
}

func newServer(t *testing.T, secret string) *server {
	t.Helper()
	st := memory.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	bs := booksvc.New(st)
	rs := rentalsvc.New(st, rentalsvc.WithLogger(log))

	e := echo.New()
	e.Validator = validation.New()
	RegisterMiddlewares(e, MiddlewareConfig{})
	Register(e, C{
		Book:      &book.Controller{Svc: bs, Rentals: rs, Log: log},
		Rental:    &rental.Controller{Svc: rs, Log: log},
		Health:    st,
		JWTSecret: secret,
	})
	return &server{e: e, st: st}
}

func (s *server) do(t *testing.T, method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["message"]
}

func TestBooks_CRUD(t *testing.T) {
	s := newServer(t, "")

	rec := s.do(t, http.MethodPost, "/api/books", `{"title":"Dune","author":"Frank Herbert"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	b := decode[model.Book](t, rec)
	require.Equal(t, int64(1), b.ID)
	require.True(t, b.Available)

	rec = s.do(t, http.MethodPost, "/api/books", `{"author":"Nobody"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, message(t, rec), "title: required")

	rec = s.do(t, http.MethodGet, "/api/books/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/books/9", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Book with ID 9 not found", message(t, rec))

	rec = s.do(t, http.MethodPut, "/api/books/1", `{"genre":"SF","available":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	b = decode[model.Book](t, rec)
	require.Equal(t, "SF", b.Genre)
	require.Equal(t, "Dune", b.Title)
	require.False(t, b.Available)

	rec = s.do(t, http.MethodPut, "/api/books/1", `{"title":null}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/books/search?author=herb", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]model.Book](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/books/available", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/api/books/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "book deleted", message(t, rec))

	rec = s.do(t, http.MethodDelete, "/api/books/1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRentals_Workflow(t *testing.T) {
	s := newServer(t, "")
	for _, title := range []string{"Dune", "Emma"} {
		rec := s.do(t, http.MethodPost, "/api/books", `{"title":"`+title+`","author":"someone"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/api/rentals", `{"userDetails":"alice","rentalDate":"2024-03-01","bookIds":[1,2]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rt := decode[model.RentalDetail](t, rec)
	require.Equal(t, int64(1), rt.ID)
	require.Equal(t, "2024-03-01", rt.RentalDate.String())
	require.Nil(t, rt.ReturnDate)
	require.Len(t, rt.Books, 2)
	require.False(t, rt.Books[0].Available)

	rec = s.do(t, http.MethodPost, "/api/rentals", `{"userDetails":"bob","bookIds":[1]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Book with ID 1 is not available for rental", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/rentals", `{"userDetails":"bob","bookIds":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "At least one book must be selected for rental", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/rentals", `{"userDetails":"bob","bookIds":[99]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Book with ID 99 not found", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/rentals", `{"bookIds":[-4]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/rentals/active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]model.RentalDetail](t, rec), 1)

	rec = s.do(t, http.MethodPut, "/api/rentals/1", `{"userDetails":"alice liddell"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice liddell", decode[model.RentalDetail](t, rec).UserDetails)

	rec = s.do(t, http.MethodPut, "/api/rentals/1", `{"rentalDate":null}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/rentals/1/return", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rt = decode[model.RentalDetail](t, rec)
	require.NotNil(t, rt.ReturnDate)
	require.True(t, rt.Books[0].Available)

	rec = s.do(t, http.MethodPut, "/api/rentals/7/return", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/rentals?open=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/rentals?user=LIDDELL&from=2024-03-01&to=2024-03-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]model.RentalDetail](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/rentals?from=yesterday", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/rentals?from=2024-04-01&to=2024-03-01", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/rentals/9", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/books/1/rentals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]model.RentalDetail](t, rec), 1)
}

func TestAuth_ProtectsWrites(t *testing.T) {
	s := newServer(t, "s3cret")

	rec := s.do(t, http.MethodPost, "/api/books", `{"title":"Dune","author":"Frank Herbert"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/books", "")
	require.Equal(t, http.StatusOK, rec.Code)

	bad, err := jwt.Issue("wrong", "librarian", time.Hour)
	require.NoError(t, err)
	rec = s.do(t, http.MethodPost, "/api/books", `{"title":"Dune","author":"Frank Herbert"}`, echo.HeaderAuthorization, "Bearer "+bad)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := jwt.Issue("s3cret", "librarian", time.Hour)
	require.NoError(t, err)
	rec = s.do(t, http.MethodPost, "/api/books", `{"title":"Dune","author":"Frank Herbert"}`, echo.HeaderAuthorization, "Bearer "+tok)
	require.Equal(t, http.StatusCreated, rec.Code)
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	s := newServer(t, "")
	rec := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	e := echo.New()
	e.GET("/health", health(downPinger{}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	out := httptest.NewRecorder()
	e.ServeHTTP(out, req)
	require.Equal(t, http.StatusServiceUnavailable, out.Code)
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	e.Use(RateLimit(1, 1))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	hit := func() int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusNoContent, hit())
	require.Equal(t, http.StatusTooManyRequests, hit())
}
