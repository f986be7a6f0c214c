package booksvc

import (
	"context"
	"fmt"
	"strings"

	"bookrental/model"
	"bookrental/repository"
	"bookrental/util/apperr"
)

type Book = model.Book

// CreateInput is a new catalog entry. Available defaults to true when nil.
type CreateInput struct {
	Title     string
	Author    string
	Genre     string
	Available *bool
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*Book, error)
	List(ctx context.Context) ([]Book, error)
	ListAvailable(ctx context.Context) ([]Book, error)
	Detail(ctx context.Context, id int64) (*Book, error)
	Update(ctx context.Context, id int64, p model.BookPatch) (*Book, error)
	Delete(ctx context.Context, id int64) error
	// Search applies exactly one filter: title, else author, else genre.
	// With none given it returns the whole catalog.
	Search(ctx context.Context, title, author, genre string) ([]Book, error)
}

type service struct{ st repository.Store }

func New(st repository.Store) Service { return &service{st: st} }

func (s *service) Create(ctx context.Context, in CreateInput) (*Book, error) {
	b := Book{
		Title:     strings.TrimSpace(in.Title),
		Author:    strings.TrimSpace(in.Author),
		Genre:     strings.TrimSpace(in.Genre),
		Available: true,
	}
	if b.Title == "" || b.Author == "" {
		return nil, apperr.Validation("title and author are required")
	}
	if in.Available != nil {
		b.Available = *in.Available
	}
	if err := s.st.Books().Create(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *service) List(ctx context.Context) ([]Book, error) {
	return s.st.Books().List(ctx, model.BookFilter{})
}

func (s *service) ListAvailable(ctx context.Context) ([]Book, error) {
	return s.st.Books().List(ctx, model.BookFilter{AvailableOnly: true})
}

func (s *service) Detail(ctx context.Context, id int64) (*Book, error) {
	b, ok, err := s.st.Books().ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, bookNotFound(id)
	}
	return &b, nil
}

func (s *service) Update(ctx context.Context, id int64, p model.BookPatch) (*Book, error) {
	var out Book
	err := s.st.InTx(ctx, func(tx repository.Store) error {
		b, ok, err := tx.Books().ByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return bookNotFound(id)
		}
		if err := applyPatch(&b, p); err != nil {
			return err
		}
		if _, err := tx.Books().Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func applyPatch(b *Book, p model.BookPatch) error {
	if p.Title.Null || p.Author.Null || p.Available.Null {
		return apperr.Validation("title, author and available cannot be null")
	}
	if v, ok := p.Title.Get(); ok {
		if v = strings.TrimSpace(v); v == "" {
			return apperr.Validation("title cannot be empty")
		}
		b.Title = v
	}
	if v, ok := p.Author.Get(); ok {
		if v = strings.TrimSpace(v); v == "" {
			return apperr.Validation("author cannot be empty")
		}
		b.Author = v
	}
	if p.Genre.Set {
		b.Genre = strings.TrimSpace(p.Genre.Value)
	}
	if v, ok := p.Available.Get(); ok {
		b.Available = v
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	ok, err := s.st.Books().Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return bookNotFound(id)
	}
	return nil
}

func (s *service) Search(ctx context.Context, title, author, genre string) ([]Book, error) {
	var f model.BookFilter
	switch {
	case title != "":
		f.Title = title
	case author != "":
		f.Author = author
	case genre != "":
		f.Genre = genre
	}
	return s.st.Books().List(ctx, f)
}

func bookNotFound(id int64) error {
	return apperr.New(apperr.ErrNotFound, fmt.Sprintf("Book with ID %d not found", id))
}
