package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookshelf/internal/model"
	"bookshelf/internal/shortid"
	"bookshelf/internal/store"
	"bookshelf/internal/validate"
)

type BookInput struct {
	Name        string `json:"name" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Image       string `json:"image" validate:"required"`
	Genre       string `json:"genre" validate:"required,genre"`
	IsAvailable *bool  `json:"isAvailable"`
}

type BookService struct {
	books     store.BookStore
	validator *validate.Validator
	newID     shortid.Generator
}

func NewBookService(books store.BookStore, v *validate.Validator) *BookService {
	return &BookService{books: books, validator: v, newID: shortid.New}
}

func (s *BookService) bookIDTaken(ctx context.Context, id string) (bool, error) {
	_, err := s.books.BookByBookID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *BookService) Create(ctx context.Context, in BookInput) (*model.Book, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}

	bookID, err := shortid.Unique(ctx, s.newID, s.bookIDTaken)
	if err != nil {
		return nil, err
	}

	book := &model.Book{
		BookID:      strings.ToLower(bookID),
		Name:        in.Name,
		Author:      in.Author,
		Image:       in.Image,
		Genre:       in.Genre,
		IsAvailable: available,
		DateCreated: time.Now().UTC(),
	}
	if err := s.books.CreateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("book %s: %w", book.BookID, ErrConflict)
		}
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

func (s *BookService) Get(ctx context.Context, bookID string) (*model.Book, error) {
	book, err := s.books.BookByBookID(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("book %s: %w", bookID, ErrNotFound)
		}
		return nil, err
	}
	return book, nil
}

func (s *BookService) List(ctx context.Context) ([]model.Book, error) {
	return s.books.ListBooks(ctx)
}
