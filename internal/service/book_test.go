package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/validate"
)

func TestBookCreate(t *testing.T) {
	ctx := context.Background()
	svc := NewBookService(newTestStore(), validate.New())

	book, err := svc.Create(ctx, BookInput{Name: "Dune", Author: "Herbert", Image: "dune.png", Genre: "sci-fi"})
	require.NoError(t, err)
	assert.True(t, book.IsAvailable)
	assert.Len(t, book.BookID, 5)
	assert.False(t, book.DateCreated.IsZero())

	unavailable := false
	book, err = svc.Create(ctx, BookInput{Name: "Emma", Author: "Austen", Image: "emma.png", Genre: "romance", IsAvailable: &unavailable})
	require.NoError(t, err)
	assert.False(t, book.IsAvailable)

	got, err := svc.Get(ctx, book.BookID)
	require.NoError(t, err)
	assert.Equal(t, "Emma", got.Name)

	books, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func TestBookCreateValidation(t *testing.T) {
	svc := NewBookService(newTestStore(), validate.New())

	_, err := svc.Create(context.Background(), BookInput{Name: "Dune", Genre: "horror"})
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)

	fields := map[string]string{}
	for _, v := range verr.Violations {
		fields[v.Field] = v.Rule
	}
	assert.Equal(t, map[string]string{"author": "required", "image": "required", "genre": "genre"}, fields)
}

func TestBookGetMissing(t *testing.T) {
	svc := NewBookService(newTestStore(), validate.New())
	_, err := svc.Get(context.Background(), "zzzzz")
	assert.ErrorIs(t, err, ErrNotFound)
}
