// Package shortid generates the compact public identifiers users and
// books are addressed by.
package shortid

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	size     = 5
)

type Generator func() (string, error)

// ExistsFunc reports whether id is already taken.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

func New() (string, error) {
	return gonanoid.Generate(alphabet, size)
}

// Unique draws an id and, if it is taken, draws exactly one more. The
// second draw is not checked, so uniqueness is best effort and the
// store's unique index has the final word.
func Unique(ctx context.Context, gen Generator, exists ExistsFunc) (string, error) {
	id, err := gen()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}

	taken, err := exists(ctx, id)
	if err != nil {
		return "", fmt.Errorf("check id: %w", err)
	}
	if !taken {
		return id, nil
	}

	id, err = gen()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id, nil
}
