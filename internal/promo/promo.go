// Package promo validates promo codes against published code lists.
package promo

import (
	"context"
)

// Validator checks promo codes supplied with an order.
type Validator interface {
	// Validate returns nil when code is accepted, model.ErrInvalidPromoCode
	// otherwise.
	Validate(ctx context.Context, code string) error

	// Close releases the loaded code lists.
	Close() error
}

// CodeSet is one published list of promo codes.
type CodeSet interface {
	Contains(code string) bool
	Size() int
}

// Loader reads a gzipped, newline separated code list.
type Loader interface {
	Load(ctx context.Context, path string) (CodeSet, error)
}
