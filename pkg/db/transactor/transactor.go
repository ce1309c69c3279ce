// Package transactor runs a unit of work inside a database transaction carried by context.
package transactor

import (
	"context"
)

// Transactor runs txFunc within transaction, repositories pick the transaction up from context
type Transactor interface {
	WithinTransaction(ctx context.Context, txFunc func(context.Context) error) error
}

type noopTransactor struct{}

// NewNoopTransactor builds Transactor for stores which have no multi-statement transactions,
// txFunc is just called with the same context
func NewNoopTransactor() Transactor {
	return noopTransactor{}
}

func (noopTransactor) WithinTransaction(ctx context.Context, txFunc func(context.Context) error) error {
	return txFunc(ctx)
}
