// Package repository persists customers keyed by their unique email.
package repository

import (
	"context"

	"github.com/umalmyha/intake/internal/model"
)

// CustomerRepository is customers store, email is the natural key.
//
// Errors are one of *errors.DuplicateEntryErr, *errors.StorageErr or *errors.MalformedQueryErr.
type CustomerRepository interface {
	// Insert stores new customer and returns assigned id, taken email results in DuplicateEntryErr
	Insert(context.Context, *model.Customer) (int64, error)
	// Update overwrites customer with the same email, nothing matched is not an error
	Update(context.Context, *model.Customer) error
	// FindByEmail returns nil without error if there is no such customer
	FindByEmail(context.Context, string) (*model.Customer, error)
}

func copyCustomer(c *model.Customer) *model.Customer {
	cp := *c
	if c.ImagePath != nil {
		path := *c.ImagePath
		cp.ImagePath = &path
	}
	return &cp
}
