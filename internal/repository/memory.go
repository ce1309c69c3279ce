package repository

import (
	"context"
	"sync"

	apperrors "github.com/umalmyha/intake/internal/errors"
	"github.com/umalmyha/intake/internal/model"
)

type memoryCustomerRepository struct {
	mu        sync.RWMutex
	lastID    int64
	customers map[string]*model.Customer
}

// NewMemoryCustomerRepository builds CustomerRepository which keeps customers in process memory
func NewMemoryCustomerRepository() CustomerRepository {
	return &memoryCustomerRepository{customers: make(map[string]*model.Customer)}
}

func (r *memoryCustomerRepository) Insert(_ context.Context, c *model.Customer) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.customers[c.Email]; ok {
		return 0, apperrors.NewDuplicateEntryErr("email", c.Email)
	}

	r.lastID++
	stored := copyCustomer(c)
	stored.ID = r.lastID
	r.customers[c.Email] = stored
	return stored.ID, nil
}

func (r *memoryCustomerRepository) Update(_ context.Context, c *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.customers[c.Email]
	if !ok {
		return nil
	}

	updated := copyCustomer(c)
	updated.ID = existing.ID
	r.customers[c.Email] = updated
	return nil
}

func (r *memoryCustomerRepository) FindByEmail(_ context.Context, email string) (*model.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[email]
	if !ok {
		return nil, nil
	}
	return copyCustomer(c), nil
}
