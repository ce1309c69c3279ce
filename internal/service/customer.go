// Package service sequences intake pipeline and customer lookups.
package service

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/umalmyha/intake/internal/cache"
	apperrors "github.com/umalmyha/intake/internal/errors"
	"github.com/umalmyha/intake/internal/model"
	"github.com/umalmyha/intake/internal/repository"
	"github.com/umalmyha/intake/internal/upload"
)

type CustomerService interface {
	FindByEmail(context.Context, string) (*model.Customer, error)
	Image(context.Context, string) (io.ReadCloser, error)
}

type customerService struct {
	customerRepo  repository.CustomerRepository
	customerCache cache.CustomerCache
	uploads       *upload.Guard
	logger        logrus.FieldLogger
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	customerCache cache.CustomerCache,
	uploads *upload.Guard,
	logger logrus.FieldLogger,
) CustomerService {
	return &customerService{
		customerRepo:  customerRepo,
		customerCache: customerCache,
		uploads:       uploads,
		logger:        logger,
	}
}

// FindByEmail looks customer up in cache first, missing customer results in EntryNotFoundErr
func (s *customerService) FindByEmail(ctx context.Context, email string) (*model.Customer, error) {
	c, err := s.customerCache.FindByEmail(ctx, email)
	if err != nil {
		// cache is optional, primary store still can answer
		s.logger.WithError(err).WithField("email", email).Warn("failed to read customer from cache")
	}

	if c != nil {
		return c, nil
	}

	c, err = s.customerRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if c == nil {
		return nil, apperrors.NewEntryNotFoundErr(fmt.Sprintf("customer with email %s doesn't exist", email))
	}

	if err := s.customerCache.Cache(ctx, c); err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("failed to cache customer")
	}
	return c, nil
}

func (s *customerService) Image(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.uploads.Open(ctx, name)
}
