package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	cacheMocks "github.com/umalmyha/intake/internal/cache/mocks"
	apperrors "github.com/umalmyha/intake/internal/errors"
	"github.com/umalmyha/intake/internal/model"
	rpsMocks "github.com/umalmyha/intake/internal/repository/mocks"
	"github.com/umalmyha/intake/internal/upload"
)

type customerTestData struct {
	ctx      context.Context
	customer *model.Customer
}

type customerServiceTestSuite struct {
	suite.Suite
	customerSvc       CustomerService
	customerRpsMock   *rpsMocks.CustomerRepository
	customerCacheMock *cacheMocks.CustomerCache
	testData          *customerTestData
}

func (s *customerServiceTestSuite) SetupSuite() {
	s.testData = &customerTestData{
		ctx: context.Background(),
		customer: &model.Customer{
			ID:        9,
			LastName:  "Walls",
			FirstName: "John",
			Email:     "john.walls@example.com",
			City:      "London",
			Country:   "United Kingdom",
		},
	}
}

func (s *customerServiceTestSuite) SetupTest() {
	t := s.T()
	logger, _ := test.NewNullLogger()
	s.customerRpsMock = rpsMocks.NewCustomerRepository(t)
	s.customerCacheMock = cacheMocks.NewCustomerCache(t)
	s.customerSvc = NewCustomerService(s.customerRpsMock, s.customerCacheMock, upload.NewGuard(upload.NewLocalStorage(t.TempDir())), logger)
}

func (s *customerServiceTestSuite) TestFindByEmailFromCache() {
	ctx := s.testData.ctx
	customer := s.testData.customer

	s.customerCacheMock.On("FindByEmail", ctx, customer.Email).Return(customer, nil).Once()

	s.T().Log("customer must be found in cache")
	{
		c, err := s.customerSvc.FindByEmail(ctx, customer.Email)
		s.Assert().NoError(err, "no error must be raised")
		s.Assert().Equal(customer, c)
		s.customerRpsMock.AssertNotCalled(s.T(), "FindByEmail", ctx, customer.Email)
	}
}

func (s *customerServiceTestSuite) TestFindByEmailCached() {
	ctx := s.testData.ctx
	customer := s.testData.customer

	s.customerCacheMock.On("FindByEmail", ctx, customer.Email).Return(nil, nil).Once()
	s.customerRpsMock.On("FindByEmail", ctx, customer.Email).Return(customer, nil).Once()
	s.customerCacheMock.On("Cache", ctx, customer).Return(nil).Once()

	s.T().Log("customer is not in cache, found in primary datasource and cached")
	{
		c, err := s.customerSvc.FindByEmail(ctx, customer.Email)
		s.Assert().NoError(err, "no error must be raised")
		s.Assert().Equal(customer, c)
	}
}

func (s *customerServiceTestSuite) TestFindByEmailNotFound() {
	ctx := s.testData.ctx
	customer := s.testData.customer

	s.customerCacheMock.On("FindByEmail", ctx, customer.Email).Return(nil, nil).Once()
	s.customerRpsMock.On("FindByEmail", ctx, customer.Email).Return(nil, nil).Once()

	s.T().Log("customer is missing in cache and in primary datasource")
	{
		c, err := s.customerSvc.FindByEmail(ctx, customer.Email)
		var notFound *apperrors.EntryNotFoundErr
		s.Assert().ErrorAs(err, &notFound, "not found error must be raised")
		s.Assert().Nil(c, "no customer must be present but it was found")
		s.customerCacheMock.AssertNotCalled(s.T(), "Cache", mock.Anything, mock.Anything)
	}
}

func (s *customerServiceTestSuite) TestFindByEmailCacheFailed() {
	ctx := s.testData.ctx
	customer := s.testData.customer

	s.customerCacheMock.On("FindByEmail", ctx, customer.Email).Return(nil, errors.New("cache err")).Once()
	s.customerRpsMock.On("FindByEmail", ctx, customer.Email).Return(customer, nil).Once()
	s.customerCacheMock.On("Cache", ctx, customer).Return(errors.New("cache err")).Once()

	s.T().Log("cache failures don't prevent lookup")
	{
		c, err := s.customerSvc.FindByEmail(ctx, customer.Email)
		s.Assert().NoError(err, "no error must be raised")
		s.Assert().Equal(customer, c)
	}
}

func (s *customerServiceTestSuite) TestFindByEmailStorageFailed() {
	ctx := s.testData.ctx
	customer := s.testData.customer
	storageErr := apperrors.NewStorageErr("customer lookup", errors.New("timeout"))

	s.customerCacheMock.On("FindByEmail", ctx, customer.Email).Return(nil, nil).Once()
	s.customerRpsMock.On("FindByEmail", ctx, customer.Email).Return(nil, storageErr).Once()

	_, err := s.customerSvc.FindByEmail(ctx, customer.Email)
	s.Assert().ErrorIs(err, storageErr, "storage error must be raised up")
}

func (s *customerServiceTestSuite) TestImageNotFound() {
	_, err := s.customerSvc.Image(s.testData.ctx, "customer_20240305_142501_0123456789abcdef.jpg")
	var notFound *apperrors.EntryNotFoundErr
	s.Assert().ErrorAs(err, &notFound)
}

func TestCustomerService(t *testing.T) {
	suite.Run(t, new(customerServiceTestSuite))
}
