package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/umalmyha/intake/internal/cache"
	"github.com/umalmyha/intake/internal/csrf"
	apperrors "github.com/umalmyha/intake/internal/errors"
	"github.com/umalmyha/intake/internal/model"
	"github.com/umalmyha/intake/internal/repository"
	"github.com/umalmyha/intake/internal/upload"
	"github.com/umalmyha/intake/internal/validation"
	"github.com/umalmyha/intake/pkg/db/transactor"
)

const imageField = "image"

// IntakeRequest is a single intake form submission
type IntakeRequest struct {
	Customer model.Customer
	// Image is nil if no file part was sent
	Image *upload.File
	Token string
	// Update allows to overwrite customer registered with the same email
	Update bool
}

// Outcome describes persisted customer
type Outcome struct {
	Customer *model.Customer
	Created  bool
}

type IntakeService interface {
	Token(ctx context.Context, sessionID string) (string, error)
	Submit(ctx context.Context, sessionID string, req *IntakeRequest) (*Outcome, error)
}

type intakeService struct {
	guard         *csrf.Guard
	fields        *validation.FieldValidator
	uploads       *upload.Guard
	customerRepo  repository.CustomerRepository
	customerCache cache.CustomerCache
	trx           transactor.Transactor
	logger        logrus.FieldLogger
}

func NewIntakeService(
	guard *csrf.Guard,
	fields *validation.FieldValidator,
	uploads *upload.Guard,
	customerRepo repository.CustomerRepository,
	customerCache cache.CustomerCache,
	trx transactor.Transactor,
	logger logrus.FieldLogger,
) IntakeService {
	return &intakeService{
		guard:         guard,
		fields:        fields,
		uploads:       uploads,
		customerRepo:  customerRepo,
		customerCache: customerCache,
		trx:           trx,
		logger:        logger,
	}
}

func (s *intakeService) Token(ctx context.Context, sessionID string) (string, error) {
	tkn, err := s.guard.Issue(ctx, sessionID)
	if err != nil {
		return "", apperrors.NewStorageErr("csrf issue", err)
	}
	return tkn, nil
}

func (s *intakeService) Submit(ctx context.Context, sessionID string, req *IntakeRequest) (*Outcome, error) {
	ok, err := s.guard.Verify(ctx, sessionID, req.Token)
	if err != nil {
		return nil, apperrors.NewStorageErr("csrf verify", err)
	}

	if !ok {
		return nil, apperrors.ErrForgedRequest
	}

	ext, hasImage, rejection, err := s.validateImage(req.Image)
	if err != nil {
		return nil, err
	}

	c := req.Customer
	c.ID = 0
	c.ImagePath = nil

	_, violations := s.fields.Validate(&c)
	if rejection != nil {
		violations = append(violations, *rejection)
	}

	if len(violations) > 0 {
		return nil, validation.NewPayloadError(violations...)
	}

	if hasImage {
		path, err := s.uploads.Store(ctx, req.Image, ext)
		if err != nil {
			var rejection *upload.Rejection
			if errors.As(err, &rejection) {
				return nil, validation.NewPayloadError(validation.Violation{Field: imageField, Message: rejection.Error()})
			}
			return nil, err
		}
		c.ImagePath = &path
	}

	created := false
	err = s.trx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.persist(ctx, &c, req.Update)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !created {
		if err := s.customerCache.Evict(ctx, c.Email); err != nil {
			s.logger.WithError(err).WithField("email", c.Email).Warn("failed to evict updated customer from cache")
		}
	}

	// submission is already persisted, stale token only allows another submit of the same session
	if err := s.guard.Clear(ctx, sessionID); err != nil {
		s.logger.WithError(err).WithField("session", sessionID).Warn("failed to clear csrf token after submission")
	}

	s.logger.WithFields(logrus.Fields{
		"customer": c.ID,
		"created":  created,
	}).Info("customer intake accepted")

	return &Outcome{Customer: &c, Created: created}, nil
}

func (s *intakeService) persist(ctx context.Context, c *model.Customer, update bool) (bool, error) {
	if update {
		existing, err := s.customerRepo.FindByEmail(ctx, c.Email)
		if err != nil {
			return false, err
		}

		if existing != nil {
			if c.ImagePath == nil {
				c.ImagePath = existing.ImagePath
			}

			if err := s.customerRepo.Update(ctx, c); err != nil {
				return false, err
			}
			c.ID = existing.ID
			return false, nil
		}
	}

	id, err := s.customerRepo.Insert(ctx, c)
	if err != nil {
		return false, err
	}
	c.ID = id
	return true, nil
}

// validateImage returns extension of accepted image and whether there is image to store,
// rejected image is reported as violation to be merged with field violations
func (s *intakeService) validateImage(f *upload.File) (string, bool, *validation.Violation, error) {
	ext, err := s.uploads.Validate(f)
	if err == nil {
		return ext, true, nil, nil
	}

	if errors.Is(err, upload.ErrNoFile) {
		return "", false, nil, nil
	}

	var rejection *upload.Rejection
	if errors.As(err, &rejection) {
		return "", false, &validation.Violation{Field: imageField, Message: rejection.Error()}, nil
	}
	return "", false, nil, err
}
