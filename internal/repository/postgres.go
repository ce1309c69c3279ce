package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	apperrors "github.com/umalmyha/intake/internal/errors"
	"github.com/umalmyha/intake/internal/model"
	"github.com/umalmyha/intake/pkg/db/transactor"
)

const (
	pgUniqueViolation    = "23505"
	pgSyntaxErrorClass   = "42"
	pgDataExceptionClass = "22"
)

type postgresCustomerRepository struct {
	trx transactor.PgxWithinTransactionExecutor
}

// NewPostgresCustomerRepository builds CustomerRepository on top of customers table
func NewPostgresCustomerRepository(trx transactor.PgxWithinTransactionExecutor) CustomerRepository {
	return &postgresCustomerRepository{trx: trx}
}

func (r *postgresCustomerRepository) Insert(ctx context.Context, c *model.Customer) (int64, error) {
	q := `INSERT INTO customers(lastname, firstname, email, city, country, image_path)
          VALUES($1, $2, $3, $4, $5, $6) RETURNING id`

	var id int64
	row := r.trx.Executor(ctx).QueryRow(ctx, q, c.LastName, c.FirstName, c.Email, c.City, c.Country, c.ImagePath)
	if err := row.Scan(&id); err != nil {
		return 0, r.classify("customer insert", c.Email, err)
	}
	return id, nil
}

func (r *postgresCustomerRepository) Update(ctx context.Context, c *model.Customer) error {
	q := `UPDATE customers SET lastname = $1, firstname = $2, city = $3, country = $4, image_path = $5
          WHERE email = $6`

	if _, err := r.trx.Executor(ctx).Exec(ctx, q, c.LastName, c.FirstName, c.City, c.Country, c.ImagePath, c.Email); err != nil {
		return r.classify("customer update", c.Email, err)
	}
	return nil
}

func (r *postgresCustomerRepository) FindByEmail(ctx context.Context, email string) (*model.Customer, error) {
	q := "SELECT id, lastname, firstname, email, city, country, image_path FROM customers WHERE email = $1"

	var c model.Customer
	row := r.trx.Executor(ctx).QueryRow(ctx, q, email)
	if err := row.Scan(&c.ID, &c.LastName, &c.FirstName, &c.Email, &c.City, &c.Country, &c.ImagePath); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, r.classify("customer lookup", email, err)
	}
	return &c, nil
}

func (r *postgresCustomerRepository) classify(op string, email string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return apperrors.NewDuplicateEntryErr("email", email)
		case strings.HasPrefix(pgErr.Code, pgSyntaxErrorClass), strings.HasPrefix(pgErr.Code, pgDataExceptionClass):
			// value doesn't fit schema, retry won't help
			return apperrors.NewMalformedQueryErr(op, err)
		}
	}
	return apperrors.NewStorageErr(op, err)
}
