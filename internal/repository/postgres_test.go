package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/require"
	apperrors "github.com/umalmyha/intake/internal/errors"
)

func TestPostgresErrorClassification(t *testing.T) {
	r := &postgresCustomerRepository{}

	t.Run("unique violation", func(t *testing.T) {
		err := r.classify("customer insert", "john@example.com", &pgconn.PgError{Code: "23505", ConstraintName: "customers_email_key"})
		var dupErr *apperrors.DuplicateEntryErr
		require.ErrorAs(t, err, &dupErr)
		require.Equal(t, "john@example.com", dupErr.Key())
	})

	t.Run("undefined table", func(t *testing.T) {
		err := r.classify("customer insert", "john@example.com", &pgconn.PgError{Code: "42P01"})
		var malformedErr *apperrors.MalformedQueryErr
		require.ErrorAs(t, err, &malformedErr)
	})

	t.Run("syntax error", func(t *testing.T) {
		err := r.classify("customer lookup", "john@example.com", &pgconn.PgError{Code: "42601"})
		var malformedErr *apperrors.MalformedQueryErr
		require.ErrorAs(t, err, &malformedErr)
	})

	t.Run("value too long", func(t *testing.T) {
		err := r.classify("customer insert", "john@example.com", &pgconn.PgError{Code: "22001", ColumnName: "image_path"})
		var malformedErr *apperrors.MalformedQueryErr
		require.ErrorAs(t, err, &malformedErr, "oversized value must not be reported as transient failure")
		var storageErr *apperrors.StorageErr
		require.False(t, errors.As(err, &storageErr))
	})

	t.Run("connection failure", func(t *testing.T) {
		err := r.classify("customer update", "john@example.com", &pgconn.PgError{Code: "08006"})
		var storageErr *apperrors.StorageErr
		require.ErrorAs(t, err, &storageErr)
	})

	t.Run("non postgres error", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := r.classify("customer update", "john@example.com", cause)
		var storageErr *apperrors.StorageErr
		require.ErrorAs(t, err, &storageErr)
		require.ErrorIs(t, err, cause, "cause must be preserved")
	})
}
