package transactor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopTransactor(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")
	errTx := errors.New("tx failed")

	trx := NewNoopTransactor()

	called := false
	err := trx.WithinTransaction(ctx, func(txCtx context.Context) error {
		called = true
		require.Equal(t, "value", txCtx.Value(key{}), "context must be passed as is")
		return nil
	})
	require.NoError(t, err)
	require.True(t, called, "function must be called")

	err = trx.WithinTransaction(ctx, func(context.Context) error { return errTx })
	require.ErrorIs(t, err, errTx, "function error must be returned")
}

func TestPgxTxValueWithoutTransaction(t *testing.T) {
	require.Nil(t, pgxTxValue(context.Background()), "no transaction is expected in empty context")
}
