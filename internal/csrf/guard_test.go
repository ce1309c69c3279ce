package csrf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	err error
}

func (s *failingStore) Bind(context.Context, string, string) (string, error) {
	return "", s.err
}

func (s *failingStore) Get(context.Context, string) (string, error) {
	return "", s.err
}

func (s *failingStore) Delete(context.Context, string) error {
	return s.err
}

func TestGuardLifecycle(t *testing.T) {
	ctx := context.Background()
	guard := NewGuard(NewMemoryStore(time.Hour))
	sessionID := "4d1b7f4e-5ad5-4f65-9b3f-8d2b8a3c0a11"

	t.Log("token never issued to the session is rejected")
	{
		ok, err := guard.Verify(ctx, sessionID, "f00dbabe")
		require.NoError(t, err, "missing binding must not be an error")
		require.False(t, ok, "token was never issued but verification passed")
	}

	var tkn string

	t.Log("issue token")
	{
		var err error
		tkn, err = guard.Issue(ctx, sessionID)
		require.NoError(t, err, "failed to issue token")
		require.Len(t, tkn, TokenBytes*2, "token must be hex-encoded %d bytes", TokenBytes)
	}

	t.Log("issue is idempotent within session")
	{
		again, err := guard.Issue(ctx, sessionID)
		require.NoError(t, err, "failed to issue token")
		require.Equal(t, tkn, again, "token must not change until cleared")
	}

	t.Log("exact issued token is accepted and not consumed")
	{
		for i := 0; i < 3; i++ {
			ok, err := guard.Verify(ctx, sessionID, tkn)
			require.NoError(t, err, "verification failed")
			require.True(t, ok, "issued token must be accepted on attempt %d", i+1)
		}
	}

	t.Log("other token is rejected")
	{
		ok, err := guard.Verify(ctx, sessionID, tkn[:len(tkn)-1]+"x")
		require.NoError(t, err, "verification failed")
		require.False(t, ok, "tampered token must be rejected")

		ok, err = guard.Verify(ctx, sessionID, "")
		require.NoError(t, err, "verification failed")
		require.False(t, ok, "empty token must be rejected")
	}

	t.Log("token of one session is rejected for another")
	{
		ok, err := guard.Verify(ctx, "a0b9f1b2-0c4a-4d5e-8f11-2b0c0fc4e6a3", tkn)
		require.NoError(t, err, "verification failed")
		require.False(t, ok, "token is bound to another session")
	}

	t.Log("token is rejected after clear")
	{
		require.NoError(t, guard.Clear(ctx, sessionID), "failed to clear token")

		ok, err := guard.Verify(ctx, sessionID, tkn)
		require.NoError(t, err, "verification failed")
		require.False(t, ok, "token was cleared but still accepted")
	}

	t.Log("new token is issued after clear")
	{
		fresh, err := guard.Issue(ctx, sessionID)
		require.NoError(t, err, "failed to issue token")
		require.NotEqual(t, tkn, fresh, "cleared token must not be reissued")
	}
}

func TestGuardConcurrentIssue(t *testing.T) {
	ctx := context.Background()
	guard := NewGuard(NewMemoryStore(time.Hour))
	sessionID := "0f6e2a52-9d73-4c1e-b2a4-5c9a3e7c2d10"

	const workers = 16
	tokens := make([]string, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tkn, err := guard.Issue(ctx, sessionID)
			assert.NoError(t, err, "failed to issue token")
			tokens[i] = tkn
		}(i)
	}
	wg.Wait()

	for _, tkn := range tokens {
		require.Equal(t, tokens[0], tkn, "all concurrent issues must converge on one token")
	}
}

func TestGuardStoreFailure(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection refused")
	guard := NewGuard(&failingStore{err: storeErr})

	_, err := guard.Issue(ctx, "session")
	require.ErrorIs(t, err, storeErr, "store error must be propagated on issue")

	ok, err := guard.Verify(ctx, "session", "token")
	require.ErrorIs(t, err, storeErr, "store error must be propagated on verify")
	require.False(t, ok, "failed verification must not pass")

	require.ErrorIs(t, guard.Clear(ctx, "session"), storeErr, "store error must be propagated on clear")
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 5, 14, 25, 1, 0, time.UTC)

	store := NewMemoryStore(time.Hour).(*memoryStore)
	store.now = func() time.Time { return now }

	tkn, err := store.Bind(ctx, "first", "f00dbabe")
	require.NoError(t, err, "failed to bind token")
	require.Equal(t, "f00dbabe", tkn)

	t.Log("binding is alive within time to live")
	{
		now = now.Add(59 * time.Minute)
		bound, err := store.Get(ctx, "first")
		require.NoError(t, err)
		require.Equal(t, "f00dbabe", bound)
	}

	t.Log("expired binding is gone and can be replaced")
	{
		now = now.Add(time.Minute)
		bound, err := store.Get(ctx, "first")
		require.NoError(t, err)
		require.Empty(t, bound, "expired token must not be returned")

		tkn, err := store.Bind(ctx, "first", "deadbeef")
		require.NoError(t, err, "failed to bind token")
		require.Equal(t, "deadbeef", tkn, "expired binding must not win")
	}

	t.Log("abandoned sessions are purged")
	{
		for i := 0; i < 10; i++ {
			_, err := store.Bind(ctx, fmt.Sprintf("abandoned-%d", i), "cafebabe")
			require.NoError(t, err, "failed to bind token")
		}

		now = now.Add(2 * time.Hour)
		_, err := store.Bind(ctx, "second", "0ddba11")
		require.NoError(t, err, "failed to bind token")
		require.Len(t, store.bindings, 1, "only live binding must be kept")
	}
}
