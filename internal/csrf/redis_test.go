package csrf

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/umalmyha/intake/internal/testutil"
)

var redisClient *redis.Client

func TestMain(m *testing.M) {
	dckr, err := testutil.NewDocker()
	if err != nil {
		logrus.Warnf("docker is unavailable, redis tests will be skipped - %v", err)
		os.Exit(m.Run())
	}

	redisClient, err = dckr.Redis()
	if err != nil {
		logrus.Errorf("redis tests will be skipped - %v", err)
	}

	code := m.Run()

	if redisClient != nil {
		_ = redisClient.Close()
	}

	for _, err := range dckr.Purge() {
		logrus.Error(err)
	}
	os.Exit(code)
}

func TestRedisStore(t *testing.T) {
	if redisClient == nil {
		t.Skip("redis is not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := NewRedisStore(redisClient, time.Minute)
	sessionID := "9a4c1d3e-8b7f-4a2e-9c6d-3f1e5b7a9c2d"

	t.Log("empty session has no token")
	{
		tkn, err := store.Get(ctx, sessionID)
		require.NoError(t, err, "failed to read token")
		require.Empty(t, tkn, "no token must be bound")
	}

	t.Log("first bind wins")
	{
		bound, err := store.Bind(ctx, sessionID, "first")
		require.NoError(t, err, "failed to bind token")
		require.Equal(t, "first", bound, "token must be bound")

		bound, err = store.Bind(ctx, sessionID, "second")
		require.NoError(t, err, "failed to bind token")
		require.Equal(t, "first", bound, "already bound token must be returned")
	}

	t.Log("binding expires together with session")
	{
		ttl, err := redisClient.TTL(ctx, "csrf:"+sessionID).Result()
		require.NoError(t, err, "failed to read ttl")
		require.Greater(t, ttl, time.Duration(0), "binding must expire")
	}

	t.Log("delete removes binding")
	{
		require.NoError(t, store.Delete(ctx, sessionID), "failed to delete token")

		tkn, err := store.Get(ctx, sessionID)
		require.NoError(t, err, "failed to read token")
		require.Empty(t, tkn, "token was deleted but still present")
	}

	t.Log("guard works on top of redis")
	{
		guard := NewGuard(store)
		tkn, err := guard.Issue(ctx, sessionID)
		require.NoError(t, err, "failed to issue token")

		ok, err := guard.Verify(ctx, sessionID, tkn)
		require.NoError(t, err, "failed to verify token")
		require.True(t, ok, "issued token must be accepted")
	}
}
