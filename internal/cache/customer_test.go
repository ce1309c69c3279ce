package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/umalmyha/intake/internal/model"
	"github.com/umalmyha/intake/internal/testutil"
)

var redisClient *redis.Client

func TestMain(m *testing.M) {
	dckr, err := testutil.NewDocker()
	if err != nil {
		logrus.Warnf("docker is unavailable, redis cache tests will be skipped - %v", err)
		os.Exit(m.Run())
	}

	redisClient, err = dckr.Redis()
	if err != nil {
		logrus.Errorf("redis cache tests will be skipped - %v", err)
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

func TestRedisCustomerCache(t *testing.T) {
	if redisClient == nil {
		t.Skip("redis is not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	customerCache := NewRedisCustomerCache(redisClient, time.Minute)

	imagePath := "uploads/customer_20240305_142501_0123456789abcdef.jpg"
	c := &model.Customer{
		ID:        7,
		LastName:  "Doe",
		FirstName: "John",
		Email:     "john@example.com",
		City:      "Boston",
		Country:   "United States",
		ImagePath: &imagePath,
	}

	t.Log("miss is not an error")
	{
		cached, err := customerCache.FindByEmail(ctx, c.Email)
		require.NoError(t, err, "miss must not raise error")
		require.Nil(t, cached, "nothing was cached yet")
	}

	t.Log("cached customer is returned as is")
	{
		require.NoError(t, customerCache.Cache(ctx, c), "failed to cache customer")

		cached, err := customerCache.FindByEmail(ctx, c.Email)
		require.NoError(t, err, "failed to read cached customer")
		require.Equal(t, c, cached)

		ttl, err := redisClient.TTL(ctx, "customer:john@example.com").Result()
		require.NoError(t, err, "failed to read ttl")
		require.Greater(t, ttl, time.Duration(0), "cached customer must expire")
	}

	t.Log("cache never overwrites present entry")
	{
		stale := *c
		stale.City = "Stale"
		require.NoError(t, customerCache.Cache(ctx, &stale), "failed to cache customer")

		cached, err := customerCache.FindByEmail(ctx, c.Email)
		require.NoError(t, err, "failed to read cached customer")
		require.Equal(t, "Boston", cached.City)
	}

	t.Log("evicted customer is gone")
	{
		require.NoError(t, customerCache.Evict(ctx, c.Email), "failed to evict customer")

		cached, err := customerCache.FindByEmail(ctx, c.Email)
		require.NoError(t, err, "miss must not raise error")
		require.Nil(t, cached, "customer was evicted")
	}

	t.Log("customer loaded before eviction is not cached back")
	{
		stale := *c
		stale.City = "Stale"
		require.NoError(t, customerCache.Cache(ctx, &stale), "failed to cache customer")

		cached, err := customerCache.FindByEmail(ctx, c.Email)
		require.NoError(t, err, "miss must not raise error")
		require.Nil(t, cached, "stale customer must not be cached right after eviction")

		ttl, err := redisClient.TTL(ctx, "customer:john@example.com").Result()
		require.NoError(t, err, "failed to read ttl")
		require.Greater(t, ttl, time.Duration(0), "eviction must expire")
		require.LessOrEqual(t, ttl, EvictionHold, "eviction must not outlive hold")
	}

	t.Log("caching resumes once eviction expires")
	{
		require.NoError(t, redisClient.Del(ctx, "customer:john@example.com").Err(), "failed to expire eviction")
		require.NoError(t, customerCache.Cache(ctx, c), "failed to cache customer")

		cached, err := customerCache.FindByEmail(ctx, c.Email)
		require.NoError(t, err, "failed to read cached customer")
		require.Equal(t, c, cached)
	}
}

func TestNoopCustomerCache(t *testing.T) {
	ctx := context.Background()
	customerCache := NewNoopCustomerCache()

	require.NoError(t, customerCache.Cache(ctx, &model.Customer{Email: "john@example.com"}))

	cached, err := customerCache.FindByEmail(ctx, "john@example.com")
	require.NoError(t, err)
	require.Nil(t, cached, "noop cache never holds customers")
	require.NoError(t, customerCache.Evict(ctx, "john@example.com"))
}
