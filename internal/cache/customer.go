// Package cache keeps recently read customers in redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/umalmyha/intake/internal/model"
	"github.com/vmihailenco/msgpack/v5"
)

// CustomerCache is read-through cache of customers keyed by email
type CustomerCache interface {
	// FindByEmail returns nil without error on cache miss
	FindByEmail(context.Context, string) (*model.Customer, error)
	Evict(context.Context, string) error
	Cache(context.Context, *model.Customer) error
}

// EvictionHold is how long evicted entry stays blocked, reader which loaded customer before
// the update can't put it back within this window
const EvictionHold = 5 * time.Second

// evicted is tombstone value, msgpack never encodes customer as empty value
var evicted = []byte{}

type redisCustomerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCustomerCache builds CustomerCache on top of redis, entries expire after ttl
func NewRedisCustomerCache(client *redis.Client, ttl time.Duration) CustomerCache {
	return &redisCustomerCache{client: client, ttl: ttl}
}

func (r *redisCustomerCache) FindByEmail(ctx context.Context, email string) (*model.Customer, error) {
	res, err := r.client.Get(ctx, r.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	if len(res) == 0 {
		return nil, nil
	}

	var c model.Customer
	if err := msgpack.Unmarshal(res, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cached customer %s - %w", email, err)
	}
	return &c, nil
}

// Evict replaces entry with tombstone which is treated as miss and blocks Cache until it expires
func (r *redisCustomerCache) Evict(ctx context.Context, email string) error {
	return r.client.Set(ctx, r.key(email), evicted, EvictionHold).Err()
}

func (r *redisCustomerCache) Cache(ctx context.Context, c *model.Customer) error {
	encoded, err := msgpack.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode customer %s - %w", c.Email, err)
	}

	// concurrent reader may have cached fresher value already
	return r.client.SetNX(ctx, r.key(c.Email), encoded, r.ttl).Err()
}

func (r *redisCustomerCache) key(email string) string {
	return fmt.Sprintf("customer:%s", email)
}

type noopCustomerCache struct{}

// NewNoopCustomerCache builds CustomerCache which never holds anything
func NewNoopCustomerCache() CustomerCache {
	return noopCustomerCache{}
}

func (noopCustomerCache) FindByEmail(context.Context, string) (*model.Customer, error) {
	return nil, nil
}

func (noopCustomerCache) Evict(context.Context, string) error {
	return nil
}

func (noopCustomerCache) Cache(context.Context, *model.Customer) error {
	return nil
}
