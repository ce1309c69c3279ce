package csrf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v9"
)

type redisStore struct {
	client     *redis.Client
	timeToLive time.Duration
}

// NewRedisStore builds token store on top of redis, binding expires together with session
func NewRedisStore(client *redis.Client, timeToLive time.Duration) Store {
	return &redisStore{client: client, timeToLive: timeToLive}
}

func (s *redisStore) Bind(ctx context.Context, sessionID, token string) (string, error) {
	ok, err := s.client.SetNX(ctx, s.key(sessionID), token, s.timeToLive).Result()
	if err != nil {
		return "", err
	}

	if ok {
		return token, nil
	}

	// someone else has bound the token in between
	bound, err := s.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if bound == "" {
		return "", fmt.Errorf("token for session %s expired right after binding", sessionID)
	}
	return bound, nil
}

func (s *redisStore) Get(ctx context.Context, sessionID string) (string, error) {
	tkn, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return tkn, nil
}

func (s *redisStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.client.Del(ctx, s.key(sessionID)).Result(); err != nil {
		return err
	}
	return nil
}

func (s *redisStore) key(sessionID string) string {
	return fmt.Sprintf("csrf:%s", sessionID)
}
