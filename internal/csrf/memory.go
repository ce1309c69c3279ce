package csrf

import (
	"context"
	"sync"
	"time"
)

type binding struct {
	token     string
	expiresAt time.Time
}

type memoryStore struct {
	mu         sync.RWMutex
	bindings   map[string]binding
	timeToLive time.Duration
	lastPurge  time.Time
	now        func() time.Time
}

// NewMemoryStore builds process-local token store, binding expires timeToLive after it was made
// like in redis store, expired bindings are purged on write
func NewMemoryStore(timeToLive time.Duration) Store {
	return &memoryStore{
		bindings:   make(map[string]binding),
		timeToLive: timeToLive,
		now:        time.Now,
	}
}

func (s *memoryStore) Bind(_ context.Context, sessionID, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if b, ok := s.bindings[sessionID]; ok && now.Before(b.expiresAt) {
		return b.token, nil
	}

	s.purge(now)
	s.bindings[sessionID] = binding{token: token, expiresAt: now.Add(s.timeToLive)}
	return token, nil
}

func (s *memoryStore) Get(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.bindings[sessionID]; ok && s.now().Before(b.expiresAt) {
		return b.token, nil
	}
	return "", nil
}

func (s *memoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, sessionID)
	return nil
}

// purge drops expired bindings at most once per timeToLive, caller must hold write lock
func (s *memoryStore) purge(now time.Time) {
	if now.Sub(s.lastPurge) < s.timeToLive {
		return
	}

	for id, b := range s.bindings {
		if !now.Before(b.expiresAt) {
			delete(s.bindings, id)
		}
	}
	s.lastPurge = now
}
