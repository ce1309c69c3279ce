// Package csrf binds anti-forgery tokens to sessions and verifies submitted ones.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// TokenBytes is amount of random bytes in a token, token itself is hex-encoded
const TokenBytes = 32

// Store keeps token per session
type Store interface {
	// Bind binds token to session unless some token is bound already and returns the bound one
	Bind(ctx context.Context, sessionID, token string) (string, error)
	// Get returns bound token or empty string
	Get(ctx context.Context, sessionID string) (string, error)
	// Delete removes binding, removing absent binding is not an error
	Delete(ctx context.Context, sessionID string) error
}

// Guard issues and verifies per-session tokens
type Guard struct {
	store Store
}

// NewGuard builds new Guard
func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// Issue returns token bound to the session, token is generated on first call
func (g *Guard) Issue(ctx context.Context, sessionID string) (string, error) {
	tkn, err := g.store.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to read csrf token - %w", err)
	}

	if tkn != "" {
		return tkn, nil
	}

	tkn, err = generate()
	if err != nil {
		return "", err
	}

	bound, err := g.store.Bind(ctx, sessionID, tkn)
	if err != nil {
		return "", fmt.Errorf("failed to bind csrf token - %w", err)
	}
	return bound, nil
}

// Verify reports whether presented token matches the one bound to the session.
// Missing binding is not an error, error is returned only if store failed.
func (g *Guard) Verify(ctx context.Context, sessionID, presented string) (bool, error) {
	if presented == "" {
		return false, nil
	}

	tkn, err := g.store.Get(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to read csrf token - %w", err)
	}

	if tkn == "" {
		return false, nil
	}

	return subtle.ConstantTimeCompare([]byte(tkn), []byte(presented)) == 1, nil
}

// Clear removes token bound to the session
func (g *Guard) Clear(ctx context.Context, sessionID string) error {
	if err := g.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear csrf token - %w", err)
	}
	return nil
}

func generate() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate csrf token - %w", err)
	}
	return hex.EncodeToString(b), nil
}
