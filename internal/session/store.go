// Package session owns the bearer token of the current user.
//
// A Store is created once at startup from durable storage and passed to the
// API client and the use cases; there is no package-level session.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cryptodash/internal/domain"
	"cryptodash/internal/observability"
)

// TokenKey is the storage key of the access token
const TokenKey = "access_token"

// Store holds the current authentication token
type Store struct {
	mu      sync.RWMutex
	token   string
	storage domain.KeyValueStore
}

// NewStore restores a previously persisted token, if any
func NewStore(ctx context.Context, storage domain.KeyValueStore) (*Store, error) {
	token, err := storage.Get(ctx, TokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return &Store{token: token, storage: storage}, nil
}

// SetSession stores token. The format is not checked; the server decides validity.
// The in-memory session is updated even when persisting fails.
func (s *Store) SetSession(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := s.storage.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Logout clears the token. Calling it without a session is fine.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if err := s.storage.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Expire is the 401 handler: it logs out and records why
func (s *Store) Expire() {
	if !s.IsAuthenticated() {
		return
	}
	observability.Logger().Warn("[SESSION] Server rejected token, logging out")
	if err := s.Logout(context.Background()); err != nil {
		observability.Logger().Error("[SESSION] Failed to clear expired session", "error", err)
	}
}

// IsAuthenticated is true iff a non-empty token is held
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the held token and whether there is one
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Info describes the held token for display. Claims are read without
// verifying the signature, so nothing here is used for access decisions.
type Info struct {
	Authenticated bool       `json:"authenticated"`
	Subject       string     `json:"subject,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Describe returns Info for the current token
func (s *Store) Describe() Info {
	token, ok := s.Token()
	if !ok {
		return Info{}
	}
	info := Info{Authenticated: true}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		// opaque tokens are fine
		return info
	}
	info.Subject = claims.Subject
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		info.ExpiresAt = &exp
	}
	return info
}
