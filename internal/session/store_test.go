package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: make(map[string]string)}
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *memoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()

	store, err := NewStore(ctx, kv)
	require.NoError(t, err)
	assert.False(t, store.IsAuthenticated())
	_, ok := store.Token()
	assert.False(t, ok)

	require.NoError(t, store.SetSession(ctx, "T1"))
	assert.True(t, store.IsAuthenticated())
	token, ok := store.Token()
	assert.True(t, ok)
	assert.Equal(t, "T1", token)
	assert.Equal(t, "T1", kv.values[TokenKey])

	require.NoError(t, store.Logout(ctx))
	require.NoError(t, store.Logout(ctx))
	assert.False(t, store.IsAuthenticated())
	assert.NotContains(t, kv.values, TokenKey)
}

func TestStore_RestoresPersistedToken(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	kv.values[TokenKey] = "persisted"

	store, err := NewStore(ctx, kv)
	require.NoError(t, err)

	token, ok := store.Token()
	assert.True(t, ok)
	assert.Equal(t, "persisted", token)
}

func TestStore_SetSessionKeepsMemoryStateWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	kv.setErr = errors.New("disk full")

	store, err := NewStore(ctx, kv)
	require.NoError(t, err)

	err = store.SetSession(ctx, "T1")
	assert.Error(t, err)
	assert.True(t, store.IsAuthenticated())
}

func TestStore_Expire(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, newMemoryKV())
	require.NoError(t, err)

	store.Expire()
	assert.False(t, store.IsAuthenticated())

	require.NoError(t, store.SetSession(ctx, "T1"))
	store.Expire()
	assert.False(t, store.IsAuthenticated())
}

func TestStore_Describe(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, newMemoryKV())
	require.NoError(t, err)

	assert.Equal(t, Info{}, store.Describe())

	require.NoError(t, store.SetSession(ctx, "not-a-jwt"))
	info := store.Describe()
	assert.True(t, info.Authenticated)
	assert.Empty(t, info.Subject)
	assert.Nil(t, info.ExpiresAt)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	require.NoError(t, store.SetSession(ctx, signed))
	info = store.Describe()
	assert.Equal(t, "42", info.Subject)
	require.NotNil(t, info.ExpiresAt)
	assert.True(t, exp.Equal(*info.ExpiresAt))
}
