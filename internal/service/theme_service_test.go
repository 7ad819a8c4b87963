package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore map[string]string

func (m mapStore) Get(ctx context.Context, key string) (string, error) { return m[key], nil }
func (m mapStore) Set(ctx context.Context, key, value string) error  { m[key] = value; return nil }
func (m mapStore) Delete(ctx context.Context, key string) error       { delete(m, key); return nil }

func TestThemeService(t *testing.T) {
	ctx := context.Background()
	store := mapStore{}
	s := NewThemeService(store)

	theme, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDay, theme)

	theme, err = s.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeNight, theme)
	assert.Equal(t, ThemeNight, store["theme"])

	theme, err = s.Toggle(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDay, theme)

	assert.Error(t, s.Set(ctx, "sepia"))

	store["theme"] = "garbage"
	theme, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDay, theme)
}
