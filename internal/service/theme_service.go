package service

import (
	"context"
	"fmt"

	"cryptodash/internal/domain"
)

// Theme values
const (
	ThemeDay   = "day"
	ThemeNight = "night"
	themeKey   = "theme"
)

// ThemeService persists the day/night preference
type ThemeService struct {
	storage domain.KeyValueStore
}

// NewThemeService creates a new ThemeService
func NewThemeService(storage domain.KeyValueStore) *ThemeService {
	return &ThemeService{storage: storage}
}

// Get returns the stored theme, day when unset or unknown
func (s *ThemeService) Get(ctx context.Context) (string, error) {
	value, err := s.storage.Get(ctx, themeKey)
	if err != nil {
		return "", fmt.Errorf("failed to read theme: %w", err)
	}
	if value != ThemeNight {
		return ThemeDay, nil
	}
	return ThemeNight, nil
}

// Set stores theme, which must be day or night
func (s *ThemeService) Set(ctx context.Context, theme string) error {
	if theme != ThemeDay && theme != ThemeNight {
		return fmt.Errorf("invalid theme %q", theme)
	}
	if err := s.storage.Set(ctx, themeKey, theme); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}

// Toggle flips the theme and returns the new value
func (s *ThemeService) Toggle(ctx context.Context) (string, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	next := ThemeNight
	if current == ThemeNight {
		next = ThemeDay
	}
	if err := s.Set(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
