package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cryptodash/internal/domain"
)

// PreferenceRepositoryImpl stores onboarding answers in user_preferences
type PreferenceRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewPreferenceRepository creates a new PreferenceRepository
func NewPreferenceRepository(db *pgxpool.Pool) domain.PreferenceRepository {
	return &PreferenceRepositoryImpl{db: db}
}

// Upsert updates or creates the preferences of a user
func (r *PreferenceRepositoryImpl) Upsert(ctx context.Context, prefs *domain.Preferences) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_preferences (user_id, crypto_assets, investor_type, content_type, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			crypto_assets = EXCLUDED.crypto_assets,
			investor_type = EXCLUDED.investor_type,
			content_type = EXCLUDED.content_type,
			updated_at = EXCLUDED.updated_at
	`, prefs.UserID, prefs.CryptoAssets, prefs.InvestorType, prefs.ContentType, prefs.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save preferences for user %d: %w", prefs.UserID, err)
	}

	return nil
}

// Get retrieves the preferences of a user
func (r *PreferenceRepositoryImpl) Get(ctx context.Context, userID int64) (*domain.Preferences, error) {
	prefs := &domain.Preferences{UserID: userID}
	err := r.db.QueryRow(ctx, `
		SELECT crypto_assets, investor_type, content_type, updated_at
		FROM user_preferences
		WHERE user_id = $1
	`, userID).Scan(&prefs.CryptoAssets, &prefs.InvestorType, &prefs.ContentType, &prefs.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	return prefs, nil
}
