package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cryptodash/internal/domain"
)

// DashboardRepositoryImpl implements the DashboardRepository interface
type DashboardRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository
func NewDashboardRepository(db *pgxpool.Pool) domain.DashboardRepository {
	return &DashboardRepositoryImpl{db: db}
}

// GetForDay retrieves the dashboard of a user for a day
func (r *DashboardRepositoryImpl) GetForDay(ctx context.Context, userID int64, day time.Time) (*domain.StoredDashboard, error) {
	query := `
		SELECT id, user_id, day, sections, created_at, updated_at
		FROM dashboards
		WHERE user_id = $1 AND day = $2
	`

	d := &domain.StoredDashboard{}
	var sections []byte
	err := r.db.QueryRow(ctx, query, userID, day).Scan(
		&d.ID,
		&d.UserID,
		&d.Day,
		&sections,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}

	if err := json.Unmarshal(sections, &d.Sections); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard sections: %w", err)
	}
	return d, nil
}

// Save inserts the dashboard or replaces its sections
func (r *DashboardRepositoryImpl) Save(ctx context.Context, d *domain.StoredDashboard) error {
	sections, err := json.Marshal(d.Sections)
	if err != nil {
		return fmt.Errorf("failed to encode dashboard sections: %w", err)
	}

	query := `
		INSERT INTO dashboards (id, user_id, day, sections, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, day) DO UPDATE SET
			sections = EXCLUDED.sections,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Exec(ctx, query,
		d.ID,
		d.UserID,
		d.Day,
		sections,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save dashboard: %w", err)
	}

	return nil
}

// SaveSection rewrites one key of the sections document
func (r *DashboardRepositoryImpl) SaveSection(ctx context.Context, userID int64, day time.Time, section domain.Section, payload json.RawMessage) (*domain.StoredDashboard, error) {
	query := `
		UPDATE dashboards
		SET sections = jsonb_set(sections, ARRAY[$3::text], $4::jsonb, true),
			updated_at = NOW()
		WHERE user_id = $1 AND day = $2
		RETURNING id, user_id, day, sections, created_at, updated_at
	`

	d := &domain.StoredDashboard{}
	var sections []byte
	err := r.db.QueryRow(ctx, query, userID, day, string(section), string(payload)).Scan(
		&d.ID,
		&d.UserID,
		&d.Day,
		&sections,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save dashboard section: %w", err)
	}

	if err := json.Unmarshal(sections, &d.Sections); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard sections: %w", err)
	}
	return d, nil
}
