package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"cryptodash/internal/domain"
)

// VoteRepositoryImpl implements the VoteRepository interface
type VoteRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db *pgxpool.Pool) domain.VoteRepository {
	return &VoteRepositoryImpl{db: db}
}

// Upsert stores the vote, or deletes it when the value is zero
func (r *VoteRepositoryImpl) Upsert(ctx context.Context, v *domain.StoredVote) error {
	if v.Value == domain.VoteNone {
		_, err := r.db.Exec(ctx, `
			DELETE FROM votes
			WHERE user_id = $1 AND day = $2 AND section = $3 AND item = $4
		`, v.UserID, v.Day, v.Section, v.Item)
		if err != nil {
			return fmt.Errorf("failed to delete vote: %w", err)
		}
		return nil
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO votes (user_id, dashboard_id, section, item, value, day, updated_at)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, day, section, item) DO UPDATE SET
			value = EXCLUDED.value,
			dashboard_id = COALESCE(EXCLUDED.dashboard_id, votes.dashboard_id),
			updated_at = NOW()
	`, v.UserID, v.DashboardID, v.Section, v.Item, int(v.Value), v.Day)
	if err != nil {
		return fmt.Errorf("failed to save vote: %w", err)
	}

	return nil
}

// ListForDay retrieves the votes of a user for a day
func (r *VoteRepositoryImpl) ListForDay(ctx context.Context, userID int64, day time.Time, dashboardID string) ([]*domain.StoredVote, error) {
	query := `
		SELECT user_id, COALESCE(dashboard_id::text, ''), section, item, value, day
		FROM votes
		WHERE user_id = $1 AND day = $2
		  AND ($3 = '' OR dashboard_id IS NULL OR dashboard_id::text = $3)
		ORDER BY section, item
	`

	rows, err := r.db.Query(ctx, query, userID, day, dashboardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var votes []*domain.StoredVote
	for rows.Next() {
		v := &domain.StoredVote{}
		var value int
		if err := rows.Scan(&v.UserID, &v.DashboardID, &v.Section, &v.Item, &value, &v.Day); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		v.Value = domain.VoteValue(value)
		votes = append(votes, v)
	}

	return votes, rows.Err()
}
