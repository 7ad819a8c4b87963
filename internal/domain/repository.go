package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repositories when a row does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique key already exists
var ErrDuplicate = errors.New("already exists")

// KeyValueStore is durable client storage for small string values (token, theme)
type KeyValueStore interface {
	// Get returns "" when the key is absent
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// StoredDashboard is the dashboard the development backend keeps per user per day
type StoredDashboard struct {
	ID        uuid.UUID                   `json:"dashboard_id"`
	UserID    int64                       `json:"-"`
	Day       time.Time                   `json:"day"`
	Sections  map[Section]json.RawMessage `json:"sections"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// StoredVote is one persisted vote
type StoredVote struct {
	UserID      int64
	DashboardID string
	Section     string
	Item        string
	Value       VoteValue
	Day         time.Time
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create inserts the user and sets its ID; ErrDuplicate when the email is taken
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// PreferenceRepository stores onboarding answers
type PreferenceRepository interface {
	// Upsert replaces the preferences of a user
	Upsert(ctx context.Context, prefs *Preferences) error

	// Get returns ErrNotFound when the user never onboarded
	Get(ctx context.Context, userID int64) (*Preferences, error)
}

// DashboardRepository stores one dashboard per user per day
type DashboardRepository interface {
	// GetForDay returns ErrNotFound when none exists yet
	GetForDay(ctx context.Context, userID int64, day time.Time) (*StoredDashboard, error)

	// Save inserts or replaces the dashboard
	Save(ctx context.Context, dashboard *StoredDashboard) error

	// SaveSection replaces a single section in place and returns the stored dashboard.
	// Other sections are not rewritten. ErrNotFound when no dashboard exists for the day.
	SaveSection(ctx context.Context, userID int64, day time.Time, section Section, payload json.RawMessage) (*StoredDashboard, error)
}

// VoteRepository stores votes keyed by (user, dashboard, section, item, day)
type VoteRepository interface {
	// Upsert stores the vote; a zero value deletes it
	Upsert(ctx context.Context, vote *StoredVote) error

	// ListForDay returns the votes of a user for a day, optionally scoped to one dashboard
	ListForDay(ctx context.Context, userID int64, day time.Time, dashboardID string) ([]*StoredVote, error)
}
