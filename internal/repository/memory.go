package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"cryptodash/internal/domain"
)

// dayKey buckets a stored day; the time zone was applied when the day was computed
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// MemoryStore keeps every development backend table in memory. It is used
// when no DATABASE_URL is configured and in tests.
type MemoryStore struct {
	mu          sync.RWMutex
	nextUserID  int64
	users       map[int64]*domain.User
	preferences map[int64]*domain.Preferences
	dashboards  map[string]*domain.StoredDashboard
	votes       map[string]*domain.StoredVote
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[int64]*domain.User),
		preferences: make(map[int64]*domain.Preferences),
		dashboards:  make(map[string]*domain.StoredDashboard),
		votes:       make(map[string]*domain.StoredVote),
	}
}

// Users returns the store as a UserRepository
func (s *MemoryStore) Users() domain.UserRepository { return memoryUsers{s} }

// Preferences returns the store as a PreferenceRepository
func (s *MemoryStore) Preferences() domain.PreferenceRepository { return memoryPreferences{s} }

// Dashboards returns the store as a DashboardRepository
func (s *MemoryStore) Dashboards() domain.DashboardRepository { return memoryDashboards{s} }

// Votes returns the store as a VoteRepository
func (s *MemoryStore) Votes() domain.VoteRepository { return memoryVotes{s} }

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrDuplicate
		}
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r memoryUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r memoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memoryPreferences struct{ s *MemoryStore }

func (r memoryPreferences) Upsert(ctx context.Context, prefs *domain.Preferences) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *prefs
	stored.CryptoAssets = append([]string(nil), prefs.CryptoAssets...)
	stored.ContentType = append([]string(nil), prefs.ContentType...)
	r.s.preferences[prefs.UserID] = &stored
	return nil
}

func (r memoryPreferences) Get(ctx context.Context, userID int64) (*domain.Preferences, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.preferences[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *p
	return &out, nil
}

type memoryDashboards struct{ s *MemoryStore }

func dashboardKey(userID int64, day time.Time) string {
	return dayKey(day) + "/" + strconv.FormatInt(userID, 10)
}

func (r memoryDashboards) GetForDay(ctx context.Context, userID int64, day time.Time) (*domain.StoredDashboard, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.dashboards[dashboardKey(userID, day)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneStoredDashboard(d), nil
}

func (r memoryDashboards) Save(ctx context.Context, d *domain.StoredDashboard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := dashboardKey(d.UserID, d.Day)
	stored := cloneStoredDashboard(d)
	if existing, ok := r.s.dashboards[key]; ok {
		// the row keeps its identity on conflict
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	}
	r.s.dashboards[key] = stored
	return nil
}

func (r memoryDashboards) SaveSection(ctx context.Context, userID int64, day time.Time, section domain.Section, payload json.RawMessage) (*domain.StoredDashboard, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.dashboards[dashboardKey(userID, day)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	d.Sections[section] = append(json.RawMessage(nil), payload...)
	d.UpdatedAt = time.Now()
	return cloneStoredDashboard(d), nil
}

func cloneStoredDashboard(d *domain.StoredDashboard) *domain.StoredDashboard {
	out := *d
	out.Sections = make(map[domain.Section]json.RawMessage, len(d.Sections))
	for k, v := range d.Sections {
		out.Sections[k] = append(json.RawMessage(nil), v...)
	}
	return &out
}

type memoryVotes struct{ s *MemoryStore }

func voteKey(v *domain.StoredVote) string {
	return dayKey(v.Day) + "/" + strconv.FormatInt(v.UserID, 10) + "/" + v.Section + "::" + v.Item
}

func (r memoryVotes) Upsert(ctx context.Context, v *domain.StoredVote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := voteKey(v)
	if v.Value == domain.VoteNone {
		delete(r.s.votes, key)
		return nil
	}
	stored := *v
	if existing, ok := r.s.votes[key]; ok && stored.DashboardID == "" {
		stored.DashboardID = existing.DashboardID
	}
	r.s.votes[key] = &stored
	return nil
}

func (r memoryVotes) ListForDay(ctx context.Context, userID int64, day time.Time, dashboardID string) ([]*domain.StoredVote, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	want := dayKey(day)
	var out []*domain.StoredVote
	for _, v := range r.s.votes {
		if v.UserID != userID || dayKey(v.Day) != want {
			continue
		}
		if dashboardID != "" && v.DashboardID != "" && v.DashboardID != dashboardID {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		return out[i].Item < out[j].Item
	})
	return out, nil
}
