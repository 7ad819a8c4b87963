package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"cryptodash/internal/domain"
	"cryptodash/internal/observability"
	"cryptodash/internal/service"
)

// VoteBook is the vote state the dashboard keeps in sync
type VoteBook interface {
	SetDashboardID(id string)
	Hydrate(records []domain.VoteRecord)
	States() []service.VoteState
}

// DashboardView is everything a screen needs to render the dashboard
type DashboardView struct {
	DashboardID string                             `json:"dashboard_id,omitempty"`
	Sections    map[domain.Section]json.RawMessage `json:"sections"`
	Votes       []service.VoteState                `json:"votes"`
	Refreshing  []domain.Section                   `json:"refreshing"`
	Error       string                             `json:"error,omitempty"`
}

// DashboardService coordinates loading, per-section refresh and vote hydration
type DashboardService struct {
	api   domain.DashboardAPI
	votes VoteBook

	mu         sync.Mutex
	snapshot   *domain.Dashboard
	lastError  string
	refreshing map[domain.Section]bool

	// splices counts section splices; spliced holds the count at each section's latest splice
	splices uint64
	spliced map[domain.Section]uint64
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(api domain.DashboardAPI, votes VoteBook) *DashboardService {
	return &DashboardService{
		api:        api,
		votes:      votes,
		refreshing: make(map[domain.Section]bool),
		spliced:    make(map[domain.Section]uint64),
	}
}

// Load fetches the dashboard and today's votes, then applies both together.
// A failure of either call leaves the previous snapshot and votes untouched.
// A section refreshed while the load was in flight keeps its refreshed payload.
// errors.Is(err, domain.ErrSessionExpired) means the caller must send the user to login.
func (s *DashboardService) Load(ctx context.Context) (*domain.Dashboard, error) {
	log := observability.LoggerFromContext(ctx)

	s.mu.Lock()
	started := s.splices
	s.mu.Unlock()

	d, err := s.api.GetDashboard(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load dashboard")
	}

	records, err := s.api.GetVotesToday(ctx, d.DashboardID)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load votes")
	}

	s.mu.Lock()
	merged := mergeSnapshot(s.snapshot, d)
	if s.snapshot != nil {
		for section, at := range s.spliced {
			if payload, ok := s.snapshot.Sections[section]; ok && at > started {
				merged.Sections[section] = payload
			}
		}
	}
	s.snapshot = merged
	s.lastError = ""
	s.votes.SetDashboardID(s.snapshot.DashboardID)
	s.votes.Hydrate(records)
	snap := s.snapshot.Clone()
	s.mu.Unlock()

	log.Info("[DASHBOARD] Loaded", "dashboard_id", snap.DashboardID, "sections", len(snap.Sections), "votes", len(records))
	return snap, nil
}

// RefreshSection regenerates one section and re-hydrates votes.
// It returns false without calling the backend when the same section is
// already refreshing; other sections may refresh at the same time.
func (s *DashboardService) RefreshSection(ctx context.Context, section domain.Section) (bool, error) {
	if !section.Valid() {
		return false, fmt.Errorf("%w: %q", domain.ErrUnknownSection, section)
	}
	log := observability.LoggerFromContext(ctx).With("section", section)

	s.mu.Lock()
	if s.refreshing[section] {
		s.mu.Unlock()
		log.Debug("[DASHBOARD] Refresh already running, dropped")
		return false, nil
	}
	s.refreshing[section] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.refreshing, section)
		s.mu.Unlock()
	}()

	d, err := s.api.RefreshSection(ctx, section)
	if err != nil {
		return true, s.fail(ctx, err, "Failed to refresh section")
	}

	s.mu.Lock()
	s.snapshot = spliceSection(s.snapshot, d, section)
	s.splices++
	s.spliced[section] = s.splices
	dashboardID := s.snapshot.DashboardID
	s.mu.Unlock()

	// refreshed content may add or remove items, so the server's votes win
	records, err := s.api.GetVotesToday(ctx, dashboardID)
	if err != nil {
		return true, s.fail(ctx, err, "Failed to refresh votes")
	}

	s.mu.Lock()
	s.votes.SetDashboardID(dashboardID)
	s.votes.Hydrate(records)
	s.lastError = ""
	s.mu.Unlock()

	log.Info("[DASHBOARD] Section refreshed", "dashboard_id", dashboardID)
	return true, nil
}

// Snapshot returns a copy of the current snapshot, nil before the first load
func (s *DashboardService) Snapshot() *domain.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// LastError is the message of the most recent non-auth failure, "" after a success
func (s *DashboardService) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// IsRefreshing reports whether section is being refreshed
func (s *DashboardService) IsRefreshing(section domain.Section) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing[section]
}

// View assembles the render model
func (s *DashboardService) View() DashboardView {
	s.mu.Lock()
	view := DashboardView{
		Sections: map[domain.Section]json.RawMessage{},
		Error:    s.lastError,
	}
	if s.snapshot != nil {
		view.DashboardID = s.snapshot.DashboardID
		for k, v := range s.snapshot.Sections {
			view.Sections[k] = v
		}
	}
	for _, section := range domain.AllSections {
		if s.refreshing[section] {
			view.Refreshing = append(view.Refreshing, section)
		}
	}
	s.mu.Unlock()

	view.Votes = s.votes.States()
	return view
}

// fail records a displayable message for err; auth failures are not shown inline
func (s *DashboardService) fail(ctx context.Context, err error, fallback string) error {
	log := observability.LoggerFromContext(ctx)
	if errors.Is(err, domain.ErrSessionExpired) {
		log.Info("[DASHBOARD] Session expired, login required")
		return err
	}

	msg := domain.UserMessage(err, fallback)
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()

	log.Warn("[DASHBOARD] "+fallback, "error", err)
	return err
}

// mergeSnapshot overlays next onto prev at the sections level so a section
// missing from next keeps its previous payload. A different dashboard id
// means a new dashboard; nothing of prev is kept then.
func mergeSnapshot(prev, next *domain.Dashboard) *domain.Dashboard {
	if prev == nil || (prev.DashboardID != "" && next.DashboardID != "" && prev.DashboardID != next.DashboardID) {
		out := &domain.Dashboard{
			DashboardID: next.DashboardID,
			Preferences: next.Preferences,
			Sections:    make(map[domain.Section]json.RawMessage, len(next.Sections)),
		}
		copyKnownSections(out.Sections, next.Sections)
		return out
	}

	out := prev.Clone()
	if next.DashboardID != "" {
		out.DashboardID = next.DashboardID
	}
	if len(next.Preferences) > 0 {
		out.Preferences = next.Preferences
	}
	copyKnownSections(out.Sections, next.Sections)
	return out
}

// spliceSection takes only section from the refresh response
func spliceSection(prev, resp *domain.Dashboard, section domain.Section) *domain.Dashboard {
	if prev == nil {
		return mergeSnapshot(nil, resp)
	}
	out := prev.Clone()
	if resp.DashboardID != "" {
		out.DashboardID = resp.DashboardID
	}
	if payload, ok := resp.Sections[section]; ok {
		out.Sections[section] = payload
	}
	return out
}

func copyKnownSections(dst, src map[domain.Section]json.RawMessage) {
	for k, v := range src {
		if !k.Valid() {
			continue
		}
		dst[k] = v
	}
}
