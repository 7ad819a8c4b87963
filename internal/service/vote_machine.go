package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cryptodash/internal/domain"
	"cryptodash/internal/observability"
)

// VoteOutcome says what a Vote call did
type VoteOutcome string

// VoteOutcome constants
const (
	VoteApplied    VoteOutcome = "applied"     // persisted and committed
	VoteUnchanged  VoteOutcome = "unchanged"   // already the committed value, nothing sent
	VoteDropped    VoteOutcome = "dropped"     // a persist for the key is in flight, nothing sent
	VoteRolledBack VoteOutcome = "rolled_back" // persist failed, committed value kept
)

// VoteResult is the structured result of one Vote call
type VoteResult struct {
	Key     domain.VoteKey
	Outcome VoteOutcome
	// Value is the committed value once the call returns
	Value domain.VoteValue
	// Err is the persist failure behind a rollback
	Err error
}

// VoteState is the displayed state of one key
type VoteState struct {
	Key     domain.VoteKey   `json:"-"`
	Section string           `json:"section"`
	Item    string           `json:"item"`
	Value   domain.VoteValue `json:"value"`
	Pending bool             `json:"pending"`
}

// VoteMachine tracks votes per key with optimistic updates.
//
// Each key is either Committed(v) or PendingFrom(v, v'): the committed map
// keeps v while the pending map holds v' until the persist call settles.
// Success promotes v' to committed, failure drops it, so a rollback always
// lands on whatever was committed when the call settled.
type VoteMachine struct {
	mu          sync.Mutex
	saver       domain.VoteSaver
	notifier    domain.Notifier
	dashboardID string
	committed   map[domain.VoteKey]domain.VoteValue
	pending     map[domain.VoteKey]domain.VoteValue
}

// NewVoteMachine creates a machine persisting through saver. notifier may be nil.
func NewVoteMachine(saver domain.VoteSaver, notifier domain.Notifier) *VoteMachine {
	return &VoteMachine{
		saver:     saver,
		notifier:  notifier,
		committed: make(map[domain.VoteKey]domain.VoteValue),
		pending:   make(map[domain.VoteKey]domain.VoteValue),
	}
}

// SetDashboardID scopes subsequent votes to a dashboard; "" sends unscoped votes
func (m *VoteMachine) SetDashboardID(id string) {
	m.mu.Lock()
	m.dashboardID = id
	m.mu.Unlock()
}

// Vote registers value (+1 or -1) for key. Only ErrInvalidVote is returned as
// an error; persist failures are reported through the result.
func (m *VoteMachine) Vote(ctx context.Context, key domain.VoteKey, value domain.VoteValue) (VoteResult, error) {
	if value != domain.VoteUp && value != domain.VoteDown {
		return VoteResult{}, fmt.Errorf("%w: %d", domain.ErrInvalidVote, value)
	}

	m.mu.Lock()
	current := m.committed[key]
	if _, busy := m.pending[key]; busy {
		m.mu.Unlock()
		return VoteResult{Key: key, Outcome: VoteDropped, Value: current}, nil
	}
	if current == value {
		m.mu.Unlock()
		return VoteResult{Key: key, Outcome: VoteUnchanged, Value: current}, nil
	}
	m.pending[key] = value
	req := domain.VoteRequest{
		DashboardID: m.dashboardID,
		Section:     key.Section,
		Item:        key.Item,
		Value:       value,
	}
	m.mu.Unlock()

	err := m.saver.SaveVote(ctx, req)

	m.mu.Lock()
	delete(m.pending, key)
	if err == nil {
		m.committed[key] = value
	}
	final := m.committed[key]
	m.mu.Unlock()

	log := observability.LoggerFromContext(ctx)
	if err != nil {
		log.Warn("[VOTE] Persist failed, rolled back", "key", key.String(), "value", value, "restored", final, "error", err)
		if m.notifier != nil {
			m.notifier.Push("Vote not saved", domain.ToastWarning)
		}
		return VoteResult{Key: key, Outcome: VoteRolledBack, Value: final, Err: err}, nil
	}

	log.Debug("[VOTE] Saved", "key", key.String(), "value", value)
	return VoteResult{Key: key, Outcome: VoteApplied, Value: final}, nil
}

// Hydrate replaces the committed votes wholesale with records.
// In-flight persists keep their pending overlay and settle against the new state.
func (m *VoteMachine) Hydrate(records []domain.VoteRecord) {
	committed := make(map[domain.VoteKey]domain.VoteValue, len(records))
	for _, r := range records {
		committed[r.Key()] = r.Value
	}

	m.mu.Lock()
	m.committed = committed
	m.mu.Unlock()
}

// Value is the displayed value of key: the pending value while a persist is in flight
func (m *VoteMachine) Value(key domain.VoteKey) domain.VoteValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.pending[key]; ok {
		return v
	}
	return m.committed[key]
}

// Committed returns the committed value of key
func (m *VoteMachine) Committed(key domain.VoteKey) domain.VoteValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committed[key]
}

// Busy reports whether a persist for key is in flight
func (m *VoteMachine) Busy(key domain.VoteKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, busy := m.pending[key]
	return busy
}

// CommittedVotes returns a copy of the committed mapping
func (m *VoteMachine) CommittedVotes() map[domain.VoteKey]domain.VoteValue {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.VoteKey]domain.VoteValue, len(m.committed))
	for k, v := range m.committed {
		out[k] = v
	}
	return out
}

// States returns the displayed state of every known key, sorted by key
func (m *VoteMachine) States() []VoteState {
	m.mu.Lock()
	seen := make(map[domain.VoteKey]VoteState, len(m.committed)+len(m.pending))
	for k, v := range m.committed {
		seen[k] = VoteState{Key: k, Section: k.Section, Item: k.Item, Value: v}
	}
	for k, v := range m.pending {
		seen[k] = VoteState{Key: k, Section: k.Section, Item: k.Item, Value: v, Pending: true}
	}
	m.mu.Unlock()

	out := make([]VoteState, 0, len(seen))
	for _, s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}
