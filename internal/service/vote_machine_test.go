package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/domain"
)

// MockVoteSaver is a mock implementation of VoteSaver for testing
type MockVoteSaver struct {
	mock.Mock
}

func (m *MockVoteSaver) SaveVote(ctx context.Context, req domain.VoteRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// gatedSaver blocks every SaveVote until the test releases it
type gatedSaver struct {
	mu      sync.Mutex
	calls   []domain.VoteRequest
	started chan domain.VoteRequest
	release chan error
}

func newGatedSaver() *gatedSaver {
	return &gatedSaver{
		started: make(chan domain.VoteRequest, 8),
		release: make(chan error),
	}
}

func (g *gatedSaver) SaveVote(ctx context.Context, req domain.VoteRequest) error {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()
	g.started <- req
	return <-g.release
}

func (g *gatedSaver) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Push(message string, level domain.ToastLevel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, string(level)+":"+message)
}

func waitStarted(t *testing.T, g *gatedSaver) domain.VoteRequest {
	t.Helper()
	select {
	case req := <-g.started:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("persist call never started")
		return domain.VoteRequest{}
	}
}

func TestVoteMachine_SucceedsThenIdempotentRevote(t *testing.T) {
	ctx := context.Background()
	saver := new(MockVoteSaver)
	key := domain.VoteKey{Section: "news", Item: "headline-1"}

	saver.On("SaveVote", mock.Anything, domain.VoteRequest{Section: "news", Item: "headline-1", Value: domain.VoteUp}).Return(nil).Once()

	m := NewVoteMachine(saver, nil)

	res, err := m.Vote(ctx, key, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, VoteApplied, res.Outcome)
	assert.Equal(t, domain.VoteUp, m.Committed(key))
	assert.False(t, m.Busy(key))

	res, err = m.Vote(ctx, key, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, VoteUnchanged, res.Outcome)
	assert.Equal(t, domain.VoteUp, res.Value)

	saver.AssertNumberOfCalls(t, "SaveVote", 1)
}

func TestVoteMachine_IdempotentAgainstHydratedValue(t *testing.T) {
	saver := new(MockVoteSaver)
	m := NewVoteMachine(saver, nil)
	m.Hydrate([]domain.VoteRecord{{Section: "prices", Item: "prices_block", Value: domain.VoteDown}})

	res, err := m.Vote(context.Background(), domain.VoteKey{Section: "prices", Item: "prices_block"}, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, VoteUnchanged, res.Outcome)
	saver.AssertNotCalled(t, "SaveVote", mock.Anything, mock.Anything)
}

func TestVoteMachine_RollbackOnNetworkError(t *testing.T) {
	ctx := context.Background()
	saver := new(MockVoteSaver)
	notifier := &recordingNotifier{}
	key := domain.VoteKey{Section: "meme", Item: "url123"}
	netErr := errors.New("connection reset")

	saver.On("SaveVote", mock.Anything, mock.Anything).Return(netErr)

	m := NewVoteMachine(saver, notifier)

	res, err := m.Vote(ctx, key, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, VoteRolledBack, res.Outcome)
	assert.Equal(t, domain.VoteNone, res.Value)
	assert.ErrorIs(t, res.Err, netErr)

	assert.Equal(t, domain.VoteNone, m.Committed(key))
	assert.Equal(t, domain.VoteNone, m.Value(key))
	assert.False(t, m.Busy(key))
	assert.Equal(t, []string{"warning:Vote not saved"}, notifier.messages)
}

func TestVoteMachine_RollbackRestoresPriorNonZeroVote(t *testing.T) {
	saver := new(MockVoteSaver)
	key := domain.VoteKey{Section: "news", Item: "h"}
	saver.On("SaveVote", mock.Anything, mock.Anything).Return(&domain.APIError{Status: 500})

	m := NewVoteMachine(saver, nil)
	m.Hydrate([]domain.VoteRecord{{Section: "news", Item: "h", Value: domain.VoteDown}})

	res, err := m.Vote(context.Background(), key, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, VoteRolledBack, res.Outcome)
	assert.Equal(t, domain.VoteDown, m.Committed(key))
	assert.False(t, m.Busy(key))
}

func TestVoteMachine_RejectsNeutralAndOutOfRange(t *testing.T) {
	saver := new(MockVoteSaver)
	m := NewVoteMachine(saver, nil)

	for _, v := range []domain.VoteValue{domain.VoteNone, 2, -5} {
		_, err := m.Vote(context.Background(), domain.VoteKey{Section: "news", Item: "h"}, v)
		assert.ErrorIs(t, err, domain.ErrInvalidVote)
	}
	saver.AssertNotCalled(t, "SaveVote", mock.Anything, mock.Anything)
}

func TestVoteMachine_SendsDashboardScope(t *testing.T) {
	saver := new(MockVoteSaver)
	saver.On("SaveVote", mock.Anything, domain.VoteRequest{DashboardID: "d1", Section: "ai_insight", Item: "today_insight", Value: domain.VoteUp}).Return(nil)

	m := NewVoteMachine(saver, nil)
	m.SetDashboardID("d1")

	_, err := m.Vote(context.Background(), domain.VoteKey{Section: "ai_insight", Item: "today_insight"}, domain.VoteUp)
	require.NoError(t, err)
	saver.AssertExpectations(t)
}

func TestVoteMachine_BusyKeyDropsSecondVote(t *testing.T) {
	ctx := context.Background()
	saver := newGatedSaver()
	key := domain.VoteKey{Section: "news", Item: "headline-1"}
	m := NewVoteMachine(saver, nil)

	done := make(chan VoteResult, 1)
	go func() {
		res, _ := m.Vote(ctx, key, domain.VoteUp)
		done <- res
	}()
	waitStarted(t, saver)

	// optimistic value is visible while pending
	assert.True(t, m.Busy(key))
	assert.Equal(t, domain.VoteUp, m.Value(key))
	assert.Equal(t, domain.VoteNone, m.Committed(key))

	res, err := m.Vote(ctx, key, domain.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, VoteDropped, res.Outcome)
	res, err = m.Vote(ctx, key, domain.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, VoteDropped, res.Outcome)

	saver.release <- nil
	first := <-done

	assert.Equal(t, VoteApplied, first.Outcome)
	assert.Equal(t, 1, saver.callCount())
	assert.Equal(t, domain.VoteUp, m.Committed(key))
	assert.False(t, m.Busy(key))
}

func TestVoteMachine_DifferentKeysInFlightTogether(t *testing.T) {
	ctx := context.Background()
	saver := newGatedSaver()
	m := NewVoteMachine(saver, nil)
	a := domain.VoteKey{Section: "news", Item: "a"}
	b := domain.VoteKey{Section: "news", Item: "b"}

	done := make(chan VoteResult, 2)
	go func() {
		res, _ := m.Vote(ctx, a, domain.VoteUp)
		done <- res
	}()
	go func() {
		res, _ := m.Vote(ctx, b, domain.VoteDown)
		done <- res
	}()
	waitStarted(t, saver)
	waitStarted(t, saver)

	assert.True(t, m.Busy(a))
	assert.True(t, m.Busy(b))

	// settle out of order: whichever call receives first gets the failure
	saver.release <- errors.New("boom")
	saver.release <- nil
	results := []VoteResult{<-done, <-done}

	outcomes := map[VoteOutcome]int{}
	for _, r := range results {
		outcomes[r.Outcome]++
	}
	assert.Equal(t, map[VoteOutcome]int{VoteApplied: 1, VoteRolledBack: 1}, outcomes)
	assert.False(t, m.Busy(a))
	assert.False(t, m.Busy(b))
}

func TestVoteMachine_HydrateReplacesWholesale(t *testing.T) {
	m := NewVoteMachine(new(MockVoteSaver), nil)

	m.Hydrate([]domain.VoteRecord{
		{Section: "news", Item: "old", Value: domain.VoteUp},
		{Section: "prices", Item: "prices_block", Value: domain.VoteDown},
	})
	m.Hydrate([]domain.VoteRecord{
		{Section: "prices", Item: "prices_block", Value: domain.VoteUp},
		{Section: "meme", Item: "m", Value: domain.VoteDown},
	})

	assert.Equal(t, map[domain.VoteKey]domain.VoteValue{
		{Section: "prices", Item: "prices_block"}: domain.VoteUp,
		{Section: "meme", Item: "m"}:              domain.VoteDown,
	}, m.CommittedVotes())
}

func TestVoteMachine_HydrateWhilePending(t *testing.T) {
	ctx := context.Background()
	key := domain.VoteKey{Section: "news", Item: "h"}

	t.Run("failure keeps hydrated value", func(t *testing.T) {
		saver := newGatedSaver()
		m := NewVoteMachine(saver, nil)
		done := make(chan VoteResult, 1)
		go func() {
			res, _ := m.Vote(ctx, key, domain.VoteUp)
			done <- res
		}()
		waitStarted(t, saver)

		m.Hydrate([]domain.VoteRecord{{Section: "news", Item: "h", Value: domain.VoteDown}})
		assert.True(t, m.Busy(key))
		assert.Equal(t, domain.VoteUp, m.Value(key))

		saver.release <- errors.New("timeout")
		res := <-done
		assert.Equal(t, VoteRolledBack, res.Outcome)
		assert.Equal(t, domain.VoteDown, m.Committed(key))
	})

	t.Run("success wins over hydrated value", func(t *testing.T) {
		saver := newGatedSaver()
		m := NewVoteMachine(saver, nil)
		done := make(chan VoteResult, 1)
		go func() {
			res, _ := m.Vote(ctx, key, domain.VoteUp)
			done <- res
		}()
		waitStarted(t, saver)

		m.Hydrate(nil)
		saver.release <- nil
		<-done
		assert.Equal(t, domain.VoteUp, m.Committed(key))
	})
}

func TestVoteMachine_States(t *testing.T) {
	ctx := context.Background()
	saver := newGatedSaver()
	m := NewVoteMachine(saver, nil)
	m.Hydrate([]domain.VoteRecord{
		{Section: "prices", Item: "prices_block", Value: domain.VoteUp},
		{Section: "meme", Item: "m", Value: domain.VoteDown},
	})

	done := make(chan struct{})
	go func() {
		m.Vote(ctx, domain.VoteKey{Section: "news", Item: "n"}, domain.VoteDown)
		close(done)
	}()
	waitStarted(t, saver)

	states := m.States()
	require.Len(t, states, 3)
	assert.Equal(t, "meme", states[0].Section)
	assert.Equal(t, "news", states[1].Section)
	assert.True(t, states[1].Pending)
	assert.Equal(t, domain.VoteDown, states[1].Value)
	assert.Equal(t, "prices", states[2].Section)
	assert.False(t, states[2].Pending)

	saver.release <- nil
	<-done
}
