package usecase

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"cryptodash/internal/domain"
)

// MockDashboardAPI is a mock implementation of domain.DashboardAPI for testing
type MockDashboardAPI struct {
	mock.Mock
}

func (m *MockDashboardAPI) GetDashboard(ctx context.Context) (*domain.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

func (m *MockDashboardAPI) RefreshSection(ctx context.Context, section domain.Section) (*domain.Dashboard, error) {
	args := m.Called(ctx, section)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

func (m *MockDashboardAPI) GetVotesToday(ctx context.Context, dashboardID string) ([]domain.VoteRecord, error) {
	args := m.Called(ctx, dashboardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VoteRecord), args.Error(1)
}

// MockAuthAPI is a mock implementation of domain.AuthAPI for testing
type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) Signup(ctx context.Context, req domain.SignupRequest) (*domain.SignupResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignupResponse), args.Error(1)
}

func (m *MockAuthAPI) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoginResponse), args.Error(1)
}

func (m *MockAuthAPI) GetMe(ctx context.Context) (*domain.Me, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Me), args.Error(1)
}

// MockOnboardingAPI is a mock implementation of domain.OnboardingAPI for testing
type MockOnboardingAPI struct {
	mock.Mock
}

func (m *MockOnboardingAPI) SubmitOnboarding(ctx context.Context, req domain.OnboardingRequest) (*domain.OnboardingResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OnboardingResponse), args.Error(1)
}

// MockCoinSearcher is a mock implementation of domain.CoinSearcher for testing
type MockCoinSearcher struct {
	mock.Mock
}

func (m *MockCoinSearcher) SearchCoins(ctx context.Context, query string) ([]domain.CoinMatch, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CoinMatch), args.Error(1)
}

// fakeSession keeps the token in memory
type fakeSession struct {
	mu         sync.Mutex
	token      string
	persistErr error
}

func (f *fakeSession) SetSession(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	return f.persistErr
}

func (f *fakeSession) Logout(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	return nil
}

func (f *fakeSession) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token != ""
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

func (r *recordingNotifier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}
