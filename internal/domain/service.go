package domain

import "context"

// AuthAPI covers the authentication endpoints
type AuthAPI interface {
	Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	GetMe(ctx context.Context) (*Me, error)
}

// DashboardAPI covers dashboard and vote reads
type DashboardAPI interface {
	GetDashboard(ctx context.Context) (*Dashboard, error)
	RefreshSection(ctx context.Context, section Section) (*Dashboard, error)
	GetVotesToday(ctx context.Context, dashboardID string) ([]VoteRecord, error)
}

// VoteSaver persists one vote
type VoteSaver interface {
	SaveVote(ctx context.Context, req VoteRequest) error
}

// OnboardingAPI submits onboarding answers
type OnboardingAPI interface {
	SubmitOnboarding(ctx context.Context, req OnboardingRequest) (*OnboardingResponse, error)
}

// CoinSearcher resolves free text against a coin search service
type CoinSearcher interface {
	SearchCoins(ctx context.Context, query string) ([]CoinMatch, error)
}

// SessionManager is the part of the session store the use cases need
type SessionManager interface {
	SetSession(ctx context.Context, token string) error
	Logout(ctx context.Context) error
	IsAuthenticated() bool
}

// Notifier shows short non-blocking messages to the user
type Notifier interface {
	Push(message string, level ToastLevel)
}

// ToastLevel is the tone of a notification
type ToastLevel string

// ToastLevel constants
const (
	ToastSuccess ToastLevel = "success"
	ToastInfo    ToastLevel = "info"
	ToastWarning ToastLevel = "warning"
	ToastError   ToastLevel = "error"
)
