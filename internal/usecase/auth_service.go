package usecase

import (
	"context"
	"errors"
	"strings"

	"cryptodash/internal/domain"
	"cryptodash/internal/observability"
)

// AuthService runs the signup, login and resume flows and decides where to go next
type AuthService struct {
	api      domain.AuthAPI
	session  domain.SessionManager
	notifier domain.Notifier
}

// NewAuthService creates a new AuthService
func NewAuthService(api domain.AuthAPI, session domain.SessionManager, notifier domain.Notifier) *AuthService {
	return &AuthService{
		api:      api,
		session:  session,
		notifier: notifier,
	}
}

// Signup creates the account, starts the session and routes to onboarding
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (domain.Route, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return "", domain.ErrMissingFields
	}

	resp, err := s.api.Signup(ctx, domain.SignupRequest{Name: name, Email: email, Password: password})
	if err != nil {
		s.notifyError(err, "Signup failed")
		return "", err
	}
	if resp.AccessToken == "" {
		s.notifyError(domain.ErrMissingToken, "Signup failed")
		return "", domain.ErrMissingToken
	}

	s.startSession(ctx, resp.AccessToken)
	s.notify("Account created successfully.", domain.ToastSuccess)
	return domain.RouteOnboarding, nil
}

// Login starts a session and routes to onboarding or the dashboard depending on /me
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Route, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", domain.ErrMissingFields
	}

	resp, err := s.api.Login(ctx, domain.LoginRequest{Email: email, Password: password})
	if err != nil {
		s.notifyError(err, "Login failed")
		return "", err
	}

	s.startSession(ctx, resp.AccessToken)
	s.notify("Logged in successfully.", domain.ToastSuccess)

	me, err := s.api.GetMe(ctx)
	if err != nil {
		s.notifyError(err, "Login failed")
		return "", err
	}
	return routeFor(me), nil
}

// Resume decides the entry route for a persisted session
func (s *AuthService) Resume(ctx context.Context) (domain.Route, *domain.Me, error) {
	if !s.session.IsAuthenticated() {
		return domain.RouteLogin, nil, nil
	}
	me, err := s.api.GetMe(ctx)
	if errors.Is(err, domain.ErrSessionExpired) {
		return domain.RouteLogin, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	return routeFor(me), me, nil
}

// Logout ends the session
func (s *AuthService) Logout(ctx context.Context) error {
	return s.session.Logout(ctx)
}

func (s *AuthService) startSession(ctx context.Context, token string) {
	if err := s.session.SetSession(ctx, token); err != nil {
		// the in-memory session still works for this run
		observability.LoggerFromContext(ctx).Warn("[AUTH] Session not persisted", "error", err)
	}
}

func (s *AuthService) notify(message string, level domain.ToastLevel) {
	if s.notifier != nil {
		s.notifier.Push(message, level)
	}
}

func (s *AuthService) notifyError(err error, fallback string) {
	s.notify(domain.UserMessage(err, fallback), domain.ToastError)
}

func routeFor(me *domain.Me) domain.Route {
	if me.NeedsOnboarding {
		return domain.RouteOnboarding
	}
	return domain.RouteDashboard
}
