package domain

import "time"

// SignupRequest is the POST /auth/signup body
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupResponse is returned by POST /auth/signup
type SignupResponse struct {
	Message         string `json:"message"`
	UserID          int64  `json:"user_id"`
	AccessToken     string `json:"access_token"`
	TokenType       string `json:"token_type"`
	NeedsOnboarding bool   `json:"needsOnboarding"`
}

// LoginRequest is the POST /auth/login body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /auth/login
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Me is returned by GET /me
type Me struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	NeedsOnboarding bool   `json:"needsOnboarding"`
}

// User represents an account stored by the development backend
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose password hash in JSON
	CreatedAt    time.Time `json:"created_at"`
}

// Route is where the caller should navigate after an auth flow
type Route string

// Route constants
const (
	RouteLogin      Route = "/login"
	RouteOnboarding Route = "/onboarding"
	RouteDashboard  Route = "/dashboard"
)
