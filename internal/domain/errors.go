package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSessionExpired is matched by any 401 response
	ErrSessionExpired = errors.New("session expired")
	ErrInvalidVote    = errors.New("invalid vote value")
	ErrUnknownSection = errors.New("unknown section")
	ErrInvalidProfile = errors.New("invalid onboarding profile")
	ErrCoinNotFound   = errors.New("coin not found")
	ErrMissingToken   = errors.New("signup did not return access_token")
	ErrMissingFields  = errors.New("required field is empty")
)

// userMessages holds the text shown for local failures
var userMessages = map[error]string{
	ErrInvalidProfile: "Select at least 1 asset, 1 investor type, and 1 content type.",
	ErrCoinNotFound:   "Coin not found – please try again",
	ErrMissingToken:   "Signup did not return access_token",
	ErrMissingFields:  "Please fill in all fields",
	ErrInvalidVote:    "Invalid vote",
	ErrUnknownSection: "Unknown section",
	ErrSessionExpired: "Session expired, please log in again",
}

// APIError is a non-2xx response from the backend
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrSessionExpired) match 401 responses
func (e *APIError) Is(target error) bool {
	return target == ErrSessionExpired && e.Status == http.StatusUnauthorized
}

// RejectedError is a 2xx answer that still refused the request
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return "request rejected: " + e.Message
}

// UserMessage picks the text to show for err: the server detail when there is one,
// the canned text for local failures, otherwise fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}
	var rejected *RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return rejected.Message
	}
	for known, msg := range userMessages {
		if errors.Is(err, known) {
			return msg
		}
	}
	return fallback
}
