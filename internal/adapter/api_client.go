package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"cryptodash/internal/domain"
	"cryptodash/internal/observability"
)

// Backend endpoints
const (
	pathSignup     = "/auth/signup"
	pathLogin      = "/auth/login"
	pathMe         = "/me"
	pathOnboarding = "/onboarding"
	pathDashboard  = "/dashboard"
	pathRefresh    = "/dashboard/refresh/"
	pathVotes      = "/votes"
)

// TokenSource supplies the bearer token, if any, at send time
type TokenSource interface {
	Token() (string, bool)
}

// APIClient is the typed gateway to the dashboard backend.
// It does not retry; a zero timeout means requests wait as long as ctx allows.
type APIClient struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized func()
}

// Option configures an APIClient
type Option func(*APIClient)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(client *http.Client) Option {
	return func(c *APIClient) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout of the default client
func WithTimeout(timeout time.Duration) Option {
	return func(c *APIClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithUnauthorizedHandler registers fn to run when a request that carried a
// bearer token is answered with 401
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *APIClient) {
		c.onUnauthorized = fn
	}
}

// NewAPIClient creates a client for the backend at baseURL
func NewAPIClient(baseURL string, tokens TokenSource, opts ...Option) *APIClient {
	c := &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Signup creates an account
func (c *APIClient) Signup(ctx context.Context, req domain.SignupRequest) (*domain.SignupResponse, error) {
	var resp domain.SignupResponse
	if err := c.do(ctx, http.MethodPost, pathSignup, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for an access token
func (c *APIClient) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	if err := c.do(ctx, http.MethodPost, pathLogin, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetMe returns the current user
func (c *APIClient) GetMe(ctx context.Context) (*domain.Me, error) {
	var resp domain.Me
	if err := c.do(ctx, http.MethodGet, pathMe, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitOnboarding stores onboarding answers
func (c *APIClient) SubmitOnboarding(ctx context.Context, req domain.OnboardingRequest) (*domain.OnboardingResponse, error) {
	var resp domain.OnboardingResponse
	if err := c.do(ctx, http.MethodPost, pathOnboarding, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetDashboard fetches today's dashboard
func (c *APIClient) GetDashboard(ctx context.Context) (*domain.Dashboard, error) {
	var resp domain.Dashboard
	if err := c.do(ctx, http.MethodGet, pathDashboard, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshSection asks the backend to regenerate one section; the whole dashboard comes back
func (c *APIClient) RefreshSection(ctx context.Context, section domain.Section) (*domain.Dashboard, error) {
	var resp domain.Dashboard
	path := pathRefresh + url.PathEscape(string(section))
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SaveVote persists one vote
func (c *APIClient) SaveVote(ctx context.Context, req domain.VoteRequest) error {
	var resp domain.MessageResponse
	return c.do(ctx, http.MethodPost, pathVotes, req, &resp)
}

// GetVotesToday lists today's votes, scoped to dashboardID when it is not empty
func (c *APIClient) GetVotesToday(ctx context.Context, dashboardID string) ([]domain.VoteRecord, error) {
	qs := url.Values{}
	qs.Set("date", "today")
	if dashboardID != "" {
		qs.Set("dashboard_id", dashboardID)
	}

	var resp []domain.VoteRecord
	if err := c.do(ctx, http.MethodGet, pathVotes+"?"+qs.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		resp = []domain.VoteRecord{}
	}
	return resp, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	requestID := observability.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	token, authed := "", false
	if c.tokens != nil {
		token, authed = c.tokens.Token()
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := observability.LoggerFromContext(ctx).With("request_id", requestID)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("[API] Request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	log.Debug("[API] Response", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		apiErr := &domain.APIError{Status: resp.StatusCode, Message: parseErrorMessage(raw)}
		if resp.StatusCode == http.StatusUnauthorized && authed && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorMessage extracts a human readable message from an error body.
// FastAPI uses "detail" (a string, or a list of {msg}); others use "message" or "error".
func parseErrorMessage(raw []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	if msg := rawText(body.Detail); msg != "" {
		return msg
	}
	if body.Message != "" {
		return body.Message
	}
	return rawText(body.Error)
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}
