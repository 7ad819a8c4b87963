package console

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/configs"
	"cryptodash/internal/adapter"
	backend "cryptodash/internal/delivery/http"
	"cryptodash/internal/domain"
	"cryptodash/internal/middleware"
	"cryptodash/internal/repository"
	"cryptodash/internal/service"
	"cryptodash/internal/session"
	"cryptodash/internal/storage"
	"cryptodash/internal/usecase"
	"cryptodash/internal/utils"
)

type noCoins struct{}

func (noCoins) SearchCoins(ctx context.Context, query string) ([]domain.CoinMatch, error) {
	return nil, nil
}

func newConsole(t *testing.T) (*httptest.Server, *session.Store) {
	t.Helper()

	store := repository.NewMemoryStore()
	issuer := middleware.NewTokenIssuer("test-secret", time.Hour)
	e := echo.New()
	backend.SetupRoutes(e, &backend.RouterConfig{
		AuthHandler:      backend.NewAuthHandler(store.Users(), issuer),
		UserHandler:      backend.NewUserHandler(store.Users(), store.Preferences()),
		DashboardHandler: backend.NewDashboardHandler(store.Preferences(), store.Dashboards(), store.Votes(), service.NewSectionFeed(), utils.NewDayClock("UTC")),
		Issuer:           issuer,
	})
	api := httptest.NewServer(e)
	t.Cleanup(api.Close)

	local, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	sess, err := session.NewStore(context.Background(), local)
	require.NoError(t, err)
	client := adapter.NewAPIClient(api.URL, sess, adapter.WithUnauthorizedHandler(sess.Expire))
	toasts := service.NewToastService(nil)
	votes := service.NewVoteMachine(client, toasts)

	srv := httptest.NewServer(NewServer(Deps{
		Session:    sess,
		Auth:       usecase.NewAuthService(client, sess, toasts),
		Onboarding: usecase.NewOnboardingService(client, noCoins{}, toasts, configs.OtherPolicyOmit),
		Dashboard:  usecase.NewDashboardService(client, votes),
		Votes:      votes,
		Toasts:     toasts,
		Theme:      service.NewThemeService(local),
	}).Routes())
	t.Cleanup(srv.Close)
	return srv, sess
}

func call(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestConsole_FullFlow(t *testing.T) {
	srv, _ := newConsole(t)

	var route map[string]string
	status := call(t, http.MethodPost, srv.URL+"/signup", credentials{Name: "Ann", Email: "ann@x.io", Password: "pw"}, &route)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "/onboarding", route["route"])

	var toast map[string]any
	status = call(t, http.MethodGet, srv.URL+"/toast", nil, &toast)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Account created successfully.", toast["message"])
	assert.Equal(t, "success", toast["type"])

	status = call(t, http.MethodPost, srv.URL+"/onboarding", onboardingBody{
		CryptoAssets: []string{"bitcoin"},
		InvestorType: "long_term",
		ContentType:  []string{"market_news"},
	}, nil)
	require.Equal(t, http.StatusOK, status)

	var view usecase.DashboardView
	status = call(t, http.MethodPost, srv.URL+"/dashboard/load", nil, &view)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, view.DashboardID)
	assert.Contains(t, view.Sections, domain.SectionNews)

	var vote map[string]any
	status = call(t, http.MethodPost, srv.URL+"/votes", voteBody{Section: "prices", Item: "prices_block", Value: domain.VoteDown}, &vote)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "applied", vote["outcome"])

	var states []service.VoteState
	status = call(t, http.MethodGet, srv.URL+"/votes", nil, &states)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, states, 1)
	assert.Equal(t, domain.VoteDown, states[0].Value)

	status = call(t, http.MethodPost, srv.URL+"/dashboard/refresh/news", nil, &view)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, view.Votes, 1)

	status = call(t, http.MethodPost, srv.URL+"/dashboard/refresh/horoscope", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestConsole_InvalidVote(t *testing.T) {
	srv, _ := newConsole(t)

	var out map[string]string
	status := call(t, http.MethodPost, srv.URL+"/votes", voteBody{Section: "prices", Item: "prices_block", Value: 0}, &out)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid vote", out["error"])
}

func TestConsole_ExpiredSessionRedirects(t *testing.T) {
	srv, sess := newConsole(t)
	require.NoError(t, sess.SetSession(context.Background(), "stale"))

	var out map[string]string
	status := call(t, http.MethodPost, srv.URL+"/dashboard/load", nil, &out)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "/login", out["redirect"])
	assert.False(t, sess.IsAuthenticated())

	var info session.Info
	call(t, http.MethodGet, srv.URL+"/session", nil, &info)
	assert.False(t, info.Authenticated)
}

func TestConsole_Theme(t *testing.T) {
	srv, _ := newConsole(t)

	var body themeBody
	call(t, http.MethodGet, srv.URL+"/theme", nil, &body)
	assert.Equal(t, "day", body.Theme)

	call(t, http.MethodPost, srv.URL+"/theme/toggle", nil, &body)
	assert.Equal(t, "night", body.Theme)

	status := call(t, http.MethodPut, srv.URL+"/theme", themeBody{Theme: "sepia"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
