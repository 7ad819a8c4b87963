package main

import (
	"context"
	"fmt"
	"io"

	"cryptodash/configs"
	"cryptodash/internal/adapter"
	"cryptodash/internal/service"
	"cryptodash/internal/session"
	"cryptodash/internal/storage"
	"cryptodash/internal/usecase"
)

// app is the wired client
type app struct {
	cfg        *configs.Config
	local      *storage.LocalStore
	session    *session.Store
	api        *adapter.APIClient
	toasts     *service.ToastService
	votes      *service.VoteMachine
	auth       *usecase.AuthService
	onboarding *usecase.OnboardingService
	dashboard  *usecase.DashboardService
	theme      *service.ThemeService
}

func newApp(ctx context.Context, cfg *configs.Config, toastOut io.Writer) (*app, error) {
	local, err := storage.NewLocalStore(cfg.State.Path)
	if err != nil {
		return nil, err
	}

	sess, err := session.NewStore(ctx, local)
	if err != nil {
		local.Close()
		return nil, err
	}

	api := adapter.NewAPIClient(cfg.API.BaseURL, sess,
		adapter.WithTimeout(cfg.API.Timeout),
		adapter.WithUnauthorizedHandler(sess.Expire),
	)
	toasts := service.NewToastService(func(t service.Toast) {
		fmt.Fprintf(toastOut, "[%s] %s\n", t.Level, t.Message)
	})
	votes := service.NewVoteMachine(api, toasts)

	return &app{
		cfg:        cfg,
		local:      local,
		session:    sess,
		api:        api,
		toasts:     toasts,
		votes:      votes,
		auth:       usecase.NewAuthService(api, sess, toasts),
		onboarding: usecase.NewOnboardingService(api, adapter.NewCoinGeckoClient(cfg.CoinGecko.BaseURL), toasts, cfg.Onboarding.OtherPolicy),
		dashboard:  usecase.NewDashboardService(api, votes),
		theme:      service.NewThemeService(local),
	}, nil
}

func (a *app) Close() error {
	return a.local.Close()
}
