package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"cryptodash/configs"
	"cryptodash/internal/database"
	httpdelivery "cryptodash/internal/delivery/http"
	"cryptodash/internal/domain"
	"cryptodash/internal/infra"
	"cryptodash/internal/middleware"
	"cryptodash/internal/observability"
	"cryptodash/internal/repository"
	"cryptodash/internal/service"
	"cryptodash/internal/utils"
)

type repositories struct {
	users       domain.UserRepository
	preferences domain.PreferenceRepository
	dashboards  domain.DashboardRepository
	votes       domain.VoteRepository
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found, using environment variables")
	}

	cfg, err := configs.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := observability.Setup(cfg.Log)

	ctx := context.Background()

	repos, closeDB, err := openRepositories(ctx, cfg.Server)
	if err != nil {
		log.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	issuer := middleware.NewTokenIssuer(cfg.Server.JWTSecret, cfg.Server.JWTTTL)
	clock := utils.NewDayClock(cfg.Server.Timezone)
	feed := service.NewSectionFeed()
	if cfg.Server.LivePrices {
		feed.WithPriceSource(service.NewMarketPriceService(cfg.CoinGecko.BaseURL))
	}

	e := echo.New()
	e.HideBanner = true
	httpdelivery.SetupRoutes(e, &httpdelivery.RouterConfig{
		AuthHandler:      httpdelivery.NewAuthHandler(repos.users, issuer),
		UserHandler:      httpdelivery.NewUserHandler(repos.users, repos.preferences),
		DashboardHandler: httpdelivery.NewDashboardHandler(repos.preferences, repos.dashboards, repos.votes, feed, clock),
		Issuer:           issuer,
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("[OK] Cryptodash dev backend starting", "addr", addr, "env", cfg.Server.Env, "timezone", clock.Location().String())

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("[OK] Server exited gracefully")
}

// openRepositories uses PostgreSQL when a database URL is set and memory otherwise
func openRepositories(ctx context.Context, cfg configs.ServerConfig) (*repositories, func(), error) {
	if cfg.DatabaseURL == "" {
		observability.Logger().Warn("DATABASE_URL not set, using in-memory storage")
		store := repository.NewMemoryStore()
		return &repositories{
			users:       store.Users(),
			preferences: store.Preferences(),
			dashboards:  store.Dashboards(),
			votes:       store.Votes(),
		}, func() {}, nil
	}

	db, err := infra.NewDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return &repositories{
		users:       repository.NewUserRepository(db),
		preferences: repository.NewPreferenceRepository(db),
		dashboards:  repository.NewDashboardRepository(db),
		votes:       repository.NewVoteRepository(db),
	}, db.Close, nil
}
