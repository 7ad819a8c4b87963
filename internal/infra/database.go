package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"cryptodash/configs"
	"cryptodash/internal/observability"
)

const pingTimeout = 5 * time.Second

// NewDatabase opens the development backend pool described by cfg
func NewDatabase(ctx context.Context, cfg configs.ServerConfig) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With(
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"max_conns", poolCfg.MaxConns,
	)
	log.Info("[DB] Connecting")

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach %s: %w", poolCfg.ConnConfig.Host, err)
	}

	log.Info("[DB] Connected")
	return pool, nil
}

// poolConfig sizes the pool and pins the session time zone to the vote-day zone
func poolConfig(cfg configs.ServerConfig) (*pgxpool.Config, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database url is empty")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = cfg.DBMaxConns
	}
	poolCfg.MinConns = 0
	poolCfg.MaxConnIdleTime = 15 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	params := poolCfg.ConnConfig.RuntimeParams
	params["application_name"] = "cryptodash-dev-backend"
	if cfg.Timezone != "" {
		params["timezone"] = cfg.Timezone
	}
	return poolCfg, nil
}
