package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"todo-api/internal/config"
)

// NewCredentialProvider selects the provider implied by configuration.
func NewCredentialProvider(cfg *config.Config) (CredentialProvider, error) {
	if cfg.DBAuthMode == config.AuthAAD {
		return NewAADCredential(cfg.AzureClientID)
	}
	return NewStaticCredential(cfg.DatabasePassword), nil
}

// NewPool opens a pgx connection pool. Every new connection asks the
// credential provider for its password, which keeps token-based auth
// fresh without the pool knowing which mode is active.
func NewPool(ctx context.Context, cfg *config.Config, creds CredentialProvider) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.ConnConfig.RuntimeParams["application_name"] = cfg.ServiceName

	poolCfg.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
		password, err := creds.Password(ctx)
		if err != nil {
			return err
		}
		cc.Password = password
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
