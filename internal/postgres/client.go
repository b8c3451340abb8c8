package postgres

import (
	"context"

	"github.com/flexprice/contractflow/internal/config"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/types"
	"go.uber.org/fx"
)

// IClient is the transaction and locking surface the services depend on
type IClient interface {
	// WithTx wraps the given function in a transaction
	WithTx(ctx context.Context, fn func(context.Context) error) error

	// LockKey takes a transaction scoped advisory lock
	LockKey(ctx context.Context, req types.LockRequest) error

	// TryLockKey takes the advisory lock only if it is free
	TryLockKey(ctx context.Context, key string) (bool, error)
}

// Module provides the database pool and the client to the fx graph
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewDB,
			NewClient,
		),
		fx.Invoke(registerHooks),
	)
}

// Client is the IClient backed by a postgres pool
type Client struct {
	*DB
}

func NewClient(db *DB) IClient {
	return &Client{DB: db}
}

func registerHooks(lc fx.Lifecycle, db *DB, cfg *config.Configuration, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !cfg.Postgres.AutoMigrate {
				return nil
			}
			return Migrate(ctx, db, log)
		},
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
}
