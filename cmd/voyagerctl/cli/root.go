// Package cli implements voyagerctl, the operator command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/voyager-travel/voyager/internal/app"
	"github.com/voyager-travel/voyager/internal/platform/cache"
	"github.com/voyager-travel/voyager/internal/platform/db"
)

// runtime carries configuration and lazily opened connections shared by
// subcommands.
type runtime struct {
	cfg    *app.Config
	logger *slog.Logger

	pool     *pgxpool.Pool
	redis    *redis.Client
	services *app.Services
}

func (rt *runtime) db(ctx context.Context) (*pgxpool.Pool, error) {
	if rt.pool != nil {
		return rt.pool, nil
	}
	pool, err := db.New(ctx, rt.cfg.DBOptions("voyagerctl"))
	if err != nil {
		return nil, err
	}
	rt.pool = pool
	return pool, nil
}

func (rt *runtime) wire(ctx context.Context) (*app.Services, error) {
	if rt.services != nil {
		return rt.services, nil
	}
	pool, err := rt.db(ctx)
	if err != nil {
		return nil, err
	}
	client, err := cache.New(ctx, rt.cfg.CacheOptions())
	if err != nil {
		return nil, err
	}
	rt.redis = client
	services, err := app.NewServices(ctx, rt.cfg, pool, client, rt.logger)
	if err != nil {
		return nil, err
	}
	rt.services = services
	return services, nil
}

func (rt *runtime) close() {
	if rt.services != nil {
		if err := rt.services.Close(); err != nil {
			rt.logger.Warn("close services", slog.Any("error", err))
		}
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	if rt.pool != nil {
		rt.pool.Close()
	}
}

// NewRootCommand assembles voyagerctl.
func NewRootCommand() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:           "voyagerctl",
		Short:         "Operate a Voyager back office deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			rt.cfg = cfg
			rt.logger = app.NewLogger(cfg)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.close()
		},
	}
	root.AddCommand(
		newMigrateCommand(rt),
		newVendorsCommand(rt),
		newLedgerCommand(rt),
		newJobsCommand(rt),
		newSeedCommand(rt),
	)
	return root
}

// Execute runs voyagerctl and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "voyagerctl: %v\n", err)
		os.Exit(1)
	}
}
