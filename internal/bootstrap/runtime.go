// Package bootstrap wires the process-wide runtime shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"profilegraph/internal/cache"
	"profilegraph/internal/config"
	"profilegraph/internal/database"
	"profilegraph/internal/middleware"
	"profilegraph/internal/observability"
	"profilegraph/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo applies the built-in demo scenario to an empty development
	// database.
	SeedDemo bool
}

// Runtime is the set of long-lived dependencies a command works with.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	// ShutdownTracing flushes spans; it is a no-op when tracing is off.
	ShutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, connects to the database and
// Redis, and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	middleware.Logger = middleware.NewLogger(cfg.Env, os.Getenv("LOG_LEVEL"))

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  observability.ServiceName,
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)

	if opts.SeedDemo {
		if err := seedDemo(cfg, db); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return &Runtime{DB: db, Redis: cache.GetClient(), ShutdownTracing: shutdown}, nil
}

// seedDemo applies the demo scenario on development databases that have no
// users yet.
func seedDemo(cfg *config.Config, db *gorm.DB) error {
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	var users int64
	if err := db.Table("users").Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	scn, err := seed.DemoScenario()
	if err != nil {
		return err
	}
	if _, err := seed.NewSeeder(db).Apply(context.Background(), scn); err != nil {
		return err
	}
	middleware.Logger.Info("demo data seeded", slog.Int("users", len(scn.Users)))
	return nil
}
