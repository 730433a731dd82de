// Package main is the entry point for the Budget Tool API server.
// It initializes all dependencies and starts the HTTP server.
package main

import (
	"context"
	"log"
	"os"

	"budgettool/src/app/server"
	"budgettool/src/core/ports"
	"budgettool/src/infra/cache"
	"budgettool/src/infra/config"
	"budgettool/src/infra/credentials"
	"budgettool/src/infra/db"
	"budgettool/src/infra/logger"
	"budgettool/src/infra/metrics"
	"budgettool/src/infra/repo"
)

func main() {
	if err := run(); err != nil {
		log.Printf("fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log)
	log.Info("starting application",
		"port", cfg.Server.Port,
		"log_level", cfg.Log.Level,
		"env", cfg.Cache.Environment,
	)

	creds := credentials.New(logger.WithComponent(log, "credentials"))

	pgCfg, err := config.BuildPostgres(ctx, creds)
	if err != nil {
		return err
	}

	manager := db.NewManager(logger.WithComponent(log, "db"))
	defer func() {
		// a handler still holding a lease after the HTTP shutdown timeout
		// must not keep the process alive
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := manager.Shutdown(ctx); err != nil {
			log.Warn("database pool did not drain", "error", err)
		}
	}()

	pool, err := manager.Open(ctx, pgCfg, db.OptionsFromConfig(cfg.Pool))
	if err != nil {
		return err
	}

	checks := map[string]ports.ExternalService{"database": pool}

	var resultCache repo.ResultCache
	if cfg.Cache.Enabled {
		redisCfg, err := config.BuildRedis(ctx, creds, cfg.Cache.Environment)
		if err != nil {
			return err
		}
		c, err := cache.Open(ctx, redisCfg, cache.Options{
			DB:             cfg.Cache.DB,
			ConnectTimeout: cfg.Pool.ConnectTimeout,
			TTL:            cfg.Cache.TTL,
		}, logger.WithComponent(log, "cache"))
		if err != nil {
			return err
		}
		defer c.Close()

		resultCache = c
		checks["cache"] = c
	}

	registry := metrics.NewRegistry()
	registry.MustRegister(metrics.NewPoolCollector(pool))

	budgetRepo := repo.NewPostgresRepository(pool, resultCache, logger.WithComponent(log, "repo"))

	srv := server.New(cfg, log, server.Deps{
		Repo:     budgetRepo,
		Sessions: pool,
		Pool:     pool,
		Checks:   checks,
		Registry: registry,
	})

	// Run blocks until shutdown signal is received
	return srv.Run()
}
