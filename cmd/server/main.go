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

	"github.com/actuallystonmai/product-recommendation-service/internal/cache"
	"github.com/actuallystonmai/product-recommendation-service/internal/config"
	"github.com/actuallystonmai/product-recommendation-service/internal/docstore"
	"github.com/actuallystonmai/product-recommendation-service/internal/handler"
	"github.com/actuallystonmai/product-recommendation-service/internal/logging"
	"github.com/actuallystonmai/product-recommendation-service/internal/memstore"
	"github.com/actuallystonmai/product-recommendation-service/internal/model"
	"github.com/actuallystonmai/product-recommendation-service/internal/repository"
	"github.com/actuallystonmai/product-recommendation-service/internal/router"
	"github.com/actuallystonmai/product-recommendation-service/internal/service"
	"github.com/actuallystonmai/product-recommendation-service/seeds"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const seedValue = 42

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx := context.Background()

	// ------------ Rating store ---------------
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	if store == nil {
		// migrate-down ran and there is nothing to serve.
		return
	}
	defer closeStore()

	// ------------ Redis ---------------
	var resultCache service.ResultCache = cache.Nop{}
	if cfg.Cache.Enabled {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to parse redis url")
		}
		client := redis.NewClient(opts)
		defer client.Close()

		c := cache.NewCache(client, cfg.Cache.TTL)
		if err := c.Ping(ctx); err != nil {
			// The breaker keeps serving uncached results until Redis is back.
			logging.Warn().Err(err).Msg("redis unreachable, continuing without cache")
		} else {
			logging.Info().Msg("connected to Redis")
		}
		resultCache = c
	}

	// ---------------- Server --------------------
	engine := model.NewEngine(store, model.Config{
		CandidatePoolSize: cfg.Engine.CandidatePoolSize,
		MinPopularRatings: cfg.Engine.MinPopularRatings,
		FetchConcurrency:  cfg.Engine.FetchConcurrency,
	})
	svc := service.NewService(store, resultCache, engine)
	h := handler.NewHandler(svc, handler.BatchLimits{
		DefaultPageSize: cfg.Batch.DefaultPageSize,
		MaxPageSize:     cfg.Batch.MaxPageSize,
		MaxPage:         cfg.Batch.MaxPage,
	})

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.Setup(h, router.Options{
			CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
			RateLimitRequests:  cfg.HTTP.RateLimitRequests,
			RateLimitWindow:    cfg.HTTP.RateLimitWindow,
			RequestTimeout:     cfg.HTTP.RequestTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", srv.Addr).Str("driver", cfg.Store.Driver).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openStore connects the configured driver, prepares its schema and seeds
// it. A nil store with a nil error means the process should exit.
func openStore(ctx context.Context, cfg *config.Config) (service.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		ds, err := docstore.Connect(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = ds.Close(context.Background()) }
		logging.Info().Msg("connected to MongoDB")

		if err := ds.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		if cfg.Store.Seed {
			count, err := ds.CountUsers(ctx)
			if err != nil {
				closeFn()
				return nil, nil, fmt.Errorf("check users count: %w", err)
			}
			if count == 0 {
				if err := seeds.Load(ctx, ds, seeds.Generate(seedValue)); err != nil {
					closeFn()
					return nil, nil, err
				}
			}
		}
		return ds, closeFn, nil

	case config.DriverMemory:
		ms := memstore.New()
		if cfg.Store.Seed {
			if err := seeds.Load(ctx, ms, seeds.Generate(seedValue)); err != nil {
				return nil, nil, err
			}
		}
		return ms, func() {}, nil
	}

	// ------------ PostgreSQL ---------------
	poolConfig, err := pgxpool.ParseConfig(cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Store.DBPoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := waitForDB(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("database not ready: %w", err)
	}
	logging.Info().Msg("connected to PostgreSQL")

	// ------------ Run Migrations ---------------
	// for migrate-down using CLI command
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		defer pool.Close()
		if err := migrateDown(ctx, pool); err != nil {
			return nil, nil, fmt.Errorf("migrate down: %w", err)
		}
		return nil, nil, nil
	}

	if err := migrateUp(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate up: %w", err)
	}

	// ------------ Setup Seed Data ---------------
	if cfg.Store.Seed {
		if err := checkSeed(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("check seed: %w", err)
		}
	}

	return repository.NewRepository(pool), pool.Close, nil
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		logging.Info().Int("attempt", i+1).Msg("waiting for database")
		time.Sleep(1 * time.Second)
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func migrateDown(ctx context.Context, pool *pgxpool.Pool) error {
	sql, err := os.ReadFile("migrations/create_tables.down.sql")
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	logging.Info().Msg("migrations dropped successfully")
	return nil
}

func migrateUp(ctx context.Context, pool *pgxpool.Pool) error {
	sql, err := os.ReadFile("migrations/create_tables.up.sql")
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	logging.Info().Msg("migrations applied successfully")
	return nil
}

func checkSeed(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("check users count: %w", err)
	}
	if count > 0 {
		logging.Info().Int("users", count).Msg("database already seeded, skipping")
		return nil
	}
	return seeds.Setup(ctx, pool, seeds.Generate(seedValue))
}
