package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"storehub/database"
	"storehub/internal/config"
	"storehub/internal/logger"
	"storehub/internal/microservices/http-api/middleware"
	"storehub/internal/microservices/http-api/router"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("api server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("closing database", zap.Error(err))
		}
	}()

	if cfg.AutoMigrate {
		if err := database.Migrate(db, log); err != nil {
			return err
		}
	}

	if err := router.Setup(cfg.IsProduction()); err != nil {
		return err
	}

	opts := router.Options{
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
		Health:      pinger(db),
	}
	if cfg.RateLimitEnabled {
		closeLimiters, err := limiters(ctx, cfg, log, &opts)
		if err != nil {
			return err
		}
		defer closeLimiters()
	}

	engine := router.New(router.NewServices(db, cfg, log), opts)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.GoEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("server exited gracefully")
	return nil
}

// limiters picks Redis-backed counters when a Redis URL is configured so every instance
// shares one budget; otherwise counters stay in process.
func limiters(ctx context.Context, cfg *config.Config, log *zap.Logger, opts *router.Options) (func(), error) {
	if !cfg.UsesRedis() {
		opts.Limiter = middleware.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitMaxKeys)
		opts.AuthLimiter = middleware.NewMemoryLimiter(cfg.AuthRateLimitRequests, cfg.AuthRateLimitWindow, cfg.RateLimitMaxKeys)
		log.Info("rate limiting in memory")
		return func() {}, nil
	}

	client, err := middleware.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	opts.Limiter = middleware.NewRedisLimiter(client, "storehub:rl:", cfg.RateLimitRequests, cfg.RateLimitWindow)
	opts.AuthLimiter = middleware.NewRedisLimiter(client, "storehub:rl:", cfg.AuthRateLimitRequests, cfg.AuthRateLimitWindow)
	log.Info("rate limiting in redis")
	return func() {
		if err := client.Close(); err != nil {
			log.Warn("closing redis", zap.Error(err))
		}
	}, nil
}

func pinger(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
