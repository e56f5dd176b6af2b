package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/finledger/internal/adapter/http"
	"github.com/iho/finledger/internal/adapter/http/handler"
	"github.com/iho/finledger/internal/adapter/http/middleware"
	redisRepo "github.com/iho/finledger/internal/adapter/repository/redis"
	"github.com/iho/finledger/internal/app"
	"github.com/iho/finledger/internal/infrastructure/auth"
	"github.com/iho/finledger/internal/infrastructure/config"
	"github.com/iho/finledger/internal/infrastructure/logger"
	"github.com/iho/finledger/internal/infrastructure/metrics"
	"github.com/iho/finledger/internal/infrastructure/redis"
	"github.com/iho/finledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	var redisClient *goredis.Client
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL, cfg.DatabaseTimeout)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      newRouter(cfg, store, redisClient, reg, log),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("driver", store.Driver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// newRouter wires use cases and handlers over an open store. redisClient may
// be nil, which disables caching and idempotency.
func newRouter(cfg *config.Config, store *app.Store, redisClient *goredis.Client, reg *prometheus.Registry, log zerolog.Logger) http.Handler {
	m := metrics.New(reg)

	var lookup usecase.UserLookup = store.Users
	checks := []handler.HealthCheck{{Name: "database", Ping: store.Ping}}

	routerCfg := httpAdapter.RouterConfig{
		Logger:         log,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}

	if redisClient != nil {
		lookup = redisRepo.NewCachedUserLookup(store.Users, redisRepo.NewCache(redisClient), cfg.UserCacheTTL, log)
		routerCfg.IdempotencyMiddleware = middleware.NewIdempotencyMiddleware(
			redisRepo.NewIdempotencyStore(redisClient), cfg.IdempotencyTTL, m, log)
		checks = append(checks, handler.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	ledger := usecase.NewLedgerUseCase(store.Entries, lookup, app.LedgerOptions(cfg)...)
	users := usecase.NewUserUseCase(store.Users, store.IDs)
	tokens := auth.NewJWTManager(jwtSecret(cfg, log), cfg.JWTExpiration)

	routerCfg.EntryHandler = handler.NewEntryHandler(ledger, lookup, m)
	routerCfg.UserHandler = handler.NewUserHandler(users, ledger, tokens, int64(tokens.ExpiresIn().Seconds()), m)
	routerCfg.HealthHandler = handler.NewHealthHandler(checks...)

	if cfg.AuthEnabled {
		routerCfg.AuthMiddleware = middleware.AuthMiddleware(tokens)
	}
	if cfg.RateLimitRPS > 0 {
		routerCfg.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	}

	return httpAdapter.NewRouter(routerCfg)
}

// jwtSecret returns the configured signing key. Without one a random key is
// generated, so issued tokens do not survive a restart.
func jwtSecret(cfg *config.Config, log zerolog.Logger) string {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("generate jwt secret: %v", err))
	}
	log.Warn().Msg("JWT_SECRET not set, using a random signing key")
	return hex.EncodeToString(buf)
}
