package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/backline-hq/tenantgate/internal/auth"
	"github.com/backline-hq/tenantgate/internal/config"
	"github.com/backline-hq/tenantgate/internal/gateway"
	"github.com/backline-hq/tenantgate/internal/policy"
	"github.com/backline-hq/tenantgate/internal/ratelimit"
	"github.com/backline-hq/tenantgate/internal/server"
	"github.com/backline-hq/tenantgate/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "tenantgate: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	limiter := ratelimit.NewLimiter(store, log)
	verifier := auth.NewVerifier([]byte(cfg.Session.Secret), cfg.Session.CookieName)
	resolver := policy.NewResolver(cfg.Policy.BaseURL, cfg.Policy.Timeout, log)

	gw := gateway.New(
		gateway.NewRoutes(cfg.Routes),
		ratelimit.Rule{
			KeyPrefix: cfg.RateLimit.KeyPrefix,
			Max:       cfg.RateLimit.Max,
			Window:    cfg.RateLimit.Window,
		},
		limiter, verifier, resolver, log,
	)

	return server.New(cfg, log, gw).Run(ctx)
}

// buildStore picks the rate-limit backend: redis when configured so all
// gateway instances share one sliding log, otherwise an in-process store
// with a background janitor.
func buildStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (ratelimit.Store, error) {
	if cfg.Redis.Addr == "" {
		log.Info("rate limiting with in-memory store")
		store := ratelimit.NewMemoryStore()
		store.StartJanitor(ctx, time.Minute, cfg.RateLimit.Window)
		return store, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info("rate limiting with redis store", zap.String("addr", cfg.Redis.Addr))
	return ratelimit.NewRedisStore(client), nil
}
