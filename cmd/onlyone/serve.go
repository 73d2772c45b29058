package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/ManuelReschke/OnlyOne/app/controllers"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/cache"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/env"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/router"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the maintenance workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		AppName:   "OnlyOne",
		BodyLimit: 4 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	router.InstallRouter(app, router.Handlers{
		Webhook: controllers.NewWebhookController(svc.processor),
		Cart:    controllers.NewCartController(svc.carts),
		Catalog: controllers.NewCatalogController(svc.catalog),
		Admin: controllers.NewAdminController(svc.repos.WebhookEvent, svc.gateway, svc.maintenance,
			svc.webhookURL(), svc.webhookCfg.Secret),
		AdminAPIKey:      env.GetEnv("ADMIN_API_KEY", ""),
		OpenAPIFile:      env.GetEnv("OPENAPI_FILE", "./public/docs/v1/openapi.yml"),
		Ready:            svc.ready,
		RateLimitMax:     env.GetInt("RATE_LIMIT_MAX", 120),
		RateLimitWindow:  env.GetDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitStorage: svc.limiterStorage(ctx),
	})

	svc.maintenance.Start()
	svc.closer.Add("http", func(ctx context.Context) error { return app.ShutdownWithContext(ctx) })

	addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(addr)
	}()

	select {
	case err = <-listenErr:
		log.Errorf("[Server] listener stopped: %v", err)
	case <-ctx.Done():
		log.Info("[Server] shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if closeErr := svc.closer.Close(shutdownCtx); closeErr != nil {
		log.Errorf("[Server] shutdown: %v", closeErr)
		if err == nil {
			err = closeErr
		}
	}
	return err
}

func (s *services) ready(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

// limiterStorage shares rate limit counters through Redis when it is
// reachable; otherwise the limiter keeps them in memory.
func (s *services) limiterStorage(ctx context.Context) fiber.Storage {
	if !env.GetBool("RATE_LIMIT_REDIS", true) {
		return nil
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		log.Warnf("[Server] rate limiter falls back to memory storage: %v", err)
		return nil
	}
	storage := cache.NewLimiterStorage(s.cacheConfig, env.GetInt("RATE_LIMIT_DB", 1))
	s.closer.AddCloser("limiter storage", storage)
	return storage
}
