package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/OnlyOne/app/controllers"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Handlers carries the constructed controllers and route level settings
type Handlers struct {
	Webhook *controllers.WebhookController
	Cart    *controllers.CartController
	Catalog *controllers.CatalogController
	Admin   *controllers.AdminController

	AdminAPIKey string
	// OpenAPIFile is served under /docs/api/v1 when the file exists
	OpenAPIFile string
	// Ready reports whether dependencies are reachable, nil means always ready
	Ready func(ctx context.Context) error

	RateLimitMax    int
	RateLimitWindow time.Duration
	// RateLimitStorage shares limiter state between instances, nil keeps it in memory
	RateLimitStorage fiber.Storage
}

func InstallRouter(app *fiber.App, h Handlers) {
	setup(app, NewHttpRouter(h), NewApiRouter(h))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
