package router

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/OnlyOne/internal/pkg/metrics"
)

// HttpRouter installs the non-API routes: health, metrics and docs
type HttpRouter struct {
	h Handlers
}

func (r HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", r.health)

	metrics.Register()
	app.Get("/metrics", metrics.Handler())

	// SWAGGER / OPENAPI
	if r.h.OpenAPIFile != "" {
		if _, err := os.Stat(r.h.OpenAPIFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/docs/api/",
				FilePath: r.h.OpenAPIFile,
				Path:     "v1",
			}))
		} else {
			log.Warnf("[Router] OpenAPI file %s not found, docs disabled", r.h.OpenAPIFile)
		}
	}
}

func (r HttpRouter) health(c *fiber.Ctx) error {
	if r.h.Ready != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := r.h.Ready(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func NewHttpRouter(h Handlers) *HttpRouter {
	return &HttpRouter{h: h}
}
