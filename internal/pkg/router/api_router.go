package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/OnlyOne/app/controllers"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/middleware"
)

const webhookPrefix = "/api/webhooks/"

type ApiRouter struct {
	h Handlers
}

func (r ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", r.limiter())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	if r.h.Webhook != nil {
		api.Post("/webhooks/printify", r.h.Webhook.HandlePrintifyWebhook)
	}

	if c := r.h.Cart; c != nil {
		cart := api.Group("/cart")
		cart.Post("/add", c.HandleAddItem)
		cart.Get("/:sessionId/summary", c.HandleCartSummary)
		cart.Get("/:sessionId", c.HandleGetCart)
		cart.Delete("/item/:itemId", c.HandleRemoveItem)
		cart.Delete("/:sessionId", c.HandleClearCart)
		api.Post("/checkout", c.HandleCheckout)
	}

	if c := r.h.Catalog; c != nil {
		api.Get("/products", c.HandleListProducts)
		api.Get("/products/:id", c.HandleGetProduct)
		api.Get("/catalog", c.HandleListCatalog)
		api.Get("/catalog/:handle", c.HandleGetCatalogProduct)
	}

	if c := r.h.Admin; c != nil {
		admin := api.Group("/admin", middleware.RequireAdminKey(r.h.AdminAPIKey))
		admin.Get("/webhooks/events/pending", c.HandleListPendingEvents)
		admin.Get("/webhooks/subscriptions", c.HandleListSubscriptions)
		admin.Post("/webhooks/subscriptions", c.HandleCreateSubscriptions)
		admin.Delete("/webhooks/subscriptions/:id", c.HandleDeleteSubscription)
		admin.Post("/maintenance/reconcile", c.HandleReconcile)
		admin.Post("/maintenance/prune", c.HandlePrune)
	}
}

// limiter rate limits per client IP. Provider webhook deliveries are exempt
// so bursts of retries are never answered with 429.
func (r ApiRouter) limiter() fiber.Handler {
	limit := r.h.RateLimitMax
	if limit <= 0 {
		limit = 120
	}
	window := r.h.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:          limit,
		Expiration:   window,
		KeyGenerator: controllers.ClientIP,
		Storage:      r.h.RateLimitStorage,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), webhookPrefix)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "rate_limited",
				"message": "Too many requests",
			})
		},
	})
}

func NewApiRouter(h Handlers) *ApiRouter {
	return &ApiRouter{h: h}
}
