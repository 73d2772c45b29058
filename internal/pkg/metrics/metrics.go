package metrics

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var WebhookEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "onlyone_webhook_events_total",
		Help: "Webhook events handled, by event type and outcome",
	},
	[]string{"type", "outcome"},
)

// EventsWithoutIdempotency counts deliveries that carried no event id. Each
// one was stored under a synthesized id, so a provider retry of the same
// delivery cannot be recognised as a duplicate.
var EventsWithoutIdempotency = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "onlyone_webhook_events_without_idempotency_total",
		Help: "Webhook events processed under a synthesized event id",
	},
)

var StalePendingEvents = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "onlyone_webhook_events_stale_pending",
		Help: "Webhook events stuck in pending beyond the reconcile threshold",
	},
)

var PrunedEvents = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "onlyone_webhook_events_pruned_total",
		Help: "Finished webhook events removed by the retention sweep",
	},
)

var CatalogCacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "onlyone_catalog_cache_lookups_total",
		Help: "Catalog cache lookups by result (hit, miss, error)",
	},
	[]string{"result"},
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			WebhookEvents,
			EventsWithoutIdempotency,
			StalePendingEvents,
			PrunedEvents,
			CatalogCacheLookups,
		)
	})
}

// Handler serves the default registry on a Fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
