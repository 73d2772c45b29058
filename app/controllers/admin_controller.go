package controllers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/app/repository"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/maintenance"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/printify"
)

type WebhookSubscriptions interface {
	ListWebhooks(ctx context.Context) ([]printify.Webhook, error)
	CreateWebhookSubscriptions(ctx context.Context, targetURL, secret string, topics []string) ([]printify.Webhook, error)
	DeleteWebhook(ctx context.Context, id string) error
}

type MaintenanceRunner interface {
	RunReconcileOnce(ctx context.Context) (*maintenance.ReconcileReport, error)
	RunPruneOnce(ctx context.Context) (*maintenance.PruneReport, error)
}

// AdminController handles operator endpoints behind the admin API key
type AdminController struct {
	events        repository.WebhookEventRepository
	subscriptions WebhookSubscriptions
	maintenance   MaintenanceRunner
	webhookURL    string
	webhookSecret string
}

// NewAdminController creates the admin controller. webhookURL is the public
// address of the webhook endpoint used when registering subscriptions.
func NewAdminController(events repository.WebhookEventRepository, subscriptions WebhookSubscriptions, runner MaintenanceRunner, webhookURL, webhookSecret string) *AdminController {
	return &AdminController{
		events:        events,
		subscriptions: subscriptions,
		maintenance:   runner,
		webhookURL:    webhookURL,
		webhookSecret: webhookSecret,
	}
}

func (ac *AdminController) HandleListPendingEvents(c *fiber.Ctx) error {
	limit := queryInt(c, "limit", 50, 500)
	events, err := ac.events.ListPending(c.UserContext(), limit)
	if err != nil {
		return respondError(c, err)
	}
	if events == nil {
		events = []models.WebhookEvent{}
	}
	return respond(c, fiber.StatusOK, events, "Pending webhook events")
}

func (ac *AdminController) HandleListSubscriptions(c *fiber.Ctx) error {
	hooks, err := ac.subscriptions.ListWebhooks(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, hooks, "Webhook subscriptions")
}

type createSubscriptionsRequest struct {
	URL    string   `json:"url"`
	Topics []string `json:"topics"`
}

// HandleCreateSubscriptions registers the webhook endpoint for the given
// topics, defaulting to the configured URL and the standard topic set.
func (ac *AdminController) HandleCreateSubscriptions(c *fiber.Ctx) error {
	var req createSubscriptionsRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, apperrors.Validation("invalid request body"))
		}
	}
	target := strings.TrimSpace(req.URL)
	if target == "" {
		target = ac.webhookURL
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return respondError(c, apperrors.Validation("url must be an absolute http(s) URL"))
	}

	hooks, err := ac.subscriptions.CreateWebhookSubscriptions(c.UserContext(), target, ac.webhookSecret, req.Topics)
	if err != nil {
		// partial registrations are still reported
		log.Errorf("[Admin] webhook registration for %s stopped after %d topics: %v", target, len(hooks), err)
		return respondError(c, err)
	}
	log.Infof("[Admin] registered %d webhook subscriptions for %s", len(hooks), target)
	return respond(c, fiber.StatusCreated, hooks, "Webhook subscriptions created")
}

func (ac *AdminController) HandleDeleteSubscription(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if err := ac.subscriptions.DeleteWebhook(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"id": id}, "Webhook subscription deleted")
}

func (ac *AdminController) HandleReconcile(c *fiber.Ctx) error {
	report, err := ac.maintenance.RunReconcileOnce(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, report, "Reconcile finished")
}

func (ac *AdminController) HandlePrune(c *fiber.Ctx) error {
	report, err := ac.maintenance.RunPruneOnce(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, report, "Prune finished")
}
