package controllers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/webhook"
)

const SignatureHeader = "X-Pfy-Signature"

type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, raw []byte, signature string) (*webhook.Result, error)
}

// WebhookController receives provider webhook deliveries
type WebhookController struct {
	processor WebhookProcessor
}

func NewWebhookController(processor WebhookProcessor) *WebhookController {
	return &WebhookController{processor: processor}
}

// HandlePrintifyWebhook acknowledges with 2xx whenever the provider should
// stop retrying, and with 5xx when it should deliver again.
func (wc *WebhookController) HandlePrintifyWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get(SignatureHeader))

	result, err := wc.processor.ProcessWebhook(c.UserContext(), rawBody, signature)
	if err != nil {
		return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
			"success": false,
			"error":   apperrors.Code(err),
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": result.Message,
		"eventId": result.EventID,
		"result":  result,
	})
}
