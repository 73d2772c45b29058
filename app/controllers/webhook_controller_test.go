package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/app/repository"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/database/databasetest"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/printify"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/webhook"
)

type stubProcessor struct {
	result    *webhook.Result
	err       error
	signature string
	body      string
}

func (s *stubProcessor) ProcessWebhook(_ context.Context, raw []byte, signature string) (*webhook.Result, error) {
	s.signature = signature
	s.body = string(raw)
	return s.result, s.err
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestWebhookControllerStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"bad signature", apperrors.Authentication("invalid webhook signature"), fiber.StatusUnauthorized, "authentication_error"},
		{"bad json", apperrors.Validation("invalid JSON payload"), fiber.StatusBadRequest, "validation_error"},
		{"handler failure", apperrors.Processing("processing webhook event e1 failed", errors.New("boom")), fiber.StatusInternalServerError, "processing_error"},
		{"storage failure", errors.New("db down"), fiber.StatusInternalServerError, "internal_server_error"},
		{"upstream failure", apperrors.Processing("failed", &printify.Error{StatusCode: 502}), fiber.StatusInternalServerError, "processing_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/hook", NewWebhookController(&stubProcessor{err: tt.err}).HandlePrintifyWebhook)

			resp, err := app.Test(httptest.NewRequest("POST", "/hook", strings.NewReader(`{}`)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)

			body := decodeBody(t, resp.Body)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func TestWebhookControllerAcknowledges(t *testing.T) {
	proc := &stubProcessor{result: &webhook.Result{EventID: "evt-1", EventType: "product:publish:started", Status: webhook.StatusDuplicate, Message: "event already processed"}}
	app := fiber.New()
	app.Post("/hook", NewWebhookController(proc).HandlePrintifyWebhook)

	req := httptest.NewRequest("POST", "/hook", strings.NewReader(`{"id":"evt-1"}`))
	req.Header.Set(SignatureHeader, " sha256=abc ")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "evt-1", body["eventId"])
	assert.Equal(t, "event already processed", body["message"])
	result := body["result"].(map[string]any)
	assert.Equal(t, webhook.StatusDuplicate, result["status"])

	assert.Equal(t, "sha256=abc", proc.signature)
	assert.Equal(t, `{"id":"evt-1"}`, proc.body)
}

type nopGateway struct{}

func (nopGateway) GetProduct(_ context.Context, id string) (*printify.Product, error) {
	return &printify.Product{ID: id, Title: "Tee"}, nil
}

func (nopGateway) PublishSucceeded(context.Context, string, printify.External) error { return nil }

func (nopGateway) PublishFailed(context.Context, string, string) error { return nil }

func TestWebhookHandlerFailureAnswers500(t *testing.T) {
	repos := repository.NewRepositories(databasetest.New(t))
	publisher := webhook.NewPublishHandler(repos.Product, nopGateway{}, "https://shop.test", nil, nil)
	proc := webhook.NewProcessor(webhook.Config{Mode: webhook.ModeLenient}, repos.WebhookEvent, publisher)

	app := fiber.New()
	app.Post("/hook", NewWebhookController(proc).HandlePrintifyWebhook)

	body := `{"id":"evt-x","type":"product:publish:started","action":"create","resource":{"type":"product","id":""}}`
	resp, err := app.Test(httptest.NewRequest("POST", "/hook", strings.NewReader(body)))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "processing_error", decodeBody(t, resp.Body)["error"])

	ev, err := repos.WebhookEvent.GetByEventID(context.Background(), "evt-x")
	require.NoError(t, err)
	assert.Equal(t, models.WebhookStatusError, ev.Status)
}
