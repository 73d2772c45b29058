package router

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/OnlyOne/app/controllers"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/webhook"
)

type okProcessor struct{}

func (okProcessor) ProcessWebhook(context.Context, []byte, string) (*webhook.Result, error) {
	return &webhook.Result{EventID: "e1", Status: webhook.StatusIgnored}, nil
}

func TestHealth(t *testing.T) {
	app := fiber.New()
	InstallRouter(app, Handlers{})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	down := fiber.New()
	InstallRouter(down, Handlers{Ready: func(context.Context) error { return errors.New("db down") }})
	resp, err = down.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	app := fiber.New()
	InstallRouter(app, Handlers{})

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimitSkipsWebhooks(t *testing.T) {
	app := fiber.New()
	InstallRouter(app, Handlers{
		Webhook:      controllers.NewWebhookController(okProcessor{}),
		RateLimitMax: 1,
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, err = app.Test(httptest.NewRequest("GET", "/api/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	for i := 0; i < 3; i++ {
		resp, err = app.Test(httptest.NewRequest("POST", "/api/webhooks/printify", strings.NewReader(`{}`)))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
