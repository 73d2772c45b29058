package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminApp(key string) *fiber.App {
	app := fiber.New()
	app.Get("/admin", RequireAdminKey(key), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestRequireAdminKey(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		header string
		value  string
		want   int
	}{
		{"disabled", "", "X-API-Key", "anything", fiber.StatusServiceUnavailable},
		{"missing", "s3cret", "", "", fiber.StatusUnauthorized},
		{"wrong", "s3cret", "X-API-Key", "nope", fiber.StatusUnauthorized},
		{"header", "s3cret", "X-API-Key", "s3cret", fiber.StatusOK},
		{"bearer", "s3cret", "Authorization", "Bearer s3cret", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := newAdminApp(tt.key).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
