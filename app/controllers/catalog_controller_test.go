package controllers

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/printify"
)

type stubCatalog struct {
	page, limit    int
	offset, mLimit int
}

func (s *stubCatalog) ListProducts(_ context.Context, page, limit int) (*printify.ProductPage, error) {
	s.page, s.limit = page, limit
	return &printify.ProductPage{CurrentPage: page, Data: []printify.Product{{ID: "P1", Title: "Tee"}}}, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id string) (*printify.Product, error) {
	if id == "rate-limited" {
		return nil, &printify.Error{StatusCode: 429}
	}
	return nil, apperrors.NotFound("product not found")
}

func (s *stubCatalog) GetMirrored(_ context.Context, handle string) (*models.Product, error) {
	return &models.Product{Handle: handle, Title: "Tee", Status: models.ProductStatusPublished}, nil
}

func (s *stubCatalog) ListMirrored(_ context.Context, offset, limit int) ([]models.Product, error) {
	s.offset, s.mLimit = offset, limit
	return nil, nil
}

func newCatalogApp(s *stubCatalog) *fiber.App {
	cc := NewCatalogController(s)
	app := fiber.New()
	app.Get("/api/products", cc.HandleListProducts)
	app.Get("/api/products/:id", cc.HandleGetProduct)
	app.Get("/api/catalog", cc.HandleListCatalog)
	app.Get("/api/catalog/:handle", cc.HandleGetCatalogProduct)
	return app
}

func TestCatalogPagingIsClamped(t *testing.T) {
	s := &stubCatalog{}
	app := newCatalogApp(s)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/products?page=3&limit=1000", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, s.page)
	assert.Equal(t, maxPageSize, s.limit)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/catalog?offset=-4&limit=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, s.offset)
	assert.Equal(t, defaultPageSize, s.mLimit)
	assert.Equal(t, []any{}, decodeBody(t, resp.Body)["data"])
}

func TestCatalogErrorStatuses(t *testing.T) {
	app := newCatalogApp(&stubCatalog{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/products/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/products/rate-limited", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "provider_error", decodeBody(t, resp.Body)["error"])

	resp, err = app.Test(httptest.NewRequest("GET", "/api/catalog/dragon-tee-abc123", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
