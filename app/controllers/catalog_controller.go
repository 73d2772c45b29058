package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/printify"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type CatalogService interface {
	ListProducts(ctx context.Context, page, limit int) (*printify.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*printify.Product, error)
	GetMirrored(ctx context.Context, handle string) (*models.Product, error)
	ListMirrored(ctx context.Context, offset, limit int) ([]models.Product, error)
}

// CatalogController serves the provider catalog and the local mirror
type CatalogController struct {
	catalog CatalogService
}

func NewCatalogController(catalog CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// HandleListProducts proxies one page of the provider catalog
func (cc *CatalogController) HandleListProducts(c *fiber.Ctx) error {
	page := queryInt(c, "page", 1, 0)
	limit := queryInt(c, "limit", defaultPageSize, maxPageSize)
	res, err := cc.catalog.ListProducts(c.UserContext(), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, res, "Products retrieved")
}

func (cc *CatalogController) HandleGetProduct(c *fiber.Ctx) error {
	res, err := cc.catalog.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, res, "Product retrieved")
}

// HandleListCatalog lists published products of the local mirror
func (cc *CatalogController) HandleListCatalog(c *fiber.Ctx) error {
	limit := queryInt(c, "limit", defaultPageSize, maxPageSize)
	offset := queryInt(c, "offset", 0, 0)
	res, err := cc.catalog.ListMirrored(c.UserContext(), offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	if res == nil {
		res = []models.Product{}
	}
	return respond(c, fiber.StatusOK, res, "Catalog retrieved")
}

func (cc *CatalogController) HandleGetCatalogProduct(c *fiber.Ctx) error {
	res, err := cc.catalog.GetMirrored(c.UserContext(), c.Params("handle"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, res, "Product retrieved")
}
