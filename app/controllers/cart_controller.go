package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/cart"
)

type CartService interface {
	AddItem(ctx context.Context, sessionID string, in cart.AddItemInput) (*cart.ItemResult, error)
	GetCart(ctx context.Context, sessionID string) (*cart.Cart, error)
	RemoveItem(ctx context.Context, itemID string) (*cart.RemoveResult, error)
	ClearCart(ctx context.Context, sessionID string) (*cart.ClearResult, error)
	GetCartSummary(ctx context.Context, sessionID string) (*cart.Summary, error)
}

// CartController exposes the session cart
type CartController struct {
	carts CartService
}

func NewCartController(carts CartService) *CartController {
	return &CartController{carts: carts}
}

type addItemRequest struct {
	SessionID string `json:"sessionId"`
	cart.AddItemInput
}

func (cc *CartController) HandleAddItem(c *fiber.Ctx) error {
	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.Validation("invalid request body"))
	}
	res, err := cc.carts.AddItem(c.UserContext(), req.SessionID, req.AddItemInput)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, res, "Item added to cart")
}

func (cc *CartController) HandleGetCart(c *fiber.Ctx) error {
	res, err := cc.carts.GetCart(c.UserContext(), c.Params("sessionId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, res, "Cart retrieved")
}

func (cc *CartController) HandleRemoveItem(c *fiber.Ctx) error {
	res, err := cc.carts.RemoveItem(c.UserContext(), c.Params("itemId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, res, "Item removed from cart")
}

func (cc *CartController) HandleClearCart(c *fiber.Ctx) error {
	res, err := cc.carts.ClearCart(c.UserContext(), c.Params("sessionId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, res, "Cart cleared")
}

func (cc *CartController) HandleCartSummary(c *fiber.Ctx) error {
	res, err := cc.carts.GetCartSummary(c.UserContext(), c.Params("sessionId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, res, "Cart summary retrieved")
}

// HandleCheckout is a placeholder until payment integration exists. It
// validates the session and answers 501 with the current summary.
func (cc *CartController) HandleCheckout(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.Validation("invalid request body"))
	}
	summary, err := cc.carts.GetCartSummary(c.UserContext(), req.SessionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
		"success": false,
		"error":   "not_implemented",
		"message": "Checkout is not available yet",
		"data":    summary,
	})
}
