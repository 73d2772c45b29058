package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/app/repository"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
)

const (
	maxTitleLength    = 255
	maxIDLength       = 255
	maxImageURLLength = 2048
)

// AddItemInput is the payload of an add-to-cart request
type AddItemInput struct {
	ProductID         string          `json:"productId"`
	VariantID         *string         `json:"variantId"`
	PrintifyVariantID *int64          `json:"printifyVariantId"`
	PricePerItem      decimal.Decimal `json:"pricePerItem"`
	ProductTitle      string          `json:"productTitle"`
	VariantTitle      *string         `json:"variantTitle"`
	ImageURL          *string         `json:"imageUrl"`
	CrossSell         bool            `json:"crossSell"`
}

// Totals is recomputed from storage on every read
type Totals struct {
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
}

type Cart struct {
	SessionID string            `json:"sessionId"`
	Items     []models.CartItem `json:"items"`
	Totals    Totals            `json:"totals"`
}

type ItemResult struct {
	Item   *models.CartItem `json:"item"`
	Totals Totals           `json:"cartTotals"`
}

type RemoveResult struct {
	RemovedItem *models.CartItem `json:"removedItem"`
	Totals      Totals           `json:"cartTotals"`
}

type ClearResult struct {
	RemovedCount int64 `json:"removedCount"`
}

type Summary struct {
	ItemCount int    `json:"itemCount"`
	Totals    Totals `json:"totals"`
	HasItems  bool   `json:"hasItems"`
}

// Service implements the session cart on top of the cart repository
type Service struct {
	items    repository.CartRepository
	validate *validator.Validate
}

func NewService(items repository.CartRepository) *Service {
	return &Service{
		items:    items,
		validate: validator.New(),
	}
}

// addRequest is the normalised input that goes through struct validation
type addRequest struct {
	SessionID    string `validate:"required"`
	ProductID    string `validate:"required"`
	ProductTitle string `validate:"required"`
}

// AddItem inserts one unit of a product variant into the session cart.
// The same (session, product, variant) may only be added once.
func (s *Service) AddItem(ctx context.Context, sessionID string, in AddItemInput) (*ItemResult, error) {
	item := normalise(sessionID, in)

	req := addRequest{SessionID: item.SessionID, ProductID: item.ProductID, ProductTitle: item.ProductTitle}
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if !item.PricePerItem.IsPositive() {
		return nil, apperrors.Validation("pricePerItem must be greater than 0")
	}

	exists, err := s.items.Exists(ctx, item.SessionID, item.ProductID, item.VariantID)
	if err != nil {
		return nil, fmt.Errorf("check cart item: %w", err)
	}
	if exists {
		return nil, apperrors.DuplicateItem("item already in cart")
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}

	stored, err := s.items.GetByID(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("read back cart item: %w", err)
	}
	totals, err := s.totals(ctx, item.SessionID)
	if err != nil {
		return nil, err
	}

	log.Infof("[Cart] added product %s to session %s (%d items)", item.ProductID, item.SessionID, totals.ItemCount)
	return &ItemResult{Item: stored, Totals: totals}, nil
}

func (s *Service) GetCart(ctx context.Context, sessionID string) (*Cart, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.Validation("sessionId is required")
	}
	items, err := s.items.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return &Cart{SessionID: sessionID, Items: items, Totals: computeTotals(items)}, nil
}

// RemoveItem deletes one line item and returns the totals of its session
func (s *Service) RemoveItem(ctx context.Context, itemID string) (*RemoveResult, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, apperrors.Validation("itemId is required")
	}
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	removed, err := s.items.Delete(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("delete cart item: %w", err)
	}
	if !removed {
		// deleted concurrently between read and delete
		return nil, apperrors.NotFound("cart item not found")
	}
	totals, err := s.totals(ctx, item.SessionID)
	if err != nil {
		return nil, err
	}
	return &RemoveResult{RemovedItem: item, Totals: totals}, nil
}

// ClearCart removes every item of the session. Clearing an empty cart is not an error.
func (s *Service) ClearCart(ctx context.Context, sessionID string) (*ClearResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.Validation("sessionId is required")
	}
	n, err := s.items.DeleteBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	if n > 0 {
		log.Infof("[Cart] cleared %d items from session %s", n, sessionID)
	}
	return &ClearResult{RemovedCount: n}, nil
}

func (s *Service) GetCartSummary(ctx context.Context, sessionID string) (*Summary, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.Validation("sessionId is required")
	}
	totals, err := s.totals(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Summary{ItemCount: totals.ItemCount, Totals: totals, HasItems: totals.ItemCount > 0}, nil
}

func (s *Service) totals(ctx context.Context, sessionID string) (Totals, error) {
	items, err := s.items.ListBySession(ctx, sessionID)
	if err != nil {
		return Totals{}, fmt.Errorf("list cart items: %w", err)
	}
	return computeTotals(items), nil
}

func computeTotals(items []models.CartItem) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.PricePerItem)
	}
	return Totals{
		ItemCount: len(items),
		Subtotal:  subtotal,
		Total:     subtotal,
	}
}

func normalise(sessionID string, in AddItemInput) *models.CartItem {
	return &models.CartItem{
		SessionID:         truncate(strings.TrimSpace(sessionID), maxIDLength),
		ProductID:         truncate(strings.TrimSpace(in.ProductID), maxIDLength),
		VariantID:         optional(in.VariantID, maxIDLength),
		ProviderVariantID: in.PrintifyVariantID,
		PricePerItem:      in.PricePerItem.Round(2),
		ProductTitle:      truncate(strings.TrimSpace(in.ProductTitle), maxTitleLength),
		VariantTitle:      optional(in.VariantTitle, maxTitleLength),
		ImageURL:          optional(in.ImageURL, maxImageURLLength),
		CrossSell:         in.CrossSell,
	}
}

// optional trims s and maps blank values to nil
func optional(s *string, limit int) *string {
	if s == nil {
		return nil
	}
	v := truncate(strings.TrimSpace(*s), limit)
	if v == "" {
		return nil
	}
	return &v
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, lowerFirst(fe.Field()))
		}
		return apperrors.Validation("missing required fields: " + strings.Join(fields, ", "))
	}
	return apperrors.Validation(err.Error())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
