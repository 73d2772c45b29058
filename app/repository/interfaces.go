package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/OnlyOne/app/models"
)

// WebhookEventRepository is the durable, idempotent log of inbound webhooks
type WebhookEventRepository interface {
	RecordEvent(ctx context.Context, in models.WebhookEventInput) (bool, *models.WebhookEvent, error)
	GetByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error)
	MarkProcessed(ctx context.Context, eventID string) error
	MarkError(ctx context.Context, eventID, message string) error
	Reclaim(ctx context.Context, eventID string, staleBefore time.Time) (bool, error)
	ListPending(ctx context.Context, limit int) ([]models.WebhookEvent, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]models.WebhookEvent, error)
	ListFinishedBefore(ctx context.Context, before time.Time, limit int) ([]models.WebhookEvent, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// ProductRepository defines the interface for product mirror operations
type ProductRepository interface {
	FindByProviderID(ctx context.Context, providerProductID string) (*models.Product, error)
	FindByHandle(ctx context.Context, handle string) (*models.Product, error)
	FindByPublicID(ctx context.Context, publicID string) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	UpdateStatus(ctx context.Context, providerProductID, status string, externalMetadata map[string]any) (*models.Product, error)
	ListPublished(ctx context.Context, offset, limit int) ([]models.Product, error)
}

// CartRepository defines the interface for session cart line items
type CartRepository interface {
	Exists(ctx context.Context, sessionID, productID string, variantID *string) (bool, error)
	Create(ctx context.Context, item *models.CartItem) error
	GetByID(ctx context.Context, id string) (*models.CartItem, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.CartItem, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)
}

// Repositories holds all repository instances
type Repositories struct {
	WebhookEvent WebhookEventRepository
	Product      ProductRepository
	Cart         CartRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		WebhookEvent: NewWebhookEventRepository(db),
		Product:      NewProductRepository(db),
		Cart:         NewCartRepository(db),
	}
}
