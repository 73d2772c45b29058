package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/identifier"
)

// productRepository implements the ProductRepository interface
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product mirror repository instance
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) findBy(ctx context.Context, column, value string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("product not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) FindByProviderID(ctx context.Context, providerProductID string) (*models.Product, error) {
	return r.findBy(ctx, "provider_product_id", providerProductID)
}

func (r *productRepository) FindByHandle(ctx context.Context, handle string) (*models.Product, error) {
	return r.findBy(ctx, "handle", handle)
}

func (r *productRepository) FindByPublicID(ctx context.Context, publicID string) (*models.Product, error) {
	return r.findBy(ctx, "public_id", publicID)
}

// Create inserts a new mirror row in pending state. Missing identifiers are
// generated from the title before the insert.
func (r *productRepository) Create(ctx context.Context, p *models.Product) error {
	if p.PublicID == "" {
		p.PublicID = identifier.PublicID(p.Title)
	}
	if p.Handle == "" {
		p.Handle = identifier.Handle(p.Title, p.PublicID)
	}
	p.Status = models.ProductStatusPending
	p.PublishedAt = nil

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("product identifier already exists", err)
		}
		return err
	}
	return nil
}

// UpdateStatus moves a mirror row to status. published_at is stamped only on
// the transition into published. externalMetadata is merged key by key into
// the stored map when non-nil.
func (r *productRepository) UpdateStatus(ctx context.Context, providerProductID, status string, externalMetadata map[string]any) (*models.Product, error) {
	var updated models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Product
		if err := tx.Where("provider_product_id = ?", providerProductID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("product not found")
			}
			return err
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":     status,
			"updated_at": now,
		}
		if status == models.ProductStatusPublished && current.Status != models.ProductStatusPublished {
			updates["published_at"] = &now
		}
		if externalMetadata != nil {
			merged := current.ExternalMetadata
			for k, v := range externalMetadata {
				merged[k] = v
			}
			raw, err := json.Marshal(merged)
			if err != nil {
				return err
			}
			updates["external_data"] = datatypes.JSON(raw)
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", current.ID).UpdateColumns(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", current.ID).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *productRepository) ListPublished(ctx context.Context, offset, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ProductStatusPublished).
		Order("published_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&products).Error
	return products, err
}
