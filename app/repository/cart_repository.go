package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
)

// cartRepository implements the CartRepository interface
type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new cart repository instance
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// Exists checks the (session, product, variant) triple. A nil variant matches
// rows whose variant_id IS NULL, which the unique index alone would not catch.
func (r *cartRepository) Exists(ctx context.Context, sessionID, productID string, variantID *string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("session_id = ? AND product_id = ?", sessionID, productID)
	if variantID == nil {
		q = q.Where("variant_id IS NULL")
	} else {
		q = q.Where("variant_id = ?", *variantID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *cartRepository) Create(ctx context.Context, item *models.CartItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.DuplicateItem("item already in cart")
		}
		return err
	}
	return nil
}

func (r *cartRepository) GetByID(ctx context.Context, id string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("cart item not found")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) ListBySession(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("added_at ASC").Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *cartRepository) Delete(ctx context.Context, id string) (bool, error) {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CartItem{})
	return tx.RowsAffected > 0, tx.Error
}

func (r *cartRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	tx := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.CartItem{})
	return tx.RowsAffected, tx.Error
}
