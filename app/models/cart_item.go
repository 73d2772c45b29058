package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartItem is one unit of a product variant in a session cart. The triple
// (session_id, product_id, variant_id) is unique; variant_id is nullable and
// NULLs compare as distinct in the unique index, so callers check existence
// explicitly before inserting.
type CartItem struct {
	ID                string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	SessionID         string          `gorm:"type:varchar(191);not null;uniqueIndex:ux_cart_items_session_product_variant,priority:1;index" json:"session_id"`
	ProductID         string          `gorm:"type:varchar(191);not null;uniqueIndex:ux_cart_items_session_product_variant,priority:2" json:"product_id"`
	VariantID         *string         `gorm:"type:varchar(191);default:null;uniqueIndex:ux_cart_items_session_product_variant,priority:3" json:"variant_id"`
	ProviderVariantID *int64          `gorm:"default:null" json:"printify_variant_id"`
	PricePerItem      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_per_item"`
	ProductTitle      string          `gorm:"type:varchar(255);not null" json:"product_title"`
	VariantTitle      *string         `gorm:"type:varchar(255);default:null" json:"variant_title"`
	ImageURL          *string         `gorm:"type:varchar(2048);default:null" json:"image_url"`
	CrossSell         bool            `gorm:"not null;default:false" json:"cross_sell"`
	AddedAt           time.Time       `gorm:"autoCreateTime;index" json:"added_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
