package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProductStatusPending   = "pending"
	ProductStatusPublished = "published"
	ProductStatusDeleted   = "deleted"
)

// ProductImage is one entry of the ordered image list of a mirrored product.
type ProductImage struct {
	Src        string  `json:"src"`
	VariantIDs []int64 `json:"variant_ids"`
	Position   string  `json:"position"`
	IsDefault  bool    `json:"is_default"`
}

// ProductVariant is a purchasable color/size combination. Options holds the
// provider option value ids in option order.
type ProductVariant struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	SKU         string  `json:"sku"`
	Price       int64   `json:"price"`
	IsEnabled   bool    `json:"is_enabled"`
	IsAvailable bool    `json:"is_available"`
	IsDefault   bool    `json:"is_default"`
	Options     []int64 `json:"options"`
}

// Product is the local mirror of a provider product. Images, variants and the
// external metadata are stored as JSON columns and only exist in typed form in
// memory; the hooks below convert at the storage boundary.
type Product struct {
	ID                uint       `gorm:"primaryKey" json:"-"`
	ProviderProductID string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_products_provider_product_id" json:"provider_product_id"`
	PublicID          string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_products_public_id" json:"id"`
	Handle            string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_products_handle" json:"handle"`
	Title             string     `gorm:"type:varchar(255);not null" json:"title"`
	Description       string     `gorm:"type:text" json:"description"`
	PriceMin          int64      `gorm:"not null;default:0" json:"price_min"`
	PriceMax          int64      `gorm:"not null;default:0" json:"price_max"`
	Currency          string     `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	PublishedAt       *time.Time `gorm:"type:timestamp;default:null" json:"published_at,omitempty"`

	ImagesJSON       datatypes.JSON `gorm:"column:images" json:"-"`
	VariantsJSON     datatypes.JSON `gorm:"column:variants" json:"-"`
	ExternalDataJSON datatypes.JSON `gorm:"column:external_data" json:"-"`

	Images           []ProductImage   `gorm:"-" json:"images"`
	Variants         []ProductVariant `gorm:"-" json:"variants"`
	ExternalMetadata map[string]any   `gorm:"-" json:"external_metadata"`
}

func (Product) TableName() string {
	return "products"
}

// BeforeSave serializes the typed collections into their JSON columns.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	var err error
	if p.ImagesJSON, err = marshalOr(p.Images, "[]"); err != nil {
		return err
	}
	if p.VariantsJSON, err = marshalOr(p.Variants, "[]"); err != nil {
		return err
	}
	if p.ExternalDataJSON, err = marshalOr(p.ExternalMetadata, "{}"); err != nil {
		return err
	}
	return nil
}

// AfterFind decodes the JSON columns. Null or malformed blobs become empty
// containers instead of failing the read.
func (p *Product) AfterFind(tx *gorm.DB) error {
	p.Images = DecodeImages(p.ImagesJSON)
	p.Variants = DecodeVariants(p.VariantsJSON)
	p.ExternalMetadata = DecodeMetadata(p.ExternalDataJSON)
	return nil
}

func marshalOr[T any](v T, empty string) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return datatypes.JSON(empty), nil
	}
	return datatypes.JSON(b), nil
}

func DecodeImages(raw []byte) []ProductImage {
	out := []ProductImage{}
	if len(raw) == 0 || json.Unmarshal(raw, &out) != nil || out == nil {
		return []ProductImage{}
	}
	return out
}

func DecodeVariants(raw []byte) []ProductVariant {
	out := []ProductVariant{}
	if len(raw) == 0 || json.Unmarshal(raw, &out) != nil || out == nil {
		return []ProductVariant{}
	}
	return out
}

func DecodeMetadata(raw []byte) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 || json.Unmarshal(raw, &out) != nil || out == nil {
		return map[string]any{}
	}
	return out
}
