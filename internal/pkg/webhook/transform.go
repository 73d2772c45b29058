package webhook

import (
	"strings"
	"unicode/utf8"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/printify"
)

const (
	defaultCurrency = "USD"
	maxTitleLength  = 255
)

// Transform flattens a provider product into mirror fields. Identifiers and
// status are left to the caller.
func Transform(p *printify.Product) *models.Product {
	images := make([]models.ProductImage, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, models.ProductImage{
			Src:        img.Src,
			VariantIDs: append([]int64{}, img.VariantIDs...),
			Position:   img.Position,
			IsDefault:  img.IsDefault,
		})
	}

	variants := make([]models.ProductVariant, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, models.ProductVariant{
			ID:          v.ID,
			Title:       v.Title,
			SKU:         v.SKU,
			Price:       v.Price,
			IsEnabled:   v.IsEnabled,
			IsAvailable: v.IsAvailable,
			IsDefault:   v.IsDefault,
			Options:     append([]int64{}, v.Options...),
		})
	}

	lo, hi := PriceRange(p.Variants)

	return &models.Product{
		ProviderProductID: p.ID,
		Title:             truncateRunes(strings.TrimSpace(p.Title), maxTitleLength),
		Description:       p.Description,
		PriceMin:          lo,
		PriceMax:          hi,
		Currency:          defaultCurrency,
		Images:            images,
		Variants:          variants,
		ExternalMetadata:  externalMetadata(p),
	}
}

// PriceRange returns the lowest and highest price over enabled variants, or
// 0/0 when no variant is enabled.
func PriceRange(variants []printify.Variant) (lo, hi int64) {
	found := false
	for _, v := range variants {
		if !v.IsEnabled {
			continue
		}
		if !found {
			lo, hi = v.Price, v.Price
			found = true
			continue
		}
		lo = min(lo, v.Price)
		hi = max(hi, v.Price)
	}
	return lo, hi
}

func externalMetadata(p *printify.Product) map[string]any {
	options := make([]map[string]any, 0, len(p.Options))
	for _, o := range p.Options {
		values := make([]map[string]any, 0, len(o.Values))
		for _, v := range o.Values {
			value := map[string]any{"id": v.ID, "title": v.Title}
			if len(v.Colors) > 0 {
				value["colors"] = v.Colors
			}
			values = append(values, value)
		}
		options = append(options, map[string]any{"name": o.Name, "type": o.Type, "values": values})
	}

	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	return map[string]any{
		"blueprint_id":        p.BlueprintID,
		"print_provider_id":   p.PrintProviderID,
		"shop_id":             p.ShopID,
		"tags":                tags,
		"options":             options,
		"visible":             p.Visible,
		"provider_created_at": p.CreatedAt,
		"provider_updated_at": p.UpdatedAt,
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
