package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/app/repository"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/env"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/metrics"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/printify"
)

const (
	DefaultTTL   = 5 * time.Minute
	DefaultLimit = 20
	MaxLimit     = 50

	listKeyPrefix = "catalog:products:"
)

// Upstream is the read side of the Printify client
type Upstream interface {
	GetProduct(ctx context.Context, id string) (*printify.Product, error)
	ListProducts(ctx context.Context, page, limit int) (*printify.ProductPage, error)
}

// Cache stores JSON values with a TTL
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

type Config struct {
	TTL time.Duration
}

func LoadConfig() Config {
	return Config{TTL: env.GetDuration("CATALOG_CACHE_TTL", DefaultTTL)}
}

// Service serves the storefront catalog: the live Printify catalog through a
// read-through cache, and the local mirror of published products.
type Service struct {
	upstream Upstream
	cache    Cache
	products repository.ProductRepository
	ttl      time.Duration
}

// NewService builds the catalog service. cache may be nil, in which case every
// read goes upstream.
func NewService(cfg Config, upstream Upstream, cache Cache, products repository.ProductRepository) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{upstream: upstream, cache: cache, products: products, ttl: ttl}
}

func productKey(id string) string {
	return "catalog:product:" + id
}

func listKey(page, limit int) string {
	return fmt.Sprintf("%s%d:%d", listKeyPrefix, page, limit)
}

func (s *Service) ListProducts(ctx context.Context, page, limit int) (*printify.ProductPage, error) {
	page, limit = normalisePage(page, limit)
	var out printify.ProductPage
	if s.lookup(ctx, listKey(page, limit), &out) {
		return &out, nil
	}
	res, err := s.upstream.ListProducts(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	s.store(ctx, listKey(page, limit), res)
	return res, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*printify.Product, error) {
	if id == "" {
		return nil, apperrors.Validation("product id is required")
	}
	var out printify.Product
	if s.lookup(ctx, productKey(id), &out) {
		return &out, nil
	}
	res, err := s.upstream.GetProduct(ctx, id)
	if err != nil {
		if printify.IsNotFound(err) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, err
	}
	s.store(ctx, productKey(id), res)
	return res, nil
}

// GetMirrored returns a published or pending mirror row by storefront handle.
// Deleted products are reported as missing.
func (s *Service) GetMirrored(ctx context.Context, handle string) (*models.Product, error) {
	p, err := s.products.FindByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if p.Status == models.ProductStatusDeleted {
		return nil, apperrors.NotFound("product not found")
	}
	return p, nil
}

func (s *Service) ListMirrored(ctx context.Context, offset, limit int) ([]models.Product, error) {
	if offset < 0 {
		offset = 0
	}
	_, limit = normalisePage(1, limit)
	products, err := s.products.ListPublished(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// InvalidateProduct drops the cached detail of a product and every cached
// list page, since list pages may contain it.
func (s *Service) InvalidateProduct(ctx context.Context, providerProductID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, productKey(providerProductID)); err != nil {
		log.Warnf("[Catalog] invalidate product %s: %v", providerProductID, err)
	}
	if err := s.cache.DeletePrefix(ctx, listKeyPrefix); err != nil {
		log.Warnf("[Catalog] invalidate product lists: %v", err)
	}
}

func (s *Service) lookup(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.GetJSON(ctx, key, dst)
	switch {
	case err != nil:
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
		log.Warnf("[Catalog] cache read %s: %v", key, err)
		return false
	case found:
		metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
		return true
	default:
		metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()
		return false
	}
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		log.Warnf("[Catalog] cache write %s: %v", key, err)
	}
}

func normalisePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
