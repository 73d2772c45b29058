package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/app/repository"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/database/databasetest"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/printify"
)

type fakeUpstream struct {
	productCalls int
	listCalls    int
}

func (u *fakeUpstream) GetProduct(_ context.Context, id string) (*printify.Product, error) {
	u.productCalls++
	if id == "missing" {
		return nil, &printify.Error{StatusCode: http.StatusNotFound}
	}
	return &printify.Product{ID: id, Title: "Dragon Fire"}, nil
}

func (u *fakeUpstream) ListProducts(_ context.Context, page, limit int) (*printify.ProductPage, error) {
	u.listCalls++
	return &printify.ProductPage{CurrentPage: page, PerPage: limit, Data: []printify.Product{{ID: "P1"}}}, nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failing bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return false, errors.New("cache down")
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("cache down")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func newCatalog(t *testing.T, cache Cache) (*Service, *fakeUpstream, repository.ProductRepository) {
	t.Helper()
	up := &fakeUpstream{}
	products := repository.NewProductRepository(databasetest.New(t))
	return NewService(Config{TTL: time.Minute}, up, cache, products), up, products
}

func TestGetProductIsCached(t *testing.T) {
	svc, up, _ := newCatalog(t, newMemoryCache())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := svc.GetProduct(ctx, "P1")
		require.NoError(t, err)
		assert.Equal(t, "Dragon Fire", p.Title)
	}
	assert.Equal(t, 1, up.productCalls)

	svc.InvalidateProduct(ctx, "P1")
	_, err := svc.GetProduct(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 2, up.productCalls)
}

func TestListProductsCachedPerPage(t *testing.T) {
	svc, up, _ := newCatalog(t, newMemoryCache())
	ctx := context.Background()

	_, err := svc.ListProducts(ctx, 1, 20)
	require.NoError(t, err)
	_, err = svc.ListProducts(ctx, 1, 20)
	require.NoError(t, err)
	page, err := svc.ListProducts(ctx, 2, 500)
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, page.PerPage)
	assert.Equal(t, 2, up.listCalls)

	svc.InvalidateProduct(ctx, "P1")
	_, err = svc.ListProducts(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, up.listCalls)
}

func TestCacheFailureFallsBackUpstream(t *testing.T) {
	cache := newMemoryCache()
	cache.failing = true
	svc, up, _ := newCatalog(t, cache)

	_, err := svc.GetProduct(context.Background(), "P1")
	require.NoError(t, err)
	_, err = svc.GetProduct(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, 2, up.productCalls)
}

func TestGetProductNotFound(t *testing.T) {
	svc, _, _ := newCatalog(t, nil)
	_, err := svc.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMirroredProducts(t *testing.T) {
	svc, _, products := newCatalog(t, nil)
	ctx := context.Background()

	p := &models.Product{ProviderProductID: "P1", Title: "Dragon Fire"}
	require.NoError(t, products.Create(ctx, p))

	got, err := svc.GetMirrored(ctx, p.Handle)
	require.NoError(t, err)
	assert.Equal(t, p.PublicID, got.PublicID)

	list, err := svc.ListMirrored(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list, "pending rows are not listed")

	_, err = products.UpdateStatus(ctx, "P1", models.ProductStatusPublished, nil)
	require.NoError(t, err)
	list, err = svc.ListMirrored(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = products.UpdateStatus(ctx, "P1", models.ProductStatusDeleted, nil)
	require.NoError(t, err)
	_, err = svc.GetMirrored(ctx, p.Handle)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
