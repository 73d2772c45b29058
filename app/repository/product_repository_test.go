package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/OnlyOne/app/models"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/apperrors"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/database/databasetest"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/identifier"
)

func newMirror(providerID, title string) *models.Product {
	return &models.Product{
		ProviderProductID: providerID,
		Title:             title,
		PriceMin:          2500,
		PriceMax:          2500,
		Currency:          "USD",
		Images:            []models.ProductImage{{Src: "https://img/1.png", Position: "front", IsDefault: true}},
		Variants:          []models.ProductVariant{{ID: 11, Title: "Red / M", Price: 2500, IsEnabled: true, IsAvailable: true, Options: []int64{1, 2}}},
		ExternalMetadata:  map[string]any{"blueprint_id": float64(6), "tags": []any{"dragon"}},
	}
}

func TestProductCreateAndFind(t *testing.T) {
	repo := NewProductRepository(databasetest.New(t))
	ctx := context.Background()

	p := newMirror("P1", "Dragon Fire")
	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, models.ProductStatusPending, p.Status)
	assert.NotEmpty(t, p.PublicID)
	assert.Equal(t, identifier.Handle("Dragon Fire", p.PublicID), p.Handle)

	byProvider, err := repo.FindByProviderID(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, p.PublicID, byProvider.PublicID)
	require.Len(t, byProvider.Variants, 1)
	assert.Equal(t, []int64{1, 2}, byProvider.Variants[0].Options)
	require.Len(t, byProvider.Images, 1)
	assert.Equal(t, "front", byProvider.Images[0].Position)
	assert.Equal(t, float64(6), byProvider.ExternalMetadata["blueprint_id"])

	byHandle, err := repo.FindByHandle(ctx, p.Handle)
	require.NoError(t, err)
	assert.Equal(t, "P1", byHandle.ProviderProductID)

	byPublic, err := repo.FindByPublicID(ctx, p.PublicID)
	require.NoError(t, err)
	assert.Equal(t, "P1", byPublic.ProviderProductID)

	_, err = repo.FindByHandle(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductCreateConflicts(t *testing.T) {
	repo := NewProductRepository(databasetest.New(t))
	ctx := context.Background()

	first := newMirror("P1", "Dragon Fire")
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, newMirror("P1", "Other"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	sameHandle := newMirror("P2", "Dragon Fire")
	sameHandle.PublicID = "x-" + identifier.TokenOf(first.PublicID) + "-1"
	sameHandle.Handle = first.Handle
	assert.ErrorIs(t, repo.Create(ctx, sameHandle), apperrors.ErrConflict)

	samePublic := newMirror("P3", "Dragon Fire")
	samePublic.PublicID = first.PublicID
	samePublic.Handle = "unique-handle"
	assert.ErrorIs(t, repo.Create(ctx, samePublic), apperrors.ErrConflict)
}

func TestProductMalformedJSONDecodesEmpty(t *testing.T) {
	db := databasetest.New(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newMirror("P1", "Dragon Fire")))
	require.NoError(t, db.Exec(`UPDATE products SET images = 'not json', variants = NULL, external_data = '[1,2]' WHERE provider_product_id = 'P1'`).Error)

	p, err := repo.FindByProviderID(ctx, "P1")
	require.NoError(t, err)
	assert.NotNil(t, p.Images)
	assert.Empty(t, p.Images)
	assert.NotNil(t, p.Variants)
	assert.Empty(t, p.Variants)
	assert.NotNil(t, p.ExternalMetadata)
	assert.Empty(t, p.ExternalMetadata)
}

func TestProductUpdateStatus(t *testing.T) {
	repo := NewProductRepository(databasetest.New(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newMirror("P1", "Dragon Fire")))

	published, err := repo.UpdateStatus(ctx, "P1", models.ProductStatusPublished, map[string]any{
		"external": map[string]any{"id": "pub", "handle": "https://shop/product/h"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	firstPublishedAt := *published.PublishedAt
	assert.Equal(t, float64(6), published.ExternalMetadata["blueprint_id"], "existing keys survive the merge")
	assert.NotNil(t, published.ExternalMetadata["external"])

	again, err := repo.UpdateStatus(ctx, "P1", models.ProductStatusPublished, nil)
	require.NoError(t, err)
	require.NotNil(t, again.PublishedAt)
	assert.True(t, firstPublishedAt.Equal(*again.PublishedAt), "published_at is only stamped on the transition")
	assert.NotNil(t, again.ExternalMetadata["external"], "nil metadata leaves the stored map untouched")

	deleted, err := repo.UpdateStatus(ctx, "P1", models.ProductStatusDeleted, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ProductStatusDeleted, deleted.Status)

	_, err = repo.UpdateStatus(ctx, "missing", models.ProductStatusDeleted, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListPublished(t *testing.T) {
	repo := NewProductRepository(databasetest.New(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newMirror("P1", "One")))
	require.NoError(t, repo.Create(ctx, newMirror("P2", "Two")))
	_, err := repo.UpdateStatus(ctx, "P2", models.ProductStatusPublished, nil)
	require.NoError(t, err)

	list, err := repo.ListPublished(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "P2", list[0].ProviderProductID)
}
