package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storeops/backend/internal/domain/mapping"
	"github.com/storeops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMapping(t *testing.T, productID string, variationID *string, materialID string, materialVariationID *string, qty int) *mapping.Mapping {
	t.Helper()
	m, err := mapping.NewMapping(productID, variationID, materialID, materialVariationID, qty)
	require.NoError(t, err)
	return m
}

func TestGormMappingRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo := NewGormMappingRepository(newTestDB(t))

	m := newMapping(t, "101", nil, "mat-1", nil, 2)
	require.NoError(t, repo.Create(ctx, m))

	t.Run("identical tuple is rejected", func(t *testing.T) {
		dup := newMapping(t, "101", nil, "mat-1", nil, 5)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("same product with a variation is a different tuple", func(t *testing.T) {
		other := newMapping(t, "101", strPtr("7"), "mat-1", nil, 1)
		assert.NoError(t, repo.Create(ctx, other))
	})

	t.Run("find by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.QuantityUsed)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormMappingRepository_CreateMany(t *testing.T) {
	ctx := context.Background()
	repo := NewGormMappingRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, newMapping(t, "1", nil, "mat-a", nil, 1)))

	batch := []mapping.Mapping{
		*newMapping(t, "1", nil, "mat-a", nil, 3),
		*newMapping(t, "2", nil, "mat-a", nil, 1),
		*newMapping(t, "2", nil, "mat-a", nil, 9),
		*newMapping(t, "3", nil, "mat-b", strPtr("v1"), 2),
	}

	result, err := repo.CreateMany(ctx, batch)
	require.NoError(t, err)
	assert.Len(t, result.Created, 2)
	assert.Len(t, result.Skipped, 2)
	assert.Equal(t, 1, result.Created[0].QuantityUsed, "first occurrence in the batch wins")

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGormMappingRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := NewGormMappingRepository(newTestDB(t))

	simple := newMapping(t, "10", nil, "mat-1", nil, 1)
	variant := newMapping(t, "10", strPtr("11"), "mat-1", strPtr("var-1"), 2)
	external := newMapping(t, "20", nil, "ext-55", strPtr("ext-var"), 3)
	for _, m := range []*mapping.Mapping{simple, variant, external} {
		require.NoError(t, repo.Create(ctx, m))
	}

	t.Run("product lookup is exact on variation", func(t *testing.T) {
		found, err := repo.FindForProduct(ctx, "10", nil)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, simple.ID, found[0].ID)

		found, err = repo.FindForProduct(ctx, "10", strPtr("11"))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, variant.ID, found[0].ID)
	})

	t.Run("material lookup across aliases", func(t *testing.T) {
		found, err := repo.FindForMaterial(ctx, []string{"mat-1", "ext-55"}, mapping.AnyVariation())
		require.NoError(t, err)
		assert.Len(t, found, 3)

		found, err = repo.FindForMaterial(ctx, []string{"mat-1"}, mapping.NoVariation())
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, simple.ID, found[0].ID)

		found, err = repo.FindForMaterial(ctx, []string{"ext-55"}, mapping.ForVariation("local-id", "ext-var"))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, external.ID, found[0].ID)
	})

	t.Run("update quantity and delete", func(t *testing.T) {
		require.NoError(t, repo.UpdateQuantity(ctx, simple.ID, 6))
		found, err := repo.FindByID(ctx, simple.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, found.QuantityUsed)

		require.NoError(t, repo.Delete(ctx, simple.ID))
		assert.ErrorIs(t, repo.Delete(ctx, simple.ID), shared.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateQuantity(ctx, simple.ID, 1), shared.ErrNotFound)
	})
}
