package combination

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/models"
	"adminpanel/internal/store"
)

func items(pairs ...interface{}) []models.CombinationItem {
	out := make([]models.CombinationItem, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.CombinationItem{SKU: pairs[i].(string), Quantity: pairs[i+1].(int)})
	}
	return out
}

func TestHashIgnoresItemOrder(t *testing.T) {
	a := items("SKU001", 2, "SKU002", 1)
	b := items("SKU002", 1, "SKU001", 2)
	assert.Equal(t, Hash(a), Hash(b))
	assert.Equal(t, "SKU001:2|SKU002:1", Key(a))
}

func TestHashDiffersOnQuantity(t *testing.T) {
	base := Hash(items("SKU001", 2, "SKU002", 1))
	assert.NotEqual(t, base, Hash(items("SKU001", 1, "SKU002", 1)))
	assert.NotEqual(t, base, Hash(items("SKU001", 2, "SKU002", 2)))
	assert.NotEqual(t, base, Hash(items("SKU001", 2)))
}

func TestHashAllPermutationsMatch(t *testing.T) {
	list := items("A", 1, "B", 2, "C", 3)
	want := Hash(list)
	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, p := range perms {
		permuted := []models.CombinationItem{list[p[0]], list[p[1]], list[p[2]]}
		assert.Equal(t, want, Hash(permuted), "permutation %v", p)
	}
}

func TestNormalizeMergesRepeatedSKUs(t *testing.T) {
	got := Normalize(items(" sku001 ", 1, "SKU002", 1, "SKU001", 1))
	require.Len(t, got, 2)
	assert.Equal(t, models.CombinationItem{SKU: "SKU001", Quantity: 2}, got[0])
	assert.Equal(t, Hash(items("SKU001", 2, "SKU002", 1)), Hash(got))
	assert.Equal(t, Hash(items("A", 2)), Hash(items("a", 1, "A", 1)))
}

func TestValidateItems(t *testing.T) {
	var validationErr models.ValidationError
	assert.True(t, errors.As(ValidateItems(nil), &validationErr))
	assert.Error(t, ValidateItems(items("", 1)))
	assert.Error(t, ValidateItems(items("SKU:1", 1)))
	assert.Error(t, ValidateItems(items("SKU001", 0)))
	assert.NoError(t, ValidateItems(items("SKU001", 1)))
}

func newTestCache() (*Cache, *time.Time) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := NewCache(store.NewMemory().Combinations).WithClock(func() time.Time { return now })
	return cache, &now
}

func createInput() CreateInput {
	return CreateInput{
		Items:      items("SKU001", 2, "SKU002", 1),
		Weight:     1.25,
		Dimensions: models.Dimensions{Length: 20, Breadth: 15, Height: 10},
		VerifiedBy: "ops@example.com",
	}
}

func TestCreateRejectsSecondCreate(t *testing.T) {
	cache, _ := newTestCache()
	ctx := context.Background()

	rec, err := cache.Create(ctx, createInput())
	require.NoError(t, err)
	assert.True(t, rec.IsActive)
	assert.Equal(t, []string{"SKU001", "SKU002"}, rec.ProductSKUs)

	again := createInput()
	again.Weight = 9
	again.Items = items("SKU002", 1, "SKU001", 2)
	_, err = cache.Create(ctx, again)
	assert.ErrorIs(t, err, store.ErrConflict)

	stored, err := cache.Get(ctx, rec.Hash)
	require.NoError(t, err)
	assert.Equal(t, 1.25, stored.Weight)
}

func TestRecordUsageIsMonotonic(t *testing.T) {
	cache, now := newTestCache()
	ctx := context.Background()

	rec, err := cache.Create(ctx, createInput())
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		*now = now.Add(time.Minute)
		updated, err := cache.RecordUsage(ctx, rec.Hash)
		require.NoError(t, err)
		assert.Equal(t, int64(i), updated.UsageCount)
		assert.True(t, updated.LastUsedAt.Equal(*now))
	}
}

func TestUpdateOverwritesOnlyProvidedFields(t *testing.T) {
	cache, _ := newTestCache()
	ctx := context.Background()
	rec, err := cache.Create(ctx, createInput())
	require.NoError(t, err)

	weight := 2.5
	updated, err := cache.Update(ctx, rec.Hash, store.CombinationPatch{Weight: &weight}, "lead@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2.5, updated.Weight)
	assert.Equal(t, rec.Dimensions, updated.Dimensions)
	assert.Equal(t, "lead@example.com", updated.UpdatedBy)
	assert.False(t, updated.UpdatedAt.IsZero())

	bad := -1.0
	_, err = cache.Update(ctx, rec.Hash, store.CombinationPatch{Weight: &bad}, "lead@example.com")
	var validationErr models.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestDeactivateIsReversibleAndLookupSkipsInactive(t *testing.T) {
	cache, _ := newTestCache()
	ctx := context.Background()
	rec, err := cache.Create(ctx, createInput())
	require.NoError(t, err)

	found, err := cache.Lookup(ctx, items("SKU002", 1, "SKU001", 2))
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.UsageCount)

	_, err = cache.Deactivate(ctx, rec.Hash, "ops@example.com")
	require.NoError(t, err)

	_, err = cache.Lookup(ctx, createInput().Items)
	assert.ErrorIs(t, err, ErrInactive)

	active := true
	reactivated, err := cache.Update(ctx, rec.Hash, store.CombinationPatch{IsActive: &active}, "ops@example.com")
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)
	assert.Equal(t, int64(1), reactivated.UsageCount)
}

func TestLookupUnknownCombination(t *testing.T) {
	cache, _ := newTestCache()
	_, err := cache.Lookup(context.Background(), items("NOPE", 1))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindDoesNotCountUsage(t *testing.T) {
	cache, _ := newTestCache()
	ctx := context.Background()
	rec, err := cache.Create(ctx, createInput())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		found, err := cache.Find(ctx, items("SKU002", 1, "SKU001", 2))
		require.NoError(t, err)
		assert.Equal(t, int64(0), found.UsageCount)
	}

	_, err = cache.Deactivate(ctx, rec.Hash, "ops@example.com")
	require.NoError(t, err)
	_, err = cache.Find(ctx, createInput().Items)
	assert.ErrorIs(t, err, ErrInactive)

	stored, err := cache.Get(ctx, rec.Hash)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.UsageCount)
}
