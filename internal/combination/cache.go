package combination

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"adminpanel/internal/models"
	"adminpanel/internal/store"
)

// ErrInactive is returned by Lookup when the combination was deactivated.
var ErrInactive = errors.New("combination is inactive")

// Cache is a write-once-verify, read-many-reuse cache. Records persist until
// deactivated; there is no eviction.
type Cache struct {
	store store.Combinations
	now   func() time.Time
}

func NewCache(s store.Combinations) *Cache {
	return &Cache{store: s, now: time.Now}
}

// WithClock replaces the time source.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

type CreateInput struct {
	Items      []models.CombinationItem
	Weight     float64
	Dimensions models.Dimensions
	VerifiedBy string
	Notes      string
}

func (c *Cache) Get(ctx context.Context, hash string) (*models.VerifiedCombination, error) {
	return c.store.Get(ctx, strings.ToLower(strings.TrimSpace(hash)))
}

// Create stores a newly verified combination. A second create for the same
// hash fails with store.ErrConflict; edits go through Update.
func (c *Cache) Create(ctx context.Context, in CreateInput) (*models.VerifiedCombination, error) {
	if err := ValidateItems(in.Items); err != nil {
		return nil, err
	}
	if err := ValidatePackage(in.Weight, in.Dimensions); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.VerifiedBy) == "" {
		return nil, models.ValidationError{Field: "verifiedBy", Reason: "is required"}
	}

	items := Normalize(in.Items)
	rec := &models.VerifiedCombination{
		Hash:        Hash(items),
		Items:       items,
		Weight:      in.Weight,
		Dimensions:  in.Dimensions,
		ProductSKUs: SKUs(items),
		VerifiedBy:  in.VerifiedBy,
		VerifiedAt:  models.NewTimestamp(c.now()),
		IsActive:    true,
		Notes:       strings.TrimSpace(in.Notes),
	}
	if err := c.store.Create(ctx, rec); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("combination %s already verified: %w", rec.Hash, err)
		}
		return nil, err
	}
	log.Printf("[COMBINATION] [INFO] verified %s (%s) by %s", rec.Hash, Key(items), rec.VerifiedBy)
	return rec, nil
}

func (c *Cache) RecordUsage(ctx context.Context, hash string) (*models.VerifiedCombination, error) {
	return c.store.RecordUsage(ctx, strings.ToLower(strings.TrimSpace(hash)), c.now())
}

func (c *Cache) Update(ctx context.Context, hash string, patch store.CombinationPatch, by string) (*models.VerifiedCombination, error) {
	if patch.Weight != nil && *patch.Weight <= 0 {
		return nil, models.ValidationError{Field: "weight", Reason: "must be greater than zero"}
	}
	if patch.Dimensions != nil {
		if err := ValidatePackage(1, *patch.Dimensions); err != nil {
			return nil, err
		}
	}
	if patch.Notes != nil {
		trimmed := strings.TrimSpace(*patch.Notes)
		patch.Notes = &trimmed
	}
	return c.store.Update(ctx, strings.ToLower(strings.TrimSpace(hash)), patch, by, c.now())
}

// Deactivate is the only form of deletion; Update with IsActive reverses it.
func (c *Cache) Deactivate(ctx context.Context, hash, by string) (*models.VerifiedCombination, error) {
	return c.store.Deactivate(ctx, strings.ToLower(strings.TrimSpace(hash)), by, c.now())
}

func (c *Cache) List(ctx context.Context, filter store.CombinationFilter) ([]models.VerifiedCombination, int64, error) {
	filter.SKU = canonicalSKU(filter.SKU)
	return c.store.List(ctx, filter)
}

// Find returns the active record for items without counting a reuse.
func (c *Cache) Find(ctx context.Context, items []models.CombinationItem) (*models.VerifiedCombination, error) {
	if err := ValidateItems(items); err != nil {
		return nil, err
	}
	rec, err := c.store.Get(ctx, Hash(items))
	if err != nil {
		return nil, err
	}
	if !rec.IsActive {
		return rec, ErrInactive
	}
	return rec, nil
}

// Lookup finds the active record for items and counts the reuse.
func (c *Cache) Lookup(ctx context.Context, items []models.CombinationItem) (*models.VerifiedCombination, error) {
	rec, err := c.Find(ctx, items)
	if err != nil {
		return rec, err
	}
	return c.store.RecordUsage(ctx, rec.Hash, c.now())
}
