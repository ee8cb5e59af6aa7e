// Package combination fingerprints the shippable contents of an order and
// caches the packed weight and dimensions verified for each fingerprint.
package combination

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"adminpanel/internal/models"
)

// Normalize canonicalises SKUs, merges repeated SKUs by summing quantities,
// and sorts by SKU.
func Normalize(items []models.CombinationItem) []models.CombinationItem {
	merged := make(map[string]*models.CombinationItem, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		sku := canonicalSKU(item.SKU)
		if existing, ok := merged[sku]; ok {
			existing.Quantity += item.Quantity
			if existing.ProductName == "" {
				existing.ProductName = strings.TrimSpace(item.ProductName)
			}
			continue
		}
		merged[sku] = &models.CombinationItem{
			SKU:         sku,
			Quantity:    item.Quantity,
			ProductName: strings.TrimSpace(item.ProductName),
		}
		order = append(order, sku)
	}

	sort.Strings(order)
	out := make([]models.CombinationItem, 0, len(order))
	for _, sku := range order {
		out = append(out, *merged[sku])
	}
	return out
}

// Key is the canonical encoding the hash is taken over, e.g.
// "SKU001:2|SKU002:1".
func Key(items []models.CombinationItem) string {
	normalized := Normalize(items)
	parts := make([]string, 0, len(normalized))
	for _, item := range normalized {
		parts = append(parts, item.SKU+":"+strconv.Itoa(item.Quantity))
	}
	return strings.Join(parts, "|")
}

// Hash returns the hex SHA-256 of Key. Permutations of the same multiset
// hash identically; any quantity difference produces a different hash.
// Because Key folds SKU case and merges repeated lines, these hashes do not
// match ones taken over the raw, unmerged sku:quantity pairs.
func Hash(items []models.CombinationItem) string {
	sum := sha256.Sum256([]byte(Key(items)))
	return hex.EncodeToString(sum[:])
}

// SKUs lists the distinct canonical SKUs for querying by product.
func SKUs(items []models.CombinationItem) []string {
	normalized := Normalize(items)
	skus := make([]string, 0, len(normalized))
	for _, item := range normalized {
		skus = append(skus, item.SKU)
	}
	return skus
}

// ValidateItems rejects lists that cannot be encoded unambiguously.
func ValidateItems(items []models.CombinationItem) error {
	if len(items) == 0 {
		return models.ValidationError{Field: "items", Reason: "must not be empty"}
	}
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if err := ValidateSKU(field+".sku", item.SKU); err != nil {
			return err
		}
		if item.Quantity <= 0 {
			return models.ValidationError{Field: field + ".quantity", Reason: "must be greater than zero"}
		}
	}
	return nil
}

// ValidateSKU rejects SKUs that are blank or contain the Key separators.
func ValidateSKU(field, sku string) error {
	sku = canonicalSKU(sku)
	if sku == "" {
		return models.ValidationError{Field: field, Reason: "is required"}
	}
	if strings.ContainsAny(sku, ":|") {
		return models.ValidationError{Field: field, Reason: "must not contain ':' or '|'"}
	}
	return nil
}

// ValidatePackage rejects non-positive weight or dimensions.
func ValidatePackage(weight float64, dims models.Dimensions) error {
	if weight <= 0 {
		return models.ValidationError{Field: "weight", Reason: "must be greater than zero"}
	}
	if dims.Length <= 0 || dims.Breadth <= 0 || dims.Height <= 0 {
		return models.ValidationError{Field: "dimensions", Reason: "l, b and h must be greater than zero"}
	}
	return nil
}

func canonicalSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
