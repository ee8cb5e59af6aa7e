package orders

import (
	"github.com/shopspring/decimal"

	"adminpanel/internal/models"
)

// Adjustments are the order-level amounts applied on top of the item
// subtotal.
type Adjustments struct {
	Discount        float64
	Taxes           float64
	ShippingCharges float64
	CODCharges      float64
}

// LineTotal is quantity*unitPrice rounded to paise.
func LineTotal(quantity int, unitPrice float64) float64 {
	return decimal.NewFromFloat(unitPrice).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		InexactFloat64()
}

// FillLineTotals sets TotalPrice on every item and reports whether any item
// changed.
func FillLineTotals(items []models.OrderItem) bool {
	changed := false
	for i := range items {
		want := LineTotal(items[i].Quantity, items[i].UnitPrice)
		if items[i].TotalPrice != nil && *items[i].TotalPrice == want {
			continue
		}
		items[i].TotalPrice = &want
		changed = true
	}
	return changed
}

// ComputePricing derives subtotal and grand total from the items, which must
// already carry their line totals.
func ComputePricing(items []models.OrderItem, adj Adjustments) models.PricingInfo {
	subtotal := decimal.Zero
	for _, item := range items {
		if item.TotalPrice != nil {
			subtotal = subtotal.Add(decimal.NewFromFloat(*item.TotalPrice))
		}
	}

	grand := subtotal.
		Sub(decimal.NewFromFloat(adj.Discount)).
		Add(decimal.NewFromFloat(adj.Taxes)).
		Add(decimal.NewFromFloat(adj.ShippingCharges)).
		Add(decimal.NewFromFloat(adj.CODCharges))
	if grand.IsNegative() {
		grand = decimal.Zero
	}

	return models.PricingInfo{
		Subtotal:        subtotal.Round(2).InexactFloat64(),
		Discount:        adj.Discount,
		Taxes:           adj.Taxes,
		ShippingCharges: adj.ShippingCharges,
		CODCharges:      adj.CODCharges,
		GrandTotal:      grand.Round(2).InexactFloat64(),
	}
}

// Reprice recomputes subtotal and grand total keeping the stored
// adjustments.
func Reprice(order *models.Order) {
	order.PricingInfo = ComputePricing(order.Items, Adjustments{
		Discount:        order.PricingInfo.Discount,
		Taxes:           order.PricingInfo.Taxes,
		ShippingCharges: order.PricingInfo.ShippingCharges,
		CODCharges:      order.PricingInfo.CODCharges,
	})
}
