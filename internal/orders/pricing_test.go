package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/models"
)

func TestLineTotal(t *testing.T) {
	assert.Equal(t, 1000.0, LineTotal(2, 500))
	assert.Equal(t, 0.3, LineTotal(3, 0.1))
	assert.Equal(t, 0.0, LineTotal(4, 0))
}

func TestFillLineTotalsBackfillsMissing(t *testing.T) {
	wrong := 10.0
	items := []models.OrderItem{
		{SKU: "SKU001", Quantity: 2, UnitPrice: 500},
		{SKU: "SKU002", Quantity: 1, UnitPrice: 250, TotalPrice: &wrong},
	}
	assert.True(t, FillLineTotals(items))
	require.NotNil(t, items[0].TotalPrice)
	assert.Equal(t, 1000.0, *items[0].TotalPrice)
	assert.Equal(t, 250.0, *items[1].TotalPrice)

	assert.False(t, FillLineTotals(items))
}

func TestComputePricing(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 2, UnitPrice: 500},
		{Quantity: 1, UnitPrice: 199.99},
	}
	FillLineTotals(items)

	p := ComputePricing(items, Adjustments{Discount: 100, Taxes: 18.5, ShippingCharges: 40, CODCharges: 25})
	assert.Equal(t, 1199.99, p.Subtotal)
	assert.Equal(t, 1183.49, p.GrandTotal)

	p = ComputePricing(items, Adjustments{Discount: 5000})
	assert.Equal(t, 0.0, p.GrandTotal)
}
