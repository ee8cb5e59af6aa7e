package models

import (
	"fmt"
	"strings"
)

type OrderSource string

const (
	SourceAdminForm OrderSource = "admin_form"
	SourceCustomer  OrderSource = "customer"
	SourceWhatsApp  OrderSource = "whatsapp"
	SourceImport    OrderSource = "import"
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "online"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// OrderItem represents a single product line within an order. TotalPrice is
// a pointer because legacy documents are missing it.
type OrderItem struct {
	ProductID   string   `bson:"productId" json:"productId"`
	VariationID string   `bson:"variationId,omitempty" json:"variationId,omitempty"`
	ProductName string   `bson:"productName" json:"productName"`
	SKU         string   `bson:"sku" json:"sku"`
	Quantity    int      `bson:"quantity" json:"quantity"`
	UnitPrice   float64  `bson:"unitPrice" json:"unitPrice"`
	TotalPrice  *float64 `bson:"totalPrice,omitempty" json:"totalPrice,omitempty"`
}

// CustomerInfo captures the customer snapshot taken when the order was placed.
type CustomerInfo struct {
	CustomerID string `bson:"customerId" json:"customerId"`
	Name       string `bson:"name" json:"name"`
	Phone      string `bson:"phone" json:"phone"`
	Email      string `bson:"email,omitempty" json:"email,omitempty"`
}

type PricingInfo struct {
	Subtotal        float64 `bson:"subtotal" json:"subtotal"`
	Discount        float64 `bson:"discount" json:"discount"`
	Taxes           float64 `bson:"taxes" json:"taxes"`
	ShippingCharges float64 `bson:"shippingCharges" json:"shippingCharges"`
	CODCharges      float64 `bson:"codCharges" json:"codCharges"`
	GrandTotal      float64 `bson:"grandTotal" json:"grandTotal"`
}

type PaymentInfo struct {
	Method            PaymentMethod `bson:"method" json:"method"`
	Status            string        `bson:"status" json:"status"`
	RazorpayOrderID   string        `bson:"razorpayOrderId,omitempty" json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string        `bson:"razorpayPaymentId,omitempty" json:"razorpayPaymentId,omitempty"`
	FailureReason     string        `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	PaidAt            Timestamp     `bson:"paidAt,omitempty" json:"paidAt"`
}

type Approval struct {
	Status          string    `bson:"status" json:"status"`
	ApprovedBy      string    `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt      Timestamp `bson:"approvedAt,omitempty" json:"approvedAt"`
	RejectionReason string    `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
}

type Shipment struct {
	Courier         string     `bson:"courier" json:"courier"`
	Waybill         string     `bson:"waybill" json:"waybill"`
	TrackingURL     string     `bson:"trackingUrl" json:"trackingUrl"`
	Weight          float64    `bson:"weight" json:"weight"`
	Dimensions      Dimensions `bson:"dimensions" json:"dimensions"`
	CombinationHash string     `bson:"combinationHash,omitempty" json:"combinationHash,omitempty"`
	ShippedBy       string     `bson:"shippedBy,omitempty" json:"shippedBy,omitempty"`
	ShippedAt       Timestamp  `bson:"shippedAt" json:"shippedAt"`
}

type StatusChange struct {
	From   InternalStatus `bson:"from" json:"from"`
	To     InternalStatus `bson:"to" json:"to"`
	By     string         `bson:"by,omitempty" json:"by,omitempty"`
	Reason string         `bson:"reason,omitempty" json:"reason,omitempty"`
	At     Timestamp      `bson:"at" json:"at"`
}

// Order is the canonical order document.
type Order struct {
	OrderID              string               `bson:"_id" json:"orderId"`
	OrderSource          OrderSource          `bson:"orderSource" json:"orderSource"`
	CustomerInfo         CustomerInfo         `bson:"customerInfo" json:"customerInfo"`
	ShippingAddress      PostalAddress        `bson:"shippingAddress" json:"shippingAddress"`
	Items                []OrderItem          `bson:"items" json:"items"`
	PricingInfo          PricingInfo          `bson:"pricingInfo" json:"pricingInfo"`
	PaymentInfo          PaymentInfo          `bson:"paymentInfo" json:"paymentInfo"`
	Approval             Approval             `bson:"approval" json:"approval"`
	Shipment             *Shipment            `bson:"shipment,omitempty" json:"shipment,omitempty"`
	InternalStatus       InternalStatus       `bson:"internalStatus" json:"internalStatus"`
	CustomerFacingStatus CustomerFacingStatus `bson:"customerFacingStatus" json:"customerFacingStatus"`
	StatusHistory        []StatusChange       `bson:"statusHistory,omitempty" json:"statusHistory,omitempty"`
	CreatedAt            Timestamp            `bson:"createdAt" json:"createdAt"`
	UpdatedAt            Timestamp            `bson:"updatedAt" json:"updatedAt"`
	// Version is bumped by every store save; a stale value makes the save fail.
	Version              int64                `bson:"version" json:"version"`
}

// CustomerOrder is the copy of an order kept per customer for customer-scoped
// listing. It is rewritten from the canonical order, never edited directly.
type CustomerOrder struct {
	ID         string    `bson:"_id" json:"-"`
	CustomerID string    `bson:"customerId" json:"customerId"`
	OrderID    string    `bson:"orderId" json:"orderId"`
	Order      Order     `bson:"order" json:"order"`
	SyncedAt   Timestamp `bson:"syncedAt" json:"syncedAt"`
}

func MirrorID(customerID, orderID string) string {
	return customerID + ":" + orderID
}

// Validate reports whether a stored order is well formed enough to serve.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.OrderID) == "" {
		return invalid("orderId", "is required")
	}
	if strings.TrimSpace(o.CustomerInfo.Phone) == "" {
		return invalid("customerInfo.phone", "is required")
	}
	if len(o.Items) == 0 {
		return invalid("items", "must not be empty")
	}
	for i, item := range o.Items {
		field := fmt.Sprintf("items[%d]", i)
		if item.Quantity <= 0 {
			return invalid(field+".quantity", "must be greater than zero")
		}
		if item.UnitPrice < 0 {
			return invalid(field+".unitPrice", "must not be negative")
		}
		if item.TotalPrice == nil {
			return invalid(field+".totalPrice", "is missing")
		}
		if *item.TotalPrice < 0 {
			return invalid(field+".totalPrice", "must not be negative")
		}
	}
	if !o.InternalStatus.IsValid() {
		return invalid("internalStatus", fmt.Sprintf("%q is not a known status", o.InternalStatus))
	}
	return nil
}

// Transition moves the order to next, recording history and refreshing the
// customer-facing projection.
func (o *Order) Transition(next InternalStatus, by, reason string, at Timestamp) error {
	if !o.InternalStatus.CanTransitionTo(next) {
		return TransitionError{From: o.InternalStatus, To: next}
	}
	o.StatusHistory = append(o.StatusHistory, StatusChange{
		From:   o.InternalStatus,
		To:     next,
		By:     by,
		Reason: reason,
		At:     at,
	})
	o.InternalStatus = next
	o.CustomerFacingStatus = next.CustomerFacing()
	o.UpdatedAt = at
	return nil
}

// Combination returns the shippable contents of the order as (sku, quantity)
// pairs.
func (o *Order) Combination() []CombinationItem {
	items := make([]CombinationItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, CombinationItem{
			SKU:         item.SKU,
			Quantity:    item.Quantity,
			ProductName: item.ProductName,
		})
	}
	return items
}
