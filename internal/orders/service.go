// Package orders owns the order lifecycle: creation, approval, shipment,
// status changes, payment events and the customer mirror.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"adminpanel/internal/addressbook"
	"adminpanel/internal/combination"
	"adminpanel/internal/courier"
	"adminpanel/internal/models"
	"adminpanel/internal/notify"
	"adminpanel/internal/store"
)

var (
	// ErrPaymentRequired blocks approval of online orders that are not paid.
	ErrPaymentRequired = errors.New("online payment has not been captured")
	// ErrPackageUnknown means no weight/dimensions were supplied and the
	// combination has not been verified.
	ErrPackageUnknown = errors.New("package weight and dimensions unknown for this combination")
	// ErrCourier wraps booking failures from the courier API.
	ErrCourier = errors.New("courier booking failed")
)

type Shipper interface {
	Book(ctx context.Context, courierName string, req courier.Request) (courier.Booking, error)
}

type Notifier interface {
	Notify(event notify.Event, order *models.Order)
}

type Options struct {
	Orders       store.Orders
	Customers    store.Customers
	Combinations *combination.Cache
	Shipper      Shipper
	Notifier     Notifier
	Now          func() time.Time
}

type Service struct {
	orders       store.Orders
	customers    store.Customers
	combinations *combination.Cache
	shipper      Shipper
	notifier     Notifier
	now          func() time.Time
}

type noopNotifier struct{}

func (noopNotifier) Notify(notify.Event, *models.Order) {}

func NewService(opts Options) *Service {
	s := &Service{
		orders:       opts.Orders,
		customers:    opts.Customers,
		combinations: opts.Combinations,
		shipper:      opts.Shipper,
		notifier:     opts.Notifier,
		now:          opts.Now,
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type CustomerInput struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required,e164"`
	Email string `json:"email" binding:"omitempty,email"`
}

type ItemInput struct {
	ProductID   string  `json:"productId"`
	VariationID string  `json:"variationId"`
	ProductName string  `json:"productName" binding:"required"`
	SKU         string  `json:"sku" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64 `json:"unitPrice" binding:"gte=0"`
}

type CreateInput struct {
	OrderSource     models.OrderSource   `json:"orderSource"`
	Customer        CustomerInput        `json:"customerInfo" binding:"required"`
	ShippingAddress models.PostalAddress `json:"shippingAddress" binding:"required"`
	Items           []ItemInput          `json:"items" binding:"required,min=1,dive"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod" binding:"required,oneof=COD online"`
	RazorpayOrderID string               `json:"razorpayOrderId"`
	Discount        float64              `json:"discount" binding:"gte=0"`
	Taxes           float64              `json:"taxes" binding:"gte=0"`
	ShippingCharges float64              `json:"shippingCharges" binding:"gte=0"`
	CODCharges      float64              `json:"codCharges" binding:"gte=0"`
	CreatedBy       string               `json:"-"`
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Customer.Phone) == "" {
		return models.ValidationError{Field: "customerInfo.phone", Reason: "is required"}
	}
	if strings.TrimSpace(in.Customer.Name) == "" {
		return models.ValidationError{Field: "customerInfo.name", Reason: "is required"}
	}
	if len(in.Items) == 0 {
		return models.ValidationError{Field: "items", Reason: "must not be empty"}
	}
	for i, item := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if err := combination.ValidateSKU(field+".sku", item.SKU); err != nil {
			return err
		}
		if item.Quantity <= 0 {
			return models.ValidationError{Field: field + ".quantity", Reason: "must be greater than zero"}
		}
		if item.UnitPrice < 0 {
			return models.ValidationError{Field: field + ".unitPrice", Reason: "must not be negative"}
		}
	}
	switch in.PaymentMethod {
	case models.PaymentCOD, models.PaymentOnline:
	default:
		return models.ValidationError{Field: "paymentMethod", Reason: "must be COD or online"}
	}
	switch in.OrderSource {
	case "", models.SourceAdminForm, models.SourceCustomer, models.SourceWhatsApp, models.SourceImport:
	default:
		return models.ValidationError{Field: "orderSource", Reason: fmt.Sprintf("%q is not a known source", in.OrderSource)}
	}
	return addressbook.Validate(in.ShippingAddress)
}

// Create places a new order, registering the customer on first order.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := models.NewTimestamp(s.now())

	customer, err := s.resolveCustomer(ctx, in.Customer, now)
	if err != nil {
		return nil, err
	}

	orderID, err := s.orders.NextOrderID(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate order id: %w", err)
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		items = append(items, models.OrderItem{
			ProductID:   strings.TrimSpace(item.ProductID),
			VariationID: strings.TrimSpace(item.VariationID),
			ProductName: strings.TrimSpace(item.ProductName),
			SKU:         strings.ToUpper(strings.TrimSpace(item.SKU)),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	FillLineTotals(items)

	source := in.OrderSource
	if source == "" {
		source = models.SourceAdminForm
	}
	status := models.StatusCreatedPending
	if in.PaymentMethod == models.PaymentOnline {
		status = models.StatusPaymentPending
	}

	order := &models.Order{
		OrderID:     orderID,
		OrderSource: source,
		CustomerInfo: models.CustomerInfo{
			CustomerID: customer.ID,
			Name:       strings.TrimSpace(in.Customer.Name),
			Phone:      customer.Phone,
			Email:      strings.TrimSpace(in.Customer.Email),
		},
		ShippingAddress: addressbook.Normalize(in.ShippingAddress),
		Items:           items,
		PricingInfo: ComputePricing(items, Adjustments{
			Discount:        in.Discount,
			Taxes:           in.Taxes,
			ShippingCharges: in.ShippingCharges,
			CODCharges:      in.CODCharges,
		}),
		PaymentInfo: models.PaymentInfo{
			Method:          in.PaymentMethod,
			Status:          models.PaymentStatusPending,
			RazorpayOrderID: strings.TrimSpace(in.RazorpayOrderID),
		},
		Approval:             models.Approval{Status: models.ApprovalPending},
		InternalStatus:       status,
		CustomerFacingStatus: status.CustomerFacing(),
		StatusHistory:        []models.StatusChange{{To: status, By: in.CreatedBy, At: now}},
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	if err := s.customers.RecordOrder(ctx, customer.ID, now.Time); err != nil {
		log.Printf("[ORDER] [WARN] order %s created but customer stats not updated: %v", order.OrderID, err)
	}
	log.Printf("[ORDER] [INFO] created %s for customer %s (%s, %.2f)", order.OrderID, customer.ID, order.InternalStatus, order.PricingInfo.GrandTotal)

	s.notifier.Notify(notify.EventOrderConfirmation, order)
	return order, nil
}

func (s *Service) resolveCustomer(ctx context.Context, in CustomerInput, now models.Timestamp) (*models.Customer, error) {
	phone := strings.TrimSpace(in.Phone)
	customer, err := s.customers.GetByPhone(ctx, phone)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	customer = &models.Customer{
		ID:          uuid.NewString(),
		Phone:       phone,
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		Addresses:   []models.Address{},
		LoyaltyTier: models.TierBronze,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// registered concurrently
			return s.customers.GetByPhone(ctx, phone)
		}
		return nil, err
	}
	log.Printf("[CUSTOMER] [INFO] registered %s for %s on first order", customer.ID, phone)
	return customer, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return s.orders.Get(ctx, strings.TrimSpace(orderID))
}

func (s *Service) List(ctx context.Context, filter store.OrderFilter) ([]models.Order, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, models.ValidationError{Field: "status", Reason: fmt.Sprintf("%q is not a known status", filter.Status)}
	}
	return s.orders.List(ctx, filter)
}

// ListForCustomer reads the customer's mirror.
func (s *Service) ListForCustomer(ctx context.Context, phone string, page, limit int64) ([]models.Order, int64, error) {
	customer, err := s.customers.GetByPhone(ctx, phone)
	if err != nil {
		return nil, 0, err
	}
	return s.orders.ListMirror(ctx, customer.ID, page, limit)
}

type ApproveInput struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
	By      string `json:"-"`
}

// Approve approves or rejects an order awaiting review.
func (s *Service) Approve(ctx context.Context, orderID string, in ApproveInput) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	at := models.NewTimestamp(s.now())

	if in.Approve {
		if order.PaymentInfo.Method == models.PaymentOnline && order.PaymentInfo.Status != models.PaymentStatusPaid {
			return nil, ErrPaymentRequired
		}
		if err := order.Transition(models.StatusApproved, in.By, in.Reason, at); err != nil {
			return nil, err
		}
		order.Approval = models.Approval{Status: models.ApprovalApproved, ApprovedBy: in.By, ApprovedAt: at}
	} else {
		reason := strings.TrimSpace(in.Reason)
		if reason == "" {
			return nil, models.ValidationError{Field: "reason", Reason: "is required when rejecting"}
		}
		if err := order.Transition(models.StatusRejected, in.By, reason, at); err != nil {
			return nil, err
		}
		order.Approval = models.Approval{Status: models.ApprovalRejected, ApprovedBy: in.By, ApprovedAt: at, RejectionReason: reason}
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	log.Printf("[ORDER] [INFO] %s %s by %s", order.OrderID, order.Approval.Status, in.By)

	if in.Approve {
		s.notifier.Notify(notify.EventOrderApproved, order)
	} else {
		s.notifier.Notify(notify.EventOrderRejected, order)
	}
	return order, nil
}

type ShipInput struct {
	Courier    string             `json:"courier"`
	Weight     *float64           `json:"weight" binding:"omitempty,gt=0"`
	Dimensions *models.Dimensions `json:"dimensions"`
	// Verify stores the supplied weight and dimensions as a verified
	// combination for later orders.
	Verify bool   `json:"verify"`
	Notes  string `json:"notes"`
	By     string `json:"-"`
}

// Ship books the shipment and moves an approved order to shipped.
func (s *Service) Ship(ctx context.Context, orderID string, in ShipInput) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.InternalStatus.CanTransitionTo(models.StatusShipped) {
		return nil, models.TransitionError{From: order.InternalStatus, To: models.StatusShipped}
	}

	pkg, err := s.packageFor(ctx, order, in)
	if err != nil {
		return nil, err
	}

	quantity := 0
	names := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		quantity += item.Quantity
		names = append(names, item.ProductName)
	}
	cod := 0.0
	if order.PaymentInfo.Method == models.PaymentCOD {
		cod = order.PricingInfo.GrandTotal
	}

	booking, err := s.shipper.Book(ctx, in.Courier, courier.Request{
		OrderID:       order.OrderID,
		Name:          order.CustomerInfo.Name,
		Phone:         order.CustomerInfo.Phone,
		Address:       order.ShippingAddress,
		PaymentMethod: order.PaymentInfo.Method,
		CODAmount:     cod,
		TotalAmount:   order.PricingInfo.GrandTotal,
		Description:   strings.Join(names, ", "),
		Quantity:      quantity,
		Weight:        pkg.weight,
		Dimensions:    pkg.dims,
	})
	if err != nil {
		log.Printf("[ORDER] [ERROR] booking %s failed: %v", order.OrderID, err)
		return nil, fmt.Errorf("%w: %v", ErrCourier, err)
	}

	at := models.NewTimestamp(s.now())
	order.Shipment = &models.Shipment{
		Courier:         booking.Courier,
		Waybill:         booking.Waybill,
		TrackingURL:     booking.TrackingURL,
		Weight:          pkg.weight,
		Dimensions:      pkg.dims,
		CombinationHash: pkg.hash,
		ShippedBy:       in.By,
		ShippedAt:       at,
	}
	if err := order.Transition(models.StatusShipped, in.By, "", at); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		log.Printf("[ORDER] [ERROR] %s booked as waybill %s but not saved: %v", order.OrderID, booking.Waybill, err)
		return nil, err
	}
	log.Printf("[ORDER] [INFO] %s shipped via %s waybill %s", order.OrderID, booking.Courier, booking.Waybill)
	s.recordPackage(ctx, order, pkg, in)

	s.notifier.Notify(notify.EventOrderShipped, order)
	return order, nil
}

// shipPackage is what gets booked for an order. reused and verify are
// applied to the combination cache only once the shipment is saved.
type shipPackage struct {
	weight float64
	dims   models.Dimensions
	hash   string
	reused bool
	verify bool
}

func (s *Service) packageFor(ctx context.Context, order *models.Order, in ShipInput) (shipPackage, error) {
	items := order.Combination()
	hash := combination.Hash(items)

	if in.Weight != nil && in.Dimensions != nil {
		if err := combination.ValidatePackage(*in.Weight, *in.Dimensions); err != nil {
			return shipPackage{}, err
		}
		verify := in.Verify && s.combinations != nil
		if verify {
			if err := combination.ValidateItems(items); err != nil {
				return shipPackage{}, err
			}
		}
		return shipPackage{weight: *in.Weight, dims: *in.Dimensions, hash: hash, verify: verify}, nil
	}
	if in.Weight != nil || in.Dimensions != nil {
		return shipPackage{}, models.ValidationError{Field: "weight", Reason: "and dimensions must be supplied together"}
	}
	if s.combinations == nil {
		return shipPackage{}, ErrPackageUnknown
	}

	rec, err := s.combinations.Find(ctx, items)
	switch {
	case err == nil:
		return shipPackage{weight: rec.Weight, dims: rec.Dimensions, hash: rec.Hash, reused: true}, nil
	case errors.Is(err, store.ErrNotFound), errors.Is(err, combination.ErrInactive):
		return shipPackage{}, fmt.Errorf("%w (%s)", ErrPackageUnknown, hash)
	default:
		return shipPackage{}, err
	}
}

// recordPackage updates the combination cache after a saved shipment.
// Failures are logged; the order is already shipped.
func (s *Service) recordPackage(ctx context.Context, order *models.Order, pkg shipPackage, in ShipInput) {
	switch {
	case pkg.reused:
		if _, err := s.combinations.RecordUsage(ctx, pkg.hash); err != nil {
			log.Printf("[COMBINATION] [WARN] usage for %s not recorded: %v", pkg.hash, err)
		}
	case pkg.verify:
		_, err := s.combinations.Create(ctx, combination.CreateInput{
			Items:      order.Combination(),
			Weight:     pkg.weight,
			Dimensions: pkg.dims,
			VerifiedBy: in.By,
			Notes:      in.Notes,
		})
		if err != nil && !errors.Is(err, store.ErrConflict) {
			log.Printf("[COMBINATION] [WARN] %s shipped but combination not verified: %v", order.OrderID, err)
		}
	}
}

type StatusInput struct {
	Status models.InternalStatus `json:"status" binding:"required"`
	Reason string                `json:"reason"`
	By     string                `json:"-"`
}

// statusEndpointTargets are the states reachable through UpdateStatus;
// approval and shipment have their own flows.
var statusEndpointTargets = map[models.InternalStatus]bool{
	models.StatusDelivered:       true,
	models.StatusCancelled:       true,
	models.StatusReturnInitiated: true,
	models.StatusReturned:        true,
}

func (s *Service) UpdateStatus(ctx context.Context, orderID string, in StatusInput) (*models.Order, error) {
	if !statusEndpointTargets[in.Status] {
		return nil, models.ValidationError{Field: "status", Reason: "must be one of delivered, cancelled, return_initiated, returned"}
	}
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	at := models.NewTimestamp(s.now())
	if err := order.Transition(in.Status, in.By, strings.TrimSpace(in.Reason), at); err != nil {
		return nil, err
	}
	if in.Status == models.StatusReturned && order.PaymentInfo.Status == models.PaymentStatusPaid {
		order.PaymentInfo.Status = models.PaymentStatusRefunded
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	log.Printf("[ORDER] [INFO] %s moved to %s by %s", order.OrderID, order.InternalStatus, in.By)

	if in.Status == models.StatusDelivered {
		customer, err := s.customers.RecordDelivery(ctx, order.CustomerInfo.CustomerID, order.PricingInfo.GrandTotal, at.Time)
		if err != nil {
			log.Printf("[ORDER] [WARN] %s delivered but customer stats not updated: %v", order.OrderID, err)
		} else {
			log.Printf("[CUSTOMER] [INFO] %s now %s (spent %.2f)", customer.ID, customer.LoyaltyTier, customer.Stats.TotalSpent)
		}
		s.notifier.Notify(notify.EventOrderDelivered, order)
	}
	return order, nil
}

// PaymentEvent is a provider-neutral payment notification.
type PaymentEvent struct {
	RazorpayOrderID string
	PaymentID       string
	Captured        bool
	FailureReason   string
}

const paymentSaveAttempts = 3

// ApplyPayment records a payment result. Replays of the same event leave the
// order unchanged. A concurrent admin write is retried against the reloaded order.
func (s *Service) ApplyPayment(ctx context.Context, ev PaymentEvent) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	for attempt := 1; attempt <= paymentSaveAttempts; attempt++ {
		order, err = s.applyPayment(ctx, ev)
		if !errors.Is(err, store.ErrConflict) {
			break
		}
		log.Printf("[PAYMENT] [WARN] order for %s changed concurrently, retrying (%d/%d)", ev.RazorpayOrderID, attempt, paymentSaveAttempts)
	}
	return order, err
}

func (s *Service) applyPayment(ctx context.Context, ev PaymentEvent) (*models.Order, error) {
	if strings.TrimSpace(ev.RazorpayOrderID) == "" {
		return nil, models.ValidationError{Field: "order_id", Reason: "is required"}
	}
	order, err := s.orders.GetByPaymentReference(ctx, ev.RazorpayOrderID)
	if err != nil {
		return nil, err
	}
	at := models.NewTimestamp(s.now())

	if ev.Captured {
		if order.PaymentInfo.Status == models.PaymentStatusPaid {
			return order, nil
		}
		order.PaymentInfo.Status = models.PaymentStatusPaid
		order.PaymentInfo.RazorpayPaymentID = ev.PaymentID
		order.PaymentInfo.FailureReason = ""
		order.PaymentInfo.PaidAt = at
		if order.InternalStatus == models.StatusPaymentFailed {
			if err := order.Transition(models.StatusPaymentPending, "razorpay", "payment retried", at); err != nil {
				return nil, err
			}
		}
	} else {
		if order.PaymentInfo.Status == models.PaymentStatusPaid {
			log.Printf("[PAYMENT] [WARN] ignoring failure for paid order %s", order.OrderID)
			return order, nil
		}
		if order.PaymentInfo.Status == models.PaymentStatusFailed && order.PaymentInfo.FailureReason == ev.FailureReason {
			return order, nil
		}
		order.PaymentInfo.Status = models.PaymentStatusFailed
		order.PaymentInfo.RazorpayPaymentID = ev.PaymentID
		order.PaymentInfo.FailureReason = ev.FailureReason
		if order.InternalStatus.CanTransitionTo(models.StatusPaymentFailed) {
			if err := order.Transition(models.StatusPaymentFailed, "razorpay", ev.FailureReason, at); err != nil {
				return nil, err
			}
		}
	}
	order.UpdatedAt = at

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	log.Printf("[PAYMENT] [INFO] order %s payment %s", order.OrderID, order.PaymentInfo.Status)
	return order, nil
}
