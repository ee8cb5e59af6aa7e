// Package store is the document store boundary. Handlers and services only
// see these interfaces; main wires the MongoDB implementation and tests wire
// the in-memory one.
package store

import (
	"context"
	"errors"
	"time"

	"adminpanel/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type CombinationPatch struct {
	Weight     *float64
	Dimensions *models.Dimensions
	Notes      *string
	IsActive   *bool
}

func (p CombinationPatch) IsEmpty() bool {
	return p.Weight == nil && p.Dimensions == nil && p.Notes == nil && p.IsActive == nil
}

type CombinationFilter struct {
	SKU        string
	ActiveOnly bool
	Page       int64
	Limit      int64
}

type Combinations interface {
	Get(ctx context.Context, hash string) (*models.VerifiedCombination, error)
	// Create fails with ErrConflict when a record with the same hash exists.
	Create(ctx context.Context, rec *models.VerifiedCombination) error
	// RecordUsage increments usageCount and stamps lastUsedAt in one
	// single-document update.
	RecordUsage(ctx context.Context, hash string, at time.Time) (*models.VerifiedCombination, error)
	Update(ctx context.Context, hash string, patch CombinationPatch, by string, at time.Time) (*models.VerifiedCombination, error)
	Deactivate(ctx context.Context, hash, by string, at time.Time) (*models.VerifiedCombination, error)
	List(ctx context.Context, filter CombinationFilter) ([]models.VerifiedCombination, int64, error)
}

type OrderFilter struct {
	Status     models.InternalStatus
	CustomerID string
	Source     models.OrderSource
	Page       int64
	Limit      int64
}

type Orders interface {
	NextOrderID(ctx context.Context) (string, error)
	// Create writes the canonical order and its customer mirror atomically.
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, orderID string) (*models.Order, error)
	GetByPaymentReference(ctx context.Context, razorpayOrderID string) (*models.Order, error)
	// Save replaces the canonical order and its customer mirror atomically.
	// It fails with ErrConflict when the stored version differs from
	// order.Version, and bumps order.Version on success.
	Save(ctx context.Context, order *models.Order) error
	// List drops documents that fail to decode or validate, logging each.
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	// Scan visits every canonical order that decodes, valid or not.
	Scan(ctx context.Context, fn func(*models.Order) error) error
	GetMirror(ctx context.Context, customerID, orderID string) (*models.CustomerOrder, error)
	SaveMirror(ctx context.Context, order *models.Order, at time.Time) error
	ListMirror(ctx context.Context, customerID string, page, limit int64) ([]models.Order, int64, error)
	// ReassignCustomer moves orders from one customer id to another, drops
	// the stale mirrors, and returns the affected order ids.
	ReassignCustomer(ctx context.Context, fromID, toID string) ([]string, error)
}

type Customers interface {
	Get(ctx context.Context, id string) (*models.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
	// Create fails with ErrConflict when the phone is already registered.
	Create(ctx context.Context, customer *models.Customer) error
	List(ctx context.Context, page, limit int64) ([]models.Customer, int64, error)
	// SaveAddresses replaces the address book when the stored version still
	// equals expectedVersion, otherwise ErrConflict.
	SaveAddresses(ctx context.Context, id string, addresses []models.Address, defaultAddress *models.Address, expectedVersion int64, at time.Time) (*models.Customer, error)
	RecordOrder(ctx context.Context, id string, at time.Time) error
	RecordDelivery(ctx context.Context, id string, amount float64, at time.Time) (*models.Customer, error)
	ListLegacyKeyed(ctx context.Context) ([]models.Customer, error)
	Rekey(ctx context.Context, fromID, toID string) error
}

type Testimonials interface {
	List(ctx context.Context, activeOnly bool) ([]models.Testimonial, error)
	Get(ctx context.Context, id string) (*models.Testimonial, error)
	Create(ctx context.Context, t *models.Testimonial) error
	Update(ctx context.Context, t *models.Testimonial) error
	Delete(ctx context.Context, id string) error
}

type CourierIntegrations interface {
	Get(ctx context.Context, courier string) (*models.CourierIntegration, error)
	Upsert(ctx context.Context, integration *models.CourierIntegration) error
	List(ctx context.Context) ([]models.CourierIntegration, error)
}

type Users interface {
	GetAdminByEmail(ctx context.Context, email string) (*models.User, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Store bundles every collection the application touches.
type Store struct {
	Combinations Combinations
	Orders       Orders
	Customers    Customers
	Testimonials Testimonials
	Couriers     CourierIntegrations
	Users        Users
	Health       Pinger
}

func pageBounds(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
