package orders

import (
	"bytes"
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson"

	"adminpanel/internal/models"
	"adminpanel/internal/store"
)

type Drift string

const (
	DriftNone    Drift = "in_sync"
	DriftMissing Drift = "missing"
	DriftStale   Drift = "stale"
)

type SyncResult struct {
	OrderID    string `json:"orderId"`
	CustomerID string `json:"customerId"`
	Drift      Drift  `json:"drift"`
	Rewritten  bool   `json:"rewritten"`
}

// MirrorDrift compares the mirror copy against the canonical order.
func MirrorDrift(order *models.Order, mirror *models.CustomerOrder) Drift {
	if mirror == nil {
		return DriftMissing
	}
	canonical, err := bson.Marshal(order)
	if err != nil {
		return DriftStale
	}
	copied, err := bson.Marshal(&mirror.Order)
	if err != nil {
		return DriftStale
	}
	if !bytes.Equal(canonical, copied) {
		return DriftStale
	}
	return DriftNone
}

// CheckMirror reports drift for one order without writing.
func CheckMirror(ctx context.Context, orders store.Orders, order *models.Order) (Drift, error) {
	mirror, err := orders.GetMirror(ctx, order.CustomerInfo.CustomerID, order.OrderID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if errors.Is(err, store.ErrNotFound) {
		mirror = nil
	}
	return MirrorDrift(order, mirror), nil
}

// SyncOrder rewrites the mirror of order when it is missing or stale.
func SyncOrder(ctx context.Context, orders store.Orders, order *models.Order, at models.Timestamp, dryRun bool) (SyncResult, error) {
	result := SyncResult{OrderID: order.OrderID, CustomerID: order.CustomerInfo.CustomerID}
	if result.CustomerID == "" {
		return result, models.ValidationError{Field: "customerInfo.customerId", Reason: "is required to mirror an order"}
	}

	drift, err := CheckMirror(ctx, orders, order)
	if err != nil {
		return result, err
	}
	result.Drift = drift
	if drift == DriftNone || dryRun {
		return result, nil
	}

	if err := orders.SaveMirror(ctx, order, at.Time); err != nil {
		return result, err
	}
	result.Rewritten = true
	log.Printf("[SYNC] [INFO] mirror for %s was %s, rewritten", order.OrderID, drift)
	return result, nil
}

// SyncMirror reconciles a single order's mirror from the canonical record.
func (s *Service) SyncMirror(ctx context.Context, orderID string) (SyncResult, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return SyncResult{}, err
	}
	return SyncOrder(ctx, s.orders, order, models.NewTimestamp(s.now()), false)
}
