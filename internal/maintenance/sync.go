package maintenance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"adminpanel/internal/models"
	"adminpanel/internal/orders"
	"adminpanel/internal/store"
)

type SyncOptions struct {
	OrderID string
	DryRun  bool
	Now     func() time.Time
}

type SyncReport struct {
	Checked  int                 `json:"checked"`
	InSync   int                 `json:"inSync"`
	Repaired int                 `json:"repaired"`
	Skipped  int                 `json:"skipped"`
	DryRun   bool                `json:"dryRun"`
	Drifted  []orders.SyncResult `json:"drifted"`
}

// SyncOrders rewrites customer mirrors from canonical orders, one order or
// all of them.
func SyncOrders(ctx context.Context, st store.Orders, opts SyncOptions) (SyncReport, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	at := models.NewTimestamp(opts.Now())
	report := SyncReport{DryRun: opts.DryRun, Drifted: []orders.SyncResult{}}

	visit := func(order *models.Order) error {
		report.Checked++
		result, err := orders.SyncOrder(ctx, st, order, at, opts.DryRun)
		var validationErr models.ValidationError
		if errors.As(err, &validationErr) {
			log.Printf("[SYNC] [WARN] skipping %s: %v", order.OrderID, err)
			report.Skipped++
			return nil
		}
		if err != nil {
			return fmt.Errorf("sync %s: %w", order.OrderID, err)
		}
		if result.Drift == orders.DriftNone {
			report.InSync++
			return nil
		}
		if result.Rewritten {
			report.Repaired++
		}
		report.Drifted = append(report.Drifted, result)
		return nil
	}

	if opts.OrderID != "" {
		order, err := st.Get(ctx, opts.OrderID)
		if err != nil {
			return report, err
		}
		return report, visit(order)
	}
	err := st.Scan(ctx, visit)
	log.Printf("[SYNC] [INFO] checked %d orders, %d drifted, %d repaired", report.Checked, len(report.Drifted), report.Repaired)
	return report, err
}

// FieldDiff is one top-level order field whose canonical and mirror values
// differ.
type FieldDiff struct {
	Field     string `json:"field"`
	Canonical string `json:"canonical"`
	Mirror    string `json:"mirror"`
}

type Inspection struct {
	Order   *models.Order         `json:"order"`
	Mirror  *models.CustomerOrder `json:"mirror,omitempty"`
	Drift   orders.Drift          `json:"drift"`
	Diff    []FieldDiff           `json:"diff"`
	Invalid string                `json:"invalid,omitempty"`
}

// InspectOrder loads the canonical order and its mirror and diffs them field
// by field.
func InspectOrder(ctx context.Context, st store.Orders, orderID string) (*Inspection, error) {
	order, err := st.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := &Inspection{Order: order, Diff: []FieldDiff{}}
	if err := order.Validate(); err != nil {
		out.Invalid = err.Error()
	}

	mirror, err := st.GetMirror(ctx, order.CustomerInfo.CustomerID, order.OrderID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		out.Drift = orders.DriftMissing
		return out, nil
	case err != nil:
		return nil, err
	}
	out.Mirror = mirror
	out.Drift = orders.MirrorDrift(order, mirror)
	if out.Drift == orders.DriftStale {
		out.Diff, err = diffOrders(order, &mirror.Order)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func diffOrders(a, b *models.Order) ([]FieldDiff, error) {
	left, err := bson.Marshal(a)
	if err != nil {
		return nil, err
	}
	right, err := bson.Marshal(b)
	if err != nil {
		return nil, err
	}
	lv, err := elements(left)
	if err != nil {
		return nil, err
	}
	rv, err := elements(right)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]struct{}, len(lv)+len(rv))
	for k := range lv {
		keys[k] = struct{}{}
	}
	for k := range rv {
		keys[k] = struct{}{}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	diffs := make([]FieldDiff, 0)
	for _, k := range names {
		l, r := lv[k], rv[k]
		if bytes.Equal(l.Value, r.Value) && l.Type == r.Type {
			continue
		}
		diffs = append(diffs, FieldDiff{Field: k, Canonical: render(l), Mirror: render(r)})
	}
	return diffs, nil
}

func elements(doc bson.Raw) (map[string]bson.RawValue, error) {
	elems, err := doc.Elements()
	if err != nil {
		return nil, err
	}
	out := make(map[string]bson.RawValue, len(elems))
	for _, e := range elems {
		out[e.Key()] = e.Value()
	}
	return out, nil
}

func render(v bson.RawValue) string {
	if v.Type == 0 {
		return "<absent>"
	}
	return v.String()
}
