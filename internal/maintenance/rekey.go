package maintenance

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"adminpanel/internal/models"
	"adminpanel/internal/orders"
	"adminpanel/internal/store"
)

type RekeyOptions struct {
	DryRun bool
	NewID  func() string
	Now    func() time.Time
}

type Rekeyed struct {
	Phone    string   `json:"phone"`
	OldID    string   `json:"oldId"`
	NewID    string   `json:"newId"`
	OrderIDs []string `json:"orderIds"`
}

type RekeyReport struct {
	DryRun    bool      `json:"dryRun"`
	Customers []Rekeyed `json:"customers"`
}

// RekeyCustomers moves customers whose document id is their phone number to
// a generated id, repointing their orders and rebuilding their mirrors.
func RekeyCustomers(ctx context.Context, st *store.Store, opts RekeyOptions) (RekeyReport, error) {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	report := RekeyReport{DryRun: opts.DryRun, Customers: []Rekeyed{}}

	legacy, err := st.Customers.ListLegacyKeyed(ctx)
	if err != nil {
		return report, err
	}

	for _, customer := range legacy {
		entry := Rekeyed{Phone: customer.Phone, OldID: customer.ID, NewID: opts.NewID(), OrderIDs: []string{}}
		if opts.DryRun {
			report.Customers = append(report.Customers, entry)
			continue
		}

		if err := st.Customers.Rekey(ctx, entry.OldID, entry.NewID); err != nil {
			return report, fmt.Errorf("rekey customer %s: %w", entry.OldID, err)
		}
		ids, err := st.Orders.ReassignCustomer(ctx, entry.OldID, entry.NewID)
		if err != nil {
			return report, fmt.Errorf("reassign orders of %s: %w", entry.OldID, err)
		}
		entry.OrderIDs = ids

		at := models.NewTimestamp(opts.Now())
		for _, id := range ids {
			order, err := st.Orders.Get(ctx, id)
			if err != nil {
				return report, fmt.Errorf("reload order %s: %w", id, err)
			}
			if _, err := orders.SyncOrder(ctx, st.Orders, order, at, false); err != nil {
				return report, fmt.Errorf("mirror order %s: %w", id, err)
			}
		}
		log.Printf("[REKEY] [INFO] customer %s -> %s (%d orders)", entry.OldID, entry.NewID, len(ids))
		report.Customers = append(report.Customers, entry)
	}
	return report, nil
}
