// Package maintenance holds the data repair and inspection routines run
// from the maintenance CLI and the admin maintenance endpoint.
package maintenance

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"adminpanel/internal/models"
	"adminpanel/internal/orders"
	"adminpanel/internal/store"
)

type BackfillOptions struct {
	DryRun  bool
	Workers int
	Now     func() time.Time
}

type BackfillReport struct {
	Scanned  int      `json:"scanned"`
	Patched  int      `json:"patched"`
	DryRun   bool     `json:"dryRun"`
	OrderIDs []string `json:"orderIds"`
}

// BackfillTotals sets totalPrice = quantity*unitPrice on every item that is
// missing or inconsistent and recomputes the order pricing.
func BackfillTotals(ctx context.Context, st store.Orders, opts BackfillOptions) (BackfillReport, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	report := BackfillReport{DryRun: opts.DryRun, OrderIDs: []string{}}

	var pending []*models.Order
	err := st.Scan(ctx, func(order *models.Order) error {
		report.Scanned++
		if !orders.FillLineTotals(order.Items) {
			return nil
		}
		orders.Reprice(order)
		pending = append(pending, order)
		report.OrderIDs = append(report.OrderIDs, order.OrderID)
		return nil
	})
	if err != nil {
		return report, err
	}
	report.Patched = len(pending)

	if opts.DryRun || len(pending) == 0 {
		log.Printf("[BACKFILL] [INFO] scanned %d orders, %d need totals (dry run: %t)", report.Scanned, report.Patched, opts.DryRun)
		return report, nil
	}

	at := models.NewTimestamp(opts.Now())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, order := range pending {
		order := order
		g.Go(func() error {
			order.UpdatedAt = at
			if err := st.Save(gctx, order); err != nil {
				log.Printf("[BACKFILL] [ERROR] saving %s: %v", order.OrderID, err)
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	log.Printf("[BACKFILL] [INFO] scanned %d orders, patched %d", report.Scanned, report.Patched)
	return report, nil
}
