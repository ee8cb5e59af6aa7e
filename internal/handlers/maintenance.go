package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/maintenance"
	"adminpanel/internal/models"
	"adminpanel/internal/store"
)

const maintenanceTimeout = 2 * time.Minute

// RunMaintenance exposes the maintenance routines to scripted callers:
// backfill-totals and sync-orders, with ?dryRun=true and, for sync-orders,
// ?orderId=.
func RunMaintenance(orders store.Orders) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/maintenance/:task"
		defer handlePanic(c, route)

		dryRun := false
		if raw := strings.TrimSpace(c.Query("dryRun")); raw != "" {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				respondError(c, route, models.ValidationError{Field: "dryRun", Reason: "must be true or false"})
				return
			}
			dryRun = parsed
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), maintenanceTimeout)
		defer cancel()

		task := c.Param("task")
		log.Printf("[MAINTENANCE] [INFO] %s requested by %s (dryRun=%t)", task, actor(c), dryRun)

		switch task {
		case "backfill-totals":
			report, err := maintenance.BackfillTotals(ctx, orders, maintenance.BackfillOptions{DryRun: dryRun})
			if err != nil {
				respondError(c, route, err)
				return
			}
			respond(c, http.StatusOK, report)
		case "sync-orders":
			report, err := maintenance.SyncOrders(ctx, orders, maintenance.SyncOptions{
				OrderID: strings.TrimSpace(c.Query("orderId")),
				DryRun:  dryRun,
			})
			if err != nil {
				respondError(c, route, err)
				return
			}
			respond(c, http.StatusOK, report)
		default:
			respondWithError(c, http.StatusNotFound, route, "unknown maintenance task")
		}
	}
}
