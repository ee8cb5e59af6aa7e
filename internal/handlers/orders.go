package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/models"
	"adminpanel/internal/orders"
	"adminpanel/internal/store"
)

// shipTimeout covers the courier round trip on top of the store writes.
const shipTimeout = 20 * time.Second

func ListOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		pageNum, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, route, err)
			return
		}
		filter := store.OrderFilter{
			Status:     models.InternalStatus(strings.TrimSpace(c.Query("status"))),
			CustomerID: strings.TrimSpace(c.Query("customerId")),
			Source:     models.OrderSource(strings.TrimSpace(c.Query("source"))),
			Page:       pageNum,
			Limit:      limit,
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, total, err := svc.List(ctx, filter)
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, pageResult{Items: items, Total: total, Page: pageNum, Limit: limit})
	}
}

func CreateOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		var req orders.CreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		req.CreatedBy = actor(c)

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := svc.Create(ctx, req)
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusCreated, order)
	}
}

func GetOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:orderId"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := svc.Get(ctx, c.Param("orderId"))
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, order)
	}
}

func ApproveOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderId/approve"
		defer handlePanic(c, route)

		var req orders.ApproveInput
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		req.By = actor(c)

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := svc.Approve(ctx, c.Param("orderId"), req)
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, order)
	}
}

func ShipOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderId/ship"
		defer handlePanic(c, route)

		var req orders.ShipInput
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		req.By = actor(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), shipTimeout)
		defer cancel()

		order, err := svc.Ship(ctx, c.Param("orderId"), req)
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, order)
	}
}

func UpdateOrderStatus(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:orderId/status"
		defer handlePanic(c, route)

		var req orders.StatusInput
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		req.By = actor(c)

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := svc.UpdateStatus(ctx, c.Param("orderId"), req)
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, order)
	}
}

// SyncOrderMirror rewrites the customer mirror of one order from the
// canonical record.
func SyncOrderMirror(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:orderId/sync"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := svc.SyncMirror(ctx, c.Param("orderId"))
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, result)
	}
}

// ListCustomerOrders serves the customer's mirror collection.
func ListCustomerOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /customers/:phone/orders"
		defer handlePanic(c, route)

		pageNum, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, total, err := svc.ListForCustomer(ctx, strings.TrimSpace(c.Param("phone")), pageNum, limit)
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, pageResult{Items: items, Total: total, Page: pageNum, Limit: limit})
	}
}
