package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"adminpanel/internal/models"
	"adminpanel/internal/orders"
	"adminpanel/internal/store"
)

func ListCustomers(customers store.Customers) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /customers"
		defer handlePanic(c, route)

		pageNum, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		items, total, err := customers.List(ctx, pageNum, limit)
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, pageResult{Items: items, Total: total, Page: pageNum, Limit: limit})
	}
}

// CreateCustomer registers a customer ahead of their first order.
func CreateCustomer(customers store.Customers) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /customers"
		defer handlePanic(c, route)

		var req orders.CustomerInput
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		now := models.Now()
		customer := &models.Customer{
			ID:          uuid.NewString(),
			Phone:       strings.TrimSpace(req.Phone),
			Name:        strings.TrimSpace(req.Name),
			Email:       strings.ToLower(strings.TrimSpace(req.Email)),
			Addresses:   []models.Address{},
			LoyaltyTier: models.TierBronze,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := customers.Create(ctx, customer); err != nil {
			if errors.Is(err, store.ErrConflict) {
				respondWithError(c, http.StatusConflict, route, "a customer with this phone already exists")
				return
			}
			respondError(c, route, err)
			return
		}
		log.Printf("[CUSTOMER] [INFO] registered %s for %s by %s", customer.ID, customer.Phone, actor(c))
		respond(c, http.StatusCreated, customer)
	}
}

func GetCustomer(customers store.Customers) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /customers/:phone"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		customer, err := customers.GetByPhone(ctx, strings.TrimSpace(c.Param("phone")))
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, customer)
	}
}
