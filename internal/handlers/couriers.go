package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/models"
	"adminpanel/internal/store"
)

type CourierIntegrationRequest struct {
	// APIToken is left unchanged when omitted.
	APIToken       *string `json:"apiToken"`
	PickupLocation string  `json:"pickupLocation" binding:"required"`
	BaseURL        string  `json:"baseUrl" binding:"omitempty,url"`
	IsActive       bool    `json:"isActive"`
}

type courierIntegrationView struct {
	models.CourierIntegration
	HasToken bool `json:"hasToken"`
}

var supportedCouriers = map[string]bool{models.CourierDelhivery: true}

func viewOf(integration models.CourierIntegration) courierIntegrationView {
	return courierIntegrationView{CourierIntegration: integration, HasToken: integration.HasToken()}
}

func ListCourierIntegrations(couriers store.CourierIntegrations) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/courier-integrations"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		integrations, err := couriers.List(ctx)
		if err != nil {
			respondError(c, route, err)
			return
		}
		views := make([]courierIntegrationView, 0, len(integrations))
		for _, integration := range integrations {
			views = append(views, viewOf(integration))
		}
		respond(c, http.StatusOK, views)
	}
}

func UpsertCourierIntegration(couriers store.CourierIntegrations) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/courier-integrations/:courier"
		defer handlePanic(c, route)

		name := strings.ToLower(strings.TrimSpace(c.Param("courier")))
		if !supportedCouriers[name] {
			respondError(c, route, models.ValidationError{Field: "courier", Reason: "is not supported"})
			return
		}

		var req CourierIntegrationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		integration := &models.CourierIntegration{Courier: name}
		existing, err := couriers.Get(ctx, name)
		switch {
		case err == nil:
			integration = existing
		case !errors.Is(err, store.ErrNotFound):
			respondError(c, route, err)
			return
		}

		if req.APIToken != nil {
			integration.APIToken = strings.TrimSpace(*req.APIToken)
		}
		integration.PickupLocation = strings.TrimSpace(req.PickupLocation)
		integration.BaseURL = strings.TrimRight(strings.TrimSpace(req.BaseURL), "/")
		integration.IsActive = req.IsActive
		integration.UpdatedBy = actor(c)
		integration.UpdatedAt = models.Now()

		if integration.IsActive && !integration.HasToken() {
			respondError(c, route, models.ValidationError{Field: "apiToken", Reason: "is required to activate the integration"})
			return
		}
		if err := couriers.Upsert(ctx, integration); err != nil {
			respondError(c, route, err)
			return
		}
		log.Printf("[COURIER] [INFO] %s integration saved by %s (active=%t)", name, integration.UpdatedBy, integration.IsActive)
		respond(c, http.StatusOK, viewOf(*integration))
	}
}
