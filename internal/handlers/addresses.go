package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/addressbook"
	"adminpanel/internal/models"
)

type addressBookResponse struct {
	Action         string           `json:"action,omitempty"`
	Addresses      []models.Address `json:"addresses"`
	DefaultAddress *models.Address  `json:"defaultAddress"`
}

func ListAddresses(book *addressbook.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /customers/:phone/addresses"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		addresses, def, err := book.List(ctx, strings.TrimSpace(c.Param("phone")))
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, addressBookResponse{Addresses: addresses, DefaultAddress: def})
	}
}

// ApplyAddressAction handles {"action": "add"|"update"|"remove"|"setDefault"}.
func ApplyAddressAction(book *addressbook.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /customers/:phone/addresses"
		defer handlePanic(c, route)

		var req addressbook.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		action, err := req.Decode()
		if err != nil {
			respondError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		customer, err := book.Apply(ctx, strings.TrimSpace(c.Param("phone")), action)
		if err != nil {
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, addressBookResponse{
			Action:         addressbook.Name(action),
			Addresses:      customer.Addresses,
			DefaultAddress: customer.DefaultAddress,
		})
	}
}
