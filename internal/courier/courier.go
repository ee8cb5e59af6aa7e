// Package courier books shipments with the configured courier, preferring
// credentials stored in courierIntegrations over environment defaults.
package courier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"adminpanel/internal/courier/delhivery"
	"adminpanel/internal/models"
	"adminpanel/internal/store"
)

var ErrUnsupported = errors.New("unsupported courier")

// Credentials select the account a booking is made with.
type Credentials struct {
	BaseURL        string
	Token          string
	PickupLocation string
}

// Request is a courier-neutral booking request. Weight is in kilograms and
// dimensions in centimetres.
type Request struct {
	OrderID       string
	Name          string
	Phone         string
	Address       models.PostalAddress
	PaymentMethod models.PaymentMethod
	CODAmount     float64
	TotalAmount   float64
	Description   string
	Quantity      int
	Weight        float64
	Dimensions    models.Dimensions
}

type Booking struct {
	Courier     string
	Waybill     string
	TrackingURL string
}

// Resolver books shipments, looking up credentials per request.
type Resolver struct {
	integrations store.CourierIntegrations
	defaults     map[string]Credentials
	HTTP         *http.Client
}

func NewResolver(integrations store.CourierIntegrations, defaults map[string]Credentials) *Resolver {
	d := make(map[string]Credentials, len(defaults))
	for name, creds := range defaults {
		d[strings.ToLower(name)] = creds
	}
	return &Resolver{integrations: integrations, defaults: d}
}

// Credentials returns the active stored integration for courier, else the
// environment defaults.
func (r *Resolver) Credentials(ctx context.Context, courier string) (Credentials, error) {
	courier = strings.ToLower(strings.TrimSpace(courier))
	creds := r.defaults[courier]

	if r.integrations != nil {
		integration, err := r.integrations.Get(ctx, courier)
		switch {
		case err == nil:
			if integration.IsActive && integration.HasToken() {
				creds.Token = integration.APIToken
				if integration.PickupLocation != "" {
					creds.PickupLocation = integration.PickupLocation
				}
				if integration.BaseURL != "" {
					creds.BaseURL = integration.BaseURL
				}
			}
		case errors.Is(err, store.ErrNotFound):
		default:
			return Credentials{}, fmt.Errorf("load %s integration: %w", courier, err)
		}
	}
	return creds, nil
}

func (r *Resolver) Book(ctx context.Context, courier string, req Request) (Booking, error) {
	courier = strings.ToLower(strings.TrimSpace(courier))
	if courier == "" {
		courier = models.CourierDelhivery
	}
	creds, err := r.Credentials(ctx, courier)
	if err != nil {
		return Booking{}, err
	}

	switch courier {
	case models.CourierDelhivery:
		client := &delhivery.Client{BaseURL: creds.BaseURL, Token: creds.Token, HTTP: r.HTTP}
		pkg, err := client.CreateShipment(ctx, creds.PickupLocation, delhiveryShipment(req))
		if err != nil {
			return Booking{}, err
		}
		log.Printf("[COURIER] [INFO] delhivery waybill %s booked for order %s", pkg.Waybill, req.OrderID)
		return Booking{
			Courier:     courier,
			Waybill:     pkg.Waybill,
			TrackingURL: delhivery.TrackingURL(pkg.Waybill),
		}, nil
	default:
		return Booking{}, fmt.Errorf("%w: %s", ErrUnsupported, courier)
	}
}

func delhiveryShipment(req Request) delhivery.Shipment {
	mode := "Prepaid"
	cod := 0.0
	if req.PaymentMethod == models.PaymentCOD {
		mode = "COD"
		cod = req.CODAmount
	}
	return delhivery.Shipment{
		Name:           req.Name,
		Add:            req.Address.Street,
		Pin:            req.Address.Zip,
		City:           req.Address.City,
		State:          req.Address.State,
		Country:        req.Address.Country,
		Phone:          strings.TrimPrefix(req.Phone, "+"),
		Order:          req.OrderID,
		PaymentMode:    mode,
		CODAmount:      cod,
		TotalAmount:    req.TotalAmount,
		ProductsDesc:   req.Description,
		Quantity:       req.Quantity,
		Weight:         req.Weight * 1000,
		ShipmentLength: req.Dimensions.Length,
		ShipmentWidth:  req.Dimensions.Breadth,
		ShipmentHeight: req.Dimensions.Height,
	}
}
