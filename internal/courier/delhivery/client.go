// Package delhivery books shipments with the Delhivery CMU API.
package delhivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL   = "https://track.delhivery.com"
	trackingTemplate = "https://www.delhivery.com/track/package/%s"
)

// TrackingURL is the public tracking page for a waybill.
func TrackingURL(waybill string) string {
	return fmt.Sprintf(trackingTemplate, url.PathEscape(waybill))
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// Shipment is one entry of the "shipments" array. Weight is in grams and
// dimensions in centimetres, as the API expects.
type Shipment struct {
	Name           string  `json:"name"`
	Add            string  `json:"add"`
	Pin            string  `json:"pin"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Country        string  `json:"country"`
	Phone          string  `json:"phone"`
	Order          string  `json:"order"`
	PaymentMode    string  `json:"payment_mode"`
	CODAmount      float64 `json:"cod_amount"`
	TotalAmount    float64 `json:"total_amount"`
	ProductsDesc   string  `json:"products_desc"`
	Quantity       int     `json:"quantity"`
	Weight         float64 `json:"weight"`
	ShipmentWidth  float64 `json:"shipment_width"`
	ShipmentHeight float64 `json:"shipment_height"`
	ShipmentLength float64 `json:"shipment_length"`
}

type pickupLocation struct {
	Name string `json:"name"`
}

type createPayload struct {
	Shipments      []Shipment     `json:"shipments"`
	PickupLocation pickupLocation `json:"pickup_location"`
}

// Package is one booked package in the create response.
type Package struct {
	Waybill  string   `json:"waybill"`
	RefNum   string   `json:"refnum"`
	Status   string   `json:"status"`
	Remarks  []string `json:"remarks"`
	SortCode string   `json:"sort_code"`
}

type createResponse struct {
	Success   bool      `json:"success"`
	RMK       string    `json:"rmk"`
	Error     bool      `json:"error"`
	Packages  []Package `json:"packages"`
	UploadWBN string    `json:"upload_wbn"`
}

// BookingError carries the API's remarks for a rejected booking.
type BookingError struct {
	StatusCode int
	Remarks    string
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("delhivery booking failed (http %d): %s", e.StatusCode, e.Remarks)
}

// CreateShipment books s from pickup and returns the first package.
func (c *Client) CreateShipment(ctx context.Context, pickup string, s Shipment) (*Package, error) {
	if strings.TrimSpace(c.Token) == "" {
		return nil, fmt.Errorf("delhivery token not configured")
	}
	if strings.TrimSpace(pickup) == "" {
		return nil, fmt.Errorf("delhivery pickup location not configured")
	}

	data, err := json.Marshal(createPayload{
		Shipments:      []Shipment{s},
		PickupLocation: pickupLocation{Name: pickup},
	})
	if err != nil {
		return nil, err
	}
	form := url.Values{}
	form.Set("format", "json")
	form.Set("data", string(data))

	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/cmu/create.json", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+c.Token)

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var out createResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &BookingError{StatusCode: resp.StatusCode, Remarks: strings.TrimSpace(string(body))}
		}
		return nil, fmt.Errorf("decode delhivery response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !out.Success || len(out.Packages) == 0 || out.Packages[0].Waybill == "" {
		return nil, &BookingError{StatusCode: resp.StatusCode, Remarks: remarks(out)}
	}
	pkg := out.Packages[0]
	return &pkg, nil
}

func remarks(out createResponse) string {
	parts := make([]string, 0)
	for _, p := range out.Packages {
		parts = append(parts, p.Remarks...)
	}
	if out.RMK != "" {
		parts = append(parts, out.RMK)
	}
	if len(parts) == 0 {
		return "no waybill returned"
	}
	return strings.Join(parts, "; ")
}
