package delhivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateShipmentExtractsWaybill(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cmu/create.json", r.URL.Path)
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "json", r.PostForm.Get("format"))

		var payload createPayload
		require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("data")), &payload))
		assert.Equal(t, "Main Warehouse", payload.PickupLocation.Name)
		require.Len(t, payload.Shipments, 1)
		assert.Equal(t, "ORD-000007", payload.Shipments[0].Order)
		assert.Equal(t, 1250.0, payload.Shipments[0].Weight)

		_, _ = w.Write([]byte(`{"success":true,"packages":[{"waybill":"1234567890","refnum":"ORD-000007","status":"Success","remarks":[]}]}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Token: "secret"}
	pkg, err := c.CreateShipment(context.Background(), "Main Warehouse", Shipment{Order: "ORD-000007", Weight: 1250})
	require.NoError(t, err)
	assert.Equal(t, "1234567890", pkg.Waybill)
	assert.Equal(t, "https://www.delhivery.com/track/package/1234567890", TrackingURL(pkg.Waybill))
}

func TestCreateShipmentReportsRemarks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"rmk":"partial failure","packages":[{"waybill":"","status":"Fail","remarks":["Crashing while saving package"]}]}`))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Token: "secret"}
	_, err := c.CreateShipment(context.Background(), "Main Warehouse", Shipment{Order: "ORD-1"})

	var bookingErr *BookingError
	require.True(t, errors.As(err, &bookingErr))
	assert.Contains(t, bookingErr.Remarks, "Crashing while saving package")
	assert.Contains(t, bookingErr.Remarks, "partial failure")
}

func TestCreateShipmentNonJSONFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("Login or API Key Required"))
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Token: "bad"}
	_, err := c.CreateShipment(context.Background(), "Main Warehouse", Shipment{})
	var bookingErr *BookingError
	require.True(t, errors.As(err, &bookingErr))
	assert.Equal(t, http.StatusUnauthorized, bookingErr.StatusCode)
}

func TestCreateShipmentRequiresToken(t *testing.T) {
	_, err := (&Client{}).CreateShipment(context.Background(), "Main Warehouse", Shipment{})
	assert.Error(t, err)
}
