package courier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/models"
	"adminpanel/internal/store"
)

func TestCredentialsPreferActiveIntegration(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	defaults := map[string]Credentials{"delhivery": {BaseURL: "https://env.example", Token: "env-token", PickupLocation: "Env WH"}}
	r := NewResolver(mem.Couriers, defaults)

	creds, err := r.Credentials(ctx, "delhivery")
	require.NoError(t, err)
	assert.Equal(t, "env-token", creds.Token)

	require.NoError(t, mem.Couriers.Upsert(ctx, &models.CourierIntegration{Courier: "delhivery", APIToken: "db-token", PickupLocation: "DB WH", IsActive: false}))
	creds, err = r.Credentials(ctx, "Delhivery")
	require.NoError(t, err)
	assert.Equal(t, "env-token", creds.Token)

	require.NoError(t, mem.Couriers.Upsert(ctx, &models.CourierIntegration{Courier: "delhivery", APIToken: "db-token", PickupLocation: "DB WH", IsActive: true}))
	creds, err = r.Credentials(ctx, "delhivery")
	require.NoError(t, err)
	assert.Equal(t, Credentials{BaseURL: "https://env.example", Token: "db-token", PickupLocation: "DB WH"}, creds)
}

func TestBookMapsRequestToDelhivery(t *testing.T) {
	var shipment map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		var payload struct {
			Shipments []map[string]any `json:"shipments"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("data")), &payload))
		shipment = payload.Shipments[0]
		_, _ = w.Write([]byte(`{"success":true,"packages":[{"waybill":"WB42"}]}`))
	}))
	defer srv.Close()

	r := NewResolver(store.NewMemory().Couriers, map[string]Credentials{
		"delhivery": {BaseURL: srv.URL, Token: "t", PickupLocation: "WH"},
	})
	booking, err := r.Book(context.Background(), "", Request{
		OrderID:       "ORD-000001",
		Name:          "Asha",
		Phone:         "+919876543210",
		Address:       models.PostalAddress{Street: "12 MG Road", City: "Bengaluru", State: "Karnataka", Zip: "560001", Country: "India"},
		PaymentMethod: models.PaymentCOD,
		CODAmount:     1000,
		TotalAmount:   1000,
		Quantity:      3,
		Weight:        1.5,
		Dimensions:    models.Dimensions{Length: 20, Breadth: 15, Height: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, Booking{Courier: "delhivery", Waybill: "WB42", TrackingURL: "https://www.delhivery.com/track/package/WB42"}, booking)

	assert.Equal(t, "COD", shipment["payment_mode"])
	assert.Equal(t, 1500.0, shipment["weight"])
	assert.Equal(t, "919876543210", shipment["phone"])
	assert.Equal(t, "560001", shipment["pin"])
	assert.Equal(t, 15.0, shipment["shipment_width"])
}

func TestBookUnsupportedCourier(t *testing.T) {
	r := NewResolver(nil, nil)
	_, err := r.Book(context.Background(), "bluedart", Request{})
	assert.ErrorIs(t, err, ErrUnsupported)
}
