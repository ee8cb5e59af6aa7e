package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"adminpanel/internal/addressbook"
	"adminpanel/internal/combination"
	"adminpanel/internal/courier"
	"adminpanel/internal/courier/delhivery"
	"adminpanel/internal/handlers"
	"adminpanel/internal/middleware"
	"adminpanel/internal/models"
	"adminpanel/internal/orders"
	"adminpanel/internal/store"
)

const (
	jwtSecret     = "router-secret"
	apiKey        = "ops-key"
	webhookSecret = "whsec"
	phone         = "+919876543210"
	phonePath     = "%2B919876543210"
)

type stubShipper struct {
	booked []courier.Request
}

func (s *stubShipper) Book(_ context.Context, _ string, req courier.Request) (courier.Booking, error) {
	s.booked = append(s.booked, req)
	return courier.Booking{Courier: "delhivery", Waybill: "WB-" + req.OrderID, TrackingURL: delhivery.TrackingURL("WB-" + req.OrderID)}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Details string          `json:"details"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t       *testing.T
	router  *gin.Engine
	mem     *store.Store
	shipper *stubShipper
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemory()
	shipper := &stubShipper{}
	cache := combination.NewCache(mem.Combinations)
	svc := orders.NewService(orders.Options{
		Orders:       mem.Orders,
		Customers:    mem.Customers,
		Combinations: cache,
		Shipper:      shipper,
	})
	router := NewRouter(Deps{
		Store:          mem,
		Auth:           middleware.NewAuth(jwtSecret, nil, []string{apiKey}),
		Orders:         svc,
		Addresses:      addressbook.NewService(mem.Customers),
		Combinations:   cache,
		ListCache:      handlers.NewListCache(time.Minute),
		AccessTokenTTL: time.Hour,
		RazorpaySecret: webhookSecret,
	})
	return &harness{t: t, router: router, mem: mem, shipper: shipper}
}

func (h *harness) do(method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (h *harness) admin(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	return h.do(method, path, body, map[string]string{"X-API-Key": apiKey})
}

func customerToken(t *testing.T, phoneNumber string) map[string]string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":          "firebase-uid",
		"phone_number": phoneNumber,
		"exp":          time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + signed}
}

func orderBody(method string) gin.H {
	return gin.H{
		"customerInfo":    gin.H{"name": "Asha", "phone": phone},
		"shippingAddress": gin.H{"street": "12 MG Road", "city": "Bengaluru", "state": "Karnataka", "zip": "560001"},
		"items": []gin.H{
			{"productName": "Mango Pickle", "sku": "sku001", "quantity": 2, "unitPrice": 500},
		},
		"paymentMethod":   method,
		"razorpayOrderId": "order_rzp_1",
		"shippingCharges": 50,
	}
}

func (h *harness) createOrder(method string) models.Order {
	h.t.Helper()
	w, env := h.admin(http.MethodPost, "/api/orders", orderBody(method))
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Order
	require.NoError(h.t, json.Unmarshal(env.Data, &order))
	return order
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w, env := h.do(http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestAdminRoutesRequireCredentials(t *testing.T) {
	h := newHarness(t)

	w, env := h.do(http.MethodGet, "/api/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)

	w, _ = h.do(http.MethodGet, "/api/orders", nil, customerToken(t, phone))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = h.admin(http.MethodGet, "/api/orders", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestOrderLifecycle(t *testing.T) {
	h := newHarness(t)
	order := h.createOrder("COD")

	assert.Equal(t, models.StatusCreatedPending, order.InternalStatus)
	assert.Equal(t, models.FacingConfirmed, order.CustomerFacingStatus)
	assert.Equal(t, 1050.0, order.PricingInfo.GrandTotal)
	require.NotNil(t, order.Items[0].TotalPrice)
	assert.Equal(t, 1000.0, *order.Items[0].TotalPrice)

	w, env := h.admin(http.MethodPut, "/api/orders/"+order.OrderID+"/status", gin.H{"status": "delivered"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, env.Error, "cannot move order")

	w, _ = h.admin(http.MethodPost, "/api/orders/"+order.OrderID+"/approve", gin.H{"approve": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = h.admin(http.MethodPost, "/api/orders/"+order.OrderID+"/ship", gin.H{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Contains(t, env.Error, "unknown")

	w, env = h.admin(http.MethodPost, "/api/orders/"+order.OrderID+"/ship", gin.H{
		"weight":     1.2,
		"dimensions": gin.H{"l": 20, "b": 15, "h": 10},
		"verify":     true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var shipped models.Order
	require.NoError(t, json.Unmarshal(env.Data, &shipped))
	assert.Equal(t, models.StatusShipped, shipped.InternalStatus)
	require.NotNil(t, shipped.Shipment)
	assert.Equal(t, "WB-"+order.OrderID, shipped.Shipment.Waybill)
	require.Len(t, h.shipper.booked, 1)
	assert.Equal(t, 1050.0, h.shipper.booked[0].CODAmount)

	w, env = h.admin(http.MethodPost, "/api/combinations/lookup", gin.H{
		"items": []gin.H{{"sku": "SKU001", "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var lookup struct {
		Found       bool                       `json:"found"`
		Combination models.VerifiedCombination `json:"combination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &lookup))
	assert.True(t, lookup.Found)
	assert.Equal(t, 1.2, lookup.Combination.Weight)
	assert.Equal(t, int64(1), lookup.Combination.UsageCount)

	w, _ = h.admin(http.MethodPut, "/api/orders/"+order.OrderID+"/status", gin.H{"status": "delivered"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = h.admin(http.MethodGet, "/api/customers/"+phonePath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var customer models.Customer
	require.NoError(t, json.Unmarshal(env.Data, &customer))
	assert.Equal(t, int64(1), customer.Stats.DeliveredCount)
	assert.Equal(t, 1050.0, customer.Stats.TotalSpent)
}

func TestCreateOrderValidation(t *testing.T) {
	h := newHarness(t)
	body := orderBody("COD")
	body["items"] = []gin.H{}
	body["paymentMethod"] = "cheque"

	w, env := h.admin(http.MethodPost, "/api/orders", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation failed", env.Error)
	assert.Contains(t, env.Details, "paymentMethod must be one of COD online")
	assert.Contains(t, env.Details, "; ")

	w, env = h.admin(http.MethodGet, "/api/orders?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error, "status")
}

func TestCustomerReadsOwnOrdersFromMirror(t *testing.T) {
	h := newHarness(t)
	order := h.createOrder("COD")

	w, env := h.do(http.MethodGet, "/api/customers/"+phonePath+"/orders", nil, customerToken(t, phone))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Items []models.Order `json:"items"`
		Total int64          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, order.OrderID, page.Items[0].OrderID)

	w, _ = h.do(http.MethodGet, "/api/customers/"+phonePath+"/orders", nil, customerToken(t, "+919000000000"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOrderSyncRepairsMirror(t *testing.T) {
	h := newHarness(t)
	order := h.createOrder("COD")

	mem := h.mem.Orders.(*store.MemoryOrders)
	mem.DeleteMirror(order.CustomerInfo.CustomerID, order.OrderID)

	w, env := h.admin(http.MethodPost, "/api/orders/"+order.OrderID+"/sync", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result orders.SyncResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, orders.DriftMissing, result.Drift)
	assert.True(t, result.Rewritten)

	w, env = h.admin(http.MethodPost, "/api/orders/"+order.OrderID+"/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, orders.DriftNone, result.Drift)
}

func TestAddressBookActions(t *testing.T) {
	h := newHarness(t)
	w, _ := h.admin(http.MethodPost, "/api/customers", gin.H{"name": "Asha", "phone": phone})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = h.admin(http.MethodPost, "/api/customers", gin.H{"name": "Asha again", "phone": phone})
	assert.Equal(t, http.StatusConflict, w.Code)

	auth := customerToken(t, phone)
	home := gin.H{"street": "12 MG Road", "city": "Bengaluru", "state": "Karnataka", "zip": "560 001"}
	path := "/api/customers/" + phonePath + "/addresses"

	w, env := h.do(http.MethodPost, path, gin.H{"action": "add", "address": home, "setAsDefault": true}, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var book struct {
		Addresses      []models.Address `json:"addresses"`
		DefaultAddress *models.Address  `json:"defaultAddress"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &book))
	require.Len(t, book.Addresses, 1)
	require.NotNil(t, book.DefaultAddress)
	assert.Equal(t, "560001", book.DefaultAddress.Zip)

	dup := gin.H{"street": "12  mg road", "city": "bengaluru", "state": "karnataka", "zip": "560001"}
	w, env = h.do(http.MethodPost, path, gin.H{"action": "add", "address": dup}, auth)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, env.Error, "12 MG Road")

	w, _ = h.do(http.MethodPost, path, gin.H{"action": "archive", "address": home}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = h.do(http.MethodPost, path, gin.H{"action": "remove", "address": home}, auth)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = h.do(http.MethodGet, path, nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &book))
	assert.Empty(t, book.Addresses)
	assert.Nil(t, book.DefaultAddress)
}

func TestTestimonialsCacheInvalidatedOnWrite(t *testing.T) {
	h := newHarness(t)

	w, _ := h.do(http.MethodGet, "/api/customer/testimonials", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))

	w, _ = h.do(http.MethodGet, "/api/customer/testimonials", nil, nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w, _ = h.admin(http.MethodPost, "/api/admin/testimonials", gin.H{
		"customerName":   "Ravi",
		"youtubeVideoId": "dQw4w9WgXcQ",
		"displayOrder":   1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := h.do(http.MethodGet, "/api/customer/testimonials", nil, nil)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	var items []models.Testimonial
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Ravi", items[0].CustomerName)

	w, _ = h.admin(http.MethodPost, "/api/admin/testimonials", gin.H{
		"customerName":   "Bad",
		"youtubeVideoId": "not a video",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestRazorpayWebhook(t *testing.T) {
	h := newHarness(t)
	order := h.createOrder("online")
	assert.Equal(t, models.StatusPaymentPending, order.InternalStatus)

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_rzp_1"}}}}`)

	w, _ := h.do(http.MethodPost, "/api/webhooks/razorpay", body, map[string]string{"X-Razorpay-Signature": "deadbeef"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = h.do(http.MethodPost, "/api/webhooks/razorpay", body, map[string]string{"X-Razorpay-Signature": sign(body)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, env := h.admin(http.MethodGet, "/api/orders/"+order.OrderID, nil)
	var paid models.Order
	require.NoError(t, json.Unmarshal(env.Data, &paid))
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentInfo.Status)
	assert.Equal(t, "pay_1", paid.PaymentInfo.RazorpayPaymentID)

	w, _ = h.do(http.MethodPost, "/api/webhooks/razorpay", body, map[string]string{"X-Razorpay-Signature": sign(body)})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCourierIntegrationHidesToken(t *testing.T) {
	h := newHarness(t)

	w, _ := h.admin(http.MethodPut, "/api/admin/courier-integrations/delhivery", gin.H{
		"pickupLocation": "Warehouse 1",
		"isActive":       true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = h.admin(http.MethodPut, "/api/admin/courier-integrations/delhivery", gin.H{
		"apiToken":       "secret-token",
		"pickupLocation": "Warehouse 1",
		"isActive":       true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret-token")

	w, _ = h.admin(http.MethodGet, "/api/admin/courier-integrations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hasToken":true`)
	assert.NotContains(t, w.Body.String(), "secret-token")

	w, _ = h.admin(http.MethodPut, "/api/admin/courier-integrations/fedex", gin.H{"pickupLocation": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminLogin(t *testing.T) {
	h := newHarness(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	h.mem.Users.(*store.MemoryUsers).Put(&models.User{
		ID:           "u-1",
		Email:        "admin@example.com",
		Name:         "Admin",
		Role:         models.RoleAdmin,
		PasswordHash: string(hash),
	})

	w, _ := h.do(http.MethodPost, "/api/auth/admin/login", gin.H{"email": "admin@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := h.do(http.MethodPost, "/api/auth/admin/login", gin.H{"email": "Admin@Example.com", "password": "hunter22"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	w, _ = h.do(http.MethodGet, "/api/customers", nil, map[string]string{"Authorization": "Bearer " + login.Token})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMaintenanceEndpoint(t *testing.T) {
	h := newHarness(t)
	h.createOrder("COD")

	w, env := h.admin(http.MethodPost, "/api/admin/maintenance/backfill-totals?dryRun=true", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report struct {
		Scanned int  `json:"scanned"`
		DryRun  bool `json:"dryRun"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 1, report.Scanned)
	assert.True(t, report.DryRun)

	w, _ = h.admin(http.MethodPost, "/api/admin/maintenance/sync-orders", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = h.admin(http.MethodPost, "/api/admin/maintenance/drop-everything", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
