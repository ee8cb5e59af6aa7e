// Package server wires handlers onto the gin engine.
package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/addressbook"
	"adminpanel/internal/combination"
	"adminpanel/internal/handlers"
	"adminpanel/internal/middleware"
	"adminpanel/internal/orders"
	"adminpanel/internal/store"
)

type Deps struct {
	Store          *store.Store
	Auth           *middleware.Auth
	Orders         *orders.Service
	Addresses      *addressbook.Service
	Combinations   *combination.Cache
	ListCache      *handlers.ListCache
	AccessTokenTTL time.Duration
	RazorpaySecret string
}

// NewRouter builds the engine with every /api route. gin.Default supplies
// request logging and panic recovery.
func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()
	setupRoutes(r, d)
	return r
}

func setupRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")

	api.GET("/health", handlers.Health(d.Store.Health))
	api.GET("/customer/testimonials", handlers.PublicTestimonials(d.Store.Testimonials, d.ListCache))
	api.POST("/webhooks/razorpay", handlers.RazorpayWebhook(d.Orders, d.RazorpaySecret))
	api.POST("/auth/admin/login", handlers.AdminLogin(d.Store.Users, d.Auth, d.AccessTokenTTL))

	customer := api.Group("/customers/:phone", d.Auth.Authenticate(), middleware.RequireCustomerOrAdmin("phone"))
	{
		customer.GET("/addresses", handlers.ListAddresses(d.Addresses))
		customer.POST("/addresses", handlers.ApplyAddressAction(d.Addresses))
		customer.GET("/orders", handlers.ListCustomerOrders(d.Orders))
	}

	admin := api.Group("", d.Auth.Authenticate(), d.Auth.RequireAdmin())
	{
		admin.GET("/customers", handlers.ListCustomers(d.Store.Customers))
		admin.POST("/customers", handlers.CreateCustomer(d.Store.Customers))
		admin.GET("/customers/:phone", handlers.GetCustomer(d.Store.Customers))

		admin.GET("/orders", handlers.ListOrders(d.Orders))
		admin.POST("/orders", handlers.CreateOrder(d.Orders))
		admin.GET("/orders/:orderId", handlers.GetOrder(d.Orders))
		admin.POST("/orders/:orderId/approve", handlers.ApproveOrder(d.Orders))
		admin.POST("/orders/:orderId/ship", handlers.ShipOrder(d.Orders))
		admin.PUT("/orders/:orderId/status", handlers.UpdateOrderStatus(d.Orders))
		admin.POST("/orders/:orderId/sync", handlers.SyncOrderMirror(d.Orders))

		admin.POST("/combinations", handlers.CreateCombination(d.Combinations))
		admin.GET("/combinations", handlers.ListCombinations(d.Combinations))
		admin.POST("/combinations/lookup", handlers.LookupCombination(d.Combinations))
		admin.GET("/combinations/:hash", handlers.GetCombination(d.Combinations))
		admin.PUT("/combinations/:hash", handlers.UpdateCombination(d.Combinations))
		admin.DELETE("/combinations/:hash", handlers.DeactivateCombination(d.Combinations))

		admin.GET("/admin/testimonials", handlers.AdminListTestimonials(d.Store.Testimonials))
		admin.POST("/admin/testimonials", handlers.CreateTestimonial(d.Store.Testimonials, d.ListCache))
		admin.PUT("/admin/testimonials/:id", handlers.UpdateTestimonial(d.Store.Testimonials, d.ListCache))
		admin.DELETE("/admin/testimonials/:id", handlers.DeleteTestimonial(d.Store.Testimonials, d.ListCache))

		admin.GET("/admin/courier-integrations", handlers.ListCourierIntegrations(d.Store.Couriers))
		admin.PUT("/admin/courier-integrations/:courier", handlers.UpsertCourierIntegration(d.Store.Couriers))

		admin.POST("/admin/maintenance/:task", handlers.RunMaintenance(d.Store.Orders))
	}
}
