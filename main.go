package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/addressbook"
	"adminpanel/internal/combination"
	"adminpanel/internal/config"
	"adminpanel/internal/courier"
	"adminpanel/internal/database"
	"adminpanel/internal/handlers"
	"adminpanel/internal/middleware"
	"adminpanel/internal/models"
	"adminpanel/internal/notify"
	"adminpanel/internal/notify/whatsapp"
	"adminpanel/internal/orders"
	"adminpanel/internal/server"
	"adminpanel/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}
	db := client.Database(cfg.DBName)
	log.Println("MongoDB connected to:", db.Name())

	if cfg.EnsureIndexes {
		if err := database.EnsureIndexes(db); err != nil {
			log.Printf("[DB] [WARN] index warning: %v", err)
		}
	}

	st := store.NewMongo(db)

	var sender notify.Sender
	if cfg.WhatsApp.Enabled() {
		sender = &whatsapp.Client{
			BaseURL:       cfg.WhatsApp.BaseURL,
			PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
			AccessToken:   cfg.WhatsApp.AccessToken,
		}
	} else {
		log.Println("[NOTIFY] [WARN] WhatsApp not configured, notifications will only be logged")
	}
	templates := make(map[notify.Event]string, len(cfg.WhatsApp.Templates))
	for event, name := range cfg.WhatsApp.Templates {
		templates[notify.Event(event)] = name
	}
	dispatcher := notify.NewDispatcher(sender, notify.Config{
		Language:  cfg.WhatsApp.Language,
		Templates: templates,
	})

	shipper := courier.NewResolver(st.Couriers, map[string]courier.Credentials{
		models.CourierDelhivery: {
			BaseURL:        cfg.Delhivery.BaseURL,
			Token:          cfg.Delhivery.Token,
			PickupLocation: cfg.Delhivery.PickupLocation,
		},
	})

	combinations := combination.NewCache(st.Combinations)
	orderService := orders.NewService(orders.Options{
		Orders:       st.Orders,
		Customers:    st.Customers,
		Combinations: combinations,
		Shipper:      shipper,
		Notifier:     dispatcher,
	})

	router := server.NewRouter(server.Deps{
		Store:          st,
		Auth:           middleware.NewAuth(cfg.JWTSecret, cfg.AdminEmails, cfg.APIKeys),
		Orders:         orderService,
		Addresses:      addressbook.NewService(st.Customers),
		Combinations:   combinations,
		ListCache:      handlers.NewListCache(cfg.ListCacheTTL),
		AccessTokenTTL: cfg.AccessTokenTTL,
		RazorpaySecret: cfg.Razorpay.WebhookSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[SERVER] [INFO] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("[SERVER] [INFO] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[SERVER] [ERROR] shutdown: %v", err)
	}
	dispatcher.Wait()
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Printf("[DB] [ERROR] disconnect: %v", err)
	}
}
