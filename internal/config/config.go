package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	GinMode        string
	MongoURI       string
	DBName         string
	JWTSecret      string
	AccessTokenTTL time.Duration
	AdminEmails    []string
	APIKeys        []string
	ListCacheTTL   time.Duration
	EnsureIndexes  bool

	WhatsApp  WhatsApp
	Delhivery Delhivery
	Razorpay  Razorpay
}

type WhatsApp struct {
	BaseURL       string
	PhoneNumberID string
	AccessToken   string
	Language      string
	// Templates maps an order event name to the approved template name.
	Templates map[string]string
}

// Enabled reports whether messages can be sent.
func (w WhatsApp) Enabled() bool {
	return w.PhoneNumberID != "" && w.AccessToken != ""
}

type Delhivery struct {
	BaseURL        string
	Token          string
	PickupLocation string
}

type Razorpay struct {
	WebhookSecret string
}

var templateEvents = []string{
	"order_confirmation",
	"order_approved",
	"order_rejected",
	"order_shipped",
	"order_delivered",
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}

	templates := make(map[string]string, len(templateEvents))
	for _, event := range templateEvents {
		templates[event] = getEnvOrDefault("WHATSAPP_TEMPLATE_"+strings.ToUpper(event), event)
	}

	cfg := Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		MongoURI:       getEnvOrDefault("MONGO_URI", ""),
		DBName:         getEnvOrDefault("DB_NAME", "adminpanel"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 60, time.Minute),
		AdminEmails:    getListEnv("ADMIN_EMAILS"),
		APIKeys:        getListEnv("API_KEYS"),
		ListCacheTTL:   getDurationEnv("LIST_CACHE_TTL", 60, time.Second),
		EnsureIndexes:  getBoolEnv("MONGO_ENSURE_INDEXES", true),
		WhatsApp: WhatsApp{
			BaseURL:       getEnvOrDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com/v18.0"),
			PhoneNumberID: getEnvOrDefault("WHATSAPP_PHONE_NUMBER_ID", ""),
			AccessToken:   getEnvOrDefault("WHATSAPP_ACCESS_TOKEN", ""),
			Language:      getEnvOrDefault("WHATSAPP_LANGUAGE", "en"),
			Templates:     templates,
		},
		Delhivery: Delhivery{
			BaseURL:        getEnvOrDefault("DELHIVERY_BASE_URL", "https://track.delhivery.com"),
			Token:          getEnvOrDefault("DELHIVERY_TOKEN", ""),
			PickupLocation: getEnvOrDefault("DELHIVERY_PICKUP_LOCATION", ""),
		},
		Razorpay: Razorpay{
			WebhookSecret: getEnvOrDefault("RAZORPAY_WEBHOOK_SECRET", ""),
		},
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}
