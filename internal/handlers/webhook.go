package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/orders"
	"adminpanel/internal/store"
)

const (
	razorpaySignatureHeader = "X-Razorpay-Signature"
	maxWebhookBody          = 1 << 20
)

type razorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// VerifyRazorpaySignature checks the hex HMAC-SHA256 of body under secret.
func VerifyRazorpaySignature(body []byte, signature, secret string) bool {
	want, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

// RazorpayWebhook applies payment.captured and payment.failed events. Other
// events and unknown orders are acknowledged so the provider stops retrying.
func RazorpayWebhook(svc *orders.Service, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /webhooks/razorpay"
		defer handlePanic(c, route)

		if secret == "" {
			respondWithError(c, http.StatusServiceUnavailable, route, "webhook not configured")
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}
		if !VerifyRazorpaySignature(body, c.GetHeader(razorpaySignatureHeader), secret) {
			log.Println("[PAYMENT] [ERROR] webhook signature mismatch")
			respondWithError(c, http.StatusUnauthorized, route, "invalid signature")
			return
		}

		var ev razorpayEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body")
			return
		}

		entity := ev.Payload.Payment.Entity
		payment := orders.PaymentEvent{RazorpayOrderID: entity.OrderID, PaymentID: entity.ID}
		switch ev.Event {
		case "payment.captured":
			payment.Captured = true
		case "payment.failed":
			payment.FailureReason = strings.TrimSpace(entity.ErrorDescription)
			if payment.FailureReason == "" {
				payment.FailureReason = "payment failed"
			}
		default:
			log.Printf("[PAYMENT] [INFO] ignoring webhook event %q", ev.Event)
			respond(c, http.StatusOK, gin.H{"event": ev.Event, "ignored": true})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := svc.ApplyPayment(ctx, payment)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Printf("[PAYMENT] [WARN] no order for razorpay order %s", entity.OrderID)
				respond(c, http.StatusOK, gin.H{"event": ev.Event, "ignored": true})
				return
			}
			respondError(c, route, err)
			return
		}
		respond(c, http.StatusOK, gin.H{
			"event":         ev.Event,
			"orderId":       order.OrderID,
			"paymentStatus": order.PaymentInfo.Status,
		})
	}
}
