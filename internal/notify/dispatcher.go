// Package notify turns order events into WhatsApp template messages.
// Sends are fire-and-forget: a failure is logged and never reaches the
// order that triggered it.
package notify

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"adminpanel/internal/models"
)

type Event string

const (
	EventOrderConfirmation Event = "order_confirmation"
	EventOrderApproved     Event = "order_approved"
	EventOrderRejected     Event = "order_rejected"
	EventOrderShipped      Event = "order_shipped"
	EventOrderDelivered    Event = "order_delivered"
)

// Sender delivers one template message.
type Sender interface {
	SendTemplate(ctx context.Context, to, name, lang string, params []string) (string, error)
}

type Config struct {
	Language  string
	Templates map[Event]string
	Timeout   time.Duration
}

type Dispatcher struct {
	sender    Sender
	language  string
	templates map[Event]string
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewDispatcher returns a dispatcher. A nil sender disables delivery; events
// are then only logged.
func NewDispatcher(sender Sender, cfg Config) *Dispatcher {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	templates := make(map[Event]string, len(cfg.Templates))
	for event, name := range cfg.Templates {
		templates[event] = name
	}
	return &Dispatcher{
		sender:    sender,
		language:  cfg.Language,
		templates: templates,
		timeout:   cfg.Timeout,
	}
}

// Notify sends the template for event in the background.
func (d *Dispatcher) Notify(event Event, order *models.Order) {
	if d == nil || order == nil {
		return
	}
	name := d.templates[event]
	if name == "" {
		name = string(event)
	}
	to := order.CustomerInfo.Phone
	params := Params(event, order)
	orderID := order.OrderID

	if d.sender == nil {
		log.Printf("[NOTIFY] [INFO] delivery disabled, skipping %s for order %s", event, orderID)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		id, err := d.sender.SendTemplate(ctx, to, name, d.language, params)
		if err != nil {
			log.Printf("[NOTIFY] [ERROR] %s for order %s failed: %v", event, orderID, err)
			return
		}
		log.Printf("[NOTIFY] [INFO] %s for order %s sent (message %s)", event, orderID, id)
	}()
}

// Wait blocks until in-flight sends finish.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}

// Params returns the positional template parameters for event.
func Params(event Event, order *models.Order) []string {
	name := order.CustomerInfo.Name
	if name == "" {
		name = "Customer"
	}
	total := formatAmount(order.PricingInfo.GrandTotal)

	switch event {
	case EventOrderConfirmation:
		return []string{name, order.OrderID, total}
	case EventOrderApproved:
		return []string{name, order.OrderID}
	case EventOrderRejected:
		reason := order.Approval.RejectionReason
		if reason == "" {
			reason = "not specified"
		}
		return []string{name, order.OrderID, reason}
	case EventOrderShipped:
		if order.Shipment == nil {
			return []string{name, order.OrderID, "", ""}
		}
		return []string{name, order.OrderID, order.Shipment.Waybill, order.Shipment.TrackingURL}
	case EventOrderDelivered:
		return []string{name, order.OrderID}
	default:
		return []string{name, order.OrderID}
	}
}

func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("₹%s", strconv.FormatInt(int64(v), 10))
	}
	return fmt.Sprintf("₹%.2f", v)
}
