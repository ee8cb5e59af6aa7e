package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/models"
)

type sent struct {
	to, name, lang string
	params         []string
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []sent
	err  error
}

func (s *recordingSender) SendTemplate(_ context.Context, to, name, lang string, params []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, sent{to: to, name: name, lang: lang, params: params})
	if s.err != nil {
		return "", s.err
	}
	return "wamid.test", nil
}

func sampleOrder() *models.Order {
	return &models.Order{
		OrderID:      "ORD-000042",
		CustomerInfo: models.CustomerInfo{Name: "Asha", Phone: "+919876543210"},
		PricingInfo:  models.PricingInfo{GrandTotal: 1499},
		Shipment:     &models.Shipment{Waybill: "WB1", TrackingURL: "https://www.delhivery.com/track/package/WB1"},
	}
}

func TestNotifyUsesConfiguredTemplate(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, Config{
		Language:  "en_US",
		Templates: map[Event]string{EventOrderConfirmation: "order_placed_v2"},
	})

	d.Notify(EventOrderConfirmation, sampleOrder())
	d.Notify(EventOrderShipped, sampleOrder())
	d.Wait()

	require.Len(t, sender.msgs, 2)
	byName := map[string]sent{}
	for _, m := range sender.msgs {
		byName[m.name] = m
	}
	confirm := byName["order_placed_v2"]
	assert.Equal(t, "+919876543210", confirm.to)
	assert.Equal(t, "en_US", confirm.lang)
	assert.Equal(t, []string{"Asha", "ORD-000042", "₹1499"}, confirm.params)

	shipped := byName["order_shipped"]
	assert.Equal(t, []string{"Asha", "ORD-000042", "WB1", "https://www.delhivery.com/track/package/WB1"}, shipped.params)
}

func TestNotifyFailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("provider down")}
	d := NewDispatcher(sender, Config{})
	order := sampleOrder()

	d.Notify(EventOrderApproved, order)
	d.Wait()

	require.Len(t, sender.msgs, 1)
	assert.Equal(t, "ORD-000042", order.OrderID)
}

func TestDisabledDispatcherSkips(t *testing.T) {
	d := NewDispatcher(nil, Config{})
	d.Notify(EventOrderApproved, sampleOrder())
	d.Wait()

	var nilDispatcher *Dispatcher
	nilDispatcher.Notify(EventOrderApproved, sampleOrder())
	nilDispatcher.Wait()
}

func TestParamsRejectedFallsBackToUnspecifiedReason(t *testing.T) {
	order := sampleOrder()
	order.CustomerInfo.Name = ""
	order.PricingInfo.GrandTotal = 10.5
	assert.Equal(t, []string{"Customer", "ORD-000042", "not specified"}, Params(EventOrderRejected, order))
	assert.Equal(t, []string{"Customer", "ORD-000042", "₹10.50"}, Params(EventOrderConfirmation, order))
}
