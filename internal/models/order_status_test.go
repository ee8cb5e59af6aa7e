package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectionIsTotalAndNeverAhead(t *testing.T) {
	for _, status := range InternalStatuses() {
		facing, ok := projection[status]
		require.True(t, ok, "no projection for %s", status)
		assert.LessOrEqual(t, facing.Rank(), status.Rank(), "%s projects ahead to %s", status, facing)
	}
}

func TestPaymentPendingNeverLooksShipped(t *testing.T) {
	facing := StatusPaymentPending.CustomerFacing()
	assert.NotEqual(t, FacingShipped, facing)
	assert.NotEqual(t, FacingDelivered, facing)
	assert.Equal(t, FacingConfirmed, StatusCreatedPending.CustomerFacing())
	assert.Equal(t, FacingConfirmed, facing)
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, StatusCreatedPending.CanTransitionTo(StatusApproved))
	assert.True(t, StatusApproved.CanTransitionTo(StatusShipped))
	assert.True(t, StatusShipped.CanTransitionTo(StatusDelivered))
	assert.True(t, StatusReturnInitiated.CanTransitionTo(StatusReturned))

	assert.False(t, StatusCreatedPending.CanTransitionTo(StatusShipped))
	assert.False(t, StatusDelivered.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusApproved))

	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusShipped.IsTerminal())
	assert.False(t, InternalStatus("bogus").IsValid())
}

func TestOrderTransitionRecordsHistory(t *testing.T) {
	at := NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	order := Order{InternalStatus: StatusCreatedPending, CustomerFacingStatus: FacingConfirmed}

	require.NoError(t, order.Transition(StatusApproved, "admin@example.com", "", at))
	assert.Equal(t, StatusApproved, order.InternalStatus)
	assert.Equal(t, FacingProcessing, order.CustomerFacingStatus)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, StatusCreatedPending, order.StatusHistory[0].From)
	assert.True(t, order.UpdatedAt.Equal(at.Time))

	err := order.Transition(StatusReturned, "admin@example.com", "", at)
	var transitionErr TransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, StatusApproved, transitionErr.From)
	assert.Equal(t, StatusApproved, order.InternalStatus)
}

func TestOrderValidateFlagsMissingTotal(t *testing.T) {
	order := Order{
		OrderID:        "ORD-000001",
		CustomerInfo:   CustomerInfo{Phone: "+919876543210"},
		Items:          []OrderItem{{SKU: "SKU001", Quantity: 2, UnitPrice: 500}},
		InternalStatus: StatusCreatedPending,
	}

	err := order.Validate()
	var validationErr ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "items[0].totalPrice", validationErr.Field)

	total := 1000.0
	order.Items[0].TotalPrice = &total
	assert.NoError(t, order.Validate())
}

func TestLoyaltyTierFor(t *testing.T) {
	assert.Equal(t, TierBronze, LoyaltyTierFor(0))
	assert.Equal(t, TierSilver, LoyaltyTierFor(5000))
	assert.Equal(t, TierGold, LoyaltyTierFor(25000))
	assert.Equal(t, TierPlatinum, LoyaltyTierFor(50000))
}
