package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{StatusPending, StatusPreparing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusReady, false},
		{StatusPending, StatusServed, false},
		{StatusPreparing, StatusReady, true},
		{StatusPreparing, StatusCancelled, true},
		{StatusPreparing, StatusServed, false},
		{StatusReady, StatusAwaitingPayment, true},
		{StatusReady, StatusServed, true},
		{StatusReady, StatusCancelled, false},
		{StatusAwaitingPayment, StatusServed, true},
		{StatusAwaitingPayment, StatusCancelled, false},
		{StatusServed, StatusCancelled, false},
		{StatusServed, StatusPending, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestTerminalStatusesHaveNoEdges(t *testing.T) {
	for _, st := range []OrderStatus{StatusServed, StatusCancelled} {
		assert.True(t, st.IsTerminal())
		assert.Empty(t, Transitions[st])
	}
}

func TestOccupies(t *testing.T) {
	assert.True(t, StatusPending.Occupies())
	assert.True(t, StatusPreparing.Occupies())
	assert.True(t, StatusReady.Occupies())
	assert.False(t, StatusAwaitingPayment.Occupies())
	assert.False(t, StatusServed.Occupies())
	assert.False(t, StatusCancelled.Occupies())
}

func TestCheckoutEligible(t *testing.T) {
	assert.True(t, StatusReady.CheckoutEligible())
	assert.True(t, StatusAwaitingPayment.CheckoutEligible())
	assert.False(t, StatusPending.CheckoutEligible())
	assert.False(t, StatusPreparing.CheckoutEligible())
	assert.False(t, StatusServed.CheckoutEligible())
	assert.False(t, StatusCancelled.CheckoutEligible())
}

func TestOrderTypeValid(t *testing.T) {
	assert.True(t, OrderTypeDineIn.Valid())
	assert.True(t, OrderTypeTakeaway.Valid())
	assert.False(t, OrderType("delivery").Valid())
}
