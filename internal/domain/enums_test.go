package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusAccepted, OrderStatusRejected},
		OrderStatusAccepted:   {OrderStatusInProgress, OrderStatusRejected},
		OrderStatusInProgress: {OrderStatusCompleted},
	}

	for _, from := range AllOrderStatuses() {
		for _, to := range AllOrderStatuses() {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equalf(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatus_TerminalStates(t *testing.T) {
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusRejected.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatus("Shipped").IsTerminal())
}

func TestOrderStatus_IsValid(t *testing.T) {
	for _, s := range AllOrderStatuses() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, OrderStatus("pending").IsValid())
	assert.False(t, OrderStatus("").IsValid())
	assert.False(t, OrderStatus("Pending").CanTransitionTo("Shipped"))
}

func TestOrderStatus_CountsAsActive(t *testing.T) {
	assert.True(t, OrderStatusPending.CountsAsActive())
	assert.True(t, OrderStatusAccepted.CountsAsActive())
	assert.True(t, OrderStatusInProgress.CountsAsActive())
	assert.True(t, OrderStatusRejected.CountsAsActive())
	assert.False(t, OrderStatusCompleted.CountsAsActive())
	assert.Equal(t, []OrderStatus{OrderStatusCompleted}, InactiveOrderStatuses())
}

func TestOrderStatus_AllowedNextIsCopy(t *testing.T) {
	next := OrderStatusPending.AllowedNext()
	next[0] = OrderStatusCompleted
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusAccepted))
	assert.False(t, OrderStatusPending.CanTransitionTo(OrderStatusCompleted))
}
