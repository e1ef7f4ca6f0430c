package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
)

func TestCanTransitionTable(t *testing.T) {
	all := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
		enums.OrderStatusRefunded,
	}
	allowed := map[enums.OrderStatus]map[enums.OrderStatus]bool{
		enums.OrderStatusPending:    {enums.OrderStatusConfirmed: true, enums.OrderStatusCancelled: true},
		enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing: true, enums.OrderStatusCancelled: true},
		enums.OrderStatusProcessing: {enums.OrderStatusShipped: true, enums.OrderStatusCancelled: true},
		enums.OrderStatusShipped:    {enums.OrderStatusDelivered: true},
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[from][to], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, status := range []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled, enums.OrderStatusRefunded} {
		assert.Empty(t, AllowedTransitions(status), status)
	}
}

func TestCanTransitionPayment(t *testing.T) {
	assert.True(t, CanTransitionPayment(enums.PaymentStatusPending, enums.PaymentStatusPaid))
	assert.True(t, CanTransitionPayment(enums.PaymentStatusFailed, enums.PaymentStatusPaid))
	assert.True(t, CanTransitionPayment(enums.PaymentStatusPaid, enums.PaymentStatusPartiallyRefunded))
	assert.True(t, CanTransitionPayment(enums.PaymentStatusPartiallyRefunded, enums.PaymentStatusRefunded))
	assert.False(t, CanTransitionPayment(enums.PaymentStatusPending, enums.PaymentStatusRefunded))
	assert.False(t, CanTransitionPayment(enums.PaymentStatusPaid, enums.PaymentStatusPending))
	assert.False(t, CanTransitionPayment(enums.PaymentStatusRefunded, enums.PaymentStatusPaid))
}

func TestCheckTransitionDetails(t *testing.T) {
	err := checkTransition(enums.OrderStatusPending, enums.OrderStatusShipped)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInvalidStatusTransition, typed.Code())
	assert.Equal(t, TransitionDetails{Field: "status", From: "pending", To: "shipped"}, typed.Details())
}
