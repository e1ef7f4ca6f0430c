package orders

import (
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
)

var statusTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
}

// Repeated failures are allowed so every declined attempt is audited.
var paymentTransitions = map[enums.PaymentStatus][]enums.PaymentStatus{
	enums.PaymentStatusPending:           {enums.PaymentStatusPaid, enums.PaymentStatusFailed},
	enums.PaymentStatusFailed:            {enums.PaymentStatusPaid, enums.PaymentStatusFailed},
	enums.PaymentStatusPaid:              {enums.PaymentStatusRefunded, enums.PaymentStatusPartiallyRefunded},
	enums.PaymentStatusPartiallyRefunded: {enums.PaymentStatusPartiallyRefunded, enums.PaymentStatusRefunded},
}

// Payment statuses that only payment and refund processing may write.
var processorPaymentStatuses = map[enums.PaymentStatus]bool{
	enums.PaymentStatusPaid:              true,
	enums.PaymentStatusPartiallyRefunded: true,
	enums.PaymentStatusRefunded:          true,
}

// TransitionDetails is attached to invalid_status_transition errors.
type TransitionDetails struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// CanTransition reports whether an order may move from one status to another.
// refunded is never a valid target; only refund processing reaches it.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether payment_status may move from one value to another.
func CanTransitionPayment(from, to enums.PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the statuses reachable from the given one.
func AllowedTransitions(from enums.OrderStatus) []enums.OrderStatus {
	return append([]enums.OrderStatus(nil), statusTransitions[from]...)
}

func checkTransition(from, to enums.OrderStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeInvalidStatusTransition, "cannot move order from %s to %s", from, to).
		WithDetails(TransitionDetails{Field: "status", From: string(from), To: string(to)})
}

func checkPaymentTransition(from, to enums.PaymentStatus) error {
	if CanTransitionPayment(from, to) {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeInvalidStatusTransition, "cannot move payment status from %s to %s", from, to).
		WithDetails(TransitionDetails{Field: "payment_status", From: string(from), To: string(to)})
}

// checkAdminPaymentTarget rejects direct edits to payment statuses that must
// stay in step with payment and refund rows.
func checkAdminPaymentTarget(from, to enums.PaymentStatus) error {
	if !processorPaymentStatuses[to] {
		return nil
	}
	return pkgerrors.Newf(pkgerrors.CodeInvalidStatusTransition, "payment status %s is set by payment processing", to).
		WithDetails(TransitionDetails{Field: "payment_status", From: string(from), To: string(to)})
}
