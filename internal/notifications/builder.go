package notifications

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox/payloads"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox/registry"
)

// Build turns a decoded domain event into the customer or vendor
// notification it implies. It returns nil for events that notify nobody.
func Build(event *registry.ResolvedEvent) (*models.Notification, error) {
	if event == nil {
		return nil, fmt.Errorf("event required")
	}
	eventID, err := uuid.Parse(event.Envelope.EventID)
	if err != nil {
		return nil, fmt.Errorf("parse event id: %w", err)
	}

	var n *models.Notification
	switch payload := event.Payload.(type) {
	case *payloads.OrderCreatedEvent:
		n = orderNotification(payload.UserID, payload.OrderID, enums.NotificationOrderConfirmation,
			"Order Confirmation - "+payload.OrderNumber,
			fmt.Sprintf("We received your order %s for %s %s.", payload.OrderNumber, payload.TotalAmount.StringFixed(2), payload.Currency))
	case *payloads.OrderStatusChangedEvent:
		n = statusNotification(payload)
	case *payloads.PaymentEvent:
		n = paymentNotification(event.Envelope.EventType, payload)
	case *payloads.RefundEvent:
		if event.Envelope.EventType != enums.EventRefundCompleted {
			return nil, nil
		}
		n = orderNotification(payload.UserID, payload.OrderID, enums.NotificationRefundProcessed,
			"Refund Processed - "+payload.OrderNumber,
			fmt.Sprintf("A refund of %s %s for order %s has been processed.", payload.Amount.StringFixed(2), payload.Currency, payload.OrderNumber))
		paymentID := payload.PaymentID
		n.PaymentID = &paymentID
	case *payloads.LowStockEvent:
		message := fmt.Sprintf("%s %s (SKU %s) has %d left in stock, at or below your threshold of %d.",
			payload.ProductName, payload.VariantName, payload.SKU, payload.StockQuantity, payload.LowStockThreshold)
		n = &models.Notification{
			UserID:  payload.VendorID,
			Type:    enums.NotificationLowStockAlert,
			Title:   fmt.Sprintf("Low Stock Alert - %s (%s)", payload.ProductName, payload.VariantName),
			Message: message,
		}
	default:
		return nil, fmt.Errorf("unsupported payload %T", event.Payload)
	}
	if n == nil {
		return nil, nil
	}

	kind := string(n.Type)
	n.EventID = &eventID
	n.EventKind = &kind
	return n, nil
}

func statusNotification(payload *payloads.OrderStatusChangedEvent) *models.Notification {
	if payload.Status == payload.PreviousStatus {
		return nil
	}
	number := payload.OrderNumber
	switch payload.Status {
	case enums.OrderStatusShipped:
		message := fmt.Sprintf("Your order %s is on its way.", number)
		if payload.TrackingNumber != nil {
			message = fmt.Sprintf("Your order %s is on its way. Tracking number: %s.", number, *payload.TrackingNumber)
		}
		return orderNotification(payload.UserID, payload.OrderID, enums.NotificationOrderShipped,
			"Your order has been shipped - "+number, message)
	case enums.OrderStatusDelivered:
		return orderNotification(payload.UserID, payload.OrderID, enums.NotificationOrderDelivered,
			"Your order has been delivered - "+number,
			fmt.Sprintf("Your order %s has been delivered.", number))
	case enums.OrderStatusCancelled:
		message := fmt.Sprintf("Your order %s has been cancelled.", number)
		if payload.Notes != nil && *payload.Notes != "" {
			message = fmt.Sprintf("Your order %s has been cancelled. %s", number, *payload.Notes)
		}
		return orderNotification(payload.UserID, payload.OrderID, enums.NotificationOrderCancelled,
			"Order Cancelled - "+number, message)
	default:
		return nil
	}
}

func paymentNotification(eventType enums.OutboxEventType, payload *payloads.PaymentEvent) *models.Notification {
	var n *models.Notification
	switch eventType {
	case enums.EventPaymentCompleted:
		n = orderNotification(payload.UserID, payload.OrderID, enums.NotificationPaymentConfirmation,
			"Payment Confirmation - "+payload.OrderNumber,
			fmt.Sprintf("We received your payment of %s %s for order %s.", payload.Amount.StringFixed(2), payload.Currency, payload.OrderNumber))
	case enums.EventPaymentFailed:
		message := fmt.Sprintf("Your payment for order %s could not be processed.", payload.OrderNumber)
		if payload.FailureReason != nil {
			message = fmt.Sprintf("Your payment for order %s could not be processed: %s.", payload.OrderNumber, *payload.FailureReason)
		}
		n = orderNotification(payload.UserID, payload.OrderID, enums.NotificationPaymentFailed,
			"Payment Failed - "+payload.OrderNumber, message)
	default:
		return nil
	}
	paymentID := payload.PaymentID
	n.PaymentID = &paymentID
	return n
}

func orderNotification(userID, orderID uuid.UUID, kind enums.NotificationType, title, message string) *models.Notification {
	return &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		OrderID: &orderID,
	}
}
