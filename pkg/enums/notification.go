package enums

import "fmt"

// NotificationType is the category of a customer or vendor notification.
type NotificationType string

const (
	NotificationOrderConfirmation   NotificationType = "order_confirmation"
	NotificationOrderShipped        NotificationType = "order_shipped"
	NotificationOrderDelivered      NotificationType = "order_delivered"
	NotificationOrderCancelled      NotificationType = "order_cancelled"
	NotificationPaymentConfirmation NotificationType = "payment_confirmation"
	NotificationPaymentFailed       NotificationType = "payment_failed"
	NotificationRefundProcessed     NotificationType = "refund_processed"
	NotificationLowStockAlert       NotificationType = "low_stock_alert"
)

var validNotificationTypes = []NotificationType{
	NotificationOrderConfirmation,
	NotificationOrderShipped,
	NotificationOrderDelivered,
	NotificationOrderCancelled,
	NotificationPaymentConfirmation,
	NotificationPaymentFailed,
	NotificationRefundProcessed,
	NotificationLowStockAlert,
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
