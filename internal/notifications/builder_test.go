package notifications

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox/payloads"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox/registry"
)

func resolved(eventType enums.OutboxEventType, payload any) *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Envelope: outbox.PayloadEnvelope{EventID: uuid.NewString(), EventType: eventType},
		Payload: payload,
	}
}

func TestBuildMapsEventsToNotificationTypes(t *testing.T) {
	userID, orderID := uuid.New(), uuid.New()
	reason := "card declined"
	statusChange := func(from, to enums.OrderStatus) *payloads.OrderStatusChangedEvent {
		return &payloads.OrderStatusChangedEvent{
			OrderID: orderID, OrderNumber: "ORD-1", UserID: userID, PreviousStatus: from, Status: to,
		}
	}
	payment := &payloads.PaymentEvent{OrderID: orderID, OrderNumber: "ORD-1", UserID: userID, Amount: decimal.NewFromInt(5), Currency: "USD"}
	failedPayment := *payment
	failedPayment.FailureReason = &reason
	refund := &payloads.RefundEvent{OrderID: orderID, OrderNumber: "ORD-1", UserID: userID, Amount: decimal.NewFromInt(5), Currency: "USD"}

	cases := []struct {
		name  string
		event *registry.ResolvedEvent
		want  enums.NotificationType
	}{
		{"order created", resolved(enums.EventOrderCreated, &payloads.OrderCreatedEvent{OrderID: orderID, UserID: userID}), enums.NotificationOrderConfirmation},
		{"shipped", resolved(enums.EventOrderStatusChanged, statusChange(enums.OrderStatusProcessing, enums.OrderStatusShipped)), enums.NotificationOrderShipped},
		{"delivered", resolved(enums.EventOrderStatusChanged, statusChange(enums.OrderStatusShipped, enums.OrderStatusDelivered)), enums.NotificationOrderDelivered},
		{"cancelled", resolved(enums.EventOrderStatusChanged, statusChange(enums.OrderStatusPending, enums.OrderStatusCancelled)), enums.NotificationOrderCancelled},
		{"payment completed", resolved(enums.EventPaymentCompleted, payment), enums.NotificationPaymentConfirmation},
		{"payment failed", resolved(enums.EventPaymentFailed, &failedPayment), enums.NotificationPaymentFailed},
		{"refund completed", resolved(enums.EventRefundCompleted, refund), enums.NotificationRefundProcessed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := Build(tc.event)
			require.NoError(t, err)
			require.NotNil(t, n)
			assert.Equal(t, tc.want, n.Type)
			assert.Equal(t, userID, n.UserID)
			require.NotNil(t, n.EventKind)
			assert.Equal(t, string(tc.want), *n.EventKind)
			assert.NotEmpty(t, n.Title)
		})
	}
}

func TestBuildShippedNotificationContent(t *testing.T) {
	userID, orderID := uuid.New(), uuid.New()
	tracking := "1Z999"
	event := resolved(enums.EventOrderStatusChanged, &payloads.OrderStatusChangedEvent{
		OrderID:        orderID,
		OrderNumber:    "ORD-20260103-AB12CD34",
		UserID:         userID,
		PreviousStatus: enums.OrderStatusProcessing,
		Status:         enums.OrderStatusShipped,
		TrackingNumber: &tracking,
	})

	got, err := Build(event)
	require.NoError(t, err)

	want := &models.Notification{
		UserID:  userID,
		Type:    enums.NotificationOrderShipped,
		Title:   "Your order has been shipped - ORD-20260103-AB12CD34",
		Message: "Your order ORD-20260103-AB12CD34 is on its way. Tracking number: 1Z999.",
		OrderID: &orderID,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(models.Notification{}, "EventID", "EventKind")); diff != "" {
		t.Fatalf("notification mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildLowStockAlertGoesToVendor(t *testing.T) {
	vendorID := uuid.New()
	got, err := Build(resolved(enums.EventVariantLowStock, &payloads.LowStockEvent{
		VariantID:         uuid.New(),
		ProductID:         uuid.New(),
		VendorID:          vendorID,
		ProductName:       "Trail Runner",
		VariantName:       "Blue 42",
		SKU:               "TR-BLU-42",
		StockQuantity:     2,
		LowStockThreshold: 5,
	}))
	require.NoError(t, err)

	want := &models.Notification{
		UserID:  vendorID,
		Type:    enums.NotificationLowStockAlert,
		Title:   "Low Stock Alert - Trail Runner (Blue 42)",
		Message: "Trail Runner Blue 42 (SKU TR-BLU-42) has 2 left in stock, at or below your threshold of 5.",
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(models.Notification{}, "EventID", "EventKind")); diff != "" {
		t.Fatalf("notification mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, got.EventKind)
	assert.Equal(t, string(enums.NotificationLowStockAlert), *got.EventKind)
}

func TestBuildSkipsQuietEvents(t *testing.T) {
	orderID := uuid.New()
	for name, event := range map[string]*registry.ResolvedEvent{
		"confirmed":     resolved(enums.EventOrderStatusChanged, &payloads.OrderStatusChangedEvent{OrderID: orderID, PreviousStatus: enums.OrderStatusPending, Status: enums.OrderStatusConfirmed}),
		"payment only":  resolved(enums.EventOrderStatusChanged, &payloads.OrderStatusChangedEvent{OrderID: orderID, PreviousStatus: enums.OrderStatusShipped, Status: enums.OrderStatusShipped}),
		"refund failed": resolved(enums.EventRefundFailed, &payloads.RefundEvent{OrderID: orderID}),
	} {
		t.Run(name, func(t *testing.T) {
			n, err := Build(event)
			require.NoError(t, err)
			assert.Nil(t, n)
		})
	}
}

func TestBuildRejectsBadInput(t *testing.T) {
	_, err := Build(nil)
	assert.Error(t, err)

	event := resolved(enums.EventOrderCreated, &payloads.OrderCreatedEvent{})
	event.Envelope.EventID = "nope"
	_, err = Build(event)
	assert.Error(t, err)
}
