package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nexus-commerce/pkg/enums"
)

// OrderCreatedEvent is emitted when checkout commits a new order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      uuid.UUID       `json:"user_id"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
}

// OrderStatusChangedEvent is emitted on every accepted status or payment status edit.
type OrderStatusChangedEvent struct {
	OrderID           uuid.UUID           `json:"order_id"`
	OrderNumber       string              `json:"order_number"`
	UserID            uuid.UUID           `json:"user_id"`
	PreviousStatus    enums.OrderStatus   `json:"previous_status"`
	Status            enums.OrderStatus   `json:"status"`
	PreviousPayStatus enums.PaymentStatus `json:"previous_payment_status"`
	PaymentStatus     enums.PaymentStatus `json:"payment_status"`
	TrackingNumber    *string             `json:"tracking_number,omitempty"`
	Carrier           *string             `json:"carrier,omitempty"`
	Notes             *string             `json:"notes,omitempty"`
	ChangedAt         time.Time           `json:"changed_at"`
}

// PaymentEvent is emitted when a payment reaches completed or failed.
type PaymentEvent struct {
	PaymentID     uuid.UUID               `json:"payment_id"`
	Reference     string                  `json:"reference"`
	OrderID       uuid.UUID               `json:"order_id"`
	OrderNumber   string                  `json:"order_number"`
	UserID        uuid.UUID               `json:"user_id"`
	Amount        decimal.Decimal         `json:"amount"`
	Currency      string                  `json:"currency"`
	Status        enums.TransactionStatus `json:"status"`
	FailureReason *string                 `json:"failure_reason,omitempty"`
}

// RefundEvent is emitted when a refund reaches completed or failed.
type RefundEvent struct {
	RefundID      uuid.UUID               `json:"refund_id"`
	Reference     string                  `json:"reference"`
	PaymentID     uuid.UUID               `json:"payment_id"`
	OrderID       uuid.UUID               `json:"order_id"`
	OrderNumber   string                  `json:"order_number"`
	UserID        uuid.UUID               `json:"user_id"`
	Amount        decimal.Decimal         `json:"amount"`
	Currency      string                  `json:"currency"`
	Status        enums.TransactionStatus `json:"status"`
	PaymentStatus enums.PaymentStatus     `json:"payment_status"`
	FailureReason *string                 `json:"failure_reason,omitempty"`
}

// LowStockEvent is emitted when an active variant's stock falls to or below
// its threshold. VendorID is the product owner the alert is addressed to.
type LowStockEvent struct {
	VariantID         uuid.UUID `json:"variant_id"`
	ProductID         uuid.UUID `json:"product_id"`
	VendorID          uuid.UUID `json:"vendor_id"`
	ProductName       string    `json:"product_name"`
	VariantName       string    `json:"variant_name"`
	SKU               string    `json:"sku"`
	StockQuantity     int       `json:"stock_quantity"`
	LowStockThreshold int       `json:"low_stock_threshold"`
}
