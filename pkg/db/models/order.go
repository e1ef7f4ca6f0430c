package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/types"
)

// Order is created once by checkout; afterwards only its status fields move.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string              `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;index"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;not null"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxAmount       decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	ShippingAmount  decimal.Decimal     `gorm:"column:shipping_amount;type:numeric(12,2);not null"`
	DiscountAmount  decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency        string              `gorm:"column:currency;not null"`
	ShippingAddress types.Address       `gorm:"column:shipping_address;type:jsonb;not null"`
	BillingAddress  types.Address       `gorm:"column:billing_address;type:jsonb;not null"`
	Notes           *string             `gorm:"column:notes"`
	InternalNotes   *string             `gorm:"column:internal_notes"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID"`
	Shipping        *OrderShipping      `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	ConfirmedAt     *time.Time          `gorm:"column:confirmed_at"`
	ShippedAt       *time.Time          `gorm:"column:shipped_at"`
	DeliveredAt     *time.Time          `gorm:"column:delivered_at"`
	CancelledAt     *time.Time          `gorm:"column:cancelled_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem is an immutable snapshot of a variant at order time.
type OrderItem struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID   uuid.UUID        `gorm:"column:variant_id;type:uuid;not null"`
	VendorID    uuid.UUID        `gorm:"column:vendor_id;type:uuid;not null"`
	ProductName string           `gorm:"column:product_name;not null"`
	VariantName string           `gorm:"column:variant_name;not null"`
	SKU         string           `gorm:"column:sku;not null"`
	UnitPrice   decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity    int              `gorm:"column:quantity;not null"`
	TotalPrice  decimal.Decimal  `gorm:"column:total_price;type:numeric(12,2);not null"`
	Attributes  types.Attributes `gorm:"column:attributes;type:jsonb"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// OrderStatusHistory is append-only; nil ChangedBy means the system acted.
type OrderStatusHistory struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Status        enums.OrderStatus   `gorm:"column:status;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null"`
	Notes         *string             `gorm:"column:notes"`
	ChangedBy     *uuid.UUID          `gorm:"column:changed_by;type:uuid"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }

func (h *OrderStatusHistory) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	return nil
}

// OrderShipping is one-to-one with Order; the cost is frozen at checkout.
type OrderShipping struct {
	OrderID           uuid.UUID       `gorm:"column:order_id;type:uuid;primaryKey"`
	ShippingMethodID  uuid.UUID       `gorm:"column:shipping_method_id;type:uuid;not null"`
	ShippingMethod    *ShippingMethod `gorm:"foreignKey:ShippingMethodID"`
	ShippingCost      decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	TrackingNumber    *string         `gorm:"column:tracking_number"`
	Carrier           *string         `gorm:"column:carrier"`
	TrackingURL       *string         `gorm:"column:tracking_url"`
	EstimatedDelivery *time.Time      `gorm:"column:estimated_delivery"`
	ShippedAt         *time.Time      `gorm:"column:shipped_at"`
	DeliveredAt       *time.Time      `gorm:"column:delivered_at"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderShipping) TableName() string { return "order_shipping" }
