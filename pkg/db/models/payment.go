package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/pkg/enums"
)

// PaymentMethod is a configured way to pay, with optional fee and amount bounds.
type PaymentMethod struct {
	ID                      uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	Name                    string                  `gorm:"column:name;not null;uniqueIndex:ux_payment_methods_name"`
	PaymentType             enums.PaymentMethodType `gorm:"column:payment_type;not null"`
	Description             *string                 `gorm:"column:description"`
	IsActive                bool                    `gorm:"column:is_active;not null"`
	ProcessingFeePercentage decimal.Decimal         `gorm:"column:processing_fee_percentage;type:numeric(5,2);not null"`
	ProcessingFeeFixed      decimal.Decimal         `gorm:"column:processing_fee_fixed;type:numeric(12,2);not null"`
	MinAmount               *decimal.Decimal        `gorm:"column:min_amount;type:numeric(12,2)"`
	MaxAmount               *decimal.Decimal        `gorm:"column:max_amount;type:numeric(12,2)"`
	CreatedAt               time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *PaymentMethod) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// Payment records one charge attempt against an order.
type Payment struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	PaymentID         string                  `gorm:"column:payment_id;not null;uniqueIndex:ux_payments_payment_id"`
	OrderID           uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	UserID            uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	PaymentMethodID   uuid.UUID               `gorm:"column:payment_method_id;type:uuid;not null"`
	Amount            decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency          string                  `gorm:"column:currency;not null"`
	Status            enums.TransactionStatus `gorm:"column:status;not null;index"`
	ProcessingFee     decimal.Decimal         `gorm:"column:processing_fee;type:numeric(12,2);not null"`
	ProviderPaymentID *string                 `gorm:"column:provider_payment_id"`
	FailureReason     *string                 `gorm:"column:failure_reason"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
	ProcessedAt       *time.Time              `gorm:"column:processed_at"`
	CompletedAt       *time.Time              `gorm:"column:completed_at"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Refund returns part or all of a completed payment.
type Refund struct {
	ID               uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	RefundID         string                  `gorm:"column:refund_id;not null;uniqueIndex:ux_refunds_refund_id"`
	PaymentID        uuid.UUID               `gorm:"column:payment_id;type:uuid;not null;index"`
	OrderID          uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	Amount           decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency         string                  `gorm:"column:currency;not null"`
	Status           enums.TransactionStatus `gorm:"column:status;not null;index"`
	Reason           string                  `gorm:"column:reason;not null"`
	ProcessedBy      *uuid.UUID              `gorm:"column:processed_by;type:uuid"`
	ProviderRefundID *string                 `gorm:"column:provider_refund_id"`
	FailureReason    *string                 `gorm:"column:failure_reason"`
	CreatedAt        time.Time               `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt        time.Time               `gorm:"column:updated_at;autoUpdateTime"`
	ProcessedAt      *time.Time              `gorm:"column:processed_at"`
	CompletedAt      *time.Time              `gorm:"column:completed_at"`
}

func (r *Refund) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
