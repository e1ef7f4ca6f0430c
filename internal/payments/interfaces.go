package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/internal/orders"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox"
	"github.com/angelmondragon/nexus-commerce/pkg/pagination"
)

// Repository persists payments and refunds.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreatePayment(ctx context.Context, payment *models.Payment) error
	UpdatePayment(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	LockPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListPayments(ctx context.Context, filter Filter, params pagination.Params) ([]models.Payment, string, error)
	CountOrderPayments(ctx context.Context, orderID uuid.UUID, statuses ...enums.TransactionStatus) (int64, error)
	CreateRefund(ctx context.Context, refund *models.Refund) error
	UpdateRefund(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindRefund(ctx context.Context, id uuid.UUID) (*models.Refund, error)
	ListRefunds(ctx context.Context, filter Filter, params pagination.Params) ([]models.Refund, string, error)
	ListPaymentRefunds(ctx context.Context, paymentID uuid.UUID, statuses ...enums.TransactionStatus) ([]models.Refund, error)
}

// Filter scopes list queries; a nil UserID lists every row.
type Filter struct {
	UserID  *uuid.UUID
	OrderID *uuid.UUID
	Status  *enums.TransactionStatus
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// paymentStatusApplier moves an order's payment status inside the caller's transaction.
type paymentStatusApplier interface {
	ApplyPaymentStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, next enums.PaymentStatus, actor orders.Actor, notes *string) (*models.Order, error)
}
