package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
)

// Repository covers the catalog rows the checkout and cart flows read or mutate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	LockVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error)
	DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) (bool, error)
	RestoreStock(ctx context.Context, variantID uuid.UUID, qty int) error
	ListLowStock(ctx context.Context, alertedBefore time.Time, limit int) ([]models.ProductVariant, error)
	MarkLowStockAlerted(ctx context.Context, variantID uuid.UUID, alertedBefore, at time.Time) (bool, error)
	FindShippingMethod(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error)
	ListActiveShippingMethods(ctx context.Context) ([]models.ShippingMethod, error)
	FindPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	ListActivePaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
}
