package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/pkg/db/dbtest"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
)

func TestLockVariantsOrdersByID(t *testing.T) {
	client := dbtest.NewSQLite(t)
	conn := client.DB()
	repo := NewRepository(conn)

	a := dbtest.CreateVariant(t, conn, dbtest.VariantSpec{Stock: 3})
	b := dbtest.CreateVariant(t, conn, dbtest.VariantSpec{Stock: 4})
	c := dbtest.CreateVariant(t, conn, dbtest.VariantSpec{Stock: 5})

	locked, err := repo.LockVariants(context.Background(), []uuid.UUID{c.ID, a.ID, b.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, locked, 3)

	want := SortedIDs([]uuid.UUID{a.ID, b.ID, c.ID})
	for i, variant := range locked {
		assert.Equal(t, want[i], variant.ID)
		require.NotNil(t, variant.Product)
	}
}

func TestLockVariantsEmpty(t *testing.T) {
	repo := NewRepository(dbtest.NewSQLite(t).DB())
	locked, err := repo.LockVariants(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, locked)
}

func TestDecrementStockGuard(t *testing.T) {
	client := dbtest.NewSQLite(t)
	conn := client.DB()
	repo := NewRepository(conn)
	ctx := context.Background()
	variant := dbtest.CreateVariant(t, conn, dbtest.VariantSpec{Stock: 2})

	ok, err := repo.DecrementStock(ctx, variant.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, variant.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.FindVariant(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.StockQuantity)

	require.NoError(t, repo.RestoreStock(ctx, variant.ID, 3))
	reloaded, err = repo.FindVariant(ctx, variant.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.StockQuantity)
}

func TestDecrementStockInsideRolledBackTx(t *testing.T) {
	client := dbtest.NewSQLite(t)
	conn := client.DB()
	repo := NewRepository(conn)
	ctx := context.Background()
	variant := dbtest.CreateVariant(t, conn, dbtest.VariantSpec{Stock: 5})

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := repo.WithTx(tx).DecrementStock(ctx, variant.ID, 4)
		require.NoError(t, err)
		require.True(t, ok)
		return pkgerrors.New(pkgerrors.CodeConflict, "abort")
	})
	require.Error(t, err)

	var reloaded models.ProductVariant
	require.NoError(t, conn.First(&reloaded, "id = ?", variant.ID).Error)
	assert.Equal(t, 5, reloaded.StockQuantity)
}

func TestActiveMethodLookups(t *testing.T) {
	client := dbtest.NewSQLite(t)
	conn := client.DB()
	repo := NewRepository(conn)
	ctx := context.Background()

	shipping := dbtest.CreateShippingMethod(t, conn, "5.99", "1.50", 3, 5)
	got, err := ActiveShippingMethod(ctx, repo, shipping.ID)
	require.NoError(t, err)
	assert.Equal(t, shipping.ID, got.ID)

	_, err = ActiveShippingMethod(ctx, repo, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidShippingMethod))

	require.NoError(t, conn.Model(&models.ShippingMethod{}).Where("id = ?", shipping.ID).Update("is_active", false).Error)
	_, err = ActiveShippingMethod(ctx, repo, shipping.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidShippingMethod))

	inactive := dbtest.CreatePaymentMethod(t, conn, false, "0", "0")
	_, err = ActivePaymentMethod(ctx, repo, inactive.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidPaymentMethod))

	active := dbtest.CreatePaymentMethod(t, conn, true, "2.90", "0.30")
	methods, err := repo.ListActivePaymentMethods(ctx)
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, active.ID, methods[0].ID)
}

func TestCheckStock(t *testing.T) {
	variant := models.ProductVariant{ID: uuid.New(), SKU: "SKU-1", StockQuantity: 2, IsActive: true}
	require.NoError(t, CheckStock(variant, 2))

	err := CheckStock(variant, 3)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Equal(t, StockShortage{VariantID: variant.ID, SKU: "SKU-1", Requested: 3, Available: 2}, typed.Details())

	variant.IsActive = false
	typed = pkgerrors.As(CheckStock(variant, 1))
	require.NotNil(t, typed)
	assert.Equal(t, 0, typed.Details().(StockShortage).Available)
}

func TestServiceGetVariantNotFound(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.NewSQLite(t).DB()))
	require.NoError(t, err)
	_, err = svc.GetVariant(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = NewService(nil)
	assert.Error(t, err)
}

func TestMarkLowStockAlertedSkipsRecoveredStock(t *testing.T) {
	client := dbtest.NewSQLite(t)
	conn := client.DB()
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)
	variant := dbtest.CreateVariant(t, conn, dbtest.VariantSpec{Stock: 1, LowStockThreshold: 3})

	low, err := repo.ListLowStock(ctx, cutoff, 10)
	require.NoError(t, err)
	require.Len(t, low, 1)
	require.NotNil(t, low[0].Product)

	require.NoError(t, repo.RestoreStock(ctx, variant.ID, 5))
	ok, err := repo.MarkLowStockAlerted(ctx, variant.ID, cutoff, now)
	require.NoError(t, err)
	assert.False(t, ok)

	low, err = repo.ListLowStock(ctx, cutoff, 10)
	require.NoError(t, err)
	assert.Empty(t, low)
}
