// Package dbtest provides sqlite-backed fixtures for repository and service tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/pkg/config"
	"github.com/angelmondragon/nexus-commerce/pkg/db"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/types"
)

// NewSQLite opens a private in-memory database with every model migrated.
func NewSQLite(t testing.TB) *db.Client {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	client, err := db.New(context.Background(), config.DBConfig{Driver: config.DriverSQLite, DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := client.DB().AutoMigrate(models.All()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// Money parses a decimal literal.
func Money(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// VariantSpec overrides fixture defaults; zero values keep the defaults.
type VariantSpec struct {
	Price             string
	Stock             int
	Weight            string
	Inactive          bool
	SKU               string
	LowStockThreshold int
}

// CreateVariant inserts an active product with one variant.
func CreateVariant(t testing.TB, conn *gorm.DB, spec VariantSpec) models.ProductVariant {
	t.Helper()
	product := models.Product{
		VendorID: uuid.New(),
		Name:     gofakeit.ProductName(),
		IsActive: true,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	price := spec.Price
	if price == "" {
		price = "10.00"
	}
	sku := spec.SKU
	if sku == "" {
		sku = "SKU-" + strings.ToUpper(uuid.NewString()[:8])
	}
	variant := models.ProductVariant{
		ProductID:         product.ID,
		Name:              gofakeit.Color(),
		SKU:               sku,
		Price:             Money(price),
		StockQuantity:     spec.Stock,
		LowStockThreshold: spec.LowStockThreshold,
		IsActive:          !spec.Inactive,
		Attributes:        types.Attributes{"color": gofakeit.Color()},
	}
	if spec.Weight != "" {
		weight := Money(spec.Weight)
		variant.Weight = &weight
	}
	if err := conn.Create(&variant).Error; err != nil {
		t.Fatalf("create variant: %v", err)
	}
	variant.Product = &product
	return variant
}

// CreateShippingMethod inserts an active shipping method.
func CreateShippingMethod(t testing.TB, conn *gorm.DB, base, perKg string, daysMin, daysMax int) models.ShippingMethod {
	t.Helper()
	method := models.ShippingMethod{
		Name:             "Standard " + uuid.NewString()[:4],
		BaseCost:         Money(base),
		CostPerKg:        Money(perKg),
		EstimatedDaysMin: daysMin,
		EstimatedDaysMax: daysMax,
		IsActive:         true,
	}
	if err := conn.Create(&method).Error; err != nil {
		t.Fatalf("create shipping method: %v", err)
	}
	return method
}

// CreatePaymentMethod inserts a payment method with the given fee settings.
func CreatePaymentMethod(t testing.TB, conn *gorm.DB, active bool, feePct, feeFixed string) models.PaymentMethod {
	t.Helper()
	method := models.PaymentMethod{
		Name:                    "Card " + uuid.NewString()[:8],
		PaymentType:             enums.PaymentMethodCreditCard,
		IsActive:                active,
		ProcessingFeePercentage: Money(feePct),
		ProcessingFeeFixed:      Money(feeFixed),
	}
	if err := conn.Create(&method).Error; err != nil {
		t.Fatalf("create payment method: %v", err)
	}
	return method
}

// Address returns a complete fake postal address.
func Address() types.Address {
	addr := gofakeit.Address()
	return types.Address{
		FirstName:     gofakeit.FirstName(),
		LastName:      gofakeit.LastName(),
		AddressLine1:  addr.Street,
		City:          addr.City,
		StateProvince: addr.State,
		PostalCode:    addr.Zip,
		Country:       "US",
	}
}
