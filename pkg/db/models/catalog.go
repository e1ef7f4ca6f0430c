package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/pkg/types"
)

// Product groups purchasable variants under one vendor listing.
type Product struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	VendorID  uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductVariant is the purchasable unit; stock_quantity is mutated only under row lock.
type ProductVariant struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ProductID         uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	Product           *Product         `gorm:"foreignKey:ProductID"`
	Name              string           `gorm:"column:name;not null"`
	SKU               string           `gorm:"column:sku;not null;uniqueIndex:ux_product_variants_sku"`
	Price             decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	StockQuantity     int              `gorm:"column:stock_quantity;not null;check:chk_product_variants_stock,stock_quantity >= 0"`
	LowStockThreshold int              `gorm:"column:low_stock_threshold;not null;default:5"`
	LowStockAlertedAt *time.Time       `gorm:"column:low_stock_alerted_at"`
	Weight            *decimal.Decimal `gorm:"column:weight;type:numeric(10,3)"`
	IsActive          bool             `gorm:"column:is_active;not null"`
	IsDigital         bool             `gorm:"column:is_digital;not null"`
	Attributes        types.Attributes `gorm:"column:attributes;type:jsonb"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// ShippingMethod prices delivery as base_cost + weight * cost_per_kg.
type ShippingMethod struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name             string          `gorm:"column:name;not null"`
	Description      *string         `gorm:"column:description"`
	BaseCost         decimal.Decimal `gorm:"column:base_cost;type:numeric(12,2);not null"`
	CostPerKg        decimal.Decimal `gorm:"column:cost_per_kg;type:numeric(12,2);not null"`
	EstimatedDaysMin int             `gorm:"column:estimated_days_min;not null"`
	EstimatedDaysMax int             `gorm:"column:estimated_days_max;not null"`
	IsActive         bool            `gorm:"column:is_active;not null"`
	IsDigital        bool            `gorm:"column:is_digital;not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *ShippingMethod) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
