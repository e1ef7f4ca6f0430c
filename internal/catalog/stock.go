package catalog

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
)

// StockShortage is the detail payload of an insufficient_stock error.
type StockShortage struct {
	VariantID uuid.UUID `json:"variant_id"`
	SKU       string    `json:"sku"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Available is the quantity a buyer may take right now. Inactive variants and
// variants of inactive products report zero.
func Available(variant models.ProductVariant) int {
	if !variant.IsActive {
		return 0
	}
	if variant.Product != nil && !variant.Product.IsActive {
		return 0
	}
	if variant.StockQuantity < 0 {
		return 0
	}
	return variant.StockQuantity
}

// CheckStock returns an insufficient_stock error when requested exceeds what
// the variant can supply.
func CheckStock(variant models.ProductVariant, requested int) error {
	available := Available(variant)
	if requested <= available {
		return nil
	}
	return InsufficientStock(variant, requested, available)
}

// InsufficientStock builds the typed error for one short variant.
func InsufficientStock(variant models.ProductVariant, requested, available int) error {
	return pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "insufficient stock for %s", variant.SKU).
		WithDetails(StockShortage{
			VariantID: variant.ID,
			SKU:       variant.SKU,
			Requested: requested,
			Available: available,
		})
}
