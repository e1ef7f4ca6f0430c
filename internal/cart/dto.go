package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
)

// AddItemInput adds quantity units of a variant, merging with an existing line.
type AddItemInput struct {
	VariantID uuid.UUID
	Quantity  int
}

// View is the cart with derived totals.
type View struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	Items       []ItemView        `json:"items"`
	TotalItems  int               `json:"total_items"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	TotalWeight decimal.Decimal   `json:"total_weight"`
	Issues      []ValidationIssue `json:"issues,omitempty"`
}

// ItemView is a cart line as returned to clients.
type ItemView struct {
	ID                uuid.UUID       `json:"id"`
	VariantID         uuid.UUID       `json:"variant_id"`
	SKU               string          `json:"sku"`
	ProductName       string          `json:"product_name"`
	VariantName       string          `json:"variant_name"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	AvailableQuantity int             `json:"available_quantity"`
}

// ValidationIssue describes one line that would fail checkout as-is.
type ValidationIssue struct {
	ItemID    uuid.UUID `json:"item_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Reason    string    `json:"reason"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

const (
	IssueUnavailable  = "unavailable"
	IssueInsufficient = "insufficient_stock"
	IssuePriceChanged = "price_changed"
)

func newItemView(item models.CartItem, available int) ItemView {
	view := ItemView{
		ID:                item.ID,
		VariantID:         item.VariantID,
		Quantity:          item.Quantity,
		UnitPrice:         item.UnitPrice,
		TotalPrice:        item.TotalPrice,
		AvailableQuantity: available,
	}
	if item.Variant != nil {
		view.SKU = item.Variant.SKU
		view.VariantName = item.Variant.Name
		if item.Variant.Product != nil {
			view.ProductName = item.Variant.Product.Name
		}
	}
	return view
}
