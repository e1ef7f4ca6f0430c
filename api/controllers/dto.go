package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nexus-commerce/internal/orders"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/types"
)

type shippingMethodResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Description      *string         `json:"description,omitempty"`
	BaseCost         decimal.Decimal `json:"base_cost"`
	CostPerKg        decimal.Decimal `json:"cost_per_kg"`
	EstimatedDaysMin int             `json:"estimated_days_min"`
	EstimatedDaysMax int             `json:"estimated_days_max"`
	IsDigital        bool            `json:"is_digital"`
}

func newShippingMethodResponse(m models.ShippingMethod) shippingMethodResponse {
	return shippingMethodResponse{
		ID:               m.ID,
		Name:             m.Name,
		Description:      m.Description,
		BaseCost:         m.BaseCost,
		CostPerKg:        m.CostPerKg,
		EstimatedDaysMin: m.EstimatedDaysMin,
		EstimatedDaysMax: m.EstimatedDaysMax,
		IsDigital:        m.IsDigital,
	}
}

type paymentMethodResponse struct {
	ID                      uuid.UUID               `json:"id"`
	Name                    string                  `json:"name"`
	PaymentType             enums.PaymentMethodType `json:"payment_type"`
	Description             *string                 `json:"description,omitempty"`
	ProcessingFeePercentage decimal.Decimal         `json:"processing_fee_percentage"`
	ProcessingFeeFixed      decimal.Decimal         `json:"processing_fee_fixed"`
	MinAmount               *decimal.Decimal        `json:"min_amount,omitempty"`
	MaxAmount               *decimal.Decimal        `json:"max_amount,omitempty"`
}

func newPaymentMethodResponse(m models.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{
		ID:                      m.ID,
		Name:                    m.Name,
		PaymentType:             m.PaymentType,
		Description:             m.Description,
		ProcessingFeePercentage: m.ProcessingFeePercentage,
		ProcessingFeeFixed:      m.ProcessingFeeFixed,
		MinAmount:               m.MinAmount,
		MaxAmount:               m.MaxAmount,
	}
}

type orderSummaryResponse struct {
	ID             uuid.UUID           `json:"id"`
	OrderNumber    string              `json:"order_number"`
	UserID         uuid.UUID           `json:"user_id"`
	Status         enums.OrderStatus   `json:"status"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	TaxAmount      decimal.Decimal     `json:"tax_amount"`
	ShippingAmount decimal.Decimal     `json:"shipping_amount"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	Currency       string              `json:"currency"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type orderResponse struct {
	orderSummaryResponse
	ShippingAddress types.Address          `json:"shipping_address"`
	BillingAddress  types.Address          `json:"billing_address"`
	Notes           *string                `json:"notes,omitempty"`
	InternalNotes   *string                `json:"internal_notes,omitempty"`
	ConfirmedAt     *time.Time             `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time             `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time             `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time             `json:"cancelled_at,omitempty"`
	Items           []orderItemResponse    `json:"items"`
	Shipping        *orderShippingResponse `json:"shipping,omitempty"`
}

type orderItemResponse struct {
	ID          uuid.UUID        `json:"id"`
	VariantID   uuid.UUID        `json:"variant_id"`
	VendorID    uuid.UUID        `json:"vendor_id"`
	ProductName string           `json:"product_name"`
	VariantName string           `json:"variant_name"`
	SKU         string           `json:"sku"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Quantity    int              `json:"quantity"`
	TotalPrice  decimal.Decimal  `json:"total_price"`
	Attributes  types.Attributes `json:"attributes,omitempty"`
}

type orderShippingResponse struct {
	ShippingMethodID   uuid.UUID       `json:"shipping_method_id"`
	ShippingMethodName string          `json:"shipping_method_name,omitempty"`
	ShippingCost       decimal.Decimal `json:"shipping_cost"`
	TrackingNumber     *string         `json:"tracking_number,omitempty"`
	Carrier            *string         `json:"carrier,omitempty"`
	TrackingURL        *string         `json:"tracking_url,omitempty"`
	EstimatedDelivery  *time.Time      `json:"estimated_delivery,omitempty"`
	ShippedAt          *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time      `json:"delivered_at,omitempty"`
}

func newOrderSummaryResponse(o models.Order) orderSummaryResponse {
	return orderSummaryResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		Subtotal:       o.Subtotal,
		TaxAmount:      o.TaxAmount,
		ShippingAmount: o.ShippingAmount,
		DiscountAmount: o.DiscountAmount,
		TotalAmount:    o.TotalAmount,
		Currency:       o.Currency,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// newOrderResponse hides internal notes from customers.
func newOrderResponse(detail *orders.OrderDetail, actor orders.Actor) orderResponse {
	if detail == nil {
		return orderResponse{}
	}
	o := detail.Order
	resp := orderResponse{
		orderSummaryResponse: newOrderSummaryResponse(o),
		ShippingAddress:      o.ShippingAddress,
		BillingAddress:       o.BillingAddress,
		Notes:                o.Notes,
		ConfirmedAt:          o.ConfirmedAt,
		ShippedAt:            o.ShippedAt,
		DeliveredAt:          o.DeliveredAt,
		CancelledAt:          o.CancelledAt,
		Items: lo.Map(detail.Items, func(item models.OrderItem, _ int) orderItemResponse {
			return orderItemResponse{
				ID:          item.ID,
				VariantID:   item.VariantID,
				VendorID:    item.VendorID,
				ProductName: item.ProductName,
				VariantName: item.VariantName,
				SKU:         item.SKU,
				UnitPrice:   item.UnitPrice,
				Quantity:    item.Quantity,
				TotalPrice:  item.TotalPrice,
				Attributes:  item.Attributes,
			}
		}),
	}
	if actor.IsAdmin() {
		resp.InternalNotes = o.InternalNotes
	}
	if s := detail.Shipping; s != nil {
		shipping := &orderShippingResponse{
			ShippingMethodID:  s.ShippingMethodID,
			ShippingCost:      s.ShippingCost,
			TrackingNumber:    s.TrackingNumber,
			Carrier:           s.Carrier,
			TrackingURL:       s.TrackingURL,
			EstimatedDelivery: s.EstimatedDelivery,
			ShippedAt:         s.ShippedAt,
			DeliveredAt:       s.DeliveredAt,
		}
		if s.ShippingMethod != nil {
			shipping.ShippingMethodName = s.ShippingMethod.Name
		}
		resp.Shipping = shipping
	}
	return resp
}

type statusHistoryResponse struct {
	ID            uuid.UUID           `json:"id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Notes         *string             `json:"notes,omitempty"`
	ChangedBy     *uuid.UUID          `json:"changed_by,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func newStatusHistoryResponse(h models.OrderStatusHistory, _ int) statusHistoryResponse {
	return statusHistoryResponse{
		ID:            h.ID,
		Status:        h.Status,
		PaymentStatus: h.PaymentStatus,
		Notes:         h.Notes,
		ChangedBy:     h.ChangedBy,
		CreatedAt:     h.CreatedAt,
	}
}

type paymentResponse struct {
	ID                uuid.UUID               `json:"id"`
	PaymentID         string                  `json:"payment_id"`
	OrderID           uuid.UUID               `json:"order_id"`
	PaymentMethodID   uuid.UUID               `json:"payment_method_id"`
	Amount            decimal.Decimal         `json:"amount"`
	Currency          string                  `json:"currency"`
	Status            enums.TransactionStatus `json:"status"`
	ProcessingFee     decimal.Decimal         `json:"processing_fee"`
	ProviderPaymentID *string                 `json:"provider_payment_id,omitempty"`
	FailureReason     *string                 `json:"failure_reason,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	ProcessedAt       *time.Time              `json:"processed_at,omitempty"`
	CompletedAt       *time.Time              `json:"completed_at,omitempty"`
}

func newPaymentResponse(p models.Payment, _ int) paymentResponse {
	return paymentResponse{
		ID:                p.ID,
		PaymentID:         p.PaymentID,
		OrderID:           p.OrderID,
		PaymentMethodID:   p.PaymentMethodID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Status:            p.Status,
		ProcessingFee:     p.ProcessingFee,
		ProviderPaymentID: p.ProviderPaymentID,
		FailureReason:     p.FailureReason,
		CreatedAt:         p.CreatedAt,
		ProcessedAt:       p.ProcessedAt,
		CompletedAt:       p.CompletedAt,
	}
}

type refundResponse struct {
	ID               uuid.UUID               `json:"id"`
	RefundID         string                  `json:"refund_id"`
	PaymentID        uuid.UUID               `json:"payment_id"`
	OrderID          uuid.UUID               `json:"order_id"`
	Amount           decimal.Decimal         `json:"amount"`
	Currency         string                  `json:"currency"`
	Status           enums.TransactionStatus `json:"status"`
	Reason           string                  `json:"reason"`
	ProcessedBy      *uuid.UUID              `json:"processed_by,omitempty"`
	ProviderRefundID *string                 `json:"provider_refund_id,omitempty"`
	FailureReason    *string                 `json:"failure_reason,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	CompletedAt      *time.Time              `json:"completed_at,omitempty"`
}

func newRefundResponse(r models.Refund, _ int) refundResponse {
	return refundResponse{
		ID:               r.ID,
		RefundID:         r.RefundID,
		PaymentID:        r.PaymentID,
		OrderID:          r.OrderID,
		Amount:           r.Amount,
		Currency:         r.Currency,
		Status:           r.Status,
		Reason:           r.Reason,
		ProcessedBy:      r.ProcessedBy,
		ProviderRefundID: r.ProviderRefundID,
		FailureReason:    r.FailureReason,
		CreatedAt:        r.CreatedAt,
		CompletedAt:      r.CompletedAt,
	}
}

type notificationResponse struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	OrderID   *uuid.UUID             `json:"order_id,omitempty"`
	PaymentID *uuid.UUID             `json:"payment_id,omitempty"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func newNotificationResponse(n models.Notification, _ int) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		OrderID:   n.OrderID,
		PaymentID: n.PaymentID,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

type variantResponse struct {
	ID            uuid.UUID        `json:"id"`
	ProductID     uuid.UUID        `json:"product_id"`
	ProductName   string           `json:"product_name,omitempty"`
	Name          string           `json:"name"`
	SKU           string           `json:"sku"`
	Price         decimal.Decimal  `json:"price"`
	StockQuantity int              `json:"stock_quantity"`
	Weight        *decimal.Decimal `json:"weight,omitempty"`
	IsDigital     bool             `json:"is_digital"`
	Attributes    types.Attributes `json:"attributes,omitempty"`
}

func newVariantResponse(v models.ProductVariant) variantResponse {
	resp := variantResponse{
		ID:            v.ID,
		ProductID:     v.ProductID,
		Name:          v.Name,
		SKU:           v.SKU,
		Price:         v.Price,
		StockQuantity: v.StockQuantity,
		Weight:        v.Weight,
		IsDigital:     v.IsDigital,
		Attributes:    v.Attributes,
	}
	if v.Product != nil {
		resp.ProductName = v.Product.Name
	}
	return resp
}
