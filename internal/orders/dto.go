package orders

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/pagination"
)

// OrderDetail is an order with its items and shipping record loaded.
type OrderDetail struct {
	Order    models.Order
	Items    []models.OrderItem
	Shipping *models.OrderShipping
}

// NewOrderDetail splits a preloaded order into its detail parts.
func NewOrderDetail(order models.Order) *OrderDetail {
	detail := &OrderDetail{Order: order, Items: order.Items, Shipping: order.Shipping}
	detail.Order.Items = nil
	detail.Order.Shipping = nil
	return detail
}

// Tracking is recorded on the shipping row when an order ships.
type Tracking struct {
	TrackingNumber *string
	Carrier        *string
	TrackingURL    *string
}

// UpdateStatusInput is the admin edit; nil fields are left unchanged.
type UpdateStatusInput struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	InternalNotes *string
	Notes         *string
	Tracking      *Tracking
}

// ListParams filters the order listing.
type ListParams struct {
	pagination.Params
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	UserID        *uuid.UUID
}

// OrderList is one page of orders.
type OrderList struct {
	Orders     []models.Order
	NextCursor string
}

// OrderFilter is the repository form of ListParams after access rules apply.
type OrderFilter struct {
	UserID        *uuid.UUID
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}
