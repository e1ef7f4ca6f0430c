package controllers

import (
	"net/http"

	"github.com/angelmondragon/nexus-commerce/api/responses"
	"github.com/angelmondragon/nexus-commerce/api/validators"
	"github.com/angelmondragon/nexus-commerce/internal/orders"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
)

type updateOrderStatusRequest struct {
	Status         *enums.OrderStatus   `json:"status,omitempty"`
	PaymentStatus  *enums.PaymentStatus `json:"payment_status,omitempty"`
	InternalNotes  *string              `json:"internal_notes,omitempty" validate:"omitempty,max=2000"`
	Notes          *string              `json:"notes,omitempty" validate:"omitempty,max=1000"`
	TrackingNumber *string              `json:"tracking_number,omitempty" validate:"omitempty,max=100"`
	Carrier        *string              `json:"carrier,omitempty" validate:"omitempty,max=100"`
	TrackingURL    *string              `json:"tracking_url,omitempty" validate:"omitempty,url"`
}

func (p updateOrderStatusRequest) tracking() *orders.Tracking {
	if p.TrackingNumber == nil && p.Carrier == nil && p.TrackingURL == nil {
		return nil
	}
	return &orders.Tracking{
		TrackingNumber: trimmedPtr(p.TrackingNumber, 100),
		Carrier:        trimmedPtr(p.Carrier, 100),
		TrackingURL:    trimmedPtr(p.TrackingURL, 500),
	}
}

// AdminUpdateOrderStatus applies a staff edit to status, payment status,
// notes or tracking.
func AdminUpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("orders service"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.UpdateStatus(r.Context(), actor, orderID, orders.UpdateStatusInput{
			Status:        payload.Status,
			PaymentStatus: payload.PaymentStatus,
			InternalNotes: trimmedPtr(payload.InternalNotes, 2000),
			Notes:         trimmedPtr(payload.Notes, 1000),
			Tracking:      payload.tracking(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(detail, actor))
	}
}
