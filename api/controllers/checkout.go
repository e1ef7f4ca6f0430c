package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-commerce/api/responses"
	"github.com/angelmondragon/nexus-commerce/api/validators"
	checkoutsvc "github.com/angelmondragon/nexus-commerce/internal/checkout"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
	"github.com/angelmondragon/nexus-commerce/pkg/types"
)

// Address fields are checked by the checkout service so every missing field
// is reported together.
type checkoutRequest struct {
	ShippingAddress  types.Address `json:"shipping_address"`
	BillingAddress   types.Address `json:"billing_address"`
	ShippingMethodID uuid.UUID     `json:"shipping_method_id" validate:"required"`
	PaymentMethodID  uuid.UUID     `json:"payment_method_id" validate:"required"`
	Notes            *string       `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Checkout turns the caller's cart into a pending order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("checkout service"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Checkout(r.Context(), actor, checkoutsvc.Input{
			ShippingAddress:  payload.ShippingAddress,
			BillingAddress:   payload.BillingAddress,
			ShippingMethodID: payload.ShippingMethodID,
			PaymentMethodID:  payload.PaymentMethodID,
			Notes:            trimmedPtr(payload.Notes, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(detail, actor))
	}
}
