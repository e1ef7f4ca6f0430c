package controllers

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/angelmondragon/nexus-commerce/api/responses"
	"github.com/angelmondragon/nexus-commerce/api/validators"
	"github.com/angelmondragon/nexus-commerce/internal/catalog"
	"github.com/angelmondragon/nexus-commerce/internal/payments"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
)

// ListShippingMethods returns the active shipping methods.
func ListShippingMethods(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog service"))
			return
		}
		methods, err := svc.ListShippingMethods(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lo.Map(methods, func(m models.ShippingMethod, _ int) shippingMethodResponse {
			return newShippingMethodResponse(m)
		}))
	}
}

// ListPaymentMethods returns the active payment methods.
func ListPaymentMethods(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("payments service"))
			return
		}
		methods, err := svc.ListPaymentMethods(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lo.Map(methods, func(m models.PaymentMethod, _ int) paymentMethodResponse {
			return newPaymentMethodResponse(m)
		}))
	}
}

// GetVariant returns one variant with its current stock.
func GetVariant(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("catalog service"))
			return
		}
		variantID, err := validators.ParseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variant, err := svc.GetVariant(r.Context(), variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newVariantResponse(*variant))
	}
}
