package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/nexus-commerce/api/controllers"
	"github.com/angelmondragon/nexus-commerce/api/middleware"
	"github.com/angelmondragon/nexus-commerce/internal/cart"
	"github.com/angelmondragon/nexus-commerce/internal/catalog"
	checkoutsvc "github.com/angelmondragon/nexus-commerce/internal/checkout"
	"github.com/angelmondragon/nexus-commerce/internal/notifications"
	"github.com/angelmondragon/nexus-commerce/internal/orders"
	"github.com/angelmondragon/nexus-commerce/internal/payments"
	"github.com/angelmondragon/nexus-commerce/pkg/config"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
	"github.com/angelmondragon/nexus-commerce/pkg/redis"
)

// Services bundles the domain services served over HTTP.
type Services struct {
	Catalog       catalog.Service
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Payments      payments.Service
	Notifications notifications.Service
}

// Dependencies are probed by the readiness check and back idempotent replays.
type Dependencies struct {
	Pingers     map[string]controllers.Pinger
	Idempotency redis.IdempotencyStore
	Metrics     http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Pingers, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/shipping-methods", controllers.ListShippingMethods(svc.Catalog, logg))
		r.Get("/payment-methods", controllers.ListPaymentMethods(svc.Payments, logg))
		r.Get("/variants/{variantId}", controllers.GetVariant(svc.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			if deps.Idempotency != nil {
				r.Use(middleware.Idempotency(deps.Idempotency, logg))
			}

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(svc.Cart, logg))
				r.Delete("/", controllers.ClearCart(svc.Cart, logg))
				r.Post("/items", controllers.AddCartItem(svc.Cart, logg))
				r.Patch("/items/{itemId}", controllers.UpdateCartItem(svc.Cart, logg))
				r.Delete("/items/{itemId}", controllers.RemoveCartItem(svc.Cart, logg))
			})

			r.Post("/checkout", controllers.Checkout(svc.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(svc.Orders, logg))
				r.Get("/by-number/{orderNumber}", controllers.GetOrderByNumber(svc.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(svc.Orders, logg))
				r.Get("/{orderId}/history", controllers.OrderHistory(svc.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(svc.Orders, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/", controllers.CreatePayment(svc.Payments, logg))
				r.Get("/", controllers.ListPayments(svc.Payments, logg))
				r.Get("/{paymentId}", controllers.GetPayment(svc.Payments, logg))
			})

			r.Route("/refunds", func(r chi.Router) {
				r.Post("/", controllers.CreateRefund(svc.Payments, logg))
				r.Get("/", controllers.ListRefunds(svc.Payments, logg))
				r.Get("/{refundId}", controllers.GetRefund(svc.Payments, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
				r.Post("/{id}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.ActorRoleAdmin, logg))
				r.Patch("/orders/{orderId}/status", controllers.AdminUpdateOrderStatus(svc.Orders, logg))
			})
		})
	})

	return r
}
