package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/internal/cart"
	"github.com/angelmondragon/nexus-commerce/internal/catalog"
	"github.com/angelmondragon/nexus-commerce/internal/checkout/helpers"
	"github.com/angelmondragon/nexus-commerce/internal/checkout/reservation"
	"github.com/angelmondragon/nexus-commerce/internal/orders"
	"github.com/angelmondragon/nexus-commerce/internal/pricing"
	"github.com/angelmondragon/nexus-commerce/pkg/db"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
	"github.com/angelmondragon/nexus-commerce/pkg/metrics"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox/payloads"
	"github.com/angelmondragon/nexus-commerce/pkg/types"
)

const (
	historyOrderCreated     = "Order created"
	orderNumberConstraint   = "ux_orders_order_number"
	orderNumberSavepoint    = "checkout_order_number"
	defaultOrderNumberTries = 5
	defaultCheckoutCurrency = "USD"
	outcomeSuccess          = "ok"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service converts a cart into an order.
type Service interface {
	Checkout(ctx context.Context, actor orders.Actor, input Input) (*orders.OrderDetail, error)
}

// Input carries the buyer's checkout choices.
type Input struct {
	ShippingAddress  types.Address
	BillingAddress   types.Address
	ShippingMethodID uuid.UUID
	PaymentMethodID  uuid.UUID
	Notes            *string
}

// Options tunes pricing and locking; zero values fall back to defaults.
type Options struct {
	TaxRate             decimal.Decimal
	LockTimeout         time.Duration
	OrderNumberAttempts int
	Currency            string
}

type service struct {
	tx          txRunner
	carts       cart.Repository
	catalog     catalog.Repository
	orders      orders.Repository
	outbox      outboxPublisher
	opts        Options
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
	now         func() time.Time
	orderNumber func() (string, error)
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	carts cart.Repository,
	catalogRepo catalog.Repository,
	ordersRepo orders.Repository,
	publisher outboxPublisher,
	opts Options,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if opts.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	if opts.OrderNumberAttempts <= 0 {
		opts.OrderNumberAttempts = defaultOrderNumberTries
	}
	opts.Currency = strings.ToUpper(strings.TrimSpace(opts.Currency))
	if opts.Currency == "" {
		opts.Currency = defaultCheckoutCurrency
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:          tx,
		carts:       carts,
		catalog:     catalogRepo,
		orders:      ordersRepo,
		outbox:      publisher,
		opts:        opts,
		metrics:     checkoutMetrics,
		logg:        logg,
		now:         func() time.Time { return time.Now().UTC() },
		orderNumber: func() (string, error) { return models.NewReference(models.OrderNumberPrefix) },
	}, nil
}

func (s *service) Checkout(ctx context.Context, actor orders.Actor, input Input) (*orders.OrderDetail, error) {
	started := time.Now()
	detail, err := s.checkout(ctx, actor, input)
	outcome := outcomeSuccess
	if err != nil {
		outcome = string(pkgerrors.CodeOf(err))
	}
	s.metrics.Observe(outcome, time.Since(started))
	return detail, err
}

func (s *service) checkout(ctx context.Context, actor orders.Actor, input Input) (*orders.OrderDetail, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := helpers.ValidateAddresses(input.ShippingAddress, input.BillingAddress); err != nil {
		return nil, err
	}
	shippingAddress := input.ShippingAddress.Normalized()
	billingAddress := input.BillingAddress.Normalized()
	notes := trimmedOrNil(input.Notes)

	logCtx := s.logg.WithUserID(ctx, actor.UserID.String())

	// Once stock is being decremented the transaction runs to commit or
	// rollback even if the client goes away.
	txCtx := context.WithoutCancel(logCtx)

	var detail *orders.OrderDetail
	err := s.tx.WithTx(txCtx, func(tx *gorm.DB) error {
		if err := db.SetLockTimeout(tx, s.opts.LockTimeout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set lock timeout")
		}
		cartRepo := s.carts.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		record, err := cartRepo.LockCart(txCtx, actor.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeCartEmpty, "cart is empty")
			}
			return wrapStoreError(err, "load cart")
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeCartEmpty, "cart is empty")
		}

		shippingMethod, err := catalog.ActiveShippingMethod(txCtx, catalogRepo, input.ShippingMethodID)
		if err != nil {
			return err
		}
		if _, err := catalog.ActivePaymentMethod(txCtx, catalogRepo, input.PaymentMethodID); err != nil {
			return err
		}

		requests := make([]reservation.Request, 0, len(record.Items))
		for _, item := range record.Items {
			requests = append(requests, reservation.Request{VariantID: item.VariantID, Quantity: item.Quantity})
		}
		reserved, err := reservation.Reserve(txCtx, catalogRepo, requests)
		if err != nil {
			return wrapStoreError(err, "reserve stock")
		}

		now := s.now()
		items, lines := snapshotItems(reserved)
		quote := pricing.Quote(lines, pricing.ShippingRate{
			BaseCost:  shippingMethod.BaseCost,
			CostPerKg: shippingMethod.CostPerKg,
		}, s.opts.TaxRate)

		order := &models.Order{
			UserID:          actor.UserID,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.PaymentStatusPending,
			Subtotal:        quote.Subtotal,
			TaxAmount:       quote.Tax,
			ShippingAmount:  quote.Shipping,
			DiscountAmount:  quote.Discount,
			TotalAmount:     quote.Total,
			Currency:        s.opts.Currency,
			ShippingAddress: shippingAddress,
			BillingAddress:  billingAddress,
			Notes:           notes,
		}
		if err := s.insertOrder(txCtx, tx, ordersRepo, order); err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := ordersRepo.CreateItems(txCtx, items); err != nil {
			return wrapStoreError(err, "create order items")
		}

		eta := now.AddDate(0, 0, shippingMethod.EstimatedDaysMax)
		shipping := &models.OrderShipping{
			OrderID:           order.ID,
			ShippingMethodID:  shippingMethod.ID,
			ShippingCost:      quote.Shipping,
			EstimatedDelivery: &eta,
		}
		if err := ordersRepo.CreateShipping(txCtx, shipping); err != nil {
			return wrapStoreError(err, "create order shipping")
		}

		note := historyOrderCreated
		if err := ordersRepo.AppendHistory(txCtx, &models.OrderStatusHistory{
			OrderID:       order.ID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			Notes:         &note,
			ChangedBy:     actor.ChangedBy(),
		}); err != nil {
			return wrapStoreError(err, "append order history")
		}

		if _, err := cartRepo.ClearItems(txCtx, record.ID); err != nil {
			return wrapStoreError(err, "clear cart")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.OutboxRef(),
			OccurredAt:    now,
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				ItemCount:   len(items),
				TotalAmount: order.TotalAmount,
				Currency:    order.Currency,
			},
		}
		if err := s.outbox.Emit(txCtx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created")
		}

		shipping.ShippingMethod = shippingMethod
		detail = &orders.OrderDetail{Order: *order, Items: items, Shipping: shipping}
		return nil
	})
	if err != nil {
		err = wrapStoreError(err, "commit checkout")
		if pkgerrors.CodeOf(err) == pkgerrors.CodeInternal || pkgerrors.CodeOf(err) == pkgerrors.CodeDependency {
			s.logg.Error(logCtx, "checkout failed", err)
		}
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderNumber(logCtx, detail.Order.OrderNumber), "order created")
	return detail, nil
}

// insertOrder assigns a fresh order number and retries, inside a savepoint,
// when the number collides with an existing order.
func (s *service) insertOrder(ctx context.Context, tx *gorm.DB, repo orders.Repository, order *models.Order) error {
	for attempt := 1; ; attempt++ {
		number, err := s.orderNumber()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		order.OrderNumber = number

		if err := tx.SavePoint(orderNumberSavepoint).Error; err != nil {
			return wrapStoreError(err, "create savepoint")
		}
		err = repo.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, orderNumberConstraint) {
			return wrapStoreError(err, "create order")
		}
		if attempt >= s.opts.OrderNumberAttempts {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "could not allocate a unique order number")
		}
		if err := tx.RollbackTo(orderNumberSavepoint).Error; err != nil {
			return wrapStoreError(err, "rollback savepoint")
		}
	}
}

func snapshotItems(reserved []reservation.Reserved) ([]models.OrderItem, []pricing.Line) {
	items := make([]models.OrderItem, 0, len(reserved))
	lines := make([]pricing.Line, 0, len(reserved))
	for _, r := range reserved {
		variant := r.Variant
		item := models.OrderItem{
			VariantID:   variant.ID,
			VariantName: variant.Name,
			SKU:         variant.SKU,
			UnitPrice:   variant.Price,
			Quantity:    r.Quantity,
			TotalPrice:  pricing.LineTotal(variant.Price, r.Quantity),
			Attributes:  variant.Attributes,
		}
		if variant.Product != nil {
			item.VendorID = variant.Product.VendorID
			item.ProductName = variant.Product.Name
		}
		items = append(items, item)
		lines = append(lines, pricing.Line{UnitPrice: variant.Price, Quantity: r.Quantity, Weight: variant.Weight})
	}
	return items, lines
}

func wrapStoreError(err error, message string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if db.IsLockTimeout(err) {
		return pkgerrors.Wrap(pkgerrors.CodeLockTimeout, err, "inventory is busy")
	}
	if db.IsCheckViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, err, "insufficient stock")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
