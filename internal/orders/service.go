package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox/payloads"
	"github.com/angelmondragon/nexus-commerce/pkg/pagination"
)

const (
	noteCustomerCancelled = "Cancelled by customer"
	noteAdminCancelled    = "Cancelled by staff"
)

// Service defines the order lifecycle operations.
type Service interface {
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDetail, error)
	GetByNumber(ctx context.Context, actor Actor, number string) (*OrderDetail, error)
	List(ctx context.Context, actor Actor, params ListParams) (*OrderList, error)
	History(ctx context.Context, actor Actor, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, input UpdateStatusInput) (*OrderDetail, error)
	Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, reason string) (*OrderDetail, error)
	ApplyPaymentStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, next enums.PaymentStatus, actor Actor, notes *string) (*models.Order, error)
	StalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	ExpirePending(ctx context.Context, orderID uuid.UUID, cutoff time.Time, note string) (bool, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	stock  StockRestorer
	now    func() time.Time
}

// NewService builds the order lifecycle service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, stock StockRestorer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock restorer required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outbox,
		stock:  stock,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// change is one requested edit of an order's lifecycle fields.
type change struct {
	status        *enums.OrderStatus
	paymentStatus *enums.PaymentStatus
	internalNotes *string
	notes         *string
	tracking      *Tracking
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDetail, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if !actor.CanAccess(order.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return NewOrderDetail(*order), nil
}

func (s *service) GetByNumber(ctx context.Context, actor Actor, number string) (*OrderDetail, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindOrderByNumber(ctx, number)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if !actor.CanAccess(order.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return NewOrderDetail(*order), nil
}

func (s *service) List(ctx context.Context, actor Actor, params ListParams) (*OrderList, error) {
	filter := OrderFilter{Status: params.Status, PaymentStatus: params.PaymentStatus}
	switch {
	case actor.IsAdmin():
		filter.UserID = params.UserID
	case actor.UserID != uuid.Nil:
		userID := actor.UserID
		filter.UserID = &userID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination cursor")
	}
	rows, next, err := s.repo.ListOrders(ctx, filter, params.Params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &OrderList{Orders: rows, NextCursor: next}, nil
}

func (s *service) History(ctx context.Context, actor Actor, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	if _, err := s.Get(ctx, actor, orderID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListHistory(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order history")
	}
	return rows, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, input UpdateStatusInput) (*OrderDetail, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if input.Status == nil && input.PaymentStatus == nil && input.InternalNotes == nil && input.Tracking == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown status %q", *input.Status)
	}
	if input.PaymentStatus != nil && !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown payment status %q", *input.PaymentStatus)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).LockOrder(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		if input.PaymentStatus != nil {
			if err := checkAdminPaymentTarget(order.PaymentStatus, *input.PaymentStatus); err != nil {
				return err
			}
		}
		return s.apply(ctx, tx, actor, order, change{
			status:        input.Status,
			paymentStatus: input.PaymentStatus,
			internalNotes: input.InternalNotes,
			notes:         input.Notes,
			tracking:      input.Tracking,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, orderID)
}

func (s *service) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, reason string) (*OrderDetail, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).LockOrder(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		if !actor.CanAccess(order.UserID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		cancelled := enums.OrderStatusCancelled
		if !actor.IsAdmin() && !actor.IsSystem() &&
			order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusConfirmed {
			return pkgerrors.Newf(pkgerrors.CodeInvalidStatusTransition, "orders in %s can no longer be cancelled by the customer", order.Status).
				WithDetails(TransitionDetails{Field: "status", From: string(order.Status), To: string(cancelled)})
		}
		return s.apply(ctx, tx, actor, order, change{status: &cancelled, notes: cancelNote(actor, reason)})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, orderID)
}

func (s *service) ApplyPaymentStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, next enums.PaymentStatus, actor Actor, notes *string) (*models.Order, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	order, err := s.repo.WithTx(tx).LockOrder(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if err := s.apply(ctx, tx, actor, order, change{paymentStatus: &next, notes: notes}); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) StalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	rows, err := s.repo.FindStalePending(ctx, cutoff, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stale orders")
	}
	return rows, nil
}

// ExpirePending cancels the order when it is still pending/pending and older
// than cutoff once locked. It reports whether the order was cancelled.
func (s *service) ExpirePending(ctx context.Context, orderID uuid.UUID, cutoff time.Time, note string) (bool, error) {
	expired := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).LockOrder(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		if order.Status != enums.OrderStatusPending ||
			order.PaymentStatus != enums.PaymentStatusPending ||
			!order.CreatedAt.Before(cutoff) {
			return nil
		}
		cancelled := enums.OrderStatusCancelled
		if err := s.apply(ctx, tx, SystemActor, order, change{status: &cancelled, notes: &note}); err != nil {
			return err
		}
		expired = true
		return nil
	})
	return expired, err
}

// apply validates and writes one change against a locked order. A change to
// status or payment_status appends exactly one history row and emits one event.
func (s *service) apply(ctx context.Context, tx *gorm.DB, actor Actor, order *models.Order, c change) error {
	repo := s.repo.WithTx(tx)
	now := s.now()

	prevStatus, prevPayment := order.Status, order.PaymentStatus
	nextStatus, nextPayment := order.Status, order.PaymentStatus

	if c.status != nil {
		if err := checkTransition(order.Status, *c.status); err != nil {
			return err
		}
		nextStatus = *c.status
	}
	if c.paymentStatus != nil {
		if err := checkPaymentTransition(order.PaymentStatus, *c.paymentStatus); err != nil {
			return err
		}
		nextPayment = *c.paymentStatus
		if nextPayment == enums.PaymentStatusRefunded && c.status == nil && refundable(nextStatus) {
			nextStatus = enums.OrderStatusRefunded
		}
	}
	if c.tracking != nil && nextStatus != enums.OrderStatusShipped {
		return pkgerrors.New(pkgerrors.CodeValidation, "tracking can only be set on shipped orders").
			WithDetails(map[string]string{"tracking_number": "order must be shipped"})
	}

	updates := map[string]any{}
	shippingUpdates := map[string]any{}
	if nextStatus != prevStatus {
		updates["status"] = nextStatus
		switch nextStatus {
		case enums.OrderStatusConfirmed:
			updates["confirmed_at"] = now
		case enums.OrderStatusShipped:
			updates["shipped_at"] = now
			shippingUpdates["shipped_at"] = now
		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
			shippingUpdates["delivered_at"] = now
		case enums.OrderStatusCancelled:
			updates["cancelled_at"] = now
			if err := s.releaseStock(ctx, tx, order.ID); err != nil {
				return err
			}
		}
	}
	if c.paymentStatus != nil {
		updates["payment_status"] = nextPayment
	}
	if c.internalNotes != nil {
		updates["internal_notes"] = *c.internalNotes
	}
	if c.tracking != nil {
		if c.tracking.TrackingNumber != nil {
			shippingUpdates["tracking_number"] = *c.tracking.TrackingNumber
		}
		if c.tracking.Carrier != nil {
			shippingUpdates["carrier"] = *c.tracking.Carrier
		}
		if c.tracking.TrackingURL != nil {
			shippingUpdates["tracking_url"] = *c.tracking.TrackingURL
		}
	}

	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	if err := repo.UpdateShipping(ctx, order.ID, shippingUpdates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order shipping")
	}

	order.Status, order.PaymentStatus = nextStatus, nextPayment
	if c.internalNotes != nil {
		order.InternalNotes = c.internalNotes
	}
	if c.status == nil && c.paymentStatus == nil {
		return nil
	}

	entry := &models.OrderStatusHistory{
		OrderID:       order.ID,
		Status:        nextStatus,
		PaymentStatus: nextPayment,
		Notes:         c.notes,
		ChangedBy:     actor.ChangedBy(),
	}
	if err := repo.AppendHistory(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order history")
	}

	event := payloads.OrderStatusChangedEvent{
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		UserID:            order.UserID,
		PreviousStatus:    prevStatus,
		Status:            nextStatus,
		PreviousPayStatus: prevPayment,
		PaymentStatus:     nextPayment,
		Notes:             c.notes,
		ChangedAt:         now,
	}
	if c.tracking != nil {
		event.TrackingNumber = c.tracking.TrackingNumber
		event.Carrier = c.tracking.Carrier
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.OutboxRef(),
		Data:          event,
		OccurredAt:    now,
	})
}

func (s *service) releaseStock(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	order, err := s.repo.WithTx(tx).FindOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	for _, item := range order.Items {
		if err := s.stock.RestoreStock(ctx, tx, item.VariantID, item.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
		}
	}
	return nil
}

// refundable reports whether a full refund should also move the order status.
func refundable(status enums.OrderStatus) bool {
	return status != enums.OrderStatusCancelled && status != enums.OrderStatusRefunded
}

func cancelNote(actor Actor, reason string) *string {
	reason = strings.TrimSpace(reason)
	if reason != "" {
		return &reason
	}
	note := noteCustomerCancelled
	if actor.IsAdmin() {
		note = noteAdminCancelled
	}
	return &note
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
