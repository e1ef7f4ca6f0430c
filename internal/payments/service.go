package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/internal/catalog"
	"github.com/angelmondragon/nexus-commerce/internal/orders"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
	"github.com/angelmondragon/nexus-commerce/pkg/metrics"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox/payloads"
	"github.com/angelmondragon/nexus-commerce/pkg/pagination"
)

// Service processes payments and refunds against orders.
type Service interface {
	CreatePayment(ctx context.Context, actor orders.Actor, input CreatePaymentInput) (*models.Payment, error)
	GetPayment(ctx context.Context, actor orders.Actor, id uuid.UUID) (*models.Payment, error)
	ListPayments(ctx context.Context, actor orders.Actor, params ListParams) (*PaymentList, error)
	CreateRefund(ctx context.Context, actor orders.Actor, input CreateRefundInput) (*models.Refund, error)
	GetRefund(ctx context.Context, actor orders.Actor, id uuid.UUID) (*models.Refund, error)
	ListRefunds(ctx context.Context, actor orders.Actor, params ListParams) (*RefundList, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
}

// Deps bundles the collaborators of the payments service.
type Deps struct {
	Repo    Repository
	Tx      txRunner
	Orders  orders.Repository
	Status  paymentStatusApplier
	Catalog catalog.Repository
	Outbox  outboxPublisher
	Gateway Gateway
	Metrics *metrics.PaymentMetrics
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	tx      txRunner
	orders  orders.Repository
	status  paymentStatusApplier
	catalog catalog.Repository
	outbox  outboxPublisher
	gateway Gateway
	metrics *metrics.PaymentMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService validates deps and builds the payments service.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if deps.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if deps.Status == nil {
		return nil, fmt.Errorf("payment status applier required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    deps.Repo,
		tx:      deps.Tx,
		orders:  deps.Orders,
		status:  deps.Status,
		catalog: deps.Catalog,
		outbox:  deps.Outbox,
		gateway: deps.Gateway,
		metrics: deps.Metrics,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreatePayment(ctx context.Context, actor orders.Actor, input CreatePaymentInput) (*models.Payment, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Amount.IsPositive() {
		return nil, validationError("amount", "must be greater than zero")
	}
	code, err := NormalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	var (
		payment *models.Payment
		method  *models.PaymentMethod
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).LockOrder(ctx, input.OrderID)
		if err != nil {
			return mapLoadError(err, "order")
		}
		if !actor.CanAccess(order.UserID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if isSettled(order.PaymentStatus) {
			return pkgerrors.New(pkgerrors.CodeOrderAlreadyPaid, "order is already paid")
		}
		if order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusRefunded {
			return pkgerrors.Newf(pkgerrors.CodeConflict, "order is %s and cannot be paid", order.Status)
		}
		if !input.Amount.Equal(order.TotalAmount) {
			return pkgerrors.New(pkgerrors.CodeAmountMismatch, "payment amount must equal the order total").
				WithDetails(map[string]string{
					"expected": order.TotalAmount.StringFixed(2),
					"received": input.Amount.StringFixed(2),
				})
		}
		if code != order.Currency {
			return validationError("currency", "must match the order currency "+order.Currency)
		}

		method, err = catalog.ActivePaymentMethod(ctx, s.catalog.WithTx(tx), input.PaymentMethodID)
		if err != nil {
			return err
		}
		if err := CheckAmountBounds(*method, input.Amount); err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		inflight, err := repo.CountOrderPayments(ctx, order.ID, enums.TransactionStatusPending, enums.TransactionStatusProcessing)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count order payments")
		}
		if inflight > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "a payment for this order is already in progress")
		}

		reference, err := models.NewReference(models.PaymentIDPrefix)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate payment reference")
		}
		payment = &models.Payment{
			PaymentID:       reference,
			OrderID:         order.ID,
			UserID:          order.UserID,
			PaymentMethodID: method.ID,
			Amount:          input.Amount,
			Currency:        code,
			Status:          enums.TransactionStatusPending,
			ProcessingFee:   ProcessingFee(*method, input.Amount),
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		return s.markPaymentProcessing(ctx, repo, payment)
	})
	if err != nil {
		return nil, err
	}

	// The charge is in flight; its outcome is recorded even if the caller leaves.
	settleCtx := context.WithoutCancel(s.logg.WithField(ctx, "payment_id", payment.PaymentID))
	providerID, chargeErr := s.gateway.Charge(settleCtx, ChargeRequest{
		Reference: payment.PaymentID,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
		Method:    method.PaymentType,
	})
	if err := s.settlePayment(settleCtx, actor, payment, providerID, chargeErr); err != nil {
		s.logg.Error(settleCtx, "failed to record payment outcome", err)
		abandoned := s.abandon(settleCtx, "payment", err, func(repo Repository, updates map[string]any) error {
			return repo.UpdatePayment(settleCtx, payment.ID, updates)
		})
		if abandoned {
			s.metrics.IncPayment(string(enums.TransactionStatusFailed))
		}
		return nil, err
	}
	return payment, nil
}

// abandon marks a processing row failed after its outcome could not be
// recorded, so it neither blocks new payments nor holds refundable balance.
// The order is left untouched.
func (s *service) abandon(ctx context.Context, kind string, cause error, update func(Repository, map[string]any) error) bool {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return update(s.repo.WithTx(tx), map[string]any{
			"status":         enums.TransactionStatusFailed,
			"failure_reason": "outcome not recorded: " + cause.Error(),
		})
	})
	if err != nil {
		s.logg.Error(ctx, "failed to mark "+kind+" failed", err)
		return false
	}
	s.logg.Warn(ctx, kind+" marked failed after settle error")
	return true
}

func (s *service) markPaymentProcessing(ctx context.Context, repo Repository, payment *models.Payment) error {
	now := s.now()
	if err := repo.UpdatePayment(ctx, payment.ID, map[string]any{
		"status":       enums.TransactionStatusProcessing,
		"processed_at": now,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment processing")
	}
	payment.Status = enums.TransactionStatusProcessing
	payment.ProcessedAt = &now
	return nil
}

// settlePayment writes the gateway outcome and the order's payment status in
// one transaction.
func (s *service) settlePayment(ctx context.Context, actor orders.Actor, payment *models.Payment, providerID string, chargeErr error) error {
	now := s.now()
	next := payment.Status
	updates := map[string]any{}
	orderStatus := enums.PaymentStatusPaid
	eventType := enums.EventPaymentCompleted
	var note string
	var failure *string
	if chargeErr == nil {
		next = enums.TransactionStatusCompleted
		updates["status"] = next
		updates["completed_at"] = now
		updates["provider_payment_id"] = providerID
		note = fmt.Sprintf("Payment %s completed", payment.PaymentID)
	} else {
		reason := chargeErr.Error()
		failure = &reason
		next = enums.TransactionStatusFailed
		updates["status"] = next
		updates["failure_reason"] = reason
		orderStatus = enums.PaymentStatusFailed
		eventType = enums.EventPaymentFailed
		note = fmt.Sprintf("Payment %s failed: %s", payment.PaymentID, reason)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdatePayment(ctx, payment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}
		order, err := s.status.ApplyPaymentStatus(ctx, tx, payment.OrderID, orderStatus, actor, &note)
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         actor.OutboxRef(),
			OccurredAt:    now,
			Data: payloads.PaymentEvent{
				PaymentID:     payment.ID,
				Reference:     payment.PaymentID,
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				UserID:        order.UserID,
				Amount:        payment.Amount,
				Currency:      payment.Currency,
				Status:        next,
				FailureReason: failure,
			},
		})
	})
	if err != nil {
		return err
	}

	payment.Status = next
	if chargeErr == nil {
		payment.CompletedAt = &now
		payment.ProviderPaymentID = &providerID
		s.logg.Info(ctx, "payment completed")
	} else {
		payment.FailureReason = failure
		s.logg.Warn(ctx, "payment failed")
	}
	s.metrics.IncPayment(string(next))
	return nil
}

func (s *service) GetPayment(ctx context.Context, actor orders.Actor, id uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindPayment(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "payment")
	}
	if !actor.CanAccess(payment.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return payment, nil
}

func (s *service) ListPayments(ctx context.Context, actor orders.Actor, params ListParams) (*PaymentList, error) {
	filter, err := scopedFilter(actor, params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListPayments(ctx, filter, params.Params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return &PaymentList{Payments: rows, NextCursor: next}, nil
}

func (s *service) CreateRefund(ctx context.Context, actor orders.Actor, input CreateRefundInput) (*models.Refund, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Amount.IsPositive() {
		return nil, validationError("amount", "must be greater than zero")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, validationError("reason", "required")
	}

	var (
		payment *models.Payment
		refund  *models.Refund
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		payment, err = repo.LockPayment(ctx, input.PaymentID)
		if err != nil {
			return mapLoadError(err, "payment")
		}
		if !actor.CanAccess(payment.UserID) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		if payment.Status != enums.TransactionStatusCompleted {
			return pkgerrors.Newf(pkgerrors.CodePaymentNotRefundable, "payment is %s and cannot be refunded", payment.Status)
		}

		// In-flight refunds count against the balance so concurrent requests
		// cannot jointly exceed the payment.
		claimedRows, err := repo.ListPaymentRefunds(ctx, payment.ID,
			enums.TransactionStatusPending, enums.TransactionStatusProcessing, enums.TransactionStatusCompleted)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refunds")
		}
		claimed := sumAmounts(claimedRows)
		if claimed.Add(input.Amount).GreaterThan(payment.Amount) {
			return pkgerrors.New(pkgerrors.CodeRefundExceedsPayment, "refund exceeds the refundable amount").
				WithDetails(RefundableDetails{
					PaymentAmount:  payment.Amount,
					AlreadyClaimed: claimed,
					Available:      payment.Amount.Sub(claimed),
					Requested:      input.Amount,
				})
		}

		reference, err := models.NewReference(models.RefundIDPrefix)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate refund reference")
		}
		refund = &models.Refund{
			RefundID:    reference,
			PaymentID:   payment.ID,
			OrderID:     payment.OrderID,
			Amount:      input.Amount,
			Currency:    payment.Currency,
			Status:      enums.TransactionStatusPending,
			Reason:      reason,
			ProcessedBy: actor.ChangedBy(),
		}
		if err := repo.CreateRefund(ctx, refund); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
		}
		now := s.now()
		if err := repo.UpdateRefund(ctx, refund.ID, map[string]any{
			"status":       enums.TransactionStatusProcessing,
			"processed_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark refund processing")
		}
		refund.Status = enums.TransactionStatusProcessing
		refund.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	settleCtx := context.WithoutCancel(s.logg.WithField(ctx, "refund_id", refund.RefundID))
	providerPaymentID := ""
	if payment.ProviderPaymentID != nil {
		providerPaymentID = *payment.ProviderPaymentID
	}
	providerID, refundErr := s.gateway.Refund(settleCtx, RefundRequest{
		Reference:         refund.RefundID,
		ProviderPaymentID: providerPaymentID,
		Amount:            refund.Amount,
		Currency:          refund.Currency,
	})
	if err := s.settleRefund(settleCtx, actor, payment, refund, providerID, refundErr); err != nil {
		s.logg.Error(settleCtx, "failed to record refund outcome", err)
		abandoned := s.abandon(settleCtx, "refund", err, func(repo Repository, updates map[string]any) error {
			return repo.UpdateRefund(settleCtx, refund.ID, updates)
		})
		if abandoned {
			s.metrics.IncRefund(string(enums.TransactionStatusFailed))
		}
		return nil, err
	}
	return refund, nil
}

// settleRefund records the gateway outcome. A completed refund recomputes the
// refunded total from the table and moves the order's payment status with it.
func (s *service) settleRefund(ctx context.Context, actor orders.Actor, payment *models.Payment, refund *models.Refund, providerID string, refundErr error) error {
	now := s.now()
	var (
		next          enums.TransactionStatus
		failure       *string
		paymentStatus enums.PaymentStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.LockPayment(ctx, payment.ID); err != nil {
			return mapLoadError(err, "payment")
		}

		var order *models.Order
		eventType := enums.EventRefundCompleted
		if refundErr == nil {
			next = enums.TransactionStatusCompleted
			if err := repo.UpdateRefund(ctx, refund.ID, map[string]any{
				"status":             next,
				"completed_at":       now,
				"provider_refund_id": providerID,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update refund")
			}
			completed, err := repo.ListPaymentRefunds(ctx, payment.ID, enums.TransactionStatusCompleted)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed refunds")
			}
			paymentStatus = enums.PaymentStatusPartiallyRefunded
			if sumAmounts(completed).GreaterThanOrEqual(payment.Amount) {
				paymentStatus = enums.PaymentStatusRefunded
			}
			note := fmt.Sprintf("Refund %s of %s processed", refund.RefundID, refund.Amount.StringFixed(2))
			order, err = s.status.ApplyPaymentStatus(ctx, tx, payment.OrderID, paymentStatus, actor, &note)
			if err != nil {
				return err
			}
		} else {
			next = enums.TransactionStatusFailed
			reason := refundErr.Error()
			failure = &reason
			eventType = enums.EventRefundFailed
			if err := repo.UpdateRefund(ctx, refund.ID, map[string]any{
				"status":         next,
				"failure_reason": reason,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update refund")
			}
			var err error
			order, err = s.orders.WithTx(tx).FindOrder(ctx, payment.OrderID)
			if err != nil {
				return mapLoadError(err, "order")
			}
			paymentStatus = order.PaymentStatus
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateRefund,
			AggregateID:   refund.ID,
			Actor:         actor.OutboxRef(),
			OccurredAt:    now,
			Data: payloads.RefundEvent{
				RefundID:      refund.ID,
				Reference:     refund.RefundID,
				PaymentID:     payment.ID,
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				UserID:        order.UserID,
				Amount:        refund.Amount,
				Currency:      refund.Currency,
				Status:        next,
				PaymentStatus: paymentStatus,
				FailureReason: failure,
			},
		})
	})
	if err != nil {
		return err
	}

	refund.Status = next
	if refundErr == nil {
		refund.CompletedAt = &now
		refund.ProviderRefundID = &providerID
		s.logg.Info(s.logg.WithField(ctx, "payment_status", paymentStatus), "refund completed")
	} else {
		refund.FailureReason = failure
		s.logg.Warn(ctx, "refund failed")
	}
	s.metrics.IncRefund(string(next))
	return nil
}

func (s *service) GetRefund(ctx context.Context, actor orders.Actor, id uuid.UUID) (*models.Refund, error) {
	refund, err := s.repo.FindRefund(ctx, id)
	if err != nil {
		return nil, mapLoadError(err, "refund")
	}
	if actor.IsAdmin() {
		return refund, nil
	}
	payment, err := s.repo.FindPayment(ctx, refund.PaymentID)
	if err != nil {
		return nil, mapLoadError(err, "refund")
	}
	if !actor.CanAccess(payment.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund not found")
	}
	return refund, nil
}

func (s *service) ListRefunds(ctx context.Context, actor orders.Actor, params ListParams) (*RefundList, error) {
	filter, err := scopedFilter(actor, params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListRefunds(ctx, filter, params.Params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refunds")
	}
	return &RefundList{Refunds: rows, NextCursor: next}, nil
}

func (s *service) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	rows, err := s.catalog.ListActivePaymentMethods(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	return rows, nil
}

func scopedFilter(actor orders.Actor, params ListParams) (Filter, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return Filter{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pagination cursor")
	}
	filter := Filter{OrderID: params.OrderID, Status: params.Status}
	switch {
	case actor.IsAdmin():
	case actor.UserID != uuid.Nil:
		userID := actor.UserID
		filter.UserID = &userID
	default:
		return Filter{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return filter, nil
}

// isSettled reports whether the order has already been paid at some point.
func isSettled(status enums.PaymentStatus) bool {
	switch status {
	case enums.PaymentStatusPaid, enums.PaymentStatusPartiallyRefunded, enums.PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

func sumAmounts(refunds []models.Refund) decimal.Decimal {
	return lo.Reduce(refunds, func(total decimal.Decimal, refund models.Refund, _ int) decimal.Decimal {
		return total.Add(refund.Amount)
	}, decimal.Zero)
}

func mapLoadError(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", entity)
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}

func validationError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, field+" "+message).
		WithDetails(map[string]string{field: message})
}
