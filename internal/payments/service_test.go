package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/internal/catalog"
	"github.com/angelmondragon/nexus-commerce/internal/orders"
	"github.com/angelmondragon/nexus-commerce/pkg/db"
	"github.com/angelmondragon/nexus-commerce/pkg/db/dbtest"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox"
	"github.com/angelmondragon/nexus-commerce/pkg/pagination"
)

type fixture struct {
	client  *db.Client
	svc     Service
	orders  orders.Service
	deps    Deps
	gateway *SimulatedGateway
	method  models.PaymentMethod
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.NewSQLite(t)
	conn := client.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logger.Nop())
	catalogRepo := catalog.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	orderSvc, err := orders.NewService(ordersRepo, client, emitter, catalog.NewRestorer(catalogRepo))
	require.NoError(t, err)

	gateway := NewSimulatedGateway()
	deps := Deps{
		Repo:    NewRepository(conn),
		Tx:      client,
		Orders:  ordersRepo,
		Status:  orderSvc,
		Catalog: catalogRepo,
		Outbox:  emitter,
		Gateway: gateway,
	}
	svc, err := NewService(deps)
	require.NoError(t, err)
	return &fixture{
		client:  client,
		svc:     svc,
		orders:  orderSvc,
		deps:    deps,
		gateway: gateway,
		method:  dbtest.CreatePaymentMethod(t, conn, true, "2.90", "0.30"),
	}
}

func (f *fixture) seedOrder(t *testing.T, userID uuid.UUID, total string) models.Order {
	t.Helper()
	number, err := models.NewReference(models.OrderNumberPrefix)
	require.NoError(t, err)
	order := models.Order{
		OrderNumber:     number,
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		Subtotal:        dbtest.Money(total),
		TaxAmount:       decimal.Zero,
		ShippingAmount:  decimal.Zero,
		DiscountAmount:  decimal.Zero,
		TotalAmount:     dbtest.Money(total),
		Currency:        "USD",
		ShippingAddress: dbtest.Address(),
		BillingAddress:  dbtest.Address(),
	}
	require.NoError(t, f.client.DB().Create(&order).Error)
	return order
}

func (f *fixture) reloadOrder(t *testing.T, id uuid.UUID) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, f.client.DB().First(&order, "id = ?", id).Error)
	return order
}

func (f *fixture) pay(t *testing.T, actor orders.Actor, order models.Order) *models.Payment {
	t.Helper()
	payment, err := f.svc.CreatePayment(context.Background(), actor, CreatePaymentInput{
		OrderID:         order.ID,
		PaymentMethodID: f.method.ID,
		Amount:          order.TotalAmount,
	})
	require.NoError(t, err)
	return payment
}

func (f *fixture) events(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func TestCreatePaymentMarksOrderPaid(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, "100.00")

	payment := f.pay(t, orders.NewCustomer(userID), order)
	assert.Equal(t, enums.TransactionStatusCompleted, payment.Status)
	assert.Equal(t, "USD", payment.Currency)
	assert.True(t, payment.ProcessingFee.Equal(dbtest.Money("3.20")))
	require.NotNil(t, payment.ProviderPaymentID)
	assert.Equal(t, "PAY_"+payment.PaymentID, *payment.ProviderPaymentID)
	assert.NotNil(t, payment.ProcessedAt)
	assert.NotNil(t, payment.CompletedAt)

	var stored models.Payment
	require.NoError(t, f.client.DB().First(&stored, "id = ?", payment.ID).Error)
	assert.Equal(t, enums.TransactionStatusCompleted, stored.Status)

	assert.Equal(t, enums.PaymentStatusPaid, f.reloadOrder(t, order.ID).PaymentStatus)
	assert.EqualValues(t, 1, f.events(t, enums.EventPaymentCompleted))
	assert.EqualValues(t, 1, f.events(t, enums.EventOrderStatusChanged))

	var history []models.OrderStatusHistory
	require.NoError(t, f.client.DB().Where("order_id = ?", order.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, enums.PaymentStatusPaid, history[0].PaymentStatus)
}

func TestCreatePaymentRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	actor := orders.NewCustomer(userID)
	order := f.seedOrder(t, userID, "100.00")

	_, err := f.svc.CreatePayment(ctx, actor, CreatePaymentInput{
		OrderID: order.ID, PaymentMethodID: f.method.ID, Amount: dbtest.Money("99.99"),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeAmountMismatch))

	inactive := dbtest.CreatePaymentMethod(t, f.client.DB(), false, "0", "0")
	_, err = f.svc.CreatePayment(ctx, actor, CreatePaymentInput{
		OrderID: order.ID, PaymentMethodID: inactive.ID, Amount: order.TotalAmount,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidPaymentMethod))

	_, err = f.svc.CreatePayment(ctx, actor, CreatePaymentInput{
		OrderID: order.ID, PaymentMethodID: f.method.ID, Amount: order.TotalAmount, Currency: "EUR",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreatePayment(ctx, actor, CreatePaymentInput{
		OrderID: order.ID, PaymentMethodID: f.method.ID, Amount: order.TotalAmount, Currency: "dollars",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreatePayment(ctx, orders.NewCustomer(uuid.New()), CreatePaymentInput{
		OrderID: order.ID, PaymentMethodID: f.method.ID, Amount: order.TotalAmount,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var count int64
	require.NoError(t, f.client.DB().Model(&models.Payment{}).Count(&count).Error)
	assert.Zero(t, count)

	f.pay(t, actor, order)
	_, err = f.svc.CreatePayment(ctx, actor, CreatePaymentInput{
		OrderID: order.ID, PaymentMethodID: f.method.ID, Amount: order.TotalAmount,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOrderAlreadyPaid))
}

func TestCreatePaymentEnforcesMethodBounds(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, "100.00")
	maxAmount := dbtest.Money("50.00")
	require.NoError(t, f.client.DB().Model(&models.PaymentMethod{}).
		Where("id = ?", f.method.ID).Update("max_amount", maxAmount).Error)

	_, err := f.svc.CreatePayment(context.Background(), orders.NewCustomer(userID), CreatePaymentInput{
		OrderID: order.ID, PaymentMethodID: f.method.ID, Amount: order.TotalAmount,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"max_amount": "50.00"}, typed.Details())
}

func TestDeclinedPaymentCanBeRetried(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	actor := orders.NewCustomer(userID)
	order := f.seedOrder(t, userID, "42.50")

	f.gateway.FailCharges(ErrDeclined)
	failed := f.pay(t, actor, order)
	assert.Equal(t, enums.TransactionStatusFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, ErrDeclined.Error(), *failed.FailureReason)
	assert.Nil(t, failed.ProviderPaymentID)
	assert.Equal(t, enums.PaymentStatusFailed, f.reloadOrder(t, order.ID).PaymentStatus)
	assert.EqualValues(t, 1, f.events(t, enums.EventPaymentFailed))

	f.gateway.FailCharges(nil)
	paid := f.pay(t, actor, order)
	assert.Equal(t, enums.TransactionStatusCompleted, paid.Status)
	assert.Equal(t, enums.PaymentStatusPaid, f.reloadOrder(t, order.ID).PaymentStatus)
}

func TestRefundsUpToPaymentAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	admin := orders.NewAdmin(uuid.New())
	order := f.seedOrder(t, userID, "100.00")
	payment := f.pay(t, orders.NewCustomer(userID), order)

	first, err := f.svc.CreateRefund(ctx, admin, CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("60.00"), Reason: "damaged item",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCompleted, first.Status)
	require.NotNil(t, first.ProviderRefundID)
	assert.Equal(t, "REF_"+first.RefundID, *first.ProviderRefundID)
	require.NotNil(t, first.ProcessedBy)
	assert.Equal(t, admin.UserID, *first.ProcessedBy)
	assert.Equal(t, enums.PaymentStatusPartiallyRefunded, f.reloadOrder(t, order.ID).PaymentStatus)

	_, err = f.svc.CreateRefund(ctx, admin, CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("50.00"), Reason: "goodwill",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeRefundExceedsPayment, typed.Code())
	details, ok := typed.Details().(RefundableDetails)
	require.True(t, ok)
	assert.True(t, details.Available.Equal(dbtest.Money("40.00")))

	second, err := f.svc.CreateRefund(ctx, admin, CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("40.00"), Reason: "goodwill",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCompleted, second.Status)

	final := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.PaymentStatusRefunded, final.PaymentStatus)
	assert.Equal(t, enums.OrderStatusRefunded, final.Status)
	assert.EqualValues(t, 2, f.events(t, enums.EventRefundCompleted))

	_, err = f.svc.CreateRefund(ctx, admin, CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("0.01"), Reason: "again",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRefundExceedsPayment))
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	order := f.seedOrder(t, userID, "20.00")
	f.gateway.FailCharges(ErrDeclined)
	payment := f.pay(t, orders.NewCustomer(userID), order)

	_, err := f.svc.CreateRefund(context.Background(), orders.NewAdmin(uuid.New()), CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("5.00"), Reason: "oops",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentNotRefundable))
}

func TestFailedRefundLeavesOrderPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	customer := orders.NewCustomer(userID)
	order := f.seedOrder(t, userID, "30.00")
	payment := f.pay(t, customer, order)

	f.gateway.FailRefunds(ErrDeclined)
	refund, err := f.svc.CreateRefund(ctx, customer, CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("30.00"), Reason: "changed my mind",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusFailed, refund.Status)
	assert.Equal(t, enums.PaymentStatusPaid, f.reloadOrder(t, order.ID).PaymentStatus)
	assert.EqualValues(t, 1, f.events(t, enums.EventRefundFailed))

	// A failed refund does not consume the refundable balance.
	f.gateway.FailRefunds(nil)
	refund, err = f.svc.CreateRefund(ctx, customer, CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("30.00"), Reason: "changed my mind",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCompleted, refund.Status)
	assert.Equal(t, enums.PaymentStatusRefunded, f.reloadOrder(t, order.ID).PaymentStatus)
}

// brokenApplier fails every order payment status write.
type brokenApplier struct{}

func (brokenApplier) ApplyPaymentStatus(context.Context, *gorm.DB, uuid.UUID, enums.PaymentStatus, orders.Actor, *string) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders unavailable")
}

func (f *fixture) brokenService(t *testing.T) Service {
	t.Helper()
	deps := f.deps
	deps.Status = brokenApplier{}
	svc, err := NewService(deps)
	require.NoError(t, err)
	return svc
}

func TestUnrecordedChargeDoesNotBlockRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	actor := orders.NewCustomer(userID)
	order := f.seedOrder(t, userID, "25.00")

	_, err := f.brokenService(t).CreatePayment(ctx, actor, CreatePaymentInput{
		OrderID: order.ID, PaymentMethodID: f.method.ID, Amount: order.TotalAmount,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	var stuck models.Payment
	require.NoError(t, f.client.DB().First(&stuck, "order_id = ?", order.ID).Error)
	assert.Equal(t, enums.TransactionStatusFailed, stuck.Status)
	require.NotNil(t, stuck.FailureReason)
	assert.Contains(t, *stuck.FailureReason, "orders unavailable")
	assert.Equal(t, enums.PaymentStatusPending, f.reloadOrder(t, order.ID).PaymentStatus)
	assert.Zero(t, f.events(t, enums.EventPaymentCompleted))

	paid := f.pay(t, actor, order)
	assert.Equal(t, enums.TransactionStatusCompleted, paid.Status)
	assert.Equal(t, enums.PaymentStatusPaid, f.reloadOrder(t, order.ID).PaymentStatus)
}

func TestUnrecordedRefundReleasesBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	admin := orders.NewAdmin(uuid.New())
	order := f.seedOrder(t, userID, "80.00")
	payment := f.pay(t, orders.NewCustomer(userID), order)

	_, err := f.brokenService(t).CreateRefund(ctx, admin, CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("80.00"), Reason: "lost in transit",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	var refunds []models.Refund
	require.NoError(t, f.client.DB().Where("payment_id = ?", payment.ID).Find(&refunds).Error)
	require.Len(t, refunds, 1)
	assert.Equal(t, enums.TransactionStatusFailed, refunds[0].Status)
	assert.Equal(t, enums.PaymentStatusPaid, f.reloadOrder(t, order.ID).PaymentStatus)

	refund, err := f.svc.CreateRefund(ctx, admin, CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("80.00"), Reason: "lost in transit",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCompleted, refund.Status)
	assert.Equal(t, enums.PaymentStatusRefunded, f.reloadOrder(t, order.ID).PaymentStatus)
}

func TestAdminPaymentStatusEditDoesNotPreemptRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	admin := orders.NewAdmin(uuid.New())
	order := f.seedOrder(t, userID, "100.00")
	payment := f.pay(t, orders.NewCustomer(userID), order)

	refunded := enums.PaymentStatusRefunded
	_, err := f.orders.UpdateStatus(ctx, admin, order.ID, orders.UpdateStatusInput{PaymentStatus: &refunded})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidStatusTransition))
	assert.Equal(t, enums.PaymentStatusPaid, f.reloadOrder(t, order.ID).PaymentStatus)

	refund, err := f.svc.CreateRefund(ctx, admin, CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("100.00"), Reason: "order never shipped",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCompleted, refund.Status)

	final := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.PaymentStatusRefunded, final.PaymentStatus)
	assert.Equal(t, enums.OrderStatusRefunded, final.Status)
}

func TestRefundValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	order := f.seedOrder(t, userID, "30.00")
	payment := f.pay(t, orders.NewCustomer(userID), order)

	_, err := f.svc.CreateRefund(ctx, orders.NewCustomer(userID), CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("0"), Reason: "x",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateRefund(ctx, orders.NewCustomer(userID), CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("1.00"), Reason: "  ",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateRefund(ctx, orders.NewCustomer(uuid.New()), CreateRefundInput{
		PaymentID: payment.ID, Amount: dbtest.Money("1.00"), Reason: "not mine",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListsAreScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()
	alicePayment := f.pay(t, orders.NewCustomer(alice), f.seedOrder(t, alice, "10.00"))
	f.pay(t, orders.NewCustomer(bob), f.seedOrder(t, bob, "12.00"))

	_, err := f.svc.CreateRefund(ctx, orders.NewCustomer(alice), CreateRefundInput{
		PaymentID: alicePayment.ID, Amount: dbtest.Money("5.00"), Reason: "late",
	})
	require.NoError(t, err)

	list, err := f.svc.ListPayments(ctx, orders.NewCustomer(alice), ListParams{})
	require.NoError(t, err)
	require.Len(t, list.Payments, 1)
	assert.Equal(t, alicePayment.ID, list.Payments[0].ID)

	all, err := f.svc.ListPayments(ctx, orders.NewAdmin(uuid.New()), ListParams{Params: pagination.Params{Limit: 1}})
	require.NoError(t, err)
	assert.Len(t, all.Payments, 1)
	assert.NotEmpty(t, all.NextCursor)

	refunds, err := f.svc.ListRefunds(ctx, orders.NewCustomer(bob), ListParams{})
	require.NoError(t, err)
	assert.Empty(t, refunds.Refunds)

	refunds, err = f.svc.ListRefunds(ctx, orders.NewCustomer(alice), ListParams{})
	require.NoError(t, err)
	require.Len(t, refunds.Refunds, 1)

	_, err = f.svc.GetRefund(ctx, orders.NewCustomer(bob), refunds.Refunds[0].ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.GetPayment(ctx, orders.NewCustomer(bob), alicePayment.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err := f.svc.GetPayment(ctx, orders.NewCustomer(alice), alicePayment.ID)
	require.NoError(t, err)
	assert.Equal(t, alicePayment.PaymentID, got.PaymentID)

	_, err = f.svc.ListPayments(ctx, orders.NewCustomer(alice), ListParams{Params: pagination.Params{Cursor: "%%%"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListPaymentMethodsReturnsActiveOnly(t *testing.T) {
	f := newFixture(t)
	dbtest.CreatePaymentMethod(t, f.client.DB(), false, "0", "0")

	methods, err := f.svc.ListPaymentMethods(context.Background())
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, f.method.ID, methods[0].ID)
}
