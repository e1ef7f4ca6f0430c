package payments

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nexus-commerce/pkg/enums"
)

// ErrDeclined is returned by a gateway that refuses the operation.
var ErrDeclined = errors.New("declined by payment provider")

// ChargeRequest is what the provider sees of a payment.
type ChargeRequest struct {
	Reference string
	Amount    decimal.Decimal
	Currency  string
	Method    enums.PaymentMethodType
}

// RefundRequest is what the provider sees of a refund.
type RefundRequest struct {
	Reference         string
	ProviderPaymentID string
	Amount            decimal.Decimal
	Currency          string
}

// Gateway is the payment provider boundary. Any returned error fails the
// payment or refund; the error text becomes the failure reason.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (providerID string, err error)
	Refund(ctx context.Context, req RefundRequest) (providerID string, err error)
}

// SimulatedGateway approves everything unless a failure is configured.
type SimulatedGateway struct {
	mu        sync.Mutex
	chargeErr error
	refundErr error
}

// NewSimulatedGateway returns a gateway that always succeeds.
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{}
}

// FailCharges makes subsequent charges return err; nil restores success.
func (g *SimulatedGateway) FailCharges(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chargeErr = err
}

// FailRefunds makes subsequent refunds return err; nil restores success.
func (g *SimulatedGateway) FailRefunds(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundErr = err
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.chargeErr != nil {
		return "", g.chargeErr
	}
	return "PAY_" + req.Reference, nil
}

func (g *SimulatedGateway) Refund(ctx context.Context, req RefundRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return "", g.refundErr
	}
	return "REF_" + req.Reference, nil
}
