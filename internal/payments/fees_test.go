package payments

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
)

func money(value string) decimal.Decimal { return decimal.RequireFromString(value) }

func TestProcessingFee(t *testing.T) {
	cases := []struct {
		name   string
		pct    string
		fixed  string
		amount string
		want   string
	}{
		{name: "none", pct: "0", fixed: "0", amount: "100.00", want: "0"},
		{name: "percentage and fixed", pct: "2.90", fixed: "0.30", amount: "100.00", want: "3.20"},
		{name: "rounds half up", pct: "1.5", fixed: "0", amount: "0.99", want: "0.01"},
		{name: "fixed only", pct: "0", fixed: "1.00", amount: "12.34", want: "1.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			method := models.PaymentMethod{
				ProcessingFeePercentage: money(tc.pct),
				ProcessingFeeFixed:      money(tc.fixed),
			}
			got := ProcessingFee(method, money(tc.amount))
			assert.True(t, got.Equal(money(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestCheckAmountBounds(t *testing.T) {
	minAmount, maxAmount := money("5.00"), money("500.00")
	method := models.PaymentMethod{MinAmount: &minAmount, MaxAmount: &maxAmount}

	assert.NoError(t, CheckAmountBounds(method, money("5.00")))
	assert.NoError(t, CheckAmountBounds(method, money("500.00")))
	assert.True(t, pkgerrors.IsCode(CheckAmountBounds(method, money("4.99")), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(CheckAmountBounds(method, money("500.01")), pkgerrors.CodeValidation))
	assert.NoError(t, CheckAmountBounds(models.PaymentMethod{}, money("1000000")))
}

func TestNormalizeCurrency(t *testing.T) {
	code, err := NormalizeCurrency("")
	require.NoError(t, err)
	assert.Equal(t, "USD", code)

	code, err = NormalizeCurrency(" eur ")
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	_, err = NormalizeCurrency("ABC")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = NormalizeCurrency("dollars")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSimulatedGateway(t *testing.T) {
	gateway := NewSimulatedGateway()
	ctx := context.Background()

	id, err := gateway.Charge(ctx, ChargeRequest{Reference: "PAY-1"})
	require.NoError(t, err)
	assert.Equal(t, "PAY_PAY-1", id)

	gateway.FailRefunds(ErrDeclined)
	_, err = gateway.Refund(ctx, RefundRequest{Reference: "REF-1"})
	assert.ErrorIs(t, err, ErrDeclined)

	gateway.FailRefunds(nil)
	id, err = gateway.Refund(ctx, RefundRequest{Reference: "REF-1"})
	require.NoError(t, err)
	assert.Equal(t, "REF_REF-1", id)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = gateway.Charge(cancelled, ChargeRequest{Reference: "PAY-2"})
	assert.ErrorIs(t, err, context.Canceled)
}
