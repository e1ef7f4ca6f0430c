package payments

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
)

const defaultCurrency = "USD"

var hundred = decimal.NewFromInt(100)

// ProcessingFee is amount * pct / 100 + fixed, rounded to cents.
func ProcessingFee(method models.PaymentMethod, amount decimal.Decimal) decimal.Decimal {
	pct := amount.Mul(method.ProcessingFeePercentage).Div(hundred)
	return pct.Add(method.ProcessingFeeFixed).Round(2)
}

// CheckAmountBounds enforces the method's optional min and max amounts.
func CheckAmountBounds(method models.PaymentMethod, amount decimal.Decimal) error {
	if method.MinAmount != nil && amount.LessThan(*method.MinAmount) {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount is below the payment method minimum").
			WithDetails(map[string]string{"min_amount": method.MinAmount.StringFixed(2)})
	}
	if method.MaxAmount != nil && amount.GreaterThan(*method.MaxAmount) {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount is above the payment method maximum").
			WithDetails(map[string]string{"max_amount": method.MaxAmount.StringFixed(2)})
	}
	return nil
}

// NormalizeCurrency returns the ISO 4217 code for value, defaulting to USD.
func NormalizeCurrency(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultCurrency, nil
	}
	unit, err := currency.ParseISO(strings.ToUpper(value))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "currency must be an ISO 4217 code").
			WithDetails(map[string]string{"currency": value})
	}
	return unit.String(), nil
}
