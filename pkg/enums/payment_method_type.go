package enums

import "fmt"

// PaymentMethodType classifies a configured payment method.
type PaymentMethodType string

const (
	PaymentMethodCreditCard     PaymentMethodType = "credit_card"
	PaymentMethodDebitCard      PaymentMethodType = "debit_card"
	PaymentMethodPayPal         PaymentMethodType = "paypal"
	PaymentMethodStripe         PaymentMethodType = "stripe"
	PaymentMethodBankTransfer   PaymentMethodType = "bank_transfer"
	PaymentMethodCashOnDelivery PaymentMethodType = "cash_on_delivery"
	PaymentMethodWallet         PaymentMethodType = "wallet"
)

var validPaymentMethodTypes = []PaymentMethodType{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodPayPal,
	PaymentMethodStripe,
	PaymentMethodBankTransfer,
	PaymentMethodCashOnDelivery,
	PaymentMethodWallet,
}

// IsValid reports whether the value is a known PaymentMethodType.
func (p PaymentMethodType) IsValid() bool {
	for _, candidate := range validPaymentMethodTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethodType converts raw input into a PaymentMethodType.
func ParsePaymentMethodType(value string) (PaymentMethodType, error) {
	for _, candidate := range validPaymentMethodTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method type %q", value)
}
