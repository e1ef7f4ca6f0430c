package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/pagination"
)

// CreatePaymentInput pays an order in full.
type CreatePaymentInput struct {
	OrderID         uuid.UUID
	PaymentMethodID uuid.UUID
	Amount          decimal.Decimal
	Currency        string
}

// CreateRefundInput returns part or all of a completed payment.
type CreateRefundInput struct {
	PaymentID uuid.UUID
	Amount    decimal.Decimal
	Reason    string
}

// ListParams filters payment and refund listings.
type ListParams struct {
	pagination.Params
	OrderID *uuid.UUID
	Status  *enums.TransactionStatus
}

type PaymentList struct {
	Payments   []models.Payment
	NextCursor string
}

type RefundList struct {
	Refunds    []models.Refund
	NextCursor string
}

// RefundableDetails accompanies refund_exceeds_payment.
type RefundableDetails struct {
	PaymentAmount  decimal.Decimal `json:"payment_amount"`
	AlreadyClaimed decimal.Decimal `json:"already_refunded"`
	Available      decimal.Decimal `json:"available"`
	Requested      decimal.Decimal `json:"requested"`
}
