package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable machine-readable reason attached to every API failure.
type Code string

const (
	CodeValidation              Code = "validation_error"
	CodeUnauthorized            Code = "unauthorized"
	CodeForbidden               Code = "forbidden"
	CodeNotFound                Code = "not_found"
	CodeConflict                Code = "conflict"
	CodeIdempotency             Code = "idempotency_key_reused"
	CodeCartEmpty               Code = "cart_empty"
	CodeInvalidShippingMethod   Code = "invalid_shipping_method"
	CodeInvalidPaymentMethod    Code = "invalid_payment_method"
	CodeInsufficientStock       Code = "insufficient_stock"
	CodeInvalidStatusTransition Code = "invalid_status_transition"
	CodeOrderAlreadyPaid        Code = "order_already_paid"
	CodeAmountMismatch          Code = "amount_mismatch"
	CodePaymentNotRefundable    Code = "payment_not_refundable"
	CodeRefundExceedsPayment    Code = "refund_exceeds_payment"
	CodeLockTimeout             Code = "lock_timeout"
	CodeInternal                Code = "internal_error"
	CodeDependency              Code = "dependency_error"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	// ClientFacing codes expose the error's own message instead of PublicMessage.
	ClientFacing bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
		ClientFacing:  true,
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		Retryable:     true,
		PublicMessage: "conflict detected",
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
	},
	CodeCartEmpty: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "cart is empty",
		ClientFacing:  true,
	},
	CodeInvalidShippingMethod: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "invalid shipping method",
		ClientFacing:  true,
	},
	CodeInvalidPaymentMethod: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "invalid payment method",
		ClientFacing:  true,
	},
	CodeInsufficientStock: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "insufficient stock",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeInvalidStatusTransition: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "status transition not allowed",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeOrderAlreadyPaid: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "order is already paid",
		ClientFacing:  true,
	},
	CodeAmountMismatch: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "payment amount does not match order total",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodePaymentNotRefundable: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "only completed payments can be refunded",
		ClientFacing:  true,
	},
	CodeRefundExceedsPayment: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "refund exceeds refundable amount",
		DetailsAllowed: true,
		ClientFacing:   true,
	},
	CodeLockTimeout: {
		HTTPStatus:    http.StatusServiceUnavailable,
		Retryable:     true,
		PublicMessage: "resource busy, retry shortly",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:    http.StatusServiceUnavailable,
		Retryable:     true,
		PublicMessage: "dependency unavailable",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether the outermost typed error in the chain carries code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// CodeOf returns the typed code of err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.code
	}
	return CodeInternal
}
