package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForDomainCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
		client    bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true, client: true},
		{code: CodeCartEmpty, status: http.StatusBadRequest, client: true},
		{code: CodeInvalidShippingMethod, status: http.StatusBadRequest, client: true},
		{code: CodeInvalidPaymentMethod, status: http.StatusBadRequest, client: true},
		{code: CodeInsufficientStock, status: http.StatusConflict, detailsOK: true, client: true},
		{code: CodeInvalidStatusTransition, status: http.StatusConflict, detailsOK: true, client: true},
		{code: CodeRefundExceedsPayment, status: http.StatusConflict, detailsOK: true, client: true},
		{code: CodeLockTimeout, status: http.StatusServiceUnavailable, retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
		if meta.ClientFacing != tt.client {
			t.Fatalf("code %s expected client facing %v got %v", tt.code, tt.client, meta.ClientFacing)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("code %s missing public message", tt.code)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("something_unknown")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing city")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing city" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "city"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "load order")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Error() != "dependency_error: load order: boom" {
		t.Fatalf("unexpected error text %q", wrapped.Error())
	}

	formatted := Newf(CodeNotFound, "order %s not found", "ORD-1")
	if formatted.Message() != "order ORD-1 not found" {
		t.Fatalf("unexpected message %q", formatted.Message())
	}
}

func TestCodeHelpersWalkChain(t *testing.T) {
	err := fmt.Errorf("checkout: %w", New(CodeInsufficientStock, "sold out"))
	if !IsCode(err, CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock code in chain")
	}
	if CodeOf(err) != CodeInsufficientStock {
		t.Fatalf("unexpected code %s", CodeOf(err))
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors should map to internal")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}
