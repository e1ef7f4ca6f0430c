package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// NewReference builds a human-facing identifier such as ORD-1A2B3C4D.
func NewReference(prefix string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate %s reference: %w", prefix, err)
	}
	return prefix + "-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

const (
	OrderNumberPrefix = "ORD"
	PaymentIDPrefix   = "PAY"
	RefundIDPrefix    = "REF"
)
