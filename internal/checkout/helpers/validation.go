package helpers

import (
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
	"github.com/angelmondragon/nexus-commerce/pkg/types"
)

// ValidateAddresses requires every mandatory field of both addresses and
// reports each missing one as "<address>.<field>".
func ValidateAddresses(shipping, billing types.Address) error {
	details := map[string]string{}
	collectMissing(details, "shipping_address", shipping)
	collectMissing(details, "billing_address", billing)
	if len(details) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete").WithDetails(details)
}

func collectMissing(details map[string]string, prefix string, addr types.Address) {
	for _, field := range addr.Normalized().MissingFields() {
		details[prefix+"."+field] = "required"
	}
}
