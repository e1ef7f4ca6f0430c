package enums

import "fmt"

// ActorRole distinguishes customers from staff acting on orders.
type ActorRole string

const (
	ActorRoleCustomer ActorRole = "customer"
	ActorRoleAdmin    ActorRole = "admin"
	ActorRoleSystem   ActorRole = "system"
)

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	switch r {
	case ActorRoleCustomer, ActorRoleAdmin, ActorRoleSystem:
		return true
	default:
		return false
	}
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	role := ActorRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid actor role %q", value)
	}
	return role, nil
}
