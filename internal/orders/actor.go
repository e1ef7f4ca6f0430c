package orders

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox"
)

// Actor is the caller an operation runs on behalf of.
type Actor struct {
	UserID uuid.UUID
	Role   enums.ActorRole
}

// SystemActor performs background transitions such as stale order expiry.
var SystemActor = Actor{Role: enums.ActorRoleSystem}

// NewCustomer returns a customer actor.
func NewCustomer(userID uuid.UUID) Actor {
	return Actor{UserID: userID, Role: enums.ActorRoleCustomer}
}

// NewAdmin returns an admin actor.
func NewAdmin(userID uuid.UUID) Actor {
	return Actor{UserID: userID, Role: enums.ActorRoleAdmin}
}

func (a Actor) IsAdmin() bool  { return a.Role == enums.ActorRoleAdmin }
func (a Actor) IsSystem() bool { return a.Role == enums.ActorRoleSystem }

// CanAccess reports whether the actor may see an order owned by ownerID.
func (a Actor) CanAccess(ownerID uuid.UUID) bool {
	return a.IsAdmin() || a.IsSystem() || (a.UserID != uuid.Nil && a.UserID == ownerID)
}

// ChangedBy is the history attribution; system actions are recorded as nil.
func (a Actor) ChangedBy() *uuid.UUID {
	if a.IsSystem() || a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

// OutboxRef converts the actor for event envelopes.
func (a Actor) OutboxRef() *outbox.ActorRef {
	if a.IsSystem() || a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Role: a.Role}
}
