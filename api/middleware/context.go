package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-commerce/internal/orders"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// ActorFromContext resolves the authenticated caller. It fails with
// unauthorized when the auth middleware did not run or the claims are unusable.
func ActorFromContext(ctx context.Context) (orders.Actor, error) {
	userID, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil || userID == uuid.Nil {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id missing")
	}
	switch enums.ActorRole(RoleFromContext(ctx)) {
	case enums.ActorRoleAdmin:
		return orders.NewAdmin(userID), nil
	case enums.ActorRoleCustomer:
		return orders.NewCustomer(userID), nil
	default:
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "role missing")
	}
}
