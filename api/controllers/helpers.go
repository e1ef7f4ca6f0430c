package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-commerce/api/middleware"
	"github.com/angelmondragon/nexus-commerce/api/validators"
	"github.com/angelmondragon/nexus-commerce/internal/orders"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
	"github.com/angelmondragon/nexus-commerce/pkg/pagination"
)

const maxReasonLength = 500

func actorFromRequest(r *http.Request) (orders.Actor, error) {
	return middleware.ActorFromContext(r.Context())
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	actor, err := actorFromRequest(r)
	if err != nil {
		return uuid.Nil, err
	}
	return actor.UserID, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable")
}

func trimmedPtr(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	trimmed := validators.SanitizeString(*value, maxLen)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
