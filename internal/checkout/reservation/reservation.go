// Package reservation decrements stock for a checkout under row locks.
package reservation

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/angelmondragon/nexus-commerce/internal/catalog"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
)

// Store is the catalog surface a reservation needs; it must be bound to the
// caller's transaction.
type Store interface {
	LockVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error)
	DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) (bool, error)
}

// Request asks for qty units of one variant.
type Request struct {
	VariantID uuid.UUID
	Quantity  int
}

// Reserved is a granted request with the variant as it was read under lock.
type Reserved struct {
	Variant  models.ProductVariant
	Quantity int
}

// Reserve locks every requested variant in id order, re-checks stock and then
// decrements it. It is all-or-nothing: the first shortage aborts with
// insufficient_stock and the caller must roll back its transaction.
func Reserve(ctx context.Context, store Store, requests []Request) ([]Reserved, error) {
	if len(requests) == 0 {
		return nil, nil
	}
	totals := map[uuid.UUID]int{}
	for _, req := range requests {
		if req.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than 0")
		}
		totals[req.VariantID] += req.Quantity
	}

	ids := catalog.SortedIDs(lo.Keys(totals))
	locked, err := store.LockVariants(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock variants")
	}
	byID := lo.KeyBy(locked, func(v models.ProductVariant) uuid.UUID { return v.ID })

	for _, id := range ids {
		variant, ok := byID[id]
		if !ok {
			return nil, catalog.InsufficientStock(models.ProductVariant{ID: id}, totals[id], 0)
		}
		if err := catalog.CheckStock(variant, totals[id]); err != nil {
			return nil, err
		}
	}

	for _, id := range ids {
		decremented, err := store.DecrementStock(ctx, id, totals[id])
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
		}
		if !decremented {
			variant := byID[id]
			return nil, catalog.InsufficientStock(variant, totals[id], catalog.Available(variant))
		}
	}

	out := make([]Reserved, 0, len(requests))
	for _, req := range requests {
		out = append(out, Reserved{Variant: byID[req.VariantID], Quantity: req.Quantity})
	}
	return out, nil
}
