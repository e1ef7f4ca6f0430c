package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/internal/catalog"
	"github.com/angelmondragon/nexus-commerce/internal/pricing"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
)

// Service manages the caller's cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*View, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	Validate(ctx context.Context, userID uuid.UUID) (*View, error)
}

type service struct {
	repo     Repository
	variants catalog.Repository
	tx       txRunner
}

// NewService wires the cart service.
func NewService(repo Repository, variants catalog.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if variants == nil {
		return nil, fmt.Errorf("variant reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, variants: variants, tx: tx}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if _, err := s.repo.FindOrCreateCart(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.load(ctx, s.repo, userID)
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.VariantID == uuid.Nil {
		return nil, validationError("variant_id", "variant id required")
	}
	if input.Quantity < 1 {
		return nil, validationError("quantity", "quantity must be greater than 0")
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindOrCreateCart(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		variant, err := s.variant(ctx, tx, input.VariantID)
		if err != nil {
			return err
		}

		existing, err := repo.FindItemByVariant(ctx, cart.ID, variant.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := catalog.CheckStock(*variant, input.Quantity); err != nil {
				return err
			}
			item := &models.CartItem{
				CartID:     cart.ID,
				VariantID:  variant.ID,
				Quantity:   input.Quantity,
				UnitPrice:  variant.Price,
				TotalPrice: pricing.LineTotal(variant.Price, input.Quantity),
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		default:
			if variant.IsDigital {
				return validationError("variant_id", "digital product already in cart")
			}
			quantity := existing.Quantity + input.Quantity
			if err := catalog.CheckStock(*variant, quantity); err != nil {
				return err
			}
			existing.Quantity = quantity
			existing.TotalPrice = pricing.LineTotal(existing.UnitPrice, quantity)
			if err := repo.SaveItem(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
		}

		view, err = s.load(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if quantity < 0 {
		return nil, validationError("quantity", "quantity must not be negative")
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, itemID)
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindOrCreateCart(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		item, err := repo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}
		if item.Variant == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		if err := catalog.CheckStock(*item.Variant, quantity); err != nil {
			return err
		}
		item.Quantity = quantity
		item.TotalPrice = pricing.LineTotal(item.UnitPrice, quantity)
		if err := repo.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		view, err = s.load(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.repo.FindOrCreateCart(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	removed, err := s.repo.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if removed == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.load(ctx, s.repo, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cart, err := s.repo.FindOrCreateCart(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if _, err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Validate reports lines that would fail checkout without changing the cart.
func (s *service) Validate(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if _, err := s.repo.FindOrCreateCart(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	cart, err := s.repo.FindCartWithItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	view := buildView(cart)
	view.Issues = Issues(cart.Items)
	return view, nil
}

// Issues lists stock and price problems for cart items with preloaded variants.
func Issues(items []models.CartItem) []ValidationIssue {
	var issues []ValidationIssue
	for _, item := range items {
		if item.Variant == nil {
			issues = append(issues, ValidationIssue{ItemID: item.ID, VariantID: item.VariantID, Reason: IssueUnavailable, Requested: item.Quantity})
			continue
		}
		available := catalog.Available(*item.Variant)
		switch {
		case available == 0:
			issues = append(issues, ValidationIssue{ItemID: item.ID, VariantID: item.VariantID, Reason: IssueUnavailable, Requested: item.Quantity})
		case item.Quantity > available:
			issues = append(issues, ValidationIssue{ItemID: item.ID, VariantID: item.VariantID, Reason: IssueInsufficient, Requested: item.Quantity, Available: available})
		case !item.UnitPrice.Equal(item.Variant.Price):
			issues = append(issues, ValidationIssue{ItemID: item.ID, VariantID: item.VariantID, Reason: IssuePriceChanged, Requested: item.Quantity, Available: available})
		}
	}
	return issues
}

func (s *service) variant(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.ProductVariant, error) {
	variant, err := s.variants.WithTx(tx).FindVariant(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	return variant, nil
}

func (s *service) load(ctx context.Context, repo Repository, userID uuid.UUID) (*View, error) {
	cart, err := repo.FindCartWithItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return buildView(cart), nil
}

func buildView(cart *models.Cart) *View {
	view := &View{
		ID:          cart.ID,
		UserID:      cart.UserID,
		Items:       make([]ItemView, 0, len(cart.Items)),
		Subtotal:    decimal.Zero,
		TotalWeight: decimal.Zero,
	}
	lines := make([]pricing.Line, 0, len(cart.Items))
	for _, item := range cart.Items {
		available := 0
		var weight *decimal.Decimal
		if item.Variant != nil {
			available = catalog.Available(*item.Variant)
			weight = item.Variant.Weight
		}
		view.Items = append(view.Items, newItemView(item, available))
		lines = append(lines, pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity, Weight: weight})
	}
	view.TotalItems = lo.SumBy(cart.Items, func(item models.CartItem) int { return item.Quantity })
	view.Subtotal = pricing.Subtotal(lines)
	view.TotalWeight = pricing.TotalWeight(lines)
	return view
}

func validationError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]string{field: message})
}
