package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nexus-commerce/pkg/errors"
)

// Service exposes the read-only catalog lookups served over HTTP.
type Service interface {
	ListShippingMethods(ctx context.Context) ([]models.ShippingMethod, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	GetVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListShippingMethods(ctx context.Context) ([]models.ShippingMethod, error) {
	methods, err := s.repo.ListActiveShippingMethods(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping methods")
	}
	return methods, nil
}

func (s *service) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	methods, err := s.repo.ListActivePaymentMethods(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	return methods, nil
}

func (s *service) GetVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	variant, err := s.repo.FindVariant(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
	}
	return variant, nil
}

// ActiveShippingMethod loads a shipping method usable for checkout.
func ActiveShippingMethod(ctx context.Context, repo Repository, id uuid.UUID) (*models.ShippingMethod, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidShippingMethod, "shipping method required")
	}
	method, err := repo.FindShippingMethod(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidShippingMethod, "shipping method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping method")
	}
	if !method.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidShippingMethod, "shipping method is not active")
	}
	return method, nil
}

// ActivePaymentMethod loads a payment method that currently accepts payments.
func ActivePaymentMethod(ctx context.Context, repo Repository, id uuid.UUID) (*models.PaymentMethod, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidPaymentMethod, "payment method required")
	}
	method, err := repo.FindPaymentMethod(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidPaymentMethod, "payment method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	if !method.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidPaymentMethod, "payment method is not active")
	}
	return method, nil
}
