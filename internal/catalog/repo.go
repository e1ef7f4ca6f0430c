package catalog

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).Preload("Product").Where("id = ?", id).First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// LockVariants row-locks the distinct variants in ascending id order so that
// overlapping checkouts always acquire locks in the same sequence.
func (r *repository) LockVariants(ctx context.Context, ids []uuid.UUID) ([]models.ProductVariant, error) {
	ids = SortedIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	var variants []models.ProductVariant
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Product").
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&variants).Error
	if err != nil {
		return nil, err
	}
	return variants, nil
}

// DecrementStock subtracts qty only while enough stock remains. It reports
// false when the guard rejected the update.
func (r *repository) DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ? AND stock_quantity >= ?", variantID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) RestoreStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty)).Error
}

// ListLowStock returns active variants at or below their threshold that were
// never alerted or last alerted before alertedBefore.
func (r *repository) ListLowStock(ctx context.Context, alertedBefore time.Time, limit int) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := lowStockScope(r.db.WithContext(ctx), alertedBefore).
		Preload("Product").
		Order("stock_quantity ASC").
		Order("id ASC").
		Limit(limit).
		Find(&variants).Error
	return variants, err
}

// MarkLowStockAlerted stamps the alert time while the variant still
// qualifies. It reports false when another run got there first or stock
// recovered.
func (r *repository) MarkLowStockAlerted(ctx context.Context, variantID uuid.UUID, alertedBefore, at time.Time) (bool, error) {
	res := lowStockScope(r.db.WithContext(ctx).Model(&models.ProductVariant{}), alertedBefore).
		Where("id = ?", variantID).
		Update("low_stock_alerted_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func lowStockScope(query *gorm.DB, alertedBefore time.Time) *gorm.DB {
	return query.
		Where("is_active = ?", true).
		Where("stock_quantity <= low_stock_threshold").
		Where("(low_stock_alerted_at IS NULL OR low_stock_alerted_at < ?)", alertedBefore)
}

func (r *repository) FindShippingMethod(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error) {
	var method models.ShippingMethod
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) ListActiveShippingMethods(ctx context.Context) ([]models.ShippingMethod, error) {
	var methods []models.ShippingMethod
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("base_cost ASC").
		Order("name ASC").
		Find(&methods).Error
	return methods, err
}

func (r *repository) FindPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) ListActivePaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&methods).Error
	return methods, err
}

// SortedIDs returns the distinct ids in the order rows are locked in.
func SortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := lo.Uniq(lo.Filter(ids, func(id uuid.UUID, _ int) bool { return id != uuid.Nil }))
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Restorer adapts the repository for callers that already hold a transaction.
type Restorer struct {
	repo Repository
}

// NewRestorer builds a stock restorer over repo.
func NewRestorer(repo Repository) *Restorer {
	return &Restorer{repo: repo}
}

func (r *Restorer) RestoreStock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	return r.repo.WithTx(tx).RestoreStock(ctx, variantID, qty)
}
