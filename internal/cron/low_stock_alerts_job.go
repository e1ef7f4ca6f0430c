package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/internal/catalog"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox/payloads"
)

const defaultLowStockAlertInterval = 24 * time.Hour

// LowStockAlertJobParams configure the vendor low stock alert job.
type LowStockAlertJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Catalog   catalog.Repository
	Outbox    outbox.Emitter
	Interval  time.Duration
	BatchSize int
}

// NewLowStockAlertJob builds the job that queues a variant.low_stock event for
// every active variant at or below its threshold. A variant is alerted again
// only once Interval has passed since its last alert.
func NewLowStockAlertJob(params LowStockAlertJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultLowStockAlertInterval
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &lowStockAlertJob{
		logg:     params.Logger,
		db:       params.DB,
		catalog:  params.Catalog,
		outbox:   params.Outbox,
		interval: interval,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type lowStockAlertJob struct {
	logg     *logger.Logger
	db       txRunner
	catalog  catalog.Repository
	outbox   outbox.Emitter
	interval time.Duration
	batch    int
	now      func() time.Time
}

func (j *lowStockAlertJob) Name() string { return "low-stock-alerts" }

func (j *lowStockAlertJob) Run(ctx context.Context) (int, error) {
	now := j.now().UTC()
	cutoff := now.Add(-j.interval)
	seen := make(map[uuid.UUID]struct{})
	alerted := 0
	var errs error

	for ctx.Err() == nil {
		rows, err := j.catalog.ListLowStock(ctx, cutoff, j.batch)
		if err != nil {
			return alerted, multierr.Append(errs, fmt.Errorf("query low stock variants: %w", err))
		}
		fresh := 0
		for _, variant := range rows {
			if _, ok := seen[variant.ID]; ok {
				continue
			}
			seen[variant.ID] = struct{}{}
			fresh++

			ok, err := j.alert(ctx, variant, cutoff, now)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("alert variant %s: %w", variant.SKU, err))
				continue
			}
			if ok {
				alerted++
			}
		}
		if fresh == 0 || len(rows) < j.batch {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"alerted": alerted,
		"failed":  len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "low stock sweep complete")
	return alerted, errs
}

// alert stamps the variant and queues its event in one transaction.
func (j *lowStockAlertJob) alert(ctx context.Context, variant models.ProductVariant, cutoff, now time.Time) (bool, error) {
	if variant.Product == nil {
		return false, fmt.Errorf("product not loaded")
	}
	marked := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := j.catalog.WithTx(tx).MarkLowStockAlerted(ctx, variant.ID, cutoff, now)
		if err != nil || !ok {
			return err
		}
		marked = true
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVariantLowStock,
			AggregateType: enums.AggregateVariant,
			AggregateID:   variant.ID,
			OccurredAt:    now,
			Data: payloads.LowStockEvent{
				VariantID:         variant.ID,
				ProductID:         variant.ProductID,
				VendorID:          variant.Product.VendorID,
				ProductName:       variant.Product.Name,
				VariantName:       variant.Name,
				SKU:               variant.SKU,
				StockQuantity:     variant.StockQuantity,
				LowStockThreshold: variant.LowStockThreshold,
			},
		})
	})
	if err != nil {
		return false, err
	}
	return marked, nil
}
