package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
)

const (
	defaultPendingOrderTTL = 24 * time.Hour
	defaultBatchSize       = 100

	// StaleOrderNote is recorded on the history row of an auto-cancelled order.
	StaleOrderNote = "Cancelled automatically: payment not received"
)

type pendingOrderExpirer interface {
	StalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	ExpirePending(ctx context.Context, orderID uuid.UUID, cutoff time.Time, note string) (bool, error)
}

// StaleOrderJobParams configure the pending order expiry job.
type StaleOrderJobParams struct {
	Logger    *logger.Logger
	Orders    pendingOrderExpirer
	TTL       time.Duration
	BatchSize int
}

// NewStaleOrderJob builds the job that cancels orders left unpaid past TTL.
// Each order is cancelled in its own transaction and its stock restored.
func NewStaleOrderJob(params StaleOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &staleOrderJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    ttl,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type staleOrderJob struct {
	logg   *logger.Logger
	orders pendingOrderExpirer
	ttl    time.Duration
	batch  int
	now    func() time.Time
}

func (j *staleOrderJob) Name() string { return "stale-pending-orders" }

func (j *staleOrderJob) Run(ctx context.Context) (int, error) {
	cutoff := j.now().UTC().Add(-j.ttl)
	seen := make(map[uuid.UUID]struct{})
	expired := 0
	var errs error

	for ctx.Err() == nil {
		rows, err := j.orders.StalePending(ctx, cutoff, j.batch)
		if err != nil {
			return expired, multierr.Append(errs, fmt.Errorf("query stale orders: %w", err))
		}
		fresh := 0
		for _, order := range rows {
			if _, ok := seen[order.ID]; ok {
				continue
			}
			seen[order.ID] = struct{}{}
			fresh++

			ok, err := j.orders.ExpirePending(ctx, order.ID, cutoff, StaleOrderNote)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.OrderNumber, err))
				continue
			}
			if ok {
				expired++
				j.logg.Info(j.logg.WithOrderNumber(ctx, order.OrderNumber), "stale order cancelled")
			}
		}
		if fresh == 0 || len(rows) < j.batch {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": expired,
		"failed":  len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "stale order sweep complete")
	return expired, errs
}
