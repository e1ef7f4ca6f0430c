package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-commerce/internal/catalog"
	"github.com/angelmondragon/nexus-commerce/pkg/db"
	"github.com/angelmondragon/nexus-commerce/pkg/db/dbtest"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox/payloads"
	"github.com/angelmondragon/nexus-commerce/pkg/outbox/registry"
)

func newLowStockAlertJob(t *testing.T, client *db.Client, batch int, now time.Time) *lowStockAlertJob {
	t.Helper()
	conn := client.DB()
	jobIface, err := NewLowStockAlertJob(LowStockAlertJobParams{
		Logger:    logger.Nop(),
		DB:        client,
		Catalog:   catalog.NewRepository(conn),
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		BatchSize: batch,
	})
	if err != nil {
		t.Fatalf("NewLowStockAlertJob: %v", err)
	}
	job := jobIface.(*lowStockAlertJob)
	job.now = func() time.Time { return now }
	return job
}

func lowStockEvents(t *testing.T, client *db.Client) map[uuid.UUID]payloads.LowStockEvent {
	t.Helper()
	var rows []models.OutboxEvent
	if err := client.DB().Where("event_type = ?", enums.EventVariantLowStock).Find(&rows).Error; err != nil {
		t.Fatalf("load outbox: %v", err)
	}
	reg := registry.NewEventRegistry()
	out := make(map[uuid.UUID]payloads.LowStockEvent, len(rows))
	for _, row := range rows {
		resolved, err := reg.Resolve(row)
		if err != nil {
			t.Fatalf("resolve %s: %v", row.ID, err)
		}
		payload, ok := resolved.Payload.(*payloads.LowStockEvent)
		if !ok {
			t.Fatalf("unexpected payload %T", resolved.Payload)
		}
		out[payload.VariantID] = *payload
	}
	return out
}

func TestLowStockAlertJobAlertsEachVariantOncePerInterval(t *testing.T) {
	client := dbtest.NewSQLite(t)
	conn := client.DB()
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

	low := dbtest.CreateVariant(t, conn, dbtest.VariantSpec{Stock: 2, LowStockThreshold: 5})
	atThreshold := dbtest.CreateVariant(t, conn, dbtest.VariantSpec{Stock: 3, LowStockThreshold: 3})
	healthy := dbtest.CreateVariant(t, conn, dbtest.VariantSpec{Stock: 10, LowStockThreshold: 5})
	inactive := dbtest.CreateVariant(t, conn, dbtest.VariantSpec{Stock: 1, LowStockThreshold: 5, Inactive: true})
	recent := dbtest.CreateVariant(t, conn, dbtest.VariantSpec{Stock: 1, LowStockThreshold: 5})
	overdue := dbtest.CreateVariant(t, conn, dbtest.VariantSpec{Stock: 0, LowStockThreshold: 4})
	for variant, alertedAt := range map[uuid.UUID]time.Time{
		recent.ID:  now.Add(-2 * time.Hour),
		overdue.ID: now.Add(-30 * time.Hour),
	} {
		if err := conn.Model(&models.ProductVariant{}).Where("id = ?", variant).Update("low_stock_alerted_at", alertedAt).Error; err != nil {
			t.Fatalf("seed alerted_at: %v", err)
		}
	}

	job := newLowStockAlertJob(t, client, 2, now)
	alerted, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if alerted != 3 {
		t.Fatalf("expected 3 alerts, got %d", alerted)
	}

	events := lowStockEvents(t, client)
	if len(events) != 3 {
		t.Fatalf("expected 3 low stock events, got %d", len(events))
	}
	for _, id := range []uuid.UUID{healthy.ID, inactive.ID, recent.ID} {
		if _, ok := events[id]; ok {
			t.Fatalf("variant %s should not be alerted", id)
		}
	}
	got, ok := events[low.ID]
	if !ok {
		t.Fatalf("missing event for variant %s", low.SKU)
	}
	if got.VendorID != low.Product.VendorID || got.StockQuantity != 2 || got.LowStockThreshold != 5 || got.SKU != low.SKU {
		t.Fatalf("unexpected payload %+v", got)
	}
	if _, ok := events[atThreshold.ID]; !ok {
		t.Fatalf("variant at its threshold should be alerted")
	}

	var stamped models.ProductVariant
	if err := conn.First(&stamped, "id = ?", overdue.ID).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	if stamped.LowStockAlertedAt == nil || !stamped.LowStockAlertedAt.Equal(now) {
		t.Fatalf("expected alerted_at %s, got %v", now, stamped.LowStockAlertedAt)
	}

	again, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected no repeat alerts inside the interval, got %d", again)
	}

	job.now = func() time.Time { return now.Add(25 * time.Hour) }
	later, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run after interval: %v", err)
	}
	if later != 4 {
		t.Fatalf("expected 4 alerts after the interval, got %d", later)
	}
}

func TestNewLowStockAlertJobRequiresDeps(t *testing.T) {
	client := dbtest.NewSQLite(t)
	if _, err := NewLowStockAlertJob(LowStockAlertJobParams{Logger: logger.Nop(), DB: client}); err == nil {
		t.Fatal("expected error without catalog repository")
	}
	if _, err := NewLowStockAlertJob(LowStockAlertJobParams{
		Logger:  logger.Nop(),
		DB:      client,
		Catalog: catalog.NewRepository(client.DB()),
	}); err == nil {
		t.Fatal("expected error without outbox emitter")
	}
}
