package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nexus-commerce/internal/notifications"
	"github.com/angelmondragon/nexus-commerce/pkg/db/dbtest"
	"github.com/angelmondragon/nexus-commerce/pkg/db/models"
	"github.com/angelmondragon/nexus-commerce/pkg/enums"
	"github.com/angelmondragon/nexus-commerce/pkg/logger"
)

func TestNotificationCleanupJobDeletesOldReadNotifications(t *testing.T) {
	client := dbtest.NewSQLite(t)
	conn := client.DB()
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	userID := uuid.New()

	longAgo := now.Add(-60 * 24 * time.Hour)
	recently := now.Add(-24 * time.Hour)
	for _, readAt := range []*time.Time{&longAgo, &recently, nil} {
		row := models.Notification{
			UserID:  userID,
			Type:    enums.NotificationOrderShipped,
			Title:   "Your order has been shipped",
			Message: "On its way.",
			ReadAt:  readAt,
		}
		if err := conn.Create(&row).Error; err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}

	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     logger.Nop(),
		Repository: notifications.NewRepository(conn),
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	job := jobIface.(*notificationCleanupJob)
	job.now = func() time.Time { return now }

	affected, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 deleted, got %d", affected)
	}
	var remaining int64
	if err := conn.Model(&models.Notification{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("expected 2 notifications left, got %d", remaining)
	}
}

func TestNewNotificationCleanupJobRequiresRepository(t *testing.T) {
	if _, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected error")
	}
}
