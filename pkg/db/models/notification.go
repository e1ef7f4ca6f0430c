package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/nexus-commerce/pkg/enums"
)

// Notification stores in-app notifications addressed to a customer.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"column:type;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Message   string                 `gorm:"column:message;not null"`
	OrderID   *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	PaymentID *uuid.UUID             `gorm:"column:payment_id;type:uuid"`
	EventID   *uuid.UUID             `gorm:"column:event_id;type:uuid;uniqueIndex:ux_notifications_event_type,priority:1"`
	EventKind *string                `gorm:"column:event_kind;uniqueIndex:ux_notifications_event_type,priority:2"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime;index"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
