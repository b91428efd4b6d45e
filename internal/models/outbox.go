package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxSent       OutboxStatus = "sent"
)

// OutboxMessage is a payment event written in the same transaction as the
// status change it describes.
type OutboxMessage struct {
	ID        uint64         `gorm:"primaryKey"`
	EventID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	EventType string         `gorm:"type:varchar(64);not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	Status    OutboxStatus   `gorm:"type:varchar(16);not null;default:'pending';index:idx_payment_outbox_ready,priority:1"`
	Attempts  int            `gorm:"not null"`
	NextRetry *time.Time     `gorm:"index:idx_payment_outbox_ready,priority:2"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OutboxMessage) TableName() string { return "payment_outbox" }
