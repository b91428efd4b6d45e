package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

const PaymentMethodPhonePe = "phonepe"

const (
	TargetEvent    = "event"
	TargetAudition = "audition"
)

type PaymentOrder struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID         string          `gorm:"not null;index:idx_payment_orders_owner,priority:2" json:"user_id"`
	EventID        *uuid.UUID      `gorm:"type:uuid;index;check:chk_payment_orders_target,(event_id IS NULL) <> (audition_id IS NULL)" json:"event_id,omitempty"`
	AuditionID     *uuid.UUID      `gorm:"type:uuid;index" json:"audition_id,omitempty"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency       string          `gorm:"type:char(3);not null" json:"currency"`
	Status         PaymentStatus   `gorm:"type:varchar(16);not null;default:'pending';index:idx_payment_orders_sweep,priority:1" json:"status"`
	GatewayOrderID string          `gorm:"not null;uniqueIndex;index:idx_payment_orders_owner,priority:1" json:"gateway_order_id"`
	TransactionID  *string         `json:"transaction_id,omitempty"`
	PaymentMethod  string          `gorm:"not null" json:"payment_method"`
	PaymentURL     string          `json:"-"`
	CreatedAt      time.Time       `gorm:"index:idx_payment_orders_sweep,priority:2" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (order *PaymentOrder) BeforeCreate(tx *gorm.DB) (err error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return
}

// Target returns the kind and id of the item being paid for.
func (order *PaymentOrder) Target() (string, uuid.UUID) {
	if order.EventID != nil {
		return TargetEvent, *order.EventID
	}
	if order.AuditionID != nil {
		return TargetAudition, *order.AuditionID
	}
	return "", uuid.Nil
}
