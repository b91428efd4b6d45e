package messaging

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// PaymentEvent is published once per order when it reaches a terminal status.
type PaymentEvent struct {
	EventID        string          `json:"event_id"`
	Type           string          `json:"type"`
	OrderID        string          `json:"order_id"`
	GatewayOrderID string          `json:"gateway_order_id"`
	UserID         string          `json:"user_id"`
	EventRef       *uuid.UUID      `json:"event_ref,omitempty"`
	AuditionRef    *uuid.UUID      `json:"audition_ref,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	Source         string          `json:"source"`
	OccurredAt     time.Time       `json:"occurred_at"`
}
