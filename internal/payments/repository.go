package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farellandr/castingcall/internal/messaging"
	"github.com/farellandr/castingcall/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TargetEvent    = models.TargetEvent
	TargetAudition = models.TargetAudition

	SourceWebhook   = "webhook"
	SourceVerify    = "verify"
	SourceReconcile = "reconcile"
)

// Target is the event or audition an order pays for.
type Target struct {
	Kind    string    `json:"kind"`
	ID      uuid.UUID `json:"id"`
	Title   string    `json:"title"`
	OwnerID string    `json:"owner_id"`
}

// Transition is a guarded status write. It only applies to an order that is
// still pending. UserID, when set, restricts the write to that owner.
type Transition struct {
	GatewayOrderID string
	UserID         string
	Status         models.PaymentStatus
	TransactionID  string
	Source         string
	At             time.Time
}

type Repository interface {
	FindTarget(ctx context.Context, kind string, id uuid.UUID) (*Target, error)
	Create(ctx context.Context, order *models.PaymentOrder) error
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentOrder, error)
	FindOwned(ctx context.Context, gatewayOrderID, userID string) (*models.PaymentOrder, error)
	// Transition applies t and returns the order as stored afterwards. The
	// boolean reports whether the write changed the row; false means the
	// order was already terminal.
	Transition(ctx context.Context, t Transition) (*models.PaymentOrder, bool, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]models.PaymentOrder, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) FindTarget(ctx context.Context, kind string, id uuid.UUID) (*Target, error) {
	db := r.db.WithContext(ctx)

	switch kind {
	case TargetEvent:
		var event models.Event
		if err := db.First(&event, "id = ?", id).Error; err != nil {
			return nil, notFound(err)
		}
		return &Target{Kind: kind, ID: event.ID, Title: event.Title, OwnerID: event.OrganizerID}, nil
	case TargetAudition:
		var audition models.Audition
		if err := db.First(&audition, "id = ?", id).Error; err != nil {
			return nil, notFound(err)
		}
		return &Target{Kind: kind, ID: audition.ID, Title: audition.Title, OwnerID: audition.RecruiterID}, nil
	default:
		return nil, invalid(fmt.Sprintf("unknown target kind %q", kind))
	}
}

func (r *GormRepository) Create(ctx context.Context, order *models.PaymentOrder) error {
	err := r.db.WithContext(ctx).Create(order).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateOrderID
	}
	return err
}

func (r *GormRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error; err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *GormRepository) FindOwned(ctx context.Context, gatewayOrderID, userID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := r.db.WithContext(ctx).
		Where("gateway_order_id = ? AND user_id = ?", gatewayOrderID, userID).
		First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (r *GormRepository) Transition(ctx context.Context, t Transition) (*models.PaymentOrder, bool, error) {
	if t.At.IsZero() {
		t.At = time.Now()
	}

	var (
		order   models.PaymentOrder
		applied bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":     string(t.Status),
			"updated_at": t.At,
		}
		if t.TransactionID != "" {
			updates["transaction_id"] = t.TransactionID
		}

		res := scoped(tx.Model(&models.PaymentOrder{}), t).
			Where("status = ?", string(models.PaymentPending)).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update payment order: %w", res.Error)
		}

		if err := scoped(tx, t).First(&order).Error; err != nil {
			return notFound(err)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		if !t.Status.IsTerminal() {
			return nil
		}

		msg, err := messaging.NewOutboxMessage(paymentEvent(&order, t))
		if err != nil {
			return err
		}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("insert outbox row: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &order, applied, nil
}

func (r *GormRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]models.PaymentOrder, error) {
	var orders []models.PaymentOrder
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(models.PaymentPending), before).
		Order("created_at").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func scoped(db *gorm.DB, t Transition) *gorm.DB {
	db = db.Where("gateway_order_id = ?", t.GatewayOrderID)
	if t.UserID != "" {
		db = db.Where("user_id = ?", t.UserID)
	}
	return db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func paymentEvent(order *models.PaymentOrder, t Transition) messaging.PaymentEvent {
	evt := messaging.PaymentEvent{
		Type:           messaging.EventPaymentFailed,
		OrderID:        order.ID.String(),
		GatewayOrderID: order.GatewayOrderID,
		UserID:         order.UserID,
		EventRef:       order.EventID,
		AuditionRef:    order.AuditionID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		Status:         string(order.Status),
		Source:         t.Source,
		OccurredAt:     t.At.UTC(),
	}
	if order.Status == models.PaymentSuccess {
		evt.Type = messaging.EventPaymentSucceeded
	}
	if order.TransactionID != nil {
		evt.TransactionID = *order.TransactionID
	}
	return evt
}
