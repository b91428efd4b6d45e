package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/farellandr/castingcall/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutboxStore is the persistence side of the dispatcher.
type OutboxStore interface {
	ClaimBatch(ctx context.Context, limit int, lease time.Duration) ([]models.OutboxMessage, error)
	MarkSent(ctx context.Context, id uint64) error
	MarkRetry(ctx context.Context, id uint64, nextRetry time.Time) error
}

// NewOutboxMessage serialises evt into an outbox row, assigning an event id
// when evt has none.
func NewOutboxMessage(evt PaymentEvent) (models.OutboxMessage, error) {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	eventID, err := uuid.Parse(evt.EventID)
	if err != nil {
		return models.OutboxMessage{}, fmt.Errorf("parse event id: %w", err)
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return models.OutboxMessage{}, fmt.Errorf("marshal payment event: %w", err)
	}

	return models.OutboxMessage{
		EventID:   eventID,
		EventType: evt.Type,
		Payload:   datatypes.JSON(payload),
		Status:    models.OutboxPending,
	}, nil
}

type GormOutboxStore struct {
	db *gorm.DB
}

func NewGormOutboxStore(db *gorm.DB) *GormOutboxStore {
	return &GormOutboxStore{db: db}
}

// ClaimBatch leases up to limit ready rows. Rows whose lease expired are
// claimed again.
func (s *GormOutboxStore) ClaimBatch(ctx context.Context, limit int, lease time.Duration) ([]models.OutboxMessage, error) {
	var rows []models.OutboxMessage

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(status = ? AND (next_retry IS NULL OR next_retry <= ?)) OR (status = ? AND next_retry <= ?)",
				string(models.OutboxPending), now, string(models.OutboxProcessing), now).
			Order("id").
			Limit(limit).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("query outbox: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]uint64, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}

		return tx.Model(&models.OutboxMessage{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":     string(models.OutboxProcessing),
				"next_retry": now.Add(lease),
				"updated_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormOutboxStore) MarkSent(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(models.OutboxSent),
			"updated_at": time.Now(),
		}).Error
}

func (s *GormOutboxStore) MarkRetry(ctx context.Context, id uint64, nextRetry time.Time) error {
	return s.db.WithContext(ctx).Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(models.OutboxPending),
			"attempts":   gorm.Expr("attempts + 1"),
			"next_retry": nextRetry,
			"updated_at": time.Now(),
		}).Error
}
