package messaging

import (
	"context"
	"time"

	"github.com/farellandr/castingcall/internal/metrics"
	"github.com/farellandr/castingcall/internal/models"
	"github.com/rs/zerolog"
)

const (
	leaseDuration  = 30 * time.Second
	publishTimeout = 5 * time.Second
)

type OutboxDispatcher struct {
	store     OutboxStore
	publisher Publisher
	interval  time.Duration
	batchSize int
	logger    zerolog.Logger
}

func NewOutboxDispatcher(store OutboxStore, publisher Publisher, interval time.Duration, batch int, logger zerolog.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batchSize: batch,
		logger:    logger.With().Str("component", "outbox").Logger(),
	}
}

func (d *OutboxDispatcher) Start(ctx context.Context) {
	go d.loop(ctx)
}

func (d *OutboxDispatcher) loop(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if _, err := d.Dispatch(ctx); err != nil {
			d.logger.Error().Err(err).Msg("outbox dispatch failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Dispatch publishes one batch and returns how many rows were sent.
func (d *OutboxDispatcher) Dispatch(ctx context.Context) (int, error) {
	rows, err := d.store.ClaimBatch(ctx, d.batchSize, leaseDuration)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, row := range rows {
		if err := d.publishOne(ctx, row); err != nil {
			d.logger.Warn().Err(err).Uint64("row_id", row.ID).Str("event_type", row.EventType).Msg("publish event failed")
			continue
		}
		sent++
	}
	return sent, nil
}

func (d *OutboxDispatcher) publishOne(ctx context.Context, row models.OutboxMessage) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(pubCtx, row.EventType, row.Payload); err != nil {
		metrics.OutboxPublished.WithLabelValues("failed").Inc()
		if markErr := d.store.MarkRetry(ctx, row.ID, time.Now().Add(retryDelay(row.Attempts+1))); markErr != nil {
			d.logger.Error().Err(markErr).Uint64("row_id", row.ID).Msg("schedule outbox retry")
		}
		return err
	}

	metrics.OutboxPublished.WithLabelValues("sent").Inc()
	return d.store.MarkSent(ctx, row.ID)
}

func retryDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 6 {
		attempts = 6
	}
	delay := time.Duration(1<<attempts) * time.Second
	if delay > time.Minute {
		delay = time.Minute
	}
	return delay
}
