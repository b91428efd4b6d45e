package server

import (
	"context"
	"fmt"
	"time"

	"github.com/farellandr/castingcall/internal/messaging"
	"github.com/farellandr/castingcall/internal/payments"
	"github.com/rs/zerolog"
)

// StartOutbox begins publishing payment events when a broker is configured.
func (a *App) StartOutbox(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	if !a.Rabbit.Enabled() {
		logger.Info().Msg("RABBIT_URL not set, payment events stay in the outbox")
		return nil
	}

	publisher, err := messaging.NewRabbitPublisher(a.Rabbit.URL, a.Rabbit.Exchange)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	a.publisher = publisher

	dispatcher := messaging.NewOutboxDispatcher(
		messaging.NewGormOutboxStore(a.DB),
		publisher,
		a.Rabbit.OutboxInterval,
		a.Rabbit.OutboxBatch,
		*logger,
	)
	dispatcher.Start(ctx)
	return nil
}

// StartReconciler runs the stale order sweep on RECONCILE_INTERVAL.
func (a *App) StartReconciler(ctx context.Context) {
	if a.Server.ReconcileInterval <= 0 {
		return
	}
	go reconcileLoop(ctx, a.Service, a.Server.ReconcileInterval, a.Server.ReconcileAfter, a.Server.ReconcileBatch)
}

func reconcileLoop(ctx context.Context, svc *payments.Service, interval, staleAfter time.Duration, batch int) {
	logger := zerolog.Ctx(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Reconcile(ctx, staleAfter, batch); err != nil {
				logger.Error().Err(err).Msg("reconcile pass failed")
			}
		}
	}
}

// Reconcile runs a single sweep and returns its report.
func Reconcile(ctx context.Context, staleAfter time.Duration, batch int) (payments.ReconcileReport, error) {
	app, err := Load(ctx)
	if err != nil {
		return payments.ReconcileReport{}, err
	}
	defer app.Close()

	if staleAfter <= 0 {
		staleAfter = app.Server.ReconcileAfter
	}
	if batch <= 0 {
		batch = app.Server.ReconcileBatch
	}
	return app.Service.Reconcile(ctx, staleAfter, batch)
}
