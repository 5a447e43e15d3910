// Package worker runs the background side of the system: persisting the
// expense event audit trail and periodically exporting the admin rollup.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendsight/internal/amqp"
	"spendsight/internal/core"
	"spendsight/internal/storage"
)

// RollupExporter ships the per-user rollup somewhere external.
type RollupExporter interface {
	ExportRollups(ctx context.Context, rollups []core.UserRollup) error
}

// AuditWorker records expense events from the bus into the audit table
// and, when an exporter is configured, ships the user rollup on a timer.
type AuditWorker struct {
	storage  *storage.SQLiteRepository
	exporter RollupExporter
}

func NewAuditWorker(storage *storage.SQLiteRepository, exporter RollupExporter) *AuditWorker {
	return &AuditWorker{
		storage:  storage,
		exporter: exporter,
	}
}

// HandleEvent records one expense event. Redelivered events with a known
// event id are recorded once; the insert is idempotent.
func (w *AuditWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	event := storage.ExpenseEvent{
		EventID:     msg.EventID,
		ExpenseID:   msg.ExpenseID,
		UserID:      msg.UserID,
		Action:      msg.Action,
		AmountCents: msg.AmountCents,
		Category:    msg.Category,
		OccurredAt:  msg.OccurredAt,
	}

	if err := w.storage.RecordExpenseEvent(ctx, event); err != nil {
		return fmt.Errorf("record expense event: %w", err)
	}

	slog.InfoContext(ctx, "Recorded expense event",
		"event_id", msg.EventID,
		"expense_id", msg.ExpenseID,
		"user_id", msg.UserID,
		"action", msg.Action)

	return nil
}

// ExportRollups runs one rollup export cycle.
func (w *AuditWorker) ExportRollups(ctx context.Context) error {
	if w.exporter == nil {
		return nil
	}

	rollups, err := w.storage.UserRollups(ctx)
	if err != nil {
		return fmt.Errorf("load rollups: %w", err)
	}

	if err := w.exporter.ExportRollups(ctx, rollups); err != nil {
		return fmt.Errorf("export rollups: %w", err)
	}

	return nil
}

// RunPeriodicExport exports the rollup on the given interval until the
// context is cancelled. Export failures are logged and retried on the next
// tick.
func (w *AuditWorker) RunPeriodicExport(ctx context.Context, interval time.Duration) {
	if w.exporter == nil {
		slog.InfoContext(ctx, "No rollup exporter configured, skipping periodic export")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Starting periodic rollup export", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic rollup export", "reason", ctx.Err())
			return
		case <-ticker.C:
			if err := w.ExportRollups(ctx); err != nil {
				slog.ErrorContext(ctx, "Rollup export failed", "error", err)
			}
		}
	}
}
