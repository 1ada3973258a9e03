package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/amqp"
	"contas/internal/storage"
)

// AuditWorker consumes ledger events and records them in the audit log.
type AuditWorker struct {
	storage *storage.SQLiteRepository
}

func NewAuditWorker(repo *storage.SQLiteRepository) *AuditWorker {
	return &AuditWorker{storage: repo}
}

// HandleEvent records a single ledger event.
func (w *AuditWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"kind", event.Kind,
		"entity_id", event.EntityID)

	e := storage.AuditEvent{
		Kind:        event.Kind,
		AccountID:   event.AccountID,
		EntityID:    event.EntityID,
		Reference:   event.Reference,
		AmountCents: event.AmountCents,
		OccurredAt:  event.Timestamp,
		RecordedAt:  time.Now().UTC(),
	}
	if err := w.storage.InsertAuditEvent(ctx, e); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
