package storage

import (
	"context"
	"fmt"
	"time"
)

// AuditEvent is one row of the append-only audit trail fed by the worker.
type AuditEvent struct {
	ID          int64
	AccountID   string
	Kind        string
	EntityID    string
	Reference   string
	AmountCents int64
	OccurredAt  time.Time
	RecordedAt  time.Time
}

func (r *SQLiteRepository) InsertAuditEvent(ctx context.Context, e AuditEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_event (account_id, kind, entity_id, reference, amount_cents, occurred_at, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.AccountID, e.Kind, e.EntityID, e.Reference, e.AmountCents,
		fmtTime(e.OccurredAt), fmtTime(e.RecordedAt))
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListAuditEvents(ctx context.Context, accountID string, limit int) ([]AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, kind, entity_id, reference, amount_cents, occurred_at, recorded_at
		 FROM audit_event WHERE account_id = ? ORDER BY id DESC LIMIT ?`,
		accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var occurredAt, recordedAt string
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Kind, &e.EntityID, &e.Reference,
			&e.AmountCents, &occurredAt, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.OccurredAt = parseTime(occurredAt)
		e.RecordedAt = parseTime(recordedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
