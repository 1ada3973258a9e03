package services

import (
	"context"

	"contas/internal/storage"
)

const defaultAuditLimit = 100

// AuditService reads the append-only audit trail the worker maintains.
type AuditService struct {
	storage *storage.SQLiteRepository
}

func NewAuditService(repo *storage.SQLiteRepository) *AuditService {
	return &AuditService{storage: repo}
}

// History returns the account's most recent audit events, newest first.
// A non-positive or oversized limit falls back to the default page size.
func (s *AuditService) History(ctx context.Context, accountID string, limit int) ([]storage.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultAuditLimit
	}
	return s.storage.ListAuditEvents(ctx, accountID, limit)
}
