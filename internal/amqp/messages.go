package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds published on the ledger stream.
const (
	EventBillCreated    = "bill.created"
	EventBillDeleted    = "bill.deleted"
	EventInvoicePaid    = "invoice.paid"
	EventInvoiceReset   = "invoice.reset"
	EventEntryPersisted = "bank_entry.persisted"
)

// LedgerEvent is a lightweight notification of a ledger mutation, consumed
// by the audit worker. It never carries enough data to replay the mutation
// itself.
type LedgerEvent struct {
	Kind        string    `json:"kind"`
	AccountID   string    `json:"account_id"`
	EntityID    string    `json:"entity_id"`
	Reference   string    `json:"reference,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind, accountID, entityID, reference string, amountCents int64, at time.Time) *LedgerEvent {
	return &LedgerEvent{
		Kind:        kind,
		AccountID:   accountID,
		EntityID:    entityID,
		Reference:   reference,
		AmountCents: amountCents,
		Timestamp:   at.UTC(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
