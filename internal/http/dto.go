package http

import (
	"time"

	"contas/internal/core"
	"contas/internal/services"
	"contas/internal/storage"
)

type accountDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

type billDTO struct {
	ID                     string     `json:"id"`
	Type                   string     `json:"type"`
	Description            string     `json:"description"`
	Amount                 core.Money `json:"amount"`
	BuyDate                string     `json:"buyDate"`
	BillDate               string     `json:"billDate"`
	CardID                 string     `json:"card,omitempty"`
	CategoryID             string     `json:"category,omitempty"`
	RootBillID             string     `json:"rootBill,omitempty"`
	Installments           int        `json:"installments,omitempty"`
	InstallmentIndex       int        `json:"installmentIndex,omitempty"`
	Paid                   bool       `json:"paid"`
	PaidDate               string     `json:"paidDate,omitempty"`
	Active                 bool       `json:"active"`
	GeneratedViaRecurrence bool       `json:"generatedViaRecurrence,omitempty"`
	Tags                   []tagDTO   `json:"tags"`
}

type cardDTO struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	AmountLimit core.Money `json:"amountLimit"`
	CloseDay    int        `json:"closeDay"`
	PayDay      int        `json:"payDay"`
	Status      string     `json:"status,omitempty"`
	AmountUsed  core.Money `json:"amountUsed"`
}

type receiptDTO struct {
	ID          string     `json:"id"`
	Reference   string     `json:"reference"`
	TotalAmount core.Money `json:"totalAmount"`
	Paid        bool       `json:"paid"`
	PaidAmount  core.Money `json:"paidAmount"`
	PaymentDate string     `json:"paymentDate,omitempty"`
	BankAccount string     `json:"bankAccount,omitempty"`
	Debited     bool       `json:"debited"`
}

type invoiceDTO struct {
	Card    string      `json:"card"`
	Ref     string      `json:"ref"`
	Status  string      `json:"status"`
	Total   core.Money  `json:"total"`
	Bills   []billDTO   `json:"bills"`
	Receipt *receiptDTO `json:"receipt,omitempty"`
}

type bankAccountDTO struct {
	ID      string     `json:"id"`
	Label   string     `json:"label"`
	Balance core.Money `json:"balance"`
	Entries []entryDTO `json:"entries,omitempty"`
}

type entryDTO struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Amount      core.Money `json:"amount"`
	Description string     `json:"description,omitempty"`
	BillID      string     `json:"bill,omitempty"`
	ReceiptID   string     `json:"receipt,omitempty"`
	CreatedAt   string     `json:"createdAt"`
}

type tagDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type categoryDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type auditEventDTO struct {
	ID         int64  `json:"id"`
	Kind       string `json:"kind"`
	EntityID   string `json:"entity,omitempty"`
	Reference  string `json:"reference,omitempty"`
	Amount     string `json:"amount"`
	OccurredAt string `json:"occurredAt"`
	RecordedAt string `json:"recordedAt"`
}

type upcomingInvoiceDTO struct {
	Card    string     `json:"card"`
	Label   string     `json:"label"`
	PayDate string     `json:"payDate"`
	Total   core.Money `json:"total"`
	Bills   []billDTO  `json:"bills"`
}

func toBillDTO(b core.Bill) billDTO {
	dto := billDTO{
		ID:                     b.ID,
		Type:                   string(b.Type),
		Description:            b.Description,
		Amount:                 b.Amount,
		BuyDate:                b.BuyDate.Format(dateLayout),
		BillDate:               b.BillDate.Format(dateLayout),
		CardID:                 b.CardID,
		CategoryID:             b.CategoryID,
		RootBillID:             b.RootBillID,
		Installments:           b.Installments,
		InstallmentIndex:       b.InstallmentIndex,
		Paid:                   b.Paid,
		Active:                 b.Active,
		GeneratedViaRecurrence: b.GeneratedViaRecurrence,
		Tags:                   make([]tagDTO, 0, len(b.Tags)),
	}
	if b.PaidDate != nil {
		dto.PaidDate = b.PaidDate.Format(dateLayout)
	}
	for _, t := range b.Tags {
		dto.Tags = append(dto.Tags, tagDTO{ID: t.ID, Label: t.Label})
	}
	return dto
}

func toBillDTOs(bills []core.Bill) []billDTO {
	out := make([]billDTO, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBillDTO(b))
	}
	return out
}

func toReceiptDTO(rc *core.Receipt) *receiptDTO {
	if rc == nil {
		return nil
	}
	dto := &receiptDTO{
		ID:          rc.ID,
		Reference:   string(rc.Reference),
		TotalAmount: rc.TotalAmount,
		Paid:        rc.Paid,
		PaidAmount:  rc.PaidAmount,
		BankAccount: rc.BankAccountID,
		Debited:     rc.Debited,
	}
	if rc.PaymentDate != nil {
		dto.PaymentDate = rc.PaymentDate.Format(dateLayout)
	}
	return dto
}

func toInvoiceDTO(inv core.Invoice) invoiceDTO {
	return invoiceDTO{
		Card:    inv.Card.ID,
		Ref:     string(inv.Ref),
		Status:  string(inv.Status),
		Total:   inv.Total,
		Bills:   toBillDTOs(inv.Bills),
		Receipt: toReceiptDTO(inv.Receipt),
	}
}

func toCardDTO(c services.CardWithStatus) cardDTO {
	return cardDTO{
		ID:          c.ID,
		Label:       c.Label,
		AmountLimit: c.AmountLimit,
		CloseDay:    c.CloseDay,
		PayDay:      c.PayDay,
		Status:      string(c.Status),
		AmountUsed:  c.AmountUsed,
	}
}

func toEntryDTO(e core.BankAccountEntry) entryDTO {
	return entryDTO{
		ID:          e.ID,
		Type:        string(e.Type),
		Amount:      e.Amount,
		Description: e.Description,
		BillID:      e.BillID,
		ReceiptID:   e.ReceiptID,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

func toAuditEventDTO(e storage.AuditEvent) auditEventDTO {
	return auditEventDTO{
		ID:         e.ID,
		Kind:       e.Kind,
		EntityID:   e.EntityID,
		Reference:  e.Reference,
		Amount:     core.Money{Cents: e.AmountCents}.String(),
		OccurredAt: e.OccurredAt.Format(time.RFC3339),
		RecordedAt: e.RecordedAt.Format(time.RFC3339),
	}
}

func toBankAccountDTO(a services.BankAccountWithBalance) bankAccountDTO {
	dto := bankAccountDTO{
		ID:      a.ID,
		Label:   a.Label,
		Balance: a.Balance,
		Entries: make([]entryDTO, 0, len(a.Entries)),
	}
	for _, e := range a.Entries {
		dto.Entries = append(dto.Entries, toEntryDTO(e))
	}
	return dto
}
