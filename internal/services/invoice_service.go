package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/storage"
)

// InvoiceService derives invoices from bill windows and handles their
// settlement lifecycle: manual totals, payments and payment resets.
type InvoiceService struct {
	storage      *storage.SQLiteRepository
	bills        *BillService
	bankAccounts *BankAccountService
	events       *amqp.Client
	logger       *slog.Logger
	now          func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewInvoiceService(repo *storage.SQLiteRepository, bills *BillService, bankAccounts *BankAccountService, events *amqp.Client, logger *slog.Logger) *InvoiceService {
	return &InvoiceService{
		storage:      repo,
		bills:        bills,
		bankAccounts: bankAccounts,
		events:       events,
		logger:       logger,
		now:          time.Now,
		locks:        make(map[string]*sync.Mutex),
	}
}

// lock serializes settlement operations per (card, ref) so concurrent
// payments or resets on the same invoice cannot interleave.
func (s *InvoiceService) lock(cardID string, ref core.Ref) func() {
	key := cardID + "/" + string(ref)
	s.mu.Lock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// GetInvoice assembles the invoice of one card and reference month: the
// bills whose bill date falls inside the closing window, the stored
// receipt if any, the live total and the derived status.
func (s *InvoiceService) GetInvoice(ctx context.Context, accountID, cardID string, ref core.Ref) (core.Invoice, error) {
	if _, err := core.ParseRef(string(ref)); err != nil {
		return core.Invoice{}, err
	}
	card, err := s.storage.GetCard(ctx, accountID, cardID)
	if err != nil {
		return core.Invoice{}, err
	}
	from, to := core.InvoicePeriod(ref, card.CloseDay)
	bills, err := s.storage.ListInvoiceBills(ctx, accountID, cardID, from, to)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("loading invoice bills: %w", err)
	}

	var receipt *core.Receipt
	rc, err := s.storage.GetReceiptByRef(ctx, accountID, cardID, ref)
	switch {
	case err == nil:
		receipt = &rc
	case errors.Is(err, core.ErrNotFound):
	default:
		return core.Invoice{}, fmt.Errorf("loading receipt: %w", err)
	}

	var total core.Money
	for _, b := range bills {
		total = total.Add(b.Amount)
	}
	return core.Invoice{
		Card:    card,
		Ref:     ref,
		Bills:   bills,
		Total:   total,
		Receipt: receipt,
		Status:  core.StatusOf(to, receipt, total, s.now()),
	}, nil
}

// PersistManualAmount overrides the invoice total with a manually
// entered amount, creating the receipt when none exists yet. Saving the
// amount the invoice already carries is a no-op.
func (s *InvoiceService) PersistManualAmount(ctx context.Context, accountID, cardID string, ref core.Ref, amount core.Money) (core.Invoice, error) {
	if amount.Cents <= 0 {
		return core.Invoice{}, core.ErrInvalidAmount
	}
	unlock := s.lock(cardID, ref)
	defer unlock()

	inv, err := s.GetInvoice(ctx, accountID, cardID, ref)
	if err != nil {
		return core.Invoice{}, err
	}

	receipt := core.Receipt{AccountID: accountID, CardID: cardID, Reference: ref, TotalAmount: inv.Total}
	current := inv.Total
	if inv.Receipt != nil {
		receipt = *inv.Receipt
		current = receipt.TotalAmount
	}
	if current.Cents == amount.Cents {
		return inv, nil
	}
	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	receipt.TotalAmount = amount
	if err := s.storage.SaveReceipt(ctx, receipt); err != nil {
		return core.Invoice{}, fmt.Errorf("saving receipt: %w", err)
	}
	inv.Receipt = &receipt
	return inv, nil
}

// PersistPayment records the payment of one invoice. Overpayments can
// lift the invoice total, underpayments can spawn a remainder bill in
// the next period, and the bills of the window are marked paid either
// way. An optional bank account debit entry mirrors the payment.
func (s *InvoiceService) PersistPayment(ctx context.Context, accountID, cardID string, req core.PaymentRequest) (core.Invoice, error) {
	if err := req.Validate(); err != nil {
		return core.Invoice{}, err
	}
	unlock := s.lock(cardID, req.Ref)
	defer unlock()

	inv, err := s.GetInvoice(ctx, accountID, cardID, req.Ref)
	if err != nil {
		return core.Invoice{}, err
	}
	if req.BankAccountID != "" {
		if _, err := s.storage.GetBankAccount(ctx, accountID, req.BankAccountID); err != nil {
			return core.Invoice{}, fmt.Errorf("resolving bank account: %w", err)
		}
	}

	receipt := core.Receipt{AccountID: accountID, CardID: cardID, Reference: req.Ref, TotalAmount: inv.Total}
	if inv.Receipt != nil {
		receipt = *inv.Receipt
	}
	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	paymentDate := req.Date
	receipt.Paid = true
	receipt.PaidAmount = req.PaidAmount
	receipt.PaymentDate = &paymentDate
	if req.BankAccountID != "" {
		receipt.BankAccountID = req.BankAccountID
	}
	receipt.Debited = req.Debit && req.BankAccountID != ""

	switch req.InsertMode {
	case core.InsertUpdateAmount:
		receipt.TotalAmount = req.PaidAmount
	case core.InsertCreateRemainingBill:
		remaining := receipt.TotalAmount.Sub(req.PaidAmount)
		if remaining.Cents > 0 {
			_, err := s.bills.Create(ctx, accountID, core.BillRequest{
				Type:        core.BillSingle,
				BuyDate:     s.now().UTC(),
				PayDate:     req.Ref.Next().MonthStart(),
				CardID:      cardID,
				Amount:      remaining,
				Description: fmt.Sprintf("Remaining amount of invoice %s", req.Ref.Display()),
			})
			if err != nil {
				return core.Invoice{}, fmt.Errorf("creating remainder bill: %w", err)
			}
		}
	}

	if err := s.storage.SaveReceipt(ctx, receipt); err != nil {
		return core.Invoice{}, fmt.Errorf("saving receipt: %w", err)
	}

	if receipt.Debited {
		_, err := s.bankAccounts.PersistEntry(ctx, accountID, core.BankAccountEntry{
			BankAccountID: req.BankAccountID,
			Type:          core.EntryDebit,
			Amount:        req.PaidAmount,
			ReceiptID:     receipt.ID,
			Description:   fmt.Sprintf("Payment of card %q invoice %s", inv.Card.Label, req.Ref.Display()),
		})
		if err != nil {
			s.logger.Error("failed to debit invoice payment", "receipt_id", receipt.ID, "error", err)
		}
	}

	if len(inv.Bills) > 0 {
		ids := make([]string, len(inv.Bills))
		for i, b := range inv.Bills {
			ids[i] = b.ID
		}
		if err := s.storage.SetBillsPaid(ctx, ids, true, &paymentDate); err != nil {
			return core.Invoice{}, fmt.Errorf("marking bills paid: %w", err)
		}
		for i := range inv.Bills {
			inv.Bills[i].Paid = true
			inv.Bills[i].PaidDate = &paymentDate
		}
	}

	inv.Receipt = &receipt
	inv.Status = core.StatusOf(s.periodEnd(inv.Card, req.Ref), &receipt, inv.Total, s.now())
	s.publish(ctx, amqp.EventInvoicePaid, accountID, receipt.ID, req.Ref, req.PaidAmount)
	return inv, nil
}

// ResetPayment undoes a recorded payment: bills of the window go back to
// unpaid, the linked bank debit is removed or compensated with a credit
// entry, and the receipt is deleted.
func (s *InvoiceService) ResetPayment(ctx context.Context, accountID, cardID, receiptID string) error {
	receipt, err := s.storage.GetReceipt(ctx, accountID, cardID, receiptID)
	if err != nil {
		return err
	}
	unlock := s.lock(cardID, receipt.Reference)
	defer unlock()

	inv, err := s.GetInvoice(ctx, accountID, cardID, receipt.Reference)
	if err != nil {
		return err
	}
	if len(inv.Bills) > 0 {
		ids := make([]string, len(inv.Bills))
		for i, b := range inv.Bills {
			ids[i] = b.ID
		}
		if err := s.storage.SetBillsPaid(ctx, ids, false, nil); err != nil {
			return fmt.Errorf("unmarking bills: %w", err)
		}
	}

	if receipt.Debited && receipt.BankAccountID != "" {
		entry, err := s.storage.GetEntryByReceipt(ctx, receipt.BankAccountID, receipt.ID)
		switch {
		case err == nil:
			if err := s.storage.DeleteEntry(ctx, entry.ID); err != nil {
				return fmt.Errorf("deleting debit entry: %w", err)
			}
		case errors.Is(err, core.ErrNotFound):
			// The debit entry is gone; restore the balance with a
			// compensating credit instead.
			_, err := s.bankAccounts.PersistEntry(ctx, accountID, core.BankAccountEntry{
				BankAccountID: receipt.BankAccountID,
				Type:          core.EntryCredit,
				Amount:        receipt.PaidAmount,
				Description:   fmt.Sprintf("Reversal of card %q invoice %s payment", inv.Card.Label, receipt.Reference.Display()),
			})
			if err != nil {
				return fmt.Errorf("compensating debit entry: %w", err)
			}
		default:
			return fmt.Errorf("loading debit entry: %w", err)
		}
	}

	if err := s.storage.DeleteReceipt(ctx, accountID, receipt.ID); err != nil {
		return fmt.Errorf("deleting receipt: %w", err)
	}
	s.publish(ctx, amqp.EventInvoiceReset, accountID, receipt.ID, receipt.Reference, receipt.PaidAmount)
	return nil
}

func (s *InvoiceService) periodEnd(card core.Card, ref core.Ref) time.Time {
	_, to := core.InvoicePeriod(ref, card.CloseDay)
	return to
}

func (s *InvoiceService) publish(ctx context.Context, kind, accountID, entityID string, ref core.Ref, amount core.Money) {
	if s.events == nil {
		return
	}
	ev := amqp.NewLedgerEvent(kind, accountID, entityID, string(ref), amount.Cents, s.now())
	if err := s.events.PublishEvent(ctx, ev); err != nil {
		s.logger.Error("failed to publish invoice event", "kind", kind, "entity_id", entityID, "error", err)
	}
}
