package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	BillSingle       BillType = "single"
	BillRecurrence   BillType = "recurrence"
	BillInstallments BillType = "installments"
)

const (
	EntryCredit EntryType = "credit"
	EntryDebit  EntryType = "debit"
	EntryValue  EntryType = "value"
)

const (
	InsertNormal              InsertMode = "normal"
	InsertUpdateAmount        InsertMode = "update_amount"
	InsertCreateRemainingBill InsertMode = "create_remaining_bill"
)

const (
	FilterBuy     BillDateField = "buy"
	FilterBilling BillDateField = "billing"
)

type (
	BillType      string
	EntryType     string
	InsertMode    string
	BillDateField string

	// Account is the owning user account. Every top-level entity is
	// exclusively scoped to one account.
	Account struct {
		ID           string
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Bill is a single charge, one installment of a charge, or a
	// recurrence template. Templates are never billed themselves; the
	// recurrence processor spawns single bills from them.
	Bill struct {
		ID                     string
		AccountID              string
		CategoryID             string
		CardID                 string
		RootBillID             string
		Type                   BillType
		BuyDate                time.Time
		BillDate               time.Time
		Description            string
		Amount                 Money
		Installments           int
		InstallmentIndex       int
		Active                 bool
		GeneratedViaRecurrence bool
		// RecurrenceRef is the month a generated bill materializes, set
		// only when GeneratedViaRecurrence is true. One generated bill
		// may exist per (RootBillID, RecurrenceRef).
		RecurrenceRef Ref
		Paid          bool
		PaidDate      *time.Time
		Tags          []Tag
		CreatedAt     time.Time
	}

	// Card is a credit card with its billing cycle anchors.
	Card struct {
		ID          string
		AccountID   string
		Label       string
		AmountLimit Money
		CloseDay    int
		PayDay      int
		CreatedAt   time.Time
	}

	// Receipt records the settlement of one invoice period: a payment
	// and/or a manual total override. At most one exists per (card, ref).
	Receipt struct {
		ID            string
		AccountID     string
		CardID        string
		BankAccountID string
		Reference     Ref
		TotalAmount   Money
		Paid          bool
		PaidAmount    Money
		PaymentDate   *time.Time
		Debited       bool
	}

	BankAccount struct {
		ID        string
		AccountID string
		Label     string
		CreatedAt time.Time
	}

	// BankAccountEntry is one ledger line of a bank account. A value-type
	// entry is an absolute balance anchor; credit/debit entries are
	// relative deltas applied after the most recent anchor.
	BankAccountEntry struct {
		ID            string
		BankAccountID string
		ReceiptID     string
		BillID        string
		Description   string
		Amount        Money
		Type          EntryType
		CreatedAt     time.Time
	}

	Category struct {
		ID        string
		AccountID string
		Label     string
	}

	Tag struct {
		ID        string
		AccountID string
		Label     string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRef    = errors.New("invalid reference period")
	ErrValidation    = errors.New("invalid request")

	// ErrNotFound covers both missing entities and entities owned by
	// another account, so existence never leaks across accounts.
	ErrNotFound = errors.New("not found")
)

// BillRequest is the input of the bill materializer.
type BillRequest struct {
	Type                BillType
	BuyDate             time.Time
	PayDate             time.Time
	CategoryID          string
	CardID              string
	BankAccountID       string
	Description         string
	Amount              Money
	Installments        int
	IsInstallmentAmount bool
	MarkPreviousPaid    bool
	Paid                bool
	Debit               bool
	TagIDs              []string
}

func (r BillRequest) Validate() error {
	switch r.Type {
	case BillSingle, BillRecurrence, BillInstallments:
	default:
		return fmt.Errorf("%w: invalid bill type", ErrValidation)
	}
	if r.BuyDate.IsZero() {
		return fmt.Errorf("%w: missing buy date", ErrValidation)
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return fmt.Errorf("%w: empty description", ErrValidation)
	}
	if len(r.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	}
	if r.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if r.Type == BillInstallments {
		if r.Installments < 1 {
			return fmt.Errorf("%w: installment count must be at least 1", ErrValidation)
		}
		if r.PayDate.IsZero() {
			return fmt.Errorf("%w: missing pay date anchor for installments", ErrValidation)
		}
	}
	return nil
}

// BillFilter selects bills for listing. DateField picks which date the
// window applies to; templates of type recurrence are never returned.
type BillFilter struct {
	DateField   BillDateField
	Start       time.Time
	End         time.Time
	CardIDs     []string
	CategoryIDs []string
	TagIDs      []string
	Types       []BillType
	Paid        bool
	Unpaid      bool
}

// PaymentRequest is the input of the invoice payment operation.
type PaymentRequest struct {
	Ref           Ref
	PaidAmount    Money
	Date          time.Time
	BankAccountID string
	Debit         bool
	InsertMode    InsertMode
}

func (r PaymentRequest) Validate() error {
	if _, err := ParseRef(string(r.Ref)); err != nil {
		return err
	}
	if r.PaidAmount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: missing payment date", ErrValidation)
	}
	switch r.InsertMode {
	case InsertNormal, InsertUpdateAmount, InsertCreateRemainingBill:
	default:
		return fmt.Errorf("%w: invalid insert mode", ErrValidation)
	}
	return nil
}
