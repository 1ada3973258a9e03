package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/storage"
)

// BillService materializes bill requests into persisted bill rows and
// handles deletion of single bills and installment chains.
type BillService struct {
	storage      *storage.SQLiteRepository
	bankAccounts *BankAccountService
	events       *amqp.Client
	logger       *slog.Logger
	now          func() time.Time
}

func NewBillService(repo *storage.SQLiteRepository, bankAccounts *BankAccountService, events *amqp.Client, logger *slog.Logger) *BillService {
	return &BillService{
		storage:      repo,
		bankAccounts: bankAccounts,
		events:       events,
		logger:       logger,
		now:          time.Now,
	}
}

// Create validates the request, resolves its references and persists one
// bill row for single and recurrence bills or a full chain for
// installment bills. All rows of a chain are written in one transaction.
func (s *BillService) Create(ctx context.Context, accountID string, req core.BillRequest) ([]core.Bill, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var card *core.Card
	if req.CardID != "" {
		c, err := s.storage.GetCard(ctx, accountID, req.CardID)
		if err != nil {
			return nil, fmt.Errorf("resolving card: %w", err)
		}
		card = &c
	}
	if req.CategoryID != "" {
		if _, err := s.storage.GetCategory(ctx, accountID, req.CategoryID); err != nil {
			return nil, fmt.Errorf("resolving category: %w", err)
		}
	}
	tags, err := s.storage.ListTagsByIDs(ctx, accountID, req.TagIDs)
	if err != nil {
		return nil, fmt.Errorf("resolving tags: %w", err)
	}
	if len(tags) != len(req.TagIDs) {
		return nil, fmt.Errorf("resolving tags: %w", core.ErrNotFound)
	}
	if req.Paid && req.Debit && req.BankAccountID != "" {
		if _, err := s.storage.GetBankAccount(ctx, accountID, req.BankAccountID); err != nil {
			return nil, fmt.Errorf("resolving bank account: %w", err)
		}
	}

	billDate := req.PayDate
	if billDate.IsZero() {
		billDate = req.BuyDate
	}
	if card != nil {
		billDate = core.DateClamped(billDate.Year(), billDate.Month(), card.CloseDay)
	}

	var bills []core.Bill
	switch req.Type {
	case core.BillInstallments:
		bills = s.buildInstallments(accountID, req, billDate, tags)
	default:
		bills = []core.Bill{s.buildSingle(accountID, req, billDate, tags)}
	}

	if err := s.storage.CreateBills(ctx, bills); err != nil {
		return nil, fmt.Errorf("persisting bills: %w", err)
	}

	if req.Type == core.BillSingle && req.Paid && req.Debit && req.BankAccountID != "" {
		desc := "Debit for pre-paid charge"
		if req.Description != "" {
			desc += " - " + req.Description
		}
		_, err := s.bankAccounts.PersistEntry(ctx, accountID, core.BankAccountEntry{
			BankAccountID: req.BankAccountID,
			Type:          core.EntryDebit,
			Amount:        req.Amount,
			BillID:        bills[0].ID,
			Description:   desc,
		})
		if err != nil {
			s.logger.Error("failed to debit pre-paid bill", "bill_id", bills[0].ID, "error", err)
		}
	}

	for _, b := range bills {
		s.publish(ctx, amqp.EventBillCreated, accountID, b.ID, b.Amount)
	}
	return bills, nil
}

func (s *BillService) buildSingle(accountID string, req core.BillRequest, billDate time.Time, tags []core.Tag) core.Bill {
	now := s.now().UTC()
	paid := req.Type == core.BillSingle && req.Paid
	b := core.Bill{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount,
		BuyDate:     req.BuyDate,
		BillDate:    billDate,
		CardID:      req.CardID,
		CategoryID:  req.CategoryID,
		Tags:        tags,
		Paid:        paid,
		Active:      true,
		CreatedAt:   now,
	}
	if paid {
		d := billDate
		b.PaidDate = &d
	}
	return b
}

func (s *BillService) buildInstallments(accountID string, req core.BillRequest, billDate time.Time, tags []core.Tag) []core.Bill {
	per := req.Amount
	if !req.IsInstallmentAmount {
		per = core.SplitInstallment(req.Amount, req.Installments)
	}
	now := s.now().UTC()
	bills := make([]core.Bill, 0, req.Installments)
	rootID := ""
	for i := 0; i < req.Installments; i++ {
		due := core.AddMonths(billDate, i)
		b := core.Bill{
			ID:               uuid.NewString(),
			AccountID:        accountID,
			Type:             core.BillInstallments,
			Description:      req.Description,
			Amount:           per,
			BuyDate:          req.BuyDate,
			BillDate:         due,
			CardID:           req.CardID,
			CategoryID:       req.CategoryID,
			Tags:             tags,
			Installments:     req.Installments,
			InstallmentIndex: i + 1,
			RootBillID:       rootID,
			Active:           true,
			CreatedAt:        now,
		}
		if i == 0 {
			rootID = b.ID
		}
		if req.MarkPreviousPaid && due.Before(now) {
			paidDate := due
			b.Paid = true
			b.PaidDate = &paidDate
		}
		bills = append(bills, b)
	}
	return bills
}

// List returns the account's bills matching the filter. Recurrence
// templates never appear in listings.
func (s *BillService) List(ctx context.Context, accountID string, filter core.BillFilter) ([]core.Bill, error) {
	return s.storage.ListBills(ctx, accountID, filter)
}

// DeleteSingle removes exactly one bill row, installments included. The
// rest of the chain is untouched; chain-wide removal goes through Delete.
func (s *BillService) DeleteSingle(ctx context.Context, accountID, billID string) error {
	bill, err := s.storage.GetBill(ctx, accountID, billID)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteBill(ctx, accountID, billID); err != nil {
		return err
	}
	s.publish(ctx, amqp.EventBillDeleted, accountID, billID, bill.Amount)
	return nil
}

// Delete removes an installment chain. Mode "all" drops the whole chain,
// mode "next" drops the given bill and every later installment.
func (s *BillService) Delete(ctx context.Context, accountID, billID, mode string) error {
	bill, err := s.storage.GetBill(ctx, accountID, billID)
	if err != nil {
		return err
	}
	rootID := bill.RootBillID
	if rootID == "" {
		rootID = bill.ID
	}
	switch mode {
	case "all":
		err = s.storage.DeleteChainAll(ctx, accountID, rootID)
	case "next":
		// Targeting the root means the whole chain goes; DeleteChainFrom
		// only matches rows linked to the root, not the root itself.
		if bill.RootBillID == "" {
			err = s.storage.DeleteChainAll(ctx, accountID, rootID)
		} else {
			err = s.storage.DeleteChainFrom(ctx, accountID, rootID, bill.InstallmentIndex)
		}
	default:
		return fmt.Errorf("%w: unknown delete mode %q", core.ErrValidation, mode)
	}
	if err != nil {
		return err
	}
	s.publish(ctx, amqp.EventBillDeleted, accountID, billID, bill.Amount)
	return nil
}

func (s *BillService) publish(ctx context.Context, kind, accountID, entityID string, amount core.Money) {
	if s.events == nil {
		return
	}
	ev := amqp.NewLedgerEvent(kind, accountID, entityID, "", amount.Cents, s.now())
	if err := s.events.PublishEvent(ctx, ev); err != nil {
		s.logger.Error("failed to publish bill event", "kind", kind, "entity_id", entityID, "error", err)
	}
}
