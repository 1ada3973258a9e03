package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/storage"
)

// BankAccountWithBalance is a bank account together with its derived
// balance and ledger entries, newest first.
type BankAccountWithBalance struct {
	core.BankAccount
	Balance core.Money
	Entries []core.BankAccountEntry
}

type BankAccountService struct {
	storage *storage.SQLiteRepository
	events  *amqp.Client
	logger  *slog.Logger
	now     func() time.Time
}

func NewBankAccountService(repo *storage.SQLiteRepository, events *amqp.Client, logger *slog.Logger) *BankAccountService {
	return &BankAccountService{storage: repo, events: events, logger: logger, now: time.Now}
}

// FindAllWithBalance loads every bank account of the owner and derives
// each balance concurrently.
func (s *BankAccountService) FindAllWithBalance(ctx context.Context, accountID string) ([]BankAccountWithBalance, error) {
	accounts, err := s.storage.ListBankAccounts(ctx, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]BankAccountWithBalance, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range accounts {
		g.Go(func() error {
			balance, err := s.storage.Balance(gctx, a.ID)
			if err != nil {
				return fmt.Errorf("balance of %s: %w", a.ID, err)
			}
			entries, err := s.storage.ListEntries(gctx, a.ID)
			if err != nil {
				return fmt.Errorf("entries of %s: %w", a.ID, err)
			}
			out[i] = BankAccountWithBalance{BankAccount: a, Balance: balance, Entries: entries}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Persist creates a bank account, or relabels it when ID is set.
func (s *BankAccountService) Persist(ctx context.Context, accountID, id, label string) (core.BankAccount, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return core.BankAccount{}, fmt.Errorf("%w: empty label", core.ErrValidation)
	}
	if id != "" {
		existing, err := s.storage.GetBankAccount(ctx, accountID, id)
		if err != nil {
			return core.BankAccount{}, err
		}
		existing.Label = label
		if err := s.storage.UpdateBankAccount(ctx, existing); err != nil {
			return core.BankAccount{}, err
		}
		return existing, nil
	}
	a := core.BankAccount{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Label:     label,
		CreatedAt: s.now().UTC(),
	}
	if err := s.storage.InsertBankAccount(ctx, a); err != nil {
		return core.BankAccount{}, err
	}
	return a, nil
}

func (s *BankAccountService) Delete(ctx context.Context, accountID, id string) error {
	return s.storage.DeleteBankAccount(ctx, accountID, id)
}

// PersistEntry appends one ledger line after verifying the bank account
// belongs to the caller. Value entries become the new balance anchor.
func (s *BankAccountService) PersistEntry(ctx context.Context, accountID string, e core.BankAccountEntry) (core.BankAccountEntry, error) {
	if _, err := s.storage.GetBankAccount(ctx, accountID, e.BankAccountID); err != nil {
		return core.BankAccountEntry{}, err
	}
	switch e.Type {
	case core.EntryCredit, core.EntryDebit, core.EntryValue:
	default:
		return core.BankAccountEntry{}, fmt.Errorf("%w: unknown entry type %q", core.ErrValidation, e.Type)
	}
	if e.Type != core.EntryValue && e.Amount.Cents <= 0 {
		return core.BankAccountEntry{}, core.ErrInvalidAmount
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = s.now().UTC()
	if err := s.storage.InsertEntry(ctx, e); err != nil {
		return core.BankAccountEntry{}, fmt.Errorf("persisting entry: %w", err)
	}
	if s.events != nil {
		ev := amqp.NewLedgerEvent(amqp.EventEntryPersisted, accountID, e.ID, "", e.Amount.Cents, e.CreatedAt)
		if err := s.events.PublishEvent(ctx, ev); err != nil {
			s.logger.Error("failed to publish bank entry event", "entry_id", e.ID, "error", err)
		}
	}
	return e, nil
}

// Entries returns the ledger of one bank account, newest first.
func (s *BankAccountService) Entries(ctx context.Context, accountID, bankAccountID string) ([]core.BankAccountEntry, error) {
	if _, err := s.storage.GetBankAccount(ctx, accountID, bankAccountID); err != nil {
		return nil, err
	}
	return s.storage.ListEntries(ctx, bankAccountID)
}
