package services

import (
	"context"
	"errors"
	"testing"

	"contas/internal/core"
)

func TestBalanceAnchoring(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	svc := NewBankAccountService(repo, nil, testLogger())
	ctx := context.Background()

	bank, err := svc.Persist(ctx, accountID, "", "Checking")
	if err != nil {
		t.Fatal(err)
	}

	entry := func(typ core.EntryType, cents int64) {
		t.Helper()
		if _, err := svc.PersistEntry(ctx, accountID, core.BankAccountEntry{
			BankAccountID: bank.ID,
			Type:          typ,
			Amount:        core.Money{Cents: cents},
			Description:   "test entry",
		}); err != nil {
			t.Fatal(err)
		}
	}
	balance := func() int64 {
		t.Helper()
		b, err := repo.Balance(ctx, bank.ID)
		if err != nil {
			t.Fatal(err)
		}
		return b.Cents
	}

	// No entries yet: balance starts at zero.
	if got := balance(); got != 0 {
		t.Fatalf("empty ledger should balance to 0, got %d", got)
	}

	entry(core.EntryCredit, 5000)
	entry(core.EntryDebit, 1500)
	if got := balance(); got != 3500 {
		t.Fatalf("expected 35.00, got %d", got)
	}

	// A value entry resets the anchor; earlier deltas stop counting.
	entry(core.EntryValue, 10000)
	if got := balance(); got != 10000 {
		t.Fatalf("anchor should override history, got %d", got)
	}

	entry(core.EntryCredit, 500)
	entry(core.EntryDebit, 200)
	if got := balance(); got != 10300 {
		t.Fatalf("expected 103.00, got %d", got)
	}

	// A newer anchor wins again.
	entry(core.EntryValue, 42)
	if got := balance(); got != 42 {
		t.Fatalf("latest anchor should win, got %d", got)
	}
}

func TestPersistEntryValidation(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	other := newTestAccount(t, repo)
	svc := NewBankAccountService(repo, nil, testLogger())
	ctx := context.Background()

	bank, err := svc.Persist(ctx, accountID, "", "Savings")
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.PersistEntry(ctx, other, core.BankAccountEntry{
		BankAccountID: bank.ID,
		Type:          core.EntryCredit,
		Amount:        core.Money{Cents: 100},
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("foreign bank account should be invisible, got %v", err)
	}

	_, err = svc.PersistEntry(ctx, accountID, core.BankAccountEntry{
		BankAccountID: bank.ID,
		Type:          "transfer",
		Amount:        core.Money{Cents: 100},
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("unknown entry type should be rejected, got %v", err)
	}

	_, err = svc.PersistEntry(ctx, accountID, core.BankAccountEntry{
		BankAccountID: bank.ID,
		Type:          core.EntryDebit,
		Amount:        core.Money{},
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("zero delta should be rejected, got %v", err)
	}
}

func TestFindAllWithBalance(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	svc := NewBankAccountService(repo, nil, testLogger())
	ctx := context.Background()

	a, err := svc.Persist(ctx, accountID, "", "Checking")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Persist(ctx, accountID, "", "Savings")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.PersistEntry(ctx, accountID, core.BankAccountEntry{
		BankAccountID: a.ID, Type: core.EntryCredit, Amount: core.Money{Cents: 700},
	}); err != nil {
		t.Fatal(err)
	}

	all, err := svc.FindAllWithBalance(ctx, accountID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(all))
	}
	got := map[string]int64{}
	for _, acc := range all {
		got[acc.ID] = acc.Balance.Cents
	}
	if got[a.ID] != 700 || got[b.ID] != 0 {
		t.Fatalf("unexpected balances: %v", got)
	}
}
