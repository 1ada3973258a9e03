package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
	"contas/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestAccount(t *testing.T, repo *storage.SQLiteRepository) string {
	t.Helper()
	account := core.Account{
		ID:           uuid.NewString(),
		Name:         "Tester",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("creating test account: %v", err)
	}
	return account.ID
}

func newTestCard(t *testing.T, repo *storage.SQLiteRepository, accountID string, closeDay, payDay int) core.Card {
	t.Helper()
	card := core.Card{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Label:     "Test Card",
		CloseDay:  closeDay,
		PayDay:    payDay,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.InsertCard(context.Background(), card); err != nil {
		t.Fatalf("creating test card: %v", err)
	}
	return card
}

func fixedNow(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }
}

func TestCreateInstallmentChain(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	svc := NewBillService(repo, NewBankAccountService(repo, nil, testLogger()), nil, testLogger())
	svc.now = fixedNow(2024, time.January, 5)

	bills, err := svc.Create(context.Background(), accountID, core.BillRequest{
		Type:         core.BillInstallments,
		BuyDate:      time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC),
		PayDate:      time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		Description:  "new couch",
		Amount:       core.Money{Cents: 10000},
		Installments: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(bills) != 3 {
		t.Fatalf("expected 3 bills, got %d", len(bills))
	}
	for i, b := range bills {
		if b.Amount.Cents != 3333 {
			t.Fatalf("installment %d: expected 33.33, got %s", i+1, b.Amount)
		}
		if b.InstallmentIndex != i+1 {
			t.Fatalf("expected index %d, got %d", i+1, b.InstallmentIndex)
		}
		if b.Paid {
			t.Fatalf("future installment %d should not be paid", i+1)
		}
	}
	if bills[0].RootBillID != "" {
		t.Fatalf("chain root should have no root reference")
	}
	for _, b := range bills[1:] {
		if b.RootBillID != bills[0].ID {
			t.Fatalf("chain member should point at root %s, got %s", bills[0].ID, b.RootBillID)
		}
	}
	// Jan 31 anchors clamp through February
	wantDates := []time.Time{
		time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
	}
	for i, b := range bills {
		if !b.BillDate.Equal(wantDates[i]) {
			t.Fatalf("installment %d: expected %v, got %v", i+1, wantDates[i], b.BillDate)
		}
	}
}

func TestCreateInstallmentsPerInstallmentAmount(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	svc := NewBillService(repo, NewBankAccountService(repo, nil, testLogger()), nil, testLogger())

	bills, err := svc.Create(context.Background(), accountID, core.BillRequest{
		Type:                core.BillInstallments,
		BuyDate:             time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		PayDate:             time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		Description:         "phone",
		Amount:              core.Money{Cents: 5000},
		Installments:        4,
		IsInstallmentAmount: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range bills {
		if b.Amount.Cents != 5000 {
			t.Fatalf("expected amount to be taken as-is, got %s", b.Amount)
		}
	}
}

func TestCreateInstallmentsMarkPreviousPaid(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	svc := NewBillService(repo, NewBankAccountService(repo, nil, testLogger()), nil, testLogger())
	svc.now = fixedNow(2024, time.April, 15)

	bills, err := svc.Create(context.Background(), accountID, core.BillRequest{
		Type:             core.BillInstallments,
		BuyDate:          time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
		PayDate:          time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC),
		Description:      "old purchase backfill",
		Amount:           core.Money{Cents: 9000},
		Installments:     4,
		MarkPreviousPaid: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	// Feb 10, Mar 10, Apr 10 are in the past; May 10 is not.
	for i, b := range bills {
		wantPaid := i < 3
		if b.Paid != wantPaid {
			t.Fatalf("installment %d: paid=%v, want %v", i+1, b.Paid, wantPaid)
		}
		if wantPaid && (b.PaidDate == nil || !b.PaidDate.Equal(b.BillDate)) {
			t.Fatalf("installment %d: paid date should match bill date", i+1)
		}
	}
}

func TestCreateSingleWithCardAnchorsBillDate(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	card := newTestCard(t, repo, accountID, 31, 5)
	svc := NewBillService(repo, NewBankAccountService(repo, nil, testLogger()), nil, testLogger())

	bills, err := svc.Create(context.Background(), accountID, core.BillRequest{
		Type:        core.BillSingle,
		BuyDate:     time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC),
		Description: "groceries",
		Amount:      core.Money{Cents: 4200},
		CardID:      card.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	if !bills[0].BillDate.Equal(want) {
		t.Fatalf("close day 31 in February should clamp to %v, got %v", want, bills[0].BillDate)
	}
}

func TestCreateBillRejectsForeignCard(t *testing.T) {
	repo := newTestRepo(t)
	owner := newTestAccount(t, repo)
	intruder := newTestAccount(t, repo)
	card := newTestCard(t, repo, owner, 10, 15)
	svc := NewBillService(repo, NewBankAccountService(repo, nil, testLogger()), nil, testLogger())

	_, err := svc.Create(context.Background(), intruder, core.BillRequest{
		Type:        core.BillSingle,
		BuyDate:     time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Description: "sneaky",
		Amount:      core.Money{Cents: 100},
		CardID:      card.ID,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for another account's card, got %v", err)
	}
}

func TestDeleteChain(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	svc := NewBillService(repo, NewBankAccountService(repo, nil, testLogger()), nil, testLogger())
	ctx := context.Background()

	mkChain := func() []core.Bill {
		bills, err := svc.Create(ctx, accountID, core.BillRequest{
			Type:         core.BillInstallments,
			BuyDate:      time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			PayDate:      time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
			Description:  "tv",
			Amount:       core.Money{Cents: 12000},
			Installments: 4,
		})
		if err != nil {
			t.Fatal(err)
		}
		return bills
	}

	t.Run("all", func(t *testing.T) {
		bills := mkChain()
		if err := svc.Delete(ctx, accountID, bills[2].ID, "all"); err != nil {
			t.Fatal(err)
		}
		for _, b := range bills {
			if _, err := repo.GetBill(ctx, accountID, b.ID); !errors.Is(err, core.ErrNotFound) {
				t.Fatalf("bill %s should be gone, got %v", b.ID, err)
			}
		}
	})

	t.Run("next", func(t *testing.T) {
		bills := mkChain()
		if err := svc.Delete(ctx, accountID, bills[2].ID, "next"); err != nil {
			t.Fatal(err)
		}
		for i, b := range bills {
			_, err := repo.GetBill(ctx, accountID, b.ID)
			if i < 2 && err != nil {
				t.Fatalf("installment %d should survive, got %v", i+1, err)
			}
			if i >= 2 && !errors.Is(err, core.ErrNotFound) {
				t.Fatalf("installment %d should be gone, got %v", i+1, err)
			}
		}
	})

	t.Run("next on root", func(t *testing.T) {
		bills := mkChain()
		if err := svc.Delete(ctx, accountID, bills[0].ID, "next"); err != nil {
			t.Fatal(err)
		}
		for i, b := range bills {
			if _, err := repo.GetBill(ctx, accountID, b.ID); !errors.Is(err, core.ErrNotFound) {
				t.Fatalf("installment %d should be gone, got %v", i+1, err)
			}
		}
	})

	t.Run("invalid mode", func(t *testing.T) {
		bills := mkChain()
		if err := svc.Delete(ctx, accountID, bills[0].ID, "some"); !errors.Is(err, core.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestDeleteSingleInstallmentRow(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	svc := NewBillService(repo, NewBankAccountService(repo, nil, testLogger()), nil, testLogger())
	ctx := context.Background()

	bills, err := svc.Create(ctx, accountID, core.BillRequest{
		Type:         core.BillInstallments,
		BuyDate:      time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		PayDate:      time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		Description:  "laptop",
		Amount:       core.Money{Cents: 9000},
		Installments: 3,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteSingle(ctx, accountID, bills[1].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetBill(ctx, accountID, bills[1].ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("deleted installment should be gone, got %v", err)
	}
	for _, id := range []string{bills[0].ID, bills[2].ID} {
		if _, err := repo.GetBill(ctx, accountID, id); err != nil {
			t.Fatalf("sibling installment %s should survive, got %v", id, err)
		}
	}
}

func TestRecurrenceProcessorIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	billSvc := NewBillService(repo, NewBankAccountService(repo, nil, testLogger()), nil, testLogger())
	ctx := context.Background()

	templates, err := billSvc.Create(ctx, accountID, core.BillRequest{
		Type:        core.BillRecurrence,
		BuyDate:     time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		PayDate:     time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Description: "gym membership",
		Amount:      core.Money{Cents: 4990},
	})
	if err != nil {
		t.Fatal(err)
	}
	template := templates[0]

	processor := NewRecurrenceProcessor(repo, testLogger())
	now := time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)

	generated, err := processor.Run(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if generated != 2 {
		t.Fatalf("first run should cover current and next month, got %d", generated)
	}

	// Reruns must not duplicate.
	for i := 0; i < 3; i++ {
		generated, err = processor.Run(ctx, now)
		if err != nil {
			t.Fatal(err)
		}
		if generated != 0 {
			t.Fatalf("rerun %d generated %d bills", i+1, generated)
		}
	}

	bills, err := repo.ListBills(ctx, accountID, core.BillFilter{})
	if err != nil {
		t.Fatal(err)
	}
	var fromTemplate []core.Bill
	for _, b := range bills {
		if b.RootBillID == template.ID {
			fromTemplate = append(fromTemplate, b)
		}
		if b.Type == core.BillRecurrence {
			t.Fatalf("recurrence template leaked into listing: %s", b.ID)
		}
	}
	if len(fromTemplate) != 2 {
		t.Fatalf("expected 2 generated bills, got %d", len(fromTemplate))
	}
	for _, b := range fromTemplate {
		if b.Type != core.BillSingle || !b.GeneratedViaRecurrence {
			t.Fatalf("generated bill should be a single flagged as generated")
		}
		if b.Amount.Cents != 4990 {
			t.Fatalf("generated bill should copy the template amount, got %s", b.Amount)
		}
	}
}

func TestRecurrenceProcessorCardAnchor(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	card := newTestCard(t, repo, accountID, 10, 15)
	billSvc := NewBillService(repo, NewBankAccountService(repo, nil, testLogger()), nil, testLogger())
	ctx := context.Background()

	if _, err := billSvc.Create(ctx, accountID, core.BillRequest{
		Type:        core.BillRecurrence,
		BuyDate:     time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Description: "streaming",
		Amount:      core.Money{Cents: 1999},
		CardID:      card.ID,
	}); err != nil {
		t.Fatal(err)
	}

	processor := NewRecurrenceProcessor(repo, testLogger())
	now := time.Date(2024, time.May, 2, 10, 0, 0, 0, time.UTC)
	if _, err := processor.Run(ctx, now); err != nil {
		t.Fatal(err)
	}

	bills, err := repo.ListBills(ctx, accountID, core.BillFilter{})
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range bills {
		if !b.GeneratedViaRecurrence {
			continue
		}
		if b.BillDate.Day() != card.CloseDay-1 {
			t.Fatalf("generated bill should land on close day - 1, got day %d", b.BillDate.Day())
		}
	}
}
