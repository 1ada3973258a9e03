package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"contas/internal/core"
)

func TestCardPersistValidation(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	svc := NewCardService(repo)
	ctx := context.Background()

	cases := []struct {
		name string
		card core.Card
	}{
		{"empty label", core.Card{CloseDay: 10, PayDay: 15}},
		{"close day low", core.Card{Label: "c", CloseDay: 0, PayDay: 15}},
		{"close day high", core.Card{Label: "c", CloseDay: 32, PayDay: 15}},
		{"pay day high", core.Card{Label: "c", CloseDay: 10, PayDay: 40}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Persist(ctx, accountID, tc.card); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	card, err := svc.Persist(ctx, accountID, core.Card{Label: "Visa", CloseDay: 10, PayDay: 15})
	if err != nil {
		t.Fatal(err)
	}
	if card.ID == "" {
		t.Fatal("expected generated id")
	}

	card.Label = "Visa Gold"
	updated, err := svc.Persist(ctx, accountID, card)
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.Get(ctx, accountID, updated.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Label != "Visa Gold" {
		t.Fatalf("update lost the label: %q", got.Label)
	}

	// Updating another account's card must not succeed.
	other := newTestAccount(t, repo)
	if _, err := svc.Persist(ctx, other, card); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCardFindAllStatusAndUsage(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	card := newTestCard(t, repo, accountID, 25, 5)
	svc := NewCardService(repo)
	svc.now = fixedNow(2024, time.March, 20)
	ctx := context.Background()

	// Unpaid: one in the current month, one in the next.
	insertBill(t, repo, accountID, card.ID, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), 3000)
	insertBill(t, repo, accountID, card.ID, time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC), 2000)

	cards, err := svc.FindAll(ctx, accountID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
	got := cards[0]
	if got.AmountUsed.Cents != 5000 {
		t.Fatalf("usage should sum all unpaid bills, got %s", got.AmountUsed)
	}
	// Close day 25: the month's cycle has not closed on the 20th.
	if got.Status != core.StatusOpen {
		t.Fatalf("expected open, got %s", got.Status)
	}
}

func TestDashboardUpcomingInvoices(t *testing.T) {
	repo := newTestRepo(t)
	accountID := newTestAccount(t, repo)
	card := newTestCard(t, repo, accountID, 10, 15)
	bills := NewBillService(repo, NewBankAccountService(repo, nil, testLogger()), nil, testLogger())
	svc := NewDashboardService(repo)
	ctx := context.Background()

	// One bill inside the April window, one recurrence template.
	insertBill(t, repo, accountID, card.ID, time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC), 4000)
	if _, err := bills.Create(ctx, accountID, core.BillRequest{
		Type:        core.BillRecurrence,
		BuyDate:     time.Date(2024, time.January, 9, 0, 0, 0, 0, time.UTC),
		Description: "insurance",
		Amount:      core.Money{Cents: 1500},
		CardID:      card.ID,
	}); err != nil {
		t.Fatal(err)
	}

	upcoming, err := svc.UpcomingInvoices(ctx, accountID, core.NewRef(4, 2024))
	if err != nil {
		t.Fatal(err)
	}
	if len(upcoming) != 1 {
		t.Fatalf("expected 1 card summary, got %d", len(upcoming))
	}
	u := upcoming[0]
	if !u.PayDate.Equal(time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("pay date should land on the card's pay day, got %v", u.PayDate)
	}
	// The template has not materialized, so it still counts.
	if u.Total.Cents != 5500 {
		t.Fatalf("expected projected total 55.00, got %s", u.Total)
	}

	// Materialize the recurrence and project again: no double counting.
	processor := NewRecurrenceProcessor(repo, testLogger())
	if _, err := processor.Run(ctx, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	upcoming, err = svc.UpcomingInvoices(ctx, accountID, core.NewRef(4, 2024))
	if err != nil {
		t.Fatal(err)
	}
	if upcoming[0].Total.Cents != 5500 {
		t.Fatalf("materialized template should not double count, got %s", upcoming[0].Total)
	}
}
