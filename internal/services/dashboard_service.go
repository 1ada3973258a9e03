package services

import (
	"context"
	"fmt"
	"time"

	"contas/internal/core"
	"contas/internal/storage"
)

// UpcomingInvoice is one card's projected invoice for a target month:
// the bills falling due, active recurrence templates as placeholders,
// the projected total and the card's pay date in that month.
type UpcomingInvoice struct {
	CardID  string
	Label   string
	PayDate time.Time
	Bills   []core.Bill
	Total   core.Money
}

// DashboardService summarizes what each card will charge in a month.
type DashboardService struct {
	storage *storage.SQLiteRepository
}

func NewDashboardService(repo *storage.SQLiteRepository) *DashboardService {
	return &DashboardService{storage: repo}
}

// UpcomingInvoices projects, per card, the invoice payable in the given
// reference month. Recurrence templates that have not materialized yet
// still count toward the projection.
func (s *DashboardService) UpcomingInvoices(ctx context.Context, accountID string, ref core.Ref) ([]UpcomingInvoice, error) {
	if _, err := core.ParseRef(string(ref)); err != nil {
		return nil, err
	}
	cards, err := s.storage.ListCards(ctx, accountID)
	if err != nil {
		return nil, err
	}

	out := make([]UpcomingInvoice, 0, len(cards))
	for _, card := range cards {
		all, err := s.storage.ListCardBills(ctx, accountID, card.ID)
		if err != nil {
			return nil, fmt.Errorf("loading bills of card %s: %w", card.ID, err)
		}
		from, to := core.InvoicePeriod(ref, card.CloseDay)

		var bills []core.Bill
		var total core.Money
		materialized := make(map[string]bool)
		for _, b := range all {
			if b.Type == core.BillRecurrence {
				continue
			}
			if b.BillDate.Before(from) || b.BillDate.After(to) {
				continue
			}
			if b.GeneratedViaRecurrence {
				materialized[b.RootBillID] = true
			}
			bills = append(bills, b)
			total = total.Add(b.Amount)
		}
		for _, b := range all {
			if b.Type != core.BillRecurrence || !b.Active || materialized[b.ID] {
				continue
			}
			bills = append(bills, b)
			total = total.Add(b.Amount)
		}

		out = append(out, UpcomingInvoice{
			CardID:  card.ID,
			Label:   card.Label,
			PayDate: core.DateClamped(ref.Year(), time.Month(ref.Month()), card.PayDay),
			Bills:   bills,
			Total:   total,
		})
	}
	return out, nil
}
