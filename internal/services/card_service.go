package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
	"contas/internal/storage"
)

// CardWithStatus is a card decorated with its current-month invoice
// status and the total amount of its unpaid bills.
type CardWithStatus struct {
	core.Card
	Status     core.InvoiceStatus
	AmountUsed core.Money
}

type CardService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewCardService(repo *storage.SQLiteRepository) *CardService {
	return &CardService{storage: repo, now: time.Now}
}

// FindAll lists the account's cards with status and usage derived from
// the unpaid bills and the current month's receipts.
func (s *CardService) FindAll(ctx context.Context, accountID string) ([]CardWithStatus, error) {
	cards, err := s.storage.ListCards(ctx, accountID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	ref := core.RefOf(now)
	unpaid, err := s.storage.ListUnpaidBills(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("loading unpaid bills: %w", err)
	}
	receipts, err := s.storage.ListReceiptsByRef(ctx, accountID, ref)
	if err != nil {
		return nil, fmt.Errorf("loading receipts: %w", err)
	}
	byCard := make(map[string]core.Receipt, len(receipts))
	for _, rc := range receipts {
		byCard[rc.CardID] = rc
	}

	out := make([]CardWithStatus, 0, len(cards))
	for _, card := range cards {
		var used, monthTotal core.Money
		for _, b := range unpaid {
			if b.CardID != card.ID {
				continue
			}
			used = used.Add(b.Amount)
			if b.BillDate.Year() == now.Year() && b.BillDate.Month() == now.Month() {
				monthTotal = monthTotal.Add(b.Amount)
			}
		}
		var receipt *core.Receipt
		if rc, ok := byCard[card.ID]; ok {
			receipt = &rc
		}
		periodEnd := core.DateClamped(now.Year(), now.Month(), card.CloseDay+1)
		out = append(out, CardWithStatus{
			Card:       card,
			Status:     core.StatusOf(periodEnd, receipt, monthTotal, now),
			AmountUsed: used,
		})
	}
	return out, nil
}

// Persist creates a card, or updates it when ID is set.
func (s *CardService) Persist(ctx context.Context, accountID string, card core.Card) (core.Card, error) {
	if err := validateCard(card); err != nil {
		return core.Card{}, err
	}
	card.AccountID = accountID
	if card.ID != "" {
		if err := s.storage.UpdateCard(ctx, card); err != nil {
			return core.Card{}, err
		}
		return card, nil
	}
	card.ID = uuid.NewString()
	card.CreatedAt = s.now().UTC()
	if err := s.storage.InsertCard(ctx, card); err != nil {
		return core.Card{}, err
	}
	return card, nil
}

func (s *CardService) Get(ctx context.Context, accountID, id string) (core.Card, error) {
	return s.storage.GetCard(ctx, accountID, id)
}

func (s *CardService) Delete(ctx context.Context, accountID, id string) error {
	return s.storage.DeleteCard(ctx, accountID, id)
}

func validateCard(card core.Card) error {
	if strings.TrimSpace(card.Label) == "" {
		return fmt.Errorf("%w: empty label", core.ErrValidation)
	}
	if card.CloseDay < 1 || card.CloseDay > 31 {
		return fmt.Errorf("%w: close day out of range", core.ErrValidation)
	}
	if card.PayDay < 1 || card.PayDay > 31 {
		return fmt.Errorf("%w: pay day out of range", core.ErrValidation)
	}
	if card.AmountLimit.Cents < 0 {
		return core.ErrInvalidAmount
	}
	return nil
}
