package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"contas/internal/core"
	"contas/internal/storage"
)

// RecurrenceProcessor materializes single bills from active recurrence
// templates. Each run covers the current and the next reference month,
// and a template yields at most one bill per month no matter how often
// the processor ticks.
type RecurrenceProcessor struct {
	storage *storage.SQLiteRepository
	logger  *slog.Logger
}

func NewRecurrenceProcessor(repo *storage.SQLiteRepository, logger *slog.Logger) *RecurrenceProcessor {
	return &RecurrenceProcessor{storage: repo, logger: logger}
}

// Run processes every active template across all accounts and returns
// the number of bills generated. A failing template is logged and
// skipped; it never stops the run.
func (p *RecurrenceProcessor) Run(ctx context.Context, now time.Time) (int, error) {
	templates, err := p.storage.ListActiveRecurrences(ctx)
	if err != nil {
		return 0, err
	}
	refs := []core.Ref{core.RefOf(now), core.RefOf(now).Next()}

	generated := 0
	for _, tmpl := range templates {
		for _, ref := range refs {
			ok, err := p.generate(ctx, tmpl, ref, now)
			if err != nil {
				p.logger.Error("recurrence generation failed",
					"template_id", tmpl.ID, "ref", string(ref), "error", err)
				continue
			}
			if ok {
				generated++
			}
		}
	}
	if generated > 0 {
		p.logger.Info("recurrence run complete", "generated", generated, "templates", len(templates))
	}
	return generated, nil
}

func (p *RecurrenceProcessor) generate(ctx context.Context, tmpl core.Bill, ref core.Ref, now time.Time) (bool, error) {
	count, err := p.storage.CountGeneratedBills(ctx, tmpl.ID, ref)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	day := tmpl.BillDate.Day()
	if tmpl.CardID != "" {
		card, err := p.storage.GetCard(ctx, tmpl.AccountID, tmpl.CardID)
		if err != nil {
			return false, err
		}
		day = card.CloseDay - 1
	}
	bill := core.Bill{
		ID:                     uuid.NewString(),
		AccountID:              tmpl.AccountID,
		CategoryID:             tmpl.CategoryID,
		CardID:                 tmpl.CardID,
		RootBillID:             tmpl.ID,
		Type:                   core.BillSingle,
		BuyDate:                tmpl.BuyDate,
		BillDate:               core.DateClamped(ref.Year(), time.Month(ref.Month()), day),
		Description:            tmpl.Description + " - (" + ref.Display() + ")",
		Amount:                 tmpl.Amount,
		Active:                 true,
		GeneratedViaRecurrence: true,
		RecurrenceRef:          ref,
		Tags:                   tmpl.Tags,
		CreatedAt:              now.UTC(),
	}
	if err := p.storage.CreateBills(ctx, []core.Bill{bill}); err != nil {
		return false, err
	}
	return true, nil
}
