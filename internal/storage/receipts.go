package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contas/internal/core"
)

const receiptColumns = `id, account_id, card_id, bank_account_id, reference,
	total_amount_cents, paid, paid_amount_cents, payment_date, debited`

// SaveReceipt upserts a receipt keyed on (card, reference); the unique
// constraint keeps at most one per invoice period.
func (r *SQLiteRepository) SaveReceipt(ctx context.Context, rc core.Receipt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO receipt (`+receiptColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (card_id, reference) DO UPDATE SET
			bank_account_id = excluded.bank_account_id,
			total_amount_cents = excluded.total_amount_cents,
			paid = excluded.paid,
			paid_amount_cents = excluded.paid_amount_cents,
			payment_date = excluded.payment_date,
			debited = excluded.debited`,
		rc.ID, rc.AccountID, rc.CardID, nullString(rc.BankAccountID), string(rc.Reference),
		rc.TotalAmount.Cents, rc.Paid, rc.PaidAmount.Cents, fmtNullTime(rc.PaymentDate), rc.Debited)
	if err != nil {
		return fmt.Errorf("save receipt: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetReceiptByRef(ctx context.Context, accountID, cardID string, ref core.Ref) (core.Receipt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+receiptColumns+` FROM receipt
		 WHERE account_id = ? AND card_id = ? AND reference = ?`,
		accountID, cardID, string(ref))
	return scanReceipt(row.Scan)
}

func (r *SQLiteRepository) GetReceipt(ctx context.Context, accountID, cardID, id string) (core.Receipt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+receiptColumns+` FROM receipt
		 WHERE account_id = ? AND card_id = ? AND id = ?`,
		accountID, cardID, id)
	return scanReceipt(row.Scan)
}

// ListReceiptsByRef returns every receipt of the account for one
// reference period, across cards.
func (r *SQLiteRepository) ListReceiptsByRef(ctx context.Context, accountID string, ref core.Ref) ([]core.Receipt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+receiptColumns+` FROM receipt WHERE account_id = ? AND reference = ?`,
		accountID, string(ref))
	if err != nil {
		return nil, fmt.Errorf("list receipts by ref: %w", err)
	}
	defer rows.Close()

	var out []core.Receipt
	for rows.Next() {
		rc, err := scanReceipt(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteReceipt(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM receipt WHERE id = ? AND account_id = ?`, id, accountID)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanReceipt(scan func(...any) error) (core.Receipt, error) {
	var rc core.Receipt
	var bankAccountID, paymentDate sql.NullString
	var reference string
	err := scan(&rc.ID, &rc.AccountID, &rc.CardID, &bankAccountID, &reference,
		&rc.TotalAmount.Cents, &rc.Paid, &rc.PaidAmount.Cents, &paymentDate, &rc.Debited)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Receipt{}, core.ErrNotFound
	}
	if err != nil {
		return core.Receipt{}, fmt.Errorf("scan receipt: %w", err)
	}
	rc.BankAccountID = bankAccountID.String
	rc.Reference = core.Ref(reference)
	rc.PaymentDate = parseNullTime(paymentDate)
	return rc, nil
}
