package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contas/internal/core"
)

const billColumns = `id, account_id, category_id, card_id, root_bill_id, type, buy_date, bill_date,
	description, amount_cents, installments, installment_index, active,
	generated_via_recurrence, recurrence_ref, paid, paid_date, created_at`

// CreateBills inserts a batch of bills and their tag links in one
// transaction, so an installment chain is either fully persisted or not
// at all.
func (r *SQLiteRepository) CreateBills(ctx context.Context, bills []core.Bill) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, b := range bills {
			if err := insertBill(ctx, tx, b); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertBill(ctx context.Context, tx *sql.Tx, b core.Bill) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO bill (`+billColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.AccountID, nullString(b.CategoryID), nullString(b.CardID), nullString(b.RootBillID),
		string(b.Type), fmtTime(b.BuyDate), fmtTime(b.BillDate),
		b.Description, b.Amount.Cents, b.Installments, b.InstallmentIndex, b.Active,
		b.GeneratedViaRecurrence, nullString(string(b.RecurrenceRef)), b.Paid,
		fmtNullTime(b.PaidDate), fmtTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}
	for _, t := range b.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bill_tag (bill_id, tag_id) VALUES (?, ?)`, b.ID, t.ID); err != nil {
			return fmt.Errorf("insert bill tag: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) GetBill(ctx context.Context, accountID, id string) (core.Bill, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bill WHERE id = ? AND account_id = ?`, id, accountID)
	b, err := scanBill(row.Scan)
	if err != nil {
		return core.Bill{}, err
	}
	bills, err := r.attachTags(ctx, []core.Bill{b})
	if err != nil {
		return core.Bill{}, err
	}
	return bills[0], nil
}

// ListBills returns the account's bills matching the filter, ordered by
// the filtered date field descending and installment index ascending.
// Recurrence templates are never included.
func (r *SQLiteRepository) ListBills(ctx context.Context, accountID string, f core.BillFilter) ([]core.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM bill WHERE account_id = ? AND type != ?`
	args := []any{accountID, string(core.BillRecurrence)}

	dateColumn := "bill_date"
	if f.DateField == core.FilterBuy {
		dateColumn = "buy_date"
	}
	if !f.Start.IsZero() && !f.End.IsZero() {
		query += ` AND ` + dateColumn + ` >= ? AND ` + dateColumn + ` <= ?`
		args = append(args, fmtTime(f.Start), fmtTime(f.End))
	}
	if len(f.CardIDs) > 0 {
		query += ` AND card_id IN (` + placeholders(len(f.CardIDs)) + `)`
		for _, id := range f.CardIDs {
			args = append(args, id)
		}
	}
	if len(f.CategoryIDs) > 0 {
		query += ` AND category_id IN (` + placeholders(len(f.CategoryIDs)) + `)`
		for _, id := range f.CategoryIDs {
			args = append(args, id)
		}
	}
	if len(f.TagIDs) > 0 {
		query += ` AND EXISTS (SELECT 1 FROM bill_tag bt WHERE bt.bill_id = bill.id
			AND bt.tag_id IN (` + placeholders(len(f.TagIDs)) + `))`
		for _, id := range f.TagIDs {
			args = append(args, id)
		}
	}
	if len(f.Types) > 0 {
		query += ` AND type IN (` + placeholders(len(f.Types)) + `)`
		for _, t := range f.Types {
			args = append(args, string(t))
		}
	}
	// Paid and unpaid both set (or both unset) means no paid filter.
	if f.Paid && !f.Unpaid {
		query += ` AND paid = 1`
	} else if f.Unpaid && !f.Paid {
		query += ` AND paid = 0`
	}
	query += ` ORDER BY ` + dateColumn + ` DESC, installment_index ASC`

	bills, err := r.queryBills(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return r.attachTags(ctx, bills)
}

// ListInvoiceBills returns the card's non-recurrence bills whose billing
// date falls in [from, to], newest purchases first.
func (r *SQLiteRepository) ListInvoiceBills(ctx context.Context, accountID, cardID string, from, to time.Time) ([]core.Bill, error) {
	bills, err := r.queryBills(ctx,
		`SELECT `+billColumns+` FROM bill
		 WHERE account_id = ? AND card_id = ? AND type != ?
		   AND bill_date >= ? AND bill_date <= ?
		 ORDER BY buy_date DESC`,
		accountID, cardID, string(core.BillRecurrence), fmtTime(from), fmtTime(to))
	if err != nil {
		return nil, fmt.Errorf("list invoice bills: %w", err)
	}
	return r.attachTags(ctx, bills)
}

// ListUnpaidBills returns all unpaid non-recurrence bills of the account,
// used to derive per-card usage.
func (r *SQLiteRepository) ListUnpaidBills(ctx context.Context, accountID string) ([]core.Bill, error) {
	bills, err := r.queryBills(ctx,
		`SELECT `+billColumns+` FROM bill
		 WHERE account_id = ? AND paid = 0 AND type != ?`,
		accountID, string(core.BillRecurrence))
	if err != nil {
		return nil, fmt.Errorf("list unpaid bills: %w", err)
	}
	return bills, nil
}

// ListCardBills returns every bill attached to a card, templates included.
func (r *SQLiteRepository) ListCardBills(ctx context.Context, accountID, cardID string) ([]core.Bill, error) {
	bills, err := r.queryBills(ctx,
		`SELECT `+billColumns+` FROM bill WHERE account_id = ? AND card_id = ?
		 ORDER BY bill_date DESC`,
		accountID, cardID)
	if err != nil {
		return nil, fmt.Errorf("list card bills: %w", err)
	}
	return r.attachTags(ctx, bills)
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bill WHERE id = ? AND account_id = ?`, id, accountID)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteChainAll removes every bill sharing the root and the root itself,
// atomically.
func (r *SQLiteRepository) DeleteChainAll(ctx context.Context, accountID, rootID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM bill WHERE account_id = ? AND root_bill_id = ?`, accountID, rootID); err != nil {
			return fmt.Errorf("delete chain members: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM bill WHERE account_id = ? AND id = ?`, accountID, rootID); err != nil {
			return fmt.Errorf("delete chain root: %w", err)
		}
		return nil
	})
}

// DeleteChainFrom removes the chain members with installment index at or
// past fromIndex. The root itself is kept (its index is 1 and callers
// handling index 1 use DeleteChainAll).
func (r *SQLiteRepository) DeleteChainFrom(ctx context.Context, accountID, rootID string, fromIndex int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM bill WHERE account_id = ? AND root_bill_id = ? AND installment_index >= ?`,
		accountID, rootID, fromIndex)
	if err != nil {
		return fmt.Errorf("delete chain from index: %w", err)
	}
	return nil
}

// SetBillsPaid flips the paid flag on a set of bills in one transaction.
// paidDate is nil when unmarking.
func (r *SQLiteRepository) SetBillsPaid(ctx context.Context, ids []string, paid bool, paidDate *time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`UPDATE bill SET paid = ?, paid_date = ? WHERE id = ?`,
				paid, fmtNullTime(paidDate), id); err != nil {
				return fmt.Errorf("set bill paid: %w", err)
			}
		}
		return nil
	})
}

// ListActiveRecurrences returns every active recurrence template across
// all accounts, tags attached. The recurrence processor runs for the whole
// instance, not a single account.
func (r *SQLiteRepository) ListActiveRecurrences(ctx context.Context) ([]core.Bill, error) {
	bills, err := r.queryBills(ctx,
		`SELECT `+billColumns+` FROM bill WHERE type = ? AND active = 1`,
		string(core.BillRecurrence))
	if err != nil {
		return nil, fmt.Errorf("list active recurrences: %w", err)
	}
	return r.attachTags(ctx, bills)
}

// CountGeneratedBills reports how many materialized bills exist for a
// template and reference month.
func (r *SQLiteRepository) CountGeneratedBills(ctx context.Context, rootID string, ref core.Ref) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bill
		 WHERE generated_via_recurrence = 1 AND root_bill_id = ? AND recurrence_ref = ? AND active = 1`,
		rootID, string(ref)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count generated bills: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) queryBills(ctx context.Context, query string, args ...any) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []core.Bill
	for rows.Next() {
		b, err := scanBill(rows.Scan)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

func scanBill(scan func(...any) error) (core.Bill, error) {
	var b core.Bill
	var categoryID, cardID, rootBillID, recurrenceRef, paidDate sql.NullString
	var billType, buyDate, billDate, createdAt string
	err := scan(&b.ID, &b.AccountID, &categoryID, &cardID, &rootBillID, &billType,
		&buyDate, &billDate, &b.Description, &b.Amount.Cents,
		&b.Installments, &b.InstallmentIndex, &b.Active,
		&b.GeneratedViaRecurrence, &recurrenceRef, &b.Paid, &paidDate, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, core.ErrNotFound
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("scan bill: %w", err)
	}
	b.CategoryID = categoryID.String
	b.CardID = cardID.String
	b.RootBillID = rootBillID.String
	b.RecurrenceRef = core.Ref(recurrenceRef.String)
	b.Type = core.BillType(billType)
	b.BuyDate = parseTime(buyDate)
	b.BillDate = parseTime(billDate)
	b.PaidDate = parseNullTime(paidDate)
	b.CreatedAt = parseTime(createdAt)
	return b, nil
}

// attachTags loads the tag sets for a batch of bills with one query.
func (r *SQLiteRepository) attachTags(ctx context.Context, bills []core.Bill) ([]core.Bill, error) {
	if len(bills) == 0 {
		return bills, nil
	}
	args := make([]any, len(bills))
	for i, b := range bills {
		args[i] = b.ID
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT bt.bill_id, t.id, t.account_id, t.label
		 FROM bill_tag bt JOIN tag t ON t.id = bt.tag_id
		 WHERE bt.bill_id IN (`+placeholders(len(bills))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("load bill tags: %w", err)
	}
	defer rows.Close()

	byBill := make(map[string][]core.Tag)
	for rows.Next() {
		var billID string
		var t core.Tag
		if err := rows.Scan(&billID, &t.ID, &t.AccountID, &t.Label); err != nil {
			return nil, fmt.Errorf("scan bill tag: %w", err)
		}
		byBill[billID] = append(byBill[billID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range bills {
		bills[i].Tags = byBill[bills[i].ID]
	}
	return bills, nil
}
