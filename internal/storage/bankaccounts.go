package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contas/internal/core"
)

func (r *SQLiteRepository) InsertBankAccount(ctx context.Context, a core.BankAccount) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bank_account (id, account_id, label, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.AccountID, a.Label, fmtTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert bank account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateBankAccount(ctx context.Context, a core.BankAccount) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bank_account SET label = ? WHERE id = ? AND account_id = ?`,
		a.Label, a.ID, a.AccountID)
	if err != nil {
		return fmt.Errorf("update bank account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetBankAccount(ctx context.Context, accountID, id string) (core.BankAccount, error) {
	var a core.BankAccount
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, label, created_at FROM bank_account WHERE id = ? AND account_id = ?`,
		id, accountID).Scan(&a.ID, &a.AccountID, &a.Label, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BankAccount{}, core.ErrNotFound
	}
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("get bank account: %w", err)
	}
	a.CreatedAt = parseTime(createdAt)
	return a, nil
}

func (r *SQLiteRepository) ListBankAccounts(ctx context.Context, accountID string) ([]core.BankAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, label, created_at FROM bank_account
		 WHERE account_id = ? ORDER BY label`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	defer rows.Close()

	var out []core.BankAccount
	for rows.Next() {
		var a core.BankAccount
		var createdAt string
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Label, &createdAt); err != nil {
			return nil, fmt.Errorf("scan bank account: %w", err)
		}
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteBankAccount(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bank_account WHERE id = ? AND account_id = ?`, id, accountID)
	if err != nil {
		return fmt.Errorf("delete bank account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) InsertEntry(ctx context.Context, e core.BankAccountEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bank_account_entry
		 (id, bank_account_id, receipt_id, bill_id, description, amount_cents, type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.BankAccountID, nullString(e.ReceiptID), nullString(e.BillID),
		e.Description, e.Amount.Cents, string(e.Type), fmtTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert bank account entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context, bankAccountID string) ([]core.BankAccountEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, bank_account_id, receipt_id, bill_id, description, amount_cents, type, created_at
		 FROM bank_account_entry WHERE bank_account_id = ? ORDER BY rowid DESC`, bankAccountID)
	if err != nil {
		return nil, fmt.Errorf("list bank account entries: %w", err)
	}
	defer rows.Close()

	var out []core.BankAccountEntry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetEntryByReceipt finds the debit entry a payment booked against a bank
// account, if it still exists.
func (r *SQLiteRepository) GetEntryByReceipt(ctx context.Context, bankAccountID, receiptID string) (core.BankAccountEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, bank_account_id, receipt_id, bill_id, description, amount_cents, type, created_at
		 FROM bank_account_entry WHERE bank_account_id = ? AND receipt_id = ?`,
		bankAccountID, receiptID)
	return scanEntry(row.Scan)
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bank_account_entry WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bank account entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Balance derives the account's running total: the most recent value-type
// anchor (insertion order) plus all credit/debit deltas inserted after it.
func (r *SQLiteRepository) Balance(ctx context.Context, bankAccountID string) (core.Money, error) {
	var anchorCents, anchorRow int64
	err := r.db.QueryRowContext(ctx,
		`SELECT amount_cents, rowid FROM bank_account_entry
		 WHERE bank_account_id = ? AND type = ?
		 ORDER BY rowid DESC LIMIT 1`,
		bankAccountID, string(core.EntryValue)).Scan(&anchorCents, &anchorRow)
	if errors.Is(err, sql.ErrNoRows) {
		anchorCents, anchorRow = 0, 0
	} else if err != nil {
		return core.Money{}, fmt.Errorf("find balance anchor: %w", err)
	}

	var deltaCents int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE type WHEN ? THEN amount_cents ELSE -amount_cents END), 0)
		 FROM bank_account_entry
		 WHERE bank_account_id = ? AND type != ? AND rowid > ?`,
		string(core.EntryCredit), bankAccountID, string(core.EntryValue), anchorRow).Scan(&deltaCents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum balance deltas: %w", err)
	}

	return core.Money{Cents: anchorCents + deltaCents}, nil
}

func scanEntry(scan func(...any) error) (core.BankAccountEntry, error) {
	var e core.BankAccountEntry
	var receiptID, billID sql.NullString
	var entryType, createdAt string
	err := scan(&e.ID, &e.BankAccountID, &receiptID, &billID, &e.Description,
		&e.Amount.Cents, &entryType, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BankAccountEntry{}, core.ErrNotFound
	}
	if err != nil {
		return core.BankAccountEntry{}, fmt.Errorf("scan bank account entry: %w", err)
	}
	e.ReceiptID = receiptID.String
	e.BillID = billID.String
	e.Type = core.EntryType(entryType)
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}
