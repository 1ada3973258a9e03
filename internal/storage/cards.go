package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contas/internal/core"
)

func (r *SQLiteRepository) InsertCard(ctx context.Context, c core.Card) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO card (id, account_id, label, amount_limit_cents, close_day, pay_day, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.AccountID, c.Label, c.AmountLimit.Cents, c.CloseDay, c.PayDay, fmtTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateCard(ctx context.Context, c core.Card) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE card SET label = ?, amount_limit_cents = ?, close_day = ?, pay_day = ?
		 WHERE id = ? AND account_id = ?`,
		c.Label, c.AmountLimit.Cents, c.CloseDay, c.PayDay, c.ID, c.AccountID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetCard(ctx context.Context, accountID, id string) (core.Card, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, label, amount_limit_cents, close_day, pay_day, created_at
		 FROM card WHERE id = ? AND account_id = ?`, id, accountID)
	return scanCard(row.Scan)
}

func (r *SQLiteRepository) ListCards(ctx context.Context, accountID string) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, label, amount_limit_cents, close_day, pay_day, created_at
		 FROM card WHERE account_id = ? ORDER BY label`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []core.Card
	for rows.Next() {
		c, err := scanCard(rows.Scan)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM card WHERE id = ? AND account_id = ?`, id, accountID)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanCard(scan func(...any) error) (core.Card, error) {
	var c core.Card
	var createdAt string
	err := scan(&c.ID, &c.AccountID, &c.Label, &c.AmountLimit.Cents, &c.CloseDay, &c.PayDay, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Card{}, core.ErrNotFound
	}
	if err != nil {
		return core.Card{}, fmt.Errorf("scan card: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}
