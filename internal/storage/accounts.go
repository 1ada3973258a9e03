package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contas/internal/core"
)

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Email, a.PasswordHash, fmtTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	return r.scanAccount(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM account WHERE id = ?`, id))
}

func (r *SQLiteRepository) GetAccountByEmail(ctx context.Context, email string) (core.Account, error) {
	return r.scanAccount(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM account WHERE email = ?`, email))
}

func (r *SQLiteRepository) scanAccount(row *sql.Row) (core.Account, error) {
	var a core.Account
	var createdAt string
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.CreatedAt = parseTime(createdAt)
	return a, nil
}
