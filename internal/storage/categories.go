package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"contas/internal/core"
)

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO category (id, account_id, label) VALUES (?, ?, ?)`,
		c.ID, c.AccountID, c.Label)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE category SET label = ? WHERE id = ? AND account_id = ?`,
		c.Label, c.ID, c.AccountID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, accountID, id string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, label FROM category WHERE id = ? AND account_id = ?`,
		id, accountID).Scan(&c.ID, &c.AccountID, &c.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, accountID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, label FROM category WHERE account_id = ? ORDER BY label`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Label); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM category WHERE id = ? AND account_id = ?`, id, accountID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) InsertTag(ctx context.Context, t core.Tag) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tag (id, account_id, label) VALUES (?, ?, ?)`,
		t.ID, t.AccountID, t.Label)
	if err != nil {
		return fmt.Errorf("insert tag: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateTag(ctx context.Context, t core.Tag) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tag SET label = ? WHERE id = ? AND account_id = ?`,
		t.Label, t.ID, t.AccountID)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListTags(ctx context.Context, accountID string) ([]core.Tag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, label FROM tag WHERE account_id = ? ORDER BY label`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	return collectTags(rows)
}

// ListTagsByIDs resolves a set of tag ids, scoped to the account. Missing
// or foreign ids are simply absent from the result.
func (r *SQLiteRepository) ListTagsByIDs(ctx context.Context, accountID string, ids []string) ([]core.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := []any{accountID}
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, label FROM tag WHERE account_id = ? AND id IN (`+placeholders(len(ids))+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list tags by ids: %w", err)
	}
	defer rows.Close()
	return collectTags(rows)
}

func (r *SQLiteRepository) DeleteTag(ctx context.Context, accountID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tag WHERE id = ? AND account_id = ?`, id, accountID)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func collectTags(rows *sql.Rows) ([]core.Tag, error) {
	var out []core.Tag
	for rows.Next() {
		var t core.Tag
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Label); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
