package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/gateway"
)

// ListCategories implements gateway.CategoryStore. An owner's first
// access seeds the default set.
func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	if err := r.ensureDefaultCategories(ctx, ownerID); err != nil {
		return nil, err
	}

	// Defaults keep their seed order; custom entries come newest first.
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, icon, color, is_default, created_at
		FROM categories
		WHERE owner_id = ?
		ORDER BY is_default DESC,
		         CASE WHEN is_default = 1 THEN id ELSE -id END`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]core.Category, 0)
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.Name, &c.Icon, &c.Color, &c.Default, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// AddCategory implements gateway.CategoryStore.
func (r *SQLiteRepository) AddCategory(ctx context.Context, ownerID string, c core.Category) (*core.Category, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := r.ensureDefaultCategories(ctx, ownerID); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories WHERE owner_id = ? AND name = ?`,
		ownerID, c.Name).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("check category name: %w", err)
	}
	if count > 0 {
		return nil, gateway.ErrCategoryExists
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.Default = false

	_, err = tx.ExecContext(ctx, `
		INSERT INTO categories (owner_id, name, icon, color, is_default, created_at)
		VALUES (?, ?, ?, ?, 0, ?)`,
		ownerID, c.Name, c.Icon, c.Color, c.CreatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Category created",
		"owner", ownerID,
		"category", c.Name)

	return &c, nil
}

// RemoveCategory implements gateway.CategoryStore.
func (r *SQLiteRepository) RemoveCategory(ctx context.Context, ownerID string, name string) error {
	if err := r.ensureDefaultCategories(ctx, ownerID); err != nil {
		return err
	}

	var isDefault bool
	err := r.db.QueryRowContext(ctx, `
		SELECT is_default FROM categories WHERE owner_id = ? AND name = ?`,
		ownerID, name).Scan(&isDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("look up category: %w", err)
	}
	if isDefault {
		return gateway.ErrDefaultCategory
	}

	if _, err := r.db.ExecContext(ctx, `
		DELETE FROM categories WHERE owner_id = ? AND name = ?`, ownerID, name); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	slog.InfoContext(ctx, "Category removed",
		"owner", ownerID,
		"category", name)
	return nil
}

func (r *SQLiteRepository) ensureDefaultCategories(ctx context.Context, ownerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM categories WHERE owner_id = ? AND is_default = 1`,
		ownerID).Scan(&count)
	if err != nil {
		return fmt.Errorf("count default categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, c := range core.DefaultCategories() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (owner_id, name, icon, color, is_default, created_at)
			VALUES (?, ?, ?, ?, 1, ?)`,
			ownerID, c.Name, c.Icon, c.Color, now)
		if err != nil {
			return fmt.Errorf("seed default category %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Default categories seeded", "owner", ownerID)
	return nil
}
