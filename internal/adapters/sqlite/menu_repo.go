package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/pantry/internal/models"
)

// MenuRepository implements secondary.MenuRepository with SQLite.
type MenuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new SQLite menu repository.
func NewMenuRepository(db *sql.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

// Has reports whether a non-empty snapshot exists.
func (r *MenuRepository) Has(ctx context.Context) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM menu_categories) + (SELECT COUNT(*) FROM menu_items)",
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check cached menu: %w", err)
	}
	return n > 0, nil
}

// Get loads the full snapshot. An empty store yields an empty snapshot.
func (r *MenuRepository) Get(ctx context.Context) (*models.MenuSnapshot, error) {
	snap := &models.MenuSnapshot{}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, COALESCE(description, ''), COALESCE(icon, ''), COALESCE(image_url, ''), sort_order, active FROM menu_categories ORDER BY sort_order ASC, name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.ImageURL, &c.SortOrder, &c.Active); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		snap.Categories = append(snap.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := r.db.QueryContext(ctx,
		"SELECT id, COALESCE(category_id, ''), name, COALESCE(description, ''), price_cents, COALESCE(image_url, ''), available, sort_order FROM menu_items ORDER BY sort_order ASC, name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to load menu items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var m models.MenuItem
		if err := itemRows.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.PriceCents, &m.ImageURL, &m.Available, &m.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		snap.Items = append(snap.Items, m)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	var cachedAt sql.NullTime
	err = r.db.QueryRowContext(ctx, "SELECT cached_at FROM menu_meta WHERE id = 1").Scan(&cachedAt)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to load menu meta: %w", err)
	}
	if cachedAt.Valid {
		snap.CachedAt = cachedAt.Time
	}
	return snap, nil
}

// Replace swaps the entire snapshot in one transaction so readers
// never observe a mix of two menu generations. Items referencing a
// category outside cats are stored with a NULL category
// (uncategorized).
func (r *MenuRepository) Replace(ctx context.Context, cats []models.Category, items []models.MenuItem, cachedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM menu_items"); err != nil {
		return fmt.Errorf("failed to clear menu items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM menu_categories"); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}

	known := make(map[string]bool, len(cats))
	for _, c := range cats {
		known[c.ID] = true
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO menu_categories (id, name, description, icon, image_url, sort_order, active) VALUES (?, ?, ?, ?, ?, ?, ?)",
			c.ID, c.Name, c.Description, c.Icon, c.ImageURL, c.SortOrder, c.Active,
		); err != nil {
			return fmt.Errorf("failed to insert category %s: %w", c.ID, err)
		}
	}

	for _, m := range items {
		var categoryID sql.NullString
		if m.CategoryID != "" && known[m.CategoryID] {
			categoryID = sql.NullString{String: m.CategoryID, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO menu_items (id, category_id, name, description, price_cents, image_url, available, sort_order) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			m.ID, categoryID, m.Name, m.Description, m.PriceCents, m.ImageURL, m.Available, m.SortOrder,
		); err != nil {
			return fmt.Errorf("failed to insert menu item %s: %w", m.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO menu_meta (id, cached_at) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET cached_at = excluded.cached_at",
		cachedAt,
	); err != nil {
		return fmt.Errorf("failed to record snapshot time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit menu replace: %w", err)
	}
	return nil
}

// Clear erases the snapshot.
func (r *MenuRepository) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin clear: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM menu_items",
		"DELETE FROM menu_categories",
		"DELETE FROM menu_meta",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear menu: %w", err)
		}
	}
	return tx.Commit()
}
