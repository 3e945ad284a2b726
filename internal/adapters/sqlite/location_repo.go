package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/pantry/internal/models"
)

// LocationRepository implements secondary.LocationRepository with SQLite.
type LocationRepository struct {
	db *sql.DB
}

// NewLocationRepository creates a new SQLite location repository.
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

const locationSelectCols = "id, user_id, COALESCE(label, ''), street, COALESCE(city, ''), latitude, longitude, is_primary, last_used_at, created_at"

func scanLocation(scanner interface {
	Scan(dest ...any) error
}) (*models.SavedLocation, error) {
	var (
		lat, lng   sql.NullFloat64
		lastUsedAt sql.NullTime
		createdAt  time.Time
	)

	loc := &models.SavedLocation{}
	err := scanner.Scan(
		&loc.ID, &loc.UserID, &loc.Label, &loc.Street, &loc.City,
		&lat, &lng, &loc.IsPrimary, &lastUsedAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if lat.Valid {
		loc.Latitude = &lat.Float64
	}
	if lng.Valid {
		loc.Longitude = &lng.Float64
	}
	if lastUsedAt.Valid {
		loc.LastUsedAt = lastUsedAt.Time
	}
	loc.CreatedAt = createdAt
	return loc, nil
}

// Save persists a new location.
func (r *LocationRepository) Save(ctx context.Context, loc *models.SavedLocation) error {
	var lat, lng sql.NullFloat64
	if loc.Latitude != nil {
		lat = sql.NullFloat64{Float64: *loc.Latitude, Valid: true}
	}
	if loc.Longitude != nil {
		lng = sql.NullFloat64{Float64: *loc.Longitude, Valid: true}
	}
	var lastUsed sql.NullTime
	if !loc.LastUsedAt.IsZero() {
		lastUsed = sql.NullTime{Time: loc.LastUsedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO saved_locations (id, user_id, label, street, city, latitude, longitude, is_primary, last_used_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		loc.ID, loc.UserID, loc.Label, loc.Street, loc.City, lat, lng, loc.IsPrimary, lastUsed, loc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}
	return nil
}

// ListByUser returns a user's locations, primary first, then most
// recently used.
func (r *LocationRepository) ListByUser(ctx context.Context, userID string) ([]*models.SavedLocation, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+locationSelectCols+" FROM saved_locations WHERE user_id = ? ORDER BY is_primary DESC, last_used_at DESC, created_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var locs []*models.SavedLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}

// GetLastUsed returns the most recently used location for a user, or
// nil when none exists.
func (r *LocationRepository) GetLastUsed(ctx context.Context, userID string) (*models.SavedLocation, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+locationSelectCols+" FROM saved_locations WHERE user_id = ? AND last_used_at IS NOT NULL ORDER BY last_used_at DESC LIMIT 1",
		userID,
	)

	loc, err := scanLocation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last-used location: %w", err)
	}
	return loc, nil
}

// SetPrimary promotes one location and demotes the rest of the user's
// locations in the same transaction, keeping at most one primary.
func (r *LocationRepository) SetPrimary(ctx context.Context, id, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin set-primary: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE saved_locations SET is_primary = 0 WHERE user_id = ?", userID,
	); err != nil {
		return fmt.Errorf("failed to demote locations: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE saved_locations SET is_primary = 1 WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to promote location: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("location %s not found for user %s", id, userID)
	}
	return tx.Commit()
}

// TouchLastUsed bumps a location's last_used_at.
func (r *LocationRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE saved_locations SET last_used_at = ? WHERE id = ?", at, id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch location: %w", err)
	}
	return nil
}

// Delete removes a location.
func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM saved_locations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return nil
}

// Clear deletes every saved location.
func (r *LocationRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM saved_locations")
	if err != nil {
		return fmt.Errorf("failed to clear locations: %w", err)
	}
	return nil
}
