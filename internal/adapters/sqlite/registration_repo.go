package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/pantry/internal/models"
)

// RegistrationRepository implements secondary.RegistrationRepository
// with SQLite.
type RegistrationRepository struct {
	db *sql.DB
}

// NewRegistrationRepository creates a new SQLite registration repository.
func NewRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Get returns the registration for a scope, nil when none exists.
func (r *RegistrationRepository) Get(ctx context.Context, scopeName string) (*models.Registration, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT scope, script_identity, registered_at FROM registrations WHERE scope = ?",
		scopeName,
	)

	reg := &models.Registration{}
	err := row.Scan(&reg.Scope, &reg.ScriptIdentity, &reg.RegisteredAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

// Upsert records the current controlling identity for a scope.
func (r *RegistrationRepository) Upsert(ctx context.Context, reg *models.Registration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO registrations (scope, script_identity, registered_at) VALUES (?, ?, ?)
		 ON CONFLICT(scope) DO UPDATE SET script_identity = excluded.script_identity, registered_at = excluded.registered_at`,
		reg.Scope, reg.ScriptIdentity, reg.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert registration: %w", err)
	}
	return nil
}

// Delete removes a scope's registration.
func (r *RegistrationRepository) Delete(ctx context.Context, scopeName string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM registrations WHERE scope = ?", scopeName)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	return nil
}

// Clear removes every registration.
func (r *RegistrationRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM registrations")
	if err != nil {
		return fmt.Errorf("failed to clear registrations: %w", err)
	}
	return nil
}
