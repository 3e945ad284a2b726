package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "add_terminal_flag_to_pending_orders",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_generation_to_cache_entries",
		Up:      migrationV2,
	},
}

// RunMigrations applies any migration newer than the recorded schema
// version. Fresh installs get the full SchemaSQL and jump straight to
// the latest version.
func RunMigrations(database *sql.DB) error {
	if _, err := database.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var current int
	err := database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := m.Up(database); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func migrationV1(database *sql.DB) error {
	if columnExists(database, "pending_orders", "terminal") {
		return nil
	}
	_, err := database.Exec("ALTER TABLE pending_orders ADD COLUMN terminal BOOLEAN NOT NULL DEFAULT 0")
	return err
}

func migrationV2(database *sql.DB) error {
	if columnExists(database, "cache_entries", "generation") {
		return nil
	}
	_, err := database.Exec("ALTER TABLE cache_entries ADD COLUMN generation INTEGER NOT NULL DEFAULT 0")
	return err
}

func columnExists(database *sql.DB, table, column string) bool {
	rows, err := database.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}
