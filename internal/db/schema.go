package db

// SchemaSQL is the complete schema for fresh pantry installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All
// repository tests create their in-memory database from GetSchemaSQL(),
// so a repository referencing a column that does not exist here fails
// immediately with "no such column" instead of drifting.
//
// When adding columns or tables:
//  1. Add a migration in internal/db/migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Menu snapshot (denormalized copy of the backend menu)
CREATE TABLE IF NOT EXISTS menu_categories (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	icon TEXT,
	image_url TEXT,
	sort_order INTEGER NOT NULL DEFAULT 0,
	active BOOLEAN NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS menu_items (
	id TEXT PRIMARY KEY,
	category_id TEXT REFERENCES menu_categories(id) ON DELETE SET NULL,
	name TEXT NOT NULL,
	description TEXT,
	price_cents INTEGER NOT NULL,
	image_url TEXT,
	available BOOLEAN NOT NULL DEFAULT 1,
	sort_order INTEGER NOT NULL DEFAULT 0
);

-- Single-row table recording when the snapshot was last refreshed.
CREATE TABLE IF NOT EXISTS menu_meta (
	id INTEGER PRIMARY KEY CHECK(id = 1),
	cached_at DATETIME NOT NULL
);

-- Order outbox
CREATE TABLE IF NOT EXISTS pending_orders (
	local_id TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('queued', 'in_flight', 'failed', 'synced')) DEFAULT 'queued',
	terminal BOOLEAN NOT NULL DEFAULT 0,
	attempts INTEGER NOT NULL DEFAULT 0,
	server_order_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	last_attempt_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_pending_orders_status ON pending_orders(status);
CREATE INDEX IF NOT EXISTS idx_pending_orders_created ON pending_orders(created_at);

-- Saved delivery locations
CREATE TABLE IF NOT EXISTS saved_locations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	label TEXT,
	street TEXT NOT NULL,
	city TEXT,
	latitude REAL,
	longitude REAL,
	is_primary BOOLEAN NOT NULL DEFAULT 0,
	last_used_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_saved_locations_user ON saved_locations(user_id);

-- Cache partitions (one per scope namespace, resource class, version)
CREATE TABLE IF NOT EXISTS cache_partitions (
	name TEXT PRIMARY KEY,
	namespace TEXT NOT NULL,
	class TEXT NOT NULL,
	version TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cache_partitions_ns ON cache_partitions(namespace);

-- Cached responses within a partition
CREATE TABLE IF NOT EXISTS cache_entries (
	partition TEXT NOT NULL REFERENCES cache_partitions(name) ON DELETE CASCADE,
	request_key TEXT NOT NULL,
	status INTEGER NOT NULL,
	content_type TEXT,
	body BLOB,
	generation INTEGER NOT NULL DEFAULT 0,
	stored_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (partition, request_key)
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_stored ON cache_entries(stored_at);

-- Gateway registrations (one per scope)
CREATE TABLE IF NOT EXISTS registrations (
	scope TEXT PRIMARY KEY,
	script_identity TEXT NOT NULL,
	registered_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// GetSchemaSQL returns the authoritative schema. Tests must use this
// instead of hardcoding CREATE TABLE statements.
func GetSchemaSQL() string {
	return SchemaSQL
}

// InitSchema applies the schema to the shared connection.
func InitSchema() error {
	database, err := GetDB()
	if err != nil {
		return err
	}
	if _, err := database.Exec(SchemaSQL); err != nil {
		return err
	}
	return RunMigrations(database)
}
