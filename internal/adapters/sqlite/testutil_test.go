// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the SINGLE POINT where the database schema is loaded for
// tests. All test setup uses db.GetSchemaSQL() so tests run against the
// authoritative schema, preventing drift between test and production.
// Do not hardcode CREATE TABLE statements in test files.
package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/pantry/internal/adapters/sqlite"
	"github.com/example/pantry/internal/db"
	"github.com/example/pantry/internal/models"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	// Use the authoritative schema from schema.go
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedOrder enqueues a test order and returns its local id.
func seedOrder(t *testing.T, repo *sqlite.OutboxRepository, localID string, createdAt time.Time) string {
	t.Helper()
	if localID == "" {
		localID = "order-001"
	}
	err := repo.Enqueue(context.Background(), &models.PendingOrder{
		LocalID: localID,
		Payload: models.OrderPayload{
			CustomerName: "Test Customer",
			Items: []models.OrderLine{
				{MenuItemID: "item-1", Name: "Margherita", Quantity: 1, PriceCents: 1250},
			},
			TotalCents: 1250,
		},
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("failed to seed order: %v", err)
	}
	return localID
}

// seedPartition inserts a test cache partition and returns its name.
func seedPartition(t *testing.T, repo *sqlite.CacheRepository, name, namespace, class, version string) string {
	t.Helper()
	if name == "" {
		name = "pantry-customer-static-v4"
		namespace = "pantry-customer"
		class = "static"
		version = "v4"
	}
	err := repo.EnsurePartition(context.Background(), &models.CachePartition{
		Name: name, Namespace: namespace, Class: class, Version: version,
	})
	if err != nil {
		t.Fatalf("failed to seed partition: %v", err)
	}
	return name
}

// seedLocation inserts a test location and returns its id.
func seedLocation(t *testing.T, repo *sqlite.LocationRepository, id, userID string, primary bool) string {
	t.Helper()
	if id == "" {
		id = "loc-001"
	}
	if userID == "" {
		userID = "user-1"
	}
	err := repo.Save(context.Background(), &models.SavedLocation{
		ID: id, UserID: userID, Street: "12 Flour St", City: "Dough City",
		IsPrimary: primary, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to seed location: %v", err)
	}
	return id
}
