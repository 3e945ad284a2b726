// Package secondary defines the driven-side ports: repositories over
// the local sqlite store and the client for the remote backend.
package secondary

import (
	"context"
	"time"

	"github.com/example/pantry/internal/models"
)

// OutboxRepository persists pending orders awaiting delivery.
type OutboxRepository interface {
	Enqueue(ctx context.Context, order *models.PendingOrder) error
	GetByLocalID(ctx context.Context, localID string) (*models.PendingOrder, error)
	// List returns entries oldest-first. An empty status returns all.
	List(ctx context.Context, status string) ([]*models.PendingOrder, error)
	// ClaimInFlight atomically transitions an entry to in_flight and
	// reports whether this caller won the claim. It is the per-entry
	// delivery lock.
	ClaimInFlight(ctx context.Context, localID string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, localID string, terminal bool, at time.Time) error
	MarkSynced(ctx context.Context, localID, serverOrderID string) error
	Remove(ctx context.Context, localID string) error
	CountByStatus(ctx context.Context) (map[string]int, error)
	// ResetStaleInFlight requeues entries stuck in_flight since before
	// cutoff, marking them failed so the next cycle retries them.
	ResetStaleInFlight(ctx context.Context, cutoff time.Time) (int64, error)
	Clear(ctx context.Context) error
}

// MenuRepository persists the denormalized menu snapshot.
type MenuRepository interface {
	Has(ctx context.Context) (bool, error)
	Get(ctx context.Context) (*models.MenuSnapshot, error)
	// Replace swaps the whole snapshot in one transaction. Items
	// referencing a category absent from cats are stored uncategorized.
	Replace(ctx context.Context, cats []models.Category, items []models.MenuItem, cachedAt time.Time) error
	Clear(ctx context.Context) error
}

// LocationRepository persists saved delivery locations.
type LocationRepository interface {
	Save(ctx context.Context, loc *models.SavedLocation) error
	ListByUser(ctx context.Context, userID string) ([]*models.SavedLocation, error)
	GetLastUsed(ctx context.Context, userID string) (*models.SavedLocation, error)
	// SetPrimary promotes one location and demotes every other location
	// of the same user in a single transaction.
	SetPrimary(ctx context.Context, id, userID string) error
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// CacheRepository persists cache partitions and their entries.
type CacheRepository interface {
	EnsurePartition(ctx context.Context, p *models.CachePartition) error
	// ListPartitions returns partitions in a namespace; empty namespace
	// returns all.
	ListPartitions(ctx context.Context, namespace string) ([]*models.CachePartition, error)
	DeletePartition(ctx context.Context, name string) error
	Get(ctx context.Context, partition, requestKey string) (*models.CacheEntry, error)
	// Put upserts an entry, bumping its generation.
	Put(ctx context.Context, entry *models.CacheEntry) error
	// CompareAndPut writes only if the stored generation still equals
	// expected (0 = entry absent). Returns false when a newer write won
	// the race.
	CompareAndPut(ctx context.Context, entry *models.CacheEntry, expected int64) (bool, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
	Clear(ctx context.Context) error
}

// RegistrationRepository persists which script identity governs each
// scope.
type RegistrationRepository interface {
	// Get returns nil without error when the scope has no registration.
	Get(ctx context.Context, scopeName string) (*models.Registration, error)
	Upsert(ctx context.Context, reg *models.Registration) error
	Delete(ctx context.Context, scopeName string) error
	Clear(ctx context.Context) error
}
