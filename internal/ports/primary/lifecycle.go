package primary

import (
	"context"

	"github.com/example/pantry/internal/models"
)

// Registration states owned by the lifecycle coordinator.
const (
	RegStateIdle        = "idle"
	RegStateRegistering = "registering"
	RegStateActive      = "active"
)

// LifecycleService ensures exactly one current registration per scope.
type LifecycleService interface {
	// EnsureRegistered is idempotent: if a registration for the scope
	// is in flight or already current it returns the last recorded one.
	// While a concurrent registration is still in flight and nothing has
	// been recorded yet, it returns (nil, nil); callers must treat a nil
	// registration without error as "in progress" and retry or observe
	// State. Stale registrations and their cache partitions are purged
	// before a fresh registration is recorded.
	EnsureRegistered(ctx context.Context, scopeName, pagePath string) (*models.Registration, error)
	// State returns idle, registering or active for a scope.
	State(scopeName string) string
}

// MaintenanceService handles explicit user-initiated data management.
type MaintenanceService interface {
	// ClearAll erases every local partition (menu, outbox, locations,
	// caches, registrations) and aborts any running sync cycle.
	ClearAll(ctx context.Context) error
	// CleanExpiredAssets deletes cached responses older than the
	// configured retention window; returns how many were removed.
	CleanExpiredAssets(ctx context.Context) (int64, error)
}
