// Package primary defines the driving-side ports: the service
// interfaces the CLI and gateways call into.
package primary

import (
	"context"
	"time"

	"github.com/example/pantry/internal/models"
)

// SyncResult summarizes one outbox drain.
type SyncResult struct {
	Success int
	Failed  int
	Skipped int
}

// SyncStatus is a point-in-time view of the sync engine.
type SyncStatus struct {
	PendingOrders   int
	FailedOrders    int
	TerminalOrders  int
	SyncInProgress  bool
	LastSyncAttempt time.Time
}

// SyncService reconciles the order outbox with the backend.
type SyncService interface {
	// EnqueueOrder appends an order to the outbox and returns its
	// client-generated local id.
	EnqueueOrder(ctx context.Context, payload models.OrderPayload) (string, error)
	// SubmitOrder tries the backend directly and falls back to the
	// outbox when delivery fails; the checkout path never errors out
	// because the network is down.
	SubmitOrder(ctx context.Context, payload models.OrderPayload) (*SubmitOutcome, error)
	ListPendingOrders(ctx context.Context, status string) ([]*models.PendingOrder, error)
	RemoveOrder(ctx context.Context, localID string) error
	// SyncPendingOrders runs one drain cycle. A cycle starting while
	// another runs is a no-op returning the in-progress state.
	SyncPendingOrders(ctx context.Context) (SyncResult, error)
	// ForceSyncAll drains immediately, ignoring per-entry backoff
	// windows. Safe to call while auto-sync runs.
	ForceSyncAll(ctx context.Context) (SyncResult, error)
	GetSyncStatus(ctx context.Context) (SyncStatus, error)
	// StartAutoSync begins the recurring drain; idempotent.
	StartAutoSync(ctx context.Context)
	StopAutoSync()
}

// SubmitOutcome reports how an order submission was handled.
type SubmitOutcome struct {
	// Delivered is true when the backend acknowledged immediately.
	Delivered     bool
	ServerOrderID string
	// LocalID is set when the order was queued for later delivery.
	LocalID string
}
