package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/pantry/internal/core/backoff"
	"github.com/example/pantry/internal/models"
	"github.com/example/pantry/internal/ports/secondary"
)

func testSyncConfig() SyncConfig {
	return SyncConfig{
		Interval:      time.Minute,
		Backoff:       backoff.Policy{Base: 5 * time.Second, Cap: 5 * time.Minute},
		StaleInFlight: 10 * time.Minute,
	}
}

func testPayload() models.OrderPayload {
	return models.OrderPayload{
		CustomerName: "Ada",
		Items: []models.OrderLine{
			{MenuItemID: "item-1", Name: "Margherita", Quantity: 1, PriceCents: 1200},
		},
		SubtotalCents: 1200,
		TotalCents:    1200,
	}
}

func TestEnqueueOrder(t *testing.T) {
	repo := newMockOutboxRepository()
	svc := NewSyncService(repo, &mockBackendClient{}, testSyncConfig(), nil)

	localID, err := svc.EnqueueOrder(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("EnqueueOrder failed: %v", err)
	}
	if localID == "" {
		t.Fatal("expected a local id")
	}

	order := repo.orders[localID]
	if order == nil {
		t.Fatal("order not stored")
	}
	if order.Status != models.OrderQueued {
		t.Errorf("expected status queued, got %s", order.Status)
	}
	if order.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestEnqueueOrderStoreFailure(t *testing.T) {
	repo := newMockOutboxRepository()
	repo.enqueueErr = errors.New("disk full")
	svc := NewSyncService(repo, &mockBackendClient{}, testSyncConfig(), nil)

	if _, err := svc.EnqueueOrder(context.Background(), testPayload()); err == nil {
		t.Fatal("expected error when store is unavailable")
	}
}

func TestSubmitOrderDelivered(t *testing.T) {
	repo := newMockOutboxRepository()
	backend := &mockBackendClient{receipt: &secondary.OrderReceipt{OrderID: "srv-42", Status: "accepted"}}
	svc := NewSyncService(repo, backend, testSyncConfig(), nil)

	outcome, err := svc.SubmitOrder(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("SubmitOrder failed: %v", err)
	}
	if !outcome.Delivered {
		t.Error("expected direct delivery")
	}
	if outcome.ServerOrderID != "srv-42" {
		t.Errorf("expected server order id srv-42, got %s", outcome.ServerOrderID)
	}
	if len(repo.orders) != 0 {
		t.Error("delivered order must not be queued")
	}
}

func TestSubmitOrderFallsBackToOutbox(t *testing.T) {
	repo := newMockOutboxRepository()
	backend := &mockBackendClient{submitErr: errors.New("connection refused")}
	svc := NewSyncService(repo, backend, testSyncConfig(), nil)

	outcome, err := svc.SubmitOrder(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("SubmitOrder must not fail when the backend is down: %v", err)
	}
	if outcome.Delivered {
		t.Error("expected delivery to have failed")
	}
	if outcome.LocalID == "" {
		t.Fatal("expected the order to be queued")
	}

	order := repo.orders[outcome.LocalID]
	if order == nil {
		t.Fatal("order not stored")
	}
	if order.Terminal {
		t.Error("network failure must not be terminal")
	}
}

func TestSubmitOrderTerminalRejectionStaysVisible(t *testing.T) {
	repo := newMockOutboxRepository()
	backend := &mockBackendClient{submitErr: &secondary.StatusError{Code: 422}}
	svc := NewSyncService(repo, backend, testSyncConfig(), nil)

	outcome, err := svc.SubmitOrder(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("SubmitOrder failed: %v", err)
	}

	order := repo.orders[outcome.LocalID]
	if order == nil {
		t.Fatal("rejected order must stay in the outbox")
	}
	if !order.Terminal {
		t.Error("422 rejection must be terminal")
	}
	if order.Status != models.OrderFailed {
		t.Errorf("expected status failed, got %s", order.Status)
	}
}

func TestSyncPendingOrdersDrainsOldestFirst(t *testing.T) {
	repo := newMockOutboxRepository()
	base := time.Now().UTC()
	for i, id := range []string{"c", "a", "b"} {
		repo.orders[id] = &models.PendingOrder{
			LocalID:   id,
			Payload:   testPayload(),
			Status:    models.OrderQueued,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	backend := &mockBackendClient{}
	svc := NewSyncService(repo, backend, testSyncConfig(), nil)

	result, err := svc.SyncPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("SyncPendingOrders failed: %v", err)
	}
	if result.Success != 3 {
		t.Errorf("expected 3 synced, got %d", result.Success)
	}
	if backend.submitCalls != 3 {
		t.Errorf("expected 3 submissions, got %d", backend.submitCalls)
	}
	if len(repo.orders) != 0 {
		t.Errorf("synced orders must be removed, %d left", len(repo.orders))
	}
}

func TestSyncPendingOrdersRespectsBackoff(t *testing.T) {
	repo := newMockOutboxRepository()
	now := time.Now().UTC()
	repo.orders["recent"] = &models.PendingOrder{
		LocalID:       "recent",
		Status:        models.OrderFailed,
		Attempts:      3,
		CreatedAt:     now.Add(-time.Hour),
		LastAttemptAt: now.Add(-time.Second),
	}
	backend := &mockBackendClient{}
	svc := NewSyncService(repo, backend, testSyncConfig(), nil)

	result, err := svc.SyncPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("SyncPendingOrders failed: %v", err)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", result.Skipped)
	}
	if backend.submitCalls != 0 {
		t.Error("entry inside its backoff window must not be attempted")
	}
}

func TestForceSyncIgnoresBackoffAndTerminal(t *testing.T) {
	repo := newMockOutboxRepository()
	now := time.Now().UTC()
	repo.orders["stuck"] = &models.PendingOrder{
		LocalID:       "stuck",
		Status:        models.OrderFailed,
		Terminal:      true,
		Attempts:      5,
		CreatedAt:     now.Add(-time.Hour),
		LastAttemptAt: now,
	}
	backend := &mockBackendClient{}
	svc := NewSyncService(repo, backend, testSyncConfig(), nil)

	result, err := svc.ForceSyncAll(context.Background())
	if err != nil {
		t.Fatalf("ForceSyncAll failed: %v", err)
	}
	if result.Success != 1 {
		t.Errorf("expected forced delivery, got %+v", result)
	}
}

func TestSyncMarksTransientFailureRetryable(t *testing.T) {
	repo := newMockOutboxRepository()
	repo.orders["o1"] = &models.PendingOrder{
		LocalID:   "o1",
		Status:    models.OrderQueued,
		CreatedAt: time.Now().UTC().Add(-time.Minute),
	}
	backend := &mockBackendClient{submitErr: &secondary.StatusError{Code: 503}}
	svc := NewSyncService(repo, backend, testSyncConfig(), nil)

	result, err := svc.SyncPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("SyncPendingOrders failed: %v", err)
	}
	if result.Failed != 1 {
		t.Errorf("expected 1 failed, got %+v", result)
	}

	order := repo.orders["o1"]
	if order.Terminal {
		t.Error("503 must stay retryable")
	}
	if order.Status != models.OrderFailed {
		t.Errorf("expected status failed, got %s", order.Status)
	}
	if order.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", order.Attempts)
	}
}

func TestSyncMarksClientRejectionTerminal(t *testing.T) {
	repo := newMockOutboxRepository()
	repo.orders["o1"] = &models.PendingOrder{
		LocalID:   "o1",
		Status:    models.OrderQueued,
		CreatedAt: time.Now().UTC().Add(-time.Minute),
	}
	backend := &mockBackendClient{submitErr: &secondary.StatusError{Code: 400}}
	svc := NewSyncService(repo, backend, testSyncConfig(), nil)

	if _, err := svc.SyncPendingOrders(context.Background()); err != nil {
		t.Fatalf("SyncPendingOrders failed: %v", err)
	}
	if !repo.orders["o1"].Terminal {
		t.Error("400 rejection must be terminal")
	}
}

func TestSyncSkipsEntriesAlreadyInFlight(t *testing.T) {
	repo := newMockOutboxRepository()
	repo.orders["busy"] = &models.PendingOrder{
		LocalID:       "busy",
		Status:        models.OrderInFlight,
		CreatedAt:     time.Now().UTC(),
		LastAttemptAt: time.Now().UTC(),
	}
	backend := &mockBackendClient{}
	svc := NewSyncService(repo, backend, testSyncConfig(), nil)

	result, err := svc.SyncPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("SyncPendingOrders failed: %v", err)
	}
	if result.Skipped != 1 || backend.submitCalls != 0 {
		t.Errorf("in-flight entry must be skipped, got %+v with %d calls", result, backend.submitCalls)
	}
}

func TestSyncRequeuesStaleInFlight(t *testing.T) {
	repo := newMockOutboxRepository()
	now := time.Now().UTC()
	repo.orders["stale"] = &models.PendingOrder{
		LocalID:       "stale",
		Status:        models.OrderInFlight,
		CreatedAt:     now.Add(-time.Hour),
		LastAttemptAt: now.Add(-time.Hour),
	}
	backend := &mockBackendClient{}
	svc := NewSyncService(repo, backend, testSyncConfig(), nil)

	result, err := svc.SyncPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("SyncPendingOrders failed: %v", err)
	}
	if repo.resetCalls != 1 {
		t.Error("expected stale in-flight reset at cycle start")
	}
	// After the reset the entry is failed with one prior attempt and a
	// stale last attempt, so its backoff window has elapsed.
	if result.Success != 1 {
		t.Errorf("expected stale entry to be delivered, got %+v", result)
	}
}

func TestOnlyOneSyncCycleRuns(t *testing.T) {
	repo := newMockOutboxRepository()
	repo.orders["o1"] = &models.PendingOrder{
		LocalID:   "o1",
		Status:    models.OrderQueued,
		CreatedAt: time.Now().UTC(),
	}
	backend := &mockBackendClient{}
	svc := NewSyncService(repo, backend, testSyncConfig(), nil)

	// Simulate a cycle already holding the guard.
	svc.mu.Lock()
	svc.inProgress = true
	svc.mu.Unlock()

	result, err := svc.SyncPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("SyncPendingOrders failed: %v", err)
	}
	if result.Success != 0 || backend.submitCalls != 0 {
		t.Error("overlapping cycle must be a no-op")
	}

	svc.mu.Lock()
	svc.inProgress = false
	svc.mu.Unlock()

	result, err = svc.SyncPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("SyncPendingOrders failed: %v", err)
	}
	if result.Success != 1 {
		t.Errorf("released guard must allow the next cycle, got %+v", result)
	}
}

func TestGetSyncStatus(t *testing.T) {
	repo := newMockOutboxRepository()
	now := time.Now().UTC()
	repo.orders["q"] = &models.PendingOrder{LocalID: "q", Status: models.OrderQueued, CreatedAt: now}
	repo.orders["f"] = &models.PendingOrder{LocalID: "f", Status: models.OrderFailed, CreatedAt: now}
	repo.orders["t"] = &models.PendingOrder{LocalID: "t", Status: models.OrderFailed, Terminal: true, CreatedAt: now}
	svc := NewSyncService(repo, &mockBackendClient{}, testSyncConfig(), nil)

	status, err := svc.GetSyncStatus(context.Background())
	if err != nil {
		t.Fatalf("GetSyncStatus failed: %v", err)
	}
	if status.PendingOrders != 2 {
		t.Errorf("expected 2 pending, got %d", status.PendingOrders)
	}
	if status.FailedOrders != 1 {
		t.Errorf("expected 1 failed, got %d", status.FailedOrders)
	}
	if status.TerminalOrders != 1 {
		t.Errorf("expected 1 terminal, got %d", status.TerminalOrders)
	}
	if status.SyncInProgress {
		t.Error("no cycle should be running")
	}
}

func TestStartAutoSyncIdempotent(t *testing.T) {
	repo := newMockOutboxRepository()
	svc := NewSyncService(repo, &mockBackendClient{}, testSyncConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.StartAutoSync(ctx)
	svc.StartAutoSync(ctx)
	if svc.autoCancel == nil {
		t.Fatal("auto sync should be running")
	}
	svc.StopAutoSync()
	if svc.autoCancel != nil {
		t.Error("StopAutoSync must clear the runner")
	}
	svc.StopAutoSync()
}

func TestAbortCycleStopsDrain(t *testing.T) {
	repo := newMockOutboxRepository()
	now := time.Now().UTC()
	for _, id := range []string{"a", "b", "c"} {
		repo.orders[id] = &models.PendingOrder{
			LocalID:   id,
			Status:    models.OrderQueued,
			CreatedAt: now,
		}
		now = now.Add(time.Second)
	}
	backend := &mockBackendClient{}
	svc := NewSyncService(repo, backend, testSyncConfig(), nil)

	// Abort before the cycle starts: the pre-cancelled context makes
	// the drain stop before attempting any entry.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := svc.drain(ctx, false)
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	if result.Success != 0 || backend.submitCalls != 0 {
		t.Errorf("cancelled drain must not deliver, got %+v", result)
	}
}
