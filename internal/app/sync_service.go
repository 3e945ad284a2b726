package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/pantry/internal/core/backoff"
	"github.com/example/pantry/internal/core/outbox"
	"github.com/example/pantry/internal/models"
	"github.com/example/pantry/internal/ports/primary"
	"github.com/example/pantry/internal/ports/secondary"
)

// SyncConfig carries the sync engine's tunables.
type SyncConfig struct {
	Interval      time.Duration
	Backoff       backoff.Policy
	StaleInFlight time.Duration
}

// SyncServiceImpl implements the SyncService interface.
type SyncServiceImpl struct {
	outboxRepo secondary.OutboxRepository
	backend    secondary.BackendClient
	cfg        SyncConfig
	logger     *zap.Logger

	mu              sync.Mutex
	inProgress      bool
	cycleCancel     context.CancelFunc
	lastSyncAttempt time.Time

	autoMu     sync.Mutex
	autoCancel context.CancelFunc

	now func() time.Time
}

// NewSyncService creates a new SyncService with injected dependencies.
func NewSyncService(outboxRepo secondary.OutboxRepository, backend secondary.BackendClient, cfg SyncConfig, logger *zap.Logger) *SyncServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncServiceImpl{
		outboxRepo: outboxRepo,
		backend:    backend,
		cfg:        cfg,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// EnqueueOrder appends an order to the outbox with a fresh local id.
func (s *SyncServiceImpl) EnqueueOrder(ctx context.Context, payload models.OrderPayload) (string, error) {
	order := &models.PendingOrder{
		LocalID:   uuid.NewString(),
		Payload:   payload,
		Status:    models.OrderQueued,
		CreatedAt: s.now(),
	}
	if err := s.outboxRepo.Enqueue(ctx, order); err != nil {
		return "", fmt.Errorf("failed to enqueue order: %w", err)
	}
	s.logger.Info("order queued for sync", zap.String("local_id", order.LocalID))
	return order.LocalID, nil
}

// SubmitOrder tries the backend first and falls back to the outbox, so
// a checkout never fails just because the network is down.
func (s *SyncServiceImpl) SubmitOrder(ctx context.Context, payload models.OrderPayload) (*primary.SubmitOutcome, error) {
	receipt, err := s.backend.SubmitOrder(ctx, payload)
	if err == nil {
		return &primary.SubmitOutcome{Delivered: true, ServerOrderID: receipt.OrderID}, nil
	}

	s.logger.Warn("direct order submission failed, queueing", zap.Error(err))
	localID, enqErr := s.EnqueueOrder(ctx, payload)
	if enqErr != nil {
		// Both the backend and the local store failed; the order cannot
		// be preserved, surface both.
		return nil, fmt.Errorf("delivery failed (%v) and outbox unavailable: %w", err, enqErr)
	}

	// Terminal rejections stay visible in the outbox but are not
	// retried automatically.
	outcome := classifyDeliveryError(err)
	if outcome.Terminal {
		if err := s.outboxRepo.MarkFailed(ctx, localID, true, s.now()); err != nil {
			s.logger.Error("failed to flag terminal order", zap.String("local_id", localID), zap.Error(err))
		}
	}
	return &primary.SubmitOutcome{LocalID: localID}, nil
}

// ListPendingOrders returns outbox entries oldest-first.
func (s *SyncServiceImpl) ListPendingOrders(ctx context.Context, status string) ([]*models.PendingOrder, error) {
	return s.outboxRepo.List(ctx, status)
}

// RemoveOrder deletes an outbox entry.
func (s *SyncServiceImpl) RemoveOrder(ctx context.Context, localID string) error {
	return s.outboxRepo.Remove(ctx, localID)
}

// SyncPendingOrders runs one drain cycle, respecting per-entry backoff.
func (s *SyncServiceImpl) SyncPendingOrders(ctx context.Context) (primary.SyncResult, error) {
	return s.drain(ctx, false)
}

// ForceSyncAll drains immediately, ignoring backoff windows and
// terminal flags. User-triggered.
func (s *SyncServiceImpl) ForceSyncAll(ctx context.Context) (primary.SyncResult, error) {
	return s.drain(ctx, true)
}

// drain is the single drain implementation. Only one cycle runs
// process-wide; a cycle requested while another is active is a no-op.
func (s *SyncServiceImpl) drain(ctx context.Context, force bool) (primary.SyncResult, error) {
	s.mu.Lock()
	if s.inProgress {
		s.mu.Unlock()
		s.logger.Debug("sync cycle already in progress, skipping")
		return primary.SyncResult{}, nil
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	s.inProgress = true
	s.cycleCancel = cancel
	s.lastSyncAttempt = s.now()
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.inProgress = false
		s.cycleCancel = nil
		s.mu.Unlock()
	}()

	// Entries stuck in flight from a crashed cycle become retryable.
	if s.cfg.StaleInFlight > 0 {
		if n, err := s.outboxRepo.ResetStaleInFlight(cycleCtx, s.now().Add(-s.cfg.StaleInFlight)); err != nil {
			s.logger.Error("failed to reset stale in-flight orders", zap.Error(err))
		} else if n > 0 {
			s.logger.Warn("requeued stale in-flight orders", zap.Int64("count", n))
		}
	}

	entries, err := s.outboxRepo.List(cycleCtx, "")
	if err != nil {
		return primary.SyncResult{}, fmt.Errorf("failed to list outbox: %w", err)
	}

	var result primary.SyncResult
	for _, entry := range entries {
		if cycleCtx.Err() != nil {
			// Cycle aborted (shutdown or data clear); leave the rest
			// queued.
			break
		}
		if entry.Status == models.OrderSynced {
			continue
		}

		guard := outbox.CanAttemptDelivery(outbox.DeliveryContext{
			LocalID:       entry.LocalID,
			Status:        entry.Status,
			Terminal:      entry.Terminal,
			Attempts:      entry.Attempts,
			LastAttemptAt: entry.LastAttemptAt,
			Now:           s.now(),
			Backoff:       s.cfg.Backoff,
			IgnoreBackoff: force,
		})
		if !guard.Allowed {
			s.logger.Debug("skipping outbox entry", zap.String("local_id", entry.LocalID), zap.String("reason", guard.Reason))
			result.Skipped++
			continue
		}

		claimed, err := s.outboxRepo.ClaimInFlight(cycleCtx, entry.LocalID, s.now())
		if err != nil {
			s.logger.Error("failed to claim outbox entry", zap.String("local_id", entry.LocalID), zap.Error(err))
			result.Failed++
			continue
		}
		if !claimed {
			// Another delivery holds this entry.
			result.Skipped++
			continue
		}

		if err := s.deliver(cycleCtx, entry); err != nil {
			result.Failed++
		} else {
			result.Success++
		}
	}

	s.logger.Info("sync cycle finished",
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// deliver attempts one entry. The caller already holds the in-flight
// claim; every outcome releases it via a status transition.
func (s *SyncServiceImpl) deliver(ctx context.Context, entry *models.PendingOrder) error {
	receipt, err := s.backend.SubmitOrder(ctx, entry.Payload)
	if err == nil {
		if err := s.outboxRepo.MarkSynced(ctx, entry.LocalID, receipt.OrderID); err != nil {
			s.logger.Error("failed to mark order synced", zap.String("local_id", entry.LocalID), zap.Error(err))
		}
		if err := s.outboxRepo.Remove(ctx, entry.LocalID); err != nil {
			s.logger.Error("failed to remove synced order", zap.String("local_id", entry.LocalID), zap.Error(err))
		}
		s.logger.Info("order synced",
			zap.String("local_id", entry.LocalID),
			zap.String("server_order_id", receipt.OrderID))
		return nil
	}

	outcome := classifyDeliveryError(err)
	s.logger.Warn("order delivery failed",
		zap.String("local_id", entry.LocalID),
		zap.Bool("terminal", outcome.Terminal),
		zap.String("reason", outcome.Reason))
	if markErr := s.outboxRepo.MarkFailed(ctx, entry.LocalID, outcome.Terminal, s.now()); markErr != nil {
		s.logger.Error("failed to record delivery failure", zap.String("local_id", entry.LocalID), zap.Error(markErr))
	}
	return err
}

// GetSyncStatus reports the engine's current view of the outbox.
func (s *SyncServiceImpl) GetSyncStatus(ctx context.Context) (primary.SyncStatus, error) {
	entries, err := s.outboxRepo.List(ctx, "")
	if err != nil {
		return primary.SyncStatus{}, fmt.Errorf("failed to inspect outbox: %w", err)
	}

	s.mu.Lock()
	status := primary.SyncStatus{
		SyncInProgress:  s.inProgress,
		LastSyncAttempt: s.lastSyncAttempt,
	}
	s.mu.Unlock()

	for _, e := range entries {
		switch {
		case e.Terminal:
			status.TerminalOrders++
		case e.Status == models.OrderFailed:
			status.FailedOrders++
			status.PendingOrders++
		case e.Status == models.OrderQueued, e.Status == models.OrderInFlight:
			status.PendingOrders++
		}
	}
	return status, nil
}

// StartAutoSync begins the recurring drain. Idempotent: a second call
// while running is a no-op.
func (s *SyncServiceImpl) StartAutoSync(ctx context.Context) {
	s.autoMu.Lock()
	defer s.autoMu.Unlock()
	if s.autoCancel != nil {
		return
	}

	autoCtx, cancel := context.WithCancel(ctx)
	s.autoCancel = cancel

	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.SyncPendingOrders(autoCtx); err != nil {
					s.logger.Error("auto sync failed", zap.Error(err))
				}
			case <-autoCtx.Done():
				// Final drain so a clean shutdown does not strand
				// deliverable orders.
				flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
				if _, err := s.SyncPendingOrders(flushCtx); err != nil {
					s.logger.Error("final sync flush failed", zap.Error(err))
				}
				flushCancel()
				return
			}
		}
	}()
	s.logger.Info("auto sync started", zap.Duration("interval", s.cfg.Interval))
}

// StopAutoSync ends the recurring drain. Idempotent.
func (s *SyncServiceImpl) StopAutoSync() {
	s.autoMu.Lock()
	defer s.autoMu.Unlock()
	if s.autoCancel != nil {
		s.autoCancel()
		s.autoCancel = nil
	}
}

// AbortCycle cancels an in-progress drain. Used when the local store
// is about to be cleared underneath it.
func (s *SyncServiceImpl) AbortCycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cycleCancel != nil {
		s.cycleCancel()
	}
}

// classifyDeliveryError maps a backend error onto the retry taxonomy.
func classifyDeliveryError(err error) outbox.Outcome {
	var se *secondary.StatusError
	if errors.As(err, &se) {
		return outbox.ClassifyFailure(se.Code, nil)
	}
	return outbox.ClassifyFailure(0, err)
}
