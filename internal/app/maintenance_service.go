package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/pantry/internal/ports/secondary"
)

// MaintenanceServiceImpl implements the MaintenanceService interface.
type MaintenanceServiceImpl struct {
	outboxRepo secondary.OutboxRepository
	menuRepo   secondary.MenuRepository
	locRepo    secondary.LocationRepository
	cacheRepo  secondary.CacheRepository
	regRepo    secondary.RegistrationRepository
	retention  time.Duration
	abortSync  func()
	logger     *zap.Logger
	now        func() time.Time
}

// NewMaintenanceService creates a new MaintenanceService. abortSync
// cancels any running sync cycle before the outbox is wiped; nil is a
// no-op.
func NewMaintenanceService(outboxRepo secondary.OutboxRepository, menuRepo secondary.MenuRepository, locRepo secondary.LocationRepository, cacheRepo secondary.CacheRepository, regRepo secondary.RegistrationRepository, retention time.Duration, abortSync func(), logger *zap.Logger) *MaintenanceServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	if abortSync == nil {
		abortSync = func() {}
	}
	return &MaintenanceServiceImpl{
		outboxRepo: outboxRepo,
		menuRepo:   menuRepo,
		locRepo:    locRepo,
		cacheRepo:  cacheRepo,
		regRepo:    regRepo,
		retention:  retention,
		abortSync:  abortSync,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ClearAll erases every locally stored partition. A sync cycle running
// against the outbox is aborted first so it cannot resurrect rows.
func (s *MaintenanceServiceImpl) ClearAll(ctx context.Context) error {
	s.abortSync()

	if err := s.outboxRepo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear outbox: %w", err)
	}
	if err := s.menuRepo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear menu: %w", err)
	}
	if err := s.locRepo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear locations: %w", err)
	}
	if err := s.cacheRepo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear caches: %w", err)
	}
	if err := s.regRepo.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear registrations: %w", err)
	}
	s.logger.Info("all local data cleared")
	return nil
}

// CleanExpiredAssets removes cached responses past the retention
// window.
func (s *MaintenanceServiceImpl) CleanExpiredAssets(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	n, err := s.cacheRepo.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean expired assets: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired cached assets removed", zap.Int64("count", n))
	}
	return n, nil
}
