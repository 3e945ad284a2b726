package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/pantry/internal/models"
	"github.com/example/pantry/internal/ports/secondary"
)

// MenuServiceImpl implements the MenuService interface.
type MenuServiceImpl struct {
	menuRepo secondary.MenuRepository
	backend  secondary.BackendClient
	logger   *zap.Logger
	now      func() time.Time
}

// NewMenuService creates a new MenuService with injected dependencies.
func NewMenuService(menuRepo secondary.MenuRepository, backend secondary.BackendClient, logger *zap.Logger) *MenuServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuServiceImpl{
		menuRepo: menuRepo,
		backend:  backend,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HasCachedMenu reports whether a snapshot is stored locally.
func (s *MenuServiceImpl) HasCachedMenu(ctx context.Context) (bool, error) {
	return s.menuRepo.Has(ctx)
}

// GetCachedMenu returns the stored snapshot, empty when nothing is
// cached.
func (s *MenuServiceImpl) GetCachedMenu(ctx context.Context) (*models.MenuSnapshot, error) {
	snap, err := s.menuRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached menu: %w", err)
	}
	return snap, nil
}

// ReplaceCachedMenu atomically swaps the stored snapshot.
func (s *MenuServiceImpl) ReplaceCachedMenu(ctx context.Context, cats []models.Category, items []models.MenuItem) error {
	if err := s.menuRepo.Replace(ctx, cats, items, s.now()); err != nil {
		return fmt.Errorf("failed to replace cached menu: %w", err)
	}
	s.logger.Info("menu snapshot replaced",
		zap.Int("categories", len(cats)),
		zap.Int("items", len(items)))
	return nil
}

// RefreshFromBackend fetches the live menu and replaces the snapshot.
// The previous snapshot stays intact when the fetch fails.
func (s *MenuServiceImpl) RefreshFromBackend(ctx context.Context) error {
	cats, items, err := s.backend.FetchMenu(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch menu: %w", err)
	}
	return s.ReplaceCachedMenu(ctx, cats, items)
}
