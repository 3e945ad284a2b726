package primary

import (
	"context"

	"github.com/example/pantry/internal/models"
)

// MenuService owns the cached menu snapshot.
type MenuService interface {
	HasCachedMenu(ctx context.Context) (bool, error)
	// GetCachedMenu returns an empty snapshot (never nil) when nothing
	// is cached.
	GetCachedMenu(ctx context.Context) (*models.MenuSnapshot, error)
	// ReplaceCachedMenu atomically swaps the snapshot. Items whose
	// category is not in cats are stored uncategorized.
	ReplaceCachedMenu(ctx context.Context, cats []models.Category, items []models.MenuItem) error
	// RefreshFromBackend fetches the live menu and replaces the
	// snapshot on success.
	RefreshFromBackend(ctx context.Context) error
}
