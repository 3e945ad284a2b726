package primary

import (
	"context"

	"github.com/example/pantry/internal/models"
)

// SaveLocationRequest carries the fields of a new saved location.
type SaveLocationRequest struct {
	UserID    string
	Label     string
	Street    string
	City      string
	Latitude  *float64
	Longitude *float64
	Primary   bool
}

// LocationService owns saved delivery locations, mirrored to the
// backend best-effort while the local store stays usable offline.
type LocationService interface {
	SaveLocation(ctx context.Context, req SaveLocationRequest) (string, error)
	GetUserLocations(ctx context.Context, userID string) ([]*models.SavedLocation, error)
	GetLastUsedLocation(ctx context.Context, userID string) (*models.SavedLocation, error)
	SetPrimary(ctx context.Context, id, userID string) error
	MarkUsed(ctx context.Context, id string) error
	DeleteLocation(ctx context.Context, id string) error
}
