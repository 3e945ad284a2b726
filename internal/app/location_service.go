package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/pantry/internal/models"
	"github.com/example/pantry/internal/ports/primary"
	"github.com/example/pantry/internal/ports/secondary"
)

// LocationServiceImpl implements the LocationService interface. The
// local store is authoritative; the backend mirror is best-effort and
// skipped entirely while unreachable.
type LocationServiceImpl struct {
	locRepo   secondary.LocationRepository
	backend   secondary.BackendClient
	reachable func() bool
	logger    *zap.Logger
	now       func() time.Time
}

// NewLocationService creates a new LocationService. reachable reports
// whether the backend is currently worth talking to; nil means always
// try.
func NewLocationService(locRepo secondary.LocationRepository, backend secondary.BackendClient, reachable func() bool, logger *zap.Logger) *LocationServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reachable == nil {
		reachable = func() bool { return true }
	}
	return &LocationServiceImpl{
		locRepo:   locRepo,
		backend:   backend,
		reachable: reachable,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SaveLocation stores a location locally and mirrors it to the backend
// when reachable. Returns the new location's id.
func (s *LocationServiceImpl) SaveLocation(ctx context.Context, req primary.SaveLocationRequest) (string, error) {
	loc := &models.SavedLocation{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Label:     req.Label,
		Street:    req.Street,
		City:      req.City,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		CreatedAt: s.now(),
	}
	if err := s.locRepo.Save(ctx, loc); err != nil {
		return "", fmt.Errorf("failed to save location: %w", err)
	}
	if req.Primary {
		if err := s.locRepo.SetPrimary(ctx, loc.ID, loc.UserID); err != nil {
			return "", fmt.Errorf("failed to mark location primary: %w", err)
		}
	}
	s.mirror(ctx, loc)
	return loc.ID, nil
}

// GetUserLocations lists a user's saved locations.
func (s *LocationServiceImpl) GetUserLocations(ctx context.Context, userID string) ([]*models.SavedLocation, error) {
	return s.locRepo.ListByUser(ctx, userID)
}

// GetLastUsedLocation returns the user's most recently used location,
// nil when none has been used yet.
func (s *LocationServiceImpl) GetLastUsedLocation(ctx context.Context, userID string) (*models.SavedLocation, error) {
	return s.locRepo.GetLastUsed(ctx, userID)
}

// SetPrimary promotes one location, demoting the user's others.
func (s *LocationServiceImpl) SetPrimary(ctx context.Context, id, userID string) error {
	if err := s.locRepo.SetPrimary(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to set primary location: %w", err)
	}
	return nil
}

// MarkUsed records that a location was just used for an order.
func (s *LocationServiceImpl) MarkUsed(ctx context.Context, id string) error {
	return s.locRepo.TouchLastUsed(ctx, id, s.now())
}

// DeleteLocation removes a location locally and best-effort remotely.
func (s *LocationServiceImpl) DeleteLocation(ctx context.Context, id string) error {
	if err := s.locRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	if s.reachable() {
		if err := s.backend.DeleteLocation(ctx, id); err != nil {
			s.logger.Warn("failed to mirror location delete", zap.String("id", id), zap.Error(err))
		}
	}
	return nil
}

// mirror pushes a location to the backend, swallowing failures. The
// local store already holds the data.
func (s *LocationServiceImpl) mirror(ctx context.Context, loc *models.SavedLocation) {
	if !s.reachable() {
		return
	}
	if err := s.backend.PushLocation(ctx, loc); err != nil {
		s.logger.Warn("failed to mirror location", zap.String("id", loc.ID), zap.Error(err))
	}
}
