package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/pantry/internal/core/generation"
	"github.com/example/pantry/internal/core/scope"
	"github.com/example/pantry/internal/models"
	"github.com/example/pantry/internal/ports/primary"
	"github.com/example/pantry/internal/ports/secondary"
)

// LifecycleServiceImpl implements the LifecycleService interface. It
// drives each scope through idle -> registering -> active and purges
// cache partitions left behind by older script identities.
type LifecycleServiceImpl struct {
	cacheRepo secondary.CacheRepository
	regRepo   secondary.RegistrationRepository
	version   string
	scopes    map[string]scope.Descriptor
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	states map[string]string
}

// NewLifecycleService creates a new LifecycleService governing the
// given scopes under one script identity (the running cache version).
func NewLifecycleService(cacheRepo secondary.CacheRepository, regRepo secondary.RegistrationRepository, version string, scopes []scope.Descriptor, logger *zap.Logger) *LifecycleServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]scope.Descriptor, len(scopes))
	states := make(map[string]string, len(scopes))
	for _, d := range scopes {
		byName[d.Name] = d
		states[d.Name] = primary.RegStateIdle
	}
	return &LifecycleServiceImpl{
		cacheRepo: cacheRepo,
		regRepo:   regRepo,
		version:   version,
		scopes:    byName,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		states:    states,
	}
}

// EnsureRegistered makes the scope's registration current. Idempotent:
// a current registration, or one being installed concurrently, is
// returned as-is rather than re-created.
func (s *LifecycleServiceImpl) EnsureRegistered(ctx context.Context, scopeName, pagePath string) (*models.Registration, error) {
	desc, ok := s.scopes[scopeName]
	if !ok {
		return nil, fmt.Errorf("unknown scope %q", scopeName)
	}
	if guard := scope.CanRegister(desc, pagePath); !guard.Allowed {
		return nil, guard.Error()
	}

	existing, err := s.regRepo.Get(ctx, scopeName)
	if err != nil {
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}

	s.mu.Lock()
	switch s.states[scopeName] {
	case primary.RegStateRegistering:
		s.mu.Unlock()
		return existing, nil
	case primary.RegStateActive:
		if existing != nil && existing.ScriptIdentity == s.version {
			s.mu.Unlock()
			return existing, nil
		}
		// Active under an older identity: fall through and re-register.
	}
	s.states[scopeName] = primary.RegStateRegistering
	s.mu.Unlock()

	reg, err := s.register(ctx, desc, existing)

	s.mu.Lock()
	if err != nil {
		s.states[scopeName] = primary.RegStateIdle
	} else {
		s.states[scopeName] = primary.RegStateActive
	}
	s.mu.Unlock()
	return reg, err
}

// register purges stale partitions for the scope's namespace and
// records the fresh registration.
func (s *LifecycleServiceImpl) register(ctx context.Context, desc scope.Descriptor, existing *models.Registration) (*models.Registration, error) {
	parts, err := s.cacheRepo.ListPartitions(ctx, desc.Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache partitions: %w", err)
	}
	for _, p := range parts {
		if !generation.IsStale(p.Name, desc.Namespace, s.version) {
			continue
		}
		if err := s.cacheRepo.DeletePartition(ctx, p.Name); err != nil {
			return nil, fmt.Errorf("failed to purge stale partition %s: %w", p.Name, err)
		}
		s.logger.Info("purged stale cache partition",
			zap.String("scope", desc.Name),
			zap.String("partition", p.Name))
	}

	reg := &models.Registration{
		Scope:          desc.Name,
		ScriptIdentity: s.version,
		RegisteredAt:   s.now(),
	}
	if err := s.regRepo.Upsert(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to record registration: %w", err)
	}

	if existing == nil {
		s.logger.Info("scope registered",
			zap.String("scope", desc.Name),
			zap.String("identity", s.version))
	} else if existing.ScriptIdentity != s.version {
		s.logger.Info("scope registration updated",
			zap.String("scope", desc.Name),
			zap.String("old_identity", existing.ScriptIdentity),
			zap.String("identity", s.version))
	}
	return reg, nil
}

// State returns the lifecycle state for a scope; unknown scopes are
// idle.
func (s *LifecycleServiceImpl) State(scopeName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[scopeName]; ok {
		return st
	}
	return primary.RegStateIdle
}
