package app

import (
	"context"
	"testing"
	"time"

	"github.com/example/pantry/internal/models"
)

func TestClearAllWipesEveryStore(t *testing.T) {
	outboxRepo := newMockOutboxRepository()
	menuRepo := &mockMenuRepository{snapshot: &models.MenuSnapshot{Categories: []models.Category{{ID: "c1"}}}}
	locRepo := newMockLocationRepository()
	cacheRepo := newMockCacheRepository()
	regRepo := newMockRegistrationRepository()
	ctx := context.Background()

	outboxRepo.orders["o1"] = &models.PendingOrder{LocalID: "o1", Status: models.OrderQueued}
	locRepo.locations["l1"] = &models.SavedLocation{ID: "l1", UserID: "u1"}
	regRepo.regs["customer"] = &models.Registration{Scope: "customer", ScriptIdentity: "v4"}

	aborted := false
	svc := NewMaintenanceService(outboxRepo, menuRepo, locRepo, cacheRepo, regRepo,
		time.Hour, func() { aborted = true }, nil)

	if err := svc.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if !aborted {
		t.Error("a running sync cycle must be aborted before the wipe")
	}
	if len(outboxRepo.orders) != 0 || menuRepo.snapshot != nil ||
		len(locRepo.locations) != 0 || len(regRepo.regs) != 0 {
		t.Error("expected every store to be empty")
	}
	if cacheRepo.clearCalls != 1 {
		t.Error("expected caches to be cleared")
	}
}

func TestCleanExpiredAssets(t *testing.T) {
	cacheRepo := newMockCacheRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	old := &models.CacheEntry{Partition: "pantry-customer-static-v4", RequestKey: "/old.css", StoredAt: now.Add(-48 * time.Hour)}
	fresh := &models.CacheEntry{Partition: "pantry-customer-static-v4", RequestKey: "/fresh.css", StoredAt: now}
	for _, e := range []*models.CacheEntry{old, fresh} {
		if err := cacheRepo.Put(ctx, e); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	svc := NewMaintenanceService(newMockOutboxRepository(), &mockMenuRepository{},
		newMockLocationRepository(), cacheRepo, newMockRegistrationRepository(),
		24*time.Hour, nil, nil)

	n, err := svc.CleanExpiredAssets(ctx)
	if err != nil {
		t.Fatalf("CleanExpiredAssets failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 removed, got %d", n)
	}
	if e, _ := cacheRepo.Get(ctx, fresh.Partition, fresh.RequestKey); e == nil {
		t.Error("fresh entry must survive")
	}
}
