// Package wire provides dependency injection for the pantry daemon.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"sync"

	"go.uber.org/zap"

	"github.com/example/pantry/internal/adapters/backend"
	"github.com/example/pantry/internal/adapters/sqlite"
	"github.com/example/pantry/internal/app"
	"github.com/example/pantry/internal/config"
	"github.com/example/pantry/internal/core/backoff"
	"github.com/example/pantry/internal/core/scope"
	"github.com/example/pantry/internal/db"
	"github.com/example/pantry/internal/gateway"
	"github.com/example/pantry/internal/logging"
	"github.com/example/pantry/internal/ports/primary"
	"github.com/example/pantry/internal/ports/secondary"
	"github.com/example/pantry/internal/reachability"
)

var (
	cfg                *config.Config
	logger             *zap.Logger
	monitor            *reachability.Monitor
	syncService        *app.SyncServiceImpl
	menuService        primary.MenuService
	locationService    primary.LocationService
	lifecycleService   primary.LifecycleService
	maintenanceService primary.MaintenanceService
	customerWorker     *gateway.Worker
	adminWorker        *gateway.Worker
	cacheRepository    secondary.CacheRepository
	once               sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the shared logger.
func Logger() *zap.Logger {
	once.Do(initServices)
	return logger
}

// Monitor returns the singleton reachability monitor.
func Monitor() *reachability.Monitor {
	once.Do(initServices)
	return monitor
}

// SyncService returns the singleton SyncService instance.
func SyncService() primary.SyncService {
	once.Do(initServices)
	return syncService
}

// MenuService returns the singleton MenuService instance.
func MenuService() primary.MenuService {
	once.Do(initServices)
	return menuService
}

// LocationService returns the singleton LocationService instance.
func LocationService() primary.LocationService {
	once.Do(initServices)
	return locationService
}

// LifecycleService returns the singleton LifecycleService instance.
func LifecycleService() primary.LifecycleService {
	once.Do(initServices)
	return lifecycleService
}

// MaintenanceService returns the singleton MaintenanceService instance.
func MaintenanceService() primary.MaintenanceService {
	once.Do(initServices)
	return maintenanceService
}

// CustomerWorker returns the customer-scope gateway worker.
func CustomerWorker() *gateway.Worker {
	once.Do(initServices)
	return customerWorker
}

// AdminWorker returns the admin-scope gateway worker.
func AdminWorker() *gateway.Worker {
	once.Do(initServices)
	return adminWorker
}

// CacheRepository returns the shared cache repository.
func CacheRepository() secondary.CacheRepository {
	once.Do(initServices)
	return cacheRepository
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger = logging.New(cfg)

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Repository adapters (secondary ports) with injected DB
	outboxRepo := sqlite.NewOutboxRepository(database)
	menuRepo := sqlite.NewMenuRepository(database)
	locationRepo := sqlite.NewLocationRepository(database)
	cacheRepo := sqlite.NewCacheRepository(database)
	cacheRepository = cacheRepo
	registrationRepo := sqlite.NewRegistrationRepository(database)

	client := backend.New(cfg.BackendBaseURL, cfg.HealthPath, cfg.APITimeout.Std())
	monitor = reachability.New(client, cfg.ProbeTimeout.Std(), logger)

	// Services (primary ports implementation)
	syncService = app.NewSyncService(outboxRepo, client, app.SyncConfig{
		Interval:      cfg.SyncInterval.Std(),
		Backoff:       backoff.Policy{Base: cfg.BackoffBase.Std(), Cap: cfg.BackoffCap.Std()},
		StaleInFlight: cfg.StaleInFlight.Std(),
	}, logger)
	menuService = app.NewMenuService(menuRepo, client, logger)
	locationService = app.NewLocationService(locationRepo, client, monitor.IsOnline, logger)
	lifecycleService = app.NewLifecycleService(cacheRepo, registrationRepo, config.CacheVersion,
		[]scope.Descriptor{scope.Customer(), scope.Admin()}, logger)
	maintenanceService = app.NewMaintenanceService(outboxRepo, menuRepo, locationRepo, cacheRepo,
		registrationRepo, cfg.AssetRetention.Std(), syncService.AbortCycle, logger)

	workerCfg := gateway.WorkerConfig{
		Version:           config.CacheVersion,
		NavigationTimeout: cfg.NavigationTimeout.Std(),
		APITimeout:        cfg.APITimeout.Std(),
	}
	customerWorker, err = gateway.NewWorker(scope.Customer(), workerCfg, cacheRepo, cfg.BackendBaseURL, nil, logger)
	if err != nil {
		log.Fatalf("failed to create customer gateway: %v", err)
	}
	adminWorker, err = gateway.NewWorker(scope.Admin(), workerCfg, cacheRepo, cfg.BackendBaseURL, nil, logger)
	if err != nil {
		log.Fatalf("failed to create admin gateway: %v", err)
	}
}
