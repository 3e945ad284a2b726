package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/pantry/internal/db"
	"github.com/example/pantry/internal/gateway"
	"github.com/example/pantry/internal/reachability"
	"github.com/example/pantry/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the offline gateways and the sync engine",
		Long: `Start both cache gateways (customer and admin), the reachability
monitor and the background sync engine, and serve until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Config()
			logger := wire.Logger()
			defer logger.Sync()
			defer db.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			customer := wire.CustomerWorker()
			admin := wire.AdminWorker()
			lifecycles := wire.LifecycleService()
			syncService := wire.SyncService()
			monitor := wire.Monitor()
			maintenance := wire.MaintenanceService()

			// Install and activate both scopes before accepting traffic.
			for _, w := range []*gateway.Worker{customer, admin} {
				desc := w.Scope()
				if _, err := lifecycles.EnsureRegistered(ctx, desc.Name, desc.Prefix); err != nil {
					return fmt.Errorf("failed to register scope %s: %w", desc.Name, err)
				}
				w.Install(ctx)
				if err := w.Activate(ctx); err != nil {
					return fmt.Errorf("failed to activate scope %s: %w", desc.Name, err)
				}
			}

			go monitor.Run(ctx, cfg.ProbeInterval.Std())
			syncService.StartAutoSync(ctx)
			defer syncService.StopAutoSync()

			// Drain the outbox as soon as the backend comes back.
			states, unsub := monitor.Subscribe()
			defer unsub()
			go func() {
				for state := range states {
					if state != reachability.StateOnlineConfirmed {
						continue
					}
					if _, err := syncService.SyncPendingOrders(ctx); err != nil {
						logger.Error("reachability-triggered sync failed", zap.Error(err))
					}
				}
			}()

			// Daily retention sweep for cached assets.
			go func() {
				ticker := time.NewTicker(24 * time.Hour)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if _, err := maintenance.CleanExpiredAssets(ctx); err != nil {
							logger.Error("retention sweep failed", zap.Error(err))
						}
					case <-ctx.Done():
						return
					}
				}
			}()

			errCh := make(chan error, 2)
			go func() {
				errCh <- gateway.NewServer(cfg.CustomerAddr, customer, logger).Run(ctx)
			}()
			go func() {
				errCh <- gateway.NewServer(cfg.AdminAddr, admin, logger).Run(ctx)
			}()

			fmt.Fprintf(os.Stdout, "pantry serving: customer %s, admin %s\n", cfg.CustomerAddr, cfg.AdminAddr)

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				// Let both servers finish their graceful shutdown.
				<-errCh
				<-errCh
				return nil
			case err := <-errCh:
				stop()
				<-errCh
				return err
			}
		},
	}
}
