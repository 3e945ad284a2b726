package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/pantry/internal/config"
	"github.com/example/pantry/internal/db"
	"github.com/example/pantry/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show outbox, cache and configuration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := wire.Config()

			fmt.Println("Pantry Status")
			fmt.Println()

			dbPath, err := db.GetDBPath()
			if err == nil {
				fmt.Printf("Store:    %s\n", dbPath)
			}
			fmt.Printf("Backend:  %s\n", cfg.BackendBaseURL)
			fmt.Printf("Version:  %s\n", config.CacheVersion)
			fmt.Println()

			status, err := wire.SyncService().GetSyncStatus(ctx)
			if err != nil {
				return fmt.Errorf("failed to read sync status: %w", err)
			}

			pending := fmt.Sprintf("%d", status.PendingOrders)
			if status.PendingOrders > 0 {
				pending = color.New(color.FgYellow).Sprint(pending)
			}
			fmt.Printf("Pending orders:  %s\n", pending)
			if status.FailedOrders > 0 {
				fmt.Printf("Failed orders:   %s\n", color.New(color.FgRed).Sprintf("%d", status.FailedOrders))
			}
			if status.TerminalOrders > 0 {
				fmt.Printf("Rejected orders: %s (will not retry; use sync --force or outbox remove)\n",
					color.New(color.FgRed).Sprintf("%d", status.TerminalOrders))
			}
			if !status.LastSyncAttempt.IsZero() {
				fmt.Printf("Last sync:       %s\n", status.LastSyncAttempt.Format("2006-01-02 15:04:05"))
			}
			fmt.Println()

			has, err := wire.MenuService().HasCachedMenu(ctx)
			if err != nil {
				return fmt.Errorf("failed to inspect menu cache: %w", err)
			}
			if has {
				snap, err := wire.MenuService().GetCachedMenu(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Cached menu:     %d categories, %d items (as of %s)\n",
					len(snap.Categories), len(snap.Items), snap.CachedAt.Format("2006-01-02 15:04"))
			} else {
				fmt.Println("Cached menu:     (none; run `pantry menu refresh`)")
			}
			return nil
		},
	}
}
