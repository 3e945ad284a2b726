package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/pantry/internal/ports/primary"
	"github.com/example/pantry/internal/wire"
)

// SyncCmd returns the sync command
func SyncCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Drain the order outbox now",
		Long: `Run one sync cycle against the backend. --force ignores per-entry
backoff windows and also retries orders that were rejected terminally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc := wire.SyncService()

			var (
				result primary.SyncResult
				err    error
			)
			if force {
				result, err = svc.ForceSyncAll(ctx)
			} else {
				result, err = svc.SyncPendingOrders(ctx)
			}
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			if result.Success > 0 {
				fmt.Printf("%s %d order(s) delivered\n", color.New(color.FgGreen).Sprint("✓"), result.Success)
			}
			if result.Failed > 0 {
				fmt.Printf("%s %d order(s) failed\n", color.New(color.FgRed).Sprint("✗"), result.Failed)
			}
			if result.Skipped > 0 {
				fmt.Printf("  %d order(s) skipped (backoff or in flight)\n", result.Skipped)
			}
			if result.Success == 0 && result.Failed == 0 && result.Skipped == 0 {
				fmt.Println("Nothing to sync")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore backoff windows and terminal flags")
	return cmd
}
