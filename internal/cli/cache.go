package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/pantry/internal/config"
	"github.com/example/pantry/internal/core/generation"
	"github.com/example/pantry/internal/gateway"
	"github.com/example/pantry/internal/wire"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage response cache partitions",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cache partitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		parts, err := wire.CacheRepository().ListPartitions(context.Background(), "")
		if err != nil {
			return fmt.Errorf("failed to list partitions: %w", err)
		}
		if len(parts) == 0 {
			fmt.Println("No cache partitions")
			return nil
		}
		for _, p := range parts {
			note := ""
			if generation.IsStale(p.Name, p.Namespace, config.CacheVersion) {
				note = "  (stale)"
			}
			fmt.Printf("%s%s\n", p.Name, note)
		}
		return nil
	},
}

var cachePurgeStaleCmd = &cobra.Command{
	Use:   "purge-stale",
	Short: "Delete partitions left behind by older versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		repo := wire.CacheRepository()

		parts, err := repo.ListPartitions(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to list partitions: %w", err)
		}
		purged := 0
		for _, p := range parts {
			if !generation.IsStale(p.Name, p.Namespace, config.CacheVersion) {
				continue
			}
			if err := repo.DeletePartition(ctx, p.Name); err != nil {
				return fmt.Errorf("failed to purge %s: %w", p.Name, err)
			}
			purged++
		}
		fmt.Printf("✓ Purged %d stale partition(s)\n", purged)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [scope]",
	Short: "Drop all cached responses for a scope (customer or admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var worker *gateway.Worker
		switch args[0] {
		case "customer":
			worker = wire.CustomerWorker()
		case "admin":
			worker = wire.AdminWorker()
		default:
			return fmt.Errorf("unknown scope %q (want customer or admin)", args[0])
		}

		reply := make(chan error, 1)
		if err := worker.HandleMessage(context.Background(), gateway.ClearCache{Reply: reply}); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		if err := <-reply; err != nil {
			return err
		}
		fmt.Printf("✓ Cleared %s cache\n", args[0])
		return nil
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete cached responses past the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := wire.MaintenanceService().CleanExpiredAssets(context.Background())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		fmt.Printf("✓ Removed %d expired entries\n", n)
		return nil
	},
}

// CacheCmd returns the cache command
func CacheCmd() *cobra.Command {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePurgeStaleCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
	return cacheCmd
}
