package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/pantry/internal/models"
	"github.com/example/pantry/internal/wire"
)

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Inspect and manage queued orders",
}

var outboxListCmd = &cobra.Command{
	Use:   "list",
	Short: "List outbox entries oldest-first",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		orders, err := wire.SyncService().ListPendingOrders(context.Background(), status)
		if err != nil {
			return fmt.Errorf("failed to list outbox: %w", err)
		}
		if len(orders) == 0 {
			fmt.Println("Outbox is empty")
			return nil
		}

		for _, o := range orders {
			marker := statusMarker(o)
			fmt.Printf("%s %s  %s  %s  total %d¢  attempts %d\n",
				marker, o.LocalID, o.CreatedAt.Format("2006-01-02 15:04"),
				o.Payload.CustomerName, o.Payload.TotalCents, o.Attempts)
			if o.Terminal {
				fmt.Printf("    rejected by the backend; retry with `pantry sync --force` or drop with `pantry outbox remove %s`\n", o.LocalID)
			}
		}
		return nil
	},
}

var outboxRemoveCmd = &cobra.Command{
	Use:   "remove [local-id]",
	Short: "Remove one outbox entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.SyncService().RemoveOrder(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to remove order: %w", err)
		}
		fmt.Printf("✓ Removed %s\n", args[0])
		return nil
	},
}

var outboxClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Erase all local data (outbox, menu, locations, caches)",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("refusing to wipe local data without --yes")
		}
		if err := wire.MaintenanceService().ClearAll(context.Background()); err != nil {
			return fmt.Errorf("failed to clear: %w", err)
		}
		fmt.Println("✓ All local data cleared")
		return nil
	},
}

func statusMarker(o *models.PendingOrder) string {
	switch {
	case o.Terminal:
		return color.New(color.FgRed).Sprint("✗")
	case o.Status == models.OrderFailed:
		return color.New(color.FgYellow).Sprint("!")
	case o.Status == models.OrderInFlight:
		return color.New(color.FgCyan).Sprint("→")
	default:
		return "•"
	}
}

// OutboxCmd returns the outbox command
func OutboxCmd() *cobra.Command {
	outboxListCmd.Flags().String("status", "", "filter by status (queued, in_flight, failed)")
	outboxClearCmd.Flags().Bool("yes", false, "confirm the wipe")

	outboxCmd.AddCommand(outboxListCmd)
	outboxCmd.AddCommand(outboxRemoveCmd)
	outboxCmd.AddCommand(outboxClearCmd)
	return outboxCmd
}
