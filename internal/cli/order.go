package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/pantry/internal/models"
	"github.com/example/pantry/internal/wire"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Submit orders",
}

var orderSubmitCmd = &cobra.Command{
	Use:   "submit [payload.json]",
	Short: "Submit an order, queueing it if the backend is unreachable",
	Long: `Submit an order payload (JSON file, or - for stdin) to the backend.
When delivery fails the order is queued in the outbox and synced later;
a terminal rejection is queued but flagged so it is not retried.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			raw []byte
			err error
		)
		if args[0] == "-" {
			raw, err = io.ReadAll(os.Stdin)
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}

		var payload models.OrderPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("invalid order payload: %w", err)
		}
		if len(payload.Items) == 0 {
			return fmt.Errorf("order has no items")
		}

		outcome, err := wire.SyncService().SubmitOrder(context.Background(), payload)
		if err != nil {
			return fmt.Errorf("failed to submit order: %w", err)
		}
		if outcome.Delivered {
			fmt.Printf("%s Order delivered: %s\n", color.New(color.FgGreen).Sprint("✓"), outcome.ServerOrderID)
		} else {
			fmt.Printf("%s Backend unreachable; order queued as %s\n", color.New(color.FgYellow).Sprint("!"), outcome.LocalID)
		}
		return nil
	},
}

// OrderCmd returns the order command
func OrderCmd() *cobra.Command {
	orderCmd.AddCommand(orderSubmitCmd)
	return orderCmd
}
