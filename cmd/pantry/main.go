package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/example/pantry/internal/cli"
	"github.com/example/pantry/internal/version"
)

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "pantry",
		Short:   "Pantry - offline-resilience daemon for the ordering app",
		Version: version.String(),
		Long: `Pantry keeps a restaurant ordering app usable without a network:
it caches pages, assets and the menu locally, queues orders in an
outbox, and syncs everything back when the backend is reachable.`,
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.SyncCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.OrderCmd())
	rootCmd.AddCommand(cli.OutboxCmd())
	rootCmd.AddCommand(cli.MenuCmd())
	rootCmd.AddCommand(cli.LocationCmd())
	rootCmd.AddCommand(cli.CacheCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
