package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/pantry/internal/wire"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Manage the cached menu snapshot",
}

var menuRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the live menu and replace the cached snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if err := wire.MenuService().RefreshFromBackend(ctx); err != nil {
			return fmt.Errorf("refresh failed (previous snapshot kept): %w", err)
		}
		snap, err := wire.MenuService().GetCachedMenu(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Menu refreshed: %d categories, %d items\n", len(snap.Categories), len(snap.Items))
		return nil
	},
}

var menuShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cached menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := wire.MenuService().GetCachedMenu(context.Background())
		if err != nil {
			return fmt.Errorf("failed to load menu: %w", err)
		}
		if snap.Empty() {
			fmt.Println("No cached menu. Run `pantry menu refresh`.")
			return nil
		}

		byCategory := make(map[string][]string)
		for _, item := range snap.Items {
			line := fmt.Sprintf("  %s  %d¢", item.Name, item.PriceCents)
			if !item.Available {
				line += "  (unavailable)"
			}
			byCategory[item.CategoryID] = append(byCategory[item.CategoryID], line)
		}

		for _, cat := range snap.Categories {
			fmt.Printf("%s\n", cat.Name)
			for _, line := range byCategory[cat.ID] {
				fmt.Println(line)
			}
		}
		if uncategorized := byCategory[""]; len(uncategorized) > 0 {
			fmt.Println("Uncategorized")
			for _, line := range uncategorized {
				fmt.Println(line)
			}
		}
		fmt.Printf("\nCached at %s\n", snap.CachedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

// MenuCmd returns the menu command
func MenuCmd() *cobra.Command {
	menuCmd.AddCommand(menuRefreshCmd)
	menuCmd.AddCommand(menuShowCmd)
	return menuCmd
}
