package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/pantry/internal/ports/primary"
	"github.com/example/pantry/internal/wire"
)

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Manage saved delivery locations",
}

var locationAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Save a delivery location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		street, _ := cmd.Flags().GetString("street")
		city, _ := cmd.Flags().GetString("city")
		isPrimary, _ := cmd.Flags().GetBool("primary")

		id, err := wire.LocationService().SaveLocation(context.Background(), primary.SaveLocationRequest{
			UserID:  user,
			Label:   args[0],
			Street:  street,
			City:    city,
			Primary: isPrimary,
		})
		if err != nil {
			return fmt.Errorf("failed to save location: %w", err)
		}
		fmt.Printf("✓ Saved location %s: %s\n", id, args[0])
		return nil
	},
}

var locationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's saved locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		locs, err := wire.LocationService().GetUserLocations(context.Background(), user)
		if err != nil {
			return fmt.Errorf("failed to list locations: %w", err)
		}
		if len(locs) == 0 {
			fmt.Println("No saved locations")
			return nil
		}

		for _, l := range locs {
			marker := " "
			if l.IsPrimary {
				marker = color.New(color.FgGreen).Sprint("★")
			}
			fmt.Printf("%s %s  %s", marker, l.ID, l.Label)
			if l.Street != "" {
				fmt.Printf("  %s, %s", l.Street, l.City)
			}
			if !l.LastUsedAt.IsZero() {
				fmt.Printf("  (last used %s)", l.LastUsedAt.Format("2006-01-02"))
			}
			fmt.Println()
		}
		return nil
	},
}

var locationSetPrimaryCmd = &cobra.Command{
	Use:   "set-primary [id]",
	Short: "Make one location the user's primary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		if err := wire.LocationService().SetPrimary(context.Background(), args[0], user); err != nil {
			return fmt.Errorf("failed to set primary: %w", err)
		}
		fmt.Printf("✓ %s is now primary\n", args[0])
		return nil
	},
}

var locationRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Delete a saved location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.LocationService().DeleteLocation(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete location: %w", err)
		}
		fmt.Printf("✓ Removed %s\n", args[0])
		return nil
	},
}

// LocationCmd returns the location command
func LocationCmd() *cobra.Command {
	for _, c := range []*cobra.Command{locationAddCmd, locationListCmd, locationSetPrimaryCmd} {
		c.Flags().String("user", "default", "user the location belongs to")
	}
	locationAddCmd.Flags().String("street", "", "street address")
	locationAddCmd.Flags().String("city", "", "city")
	locationAddCmd.Flags().Bool("primary", false, "make this the primary location")

	locationCmd.AddCommand(locationAddCmd)
	locationCmd.AddCommand(locationListCmd)
	locationCmd.AddCommand(locationSetPrimaryCmd)
	locationCmd.AddCommand(locationRemoveCmd)
	return locationCmd
}
