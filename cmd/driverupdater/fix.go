package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/driverkit/internal/rewrite"
)

func init() {
	rootCmd.AddCommand(newFixPathsCmd(), newFixLeftoversCmd())
}

func newFixPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix-paths",
		Short: "Point registry references at the installed driver store folders",
		Long: `The fix-paths command reads the driver store of the image and rewrites
every registry string that names an older hash of an installed package.

Example:
  driverupdater fix-paths -p D:\`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := prepareImage()
			if err != nil {
				return err
			}
			stats, ok := engine.FixRegistryPaths(cmd.Context())
			return reportStats("fix-paths", stats, ok)
		},
	}
}

func newFixLeftoversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fix-leftovers",
		Short: "Remove registry entries that reference removed packages",
		Long: `The fix-leftovers command deletes registry values and keys that refer to
third-party driver packages or vendor devices no longer present.

Example:
  driverupdater fix-leftovers -p D:\`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := prepareImage()
			if err != nil {
				return err
			}
			stats, ok := engine.RemoveLeftovers(cmd.Context())
			return reportStats("fix-leftovers", stats, ok)
		},
	}
}

func reportStats(op string, stats rewrite.Stats, ok bool) error {
	if jsonOut {
		if err := printJSON(map[string]interface{}{
			"operation":        op,
			"image":            imagePath,
			"values_rewritten": stats.ValuesRewritten,
			"values_deleted":   stats.ValuesDeleted,
			"keys_deleted":     stats.KeysDeleted,
			"success":          ok,
		}); err != nil {
			return err
		}
	}
	if !ok {
		return fmt.Errorf("%s failed; see log for details", op)
	}
	if jsonOut {
		return nil
	}
	if !stats.Changed() {
		printInfo("✓ Registry already consistent\n")
		return nil
	}
	printInfo("✓ Values rewritten: %d\n", stats.ValuesRewritten)
	printInfo("✓ Values deleted:   %d\n", stats.ValuesDeleted)
	printInfo("✓ Keys deleted:     %d\n", stats.KeysDeleted)
	return nil
}
