package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newResealCmd())
}

func newResealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reseal",
		Short: "Make the image run the PnP first boot experience again",
		Long: `The reseal command clears SYSTEM\HardwareConfig so Windows redetects
hardware on the next boot.

Example:
  driverupdater reseal -p D:\`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := prepareImage()
			if err != nil {
				return err
			}
			found, err := engine.ResealFirstBoot(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(map[string]interface{}{
					"image":    imagePath,
					"resealed": found,
				})
			}
			if found {
				printInfo("✓ Image resealed for PnP first boot\n")
			} else {
				printInfo("HardwareConfig not present; nothing to reseal\n")
			}
			return nil
		},
	}
}
