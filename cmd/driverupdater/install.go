package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/driverkit/internal/definition"
	"github.com/joshuapare/driverkit/internal/install"
	"github.com/joshuapare/driverkit/internal/logger"
	"github.com/joshuapare/driverkit/internal/progress"
	"github.com/joshuapare/driverkit/internal/rewrite"
)

func init() {
	cmd := newInstallCmd()
	addDefinitionFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install a definition into an image without repairing the registry",
		Long: `The install command installs driver packages, framework packages and
apps from the repository into the image, in that order. Each package is
attempted up to three times; a package that keeps failing stops the run.

Example:
  driverupdater install -d definitions/duo.toml -r C:\DriverRepo -p D:\`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := runInstall(cmd.Context())
			if err != nil {
				return err
			}
			return reportUpdate(sum, nil)
		},
	}
	return cmd
}

// loadDefinition checks the definition and repository flags.
func loadDefinition() (definition.Definition, error) {
	if definitionPath == "" || repoPath == "" {
		return definition.Definition{}, fmt.Errorf("--definition and --repo are required")
	}
	if err := requireDir(repoPath); err != nil {
		return definition.Definition{}, err
	}
	printVerbose("Reading definition: %s\n", definitionPath)
	return definition.Load(definitionPath)
}

func runInstall(ctx context.Context) (install.Summary, error) {
	def, err := loadDefinition()
	if err != nil {
		return install.Summary{}, err
	}
	if _, err := prepareImage(); err != nil {
		return install.Summary{}, err
	}

	o := install.New(newServicer(imagePath))
	o.Log = logger.L
	if !quiet && !jsonOut {
		o.Progress = progress.New(os.Stdout)
	}
	return o.Run(ctx, repoPath, def)
}

// runUpdate installs the definition and, when that succeeds, reconciles the
// image's registry with the installed driver store.
func runUpdate(cmd *cobra.Command) error {
	if definitionPath == "" && repoPath == "" && imagePath == "" {
		return cmd.Help()
	}
	sum, err := runInstall(cmd.Context())
	if err != nil {
		return err
	}

	engine, err := prepareImage()
	if err != nil {
		return err
	}
	printInfo("Fixing potential registry left overs\n")
	stats, ok := engine.FixRegistryPaths(cmd.Context())
	if !ok {
		return fmt.Errorf("registry repair failed; see log for details")
	}
	return reportUpdate(sum, &stats)
}

func reportUpdate(sum install.Summary, stats *rewrite.Stats) error {
	if jsonOut {
		result := map[string]interface{}{
			"image":      imagePath,
			"drivers":    sum.Installed[install.KindDriver],
			"frameworks": sum.Installed[install.KindFramework],
			"apps":       sum.Installed[install.KindApp],
			"retries":    sum.Retried,
			"published":  sum.Published,
			"success":    true,
		}
		if stats != nil {
			result["values_rewritten"] = stats.ValuesRewritten
		}
		return printJSON(result)
	}

	printInfo("\n✓ Installed %d drivers, %d frameworks, %d apps\n",
		sum.Installed[install.KindDriver], sum.Installed[install.KindFramework], sum.Installed[install.KindApp])
	if sum.Retried > 0 {
		printVerbose("  Retried attempts: %d\n", sum.Retried)
	}
	if stats != nil {
		printInfo("✓ Registry references updated: %d\n", stats.ValuesRewritten)
	}
	return nil
}
