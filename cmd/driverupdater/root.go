package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/driverkit/internal/dism"
	"github.com/joshuapare/driverkit/internal/elevation"
	"github.com/joshuapare/driverkit/internal/install"
	"github.com/joshuapare/driverkit/internal/logger"
	"github.com/joshuapare/driverkit/internal/reconcile"
	"github.com/joshuapare/driverkit/pkg/hive/regfile"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	logFile string

	// Image flags
	definitionPath string
	repoPath       string
	imagePath      string
	backup         bool
	skipElevation  bool
)

// Replaced in tests.
var (
	newServicer    = func(image string) install.Servicer { return dism.New(image) }
	checkElevation = elevation.Require
)

var closeLog = func() error { return nil }

var rootCmd = &cobra.Command{
	Use:   "driverupdater",
	Short: "Install drivers into an offline Windows image",
	Long: `driverupdater installs the driver packages and apps listed in a
definition file into an offline Windows image, then rewrites registry
references to driver store folders so they point at the newly installed
package versions.

Example:
  driverupdater -d definitions/duo.toml -r C:\DriverRepo -p D:\`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdate(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write a JSON debug log to this file")

	rootCmd.PersistentFlags().StringVarP(&imagePath, "image", "p", "", "Root of the offline Windows image")
	rootCmd.PersistentFlags().BoolVar(&backup, "backup", true, "Keep a .bak copy of each modified hive")
	rootCmd.PersistentFlags().
		BoolVar(&skipElevation, "skip-elevation-check", false, "Do not require an elevated process")
	addDefinitionFlags(rootCmd)
}

func addDefinitionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&definitionPath, "definition", "d", "", "Definition file (TOML)")
	cmd.Flags().StringVarP(&repoPath, "repo", "r", "", "Driver repository root")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	closer, err := logger.Init(logOptions())
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	closeLog = closer
	return nil
}

// logOptions maps the global flags onto logger options. --json switches the
// console log records to JSON along with the command output.
func logOptions() logger.Options {
	opts := logger.Options{Console: os.Stderr, Level: slog.LevelInfo, JSON: jsonOut, File: logFile}
	switch {
	case quiet:
		opts.Level = slog.LevelError
	case verbose:
		opts.Level = slog.LevelDebug
	}
	return opts
}

// prepareImage checks the image flag and privileges and returns the engine
// for it.
func prepareImage() (*reconcile.Engine, error) {
	if imagePath == "" {
		return nil, fmt.Errorf("--image is required")
	}
	if err := requireDir(imagePath); err != nil {
		return nil, err
	}
	if !skipElevation {
		if err := checkElevation(); err != nil {
			return nil, err
		}
	}
	return reconcile.New(regfile.Opener{Backup: backup}, imagePath, logger.L), nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", path)
	}
	return nil
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
