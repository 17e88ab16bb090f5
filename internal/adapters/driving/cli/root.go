// Package cli implements the azurebridge command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Driving ports used by the commands. Nil ports make their commands report
// "not configured".
var (
	settingsService   driving.SettingsService
	generationService driving.GenerationService
	reprocessService  driving.ReprocessService
	overrideService   driving.OverrideService
	ingestService     driving.IngestService
	chunker           driving.Chunker
)

// Global flags.
var (
	verboseFlag  bool
	logLevelFlag string
	outputFlag   string
)

// Services bundles the driving ports wired by main.
type Services struct {
	Settings   driving.SettingsService
	Generation driving.GenerationService
	Reprocess  driving.ReprocessService
	Overrides  driving.OverrideService
	Ingest     driving.IngestService
	Chunker    driving.Chunker
}

// SetServices injects the driving ports.
func SetServices(s Services) {
	settingsService = s.Settings
	generationService = s.Generation
	reprocessService = s.Reprocess
	overrideService = s.Overrides
	ingestService = s.Ingest
	chunker = s.Chunker
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "azurebridge",
	Short: "Monthly project report generation",
	Long: `AzureBridge turns project tracker snapshots into the monthly report.

A generation runs three stages over the snapshot of a project period:
extraction derives the report fields with evidence, normalization cleans
them, and validation scores completeness. Reviewers can then override
fields or re-run single sections.

Settings live in ~/.azurebridge/config.toml and can be overridden with
AZUREBRIDGE_<KEY> environment variables.`,
	SilenceUsage:      true,
	PersistentPreRunE: configureLogging,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Show pipeline detail on stderr")
	flags.StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVarP(&outputFlag, "output", "o", string(formatAuto), "Output format: auto, table, json")
}

func configureLogging(_ *cobra.Command, _ []string) error {
	if logLevelFlag != "" {
		level, err := logger.ParseLevel(logLevelFlag)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}
	if verboseFlag {
		logger.SetVerbose(true)
	}
	return nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return fmt.Errorf("azurebridge: %w", err)
	}
	return nil
}
