// Package cmd provides the CLI commands for quizcost.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"quizcost/internal/config"
	"quizcost/internal/logging"
)

// Version is the CLI version
const Version = "0.1.0"

// globalOptions are the persistent flags
type globalOptions struct {
	cfgFile string
	verbose bool
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "quizcost",
		Short: "Estimate token costs of quiz generation",
		Long: `quizcost predicts how many billing tokens a quiz-generation request
will consume, before any call to the generation backend.

Examples:
  quizcost estimate --type MCQ_SINGLE=5 notes.txt
  quizcost estimate --type MCQ_SINGLE=5,OPEN=2 --difficulty HARD --format json notes.txt
  quizcost compare --type TRUE_FALSE=10 --chunk-sizes 1200,800 --scope SPECIFIC_CHUNKS`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (.yaml or .json)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(newEstimateCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI
func Execute() error {
	defer logging.Sync()
	return newRootCmd().Execute()
}

func initConfig(opts *globalOptions) error {
	if opts.cfgFile != "" {
		cfg, err := config.Load(opts.cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		config.Set(cfg)
	}

	// Initialize logging
	logCfg := config.Get().Logging
	if opts.verbose {
		logCfg.Level = "debug"
	}
	if err := logging.Initialize(logCfg); err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}
	return nil
}

// newVersionCmd prints version information
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quizcost version %s\n", Version)
		},
	}
}
