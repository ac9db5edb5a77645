package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"quizcost/internal/config"
)

// newConfigCmd manages configuration
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var (
		format      string
		calibration string
	)
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective estimation config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *config.Get()
			if calibration != "" {
				cfg.Estimation.CalibrationFile = calibration
			}
			effective, err := cfg.Calibration()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				return yaml.NewEncoder(out).Encode(effective)
			case "json", "":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(effective)
			default:
				return fmt.Errorf("unsupported format %q (want json or yaml)", format)
			}
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "json", "output format (json, yaml)")
	show.Flags().StringVar(&calibration, "calibration", "", "calibration profile to apply")

	initCmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write the default configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Default().Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(show, initCmd)
	return cmd
}
