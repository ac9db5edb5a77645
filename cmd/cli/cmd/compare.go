package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"quizcost/core/output"
)

// newCompareCmd runs every strategy on the same input
func newCompareCmd() *cobra.Command {
	opts := &inputOptions{}

	cmd := &cobra.Command{
		Use:   "compare [file]",
		Short: "Compare estimation strategies on the same input",
		Long: `Run the detailed and linear strategies against one config snapshot
and print both results with their billing spread.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startTime := time.Now()

			req, err := opts.request(cmd, args)
			if err != nil {
				return err
			}
			svc, err := opts.service()
			if err != nil {
				return err
			}
			formatter, err := opts.formatter()
			if err != nil {
				return err
			}

			comparison, snap := svc.Compare(req)
			return formatter.RenderComparison(cmd.OutOrStdout(), &output.ComparisonReport{
				Request:    output.Summarize(req),
				Comparison: comparison,
				Metadata: output.Metadata{
					ConfigVersion: snap.Version,
					Duration:      time.Since(startTime).String(),
					Version:       Version,
				},
			})
		},
	}

	opts.register(cmd)
	return cmd
}
