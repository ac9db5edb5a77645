// Package cmd - estimate command
package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizcost/core/billing"
	"quizcost/core/estimation"
	"quizcost/core/output"
	"quizcost/core/types"
	"quizcost/internal/errors"
	"quizcost/internal/logging"
)

// maxQuestionSearch bounds the affordable-count search
const maxQuestionSearch = 1000

type estimateOptions struct {
	inputOptions
	balance int64
}

// newEstimateCmd represents the estimate command
func newEstimateCmd() *cobra.Command {
	opts := &estimateOptions{}

	cmd := &cobra.Command{
		Use:   "estimate [file]",
		Short: "Estimate billing tokens for a quiz",
		Long: `Estimate how many billing tokens generating a quiz will consume.

The source is a text file, --text, or only chunk sizes (--chunk-sizes) when
the content is not at hand.

Examples:
  quizcost estimate --type MCQ_SINGLE=5 notes.txt
  quizcost estimate --type OPEN=3 --difficulty HARD --strategy detailed notes.txt
  quizcost estimate --type MCQ_MULTI=4 --scope SPECIFIC_CHAPTER --chunk-sizes 4000,2500
  quizcost estimate --type TRUE_FALSE=10 --balance 5 notes.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd, opts, args)
		},
	}

	opts.register(cmd)
	cmd.Flags().Int64Var(&opts.balance, "balance", 0, "billing-token balance for an affordability check")
	return cmd
}

func runEstimate(cmd *cobra.Command, opts *estimateOptions, args []string) error {
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

	result, snap := svc.Estimate(req)
	logging.Debug("estimate computed", append(logging.ResultFields(result),
		zap.Uint64("config_version", snap.Version))...)

	report := &output.EstimateReport{
		Request: output.Summarize(req),
		Result:  result,
		Metadata: output.Metadata{
			Strategy:      result.Strategy,
			ConfigVersion: snap.Version,
			Duration:      time.Since(startTime).String(),
			Version:       Version,
		},
	}

	if cmd.Flags().Changed("balance") {
		if opts.balance < 0 {
			return errors.Newf(errors.TypeInput, "balance must not be negative: %d", opts.balance)
		}
		verdict := billing.Preflight(opts.balance, result)
		report.Affordability = &verdict

		if active := req.Distribution.ActiveTypes(); len(active) == 1 {
			n := maxAffordable(svc, req, active[0], opts.balance)
			report.MaxAffordable = &n
		}
	}

	return formatter.RenderEstimate(cmd.OutOrStdout(), report)
}

// maxAffordable finds the largest count of q the balance covers,
// keeping the rest of req fixed
func maxAffordable(svc *estimation.Service, req estimation.Request, q types.QuestionType, balance int64) int {
	return billing.MaxAffordable(balance, maxQuestionSearch, func(n int) types.EstimationResult {
		trial := req
		trial.Distribution = types.Distribution{q: n}
		result, _ := svc.Estimate(trial)
		return result
	})
}
