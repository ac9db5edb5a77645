package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"quizcost/core/estimation"
	"quizcost/core/output"
	"quizcost/core/types"
	"quizcost/internal/config"
	"quizcost/internal/errors"
)

// inputOptions are the flags shared by estimate and compare
type inputOptions struct {
	text        string
	types       []string
	difficulty  string
	scope       string
	chunkSizes  []int
	strategy    string
	calibration string
	format      string
}

func (o *inputOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.text, "text", "", "inline source text (instead of a file)")
	f.StringArrayVarP(&o.types, "type", "t", nil, "question count as TYPE=N (repeatable, comma lists allowed)")
	f.StringVarP(&o.difficulty, "difficulty", "d", "MEDIUM", "difficulty (EASY, MEDIUM, HARD)")
	f.StringVar(&o.scope, "scope", "", "quiz scope (ENTIRE_DOCUMENT, SPECIFIC_CHUNKS, SPECIFIC_CHAPTER, SPECIFIC_SECTION)")
	f.IntSliceVar(&o.chunkSizes, "chunk-sizes", nil, "chunk character counts, e.g. 1200,800")
	f.StringVarP(&o.strategy, "strategy", "s", "", "estimation strategy (detailed, linear); default from config")
	f.StringVar(&o.calibration, "calibration", "", "calibration profile (.hcl, .yaml or .json)")
	f.StringVarP(&o.format, "format", "f", "", "output format (cli, json); default from config")
	_ = cmd.MarkFlagRequired("type")
}

// request builds the estimation request from flags and the optional file.
// A file argument of "-" reads standard input.
func (o *inputOptions) request(cmd *cobra.Command, args []string) (estimation.Request, error) {
	dist, err := types.ParseDistribution(o.types)
	if err != nil {
		return estimation.Request{}, err
	}
	difficulty, err := types.ParseDifficulty(o.difficulty)
	if err != nil {
		return estimation.Request{}, err
	}

	text := o.text
	if len(args) > 0 {
		if text != "" {
			return estimation.Request{}, errors.Input("use either --text or a file, not both")
		}
		data, err := readSource(cmd.InOrStdin(), args[0])
		if err != nil {
			return estimation.Request{}, errors.Wrap(errors.TypeInput, "failed to read source file", err).
				WithContext("path", args[0])
		}
		text = string(data)
	}

	req := estimation.Request{
		Text:         text,
		Distribution: dist,
		Difficulty:   difficulty,
	}

	if o.scope != "" || len(o.chunkSizes) > 0 {
		scope, err := types.ParseQuizScope(o.scope)
		if err != nil {
			return estimation.Request{}, err
		}
		req.Scope = scope
		for _, n := range o.chunkSizes {
			req.Chunks = append(req.Chunks, types.NewSizedChunk(n))
		}
		if text != "" {
			req.DocumentContent = &text
		}
	}
	return req, nil
}

func readSource(stdin io.Reader, path string) ([]byte, error) {
	if path != "-" {
		return os.ReadFile(path)
	}
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, errors.Input("standard input is a terminal; pipe the source text or pass a file")
	}
	return io.ReadAll(stdin)
}

// service builds the estimation service with flag overrides applied
func (o *inputOptions) service() (*estimation.Service, error) {
	cfg := *config.Get()
	if o.strategy != "" {
		cfg.Estimation.Strategy = o.strategy
	}
	if o.calibration != "" {
		cfg.Estimation.CalibrationFile = o.calibration
	}
	return cfg.NewService()
}

func (o *inputOptions) formatter() (output.Formatter, error) {
	cfg := config.Get()
	format := o.format
	if format == "" {
		format = cfg.Output.DefaultFormat
	}
	return output.NewFormatter(output.Format(format), cfg.Output.ShowBreakdown)
}
