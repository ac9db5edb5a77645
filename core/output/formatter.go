// Package output provides output formatting interfaces.
// This package produces human and machine-readable outputs.
package output

import (
	"io"

	"quizcost/core/billing"
	"quizcost/core/estimation"
	"quizcost/core/types"
	"quizcost/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// RenderEstimate produces output for a single estimate
	RenderEstimate(w io.Writer, report *EstimateReport) error

	// RenderComparison produces output for a strategy comparison
	RenderComparison(w io.Writer, report *ComparisonReport) error
}

// EstimateReport contains the complete output of one estimate
type EstimateReport struct {
	// Request echoes what was estimated
	Request RequestSummary `json:"request"`

	// Result is the estimate
	Result types.EstimationResult `json:"result"`

	// Affordability is set when a balance was supplied
	Affordability *billing.Verdict `json:"affordability,omitempty"`

	// MaxAffordable is the largest question count the balance covers
	MaxAffordable *int `json:"max_affordable,omitempty"`

	// Metadata contains execution context
	Metadata Metadata `json:"metadata"`
}

// ComparisonReport contains every strategy's estimate for one request
type ComparisonReport struct {
	// Request echoes what was estimated
	Request RequestSummary `json:"request"`

	// Comparison holds one result per strategy
	Comparison estimation.Comparison `json:"comparison"`

	// Metadata contains execution context
	Metadata Metadata `json:"metadata"`
}

// RequestSummary describes an estimate request without its content
type RequestSummary struct {
	// Path is "text" or "document"
	Path string `json:"path"`

	// Characters is the effective character count of the input
	Characters int `json:"characters"`

	// Chunks is the number of chunks supplied
	Chunks int `json:"chunks,omitempty"`

	// Scope is the quiz scope on the document path
	Scope types.QuizScope `json:"scope,omitempty"`

	Distribution types.Distribution `json:"distribution"`
	Difficulty   types.Difficulty   `json:"difficulty"`
}

// Metadata contains execution context
type Metadata struct {
	// Strategy is the strategy that produced the result
	Strategy string `json:"strategy,omitempty"`

	// ConfigVersion is the snapshot version used
	ConfigVersion uint64 `json:"config_version"`

	// Duration is how long the estimate took
	Duration string `json:"duration,omitempty"`

	// Version is the tool version
	Version string `json:"version,omitempty"`
}

// Summarize describes req for a report
func Summarize(req estimation.Request) RequestSummary {
	s := RequestSummary{
		Path:         "text",
		Distribution: req.Distribution,
		Difficulty:   req.Difficulty,
	}
	if !req.IsDocument() {
		s.Characters = types.EffectiveCharCount(types.NewTextChunk(req.Text))
		return s
	}

	s.Path = "document"
	s.Scope = req.Scope
	if s.Scope == "" {
		s.Scope = types.ScopeEntireDocument
	}
	s.Chunks = len(req.Chunks)
	switch {
	case s.Scope.IsChunked() && len(req.Chunks) > 0:
		s.Characters = types.TotalCharCount(req.Chunks)
	case req.DocumentContent != nil:
		s.Characters = types.EffectiveCharCount(types.NewTextChunk(*req.DocumentContent))
	case req.Text != "":
		s.Characters = types.EffectiveCharCount(types.NewTextChunk(req.Text))
	default:
		s.Characters = types.TotalCharCount(req.Chunks)
	}
	return s
}

// Formats lists the supported formats
func Formats() []Format {
	return []Format{FormatCLI, FormatJSON}
}

// NewFormatter returns the formatter for format.
// showBreakdown adds input/completion rows to CLI tables.
func NewFormatter(format Format, showBreakdown bool) (Formatter, error) {
	switch format {
	case FormatCLI, "":
		return &CLIFormatter{ShowBreakdown: showBreakdown}, nil
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}, nil
	default:
		return nil, errors.Newf(errors.TypeInput, "unsupported output format: %q", format)
	}
}
