package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"quizcost/core/types"
)

const (
	boxTop    = "┌────────────────────────────────────────────────────────────┐"
	boxRule   = "├────────────────────────────────────────────────────────────┤"
	boxBottom = "└────────────────────────────────────────────────────────────┘"
)

// CLIFormatter renders box tables for terminals
type CLIFormatter struct {
	// ShowBreakdown adds input and completion token rows
	ShowBreakdown bool
}

// Format returns FormatCLI
func (f *CLIFormatter) Format() Format {
	return FormatCLI
}

// RenderEstimate renders a single estimate
func (f *CLIFormatter) RenderEstimate(w io.Writer, report *EstimateReport) error {
	b := &boxWriter{w: w}
	b.line(boxTop)
	b.title("QUIZ TOKEN ESTIMATE")
	b.line(boxRule)
	f.requestRows(b, report.Request)
	b.row("Strategy", report.Result.Strategy)
	b.line(boxRule)
	f.resultRows(b, report.Result, "")

	if v := report.Affordability; v != nil {
		b.line(boxRule)
		b.row("Balance", fmt.Sprintf("%d", v.Balance))
		if v.Affordable {
			b.row("Affordable", fmt.Sprintf("yes (%d left)", v.Remaining))
		} else {
			b.row("Affordable", fmt.Sprintf("no (short %d)", v.Shortfall))
		}
		if n := report.MaxAffordable; n != nil {
			if *n < 0 {
				b.row("Max questions", "none")
			} else {
				b.row("Max questions", fmt.Sprintf("%d", *n))
			}
		}
	}
	b.line(boxBottom)

	f.footer(b, report.Metadata)
	return b.err
}

// RenderComparison renders every strategy side by side
func (f *CLIFormatter) RenderComparison(w io.Writer, report *ComparisonReport) error {
	b := &boxWriter{w: w}
	b.line(boxTop)
	b.title("STRATEGY COMPARISON")
	b.line(boxRule)
	f.requestRows(b, report.Request)
	for _, r := range report.Comparison.Results {
		b.line(boxRule)
		f.resultRows(b, r, r.Strategy+" ")
	}
	b.line(boxRule)
	b.row("Billing spread", fmt.Sprintf("%d", report.Comparison.BillingSpread))
	b.line(boxBottom)

	f.footer(b, report.Metadata)
	return b.err
}

func (f *CLIFormatter) requestRows(b *boxWriter, req RequestSummary) {
	source := req.Path
	if req.Scope != "" {
		source = fmt.Sprintf("%s (%s)", req.Path, req.Scope)
	}
	b.row("Source", source)
	b.row("Characters", fmt.Sprintf("%d", req.Characters))
	if req.Chunks > 0 {
		b.row("Chunks", fmt.Sprintf("%d", req.Chunks))
	}
	dist := req.Distribution.String()
	if dist == "" {
		dist = "(none)"
	}
	b.row("Questions", dist)
	b.row("Difficulty", string(req.Difficulty))
}

func (f *CLIFormatter) resultRows(b *boxWriter, r types.EstimationResult, prefix string) {
	b.row(prefix+"billing tokens", fmt.Sprintf("%d", r.EstimatedBillingTokens))
	b.row(prefix+"LLM tokens", fmt.Sprintf("%d", r.EstimatedLLMTokens))
	if f.ShowBreakdown && (r.InputTokens > 0 || r.CompletionTokens > 0) {
		b.row("  └─ input", fmt.Sprintf("%d", r.InputTokens))
		b.row("  └─ completion", fmt.Sprintf("%d", r.CompletionTokens))
	}
}

func (f *CLIFormatter) footer(b *boxWriter, m Metadata) {
	if m.Duration != "" {
		b.printf("\nEstimated in %s (config v%d)\n", m.Duration, m.ConfigVersion)
	}
}

// boxWriter keeps the first write error
type boxWriter struct {
	w   io.Writer
	err error
}

func (b *boxWriter) printf(format string, args ...interface{}) {
	if b.err != nil {
		return
	}
	_, b.err = fmt.Fprintf(b.w, format, args...)
}

func (b *boxWriter) line(s string) {
	b.printf("%s\n", s)
}

func (b *boxWriter) title(s string) {
	pad := 58 - utf8.RuneCountInString(s)
	left := pad / 2
	b.printf("│ %s%s%s │\n", strings.Repeat(" ", left), s, strings.Repeat(" ", pad-left))
}

// row prints a label/value pair; widths count runes so box glyphs align
func (b *boxWriter) row(label, value string) {
	label, value = truncate(label, 30), truncate(value, 27)
	b.printf("│ %s%s %s%s │\n",
		label, strings.Repeat(" ", 30-utf8.RuneCountInString(label)),
		strings.Repeat(" ", 27-utf8.RuneCountInString(value)), value)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
