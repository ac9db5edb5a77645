package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter renders reports as JSON documents
type JSONFormatter struct {
	// Indent is the per-level indent; empty renders compact JSON
	Indent string
}

// Format returns FormatJSON
func (f *JSONFormatter) Format() Format {
	return FormatJSON
}

// RenderEstimate renders a single estimate
func (f *JSONFormatter) RenderEstimate(w io.Writer, report *EstimateReport) error {
	return f.encode(w, report)
}

// RenderComparison renders a strategy comparison
func (f *JSONFormatter) RenderComparison(w io.Writer, report *ComparisonReport) error {
	return f.encode(w, report)
}

func (f *JSONFormatter) encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if f.Indent != "" {
		enc.SetIndent("", f.Indent)
	}
	return enc.Encode(v)
}
