// Package types - Question distributions and estimation results
package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"quizcost/internal/errors"
)

// Distribution maps question types to requested counts.
// Entries with count <= 0 are treated as absent.
type Distribution map[QuestionType]int

// ActiveTypes returns the known question types with a positive count,
// in AllQuestionTypes order. Unknown types are ignored.
func (d Distribution) ActiveTypes() []QuestionType {
	var active []QuestionType
	for _, q := range AllQuestionTypes {
		if d[q] > 0 {
			active = append(active, q)
		}
	}
	return active
}

// TypeCount returns how many distinct types have a positive count
func (d Distribution) TypeCount() int {
	return len(d.ActiveTypes())
}

// TotalQuestions returns the sum of all positive counts,
// saturating at math.MaxInt
func (d Distribution) TotalQuestions() int {
	total := 0
	for _, q := range d.ActiveTypes() {
		total = saturatingAdd(total, d[q])
	}
	return total
}

// Add adds n to the count for q, saturating instead of wrapping
func (d Distribution) Add(q QuestionType, n int) {
	cur := d[q]
	switch {
	case n > 0 && cur > math.MaxInt-n:
		d[q] = math.MaxInt
	case n < 0 && cur < math.MinInt-n:
		d[q] = math.MinInt
	default:
		d[q] = cur + n
	}
}

// IsEmpty reports whether no type has a positive count
func (d Distribution) IsEmpty() bool {
	return d.TypeCount() == 0
}

// String renders the active entries as TYPE=N pairs
func (d Distribution) String() string {
	parts := make([]string, 0, len(d))
	for _, q := range d.ActiveTypes() {
		parts = append(parts, fmt.Sprintf("%s=%d", q, d[q]))
	}
	return strings.Join(parts, ",")
}

// ParseDistribution parses TYPE=N pairs (e.g. "MCQ_SINGLE=5").
// Repeated types are summed.
func ParseDistribution(pairs []string) (Distribution, error) {
	d := make(Distribution)
	for _, pair := range pairs {
		for _, item := range strings.Split(pair, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			name, value, ok := strings.Cut(item, "=")
			if !ok {
				return nil, errors.Newf(errors.TypeInput, "invalid distribution entry %q (want TYPE=N)", item)
			}
			q, err := ParseQuestionType(name)
			if err != nil {
				return nil, err
			}
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, errors.Wrap(errors.TypeInput, fmt.Sprintf("invalid count for %s", q), err)
			}
			d.Add(q, n)
		}
	}
	return d, nil
}

// EstimationResult is the output of a single estimate
type EstimationResult struct {
	// EstimatedLLMTokens is the internal model-token estimate
	EstimatedLLMTokens int64 `json:"estimated_llm_tokens"`

	// EstimatedBillingTokens is the externally billed token count
	EstimatedBillingTokens int64 `json:"estimated_billing_tokens"`

	// InputTokens is the prompt-side breakdown (0 when not modeled)
	InputTokens int64 `json:"input_tokens"`

	// CompletionTokens is the completion-side breakdown (0 when not modeled)
	CompletionTokens int64 `json:"completion_tokens"`

	// Strategy names the formula that produced the result
	Strategy string `json:"strategy"`
}
