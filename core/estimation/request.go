package estimation

import (
	"quizcost/core/types"
)

// Request bundles the inputs of one estimate for the outer surfaces
// (API, CLI). Text is used unless a document field is set.
type Request struct {
	Text            string
	DocumentContent *string
	Chunks          []types.DocumentChunk
	Scope           types.QuizScope
	Distribution    types.Distribution
	Difficulty      types.Difficulty
}

// IsDocument reports whether the request takes the document path
func (r Request) IsDocument() bool {
	return r.DocumentContent != nil || len(r.Chunks) > 0 || r.Scope != ""
}

// Run evaluates req with strategy s against cfg
func Run(s Strategy, cfg *EstimationConfig, req Request) types.EstimationResult {
	if !req.IsDocument() {
		return s.EstimateFromText(cfg, req.Text, req.Distribution, req.Difficulty)
	}
	scope := req.Scope
	if scope == "" {
		scope = types.ScopeEntireDocument
	}
	doc := req.DocumentContent
	if doc == nil && req.Text != "" {
		doc = &req.Text
	}
	return s.EstimateFromDocument(cfg, doc, req.Chunks, scope, req.Distribution, req.Difficulty)
}

// Comparison holds the result of every strategy for one request
type Comparison struct {
	Results []types.EstimationResult `json:"results"`

	// BillingSpread is max minus min billing tokens across strategies
	BillingSpread int64 `json:"billing_spread"`
}

// Result returns the result produced by the named strategy
func (c Comparison) Result(name string) (types.EstimationResult, bool) {
	for _, r := range c.Results {
		if r.Strategy == name {
			return r, true
		}
	}
	return types.EstimationResult{}, false
}

// Compare evaluates req with every registered strategy against cfg
func Compare(cfg *EstimationConfig, req Request) Comparison {
	var c Comparison
	for _, name := range StrategyNames() {
		c.Results = append(c.Results, Run(MustStrategy(name), cfg, req))
	}
	c.BillingSpread = spread(c.Results)
	return c
}

func spread(results []types.EstimationResult) int64 {
	lo, hi := results[0].EstimatedBillingTokens, results[0].EstimatedBillingTokens
	for _, r := range results[1:] {
		if r.EstimatedBillingTokens < lo {
			lo = r.EstimatedBillingTokens
		}
		if r.EstimatedBillingTokens > hi {
			hi = r.EstimatedBillingTokens
		}
	}
	return hi - lo
}
