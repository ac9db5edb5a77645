// Package api - API types for token estimation
// These types define the contract for the HTTP endpoints.
// Estimates are stateless, idempotent, and deterministic per config version.
package api

import (
	"quizcost/core/billing"
	"quizcost/core/estimation"
	"quizcost/core/types"
	"quizcost/internal/errors"
)

// EstimateRequest is the input to POST /estimate and POST /compare
type EstimateRequest struct {
	// Strategy overrides the server default ("detailed" or "linear")
	Strategy string `json:"strategy,omitempty"`

	// Text is whole-text input
	Text string `json:"text,omitempty"`

	// DocumentContent, Chunks and Scope select the document path
	DocumentContent *string               `json:"document_content,omitempty"`
	Chunks          []types.DocumentChunk `json:"chunks,omitempty"`
	Scope           string                `json:"scope,omitempty"`

	// Distribution maps question type names to counts
	Distribution map[string]int `json:"distribution"`

	// Difficulty defaults to MEDIUM
	Difficulty string `json:"difficulty,omitempty"`

	// Balance enables the affordability check
	Balance *int64 `json:"balance,omitempty"`
}

// toEstimation validates enum strings and builds the core request
func (r *EstimateRequest) toEstimation() (estimation.Request, error) {
	req := estimation.Request{
		Text:            r.Text,
		DocumentContent: r.DocumentContent,
		Chunks:          r.Chunks,
		Distribution:    make(types.Distribution, len(r.Distribution)),
	}

	for name, count := range r.Distribution {
		q, err := types.ParseQuestionType(name)
		if err != nil {
			return estimation.Request{}, err
		}
		req.Distribution.Add(q, count)
	}

	difficulty, err := types.ParseDifficulty(r.Difficulty)
	if err != nil {
		return estimation.Request{}, err
	}
	req.Difficulty = difficulty

	if r.Scope != "" {
		scope, err := types.ParseQuizScope(r.Scope)
		if err != nil {
			return estimation.Request{}, err
		}
		req.Scope = scope
	}

	if r.Balance != nil && *r.Balance < 0 {
		return estimation.Request{}, errors.Newf(errors.TypeInput, "balance must not be negative: %d", *r.Balance)
	}
	return req, nil
}

// path names the estimate path for metrics and logs
func path(req estimation.Request) string {
	if req.IsDocument() {
		return "document"
	}
	return "text"
}

// EstimateResponse is the output of POST /estimate
type EstimateResponse struct {
	RequestID     string                 `json:"request_id"`
	Result        types.EstimationResult `json:"result"`
	Affordability *billing.Verdict       `json:"affordability,omitempty"`
	Metadata      ResponseMetadata       `json:"metadata"`
}

// CompareResponse is the output of POST /compare
type CompareResponse struct {
	RequestID     string                   `json:"request_id"`
	Results       []types.EstimationResult `json:"results"`
	BillingSpread int64                    `json:"billing_spread"`
	Metadata      ResponseMetadata         `json:"metadata"`
}

// ResponseMetadata contains execution context
type ResponseMetadata struct {
	Strategy      string `json:"strategy,omitempty"`
	ConfigVersion uint64 `json:"config_version"`
	Cached        bool   `json:"cached"`
	Fingerprint   string `json:"fingerprint,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
}

// ConfigResponse is the output of GET and PATCH /config
type ConfigResponse struct {
	Version  uint64                      `json:"version"`
	Strategy string                      `json:"strategy"`
	Config   estimation.EstimationConfig `json:"config"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an error
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
