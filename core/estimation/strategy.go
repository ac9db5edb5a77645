package estimation

import (
	"fmt"
	"strings"

	"quizcost/core/types"
	"quizcost/internal/errors"
)

// Strategy is one generation of the cost formula.
// Implementations are stateless; the config snapshot is passed per call
// and must not be modified.
type Strategy interface {
	// Name identifies the strategy (e.g. "detailed", "linear")
	Name() string

	// MinimumResult is the estimate returned for degenerate input
	MinimumResult(cfg *EstimationConfig) types.EstimationResult

	// EstimateFromText estimates generation from a whole text
	EstimateFromText(cfg *EstimationConfig, text string, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult

	// EstimateFromChunks estimates generation from a chunk subset
	EstimateFromChunks(cfg *EstimationConfig, chunks []types.DocumentChunk, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult

	// EstimateFromDocument dispatches on scope to the chunk or text path
	EstimateFromDocument(cfg *EstimationConfig, documentContent *string, chunks []types.DocumentChunk, scope types.QuizScope, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult

	// estimateFromCharCount is the text path for a trimmed text of chars
	// characters that is never materialized
	estimateFromCharCount(cfg *EstimationConfig, chars int, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult
}

// Strategy names
const (
	StrategyDetailed = "detailed"
	StrategyLinear   = "linear"
)

// DefaultStrategyName is the strategy used when none is configured
const DefaultStrategyName = StrategyLinear

// StrategyNames lists the registered strategies
func StrategyNames() []string {
	return []string{StrategyDetailed, StrategyLinear}
}

// StrategyByName returns the strategy registered under name.
// An empty name selects DefaultStrategyName.
func StrategyByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return StrategyByName(DefaultStrategyName)
	case StrategyDetailed:
		return DetailedStrategy{}, nil
	case StrategyLinear:
		return LinearStrategy{}, nil
	default:
		return nil, errors.Newf(errors.TypeInput, "unknown estimation strategy %q (want one of %s)",
			name, strings.Join(StrategyNames(), ", "))
	}
}

// MustStrategy is StrategyByName that panics on unknown names
func MustStrategy(name string) Strategy {
	s, err := StrategyByName(name)
	if err != nil {
		panic(fmt.Sprintf("estimation: %v", err))
	}
	return s
}

// dispatchDocument implements the scope dispatch shared by all strategies.
// Chunk scopes with chunks go to the chunk path; otherwise the document
// text is used, or a text the size of the summed chunks.
func dispatchDocument(s Strategy, cfg *EstimationConfig, documentContent *string, chunks []types.DocumentChunk, scope types.QuizScope, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult {
	if scope.IsChunked() && len(chunks) > 0 {
		return s.EstimateFromChunks(cfg, chunks, dist, difficulty)
	}

	if documentContent != nil && *documentContent != "" {
		return s.EstimateFromText(cfg, *documentContent, dist, difficulty)
	}
	if chars := types.TotalCharCount(chunks); chars > 0 {
		return s.estimateFromCharCount(cfg, chars, dist, difficulty)
	}
	return s.MinimumResult(cfg)
}
