package estimation

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"quizcost/core/types"
)

// Linear model calibration
const (
	// LinearBaseBillingTokens is added to every estimate and is the floor
	LinearBaseBillingTokens = 3

	// LinearTokensPerKiloChar is billed per 1000 characters per question type
	LinearTokensPerKiloChar = 0.35
)

// LinearStrategy is the simplified linear model.
// Only the number of distinct requested types matters, not the counts.
// It does not break the total down into input and completion tokens.
type LinearStrategy struct{}

// Name implements Strategy
func (LinearStrategy) Name() string { return StrategyLinear }

// MinimumResult implements Strategy
func (LinearStrategy) MinimumResult(cfg *EstimationConfig) types.EstimationResult {
	return types.EstimationResult{
		EstimatedLLMTokens:     tokens(dec(LinearBaseBillingTokens).Mul(dec(cfg.ratio()))),
		EstimatedBillingTokens: LinearBaseBillingTokens,
		Strategy:               StrategyLinear,
	}
}

// EstimateFromText implements Strategy
func (s LinearStrategy) EstimateFromText(cfg *EstimationConfig, text string, dist types.Distribution, _ types.Difficulty) types.EstimationResult {
	return s.estimate(cfg, utf8.RuneCountInString(strings.TrimSpace(text)), dist)
}

func (s LinearStrategy) estimateFromCharCount(cfg *EstimationConfig, chars int, dist types.Distribution, _ types.Difficulty) types.EstimationResult {
	return s.estimate(cfg, chars, dist)
}

// EstimateFromChunks implements Strategy
func (s LinearStrategy) EstimateFromChunks(cfg *EstimationConfig, chunks []types.DocumentChunk, dist types.Distribution, _ types.Difficulty) types.EstimationResult {
	return s.estimate(cfg, types.TotalCharCount(chunks), dist)
}

// EstimateFromDocument implements Strategy
func (s LinearStrategy) EstimateFromDocument(cfg *EstimationConfig, documentContent *string, chunks []types.DocumentChunk, scope types.QuizScope, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult {
	return dispatchDocument(s, cfg, documentContent, chunks, scope, dist, difficulty)
}

func (s LinearStrategy) estimate(cfg *EstimationConfig, chars int, dist types.Distribution) types.EstimationResult {
	typeCount := dist.TypeCount()
	if chars <= 0 || typeCount == 0 {
		return s.MinimumResult(cfg)
	}

	perType := dec(int64(chars)).
		Div(dec(1000)).
		Mul(decimal.NewFromFloat(LinearTokensPerKiloChar)).
		Ceil()
	billing := perType.Mul(dec(int64(typeCount))).Add(dec(LinearBaseBillingTokens))

	return types.EstimationResult{
		EstimatedLLMTokens:     tokens(billing.Mul(dec(cfg.ratio()))),
		EstimatedBillingTokens: tokens(billing),
		Strategy:               StrategyLinear,
	}
}
