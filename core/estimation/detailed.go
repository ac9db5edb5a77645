package estimation

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"quizcost/core/types"
)

// DetailedMinimumLLMTokens is the LLM estimate for degenerate input
const DetailedMinimumLLMTokens = 1000

// DetailedMinimumBillingTokens is the billing floor of the detailed model
const DetailedMinimumBillingTokens = 1

// DetailedStrategy is the component-cost-aware multiplicative model.
//
// Each requested question type is priced as its own backend call, so the
// system prompt, context template, type template and content are paid
// once per distinct type (and once per chunk on the chunk path).
type DetailedStrategy struct{}

// Name implements Strategy
func (DetailedStrategy) Name() string { return StrategyDetailed }

// MinimumResult implements Strategy
func (DetailedStrategy) MinimumResult(cfg *EstimationConfig) types.EstimationResult {
	return types.EstimationResult{
		EstimatedLLMTokens:     DetailedMinimumLLMTokens,
		EstimatedBillingTokens: maxInt64(DetailedMinimumBillingTokens, tokens(ceilDivInt(dec(DetailedMinimumLLMTokens), cfg.ratio()))),
		Strategy:               StrategyDetailed,
	}
}

// EstimateFromText implements Strategy
func (s DetailedStrategy) EstimateFromText(cfg *EstimationConfig, text string, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult {
	return s.estimateFromCharCount(cfg, utf8.RuneCountInString(strings.TrimSpace(text)), dist, difficulty)
}

func (s DetailedStrategy) estimateFromCharCount(cfg *EstimationConfig, chars int, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult {
	if chars <= 0 || dist.IsEmpty() {
		return s.MinimumResult(cfg)
	}

	contentTokens := ceilDiv(dec(int64(chars)), cfg.charsPerToken())
	input := decimal.Zero
	for _, q := range dist.ActiveTypes() {
		input = input.Add(s.callOverhead(cfg, q)).Add(contentTokens)
	}
	return s.finish(cfg, input, s.completion(cfg, dist, difficulty))
}

// EstimateFromChunks implements Strategy.
// Input overhead is paid once per (chunk x type) pair, counting only chunks
// with a positive effective size: a chunk with no content and no stored
// count adds no generation call and no overhead.
func (s DetailedStrategy) EstimateFromChunks(cfg *EstimationConfig, chunks []types.DocumentChunk, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult {
	if types.TotalCharCount(chunks) == 0 || dist.IsEmpty() {
		return s.MinimumResult(cfg)
	}

	cpt := cfg.charsPerToken()
	input := decimal.Zero
	for _, q := range dist.ActiveTypes() {
		overhead := s.callOverhead(cfg, q)
		for _, c := range chunks {
			chars := types.EffectiveCharCount(c)
			if chars == 0 {
				continue
			}
			input = input.Add(overhead).Add(ceilDiv(dec(int64(chars)), cpt))
		}
	}
	return s.finish(cfg, input, s.completion(cfg, dist, difficulty))
}

// EstimateFromDocument implements Strategy
func (s DetailedStrategy) EstimateFromDocument(cfg *EstimationConfig, documentContent *string, chunks []types.DocumentChunk, scope types.QuizScope, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult {
	return dispatchDocument(s, cfg, documentContent, chunks, scope, dist, difficulty)
}

// callOverhead is the fixed prompt cost of one generation call for q
func (DetailedStrategy) callOverhead(cfg *EstimationConfig, q types.QuestionType) decimal.Decimal {
	return dec(nonNegative(int64(cfg.SystemPromptTokens))).
		Add(dec(nonNegative(int64(cfg.ContextTemplateTokens)))).
		Add(dec(cfg.templateTokens(q)))
}

func (DetailedStrategy) completion(cfg *EstimationConfig, dist types.Distribution, difficulty types.Difficulty) decimal.Decimal {
	multiplier := cfg.difficultyMultiplier(difficulty)
	total := decimal.Zero
	for _, q := range dist.ActiveTypes() {
		count := dec(int64(dist[q]))
		total = total.Add(ceilMul(count.Mul(dec(cfg.completionTokens(q))), multiplier))
	}
	return total
}

// finish applies the safety factor, the estimation coefficient and the
// billing conversion.
func (DetailedStrategy) finish(cfg *EstimationConfig, input, completion decimal.Decimal) types.EstimationResult {
	adjusted := ceilMul(input.Add(completion), cfg.safetyFactor())
	final := ceilMul(adjusted, cfg.coefficient())
	billing := maxInt64(DetailedMinimumBillingTokens, tokens(ceilDivInt(final, cfg.ratio())))

	return types.EstimationResult{
		EstimatedLLMTokens:     tokens(final),
		EstimatedBillingTokens: billing,
		InputTokens:            tokens(input),
		CompletionTokens:       tokens(completion),
		Strategy:               StrategyDetailed,
	}
}
