// Package estimation predicts how many billing tokens a quiz-generation
// request will consume before any call to the generation backend.
//
// Estimates are pure functions of their input and one configuration
// snapshot. Degenerate input never fails; it yields the active strategy's
// minimum result.
package estimation

import (
	"maps"

	"quizcost/core/types"
	"quizcost/internal/errors"
)

// Default calibration values
const (
	DefaultCharsPerToken         = 4.0
	DefaultTokenToLLMRatio       = 1000
	DefaultSafetyFactor          = 1.2
	DefaultSystemPromptTokens    = 300
	DefaultContextTemplateTokens = 150
	DefaultEstimationCoefficient = 1.3
)

// DefaultQuestionTemplateTokens is the per-type prompt overhead
var DefaultQuestionTemplateTokens = map[types.QuestionType]int{
	types.QuestionMCQSingle:  80,
	types.QuestionMCQMulti:   90,
	types.QuestionTrueFalse:  60,
	types.QuestionOpen:       100,
	types.QuestionFillGap:    85,
	types.QuestionOrdering:   95,
	types.QuestionCompliance: 100,
	types.QuestionMatching:   100,
	types.QuestionHotspot:    100,
}

// DefaultCompletionTokens is the per-question completion size by type
var DefaultCompletionTokens = map[types.QuestionType]int{
	types.QuestionMCQSingle:  120,
	types.QuestionMCQMulti:   140,
	types.QuestionTrueFalse:  60,
	types.QuestionOpen:       180,
	types.QuestionFillGap:    120,
	types.QuestionOrdering:   140,
	types.QuestionCompliance: 160,
	types.QuestionMatching:   160,
	types.QuestionHotspot:    160,
}

// DefaultDifficultyMultipliers scales completion size by difficulty
var DefaultDifficultyMultipliers = map[types.Difficulty]float64{
	types.DifficultyEasy:   0.9,
	types.DifficultyMedium: 1.0,
	types.DifficultyHard:   1.15,
}

// EstimationConfig is an immutable calibration snapshot.
// Never mutate a config after handing it to a Service; use ConfigUpdate.
type EstimationConfig struct {
	CharsPerToken          float64                      `json:"chars_per_token" yaml:"chars_per_token"`
	TokenToLLMRatio        int                          `json:"token_to_llm_ratio" yaml:"token_to_llm_ratio"`
	SafetyFactor           float64                      `json:"safety_factor" yaml:"safety_factor"`
	SystemPromptTokens     int                          `json:"system_prompt_tokens" yaml:"system_prompt_tokens"`
	ContextTemplateTokens  int                          `json:"context_template_tokens" yaml:"context_template_tokens"`
	QuestionTemplateTokens map[types.QuestionType]int   `json:"question_template_tokens" yaml:"question_template_tokens"`
	CompletionTokens       map[types.QuestionType]int   `json:"completion_tokens" yaml:"completion_tokens"`
	DifficultyMultipliers  map[types.Difficulty]float64 `json:"difficulty_multipliers" yaml:"difficulty_multipliers"`
	EstimationCoefficient  float64                      `json:"estimation_coefficient" yaml:"estimation_coefficient"`
}

// DefaultConfig returns the calibrated defaults
func DefaultConfig() EstimationConfig {
	return EstimationConfig{
		CharsPerToken:          DefaultCharsPerToken,
		TokenToLLMRatio:        DefaultTokenToLLMRatio,
		SafetyFactor:           DefaultSafetyFactor,
		SystemPromptTokens:     DefaultSystemPromptTokens,
		ContextTemplateTokens:  DefaultContextTemplateTokens,
		QuestionTemplateTokens: maps.Clone(DefaultQuestionTemplateTokens),
		CompletionTokens:       maps.Clone(DefaultCompletionTokens),
		DifficultyMultipliers:  maps.Clone(DefaultDifficultyMultipliers),
		EstimationCoefficient:  DefaultEstimationCoefficient,
	}
}

// Clone returns a deep copy
func (c EstimationConfig) Clone() EstimationConfig {
	c.QuestionTemplateTokens = maps.Clone(c.QuestionTemplateTokens)
	c.CompletionTokens = maps.Clone(c.CompletionTokens)
	c.DifficultyMultipliers = maps.Clone(c.DifficultyMultipliers)
	return c
}

// ratio returns TokenToLLMRatio clamped to at least 1
func (c *EstimationConfig) ratio() int64 {
	if c.TokenToLLMRatio < 1 {
		return 1
	}
	return int64(c.TokenToLLMRatio)
}

func (c *EstimationConfig) charsPerToken() float64 {
	if c.CharsPerToken <= 0 {
		return DefaultCharsPerToken
	}
	return c.CharsPerToken
}

func (c *EstimationConfig) safetyFactor() float64 {
	if c.SafetyFactor <= 0 {
		return 1
	}
	return c.SafetyFactor
}

func (c *EstimationConfig) coefficient() float64 {
	if c.EstimationCoefficient <= 0 {
		return 1
	}
	return c.EstimationCoefficient
}

// templateTokens returns the prompt overhead for a type.
// Types missing from the table fall back to the defaults.
func (c *EstimationConfig) templateTokens(q types.QuestionType) int64 {
	return lookupTokens(c.QuestionTemplateTokens, DefaultQuestionTemplateTokens, q)
}

func (c *EstimationConfig) completionTokens(q types.QuestionType) int64 {
	return lookupTokens(c.CompletionTokens, DefaultCompletionTokens, q)
}

// difficultyMultiplier returns the multiplier for d; unknown or
// non-positive values behave like MEDIUM.
func (c *EstimationConfig) difficultyMultiplier(d types.Difficulty) float64 {
	m, ok := c.DifficultyMultipliers[d]
	if !ok {
		m, ok = DefaultDifficultyMultipliers[d]
	}
	if !ok || m <= 0 {
		return 1
	}
	return m
}

func lookupTokens(table, defaults map[types.QuestionType]int, q types.QuestionType) int64 {
	v, ok := table[q]
	if !ok {
		v = defaults[q]
	}
	return nonNegative(int64(v))
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// ConfigUpdate is a partial configuration change.
// Nil fields keep the current value; non-nil maps replace the whole table.
type ConfigUpdate struct {
	CharsPerToken          *float64                     `json:"chars_per_token,omitempty" yaml:"chars_per_token,omitempty"`
	TokenToLLMRatio        *int                         `json:"token_to_llm_ratio,omitempty" yaml:"token_to_llm_ratio,omitempty"`
	SafetyFactor           *float64                     `json:"safety_factor,omitempty" yaml:"safety_factor,omitempty"`
	SystemPromptTokens     *int                         `json:"system_prompt_tokens,omitempty" yaml:"system_prompt_tokens,omitempty"`
	ContextTemplateTokens  *int                         `json:"context_template_tokens,omitempty" yaml:"context_template_tokens,omitempty"`
	QuestionTemplateTokens map[types.QuestionType]int   `json:"question_template_tokens,omitempty" yaml:"question_template_tokens,omitempty"`
	CompletionTokens       map[types.QuestionType]int   `json:"completion_tokens,omitempty" yaml:"completion_tokens,omitempty"`
	DifficultyMultipliers  map[types.Difficulty]float64 `json:"difficulty_multipliers,omitempty" yaml:"difficulty_multipliers,omitempty"`
	EstimationCoefficient  *float64                     `json:"estimation_coefficient,omitempty" yaml:"estimation_coefficient,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u ConfigUpdate) IsEmpty() bool {
	return u.CharsPerToken == nil && u.TokenToLLMRatio == nil && u.SafetyFactor == nil &&
		u.SystemPromptTokens == nil && u.ContextTemplateTokens == nil &&
		u.QuestionTemplateTokens == nil && u.CompletionTokens == nil &&
		u.DifficultyMultipliers == nil && u.EstimationCoefficient == nil
}

// Validate rejects table keys that name no known enum value
func (u ConfigUpdate) Validate() error {
	for q := range u.QuestionTemplateTokens {
		if !q.IsValid() {
			return errors.Newf(errors.TypeInput, "question_template_tokens: unknown question type %q", q)
		}
	}
	for q := range u.CompletionTokens {
		if !q.IsValid() {
			return errors.Newf(errors.TypeInput, "completion_tokens: unknown question type %q", q)
		}
	}
	for d := range u.DifficultyMultipliers {
		if !d.IsValid() {
			return errors.Newf(errors.TypeInput, "difficulty_multipliers: unknown difficulty %q", d)
		}
	}
	return nil
}

// Apply returns a new config with the update merged over base.
// base is not modified.
func (u ConfigUpdate) Apply(base EstimationConfig) EstimationConfig {
	next := base.Clone()
	if u.CharsPerToken != nil {
		next.CharsPerToken = *u.CharsPerToken
	}
	if u.TokenToLLMRatio != nil {
		next.TokenToLLMRatio = *u.TokenToLLMRatio
	}
	if u.SafetyFactor != nil {
		next.SafetyFactor = *u.SafetyFactor
	}
	if u.SystemPromptTokens != nil {
		next.SystemPromptTokens = *u.SystemPromptTokens
	}
	if u.ContextTemplateTokens != nil {
		next.ContextTemplateTokens = *u.ContextTemplateTokens
	}
	if u.QuestionTemplateTokens != nil {
		next.QuestionTemplateTokens = maps.Clone(u.QuestionTemplateTokens)
	}
	if u.CompletionTokens != nil {
		next.CompletionTokens = maps.Clone(u.CompletionTokens)
	}
	if u.DifficultyMultipliers != nil {
		next.DifficultyMultipliers = maps.Clone(u.DifficultyMultipliers)
	}
	if u.EstimationCoefficient != nil {
		next.EstimationCoefficient = *u.EstimationCoefficient
	}
	return next
}

// Merge layers other over u; fields set in other win
func (u ConfigUpdate) Merge(other ConfigUpdate) ConfigUpdate {
	if other.CharsPerToken != nil {
		u.CharsPerToken = other.CharsPerToken
	}
	if other.TokenToLLMRatio != nil {
		u.TokenToLLMRatio = other.TokenToLLMRatio
	}
	if other.SafetyFactor != nil {
		u.SafetyFactor = other.SafetyFactor
	}
	if other.SystemPromptTokens != nil {
		u.SystemPromptTokens = other.SystemPromptTokens
	}
	if other.ContextTemplateTokens != nil {
		u.ContextTemplateTokens = other.ContextTemplateTokens
	}
	if other.QuestionTemplateTokens != nil {
		u.QuestionTemplateTokens = other.QuestionTemplateTokens
	}
	if other.CompletionTokens != nil {
		u.CompletionTokens = other.CompletionTokens
	}
	if other.DifficultyMultipliers != nil {
		u.DifficultyMultipliers = other.DifficultyMultipliers
	}
	if other.EstimationCoefficient != nil {
		u.EstimationCoefficient = other.EstimationCoefficient
	}
	return u
}
