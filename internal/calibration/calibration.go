// Package calibration loads calibration profiles: partial estimation
// configs kept in .hcl, .yaml or .json files.
package calibration

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"quizcost/core/estimation"
	"quizcost/core/types"
	"quizcost/internal/errors"
)

// Profile is the on-disk shape of a calibration file.
// Table keys are enum names such as MCQ_SINGLE or HARD.
type Profile struct {
	Name                  string             `json:"name,omitempty" yaml:"name,omitempty"`
	CharsPerToken         *float64           `json:"chars_per_token,omitempty" yaml:"chars_per_token,omitempty"`
	TokenToLLMRatio       *int               `json:"token_to_llm_ratio,omitempty" yaml:"token_to_llm_ratio,omitempty"`
	SafetyFactor          *float64           `json:"safety_factor,omitempty" yaml:"safety_factor,omitempty"`
	SystemPromptTokens    *int               `json:"system_prompt_tokens,omitempty" yaml:"system_prompt_tokens,omitempty"`
	ContextTemplateTokens *int               `json:"context_template_tokens,omitempty" yaml:"context_template_tokens,omitempty"`
	QuestionTemplates     map[string]int     `json:"question_templates,omitempty" yaml:"question_templates,omitempty"`
	CompletionTokens      map[string]int     `json:"completion_tokens,omitempty" yaml:"completion_tokens,omitempty"`
	DifficultyMultipliers map[string]float64 `json:"difficulty_multipliers,omitempty" yaml:"difficulty_multipliers,omitempty"`
	EstimationCoefficient *float64           `json:"estimation_coefficient,omitempty" yaml:"estimation_coefficient,omitempty"`
}

// Format identifies a calibration file encoding
type Format string

const (
	FormatHCL  Format = "hcl"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return FormatHCL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.Newf(errors.TypeNotSupported, "unsupported calibration file extension %q", filepath.Ext(path))
	}
}

// Load reads a calibration file and returns it as a config update
func Load(path string) (estimation.ConfigUpdate, error) {
	format, err := FormatOf(path)
	if err != nil {
		return estimation.ConfigUpdate{}, err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return estimation.ConfigUpdate{}, errors.NotFound("calibration file", path)
		}
		return estimation.ConfigUpdate{}, errors.Wrapf(errors.TypeConfig, err, "failed to read calibration file %s", path)
	}

	profile, err := Parse(src, path, format)
	if err != nil {
		return estimation.ConfigUpdate{}, err
	}
	return profile.Update()
}

// Parse decodes a profile. filename is only used in diagnostics.
func Parse(src []byte, filename string, format Format) (*Profile, error) {
	var (
		profile Profile
		err     error
	)
	switch format {
	case FormatHCL:
		err = parseHCL(src, filename, &profile)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(src))
		dec.KnownFields(true)
		if err = dec.Decode(&profile); err == io.EOF {
			err = nil
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(src))
		dec.DisallowUnknownFields()
		err = dec.Decode(&profile)
	default:
		return nil, errors.Newf(errors.TypeNotSupported, "unsupported calibration format %q", format)
	}

	if err != nil {
		if errors.IsType(err, errors.TypeConfig) {
			return nil, err
		}
		return nil, errors.Wrap(errors.TypeParsing, "failed to parse calibration file", err).WithContext("path", filename)
	}
	return &profile, nil
}

func parseHCL(src []byte, filename string, profile *Profile) error {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return diags
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return diags
	}

	for name, attr := range attrs {
		var target interface{}
		switch name {
		case "name":
			target = &profile.Name
		case "chars_per_token":
			target = &profile.CharsPerToken
		case "token_to_llm_ratio":
			target = &profile.TokenToLLMRatio
		case "safety_factor":
			target = &profile.SafetyFactor
		case "system_prompt_tokens":
			target = &profile.SystemPromptTokens
		case "context_template_tokens":
			target = &profile.ContextTemplateTokens
		case "question_templates":
			target = &profile.QuestionTemplates
		case "completion_tokens":
			target = &profile.CompletionTokens
		case "difficulty_multipliers":
			target = &profile.DifficultyMultipliers
		case "estimation_coefficient":
			target = &profile.EstimationCoefficient
		default:
			return errors.Newf(errors.TypeConfig, "unknown calibration attribute %q", name).
				WithContext("path", filename).
				WithContext("line", attr.Range.Start.Line)
		}

		if diags := gohcl.DecodeExpression(attr.Expr, nil, target); diags.HasErrors() {
			return diags
		}
	}
	return nil
}

// Update converts the profile into a config update, resolving table keys
func (p *Profile) Update() (estimation.ConfigUpdate, error) {
	update := estimation.ConfigUpdate{
		CharsPerToken:         p.CharsPerToken,
		TokenToLLMRatio:       p.TokenToLLMRatio,
		SafetyFactor:          p.SafetyFactor,
		SystemPromptTokens:    p.SystemPromptTokens,
		ContextTemplateTokens: p.ContextTemplateTokens,
		EstimationCoefficient: p.EstimationCoefficient,
	}

	var err error
	if update.QuestionTemplateTokens, err = questionTable("question_templates", p.QuestionTemplates); err != nil {
		return estimation.ConfigUpdate{}, err
	}
	if update.CompletionTokens, err = questionTable("completion_tokens", p.CompletionTokens); err != nil {
		return estimation.ConfigUpdate{}, err
	}
	if p.DifficultyMultipliers != nil {
		update.DifficultyMultipliers = make(map[types.Difficulty]float64, len(p.DifficultyMultipliers))
		for key, v := range p.DifficultyMultipliers {
			d, err := types.ParseDifficulty(key)
			if err != nil || key == "" {
				return estimation.ConfigUpdate{}, errors.Newf(errors.TypeConfig, "difficulty_multipliers: unknown difficulty %q", key)
			}
			update.DifficultyMultipliers[d] = v
		}
	}
	return update, nil
}

func questionTable(field string, raw map[string]int) (map[types.QuestionType]int, error) {
	if raw == nil {
		return nil, nil
	}
	table := make(map[types.QuestionType]int, len(raw))
	for key, v := range raw {
		q, err := types.ParseQuestionType(key)
		if err != nil {
			return nil, errors.Newf(errors.TypeConfig, "%s: unknown question type %q", field, key)
		}
		table[q] = v
	}
	return table, nil
}
