// Package types defines core domain types shared across all layers.
// This package contains NO estimation logic - only type definitions.
package types

import (
	"strings"

	"quizcost/internal/errors"
)

// QuestionType identifies a kind of generated question
type QuestionType string

const (
	QuestionMCQSingle  QuestionType = "MCQ_SINGLE"
	QuestionMCQMulti   QuestionType = "MCQ_MULTI"
	QuestionTrueFalse  QuestionType = "TRUE_FALSE"
	QuestionOpen       QuestionType = "OPEN"
	QuestionFillGap    QuestionType = "FILL_GAP"
	QuestionOrdering   QuestionType = "ORDERING"
	QuestionCompliance QuestionType = "COMPLIANCE"
	QuestionMatching   QuestionType = "MATCHING"
	QuestionHotspot    QuestionType = "HOTSPOT"
)

// AllQuestionTypes lists every question type in declaration order.
// Iteration over this slice keeps estimates deterministic.
var AllQuestionTypes = []QuestionType{
	QuestionMCQSingle,
	QuestionMCQMulti,
	QuestionTrueFalse,
	QuestionOpen,
	QuestionFillGap,
	QuestionOrdering,
	QuestionCompliance,
	QuestionMatching,
	QuestionHotspot,
}

// String returns the string representation
func (q QuestionType) String() string {
	return string(q)
}

// IsValid checks if the question type is a known type
func (q QuestionType) IsValid() bool {
	for _, known := range AllQuestionTypes {
		if q == known {
			return true
		}
	}
	return false
}

// ParseQuestionType converts user input into a QuestionType
func ParseQuestionType(s string) (QuestionType, error) {
	q := QuestionType(strings.ToUpper(strings.TrimSpace(s)))
	if !q.IsValid() {
		return "", errors.Newf(errors.TypeInput, "unknown question type: %q", s)
	}
	return q, nil
}

// Difficulty is the requested difficulty level of generated questions
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// AllDifficulties lists every difficulty level
var AllDifficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// String returns the string representation
func (d Difficulty) String() string {
	return string(d)
}

// IsValid checks if the difficulty is a known level
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// ParseDifficulty converts user input into a Difficulty.
// An empty string means MEDIUM.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DifficultyMedium, nil
	}
	d := Difficulty(strings.ToUpper(s))
	if !d.IsValid() {
		return "", errors.Newf(errors.TypeInput, "unknown difficulty: %q", s)
	}
	return d, nil
}

// QuizScope selects which part of a document a quiz is generated from
type QuizScope string

const (
	ScopeEntireDocument  QuizScope = "ENTIRE_DOCUMENT"
	ScopeSpecificChunks  QuizScope = "SPECIFIC_CHUNKS"
	ScopeSpecificChapter QuizScope = "SPECIFIC_CHAPTER"
	ScopeSpecificSection QuizScope = "SPECIFIC_SECTION"
)

// String returns the string representation
func (s QuizScope) String() string {
	return string(s)
}

// IsValid checks if the scope is a known scope
func (s QuizScope) IsValid() bool {
	switch s {
	case ScopeEntireDocument, ScopeSpecificChunks, ScopeSpecificChapter, ScopeSpecificSection:
		return true
	default:
		return false
	}
}

// IsChunked reports whether the scope estimates from a chunk subset
// rather than the full document text.
func (s QuizScope) IsChunked() bool {
	switch s {
	case ScopeSpecificChunks, ScopeSpecificChapter, ScopeSpecificSection:
		return true
	default:
		return false
	}
}

// ParseQuizScope converts user input into a QuizScope.
// An empty string means ENTIRE_DOCUMENT.
func ParseQuizScope(s string) (QuizScope, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ScopeEntireDocument, nil
	}
	scope := QuizScope(strings.ToUpper(s))
	if !scope.IsValid() {
		return "", errors.Newf(errors.TypeInput, "unknown quiz scope: %q", s)
	}
	return scope, nil
}
