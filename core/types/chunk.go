// Package types - Document chunks
package types

import (
	"math"
	"unicode/utf8"
)

// DocumentChunk is a pre-segmented piece of a source document.
// Either field may be absent.
type DocumentChunk struct {
	// Content is the chunk text
	Content *string `json:"content,omitempty"`

	// CharacterCount is the stored size when content is not loaded
	CharacterCount *int `json:"character_count,omitempty"`
}

// NewTextChunk creates a chunk that carries its content
func NewTextChunk(content string) DocumentChunk {
	return DocumentChunk{Content: &content}
}

// NewSizedChunk creates a chunk that only carries a character count
func NewSizedChunk(characterCount int) DocumentChunk {
	return DocumentChunk{CharacterCount: &characterCount}
}

// EffectiveCharCount returns the chunk size in characters.
// Fallback order: content length, then CharacterCount, then 0.
// Empty content falls through to CharacterCount; negative counts clamp to 0.
func EffectiveCharCount(chunk DocumentChunk) int {
	if chunk.Content != nil {
		if n := utf8.RuneCountInString(*chunk.Content); n > 0 {
			return n
		}
	}
	if chunk.CharacterCount != nil && *chunk.CharacterCount > 0 {
		return *chunk.CharacterCount
	}
	return 0
}

// TotalCharCount sums EffectiveCharCount across chunks,
// saturating at math.MaxInt
func TotalCharCount(chunks []DocumentChunk) int {
	total := 0
	for _, c := range chunks {
		total = saturatingAdd(total, EffectiveCharCount(c))
	}
	return total
}

// saturatingAdd adds two non-negative ints without wrapping
func saturatingAdd(a, b int) int {
	if b > math.MaxInt-a {
		return math.MaxInt
	}
	return a + b
}
