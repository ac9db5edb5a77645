package api

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"quizcost/core/determinism"
	"quizcost/core/estimation"
	"quizcost/core/types"
	"quizcost/internal/errors"
)

// Cache memoizes estimates by request fingerprint.
// Keys include the config version, so an update never serves stale results.
type Cache struct {
	entries *lru.Cache[determinism.StableID, types.EstimationResult]
}

// NewCache creates a cache holding up to size estimates
func NewCache(size int) (*Cache, error) {
	entries, err := lru.New[determinism.StableID, types.EstimationResult](size)
	if err != nil {
		return nil, errors.Internal("failed to create estimate cache", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns a cached estimate
func (c *Cache) Get(key determinism.StableID) (types.EstimationResult, bool) {
	if c == nil {
		return types.EstimationResult{}, false
	}
	return c.entries.Get(key)
}

// Add stores an estimate
func (c *Cache) Add(key determinism.StableID, result types.EstimationResult) {
	if c == nil {
		return
	}
	c.entries.Add(key, result)
}

// Len returns the number of cached estimates
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Purge drops every entry
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

// Fingerprint identifies an estimate request under a strategy and
// config version. Content is hashed; distributions are canonicalized.
func Fingerprint(strategy string, version uint64, req estimation.Request) determinism.StableID {
	var f determinism.Fingerprint
	f.Add("strategy", strategy).
		AddInt("version", int64(version)).
		Add("path", path(req)).
		Add("scope", string(req.Scope)).
		Add("difficulty", string(req.Difficulty)).
		AddAll("distribution", determinism.CanonicalCounts(map[types.QuestionType]int(req.Distribution))).
		Add("text", determinism.HashString(req.Text).Hex())

	if req.DocumentContent != nil {
		f.Add("document", determinism.HashString(*req.DocumentContent).Hex())
	} else {
		f.Add("document", "-")
	}

	chunks := make([]string, 0, len(req.Chunks))
	for _, c := range req.Chunks {
		content, count := "-", "-"
		if c.Content != nil {
			content = determinism.HashString(*c.Content).Hex()
		}
		if c.CharacterCount != nil {
			count = strconv.Itoa(*c.CharacterCount)
		}
		chunks = append(chunks, content+"/"+count)
	}
	f.AddAll("chunks", chunks)

	return f.ID("quizcost/estimate")
}
