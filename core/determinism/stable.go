// Package determinism provides primitives for deterministic identifiers.
// Request fingerprints must not depend on map iteration order.
package determinism

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
)

// StableID is a hash-based unique identifier that's deterministic
type StableID string

// IDGenerator generates stable, deterministic IDs
type IDGenerator struct {
	namespace string
}

// NewIDGenerator creates an ID generator with a namespace
func NewIDGenerator(namespace string) *IDGenerator {
	return &IDGenerator{namespace: namespace}
}

// Generate creates a stable ID from inputs
func (g *IDGenerator) Generate(parts ...string) StableID {
	h := sha256.New()
	h.Write([]byte(g.namespace))
	h.Write([]byte{0}) // Separator
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0}) // Separator
	}
	return StableID(hex.EncodeToString(h.Sum(nil))[:16])
}

// ContentHash is a SHA-256 hash for content integrity
type ContentHash [32]byte

// ComputeHash computes a content hash from bytes
func ComputeHash(data []byte) ContentHash {
	return sha256.Sum256(data)
}

// HashString computes a content hash of a string
func HashString(s string) ContentHash {
	return sha256.Sum256([]byte(s))
}

// Hex returns the hash as a hex string
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements Stringer
func (h ContentHash) String() string {
	return h.Hex()[:16] + "..."
}

// SortedKeys returns the map keys in sorted order
func SortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// CanonicalCounts renders a count map as "k=v" pairs in key order,
// skipping entries with non-positive values.
func CanonicalCounts[K ~string](m map[K]int) []string {
	parts := make([]string, 0, len(m))
	for _, k := range SortedKeys(m) {
		if m[k] <= 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return parts
}

// Fingerprint accumulates request fields into a StableID
type Fingerprint struct {
	parts []string
}

// Add appends a named string field
func (f *Fingerprint) Add(name, value string) *Fingerprint {
	f.parts = append(f.parts, name+":"+value)
	return f
}

// AddInt appends a named integer field
func (f *Fingerprint) AddInt(name string, value int64) *Fingerprint {
	return f.Add(name, strconv.FormatInt(value, 10))
}

// AddAll appends a named list field
func (f *Fingerprint) AddAll(name string, values []string) *Fingerprint {
	f.Add(name, strconv.Itoa(len(values)))
	f.parts = append(f.parts, values...)
	return f
}

// ID returns the fingerprint under the given namespace
func (f *Fingerprint) ID(namespace string) StableID {
	return NewIDGenerator(namespace).Generate(f.parts...)
}
