package estimation

import (
	"sync/atomic"

	"quizcost/core/types"
)

// Snapshot is one immutable configuration generation
type Snapshot struct {
	// Version increases with every UpdateConfig
	Version uint64

	config EstimationConfig
}

// Config returns a deep copy of the snapshot's config
func (s *Snapshot) Config() EstimationConfig {
	return s.config.Clone()
}

// Service is the public estimator. It holds a strategy chosen at
// construction and a copy-on-write config slot. Each call captures one
// snapshot at entry, so concurrent UpdateConfig calls never tear an estimate.
type Service struct {
	strategy Strategy
	current  atomic.Pointer[Snapshot]
}

// NewService creates a service with the given strategy and config.
// A nil strategy selects DefaultStrategyName.
func NewService(strategy Strategy, cfg EstimationConfig) *Service {
	if strategy == nil {
		strategy = MustStrategy(DefaultStrategyName)
	}
	s := &Service{strategy: strategy}
	s.current.Store(&Snapshot{Version: 1, config: cfg.Clone()})
	return s
}

// NewDefaultService creates a service with the default strategy and config
func NewDefaultService() *Service {
	return NewService(nil, DefaultConfig())
}

// Strategy returns the active strategy
func (s *Service) Strategy() Strategy {
	return s.strategy
}

// Snapshot returns the current config snapshot
func (s *Service) Snapshot() *Snapshot {
	return s.current.Load()
}

// Config returns a copy of the current config
func (s *Service) Config() EstimationConfig {
	return s.Snapshot().Config()
}

// UpdateConfig installs a new snapshot with update applied.
// Results already returned are unaffected. Returns the new snapshot.
func (s *Service) UpdateConfig(update ConfigUpdate) *Snapshot {
	for {
		prev := s.current.Load()
		next := &Snapshot{Version: prev.Version + 1, config: update.Apply(prev.config)}
		if s.current.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// ReplaceConfig installs cfg wholesale
func (s *Service) ReplaceConfig(cfg EstimationConfig) *Snapshot {
	for {
		prev := s.current.Load()
		next := &Snapshot{Version: prev.Version + 1, config: cfg.Clone()}
		if s.current.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// EstimateFromText estimates from a whole text
func (s *Service) EstimateFromText(text string, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult {
	snap := s.Snapshot()
	return s.strategy.EstimateFromText(&snap.config, text, dist, difficulty)
}

// EstimateFromChunks estimates from a list of document chunks
func (s *Service) EstimateFromChunks(chunks []types.DocumentChunk, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult {
	snap := s.Snapshot()
	return s.strategy.EstimateFromChunks(&snap.config, chunks, dist, difficulty)
}

// EstimateFromDocument estimates from a document, dispatching on scope
func (s *Service) EstimateFromDocument(documentContent *string, chunks []types.DocumentChunk, scope types.QuizScope, dist types.Distribution, difficulty types.Difficulty) types.EstimationResult {
	snap := s.Snapshot()
	return s.strategy.EstimateFromDocument(&snap.config, documentContent, chunks, scope, dist, difficulty)
}

// Estimate routes a Request through the service's strategy
func (s *Service) Estimate(req Request) (types.EstimationResult, *Snapshot) {
	return s.EstimateWith(nil, req)
}

// EstimateWith routes a Request through strategy against the current
// snapshot. A nil strategy means the service's own.
func (s *Service) EstimateWith(strategy Strategy, req Request) (types.EstimationResult, *Snapshot) {
	if strategy == nil {
		strategy = s.strategy
	}
	snap := s.Snapshot()
	return Run(strategy, &snap.config, req), snap
}

// Compare runs every strategy on req against one snapshot
func (s *Service) Compare(req Request) (Comparison, *Snapshot) {
	snap := s.Snapshot()
	return Compare(&snap.config, req), snap
}
