package estimation

import (
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizcost/core/types"
)

func allStrategies() []Strategy {
	return []Strategy{DetailedStrategy{}, LinearStrategy{}}
}

func TestStrategyByName(t *testing.T) {
	s, err := StrategyByName("")
	require.NoError(t, err)
	assert.Equal(t, DefaultStrategyName, s.Name())

	s, err = StrategyByName(" Detailed ")
	require.NoError(t, err)
	assert.Equal(t, StrategyDetailed, s.Name())

	_, err = StrategyByName("quadratic")
	assert.Error(t, err)
}

func TestMonotonicInContentLength(t *testing.T) {
	dist := types.Distribution{types.QuestionMCQSingle: 4, types.QuestionOpen: 2}

	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			svc := NewService(s, DefaultConfig())
			var prev int64
			for n := 0; n <= 12000; n += 137 {
				got := svc.EstimateFromText(strings.Repeat("w", n), dist, types.DifficultyHard)
				assert.GreaterOrEqual(t, got.EstimatedBillingTokens, prev, "length %d", n)
				prev = got.EstimatedBillingTokens
			}
		})
	}
}

func TestMonotonicInTypeCount(t *testing.T) {
	text := strings.Repeat("w", 6000)

	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			svc := NewService(s, DefaultConfig())
			dist := types.Distribution{}
			prev := svc.EstimateFromText(text, dist, types.DifficultyMedium).EstimatedBillingTokens
			for _, q := range types.AllQuestionTypes {
				dist[q] = 1
				got := svc.EstimateFromText(text, dist, types.DifficultyMedium).EstimatedBillingTokens
				assert.GreaterOrEqual(t, got, prev, "after adding %s", q)
				prev = got
			}
		})
	}
}

func TestIdempotence(t *testing.T) {
	dist := types.Distribution{types.QuestionOrdering: 3, types.QuestionHotspot: 1}
	chunks := []types.DocumentChunk{types.NewSizedChunk(1200), types.NewTextChunk("short chunk")}

	for _, s := range allStrategies() {
		svc := NewService(s, DefaultConfig())
		assert.Equal(t,
			svc.EstimateFromText("some content", dist, types.DifficultyEasy),
			svc.EstimateFromText("some content", dist, types.DifficultyEasy))
		assert.Equal(t,
			svc.EstimateFromChunks(chunks, dist, types.DifficultyHard),
			svc.EstimateFromChunks(chunks, dist, types.DifficultyHard))
	}
}

func TestUpdateConfigIsolation(t *testing.T) {
	svc := NewService(LinearStrategy{}, DefaultConfig())
	text := strings.Repeat("a", 2000)
	dist := types.Distribution{types.QuestionMCQSingle: 5}

	before := svc.EstimateFromText(text, dist, types.DifficultyMedium)
	snap := svc.UpdateConfig(ConfigUpdate{TokenToLLMRatio: ptr(10)})
	after := svc.EstimateFromText(text, dist, types.DifficultyMedium)

	assert.Equal(t, int64(4000), before.EstimatedLLMTokens, "returned result is not retroactively changed")
	assert.Equal(t, int64(40), after.EstimatedLLMTokens)
	assert.Equal(t, uint64(2), snap.Version)
	assert.Equal(t, 10, svc.Config().TokenToLLMRatio)
	assert.Equal(t, DefaultSafetyFactor, svc.Config().SafetyFactor, "unset fields keep their value")
}

func TestConfigReturnsCopy(t *testing.T) {
	svc := NewDefaultService()

	cfg := svc.Config()
	cfg.QuestionTemplateTokens[types.QuestionOpen] = 99999
	cfg.CharsPerToken = 1

	fresh := svc.Config()
	assert.Equal(t, 100, fresh.QuestionTemplateTokens[types.QuestionOpen])
	assert.Equal(t, DefaultCharsPerToken, fresh.CharsPerToken)
}

func TestConfigUpdateDoesNotAliasCallerMaps(t *testing.T) {
	svc := NewService(DetailedStrategy{}, DefaultConfig())
	table := map[types.QuestionType]int{types.QuestionOpen: 10}
	svc.UpdateConfig(ConfigUpdate{CompletionTokens: table})

	table[types.QuestionOpen] = 10000
	assert.Equal(t, 10, svc.Config().CompletionTokens[types.QuestionOpen])
}

func TestConfigUpdateApplyLeavesBase(t *testing.T) {
	base := DefaultConfig()
	next := ConfigUpdate{
		SafetyFactor:          ptr(2.0),
		DifficultyMultipliers: map[types.Difficulty]float64{types.DifficultyHard: 2},
	}.Apply(base)

	assert.Equal(t, DefaultSafetyFactor, base.SafetyFactor)
	assert.Equal(t, 1.15, base.DifficultyMultipliers[types.DifficultyHard])
	assert.Equal(t, 2.0, next.SafetyFactor)
	assert.Len(t, next.DifficultyMultipliers, 1)
}

func TestConfigUpdateMerge(t *testing.T) {
	merged := ConfigUpdate{SafetyFactor: ptr(1.5), TokenToLLMRatio: ptr(500)}.
		Merge(ConfigUpdate{TokenToLLMRatio: ptr(250)})

	assert.Equal(t, 1.5, *merged.SafetyFactor)
	assert.Equal(t, 250, *merged.TokenToLLMRatio)
	assert.True(t, ConfigUpdate{}.IsEmpty())
	assert.False(t, merged.IsEmpty())
}

func TestEstimateFromDocumentScopeDispatch(t *testing.T) {
	svc := NewService(LinearStrategy{}, DefaultConfig())
	dist := types.Distribution{types.QuestionMCQSingle: 5}
	doc := strings.Repeat("d", 10000)
	chunks := []types.DocumentChunk{types.NewSizedChunk(1000), types.NewSizedChunk(1000)}

	chunkPath := svc.EstimateFromChunks(chunks, dist, types.DifficultyMedium)
	textPath := svc.EstimateFromText(doc, dist, types.DifficultyMedium)
	require.NotEqual(t, chunkPath, textPath)

	tests := []struct {
		name   string
		doc    *string
		chunks []types.DocumentChunk
		scope  types.QuizScope
		want   types.EstimationResult
	}{
		{"specific chunks ignores document", &doc, chunks, types.ScopeSpecificChunks, chunkPath},
		{"chapter uses chunks", &doc, chunks, types.ScopeSpecificChapter, chunkPath},
		{"section uses chunks", nil, chunks, types.ScopeSpecificSection, chunkPath},
		{"entire document ignores chunks", &doc, chunks, types.ScopeEntireDocument, textPath},
		{"chunk scope without chunks falls back to document", &doc, nil, types.ScopeSpecificChunks, textPath},
		{"text sized from chunk sizes", nil, chunks, types.ScopeEntireDocument,
			svc.EstimateFromText(strings.Repeat("p", 2000), dist, types.DifficultyMedium)},
		{"nothing at all", nil, nil, types.ScopeEntireDocument, LinearStrategy{}.MinimumResult(ptr(DefaultConfig()))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.EstimateFromDocument(tt.doc, tt.chunks, tt.scope, dist, types.DifficultyMedium)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetailedDocumentChunkSizesMatchText(t *testing.T) {
	svc := NewService(DetailedStrategy{}, DefaultConfig())
	dist := types.Distribution{types.QuestionOpen: 2}
	chunks := []types.DocumentChunk{types.NewSizedChunk(1500), types.NewTextChunk(strings.Repeat("z", 500))}

	got := svc.EstimateFromDocument(nil, chunks, types.ScopeEntireDocument, dist, types.DifficultyHard)
	want := svc.EstimateFromText(strings.Repeat("t", 2000), dist, types.DifficultyHard)
	assert.Equal(t, want, got)
}

func TestRunRoutesRequests(t *testing.T) {
	cfg := DefaultConfig()
	dist := types.Distribution{types.QuestionMCQSingle: 1}
	text := strings.Repeat("r", 4000)

	plain := Run(LinearStrategy{}, &cfg, Request{Text: text, Distribution: dist})
	assert.Equal(t, int64(5), plain.EstimatedBillingTokens)

	scoped := Run(LinearStrategy{}, &cfg, Request{
		Text:         text,
		Chunks:       []types.DocumentChunk{types.NewSizedChunk(1000)},
		Scope:        types.ScopeSpecificChunks,
		Distribution: dist,
	})
	assert.Equal(t, int64(4), scoped.EstimatedBillingTokens)

	docOnly := Run(LinearStrategy{}, &cfg, Request{Chunks: []types.DocumentChunk{types.NewSizedChunk(4000)}, Distribution: dist})
	assert.Equal(t, plain, docOnly)
}

func TestCompare(t *testing.T) {
	svc := NewDefaultService()
	req := Request{
		Text:         strings.Repeat("a", 2000),
		Distribution: types.Distribution{types.QuestionMCQSingle: 5},
		Difficulty:   types.DifficultyMedium,
	}

	cmp, snap := svc.Compare(req)
	require.Len(t, cmp.Results, 2)
	assert.Equal(t, uint64(1), snap.Version)

	detailed, ok := cmp.Result(StrategyDetailed)
	require.True(t, ok)
	linear, ok := cmp.Result(StrategyLinear)
	require.True(t, ok)

	assert.Equal(t, int64(3), detailed.EstimatedBillingTokens)
	assert.Equal(t, int64(4), linear.EstimatedBillingTokens)
	assert.Equal(t, int64(1), cmp.BillingSpread)

	_, ok = cmp.Result("missing")
	assert.False(t, ok)
}

func TestConcurrentUpdatesNeverTearSnapshots(t *testing.T) {
	svc := NewService(LinearStrategy{}, DefaultConfig())
	text := strings.Repeat("c", 2000)
	dist := types.Distribution{types.QuestionMCQSingle: 1}

	const writers, updates, readers = 4, 200, 8
	var wg sync.WaitGroup

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < updates; i++ {
				ratio := 1000
				if (i+w)%2 == 0 {
					ratio = 7
				}
				svc.UpdateConfig(ConfigUpdate{TokenToLLMRatio: &ratio})
			}
		}(w)
	}

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < updates; i++ {
				res := svc.EstimateFromText(text, dist, types.DifficultyMedium)
				if res.EstimatedLLMTokens != 4*1000 && res.EstimatedLLMTokens != 4*7 {
					t.Errorf("torn estimate: %+v", res)
					return
				}
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, uint64(1+writers*updates), svc.Snapshot().Version, "no update is lost")
}

func ptr[T any](v T) *T {
	return &v
}

func TestHugeSizedChunkOnDocumentPath(t *testing.T) {
	dist := types.Distribution{types.QuestionMCQSingle: 1}
	chunks := []types.DocumentChunk{types.NewSizedChunk(math.MaxInt)}

	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			svc := NewService(s, DefaultConfig())
			var got types.EstimationResult
			require.NotPanics(t, func() {
				got = svc.EstimateFromDocument(nil, chunks, types.ScopeEntireDocument, dist, types.DifficultyMedium)
			})
			// One chunk priced as a whole text costs the same as the chunk path.
			assert.Equal(t, svc.EstimateFromChunks(chunks, dist, types.DifficultyMedium), got)
			assert.Greater(t, got.EstimatedBillingTokens, s.MinimumResult(ptr(DefaultConfig())).EstimatedBillingTokens)
		})
	}
}

func TestMonotonicAtIntegerExtremes(t *testing.T) {
	dist := types.Distribution{types.QuestionMCQSingle: 1, types.QuestionOpen: 1}
	one := []types.DocumentChunk{types.NewSizedChunk(math.MaxInt)}
	two := []types.DocumentChunk{types.NewSizedChunk(math.MaxInt), types.NewSizedChunk(math.MaxInt)}

	for _, s := range allStrategies() {
		t.Run(s.Name()+"/chunks", func(t *testing.T) {
			svc := NewService(s, DefaultConfig())
			small := svc.EstimateFromChunks(one, dist, types.DifficultyMedium)
			large := svc.EstimateFromChunks(two, dist, types.DifficultyMedium)
			assert.GreaterOrEqual(t, large.EstimatedBillingTokens, small.EstimatedBillingTokens)
			assert.GreaterOrEqual(t, large.EstimatedLLMTokens, small.EstimatedLLMTokens)
			assert.Positive(t, large.EstimatedLLMTokens)
		})

		t.Run(s.Name()+"/counts", func(t *testing.T) {
			svc := NewService(s, DefaultConfig())
			var prev types.EstimationResult
			for _, n := range []int{1, math.MaxInt / 100, math.MaxInt} {
				got := svc.EstimateFromText("some source text", types.Distribution{types.QuestionOpen: n}, types.DifficultyHard)
				assert.GreaterOrEqual(t, got.EstimatedBillingTokens, prev.EstimatedBillingTokens, "count %d", n)
				assert.GreaterOrEqual(t, got.EstimatedLLMTokens, prev.EstimatedLLMTokens, "count %d", n)
				assert.GreaterOrEqual(t, got.CompletionTokens, int64(0))
				prev = got
			}
		})
	}
}

func TestDetailedSaturatesInsteadOfWrapping(t *testing.T) {
	svc := NewService(DetailedStrategy{}, DefaultConfig())
	got := svc.EstimateFromText("some source text", types.Distribution{types.QuestionOpen: math.MaxInt}, types.DifficultyHard)

	assert.Equal(t, int64(math.MaxInt64), got.CompletionTokens)
	assert.Equal(t, int64(math.MaxInt64), got.EstimatedLLMTokens)
	assert.Greater(t, got.EstimatedBillingTokens, int64(DetailedMinimumBillingTokens))
}
