package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizcost/core/estimation"
	"quizcost/core/types"
	"quizcost/internal/config"
	"quizcost/internal/errors"
	"quizcost/internal/monitoring"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	svc, err := cfg.NewService()
	require.NoError(t, err)
	s, err := NewServer("test", cfg, svc)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func textRequest() map[string]interface{} {
	return map[string]interface{}{
		"text":         strings.Repeat("a", 2000),
		"distribution": map[string]int{"MCQ_SINGLE": 5},
		"difficulty":   "MEDIUM",
	}
}

func TestEstimateTextAndCache(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/estimate", textRequest())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[EstimateResponse](t, rec)

	assert.NotEmpty(t, first.RequestID)
	assert.Equal(t, int64(4), first.Result.EstimatedBillingTokens)
	assert.Equal(t, int64(4000), first.Result.EstimatedLLMTokens)
	assert.Equal(t, estimation.StrategyLinear, first.Metadata.Strategy)
	assert.Equal(t, uint64(1), first.Metadata.ConfigVersion)
	assert.False(t, first.Metadata.Cached)
	assert.Nil(t, first.Affordability)

	second := decode[EstimateResponse](t, do(t, s, http.MethodPost, "/estimate", textRequest()))
	assert.True(t, second.Metadata.Cached)
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, first.Metadata.Fingerprint, second.Metadata.Fingerprint)
	assert.NotEqual(t, first.RequestID, second.RequestID)
}

func TestEstimateCacheDisabled(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Cache.Enabled = false })

	do(t, s, http.MethodPost, "/estimate", textRequest())
	resp := decode[EstimateResponse](t, do(t, s, http.MethodPost, "/estimate", textRequest()))
	assert.False(t, resp.Metadata.Cached)
}

func TestEstimateStrategyOverrideAndBalance(t *testing.T) {
	s := newTestServer(t, nil)

	body := textRequest()
	body["strategy"] = "detailed"
	body["balance"] = 2

	rec := do(t, s, http.MethodPost, "/estimate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[EstimateResponse](t, rec)

	assert.Equal(t, types.EstimationResult{
		EstimatedLLMTokens:     2543,
		EstimatedBillingTokens: 3,
		InputTokens:            1030,
		CompletionTokens:       600,
		Strategy:               estimation.StrategyDetailed,
	}, resp.Result)
	require.NotNil(t, resp.Affordability)
	assert.False(t, resp.Affordability.Affordable)
	assert.Equal(t, int64(1), resp.Affordability.Shortfall)
}

func TestEstimateDocumentPath(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/estimate", map[string]interface{}{
		"scope": "SPECIFIC_CHUNKS",
		"chunks": []map[string]interface{}{
			{"character_count": 1000},
			{"content": strings.Repeat("b", 1000)},
		},
		"distribution": map[string]int{"MCQ_SINGLE": 5},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[EstimateResponse](t, rec)
	assert.Equal(t, int64(4), resp.Result.EstimatedBillingTokens)

	rec = do(t, s, http.MethodPost, "/estimate", map[string]interface{}{
		"scope":        "ENTIRE_DOCUMENT",
		"distribution": map[string]int{"OPEN": 1},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp = decode[EstimateResponse](t, rec)
	assert.Equal(t, int64(3), resp.Result.EstimatedBillingTokens, "nothing to estimate yields the floor")
}

func TestEstimateRejectsBadInput(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name string
		body interface{}
		code string
	}{
		{"malformed json", `{"text": `, "PARSING_ERROR"},
		{"unknown field", `{"txt": "a", "distribution": {}}`, "PARSING_ERROR"},
		{"unknown question type", map[string]interface{}{"text": "a", "distribution": map[string]int{"ESSAY": 1}}, "INPUT_ERROR"},
		{"unknown difficulty", map[string]interface{}{"text": "a", "distribution": map[string]int{"OPEN": 1}, "difficulty": "BRUTAL"}, "INPUT_ERROR"},
		{"unknown scope", map[string]interface{}{"scope": "APPENDIX", "distribution": map[string]int{"OPEN": 1}}, "INPUT_ERROR"},
		{"unknown strategy", map[string]interface{}{"strategy": "quadratic", "text": "a", "distribution": map[string]int{"OPEN": 1}}, "INPUT_ERROR"},
		{"negative balance", map[string]interface{}{"text": "a", "distribution": map[string]int{"OPEN": 1}, "balance": -1}, "INPUT_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/estimate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestEstimateBodyTooLarge(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Server.MaxBodyBytes = 64 })

	rec := do(t, s, http.MethodPost, "/estimate", textRequest())
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCompare(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/compare", textRequest())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[CompareResponse](t, rec)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, estimation.StrategyDetailed, resp.Results[0].Strategy)
	assert.Equal(t, int64(3), resp.Results[0].EstimatedBillingTokens)
	assert.Equal(t, estimation.StrategyLinear, resp.Results[1].Strategy)
	assert.Equal(t, int64(4), resp.Results[1].EstimatedBillingTokens)
	assert.Equal(t, int64(1), resp.BillingSpread)
}

func TestConfigGetAndPatch(t *testing.T) {
	s := newTestServer(t, nil)

	cfg := decode[ConfigResponse](t, do(t, s, http.MethodGet, "/config", nil))
	assert.Equal(t, uint64(1), cfg.Version)
	assert.Equal(t, estimation.StrategyLinear, cfg.Strategy)
	assert.Equal(t, estimation.DefaultTokenToLLMRatio, cfg.Config.TokenToLLMRatio)

	// warm the cache under version 1
	do(t, s, http.MethodPost, "/estimate", textRequest())

	rec := do(t, s, http.MethodPatch, "/config", `{"token_to_llm_ratio": 10}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cfg = decode[ConfigResponse](t, rec)
	assert.Equal(t, uint64(2), cfg.Version)
	assert.Equal(t, 10, cfg.Config.TokenToLLMRatio)
	assert.Equal(t, estimation.DefaultSafetyFactor, cfg.Config.SafetyFactor)

	resp := decode[EstimateResponse](t, do(t, s, http.MethodPost, "/estimate", textRequest()))
	assert.False(t, resp.Metadata.Cached)
	assert.Equal(t, uint64(2), resp.Metadata.ConfigVersion)
	assert.Equal(t, int64(4), resp.Result.EstimatedBillingTokens)
	assert.Equal(t, int64(40), resp.Result.EstimatedLLMTokens)

	// an empty update changes nothing
	cfg = decode[ConfigResponse](t, do(t, s, http.MethodPatch, "/config", `{}`))
	assert.Equal(t, uint64(2), cfg.Version)
}

func TestConfigPatchRejected(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPatch, "/config", `{"completion_tokens": {"ESSAY": 300}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPatch, "/config", `{"colour": "red"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	locked := newTestServer(t, func(c *config.Config) { c.Server.AllowConfigUpdates = false })
	rec = do(t, locked, http.MethodPatch, "/config", `{"token_to_llm_ratio": 10}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "NOT_SUPPORTED", decode[ErrorResponse](t, rec).Error.Code)
}

func TestSupportingEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "healthy", health["status"])

	rec = do(t, s, http.MethodGet, "/version", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	version := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "test", version["version"])
	assert.Equal(t, "linear", version["strategy"])

	rec = do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/estimate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsDisabled(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Metrics.Enabled = false })
	rec := do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFingerprint(t *testing.T) {
	req := func(dist types.Distribution) estimation.Request {
		return estimation.Request{Text: "abc", Distribution: dist, Difficulty: types.DifficultyEasy}
	}

	a := Fingerprint("linear", 1, req(types.Distribution{types.QuestionOpen: 1, types.QuestionMCQSingle: 2}))
	b := Fingerprint("linear", 1, req(types.Distribution{types.QuestionMCQSingle: 2, types.QuestionOpen: 1, types.QuestionHotspot: 0}))
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, Fingerprint("linear", 2, req(types.Distribution{types.QuestionOpen: 1, types.QuestionMCQSingle: 2})))
	assert.NotEqual(t, a, Fingerprint("detailed", 1, req(types.Distribution{types.QuestionOpen: 1, types.QuestionMCQSingle: 2})))

	sized := estimation.Request{Scope: types.ScopeSpecificChunks, Chunks: []types.DocumentChunk{types.NewSizedChunk(10)}}
	bigger := estimation.Request{Scope: types.ScopeSpecificChunks, Chunks: []types.DocumentChunk{types.NewSizedChunk(11)}}
	assert.NotEqual(t, Fingerprint("linear", 1, sized), Fingerprint("linear", 1, bigger))
}

func TestCacheNilSafe(t *testing.T) {
	var c *Cache
	_, ok := c.Get("x")
	assert.False(t, ok)
	c.Add("x", types.EstimationResult{})
	c.Purge()
	assert.Zero(t, c.Len())

	c, err := NewCache(1)
	require.NoError(t, err)
	c.Add("a", types.EstimationResult{EstimatedBillingTokens: 1})
	c.Add("b", types.EstimationResult{EstimatedBillingTokens: 2})
	assert.Equal(t, 1, c.Len())
	_, ok = c.Get("a")
	assert.False(t, ok, "least recently used entry evicted")

	_, err = NewCache(0)
	assert.True(t, errors.IsType(err, errors.TypeInternal))
}

func TestRejectedStrategyNamesKeepSeriesBounded(t *testing.T) {
	s := newTestServer(t, nil)
	rejected := monitoring.EstimatesTotal.WithLabelValues(monitoring.LabelUnknown, monitoring.LabelUnknown, monitoring.OutcomeError)
	before := testutil.ToFloat64(rejected)
	series := testutil.CollectAndCount(monitoring.EstimatesTotal)

	for i := 0; i < 50; i++ {
		rec := do(t, s, http.MethodPost, "/estimate", map[string]interface{}{
			"strategy":     fmt.Sprintf("junk-%d", i),
			"text":         "a",
			"distribution": map[string]int{"OPEN": 1},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}

	assert.Equal(t, series, testutil.CollectAndCount(monitoring.EstimatesTotal))
	assert.Equal(t, before+50, testutil.ToFloat64(rejected))
}

func TestCompareRecordsRejections(t *testing.T) {
	s := newTestServer(t, nil)
	rejected := monitoring.EstimatesTotal.WithLabelValues(monitoring.StrategyCompare, monitoring.LabelUnknown, monitoring.OutcomeError)
	before := testutil.ToFloat64(rejected)

	rec := do(t, s, http.MethodPost, "/compare", `{"text": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodPost, "/compare", map[string]interface{}{"text": "a", "distribution": map[string]int{"ESSAY": 1}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, before+2, testutil.ToFloat64(rejected))
}

func TestEstimateHugeSizedChunk(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/estimate", map[string]interface{}{
		"chunks":       []map[string]interface{}{{"character_count": math.MaxInt}},
		"distribution": map[string]int{"MCQ_SINGLE": 1},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[EstimateResponse](t, rec)
	assert.Positive(t, resp.Result.EstimatedBillingTokens)
	assert.Positive(t, resp.Result.EstimatedLLMTokens)
}
