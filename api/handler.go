// Package api - HTTP handler for token estimation
// This handler wraps the estimation service - it contains NO estimation logic.
// All formulas live in core/estimation.
package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizcost/core/billing"
	"quizcost/core/estimation"
	"quizcost/internal/errors"
	"quizcost/internal/logging"
	"quizcost/internal/monitoring"
)

// Handler handles estimation requests
type Handler struct {
	// Dependencies
	service *estimation.Service
	cache   *Cache
	metrics *monitoring.Metrics
	logger  *zap.Logger

	// Configuration
	allowConfigUpdates bool
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithCache enables result caching
func WithCache(c *Cache) HandlerOption {
	return func(h *Handler) { h.cache = c }
}

// WithMetrics records Prometheus metrics
func WithMetrics(m *monitoring.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger sets the request logger
func WithLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// WithConfigUpdates enables PATCH /config
func WithConfigUpdates(allow bool) HandlerOption {
	return func(h *Handler) { h.allowConfigUpdates = allow }
}

// NewHandler creates a new handler
func NewHandler(service *estimation.Service, opts ...HandlerOption) *Handler {
	h := &Handler{
		service: service,
		metrics: monitoring.New(false),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.metrics.SetConfigVersion(service.Snapshot().Version)
	return h
}

// HandleEstimate handles POST /estimate
func (h *Handler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()

	var body EstimateRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		h.metrics.RecordRejected(monitoring.LabelUnknown, monitoring.LabelUnknown)
		h.writeError(w, requestID, err)
		return
	}

	strategy, err := h.strategyFor(body.Strategy)
	if err != nil {
		h.metrics.RecordRejected(monitoring.LabelUnknown, monitoring.LabelUnknown)
		h.writeError(w, requestID, err)
		return
	}

	req, err := body.toEstimation()
	if err != nil {
		h.metrics.RecordRejected(strategy.Name(), monitoring.LabelUnknown)
		h.writeError(w, requestID, err)
		return
	}

	snap := h.service.Snapshot()
	key := Fingerprint(strategy.Name(), snap.Version, req)
	result, cached := h.cache.Get(key)
	if h.cache != nil {
		h.metrics.RecordCacheLookup(cached)
	}
	if !cached {
		cfg := snap.Config()
		result = estimation.Run(strategy, &cfg, req)
		h.cache.Add(key, result)
	}

	resp := &EstimateResponse{
		RequestID: requestID,
		Result:    result,
		Metadata: ResponseMetadata{
			Strategy:      strategy.Name(),
			ConfigVersion: snap.Version,
			Cached:        cached,
			Fingerprint:   string(key),
			DurationMs:    time.Since(start).Milliseconds(),
		},
	}
	if body.Balance != nil {
		verdict := billing.Preflight(*body.Balance, result)
		resp.Affordability = &verdict
	}

	h.metrics.RecordEstimate(path(req), result, time.Since(start))
	h.logger.Debug("estimate served",
		append([]zap.Field{
			zap.String("request_id", requestID),
			zap.String("path", path(req)),
			zap.Uint64("config_version", snap.Version),
			zap.Bool("cached", cached),
		}, logging.ResultFields(result)...)...)

	writeJSON(w, resp, http.StatusOK)
}

// HandleCompare handles POST /compare
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()

	var body EstimateRequest
	if err := decodeJSON(r.Body, &body); err != nil {
		h.metrics.RecordRejected(monitoring.StrategyCompare, monitoring.LabelUnknown)
		h.writeError(w, requestID, err)
		return
	}
	req, err := body.toEstimation()
	if err != nil {
		h.metrics.RecordRejected(monitoring.StrategyCompare, monitoring.LabelUnknown)
		h.writeError(w, requestID, err)
		return
	}

	comparison, snap := h.service.Compare(req)
	for _, result := range comparison.Results {
		h.metrics.RecordEstimate(path(req), result, time.Since(start))
	}

	writeJSON(w, &CompareResponse{
		RequestID:     requestID,
		Results:       comparison.Results,
		BillingSpread: comparison.BillingSpread,
		Metadata: ResponseMetadata{
			ConfigVersion: snap.Version,
			DurationMs:    time.Since(start).Milliseconds(),
		},
	}, http.StatusOK)
}

// HandleGetConfig handles GET /config
func (h *Handler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.configResponse(h.service.Snapshot()), http.StatusOK)
}

// HandlePatchConfig handles PATCH /config
func (h *Handler) HandlePatchConfig(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	if !h.allowConfigUpdates {
		h.writeError(w, requestID, errors.NotSupported("config updates are disabled"))
		return
	}

	var update estimation.ConfigUpdate
	if err := decodeJSON(r.Body, &update); err != nil {
		h.writeError(w, requestID, err)
		return
	}
	if err := update.Validate(); err != nil {
		h.writeError(w, requestID, err)
		return
	}
	if update.IsEmpty() {
		writeJSON(w, h.configResponse(h.service.Snapshot()), http.StatusOK)
		return
	}

	snap := h.service.UpdateConfig(update)
	h.cache.Purge()
	h.metrics.RecordConfigUpdate(snap.Version)
	h.logger.Info("estimation config updated",
		zap.String("request_id", requestID),
		zap.Uint64("config_version", snap.Version))

	writeJSON(w, h.configResponse(snap), http.StatusOK)
}

func (h *Handler) configResponse(snap *estimation.Snapshot) *ConfigResponse {
	return &ConfigResponse{
		Version:  snap.Version,
		Strategy: h.service.Strategy().Name(),
		Config:   snap.Config(),
	}
}

// strategyFor resolves a per-request strategy override
func (h *Handler) strategyFor(name string) (estimation.Strategy, error) {
	if name == "" {
		return h.service.Strategy(), nil
	}
	return estimation.StrategyByName(name)
}

func decodeJSON(body io.Reader, v interface{}) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.Wrap(errors.TypeInput, "request body too large", err).
				WithContext("status", http.StatusRequestEntityTooLarge)
		}
		return errors.Parsing("invalid JSON body", err)
	}
	return nil
}

// statusFor maps error types to HTTP status codes
func statusFor(err error) int {
	var e *errors.Error
	if stderrors.As(err, &e) {
		if status, ok := e.Context["status"].(int); ok {
			return status
		}
	}
	switch errors.TypeOf(err) {
	case errors.TypeInput, errors.TypeParsing:
		return http.StatusBadRequest
	case errors.TypeNotFound:
		return http.StatusNotFound
	case errors.TypeNotSupported:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, requestID string, err error) {
	status := statusFor(err)
	h.logger.Debug("request rejected",
		zap.String("request_id", requestID),
		zap.Int("status", status),
		zap.Error(err))

	w.Header().Set("X-Request-ID", requestID)
	writeJSON(w, &ErrorResponse{
		Error: ErrorDetail{
			Code:    string(errors.TypeOf(err)),
			Message: err.Error(),
		},
	}, status)
}

func writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
