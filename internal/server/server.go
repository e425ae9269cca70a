// Package server exposes the underwriting engine over a small JSON API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/config"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/forecast"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/recorder"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/scenario"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/output"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/uwerr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	timeout       time.Duration
	maxDraws      int
	workers       int
	recorder      recorder.Recorder
}

// Option customizes the handler.
type Option func(*handler)

// WithRecorder persists every successful underwriting request.
func WithRecorder(rec recorder.Recorder) Option {
	return func(h *handler) { h.recorder = rec }
}

// WithTimeout bounds each underwriting request.
func WithTimeout(timeout time.Duration) Option {
	return func(h *handler) {
		if timeout > 0 {
			h.timeout = timeout
		}
	}
}

// WithDrawLimit rejects Monte Carlo requests larger than limit.
func WithDrawLimit(limit int) Option {
	return func(h *handler) {
		if limit > 0 {
			h.maxDraws = limit
		}
	}
}

// WithWorkers sets the scenario and simulation worker count.
func WithWorkers(workers int) Option {
	return func(h *handler) { h.workers = workers }
}

// NewHandler constructs the HTTP handler that serves the underwriting API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string, opts ...Option) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		timeout:       DefaultRequestTimeout,
		maxDraws:      DefaultMaxDraws,
	}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()

	// Underwriting endpoint: a YAML or JSON configuration, raw or uploaded as "file"
	mux.HandleFunc("/api/underwrite", h.handleUnderwrite)

	// Config serialization endpoint for editor downloads
	mux.HandleFunc("/api/editor/export", h.handleConfigExport)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type underwriteResponse struct {
	output.Payload
	Duration   string `json:"duration"`
	ConfigYAML string `json:"configYaml,omitempty"`
}

func (h *handler) handleUnderwrite(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUnderwrite"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	configBytes, err := h.readConfig(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	cfg, err := config.ParseConfiguration(configBytes)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	opts := forecast.Options{
		Scenarios:  true,
		MonteCarlo: cfg.MonteCarlo.IsEnabled(),
		Solve:      len(cfg.Solver) > 0,
		Workers:    h.workers,
		Recorder:   h.recorder,
	}
	query := r.URL.Query()
	if v := query.Get("montecarlo"); v != "" {
		opts.MonteCarlo = coerceBool(v)
	}
	if v := query.Get("solve"); v != "" {
		opts.Solve = coerceBool(v)
	}
	if v := query.Get("draws"); v != "" {
		draws, err := strconv.Atoi(v)
		if err != nil || draws <= 0 {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid draws %q", v), op)
			return
		}
		opts.Draws = draws
	}
	if opts.MonteCarlo {
		draws := opts.Draws
		if draws == 0 {
			draws = cfg.MonteCarlo.Draws
		}
		if draws == 0 {
			draws = constants.DefaultDraws
		}
		if draws > h.maxDraws {
			h.respondError(w, http.StatusBadRequest,
				fmt.Sprintf("%d draws exceed the server limit of %d", draws, h.maxDraws), op)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report, err := forecast.GetForecast(ctx, h.logger, *cfg, opts)
	if err != nil {
		h.respondFailure(w, err, op)
		return
	}

	payload, err := output.Export(report)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("underwriting computed",
		zap.String("op", op),
		zap.String("deal", cfg.Deal.Name),
		zap.Float64("irr", payload.Metrics.IRR),
		zap.Bool("montecarlo", opts.MonteCarlo),
		zap.Int("solves", len(report.Solutions)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, underwriteResponse{
		Payload:    payload,
		Duration:   elapsed.String(),
		ConfigYAML: string(configBytes),
	})
}

// readConfig returns the configuration document from a multipart upload or
// the raw request body.
func (h *handler) readConfig(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, errors.New("missing configuration")
		}
		return data, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to parse upload: %v", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("missing configuration file")
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.readConfig"),
				zap.Error(closeErr),
			)
		}
	}()
	return io.ReadAll(file)
}

// statusFor maps engine failures onto HTTP statuses: bad inputs are the
// caller's fault, a deadline is a timeout, anything else is ours.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case uwerr.KindName(err) != "Unknown":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// sectionOrder is the order top-level sections are written in; anything
// else follows alphabetically.
var sectionOrder = []string{"logging", "output", "deal", "standardScenarios", "scenarios", "monteCarlo", "solver", "recorder"}

func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range sectionOrder {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	ordered := orderedConfig{items: items}
	return yaml.Marshal(ordered)
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("underwriting request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

// respondFailure reports an underwriting error with its kind and, when a
// named scenario failed, the scenario.
func (h *handler) respondFailure(w http.ResponseWriter, err error, op string) {
	status := statusFor(err)
	body := map[string]string{"error": err.Error()}
	if kind := uwerr.KindName(err); kind != "Unknown" {
		body["kind"] = kind
	}
	if name, ok := scenario.IsScenarioError(err); ok {
		body["scenario"] = name
	}
	h.logger.Error("underwriting request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.Error(err),
	)
	h.writeJSON(w, status, body)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func coerceBool(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && parsed
}
