package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/javaxhaskell/Real-Estate-Modelling/internal/recorder"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const testDeal = `
deal:
  name: sample
  startDate: "2025-01"
  purchasePrice: 200000
  rental:
    monthlyRent: 1500
scenarios:
  - name: Void year
    vacancyShift: 0.1
monteCarlo:
  draws: 25
  seed: 11
`

type decodedResponse struct {
	Deal struct {
		Name string `json:"name"`
	} `json:"deal"`
	Metrics struct {
		IRR            float64 `json:"irr"`
		EquityInvested float64 `json:"equityInvested"`
	} `json:"metrics"`
	Scenarios *struct {
		Scenarios []struct {
			Name string `json:"name"`
		} `json:"scenarios"`
	} `json:"scenarios"`
	MonteCarlo *struct {
		Seed      uint64 `json:"seed"`
		Requested int    `json:"requested"`
	} `json:"monteCarlo"`
	BreakEven []struct {
		Field     string `json:"field"`
		Converged bool   `json:"converged"`
	} `json:"breakEven"`
	RunID      string `json:"runId"`
	Duration   string `json:"duration"`
	ConfigYAML string `json:"configYaml"`
}

func postUnderwrite(t *testing.T, handler http.Handler, target, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) decodedResponse {
	t.Helper()
	var resp decodedResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandleUnderwriteYAMLBody(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")
	rr := postUnderwrite(t, handler, "/api/underwrite", "application/x-yaml", []byte(testDeal))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode(t, rr)

	if resp.Deal.Name != "sample" {
		t.Fatalf("expected deal name sample, got %q", resp.Deal.Name)
	}
	if resp.Metrics.EquityInvested != 53000 {
		t.Fatalf("expected equity 53000, got %v", resp.Metrics.EquityInvested)
	}
	if resp.Scenarios == nil || len(resp.Scenarios.Scenarios) != 2 {
		t.Fatalf("expected base plus one scenario, got %+v", resp.Scenarios)
	}
	if resp.MonteCarlo == nil || resp.MonteCarlo.Seed != 11 || resp.MonteCarlo.Requested != 25 {
		t.Fatalf("unexpected monte carlo section %+v", resp.MonteCarlo)
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
	if resp.ConfigYAML == "" {
		t.Fatal("expected config YAML in response")
	}
}

func TestHandleUnderwriteJSONBody(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "")
	body := []byte(`{"deal": {"name": "json deal", "purchasePrice": 200000, "rental": {"monthlyRent": 1500}}}`)
	rr := postUnderwrite(t, handler, "/api/underwrite", "application/json", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode(t, rr)
	if resp.Deal.Name != "json deal" {
		t.Fatalf("expected deal name from JSON body, got %q", resp.Deal.Name)
	}
	if resp.MonteCarlo != nil {
		t.Fatal("monte carlo should not run without a monteCarlo section")
	}
}

func TestHandleUnderwriteMultipartUpload(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	data, err := os.ReadFile(filepath.Join("..", "..", "config.yaml.example"))
	if err != nil {
		t.Fatalf("failed to read example config: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "config.yaml")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	rr := postUnderwrite(t, handler, "/api/underwrite?draws=30", writer.FormDataContentType(), body.Bytes())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode(t, rr)
	if resp.MonteCarlo == nil || resp.MonteCarlo.Requested != 30 {
		t.Fatalf("expected draws override to apply, got %+v", resp.MonteCarlo)
	}
	if len(resp.BreakEven) != 2 {
		t.Fatalf("expected the configured break-even solves, got %+v", resp.BreakEven)
	}
}

func TestHandleUnderwriteSolveQuery(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	rr := postUnderwrite(t, handler, "/api/underwrite?montecarlo=false", "", []byte(testDeal))
	if got := decode(t, rr).BreakEven; len(got) != 0 {
		t.Fatalf("expected no solves without a solver section, got %+v", got)
	}

	rr = postUnderwrite(t, handler, "/api/underwrite?montecarlo=false&solve=true", "", []byte(testDeal))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	got := decode(t, rr).BreakEven
	if len(got) != 1 || got[0].Field != "purchasePrice" || !got[0].Converged {
		t.Fatalf("expected a converged purchase price solve, got %+v", got)
	}
}

func TestHandleUnderwriteMonteCarloQueryOverride(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")
	rr := postUnderwrite(t, handler, "/api/underwrite?montecarlo=false", "", []byte(testDeal))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if decode(t, rr).MonteCarlo != nil {
		t.Fatal("expected monte carlo to be skipped")
	}
}

func TestHandleUnderwriteDrawLimit(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test", WithDrawLimit(100), WithWorkers(2))

	rr := postUnderwrite(t, handler, "/api/underwrite?draws=101", "", []byte(testDeal))
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "server limit of 100") {
		t.Fatalf("expected draw limit rejection, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = postUnderwrite(t, handler, "/api/underwrite?draws=101&montecarlo=false", "", []byte(testDeal))
	if rr.Code != http.StatusOK {
		t.Fatalf("limit should not apply without monte carlo, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = postUnderwrite(t, handler, "/api/underwrite", "", []byte(testDeal))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := decode(t, rr).MonteCarlo; got == nil || got.Requested != 25 {
		t.Fatalf("expected 25 requested draws, got %+v", got)
	}
}

func TestHandleUnderwriteErrors(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 1024, "test")

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"wrong method", http.MethodGet, "/api/underwrite", "", http.StatusMethodNotAllowed},
		{"empty body", http.MethodPost, "/api/underwrite", "   ", http.StatusBadRequest},
		{"invalid yaml", http.MethodPost, "/api/underwrite", "deal: [", http.StatusBadRequest},
		{"unknown debt type", http.MethodPost, "/api/underwrite", "deal:\n  purchasePrice: 1000\n  financing:\n    type: balloon\n", http.StatusBadRequest},
		{"invalid deal", http.MethodPost, "/api/underwrite", "deal:\n  purchasePrice: 0\n", http.StatusUnprocessableEntity},
		{"bad draws", http.MethodPost, "/api/underwrite?draws=-1", testDeal, http.StatusBadRequest},
		{"too large", http.MethodPost, "/api/underwrite", strings.Repeat("#", 2048), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandleUnderwriteErrorKind(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")
	rr := postUnderwrite(t, handler, "/api/underwrite", "", []byte("deal:\n  purchasePrice: 0\n"))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if body["kind"] != "InvalidAssumptions" {
		t.Fatalf("expected InvalidAssumptions kind, got %v", body)
	}
	if _, ok := body["scenario"]; ok {
		t.Fatalf("base failure should not name a scenario: %v", body)
	}
}

func TestHandleUnderwriteRecordsRun(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"), nil)
	if err != nil {
		t.Fatalf("failed to open recorder: %v", err)
	}
	defer rec.Close()

	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test", WithRecorder(rec))
	rr := postUnderwrite(t, handler, "/api/underwrite", "", []byte(testDeal))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if decode(t, rr).RunID == "" {
		t.Fatal("expected run id in response")
	}
}

func TestHandleVersion(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, " 1.2.3 ")

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %q", resp["version"])
	}
}

func TestHandleConfigExportOrdersSections(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")

	payload := `{"zeta": 1, "monteCarlo": {"draws": 100}, "deal": {"purchasePrice": 200000}, "logging": {"level": "info"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/editor/export", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	yamlText := resp["configYaml"]

	order := []string{"logging:", "deal:", "monteCarlo:", "zeta:"}
	last := -1
	for _, key := range order {
		idx := strings.Index(yamlText, key)
		if idx <= last {
			t.Fatalf("expected %s after previous sections in:\n%s", key, yamlText)
		}
		last = idx
	}

	var roundTrip map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlText), &roundTrip); err != nil {
		t.Fatalf("exported YAML does not parse: %v", err)
	}
	if len(roundTrip) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(roundTrip))
	}
}

func TestHandleConfigExportRejectsBadJSON(t *testing.T) {
	handler := NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "test")
	req := httptest.NewRequest(http.MethodPost, "/api/editor/export", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
