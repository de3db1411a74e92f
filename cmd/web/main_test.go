package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"xerpihan-dashboard/internal/config"
	"xerpihan-dashboard/internal/dataset"
	"xerpihan-dashboard/internal/dataset/datasettest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Data: config.DataConfig{Dir: dir, LoadTimeout: 5 * time.Second, RevenueCategory: "Pendapatan"},
		Security: config.SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  50,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()
	datasettest.WriteFiles(t, dir, nil)

	a, err := newApp(context.Background(), testConfig(dir), testLogger())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	return a
}

func TestNewApp_MissingFileFailsStartup(t *testing.T) {
	dir := t.TempDir()
	datasettest.WriteFiles(t, dir, map[string]string{"xerpihan_final_summary.csv": ""})

	_, err := newApp(context.Background(), testConfig(dir), testLogger())

	de, ok := dataset.AsError(err)
	if !ok {
		t.Fatalf("err = %v, want a dataset error", err)
	}
	if de.Kind != dataset.KindFileNotFound || de.File != "xerpihan_final_summary.csv" {
		t.Errorf("error = %+v", de)
	}
}

func TestNewApp_ParseErrorFailsStartup(t *testing.T) {
	dir := t.TempDir()
	datasettest.WriteFiles(t, dir, map[string]string{"xerpihan_financial_metrics.csv": "Scenario,Revenue_CAGR\nOptimistic,1,2\n"})

	_, err := newApp(context.Background(), testConfig(dir), testLogger())

	if kind := dataset.KindOf(err); kind != dataset.KindParse {
		t.Errorf("kind = %q, want parse_error", kind)
	}

	msg := startupMessage(err)
	if !strings.HasPrefix(msg, "Error: ") || !strings.Contains(msg, "xerpihan_financial_metrics.csv") {
		t.Errorf("startup message = %q, want it to name the file", msg)
	}
}

func TestStartupMessage_NamesMissingFile(t *testing.T) {
	dir := t.TempDir()
	datasettest.WriteFiles(t, dir, map[string]string{"xerpihan_forecast_combined.csv": ""})

	_, err := newApp(context.Background(), testConfig(dir), testLogger())
	if err == nil {
		t.Fatal("expected a load error")
	}

	if msg := startupMessage(err); !strings.Contains(msg, "xerpihan_forecast_combined.csv") {
		t.Errorf("startup message = %q, want it to name the file", msg)
	}
}

// Integration tests through the full middleware chain
func TestApp_Routes(t *testing.T) {
	a := newTestApp(t)

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/pages/forecasting", http.StatusOK, "text/html"},
		{"/api/pages/financial-analysis?x=Revenue_CAGR&y=Avg_EBITDA_Margin", http.StatusOK, "application/json"},
		{"/api/datasets", http.StatusOK, "application/json"},
		{"/health", http.StatusOK, "application/json"},
		{"/charts/financial-analysis/custom-scatter?x=Revenue_CAGR&y=Avg_EBITDA_Margin", http.StatusOK, "image/svg+xml"},
		{"/export/financial-metrics.xlsx", http.StatusOK, "application/vnd.openxmlformats"},
		{"/sse/pages/overview", http.StatusOK, "text/event-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", tt.path, nil)

			a.handler.ServeHTTP(w, r)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}

			ct := w.Header().Get("Content-Type")
			if !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}

			if w.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID header")
			}
			if w.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("missing security headers")
			}

			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

func TestApp_MetricsRecordRequestsAndSlotFailures(t *testing.T) {
	a := newTestApp(t)

	for _, path := range []string{"/health", "/api/pages/financial-analysis?x=Nope"} {
		a.handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body := w.Body.String()

	for _, want := range []string{
		`xerpihan_http_requests_total{method="GET",route="GET /health",status="200"} 1`,
		`xerpihan_presenter_slot_failures_total{kind="missing_column",page="financial-analysis",slot="custom-scatter"} 1`,
		`xerpihan_dataset_table_rows{table="forecast"} 4`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestApp_ReloadKeepsServingOnFailure(t *testing.T) {
	dir := t.TempDir()
	datasettest.WriteFiles(t, dir, nil)
	a, err := newApp(context.Background(), testConfig(dir), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(dir + "/xerpihan_combined_data.csv"); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest("POST", "/admin/reload", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("reload status = %d, want 503", w.Code)
	}

	w = httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/pages/overview", nil))
	if w.Code != http.StatusOK {
		t.Errorf("overview after failed reload = %d, want 200", w.Code)
	}
	if a.store.Generation() != 1 {
		t.Errorf("generation = %d, want 1", a.store.Generation())
	}
}

func TestApp_MetricsDisabled(t *testing.T) {
	dir := t.TempDir()
	datasettest.WriteFiles(t, dir, nil)
	cfg := testConfig(dir)
	cfg.Metrics.Enabled = false

	a, err := newApp(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
