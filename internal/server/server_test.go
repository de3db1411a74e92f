package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"xerpihan-dashboard/internal/charts"
	"xerpihan-dashboard/internal/config"
	"xerpihan-dashboard/internal/dataset"
	"xerpihan-dashboard/internal/dataset/datasettest"
	"xerpihan-dashboard/internal/exporter"
	"xerpihan-dashboard/internal/handlers"
	"xerpihan-dashboard/internal/observability"
	"xerpihan-dashboard/internal/presenter"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := testLogger()
	metrics := observability.NewMetrics()
	store := dataset.NewStaticStore(datasettest.TableSet(t))
	p := presenter.New(presenter.Options{}, logger, metrics)

	return NewServer(
		handlers.NewAPIHandlers(store, p, charts.NewRenderer(), exporter.New(logger), logger, time.Second),
		handlers.NewSSEHandlers(store, p, logger),
		handlers.NewPageHandlers(store, p, logger),
		metrics.Handler(),
		logger,
	)
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantType   string
	}{
		{"GET", "/", http.StatusOK, "text/html"},
		{"GET", "/pages/risk-analysis", http.StatusOK, "text/html"},
		{"GET", "/pages/nope", http.StatusNotFound, "application/json"},
		{"GET", "/health", http.StatusOK, "application/json"},
		{"GET", "/admin/stats", http.StatusOK, "application/json"},
		{"POST", "/admin/reload", http.StatusInternalServerError, "application/json"},
		{"GET", "/metrics", http.StatusOK, "text/plain"},
		{"GET", "/api/pages/overview", http.StatusOK, "application/json"},
		{"GET", "/api/datasets", http.StatusOK, "application/json"},
		{"GET", "/api/datasets/Final%20Summary", http.StatusOK, "application/json"},
		{"GET", "/export/final-summary.csv", http.StatusOK, "text/csv"},
		{"GET", "/charts/portfolio-optimization/allocation", http.StatusOK, "image/svg+xml"},
		{"GET", "/sse/pages/risk-analysis", http.StatusOK, "text/event-stream"},
		{"POST", "/api/pages/overview", http.StatusMethodNotAllowed, ""},
		{"GET", "/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantType != "" && !strings.HasPrefix(w.Header().Get("Content-Type"), tt.wantType) {
				t.Errorf("Content-Type = %q, want prefix %q", w.Header().Get("Content-Type"), tt.wantType)
			}
		})
	}
}

func TestServer_NoMetricsRoute(t *testing.T) {
	logger := testLogger()
	store := dataset.NewStaticStore(datasettest.TableSet(t))
	p := presenter.New(presenter.Options{}, logger, nil)
	srv := NewServer(
		handlers.NewAPIHandlers(store, p, charts.NewRenderer(), exporter.New(logger), logger, time.Second),
		handlers.NewSSEHandlers(store, p, logger),
		handlers.NewPageHandlers(store, p, logger),
		nil,
		logger,
	)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGracefulServer_ShutdownRunsHooks(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	httpServer := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})}
	gs := NewGracefulServer(httpServer, testLogger(), config.ServerConfig{ShutdownTimeout: 2 * time.Second})

	var ran []string
	gs.RegisterShutdownHook("first", func(context.Context) error { ran = append(ran, "first"); return nil })
	gs.RegisterShutdownHook("second", func(context.Context) error { ran = append(ran, "second"); return errors.New("flush failed") })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	cancel()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "second") {
			t.Errorf("err = %v, want hook failure", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	if len(ran) != 2 || ran[0] != "first" {
		t.Errorf("hooks ran = %v", ran)
	}
}
