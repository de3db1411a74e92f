package server

import (
	"log/slog"
	"net/http"

	"xerpihan-dashboard/internal/handlers"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
	metrics      http.Handler
}

// NewServer wires the routes. A nil metrics handler leaves /metrics
// unregistered.
func NewServer(api *handlers.APIHandlers, sse *handlers.SSEHandlers, pages *handlers.PageHandlers, metrics http.Handler, logger *slog.Logger) *Server {
	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		apiHandlers:  api,
		sseHandlers:  sse,
		pageHandlers: pages,
		metrics:      metrics,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard pages
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /pages/{page}", s.pageHandlers.HandleDashboard)

	// Operations
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("POST /admin/reload", s.apiHandlers.HandleReload)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	// REST API endpoints
	s.mux.HandleFunc("GET /api/pages/{page}", s.apiHandlers.HandlePage)
	s.mux.HandleFunc("GET /api/datasets", s.apiHandlers.HandleDatasets)
	s.mux.HandleFunc("GET /api/datasets/{name}", s.apiHandlers.HandleDataset)

	// Downloads and images
	s.mux.HandleFunc("GET /export/{file}", s.apiHandlers.HandleExport)
	s.mux.HandleFunc("GET /charts/{page}/{chart}", s.apiHandlers.HandleChart)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/pages/{page}", s.sseHandlers.HandlePage)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
