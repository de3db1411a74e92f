package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"xerpihan-dashboard/internal/dataset"
	"xerpihan-dashboard/internal/errors"
	"xerpihan-dashboard/internal/observability"
	"xerpihan-dashboard/internal/presenter"
	"xerpihan-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	store     *dataset.Store
	presenter *presenter.Presenter
	logger    *slog.Logger
}

func NewPageHandlers(store *dataset.Store, p *presenter.Presenter, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{store: store, presenter: p, logger: logger}
}

// HandleDashboard serves the full HTML page. The root path shows the
// overview.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	requestID := observability.GetRequestID(ctx)

	id := r.PathValue("page")
	if id == "" {
		if r.URL.Path != "/" {
			errors.WriteError(w, h.logger, errors.NotFound("Page not found"), requestID)
			return
		}
		id = string(presenter.Overview)
	}

	ts, err := snapshot(h.store)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	params := queryParams(r)
	page, err := renderPage(ctx, h.presenter, ts, id, params, h.logger)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	var buf bytes.Buffer
	shell := templates.Shell{Page: page, Params: params, Generation: h.store.Generation()}
	if err := templates.Dashboard(shell).Render(ctx, &buf); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Render error"), requestID)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
