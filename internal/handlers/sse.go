package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"xerpihan-dashboard/internal/dataset"
	"xerpihan-dashboard/internal/errors"
	"xerpihan-dashboard/internal/observability"
	"xerpihan-dashboard/internal/presenter"
	"xerpihan-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	store     *dataset.Store
	presenter *presenter.Presenter
	logger    *slog.Logger
}

func NewSSEHandlers(store *dataset.Store, p *presenter.Presenter, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		store:     store,
		presenter: p,
		logger:    logger,
	}
}

// readParams takes the page selections from the Datastar signals when the
// client sent them, and from plain query parameters otherwise.
func readParams(r *http.Request) (presenter.Params, error) {
	params := queryParams(r)
	if r.Method == http.MethodGet && !r.URL.Query().Has("datastar") {
		return params, nil
	}
	if err := datastar.ReadSignals(r, &params); err != nil {
		return params, err
	}
	return params, nil
}

// HandlePage streams one fragment per KPI tile and chart slot of a page,
// then the axis selection as signals. Failed slots stream their banner.
func (h *SSEHandlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	params, err := readParams(r)
	if err != nil {
		errors.WriteError(w, h.logger, errors.BadRequest("Invalid signals"), requestID)
		return
	}

	ts, err := snapshot(h.store)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	page, err := renderPage(r.Context(), h.presenter, ts, r.PathValue("page"), params, h.logger)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	fragments, err := pageFragments(r.Context(), page, params, h.store.Generation())
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Fragment rendering failed"), requestID)
		return
	}

	sse := datastar.NewSSE(w, r)
	for _, f := range fragments {
		if err := sse.PatchElements(f); err != nil {
			h.logger.Warn("patch elements", "page", page.ID, "error", err, "request_id", requestID)
			return
		}
	}

	if page.Axes != nil {
		signals, err := json.Marshal(map[string]any{
			"xAxis":   page.Axes.X,
			"yAxis":   page.Axes.Y,
			"columns": page.Axes.Columns,
		})
		if err != nil {
			h.logger.Error("marshal axis signals", "error", err)
			return
		}
		sse.PatchSignals(signals)
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func pageFragments(ctx context.Context, page *presenter.Page, params presenter.Params, generation int64) ([]string, error) {
	components := make([]templ.Component, 0, len(page.KPIs)+len(page.Slots)+2)
	for _, k := range page.KPIs {
		components = append(components, templates.KPITile(k))
	}
	if page.Axes != nil {
		components = append(components, templates.AxisPicker(page.ID, page.Axes))
	}
	for _, s := range page.Slots {
		components = append(components, templates.ChartSlot(page.ID, s, templates.ChartURL(page.ID, s.ID, params, generation)))
	}
	if page.Exploration != nil {
		components = append(components, templates.Explorer(page.ID, page.Exploration))
	}

	out := make([]string, 0, len(components))
	for _, c := range components {
		var sb strings.Builder
		if err := c.Render(ctx, &sb); err != nil {
			return nil, err
		}
		out = append(out, sb.String())
	}
	return out, nil
}
