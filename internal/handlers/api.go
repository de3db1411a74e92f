package handlers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"xerpihan-dashboard/internal/charts"
	"xerpihan-dashboard/internal/dataset"
	"xerpihan-dashboard/internal/errors"
	"xerpihan-dashboard/internal/exporter"
	"xerpihan-dashboard/internal/observability"
	"xerpihan-dashboard/internal/presenter"
)

const cacheMaxAge = "public, max-age=300"

type APIHandlers struct {
	store         *dataset.Store
	presenter     *presenter.Presenter
	renderer      *charts.Renderer
	exporter      *exporter.Exporter
	logger        *slog.Logger
	reloadTimeout time.Duration
	started       time.Time
}

func NewAPIHandlers(
	store *dataset.Store,
	p *presenter.Presenter,
	renderer *charts.Renderer,
	exp *exporter.Exporter,
	logger *slog.Logger,
	reloadTimeout time.Duration,
) *APIHandlers {
	return &APIHandlers{
		store:         store,
		presenter:     p,
		renderer:      renderer,
		exporter:      exp,
		logger:        logger,
		reloadTimeout: reloadTimeout,
		started:       time.Now(),
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	ts, err := snapshot(h.store)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := renderPage(r.Context(), h.presenter, ts, r.PathValue("page"), queryParams(r), h.logger)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccess(w, page)
}

type datasetInfo struct {
	ID      dataset.TableID `json:"id"`
	Label   string          `json:"label"`
	File    string          `json:"file"`
	Rows    int             `json:"rows"`
	Columns []string        `json:"columns"`
}

func (h *APIHandlers) HandleDatasets(w http.ResponseWriter, r *http.Request) {
	ts, err := snapshot(h.store)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]datasetInfo, 0, len(dataset.Sources))
	for _, s := range dataset.Sources {
		t := ts.Table(s.ID)
		out = append(out, datasetInfo{ID: s.ID, Label: s.Label, File: s.File, Rows: t.Len(), Columns: t.Columns()})
	}

	errors.WriteSuccessWithHeaders(w, out, map[string]string{"Cache-Control": cacheMaxAge})
}

// HandleDataset serves one table by label ("Combined Data") or id ("combined").
func (h *APIHandlers) HandleDataset(w http.ResponseWriter, r *http.Request) {
	ts, err := snapshot(h.store)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	name := r.PathValue("name")
	for _, s := range dataset.Sources {
		if string(s.ID) == name {
			name = s.Label
		}
	}

	exploration, err := presenter.Explore(ts, name)
	if err != nil {
		h.fail(w, r, errors.NotFoundWrap(err, "Unknown dataset"))
		return
	}

	errors.WriteSuccess(w, exploration)
}

// HandleExport serves /export/{file} where file is <name>.csv or <name>.xlsx.
func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	ext := path.Ext(file)

	format, err := exporter.ParseFormat(ext)
	if err != nil {
		h.fail(w, r, errors.NotFoundWrap(err, "Unknown export format"))
		return
	}
	export, ok := exporter.Lookup(strings.TrimSuffix(file, ext))
	if !ok {
		h.fail(w, r, errors.NotFoundWrap(exporter.ErrUnknownExport, "Unknown export"))
		return
	}

	ts, err := snapshot(h.store)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	body, err := h.exporter.Render(ts.Table(export.Table), format)
	if err != nil {
		h.fail(w, r, errors.InternalWrap(err, "Export failed"))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(format)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// HandleChart renders one slot of a page as SVG.
func (h *APIHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	ts, err := snapshot(h.store)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := renderPage(r.Context(), h.presenter, ts, r.PathValue("page"), queryParams(r), h.logger)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	slot, ok := page.Slot(r.PathValue("chart"))
	if !ok {
		h.fail(w, r, errors.NotFound("Unknown chart"))
		return
	}

	svg, err := h.renderer.RenderSlot(slot)
	switch {
	case err == nil:
	case dataset.KindOf(err) != "":
		h.fail(w, r, err)
		return
	case stderrors.Is(err, charts.ErrNoData):
		h.fail(w, r, errors.Wrap(err, errors.CodeUnprocessable, "Chart has no drawable values"))
		return
	default:
		h.fail(w, r, errors.InternalWrap(err, "Chart rendering failed"))
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", cacheMaxAge)
	w.WriteHeader(http.StatusOK)
	w.Write(svg)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ts := h.store.Current()
	if ts == nil {
		h.fail(w, r, errors.ServiceUnavailable("Dataset not loaded"))
		return
	}

	errors.WriteSuccess(w, map[string]any{
		"status":     "healthy",
		"timestamp":  time.Now().Format(time.RFC3339),
		"version":    "1.0.0",
		"generation": h.store.Generation(),
		"loaded_at":  ts.LoadedAt().Format(time.RFC3339),
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	ts, err := snapshot(h.store)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	stats := ts.Stats()
	stats["generation"] = h.store.Generation()
	stats["uptime"] = time.Since(h.started).Round(time.Second).String()

	errors.WriteSuccess(w, stats)
}

// HandleReload rebuilds the snapshot from disk. A failed reload leaves the
// current snapshot serving.
func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.reloadTimeout)
	defer cancel()

	ts, err := h.store.Reload(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	stats := ts.Stats()
	stats["generation"] = h.store.Generation()
	errors.WriteSuccess(w, stats)
}

func snapshot(store *dataset.Store) (*dataset.TableSet, error) {
	ts := store.Current()
	if ts == nil {
		return nil, errors.ServiceUnavailable("Dataset not loaded")
	}
	return ts, nil
}

func queryParams(r *http.Request) presenter.Params {
	q := r.URL.Query()
	return presenter.Params{X: q.Get("x"), Y: q.Get("y"), Dataset: q.Get("dataset")}
}

// renderPage resolves id and renders it inside a span.
func renderPage(ctx context.Context, p *presenter.Presenter, ts *dataset.TableSet, id string, params presenter.Params, logger *slog.Logger) (*presenter.Page, error) {
	info, ok := presenter.LookupPage(id)
	if !ok {
		return nil, errors.NotFound("Unknown page")
	}

	ctx, span := observability.StartSpan(ctx, "presenter.render")
	span.SetAttr("page", string(info.ID))
	defer span.End(observability.LoggerFrom(ctx, logger))

	page, err := p.Render(info.ID, ts, params)
	if err != nil {
		span.SetError(err)
		return nil, errors.InternalWrap(err, "Page rendering failed")
	}
	return page, nil
}
