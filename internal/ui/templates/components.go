// Package templates renders the dashboard HTML. Every fragment that the SSE
// endpoint patches carries a stable id so Datastar can morph it in place.
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"xerpihan-dashboard/internal/dataset"
	"xerpihan-dashboard/internal/presenter"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

var esc = templ.EscapeString[string]

// Shell is everything the full page needs.
type Shell struct {
	Page       *presenter.Page
	Params     presenter.Params
	Generation int64
}

func KPIID(id string) string  { return "kpi-" + id }
func SlotID(id string) string { return "slot-" + id }

const (
	AxesID     = "axes"
	ExplorerID = "explorer"
)

// ChartURL is the image source for one slot. The generation busts caches
// after a reload.
func ChartURL(page presenter.PageID, slot string, params presenter.Params, generation int64) string {
	q := url.Values{}
	q.Set("g", strconv.FormatInt(generation, 10))
	if params.X != "" {
		q.Set("x", params.X)
	}
	if params.Y != "" {
		q.Set("y", params.Y)
	}
	return fmt.Sprintf("/charts/%s/%s?%s", url.PathEscape(string(page)), url.PathEscape(slot), q.Encode())
}

func Dashboard(s Shell) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.printf(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.printf(`<title>Xerpihan Financial Dashboard - %s</title>`, esc(s.Page.Title))
		h.printf(`<script type="module" src="%s"></script>`, datastarScript)
		h.printf(`<style>%s</style></head><body>`, stylesheet)

		h.printf(`<header><h1>Xerpihan Financial Dashboard</h1>`)
		h.render(ctx, Nav(s.Page.ID))
		h.printf(`</header>`)

		h.printf(`<main id="page" data-signals="%s">`, esc(signals(s.Params)))
		h.printf(`<h2>%s</h2>`, esc(s.Page.Title))
		h.render(ctx, PageBody(s.Page, s.Params, s.Generation))
		h.printf(`</main><footer>Xerpihan Financial Analysis Dashboard</footer></body></html>`)
		return h.err
	})
}

func Nav(active presenter.PageID) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.printf(`<nav>`)
		for _, p := range presenter.Pages {
			class := ""
			if p.ID == active {
				class = ` class="active"`
			}
			h.printf(`<a href="/pages/%s"%s>%s</a>`, esc(string(p.ID)), class, esc(p.Title))
		}
		h.printf(`</nav>`)
		return h.err
	})
}

func PageBody(page *presenter.Page, params presenter.Params, generation int64) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}

		if len(page.KPIs) > 0 {
			h.printf(`<section class="kpis">`)
			for _, k := range page.KPIs {
				h.render(ctx, KPITile(k))
			}
			h.printf(`</section>`)
		}

		if page.Axes != nil {
			h.render(ctx, AxisPicker(page.ID, page.Axes))
		}

		h.printf(`<section class="charts">`)
		for _, s := range page.Slots {
			h.render(ctx, ChartSlot(page.ID, s, ChartURL(page.ID, s.ID, params, generation)))
		}
		h.printf(`</section>`)

		if page.Exploration != nil {
			h.render(ctx, Explorer(page.ID, page.Exploration))
		}
		if len(page.Downloads) > 0 {
			h.render(ctx, Downloads(page.Downloads))
		}
		return h.err
	})
}

func KPITile(k presenter.KPI) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.printf(`<div id="%s" class="kpi">`, esc(KPIID(k.ID)))
		h.printf(`<span class="kpi-label">%s</span>`, esc(k.Label))

		if k.Error != nil {
			h.printf(`<span class="kpi-value missing">n/a</span>`)
			h.render(ctx, ErrorBanner(k.Error))
		} else {
			h.printf(`<span class="kpi-value">%.2f%s</span>`, float64(k.Value), esc(k.Unit))
			if k.Warning != nil {
				h.printf(`<span class="kpi-warning">%s</span>`, esc(k.Warning.Reason))
			}
		}
		h.printf(`</div>`)
		return h.err
	})
}

// ChartSlot shows the chart image, or the error banner when the slot failed.
func ChartSlot(page presenter.PageID, s presenter.Slot, src string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.printf(`<figure id="%s" class="chart" data-page="%s">`, esc(SlotID(s.ID)), esc(string(page)))
		h.printf(`<figcaption>%s</figcaption>`, esc(s.Title))
		if s.Error != nil {
			h.render(ctx, ErrorBanner(s.Error))
		} else {
			h.printf(`<img src="%s" alt="%s" loading="lazy">`, esc(src), esc(s.Title))
		}
		h.printf(`</figure>`)
		return h.err
	})
}

var bannerTitles = map[dataset.Kind]string{
	dataset.KindFileNotFound:    "Data file not found",
	dataset.KindParse:           "Data file could not be read",
	dataset.KindMissingCategory: "No matching rows",
	dataset.KindMissingColumn:   "Required column missing",
	dataset.KindNonNumeric:      "Values are not numeric",
}

func ErrorBanner(e *dataset.Error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		title, ok := bannerTitles[e.Kind]
		if !ok {
			title = "Unavailable"
		}
		h.printf(`<div class="error-banner" role="alert" data-kind="%s">`, esc(string(e.Kind)))
		h.printf(`<strong>%s</strong> %s`, esc(title), esc(e.Reason))
		if e.Column != "" {
			h.printf(` <code>%s</code>`, esc(e.Column))
		}
		h.printf(`</div>`)
		return h.err
	})
}

func AxisPicker(page presenter.PageID, axes *presenter.AxisOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		action := esc(fmt.Sprintf("@get('/sse/pages/%s')", url.PathEscape(string(page))))
		h.printf(`<section id="%s" class="axes">`, AxesID)
		for _, sel := range []struct{ label, signal, value string }{
			{"X axis", "xAxis", axes.X},
			{"Y axis", "yAxis", axes.Y},
		} {
			h.printf(`<label>%s <select data-bind="%s" data-on:change="%s">`, sel.label, sel.signal, action)
			for _, c := range axes.Columns {
				selected := ""
				if c == sel.value {
					selected = " selected"
				}
				h.printf(`<option value="%s"%s>%s</option>`, esc(c), selected, esc(c))
			}
			h.printf(`</select></label>`)
		}
		h.printf(`</section>`)
		return h.err
	})
}

func Explorer(page presenter.PageID, e *presenter.Exploration) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		action := esc(fmt.Sprintf("@get('/sse/pages/%s')", url.PathEscape(string(page))))
		h.printf(`<section id="%s" class="explorer"><h3>Data Exploration</h3>`, ExplorerID)

		h.printf(`<label>Dataset <select data-bind="dataset" data-on:change="%s">`, action)
		for _, name := range e.Datasets {
			selected := ""
			if name == e.Dataset {
				selected = " selected"
			}
			h.printf(`<option value="%s"%s>%s</option>`, esc(name), selected, esc(name))
		}
		h.printf(`</select></label>`)

		if e.Error != nil {
			h.render(ctx, ErrorBanner(e.Error))
			h.printf(`</section>`)
			return h.err
		}

		h.printf(`<p class="columns">Columns: `)
		for i, c := range e.Columns {
			if i > 0 {
				h.printf(", ")
			}
			h.printf(`<code>%s</code>`, esc(c))
		}
		h.printf(`</p>`)

		h.printf(`<div class="table-wrap"><table><thead><tr>`)
		for _, c := range e.Columns {
			h.printf(`<th>%s</th>`, esc(c))
		}
		h.printf(`</tr></thead><tbody>`)
		for _, row := range e.Table.Rows() {
			h.printf(`<tr>`)
			for _, cell := range row {
				h.printf(`<td>%s</td>`, esc(cell))
			}
			h.printf(`</tr>`)
		}
		h.printf(`</tbody></table></div></section>`)
		return h.err
	})
}

func Downloads(ds []presenter.Download) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.printf(`<section class="downloads">`)
		for _, d := range ds {
			name := esc(url.PathEscape(d.Name))
			h.printf(`<a class="download" href="/export/%s.csv" download="%s">%s</a>`,
				name, esc(d.File), esc(d.Label))
			h.printf(` <a class="download alt" href="/export/%s.xlsx">xlsx</a>`, name)
		}
		h.printf(`</section>`)
		return h.err
	})
}

func signals(p presenter.Params) string {
	b, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// html accumulates the first write error so components read top to bottom.
type html struct {
	w   io.Writer
	err error
}

func (h *html) printf(format string, args ...any) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}

func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

const stylesheet = `
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6fa;color:#222}
header{background:#1f3a5f;color:#fff;padding:1rem 2rem}
nav a{color:#cfe0ff;margin-right:1rem;text-decoration:none}
nav a.active{color:#fff;font-weight:600;border-bottom:2px solid #fff}
main{padding:1rem 2rem}
.kpis{display:flex;gap:1rem;margin-bottom:1rem}
.kpi{background:#fff;border-radius:8px;padding:1rem;flex:1;box-shadow:0 1px 3px #0002}
.kpi-label{display:block;font-size:.85rem;color:#666}
.kpi-value{display:block;font-size:1.8rem;font-weight:600}
.kpi-warning{display:block;font-size:.75rem;color:#a66a00}
.charts{display:grid;grid-template-columns:repeat(auto-fit,minmax(480px,1fr));gap:1rem}
.chart{background:#fff;border-radius:8px;margin:0;padding:1rem;box-shadow:0 1px 3px #0002}
.chart img{width:100%}
.error-banner{background:#fdecea;border-left:4px solid #d93025;padding:.75rem;margin-top:.5rem}
.table-wrap{overflow:auto;max-height:420px}
table{border-collapse:collapse;width:100%;background:#fff}
th,td{border-bottom:1px solid #e3e3e3;padding:.35rem .6rem;text-align:left}
.downloads{margin-top:1rem}
.download{display:inline-block;margin-right:.5rem}
footer{padding:1rem 2rem;color:#888;font-size:.8rem}
`
